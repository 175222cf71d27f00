package engine

import (
	"fmt"

	"github.com/MRamiBalles/DrillCore/internal/content"
	"github.com/MRamiBalles/DrillCore/internal/domain/drill"
	"github.com/MRamiBalles/DrillCore/internal/domain/resource"
	"github.com/MRamiBalles/DrillCore/internal/events"
)

// EntitySystem spawns, moves and collects cosmetic flying objects.
type EntitySystem struct {
	registry content.Registry
}

// NewEntitySystem creates the entity subsystem.
func NewEntitySystem(reg content.Registry) *EntitySystem {
	return &EntitySystem{registry: reg}
}

// Update pays out destroyed objects, moves the rest, and may spawn one.
func (es *EntitySystem) Update(t *Tick, s *drill.GameState) Outcome {
	var out Outcome
	objects := make([]drill.FlyingObject, 0, len(s.FlyingObjects)+1)
	changed := false

	for _, o := range s.FlyingObjects {
		if o.HP <= 0 {
			out.Patch.CreditBag(o.Reward)
			out.emit(events.Particles("collect"), events.Text(fmt.Sprintf("+%.0f", o.Reward.Total()), o.Reward.Total()))
			changed = true
			continue
		}
		o.X += o.VX * t.DT
		o.Y += o.VY * t.DT
		changed = true
		if o.X < 0 || o.X > flyingRegion || o.Y < 0 || o.Y > flyingRegion {
			continue
		}
		o.Reward = o.Reward.Clone()
		objects = append(objects, o)
	}

	occupied := s.CurrentBoss != nil || s.CombatMinigame != nil || s.IsCoolingGameActive
	if !occupied && len(objects) < maxFlyingObjects && t.Rng.Float64() < flyingSpawnPerSec*t.DT {
		objects = append(objects, es.spawn(t, s))
		changed = true
	}

	if changed {
		out.Patch.FlyingObjects = Some(objects)
	}
	return out
}

func (es *EntitySystem) spawn(t *Tick, s *drill.GameState) drill.FlyingObject {
	kind := resource.Stone
	if b := content.BiomeAt(es.registry, s.Depth); b.Resource != "" {
		kind = b.Resource
	}
	return drill.FlyingObject{
		ID:     newID(t.Rng),
		Kind:   string(kind),
		X:      0,
		Y:      10 + t.Rng.Float64()*80,
		VX:     5 + t.Rng.Float64()*10,
		VY:     -3 + t.Rng.Float64()*6,
		HP:     float64(1 + t.Rng.IntN(3)),
		Reward: resource.Bag{kind: float64(5 + t.Rng.IntN(11))},
	}
}
