package engine

import (
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/MRamiBalles/DrillCore/internal/content"
	"github.com/MRamiBalles/DrillCore/internal/domain/drill"
	"github.com/MRamiBalles/DrillCore/internal/events"
	"github.com/MRamiBalles/DrillCore/internal/platform/logger"
)

// EventSystem rolls ambient events into the queue.
type EventSystem struct {
	registry content.Registry
	logger   *logger.Logger
}

// NewEventSystem creates the ambient event subsystem.
func NewEventSystem(reg content.Registry, log *logger.Logger) *EventSystem {
	return &EventSystem{registry: reg, logger: log}
}

// Update counts toward the next check and, on the check tick, may enqueue one event.
func (es *EventSystem) Update(t *Tick, s *drill.GameState) Outcome {
	var out Outcome
	check := s.EventCheckTick + 1
	if check < EventCheckEvery {
		out.Patch.EventCheckTick = Some(check)
		return out
	}
	out.Patch.EventCheckTick = Some(0)

	if len(s.EventQueue) > 0 || s.CurrentBoss != nil || s.CombatMinigame != nil {
		return out
	}
	if t.Rng.Float64() >= eventRollChance {
		return out
	}

	def, ok := pickEvent(es.registry.Events(), s.Depth, s.RecentEventIDs, t.Rng)
	if !ok {
		return out
	}

	inst := drill.EventInstance{InstanceID: newID(t.Rng), DefinitionID: def.ID, Title: def.Title}
	out.Patch.EventQueue = Some(append(append([]drill.EventInstance(nil), s.EventQueue...), inst))
	out.Patch.RecentEventIDs = Some(drill.PushRecentEvent(s.RecentEventIDs, def.ID))
	out.emit(events.Log("EVENT: "+def.Title, events.ColorWarning), events.Sound("event"))
	es.applyInstant(t, s, def.Instant, &out)

	es.logger.Event("AMBIENT_EVENT", def.ID, fmt.Sprintf("tick=%d depth=%.0f", t.Number, s.Depth))
	return out
}

func (es *EventSystem) applyInstant(t *Tick, s *drill.GameState, fx content.InstantEffect, out *Outcome) {
	if fx.IntegrityPct > 0 {
		if dealt := out.damage(s, fx.IntegrityPct*t.Stats.MaxIntegrity); dealt > 0 {
			out.emit(events.Text("-HULL", -dealt), events.Shake(4))
		}
	}
	if fx.DepthJump != 0 {
		depth := s.Depth + fx.DepthJump
		if depth < 0 {
			depth = 0
		}
		out.Patch.Depth = Some(depth)
		out.emit(events.Text(fmt.Sprintf("%+.0fm", fx.DepthJump), fx.DepthJump))
	}
	if fx.XP != 0 {
		out.Patch.XPDelta += fx.XP
		out.emit(events.Text(fmt.Sprintf("+%.0f XP", fx.XP), fx.XP))
	}
	if fx.Heat != 0 {
		out.Patch.Heat = Some(clamp(s.Heat+fx.Heat, 0, drill.MaxHeat))
	}
}

// pickEvent draws by weight among events unlocked at depth and not recently seen.
func pickEvent(defs []content.EventDefinition, depth float64, recent []string, rng *rand.Rand) (content.EventDefinition, bool) {
	var pool []content.EventDefinition
	total := 0.0
	for _, d := range defs {
		if d.Weight <= 0 || depth < d.MinDepth || slices.Contains(recent, d.ID) {
			continue
		}
		pool = append(pool, d)
		total += d.Weight
	}
	if len(pool) == 0 {
		return content.EventDefinition{}, false
	}

	roll := rng.Float64() * total
	for _, d := range pool {
		roll -= d.Weight
		if roll < 0 {
			return d, true
		}
	}
	return pool[len(pool)-1], true
}
