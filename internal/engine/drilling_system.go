package engine

import (
	"fmt"
	"math"

	"github.com/MRamiBalles/DrillCore/internal/content"
	"github.com/MRamiBalles/DrillCore/internal/domain/drill"
	"github.com/MRamiBalles/DrillCore/internal/domain/rules"
	"github.com/MRamiBalles/DrillCore/internal/events"
	"github.com/MRamiBalles/DrillCore/internal/platform/logger"
)

// DrillingSystem turns drill power into depth and resources, or into tunnel
// progress while a side tunnel is open.
type DrillingSystem struct {
	registry content.Registry
	tunnels  *TunnelSystem
	logger   *logger.Logger
}

// NewDrillingSystem creates the drilling subsystem.
func NewDrillingSystem(reg content.Registry, tunnels *TunnelSystem, log *logger.Logger) *DrillingSystem {
	return &DrillingSystem{registry: reg, tunnels: tunnels, logger: log}
}

// Power is the drill power produced this tick, before any gating.
func Power(t *Tick, s *drill.GameState) float64 {
	p := t.Stats.DrillSpeed * rules.SpeedPenalty(s.Depth, t.Stats.Torque) * t.Effects.DrillSpeed * t.DT
	if s.Settings.Overdrive {
		p *= rules.OverdriveMultiplier
	}
	return math.Max(0, p)
}

// Update drills one tick. Unlocks are checked whether or not the drill runs.
func (ds *DrillingSystem) Update(t *Tick, s *drill.GameState) Outcome {
	var out Outcome
	depth := s.Depth

	if s.IsDrilling && !s.IsOverheated && s.Integrity > 0 && s.CurrentBoss == nil {
		power := Power(t, s)
		if s.SideTunnel != nil {
			out = ds.tunnels.Advance(t, s, power)
		} else {
			biome := content.BiomeAt(ds.registry, depth)
			if s.SelectedBiome != "" {
				if b, ok := content.BiomeByName(ds.registry, s.SelectedBiome); ok {
					biome = b
				}
			} else {
				// Take the larger of drilled and jumped depth.
				depth = math.Max(s.Depth, t.Start.Depth+power)
				biome = content.BiomeAt(ds.registry, depth)
				out.Patch.Depth = Some(depth)
			}
			if biome.Resource != "" {
				out.Patch.Credit(biome.Resource, power*rules.ResourceYieldRatio*t.Effects.ResourceYield)
			}
		}
	}

	ds.checkUnlocks(s, depth, &out)
	return out
}

func (ds *DrillingSystem) checkUnlocks(s *drill.GameState, depth float64, out *Outcome) {
	var unlocked map[string]bool
	for _, u := range ds.registry.Unlocks() {
		if depth < u.Depth || s.Unlocks[u.ID] {
			continue
		}
		if unlocked == nil {
			unlocked = make(map[string]bool, len(s.Unlocks)+1)
			for k, v := range s.Unlocks {
				unlocked[k] = v
			}
		}
		unlocked[u.ID] = true
		ds.logger.Info("unlock %s at depth %.0f", u.ID, depth)
		out.emit(
			events.Log(fmt.Sprintf("UNLOCKED: %s", u.Label), events.ColorSuccess),
			events.Sound("unlock"),
		)
	}
	if unlocked != nil {
		out.Patch.Unlocks = Some(unlocked)
	}
}
