package engine

import (
	"github.com/MRamiBalles/DrillCore/internal/domain/drill"
	"github.com/MRamiBalles/DrillCore/internal/domain/rules"
	"github.com/MRamiBalles/DrillCore/internal/events"
	"github.com/MRamiBalles/DrillCore/internal/platform/logger"
)

// HazardSystem rolls low-frequency environmental damage while drilling deep.
type HazardSystem struct {
	logger *logger.Logger
}

// NewHazardSystem creates the hazard subsystem.
func NewHazardSystem(log *logger.Logger) *HazardSystem {
	return &HazardSystem{logger: log}
}

// Update may trigger one hazard. A hazard whose precondition fails is skipped.
func (hs *HazardSystem) Update(t *Tick, s *drill.GameState) Outcome {
	var out Outcome
	if !s.IsDrilling || s.Depth < rules.HazardMinDepth || len(s.EventQueue) > 0 {
		return out
	}
	if t.Rng.Float64() >= rules.HazardChancePerSec(s.Depth, t.Effects.Stability)*t.DT {
		return out
	}

	roll := t.Rng.Float64()
	switch {
	case roll < caveInShare:
		if s.Integrity <= caveInMinHullPct*t.Stats.MaxIntegrity {
			return out
		}
		dmg := caveInMinDamage + t.Rng.Float64()*caveInDamageRange
		dealt := out.damage(s, dmg)
		hs.logger.Event("HAZARD", "cave_in", "integrity hit")
		out.emit(events.Log("CAVE-IN! Rocks batter the hull.", events.ColorDanger), events.Shake(7), events.Sound("cave_in"))
		if dealt > 0 {
			out.emit(events.Text("-HULL", -dealt))
		}

	case roll < caveInShare+gasShare:
		if s.Heat >= gasMaxHeat {
			return out
		}
		out.Patch.Heat = Some(s.Heat + gasHeat)
		hs.logger.Event("HAZARD", "gas_pocket", "heat +10")
		out.emit(events.Log("Gas pocket ignites around the bit!", events.ColorWarning), events.Particles("gas"))

	default:
		if s.Depth <= magmaMinDepth || s.Heat >= magmaMaxHeat {
			return out
		}
		out.Patch.Heat = Some(s.Heat + magmaHeat)
		hs.logger.Event("HAZARD", "magma_flow", "heat +20")
		out.emit(events.Log("Magma floods the shaft!", events.ColorDanger), events.Particles("magma"), events.Sound("magma"))
	}
	return out
}
