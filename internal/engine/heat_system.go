package engine

import (
	"github.com/MRamiBalles/DrillCore/internal/domain/drill"
	"github.com/MRamiBalles/DrillCore/internal/domain/rules"
	"github.com/MRamiBalles/DrillCore/internal/events"
	"github.com/MRamiBalles/DrillCore/internal/platform/logger"
	"github.com/MRamiBalles/DrillCore/internal/quest"
)

// HeatSystem integrates temperature and runs the
// NORMAL -> EMERGENCY_COOLDOWN / OVERHEATED -> NORMAL state machine.
type HeatSystem struct {
	logger *logger.Logger
}

// NewHeatSystem creates the heat subsystem.
func NewHeatSystem(log *logger.Logger) *HeatSystem {
	return &HeatSystem{logger: log}
}

// Update advances heat by one tick.
func (hs *HeatSystem) Update(t *Tick, s *drill.GameState) Outcome {
	var out Outcome
	heat := s.Heat
	drilling := s.IsDrilling
	overheated := s.IsOverheated
	cooling := s.IsCoolingGameActive
	stability := s.HeatStabilityTimer

	if drilling && !overheated {
		if !s.Settings.InfiniteCoolant {
			heat += rules.HeatGainPerSec(t.Stats.HeatReductionPct, t.Effects.HeatGain) * t.DT
		}
		if heat >= heatStabilityLow && heat <= heatStabilityHigh {
			stability += t.DT
			if stability >= heatStabilitySeconds {
				out.progress("heat_stability", quest.TypeMaintain)
				stability = 0
			}
		} else {
			stability = 0
		}
	} else {
		stability = 0
	}

	switch {
	case heat >= rules.EmergencyThreshold && !cooling && !overheated:
		heat = rules.EmergencyThreshold
		drilling = false
		cooling = true
		hs.logger.Warn("emergency cooldown at tick %d", t.Number)
		out.emit(
			events.Log("WARNING: core temperature critical. Emergency cooldown engaged!", events.ColorDanger),
			events.Sound("alarm"),
		)

	// An overheated rig falls through to decay even while pinned at MaxHeat.
	case heat >= drill.MaxHeat && !overheated:
		heat = drill.MaxHeat
		drilling = false
		overheated = true
		dealt := out.damage(s, rules.OverheatDamagePct*t.Stats.MaxIntegrity)
		hs.logger.Warn("overheat at tick %d, hull damage %.1f", t.Number, dealt)
		out.emit(
			events.Log("OVERHEAT! The drill seizes and the hull buckles.", events.ColorDanger),
			events.Shake(8),
			events.Sound("overheat"),
		)
		if dealt > 0 {
			out.emit(events.Text("-HULL", -dealt))
		}

	case !drilling || overheated:
		heat -= t.Stats.CoolingPower * t.Effects.Cooling * t.DT
		if heat < t.Floor {
			heat = t.Floor
		}
		if (overheated || cooling) && heat <= t.Floor+rules.RecoveryMargin {
			overheated = false
			cooling = false
			out.emit(events.Log("Systems cooled. Drill ready.", events.ColorSuccess), events.Sound("systems_ready"))
		}
	}

	heat = clamp(heat, t.Floor, drill.MaxHeat)

	if heat != s.Heat {
		out.Patch.Heat = Some(heat)
	}
	if drilling != s.IsDrilling {
		out.Patch.IsDrilling = Some(drilling)
	}
	if overheated != s.IsOverheated {
		out.Patch.IsOverheated = Some(overheated)
	}
	if cooling != s.IsCoolingGameActive {
		out.Patch.IsCoolingGameActive = Some(cooling)
	}
	if stability != s.HeatStabilityTimer {
		out.Patch.HeatStabilityTimer = Some(stability)
	}
	return out
}
