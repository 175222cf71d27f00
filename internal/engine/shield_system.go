package engine

import (
	"github.com/MRamiBalles/DrillCore/internal/domain/drill"
	"github.com/MRamiBalles/DrillCore/internal/events"
)

// ShieldSystem charges and drains the deflector.
type ShieldSystem struct{}

// NewShieldSystem creates the shield subsystem.
func NewShieldSystem() *ShieldSystem {
	return &ShieldSystem{}
}

// Update reads the drilling and overheat flags as they stood before Heat runs.
func (ss *ShieldSystem) Update(t *Tick, s *drill.GameState) Outcome {
	var out Outcome
	charge := s.ShieldCharge

	switch {
	case s.IsShielding:
		charge -= shieldDischargeRate * t.DT
		if charge <= 0 {
			charge = 0
			out.Patch.IsShielding = Some(false)
			out.emit(events.Log("Shield depleted.", events.ColorWarning), events.Sound("shield_down"))
		}
	case s.IsDrilling && !s.IsOverheated:
		charge += shieldChargeRate * t.DT
	default:
		charge -= shieldLeakRate * t.DT
	}

	charge = clamp(charge, 0, drill.MaxShieldCharge)
	if charge != s.ShieldCharge {
		out.Patch.ShieldCharge = Some(charge)
	}
	return out
}
