package engine

import (
	"math"

	"github.com/MRamiBalles/DrillCore/internal/domain/drill"
)

// DroneSystem applies repair and cooler drones. There is no passive
// regeneration: healing comes from drones or consumables only.
type DroneSystem struct{}

// NewDroneSystem creates the drone subsystem.
func NewDroneSystem() *DroneSystem {
	return &DroneSystem{}
}

// Update heals and cools toward their bounds.
func (ds *DroneSystem) Update(t *Tick, s *drill.GameState) Outcome {
	var out Outcome
	eff := t.Stats.DroneEfficiency

	if d, ok := s.Drones[drill.DroneRepair]; ok && d.Active && d.Level > 0 && s.Integrity > 0 && s.Integrity < t.Stats.MaxIntegrity {
		heal := float64(d.Level) * repairPerLevel * eff * t.DT
		out.Patch.Integrity = Some(math.Min(t.Stats.MaxIntegrity, s.Integrity+heal))
	}

	if d, ok := s.Drones[drill.DroneCooler]; ok && d.Active && d.Level > 0 && s.Heat > t.Floor {
		cool := float64(d.Level) * coolerPerLevel * eff * t.DT
		out.Patch.Heat = Some(math.Max(t.Floor, s.Heat-cool))
	}
	return out
}
