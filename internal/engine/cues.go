package engine

import (
	"github.com/MRamiBalles/DrillCore/internal/content"
	"github.com/MRamiBalles/DrillCore/internal/domain/drill"
	"github.com/MRamiBalles/DrillCore/internal/narrative"
)

// Alarm cue identifiers.
const (
	AlarmHeat = "heat_critical"
	AlarmHull = "hull_critical"
)

// Cues are derived after the tick for the narrator and audio collaborators.
// The engine never performs the I/O itself.
type Cues struct {
	Narrative *narrative.Context `json:"narrative,omitempty"`
	Alarms    []string           `json:"alarms,omitempty"`
	Ambience  string             `json:"ambience"`
}

// deriveCues is a pure function of the post-tick state. It returns the updated
// narrative counter alongside the cues.
func deriveCues(reg content.Registry, start, s *drill.GameState, st drill.Stats, every int) (Cues, int) {
	biome := content.BiomeAt(reg, s.Depth).Name
	c := Cues{Ambience: biome}

	if s.Heat > alarmHeat {
		c.Alarms = append(c.Alarms, AlarmHeat)
	}
	if st.MaxIntegrity > 0 && s.Integrity < alarmHullShare*st.MaxIntegrity {
		c.Alarms = append(c.Alarms, AlarmHull)
	}

	counter := s.NarrativeTick + 1
	reason := narrative.Reason("")
	if every > 0 && counter >= every {
		counter = 0
		reason = narrative.ReasonPeriodic
		if s.AFKSeconds > AFKNarrativeAfter {
			reason = narrative.ReasonAFK
		}
	}
	if start.AFKSeconds <= AFKNarrativeAfter && s.AFKSeconds > AFKNarrativeAfter {
		reason = narrative.ReasonAFK
	}

	if reason != "" {
		nc := &narrative.Context{
			Reason:       reason,
			Depth:        s.Depth,
			Heat:         s.Heat,
			Integrity:    s.Integrity,
			MaxIntegrity: st.MaxIntegrity,
			AFKSeconds:   s.AFKSeconds,
			Biome:        biome,
		}
		if s.CurrentBoss != nil {
			nc.BossName = s.CurrentBoss.Name
		}
		c.Narrative = nc
	}
	return c, counter
}
