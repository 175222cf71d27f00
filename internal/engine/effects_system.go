package engine

import (
	"github.com/MRamiBalles/DrillCore/internal/domain/drill"
	"github.com/MRamiBalles/DrillCore/internal/events"
	"github.com/MRamiBalles/DrillCore/internal/platform/logger"
)

// EffectsSystem decays timed buffs and debuffs.
type EffectsSystem struct {
	logger *logger.Logger
}

// NewEffectsSystem creates the effects subsystem.
func NewEffectsSystem(log *logger.Logger) *EffectsSystem {
	return &EffectsSystem{logger: log}
}

// Update reduces every remaining duration by dt and drops expired effects.
func (es *EffectsSystem) Update(t *Tick, s *drill.GameState) Outcome {
	var out Outcome
	if len(s.ActiveEffects) == 0 {
		return out
	}

	kept := make([]drill.ActiveEffect, 0, len(s.ActiveEffects))
	for _, e := range s.ActiveEffects {
		e.Remaining -= t.DT
		if e.Remaining <= 0 {
			out.emit(events.Log(e.Name+" has worn off.", events.ColorInfo))
			continue
		}
		e.Modifiers = append([]drill.Modifier(nil), e.Modifiers...)
		kept = append(kept, e)
	}
	out.Patch.ActiveEffects = Some(kept)
	return out
}
