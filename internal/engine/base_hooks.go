package engine

import (
	"fmt"

	"github.com/MRamiBalles/DrillCore/internal/domain/base"
	"github.com/MRamiBalles/DrillCore/internal/domain/drill"
	"github.com/MRamiBalles/DrillCore/internal/events"
	"github.com/MRamiBalles/DrillCore/internal/quest"
)

// BaseLifecycle advances construction and production for player bases. It must
// not modify its input.
type BaseLifecycle interface {
	Advance(bases []base.Base, elapsed float64) ([]base.Base, []string, error)
}

// QuestTracker evaluates state-derived quest progress. Returned updates join
// the tick's QuestUpdates.
type QuestTracker interface {
	CheckProgress(s *drill.GameState) ([]quest.Update, error)
}

// HookFault records a contained failure in a periodic hook.
type HookFault struct {
	Hook string
	Err  error
}

func (f HookFault) Error() string {
	return fmt.Sprintf("hook %s: %v", f.Hook, f.Err)
}

func (f HookFault) Unwrap() error { return f.Err }

// Hook names.
const (
	HookBases  = "bases"
	HookRaid   = "raid"
	HookQuests = "quests"
)

// runHook calls fn with panic recovery. A failed hook leaves no trace in the state.
func (e *GameEngine) runHook(name string, fn func() (Outcome, error)) (out Outcome, fault *HookFault) {
	defer func() {
		if r := recover(); r != nil {
			out = Outcome{}
			fault = &HookFault{Hook: name, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	o, err := fn()
	if err != nil {
		return Outcome{}, &HookFault{Hook: name, Err: err}
	}
	return o, nil
}

// runHooks is called every HookEvery ticks with the seconds since the last run.
// Successful outcomes go through absorb in order so the raid sees finished bases.
func (e *GameEngine) runHooks(t *Tick, work *drill.GameState, elapsed float64, absorb func(Outcome)) []HookFault {
	var faults []HookFault

	collect := func(o Outcome, f *HookFault) {
		if f != nil {
			e.logger.Warn("hook %s failed: %v", f.Hook, f.Err)
			faults = append(faults, *f)
			return
		}
		absorb(o)
	}

	if e.bases != nil && len(work.PlayerBases) > 0 {
		collect(e.runHook(HookBases, func() (Outcome, error) {
			snapshot := make([]base.Base, len(work.PlayerBases))
			for i, b := range work.PlayerBases {
				snapshot[i] = b.Clone()
			}
			bases, msgs, err := e.bases.Advance(snapshot, elapsed)
			if err != nil {
				return Outcome{}, err
			}
			var o Outcome
			o.Patch.PlayerBases = Some(bases)
			for _, m := range msgs {
				o.emit(events.Log(m, events.ColorInfo))
			}
			return o, nil
		}))
	}

	if e.opts.RaidCheckEvery > 0 && t.Number%e.opts.RaidCheckEvery == 0 {
		collect(e.runHook(HookRaid, func() (Outcome, error) {
			return e.raid.Check(t, work), nil
		}))
	}

	if e.quests != nil {
		collect(e.runHook(HookQuests, func() (Outcome, error) {
			updates, err := e.quests.CheckProgress(work.Clone())
			if err != nil {
				return Outcome{}, err
			}
			return Outcome{Quests: updates}, nil
		}))
	}
	return faults
}
