// Package soak drives the engine headlessly for long scripted runs and checks
// the post-tick invariants after every step.
package soak

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/MRamiBalles/DrillCore/internal/domain/base"
	"github.com/MRamiBalles/DrillCore/internal/domain/drill"
	"github.com/MRamiBalles/DrillCore/internal/domain/resource"
	"github.com/MRamiBalles/DrillCore/internal/engine"
	"github.com/MRamiBalles/DrillCore/internal/events"
	"github.com/MRamiBalles/DrillCore/internal/platform/logger"
	"github.com/MRamiBalles/DrillCore/internal/quest"
)

// Invariant names reported in violations.
const (
	InvHeatRange      = "heat_range"
	InvHeatFloor      = "heat_floor"
	InvIntegrityRange = "integrity_range"
	InvResources      = "resources_non_negative"
	InvMinigameBoss   = "minigame_requires_invulnerable_boss"
	InvDepth          = "depth_non_negative"
	InvTickError      = "tick_error"
)

// Scenario is one scripted run.
type Scenario struct {
	Name  string
	Ticks int
	// Setup adjusts the fresh state before the first tick.
	Setup func(s *drill.GameState)
	// Script returns the actions to submit before tick n.
	Script func(n int64, s *drill.GameState, rng *rand.Rand) []engine.Action
	// Chaos injects base hook failures when set.
	Chaos *ChaosRates
}

// ChaosRates configures ChaosLifecycle for a scenario.
type ChaosRates struct {
	Fail  float64
	Panic float64
}

// Violation is one failed invariant check.
type Violation struct {
	Tick      int64  `json:"tick"`
	Invariant string `json:"invariant"`
	Detail    string `json:"detail"`
}

// Result summarizes a scenario run.
type Result struct {
	Scenario      string        `json:"scenario"`
	Ticks         int64         `json:"ticks"`
	FinalDepth    float64       `json:"final_depth"`
	Deaths        int           `json:"deaths"`
	Notifications int           `json:"notifications"`
	Faults        int           `json:"faults"`
	ActionsOK     int           `json:"actions_ok"`
	ActionsDenied int           `json:"actions_denied"`
	QuestsDone    int           `json:"quests_done"`
	Violations    []Violation   `json:"violations,omitempty"`
	Elapsed       time.Duration `json:"elapsed"`
	Passed        bool          `json:"passed"`
}

// Harness runs scenarios with a fixed seed and step.
type Harness struct {
	seed         uint64
	dt           float64
	maxIntegrity float64
	raidEvery    int64
	logger       *logger.Logger
}

// NewHarness creates a harness. Raids are rolled every 50 ticks so a short run
// still exercises the raid hook.
func NewHarness(seed uint64, log *logger.Logger) *Harness {
	return &Harness{
		seed:         seed,
		dt:           engine.TickRate.Seconds(),
		maxIntegrity: 100,
		raidEvery:    50,
		logger:       log,
	}
}

// Run plays sc to completion or until ctx is cancelled.
func (h *Harness) Run(ctx context.Context, sc Scenario) Result {
	start := time.Now()
	res := Result{Scenario: sc.Name}

	rng := rand.New(rand.NewPCG(h.seed, h.seed^0x50a4))
	tracker := quest.NewTracker(quest.DefaultQuests()...)
	var bases engine.BaseLifecycle = base.Lifecycle{}
	if sc.Chaos != nil {
		bases = NewChaosLifecycle(bases, sc.Chaos.Fail, sc.Chaos.Panic, h.seed)
	}
	eng := engine.NewGameEngine(engine.Deps{
		Bases:  bases,
		Quests: tracker,
		Logger: h.logger,
		Rng:    rand.New(rand.NewPCG(h.seed, h.seed)),
	}, engine.Options{RaidCheckEvery: h.raidEvery, NarrativeEvery: engine.DefaultNarrative})
	log := events.NewEventLog(nil)

	state := drill.NewGameState(h.maxIntegrity)
	if sc.Setup != nil {
		sc.Setup(state)
	}

	for i := 0; i < sc.Ticks; i++ {
		if ctx.Err() != nil {
			h.logger.Warn("soak %s cancelled at tick %d", sc.Name, state.TickCount)
			break
		}
		if sc.Script != nil {
			for _, a := range sc.Script(state.TickCount, state, rng) {
				out, err := eng.Apply(state, a)
				if err != nil {
					res.ActionsDenied++
					continue
				}
				out.Patch.ApplyTo(state)
				log.Append(state.TickCount, out.Events...)
				res.ActionsOK++
			}
		}

		prev := state
		tick, err := eng.Tick(prev, h.dt)
		if err != nil {
			res.Violations = append(res.Violations, Violation{Tick: prev.TickCount, Invariant: InvTickError, Detail: err.Error()})
			break
		}
		state = tick.Next

		res.Notifications += len(log.Append(state.TickCount, tick.Events...))
		res.Faults += len(tick.Faults)
		res.QuestsDone += len(tracker.Record(tick.QuestUpdates))
		if tick.Died {
			res.Deaths++
		}
		res.Violations = append(res.Violations, Check(eng, prev, state, tick.Died)...)
	}

	res.Ticks = state.TickCount
	res.FinalDepth = state.Depth
	res.Elapsed = time.Since(start)
	res.Passed = len(res.Violations) == 0
	return res
}

// Check verifies the post-tick invariants of next, which was produced from
// prev by one tick. died reports whether the tick ran the death transition.
func Check(eng *engine.GameEngine, prev, next *drill.GameState, died bool) []Violation {
	var v []Violation
	fail := func(inv, format string, args ...any) {
		v = append(v, Violation{Tick: next.TickCount, Invariant: inv, Detail: fmt.Sprintf(format, args...)})
	}

	if next.Heat < 0 || next.Heat > drill.MaxHeat || math.IsNaN(next.Heat) {
		fail(InvHeatRange, "heat %.3f outside [0, %.0f]", next.Heat, drill.MaxHeat)
	}
	if !died {
		before, after := eng.Stats(prev), eng.Stats(next)
		floor := math.Min(
			drill.AmbientFloor(before, next.Settings, drill.CombineEffects(prev.ActiveEffects)),
			drill.AmbientFloor(before, next.Settings, drill.CombineEffects(next.ActiveEffects)),
		)
		if next.Heat+1e-9 < floor {
			fail(InvHeatFloor, "heat %.3f below ambient floor %.3f", next.Heat, floor)
		}
		limit := math.Max(before.MaxIntegrity, after.MaxIntegrity)
		if next.Integrity < 0 || next.Integrity > limit+1e-9 {
			fail(InvIntegrityRange, "integrity %.3f outside [0, %.1f]", next.Integrity, limit)
		}
	}
	for _, k := range next.Resources.Kinds() {
		if next.Resources[k] < 0 {
			fail(InvResources, "%s = %.3f", k, next.Resources[k])
		}
	}
	if next.CombatMinigame != nil && (next.CurrentBoss == nil || !next.CurrentBoss.IsInvulnerable) {
		fail(InvMinigameBoss, "minigame %s active without an invulnerable boss", next.CombatMinigame.Type)
	}
	if next.Depth < 0 {
		fail(InvDepth, "depth %.3f", next.Depth)
	}
	return v
}

// DefaultScenarios is the standard soak suite.
func DefaultScenarios(ticks int) []Scenario {
	return []Scenario{
		{
			Name:   "idle_drill",
			Ticks:  ticks,
			Script: keepDrilling,
		},
		{
			Name:  "deep_brawler",
			Ticks: ticks,
			Setup: func(s *drill.GameState) {
				s.Depth = 16000
				s.Equipment = drill.Equipment{DrillLevel: 5, EngineLevel: 5, CoolerLevel: 3, HullLevel: 3, ArmorLevel: 3}
				s.Resources = resource.Bag{resource.Gold: 5000, resource.Crystal: 800}
				s.PlayerBases = []base.Base{{
					ID: "outpost-1", Name: "Outpost", Biome: "Magma Core",
					Storage:  resource.Bag{resource.Gold: 400, resource.Gems: 50},
					Garrison: base.Garrison{Infantry: 2},
					IsMining: true,
				}}
			},
			Script: brawl,
		},
		{
			Name:  "glass_cannon",
			Ticks: ticks,
			Setup: func(s *drill.GameState) {
				s.Depth = 3000
				s.Integrity = 5
				s.Resources = resource.Bag{resource.Iron: 33, resource.Coal: 7}
			},
			Script: brawl,
		},
		{
			Name:  "chaos_hooks",
			Ticks: ticks,
			Setup: func(s *drill.GameState) {
				s.Depth = 800
				s.PlayerBases = []base.Base{
					{ID: "outpost-1", Name: "Outpost", UnderConstruction: true, BuildRemaining: 30},
					{ID: "outpost-2", Name: "Refinery", IsRefining: true, Queue: []base.Job{{RecipeID: "smelt", Remaining: 20, Output: resource.Bag{resource.Iron: 5}}}},
				}
			},
			Script: brawl,
			Chaos:  &ChaosRates{Fail: 0.2, Panic: 0.1},
		},
	}
}

func keepDrilling(_ int64, s *drill.GameState, _ *rand.Rand) []engine.Action {
	switch {
	case s.IsCoolingGameActive:
		return []engine.Action{{Kind: engine.ActionCompleteCooling, Success: true}}
	case !s.IsDrilling:
		return []engine.Action{{Kind: engine.ActionToggleDrilling}}
	}
	return nil
}

// brawl drills, fights whatever spawns and resolves events as they queue.
func brawl(n int64, s *drill.GameState, rng *rand.Rand) []engine.Action {
	actions := keepDrilling(n, s, rng)
	if _, ok := s.CurrentEvent(); ok {
		actions = append(actions, engine.Action{Kind: engine.ActionResolveEvent})
	}
	if s.CombatMinigame != nil {
		actions = append(actions, engine.Action{Kind: engine.ActionCompleteMinigame, Success: rng.IntN(2) == 0})
	}
	if s.CurrentBoss != nil && n%3 == 0 {
		a := engine.Action{Kind: engine.ActionStrikeBoss, Damage: 5 + rng.Float64()*20}
		if live := s.CurrentBoss.LiveWeakPoints(); len(live) > 0 && rng.IntN(2) == 0 {
			wp := live[rng.IntN(len(live))]
			a.WeakPoint = &wp
		}
		actions = append(actions, a)
	}
	for _, obj := range s.FlyingObjects {
		actions = append(actions, engine.Action{Kind: engine.ActionHitObject, ObjectID: obj.ID, Damage: 10})
	}
	if n%200 == 0 {
		actions = append(actions, engine.Action{Kind: engine.ActionToggleShield})
	}
	return actions
}
