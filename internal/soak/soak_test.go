package soak

import (
	"context"
	"io"
	"testing"

	"github.com/MRamiBalles/DrillCore/internal/domain/boss"
	"github.com/MRamiBalles/DrillCore/internal/domain/drill"
	"github.com/MRamiBalles/DrillCore/internal/domain/resource"
	"github.com/MRamiBalles/DrillCore/internal/engine"
	"github.com/MRamiBalles/DrillCore/internal/platform/logger"
)

func quietHarness(seed uint64) *Harness {
	return NewHarness(seed, logger.NewWithWriter(io.Discard))
}

func TestDefaultScenariosHoldInvariants(t *testing.T) {
	for _, seed := range []uint64{1, 7, 42} {
		h := quietHarness(seed)
		for _, sc := range DefaultScenarios(1500) {
			res := h.Run(context.Background(), sc)
			if !res.Passed {
				t.Errorf("seed %d %s: %d violations, first: %+v", seed, sc.Name, len(res.Violations), res.Violations[0])
			}
			if res.Ticks != 1500 {
				t.Errorf("seed %d %s: ran %d ticks", seed, sc.Name, res.Ticks)
			}
		}
	}
}

func TestGlassCannonDies(t *testing.T) {
	sc := DefaultScenarios(50)[2]
	sc.Setup = func(s *drill.GameState) {
		s.Integrity = 0
		s.Resources = resource.Bag{resource.Iron: 33}
	}
	res := quietHarness(3).Run(context.Background(), sc)
	if res.Deaths == 0 {
		t.Fatal("expected a death transition on the first tick")
	}
	if !res.Passed {
		t.Errorf("violations after death: %+v", res.Violations)
	}
}

func TestRunIsReplayable(t *testing.T) {
	sc := DefaultScenarios(800)[1]
	a := quietHarness(99).Run(context.Background(), sc)
	b := quietHarness(99).Run(context.Background(), sc)
	if a.FinalDepth != b.FinalDepth || a.Deaths != b.Deaths || a.Notifications != b.Notifications {
		t.Errorf("same seed diverged: %+v vs %+v", a, b)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := quietHarness(1).Run(ctx, DefaultScenarios(100)[0])
	if res.Ticks != 0 {
		t.Errorf("cancelled run advanced %d ticks", res.Ticks)
	}
}

func TestCheckFlagsBrokenState(t *testing.T) {
	eng := engine.NewGameEngine(engine.Deps{Logger: logger.NewWithWriter(io.Discard)}, engine.Options{})
	prev := drill.NewGameState(100)
	next := prev.Clone()
	next.Heat = 120
	next.Depth = -1
	next.Resources = resource.Bag{resource.Gold: -3}
	next.CombatMinigame = &boss.Minigame{Type: "circuit"}

	got := map[string]bool{}
	for _, v := range Check(eng, prev, next, false) {
		got[v.Invariant] = true
	}
	for _, inv := range []string{InvHeatRange, InvDepth, InvResources, InvMinigameBoss} {
		if !got[inv] {
			t.Errorf("expected %s violation, got %v", inv, got)
		}
	}
}

func TestChaosHooksAreContained(t *testing.T) {
	var sc Scenario
	for _, s := range DefaultScenarios(1000) {
		if s.Name == "chaos_hooks" {
			sc = s
		}
	}
	res := quietHarness(5).Run(context.Background(), sc)
	if res.Faults == 0 {
		t.Fatal("expected injected hook faults")
	}
	if !res.Passed {
		t.Errorf("faulty hooks broke invariants: %+v", res.Violations[0])
	}
	if res.Ticks != 1000 {
		t.Errorf("run stopped early at %d", res.Ticks)
	}
}
