package engine

import (
	"errors"
	"io"
	"math"
	"math/rand/v2"

	"github.com/MRamiBalles/DrillCore/internal/content"
	"github.com/MRamiBalles/DrillCore/internal/domain/drill"
	"github.com/MRamiBalles/DrillCore/internal/domain/resource"
	"github.com/MRamiBalles/DrillCore/internal/events"
	"github.com/MRamiBalles/DrillCore/internal/platform/logger"
	"github.com/MRamiBalles/DrillCore/internal/quest"
	"github.com/MRamiBalles/DrillCore/internal/stats"
)

var (
	// ErrInvalidDelta is returned for dt <= 0, NaN or Inf.
	ErrInvalidDelta = errors.New("engine: dt must be a positive finite number of seconds")
	// ErrNilState is returned when Tick is called without a state.
	ErrNilState = errors.New("engine: nil state")
)

// StatsCalculator derives the per-tick Stats snapshot.
type StatsCalculator interface {
	Compute(s *drill.GameState) drill.Stats
}

// Options are the tunable cadences.
type Options struct {
	RaidCheckEvery int64 // ticks between raid rolls, 0 disables raids
	NarrativeEvery int   // ticks between periodic narrative cues, 0 disables
}

// DefaultOptions returns the standard cadences for a 10 Hz loop.
func DefaultOptions() Options {
	return Options{RaidCheckEvery: DefaultRaidEvery, NarrativeEvery: DefaultNarrative}
}

// Deps are the collaborators injected into the engine. Nil fields get defaults,
// except Bases and Quests which are skipped when nil.
type Deps struct {
	Stats   StatsCalculator
	Content content.Registry
	Bases   BaseLifecycle
	Quests  QuestTracker
	Logger  *logger.Logger
	Rng     *rand.Rand
}

// Result is everything one tick produced.
type Result struct {
	Patch        Patch                 // turns the input state into Next
	Events       []events.Notification // in emission order
	QuestUpdates []quest.Update
	Cues         Cues
	Faults       []HookFault
	Died         bool
	Next         *drill.GameState
}

type subsystem func(t *Tick, s *drill.GameState) Outcome

// GameEngine is the tick orchestrator and the only mutator of the working state.
type GameEngine struct {
	registry content.Registry
	stats    StatsCalculator
	bases    BaseLifecycle
	quests   QuestTracker
	logger   *logger.Logger
	rng      *rand.Rand
	opts     Options

	effects  *EffectsSystem
	analyzer *AnalyzerSystem
	event    *EventSystem
	shield   *ShieldSystem
	heat     *HeatSystem
	drilling *DrillingSystem
	combat   *CombatSystem
	entity   *EntitySystem
	drone    *DroneSystem
	hazard   *HazardSystem
	raid     *RaidSystem

	pipeline []subsystem
}

// NewGameEngine wires the subsystems in their fixed order.
func NewGameEngine(deps Deps, opts Options) *GameEngine {
	if deps.Content == nil {
		deps.Content = content.NewStatic()
	}
	if deps.Stats == nil {
		deps.Stats = stats.NewCalculator(deps.Content)
	}
	if deps.Logger == nil {
		deps.Logger = logger.NewWithWriter(io.Discard)
	}
	if deps.Rng == nil {
		deps.Rng = rand.New(rand.NewPCG(1, 1))
	}
	log := deps.Logger

	e := &GameEngine{
		registry: deps.Content,
		stats:    deps.Stats,
		bases:    deps.Bases,
		quests:   deps.Quests,
		logger:   log,
		rng:      deps.Rng,
		opts:     opts,

		effects:  NewEffectsSystem(log),
		analyzer: NewAnalyzerSystem(deps.Content, log),
		event:    NewEventSystem(deps.Content, log),
		shield:   NewShieldSystem(),
		heat:     NewHeatSystem(log),
		drilling: NewDrillingSystem(deps.Content, NewTunnelSystem(deps.Content, log), log),
		combat:   NewCombatSystem(deps.Content, log),
		entity:   NewEntitySystem(deps.Content),
		drone:    NewDroneSystem(),
		hazard:   NewHazardSystem(log),
		raid:     NewRaidSystem(log),
	}

	// Effects runs first and separately so the rest see refreshed totals.
	e.pipeline = []subsystem{
		e.analyzer.Update,
		e.event.Update,
		e.shield.Update,
		e.heat.Update,
		e.drilling.Update,
		e.combat.Update,
		e.entity.Update,
		e.drone.Update,
		e.hazard.Update,
	}
	return e
}

// Registry exposes the content tables used by the engine.
func (e *GameEngine) Registry() content.Registry {
	return e.registry
}

// Stats computes the derived stats for s with the engine's calculator.
func (e *GameEngine) Stats(s *drill.GameState) drill.Stats {
	return e.stats.Compute(s)
}

// Rng exposes the engine's source so player actions draw from the same stream.
// Not safe for concurrent use; the runtime calls it from its loop goroutine only.
func (e *GameEngine) Rng() *rand.Rand {
	return e.rng
}

// Tick advances state by dt seconds. state is not modified.
func (e *GameEngine) Tick(state *drill.GameState, dt float64) (Result, error) {
	if state == nil {
		return Result{}, ErrNilState
	}
	if dt <= 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		return Result{}, ErrInvalidDelta
	}

	st := e.stats.Compute(state)

	if IsDead(state) {
		out := DeathTransition(state, st.MaxIntegrity)
		next := state.Clone()
		out.Patch.ApplyTo(next)
		e.logger.Warn("death transition at depth %.0f", state.Depth)
		return Result{Patch: Diff(state, next), Events: out.Events, Died: true, Next: next}, nil
	}

	work := state.Clone()
	work.TickCount++
	t := &Tick{
		Start:  state,
		Stats:  st,
		DT:     dt,
		Number: work.TickCount,
		Rng:    e.rng,
	}
	t.Effects = drill.CombineEffects(work.ActiveEffects)
	t.Floor = drill.AmbientFloor(st, work.Settings, t.Effects)

	var res Result
	delta := resource.Bag{}
	xp := 0.0
	absorb := func(o Outcome) {
		o.Patch.applyFields(work)
		delta.Add(o.Patch.ResourceDelta)
		xp += o.Patch.XPDelta
		res.Events = append(res.Events, o.Events...)
		res.QuestUpdates = append(res.QuestUpdates, o.Quests...)
	}

	absorb(e.effects.Update(t, work))
	t.Effects = drill.CombineEffects(work.ActiveEffects)
	t.Floor = drill.AmbientFloor(st, work.Settings, t.Effects)

	for _, update := range e.pipeline {
		absorb(update(t, work))
	}

	work.AFKSeconds += dt
	work.HookElapsed += dt
	if work.TickCount%HookEvery == 0 {
		res.Faults = e.runHooks(t, work, work.HookElapsed, absorb)
		work.HookElapsed = 0
	}

	work.Resources = MergeResources(work.Resources, delta, work.Settings.InfiniteResources)
	work.XP = math.Max(0, work.XP+xp)
	clampState(work, st, t.Floor)

	if IsDead(work) {
		out := DeathTransition(work, st.MaxIntegrity)
		out.Patch.applyFields(work)
		res.Events = append(res.Events, out.Events...)
		res.Died = true
		e.logger.Warn("rig destroyed at tick %d", work.TickCount)
	}

	res.Cues, work.NarrativeTick = deriveCues(e.registry, state, work, st, e.opts.NarrativeEvery)
	res.Patch = Diff(state, work)
	res.Next = work
	return res, nil
}

// clampState enforces the post-tick bounds.
func clampState(s *drill.GameState, st drill.Stats, floor float64) {
	s.Depth = math.Max(0, s.Depth)
	s.Heat = clamp(s.Heat, floor, drill.MaxHeat)
	s.Integrity = clamp(s.Integrity, 0, st.MaxIntegrity)
	s.ShieldCharge = clamp(s.ShieldCharge, 0, drill.MaxShieldCharge)
	s.Resources.ClampNonNegative()
	if s.CombatMinigame != nil && s.CurrentBoss == nil {
		s.CombatMinigame = nil
	}
	if s.CombatMinigame != nil {
		s.CurrentBoss.IsInvulnerable = true
	}
}
