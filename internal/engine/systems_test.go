package engine

import (
	"errors"
	"math"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/MRamiBalles/DrillCore/internal/content"
	"github.com/MRamiBalles/DrillCore/internal/domain/boss"
	"github.com/MRamiBalles/DrillCore/internal/domain/drill"
	"github.com/MRamiBalles/DrillCore/internal/domain/item"
	"github.com/MRamiBalles/DrillCore/internal/domain/resource"
	"github.com/MRamiBalles/DrillCore/internal/domain/rules"
	"github.com/MRamiBalles/DrillCore/internal/events"
	"github.com/MRamiBalles/DrillCore/internal/stats"
)

// scriptedSource replays fixed Float64 results in order, cycling when exhausted.
// Values must be non-zero so IntN never spins on rejection.
type scriptedSource struct {
	rolls []float64
	i     int
}

func (s *scriptedSource) Uint64() uint64 {
	v := s.rolls[s.i%len(s.rolls)]
	s.i++
	return uint64(v * (1 << 53))
}

func scriptedRng(rolls ...float64) *rand.Rand {
	return rand.New(&scriptedSource{rolls: rolls})
}

// tickFor builds the read-only tick context the orchestrator would pass.
func tickFor(s *drill.GameState, rng *rand.Rand) *Tick {
	st := stats.NewCalculator(content.NewStatic()).Compute(s)
	fx := drill.CombineEffects(s.ActiveEffects)
	return &Tick{
		Start:   s,
		Stats:   st,
		Effects: fx,
		Floor:   drill.AmbientFloor(st, s.Settings, fx),
		DT:      0.1,
		Number:  s.TickCount + 1,
		Rng:     rng,
	}
}

func hasMessage(ns []events.Notification, substr string) bool {
	for _, n := range ns {
		if strings.Contains(n.Message, substr) {
			return true
		}
	}
	return false
}

func countSound(ns []events.Notification, cue string) int {
	n := 0
	for _, ev := range ns {
		if ev.Type == events.TypeSound && ev.Cue == cue {
			n++
		}
	}
	return n
}

func TestOverheatDamagesOnceThenRecovers(t *testing.T) {
	hs := NewHeatSystem(quietLogger())
	s := drill.NewGameState(150)
	s.Equipment.HullLevel = 2
	s.Heat = 100
	s.IsCoolingGameActive = true

	var all []events.Notification
	recovered := false
	for i := 0; i < 1000 && !recovered; i++ {
		out := hs.Update(tickFor(s, scriptedRng(0.5)), s)
		out.Patch.ApplyTo(s)
		s.TickCount++
		all = append(all, out.Events...)
		recovered = hasMessage(out.Events, "Systems cooled")

		if i == 0 {
			if !s.IsOverheated || s.IsDrilling || s.Heat != drill.MaxHeat {
				t.Fatalf("first tick should overheat: heat=%.1f overheated=%v", s.Heat, s.IsOverheated)
			}
			if _, err := ToggleDrilling(s); !errors.Is(err, ErrDrillLocked) {
				t.Errorf("drill should be locked while overheated, got %v", err)
			}
		}
	}

	if !recovered {
		t.Fatalf("overheated rig never recovered: heat=%.1f", s.Heat)
	}
	if got := countSound(all, "overheat"); got != 1 {
		t.Errorf("overheat fired %d times, want 1", got)
	}
	if s.Integrity != 135 {
		t.Errorf("integrity = %.1f, want 135 (10%% of 150 once)", s.Integrity)
	}
	if s.IsOverheated || s.IsCoolingGameActive {
		t.Error("recovery must clear overheated and cooling")
	}
	if floor := tickFor(s, nil).Floor; s.Heat > floor+rules.RecoveryMargin {
		t.Errorf("heat %.2f above recovery margin", s.Heat)
	}
	if _, err := ToggleDrilling(s); err != nil {
		t.Errorf("drill should restart after recovery: %v", err)
	}
}

func TestOverheatedRigCoolsThroughEngine(t *testing.T) {
	e := newTestEngine(Deps{}, Options{})
	s := drill.NewGameState(100)
	s.Heat = 100
	s.IsCoolingGameActive = true

	for i := 0; i < 3000; i++ {
		res := mustTick(t, e, s, 0.1)
		s = res.Next
		if i == 10 && s.IsCoolingGameActive {
			out, err := CompleteCoolingGame(s, false, 0)
			if err != nil {
				t.Fatalf("failing the cooling game: %v", err)
			}
			out.Patch.ApplyTo(s)
		}
	}
	if s.IsOverheated || s.IsCoolingGameActive {
		t.Fatalf("still locked after 300s idle: heat=%.1f overheated=%v cooling=%v", s.Heat, s.IsOverheated, s.IsCoolingGameActive)
	}
	if _, err := ToggleDrilling(s); err != nil {
		t.Errorf("toggle after cooldown: %v", err)
	}
}

func TestHazardGates(t *testing.T) {
	tests := []struct {
		name      string
		depth     float64
		heat      float64
		integrity float64
		queued    bool
		category  float64
		wantHeat  float64
		wantHull  float64
	}{
		{"cave in", 10000, 50, 100, false, 0.1, 50, 90},
		{"cave in skipped on weak hull", 10000, 50, 20, false, 0.1, 50, 20},
		{"gas pocket", 10000, 50, 100, false, 0.5, 60, 100},
		{"gas skipped when hot", 10000, 80, 100, false, 0.5, 80, 100},
		{"magma", 16000, 50, 100, false, 0.9, 70, 100},
		{"magma skipped when shallow", 15000, 50, 100, false, 0.9, 50, 100},
		{"magma skipped when hot", 16000, 70, 100, false, 0.9, 70, 100},
		{"nothing while an event is queued", 10000, 50, 100, true, 0.1, 50, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hs := NewHazardSystem(quietLogger())
			s := drill.NewGameState(100)
			s.IsDrilling = true
			s.Depth = tt.depth
			s.Heat = tt.heat
			s.Integrity = tt.integrity
			if tt.queued {
				s.EventQueue = []drill.EventInstance{{InstanceID: "e1", DefinitionID: "tremor"}}
			}

			// chance roll, category roll, cave-in damage roll (5 + 0.5*10)
			out := hs.Update(tickFor(s, scriptedRng(0.0001, tt.category, 0.5)), s)
			out.Patch.ApplyTo(s)

			if s.Heat != tt.wantHeat || s.Integrity != tt.wantHull {
				t.Errorf("heat=%.1f hull=%.1f, want %.1f/%.1f", s.Heat, s.Integrity, tt.wantHeat, tt.wantHull)
			}
			if changed := tt.wantHeat != tt.heat || tt.wantHull != tt.integrity; changed != (len(out.Events) > 0) {
				t.Errorf("events = %d, changed = %v", len(out.Events), changed)
			}
		})
	}
}

func TestHazardsNeedDrilling(t *testing.T) {
	hs := NewHazardSystem(quietLogger())
	s := drill.NewGameState(100)
	s.Depth = 20000
	s.Heat = 30

	out := hs.Update(tickFor(s, scriptedRng(0.0001)), s)
	if out.Patch.Heat.Set || out.Patch.Integrity.Set || len(out.Events) > 0 {
		t.Error("idle rig must not roll hazards")
	}
}

// eventsOnly overrides the event table of the static content.
type eventsOnly struct {
	content.Registry
	defs []content.EventDefinition
}

func (r eventsOnly) Events() []content.EventDefinition { return r.defs }

func TestEventCadence(t *testing.T) {
	reg := eventsOnly{Registry: content.NewStatic(), defs: []content.EventDefinition{
		{ID: "quiet", Title: "Quiet Hum", Weight: 1},
	}}
	es := NewEventSystem(reg, quietLogger())
	s := drill.NewGameState(100)

	s.EventCheckTick = EventCheckEvery - 2
	out := es.Update(tickFor(s, scriptedRng(0.0001)), s)
	if out.Patch.EventQueue.Set || out.Patch.EventCheckTick.Value != EventCheckEvery-1 {
		t.Fatalf("event rolled before the check tick: %+v", out.Patch.EventCheckTick)
	}

	s.EventCheckTick = EventCheckEvery - 1
	out = es.Update(tickFor(s, scriptedRng(0.0001)), s)
	if !out.Patch.EventQueue.Set || len(out.Patch.EventQueue.Value) != 1 {
		t.Fatal("expected an event on the check tick")
	}
	if out.Patch.EventCheckTick.Value != 0 {
		t.Errorf("counter should reset, got %d", out.Patch.EventCheckTick.Value)
	}
	if got := out.Patch.RecentEventIDs.Value; len(got) != 1 || got[0] != "quiet" {
		t.Errorf("recent ids = %v", got)
	}
}

func TestEventSkippedWhileBusy(t *testing.T) {
	reg := eventsOnly{Registry: content.NewStatic(), defs: []content.EventDefinition{
		{ID: "quiet", Title: "Quiet Hum", Weight: 1},
	}}
	es := NewEventSystem(reg, quietLogger())

	busy := map[string]func(*drill.GameState){
		"boss":   func(s *drill.GameState) { s.CurrentBoss = &boss.Boss{HP: 10, MaxHP: 10} },
		"queued": func(s *drill.GameState) { s.EventQueue = []drill.EventInstance{{InstanceID: "x", DefinitionID: "quiet"}} },
	}
	for name, setup := range busy {
		s := drill.NewGameState(100)
		s.EventCheckTick = EventCheckEvery - 1
		setup(s)
		out := es.Update(tickFor(s, scriptedRng(0.0001)), s)
		if out.Patch.EventQueue.Set {
			t.Errorf("%s: event must not be queued", name)
		}
		if !out.Patch.EventCheckTick.Set || out.Patch.EventCheckTick.Value != 0 {
			t.Errorf("%s: counter should still reset", name)
		}
	}
}

func TestPickEventSkipsRecent(t *testing.T) {
	defs := []content.EventDefinition{
		{ID: "a", Weight: 10},
		{ID: "b", Weight: 1},
		{ID: "deep", Weight: 10, MinDepth: 5000},
	}
	rng := rand.New(rand.NewPCG(3, 4))
	for i := 0; i < 200; i++ {
		def, ok := pickEvent(defs, 100, []string{"a"}, rng)
		if !ok || def.ID != "b" {
			t.Fatalf("draw %d: got %q", i, def.ID)
		}
	}
	if _, ok := pickEvent(defs, 100, []string{"a", "b"}, rng); ok {
		t.Error("nothing should be eligible")
	}
}

func TestEventInstantEffects(t *testing.T) {
	reg := eventsOnly{Registry: content.NewStatic(), defs: []content.EventDefinition{{
		ID: "collapse", Title: "Collapse", Weight: 1,
		Instant: content.InstantEffect{IntegrityPct: 0.1, DepthJump: -500, XP: 50, Heat: 15},
	}}}
	es := NewEventSystem(reg, quietLogger())
	s := drill.NewGameState(100)
	s.Depth = 200
	s.Heat = 90
	s.EventCheckTick = EventCheckEvery - 1

	out := es.Update(tickFor(s, scriptedRng(0.0001)), s)
	if out.Patch.Integrity.Value != 90 {
		t.Errorf("integrity = %.1f, want 90", out.Patch.Integrity.Value)
	}
	if out.Patch.Depth.Value != 0 {
		t.Errorf("depth = %.1f, want clamp at 0", out.Patch.Depth.Value)
	}
	if out.Patch.XPDelta != 50 {
		t.Errorf("xp delta = %.1f", out.Patch.XPDelta)
	}
	if out.Patch.Heat.Value != drill.MaxHeat {
		t.Errorf("heat = %.1f, want clamp at max", out.Patch.Heat.Value)
	}
}

func TestBossAttackMitigation(t *testing.T) {
	barrier := []drill.ActiveEffect{{ID: "warded", Remaining: 5, Modifiers: []drill.Modifier{{Kind: drill.ModBarrier}}}}

	tests := []struct {
		name       string
		damage     float64
		armor      int
		evasion    int
		overheated bool
		shielding  bool
		effects    []drill.ActiveEffect
		roll       float64
		want       float64
	}{
		{"plain hit", 10, 0, 0, false, false, nil, 0.5, 90},
		{"barrier negates", 10, 0, 0, false, false, barrier, 0.0001, 100},
		{"evaded", 10, 0, 25, false, false, nil, 0.3, 100},
		{"evasion halved when overheated", 10, 0, 25, true, false, nil, 0.3, 90},
		{"damage floor", 2, 20, 0, false, false, nil, 0.5, 99},
		{"shield blocks 80%", 10, 0, 0, false, true, nil, 0.5, 98},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs := NewCombatSystem(content.NewStatic(), quietLogger())
			s := drill.NewGameState(100)
			s.Equipment.ArmorLevel = tt.armor
			s.Skills["evasion"] = tt.evasion
			s.IsOverheated = tt.overheated
			s.IsShielding = tt.shielding
			s.ActiveEffects = tt.effects

			var out Outcome
			b := &boss.Boss{Name: "Rock Worm", HP: 100, MaxHP: 100, Damage: tt.damage}
			cs.bossAttack(tickFor(s, scriptedRng(tt.roll)), s, b, &out)
			out.Patch.ApplyTo(s)

			if math.Abs(s.Integrity-tt.want) > 1e-9 {
				t.Errorf("integrity = %.2f, want %.2f", s.Integrity, tt.want)
			}
		})
	}
}

func TestBossPhaseTransitions(t *testing.T) {
	tests := []struct {
		hp        float64
		phase     boss.Phase
		speed     int
		damageMul float64
	}{
		{51, boss.PhaseOne, 20, 1},
		{50, boss.PhaseTwo, 15, 1},
		{20, boss.PhaseThree, 11, 1.5},
	}
	for _, tt := range tests {
		cs := NewCombatSystem(content.NewStatic(), quietLogger())
		b := &boss.Boss{Name: "Rock Worm", HP: tt.hp, MaxHP: 100, Damage: 10, AttackSpeed: 20, Phase: boss.PhaseOne}
		var out Outcome
		cs.advancePhase(b, &out)

		if b.Phase != tt.phase || b.AttackSpeed != tt.speed || b.Damage != 10*tt.damageMul {
			t.Errorf("hp %.0f: phase=%d speed=%d damage=%.1f", tt.hp, b.Phase, b.AttackSpeed, b.Damage)
		}
	}
}

func TestShieldChargeAndDrain(t *testing.T) {
	tests := []struct {
		name       string
		charge     float64
		shielding  bool
		drilling   bool
		overheated bool
		want       float64
		wantDown   bool
	}{
		{"charges while drilling", 50, false, true, false, 51, false},
		{"caps at max", 99.5, false, true, false, drill.MaxShieldCharge, false},
		{"leaks when idle", 50, false, false, false, 49.9, false},
		{"leaks when overheated", 50, false, true, true, 49.9, false},
		{"drains while blocking", 50, true, true, false, 47.5, false},
		{"drops when empty", 1, true, false, false, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := drill.NewGameState(100)
			s.ShieldCharge = tt.charge
			s.IsShielding = tt.shielding
			s.IsDrilling = tt.drilling
			s.IsOverheated = tt.overheated

			out := NewShieldSystem().Update(tickFor(s, nil), s)
			out.Patch.ApplyTo(s)
			if math.Abs(s.ShieldCharge-tt.want) > 1e-9 {
				t.Errorf("charge = %.2f, want %.2f", s.ShieldCharge, tt.want)
			}
			if tt.wantDown && (s.IsShielding || !hasSound(out.Events, "shield_down")) {
				t.Error("empty shield should stop blocking")
			}
		})
	}
}

func TestDronesHealAndCool(t *testing.T) {
	ds := NewDroneSystem()
	s := drill.NewGameState(100)
	s.Integrity = 50
	s.Heat = 50
	s.Drones[drill.DroneRepair] = drill.Drone{Level: 2, Active: true}
	s.Drones[drill.DroneCooler] = drill.Drone{Level: 5, Active: true}

	out := ds.Update(tickFor(s, nil), s)
	if math.Abs(out.Patch.Integrity.Value-50.1) > 1e-9 {
		t.Errorf("integrity = %.3f, want 50.1", out.Patch.Integrity.Value)
	}
	if math.Abs(out.Patch.Heat.Value-49.6) > 1e-9 {
		t.Errorf("heat = %.3f, want 49.6", out.Patch.Heat.Value)
	}

	s.Integrity = 100
	s.Heat = 0
	out = ds.Update(tickFor(s, nil), s)
	if out.Patch.Integrity.Set || out.Patch.Heat.Set {
		t.Error("drones must not push past max hull or below the floor")
	}

	s.Integrity = 0
	out = ds.Update(tickFor(s, nil), s)
	if out.Patch.Integrity.Set {
		t.Error("a destroyed hull is not repaired")
	}
}

func TestAnalyzerIdentifiesAndRecordsDiscovery(t *testing.T) {
	reg := content.NewStatic()
	ids := reg.ArtifactsByRarity(item.RarityCommon)
	if len(ids) == 0 {
		t.Fatal("static content has no common artifacts")
	}
	as := NewAnalyzerSystem(reg, quietLogger())
	s := drill.NewGameState(100)
	s.Inventory = []item.Item{{ID: "it-1", DefinitionID: ids[0], Rarity: item.RarityCommon}}

	s.AnalyzerJob = &drill.AnalysisJob{ItemID: "it-1", Remaining: 1}
	out := as.Update(tickFor(s, nil), s)
	if out.Patch.AnalyzerJob.Value == nil || math.Abs(out.Patch.AnalyzerJob.Value.Remaining-0.9) > 1e-9 {
		t.Fatalf("job should count down: %+v", out.Patch.AnalyzerJob.Value)
	}

	s.AnalyzerJob = &drill.AnalysisJob{ItemID: "it-1", Remaining: 0.05}
	out = as.Update(tickFor(s, nil), s)
	out.Patch.ApplyTo(s)
	if s.AnalyzerJob != nil || !s.Inventory[0].Identified {
		t.Fatal("item should be identified and the job cleared")
	}
	if len(s.DiscoveredArtifacts) != 1 || s.DiscoveredArtifacts[0] != ids[0] {
		t.Errorf("discoveries = %v", s.DiscoveredArtifacts)
	}
	if !hasSound(out.Events, "analyzer_ding") {
		t.Error("expected completion cue")
	}

	s.Inventory = append(s.Inventory, item.Item{ID: "it-2", DefinitionID: ids[0]})
	s.AnalyzerJob = &drill.AnalysisJob{ItemID: "it-2", Remaining: 0.05}
	out = as.Update(tickFor(s, nil), s)
	if out.Patch.DiscoveredArtifacts.Set {
		t.Error("a known artifact must not be recorded twice")
	}

	s.AnalyzerJob = &drill.AnalysisJob{ItemID: "gone", Remaining: 0.05}
	out = as.Update(tickFor(s, nil), s)
	if !out.Patch.AnalyzerJob.Set || out.Patch.AnalyzerJob.Value != nil || out.Patch.Inventory.Set {
		t.Error("missing item should abort the job without touching inventory")
	}
}

func TestFlyingObjectsCapAndPayout(t *testing.T) {
	es := NewEntitySystem(content.NewStatic())
	obj := func(id string, hp float64) drill.FlyingObject {
		return drill.FlyingObject{ID: id, X: 50, Y: 50, HP: hp, Reward: resource.Bag{resource.Stone: 7}}
	}

	s := drill.NewGameState(100)
	s.FlyingObjects = []drill.FlyingObject{obj("a", 1), obj("b", 1), obj("c", 1)}
	out := es.Update(tickFor(s, scriptedRng(0.0001)), s)
	if n := len(out.Patch.FlyingObjects.Value); n != maxFlyingObjects {
		t.Errorf("objects = %d, want cap %d", n, maxFlyingObjects)
	}

	s.FlyingObjects = []drill.FlyingObject{obj("a", 1), obj("b", 1)}
	out = es.Update(tickFor(s, scriptedRng(0.0001)), s)
	if n := len(out.Patch.FlyingObjects.Value); n != maxFlyingObjects {
		t.Errorf("objects = %d, want a spawn up to %d", n, maxFlyingObjects)
	}

	s.FlyingObjects = []drill.FlyingObject{obj("a", 0)}
	s.CurrentBoss = &boss.Boss{HP: 10, MaxHP: 10}
	out = es.Update(tickFor(s, scriptedRng(0.0001)), s)
	if len(out.Patch.FlyingObjects.Value) != 0 {
		t.Error("destroyed object should be removed and no spawn during a fight")
	}
	if out.Patch.ResourceDelta[resource.Stone] != 7 {
		t.Errorf("payout = %v", out.Patch.ResourceDelta)
	}
}

func TestEffectsTickDownAndExpire(t *testing.T) {
	s := drill.NewGameState(100)
	s.ActiveEffects = []drill.ActiveEffect{
		{ID: "short", Name: "Short Burst", Remaining: 0.05},
		{ID: "long", Name: "Long Haul", Remaining: 5, Modifiers: []drill.Modifier{{Kind: drill.ModStability}}},
	}

	out := NewEffectsSystem(quietLogger()).Update(tickFor(s, nil), s)
	kept := out.Patch.ActiveEffects.Value
	if len(kept) != 1 || kept[0].ID != "long" || math.Abs(kept[0].Remaining-4.9) > 1e-9 {
		t.Fatalf("kept = %+v", kept)
	}
	if !hasMessage(out.Events, "Short Burst has worn off") {
		t.Error("expected expiry notice")
	}
	if s.ActiveEffects[1].Remaining != 5 {
		t.Error("input effects modified")
	}
}
