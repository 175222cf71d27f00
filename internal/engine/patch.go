package engine

import (
	"math"
	"reflect"

	"github.com/MRamiBalles/DrillCore/internal/domain/base"
	"github.com/MRamiBalles/DrillCore/internal/domain/boss"
	"github.com/MRamiBalles/DrillCore/internal/domain/drill"
	"github.com/MRamiBalles/DrillCore/internal/domain/item"
	"github.com/MRamiBalles/DrillCore/internal/domain/resource"
)

// Field is an optional patch value. A Set field with a zero Value is a real
// write, e.g. clearing the current boss.
type Field[T any] struct {
	Value T
	Set   bool
}

// Some marks v as set.
func Some[T any](v T) Field[T] {
	return Field[T]{Value: v, Set: true}
}

func (f Field[T]) apply(dst *T) {
	if f.Set {
		*dst = f.Value
	}
}

// Patch is a sparse update of drill.GameState. Resources and XP have both an
// absolute form (used by death) and an additive delta merged once per tick.
type Patch struct {
	Depth        Field[float64]
	Heat         Field[float64]
	Integrity    Field[float64]
	ShieldCharge Field[float64]

	IsDrilling          Field[bool]
	IsOverheated        Field[bool]
	IsCoolingGameActive Field[bool]
	IsShielding         Field[bool]
	SelectedBiome       Field[string]

	Resources     Field[resource.Bag]
	ResourceDelta resource.Bag
	XP            Field[float64]
	XPDelta       float64

	ActiveEffects  Field[[]drill.ActiveEffect]
	EventQueue     Field[[]drill.EventInstance]
	RecentEventIDs Field[[]string]

	CurrentBoss    Field[*boss.Boss]
	LastBossDepth  Field[float64]
	CombatMinigame Field[*boss.Minigame]
	PendingHits    Field[[]boss.Hit]

	FlyingObjects Field[[]drill.FlyingObject]
	SideTunnel    Field[*drill.SideTunnel]
	PlayerBases   Field[[]base.Base]

	Inventory           Field[[]item.Item]
	DiscoveredArtifacts Field[[]string]
	UnlockedBlueprints  Field[[]string]
	Unlocks             Field[map[string]bool]
	AnalyzerJob         Field[*drill.AnalysisJob]

	TickCount          Field[int64]
	EventCheckTick     Field[int]
	BossAttackTick     Field[int]
	MinigameCooldown   Field[float64]
	HeatStabilityTimer Field[float64]
	NarrativeTick      Field[int]
	AFKSeconds         Field[float64]
	HookElapsed        Field[float64]
}

// Credit adds amount of kind to the resource delta.
func (p *Patch) Credit(kind resource.Kind, amount float64) {
	if p.ResourceDelta == nil {
		p.ResourceDelta = resource.Bag{}
	}
	p.ResourceDelta.Credit(kind, amount)
}

// CreditBag adds every entry of bag to the resource delta.
func (p *Patch) CreditBag(bag resource.Bag) {
	if len(bag) == 0 {
		return
	}
	if p.ResourceDelta == nil {
		p.ResourceDelta = resource.Bag{}
	}
	p.ResourceDelta.Add(bag)
}

// ApplyTo writes every set field into s and merges the resource and XP deltas.
func (p *Patch) ApplyTo(s *drill.GameState) {
	p.applyFields(s)
	s.Resources = MergeResources(s.Resources, p.ResourceDelta, s.Settings.InfiniteResources)
	s.XP = math.Max(0, s.XP+p.XPDelta)
}

// applyFields writes the set fields only. The orchestrator accumulates deltas
// separately and merges them once at the end of the tick.
func (p *Patch) applyFields(s *drill.GameState) {
	p.Depth.apply(&s.Depth)
	p.Heat.apply(&s.Heat)
	p.Integrity.apply(&s.Integrity)
	p.ShieldCharge.apply(&s.ShieldCharge)

	p.IsDrilling.apply(&s.IsDrilling)
	p.IsOverheated.apply(&s.IsOverheated)
	p.IsCoolingGameActive.apply(&s.IsCoolingGameActive)
	p.IsShielding.apply(&s.IsShielding)
	p.SelectedBiome.apply(&s.SelectedBiome)

	if p.Resources.Set {
		s.Resources = p.Resources.Value.Clone()
	}
	p.XP.apply(&s.XP)

	p.ActiveEffects.apply(&s.ActiveEffects)
	p.EventQueue.apply(&s.EventQueue)
	p.RecentEventIDs.apply(&s.RecentEventIDs)

	p.CurrentBoss.apply(&s.CurrentBoss)
	p.LastBossDepth.apply(&s.LastBossDepth)
	p.CombatMinigame.apply(&s.CombatMinigame)
	p.PendingHits.apply(&s.PendingHits)

	p.FlyingObjects.apply(&s.FlyingObjects)
	p.SideTunnel.apply(&s.SideTunnel)
	p.PlayerBases.apply(&s.PlayerBases)

	p.Inventory.apply(&s.Inventory)
	p.DiscoveredArtifacts.apply(&s.DiscoveredArtifacts)
	p.UnlockedBlueprints.apply(&s.UnlockedBlueprints)
	p.Unlocks.apply(&s.Unlocks)
	p.AnalyzerJob.apply(&s.AnalyzerJob)

	p.TickCount.apply(&s.TickCount)
	p.EventCheckTick.apply(&s.EventCheckTick)
	p.BossAttackTick.apply(&s.BossAttackTick)
	p.MinigameCooldown.apply(&s.MinigameCooldown)
	p.HeatStabilityTimer.apply(&s.HeatStabilityTimer)
	p.NarrativeTick.apply(&s.NarrativeTick)
	p.AFKSeconds.apply(&s.AFKSeconds)
	p.HookElapsed.apply(&s.HookElapsed)
}

// MergeResources adds delta to current and clamps every amount at zero.
// With infiniteResources set, negative deltas are dropped.
func MergeResources(current, delta resource.Bag, infiniteResources bool) resource.Bag {
	out := current.Clone()
	for kind, amount := range delta {
		if infiniteResources && amount < 0 {
			continue
		}
		out[kind] += amount
	}
	out.ClampNonNegative()
	return out
}

// Diff returns the patch that turns before into after. Resources and XP are
// written in absolute form.
func Diff(before, after *drill.GameState) Patch {
	var p Patch
	diffField(&p.Depth, before.Depth, after.Depth)
	diffField(&p.Heat, before.Heat, after.Heat)
	diffField(&p.Integrity, before.Integrity, after.Integrity)
	diffField(&p.ShieldCharge, before.ShieldCharge, after.ShieldCharge)

	diffField(&p.IsDrilling, before.IsDrilling, after.IsDrilling)
	diffField(&p.IsOverheated, before.IsOverheated, after.IsOverheated)
	diffField(&p.IsCoolingGameActive, before.IsCoolingGameActive, after.IsCoolingGameActive)
	diffField(&p.IsShielding, before.IsShielding, after.IsShielding)
	diffField(&p.SelectedBiome, before.SelectedBiome, after.SelectedBiome)

	diffField(&p.Resources, before.Resources, after.Resources)
	diffField(&p.XP, before.XP, after.XP)

	diffField(&p.ActiveEffects, before.ActiveEffects, after.ActiveEffects)
	diffField(&p.EventQueue, before.EventQueue, after.EventQueue)
	diffField(&p.RecentEventIDs, before.RecentEventIDs, after.RecentEventIDs)

	diffField(&p.CurrentBoss, before.CurrentBoss, after.CurrentBoss)
	diffField(&p.LastBossDepth, before.LastBossDepth, after.LastBossDepth)
	diffField(&p.CombatMinigame, before.CombatMinigame, after.CombatMinigame)
	diffField(&p.PendingHits, before.PendingHits, after.PendingHits)

	diffField(&p.FlyingObjects, before.FlyingObjects, after.FlyingObjects)
	diffField(&p.SideTunnel, before.SideTunnel, after.SideTunnel)
	diffField(&p.PlayerBases, before.PlayerBases, after.PlayerBases)

	diffField(&p.Inventory, before.Inventory, after.Inventory)
	diffField(&p.DiscoveredArtifacts, before.DiscoveredArtifacts, after.DiscoveredArtifacts)
	diffField(&p.UnlockedBlueprints, before.UnlockedBlueprints, after.UnlockedBlueprints)
	diffField(&p.Unlocks, before.Unlocks, after.Unlocks)
	diffField(&p.AnalyzerJob, before.AnalyzerJob, after.AnalyzerJob)

	diffField(&p.TickCount, before.TickCount, after.TickCount)
	diffField(&p.EventCheckTick, before.EventCheckTick, after.EventCheckTick)
	diffField(&p.BossAttackTick, before.BossAttackTick, after.BossAttackTick)
	diffField(&p.MinigameCooldown, before.MinigameCooldown, after.MinigameCooldown)
	diffField(&p.HeatStabilityTimer, before.HeatStabilityTimer, after.HeatStabilityTimer)
	diffField(&p.NarrativeTick, before.NarrativeTick, after.NarrativeTick)
	diffField(&p.AFKSeconds, before.AFKSeconds, after.AFKSeconds)
	diffField(&p.HookElapsed, before.HookElapsed, after.HookElapsed)
	return p
}

func diffField[T any](dst *Field[T], before, after T) {
	if !reflect.DeepEqual(before, after) {
		*dst = Some(after)
	}
}
