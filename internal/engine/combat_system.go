package engine

import (
	"fmt"
	"math"

	"github.com/MRamiBalles/DrillCore/internal/content"
	"github.com/MRamiBalles/DrillCore/internal/domain/boss"
	"github.com/MRamiBalles/DrillCore/internal/domain/drill"
	"github.com/MRamiBalles/DrillCore/internal/domain/item"
	"github.com/MRamiBalles/DrillCore/internal/domain/rules"
	"github.com/MRamiBalles/DrillCore/internal/events"
	"github.com/MRamiBalles/DrillCore/internal/platform/logger"
	"github.com/MRamiBalles/DrillCore/internal/quest"
)

// CombatSystem owns the boss encounter: spawn, hack minigame, player damage,
// phases, boss attacks and the kill payout.
type CombatSystem struct {
	registry content.Registry
	logger   *logger.Logger
}

// NewCombatSystem creates the combat subsystem.
func NewCombatSystem(reg content.Registry, log *logger.Logger) *CombatSystem {
	return &CombatSystem{registry: reg, logger: log}
}

// Update runs one tick of the encounter state machine.
func (cs *CombatSystem) Update(t *Tick, s *drill.GameState) Outcome {
	if s.CurrentBoss == nil {
		return cs.trySpawn(t, s)
	}

	var out Outcome
	b := s.CurrentBoss.Clone()
	var mg *boss.Minigame
	if s.CombatMinigame != nil {
		m := *s.CombatMinigame
		mg = &m
	}
	cooldown := math.Max(0, s.MinigameCooldown-t.DT)

	if mg != nil && mg.Outcome != boss.MinigamePending {
		if mg.Outcome == boss.MinigameWon {
			burst := minigameBurstShare * b.MaxHP
			b.HP -= burst
			out.emit(
				events.Log("Hack successful! Critical systems exposed.", events.ColorSuccess),
				events.BossHit(burst),
				events.Text(fmt.Sprintf("-%.0f", burst), -burst),
			)
		} else {
			dealt := out.damage(s, minigameFailDamage)
			out.emit(events.Log("Hack failed! Feedback surge through the hull.", events.ColorDanger), events.Shake(6))
			if dealt > 0 {
				out.emit(events.Text("-HULL", -dealt))
			}
		}
		mg = nil
		b.IsInvulnerable = false
		cooldown = minigameCooldown
	}

	if mg == nil && cooldown <= 0 && t.Rng.Float64() < minigameChancePerSec*t.DT {
		types := cs.registry.MinigameTypes()
		kind := "circuit"
		if len(types) > 0 {
			kind = types[t.Rng.IntN(len(types))]
		}
		mg = &boss.Minigame{Type: kind, Difficulty: int(b.Phase)}
		b.IsInvulnerable = true
		out.emit(
			events.Log(b.Name+" raises its guard. Hack it to break through!", events.ColorWarning),
			events.Sound("minigame_start"),
		)
	}

	if !b.IsInvulnerable {
		cs.applyPlayerDamage(t, s, b, &out)
	} else if len(s.PendingHits) > 0 {
		out.emit(events.Text("DEFLECTED", 0))
	}
	if len(s.PendingHits) > 0 {
		out.Patch.PendingHits = Some[[]boss.Hit](nil)
	}

	if b.IsDead() {
		cs.payout(t, s, b, &out)
		return out
	}

	cs.advancePhase(b, &out)

	attackTick := s.BossAttackTick
	if mg == nil {
		attackTick++
		if attackTick >= max(1, b.AttackSpeed) {
			attackTick = 0
			cs.bossAttack(t, s, b, &out)
		}
	}

	out.Patch.CurrentBoss = Some(b)
	out.Patch.CombatMinigame = Some(mg)
	out.Patch.BossAttackTick = Some(attackTick)
	out.Patch.MinigameCooldown = Some(cooldown)
	return out
}

func (cs *CombatSystem) trySpawn(t *Tick, s *drill.GameState) Outcome {
	var out Outcome
	if s.CombatMinigame != nil || s.Depth <= bossMinDepth || s.Depth-s.LastBossDepth < bossDepthSpacing {
		return out
	}
	if t.Rng.Float64() >= bossSpawnChancePerSec*t.DT {
		return out
	}

	var eligible []content.BossDefinition
	for _, def := range cs.registry.Bosses() {
		if s.Depth >= def.MinDepth {
			eligible = append(eligible, def)
		}
	}
	if len(eligible) == 0 {
		return out
	}
	def := eligible[t.Rng.IntN(len(eligible))]
	scale := rules.BossScale(s.Depth)

	hp := math.Round(def.BaseHP * scale)
	b := &boss.Boss{
		ID:           newID(t.Rng),
		DefinitionID: def.ID,
		Name:         def.Name,
		HP:           hp,
		MaxHP:        hp,
		Damage:       def.BaseDamage * scale,
		AttackSpeed:  def.AttackSpeed,
		Phase:        boss.PhaseOne,
		RewardXP:     math.Round(def.RewardXP * scale),
		Rewards:      def.Rewards.Scaled(scale).Floor(),
		DropRarity:   def.DropRarity,
	}
	for i := 0; i < weakPointCount; i++ {
		wp := math.Round(hp * weakPointHPShare)
		b.WeakPoints = append(b.WeakPoints, boss.WeakPoint{ID: fmt.Sprintf("wp-%d", i+1), HP: wp, MaxHP: wp})
	}

	cs.logger.Info("boss %s spawned at depth %.0f with %.0f hp", def.ID, s.Depth, hp)
	out.Patch.CurrentBoss = Some(b)
	out.Patch.LastBossDepth = Some(s.Depth)
	out.Patch.BossAttackTick = Some(0)
	out.Patch.MinigameCooldown = Some(minigameCooldown)
	out.emit(
		events.Log(fmt.Sprintf("WARNING: %s emerges from the rock!", def.Name), events.ColorDanger),
		events.Sound("boss_spawn"),
		events.Shake(10),
	)
	return out
}

func (cs *CombatSystem) applyPlayerDamage(t *Tick, s *drill.GameState, b *boss.Boss, out *Outcome) {
	if s.IsDrilling && !s.IsOverheated {
		dmg := t.Stats.AttackPower * t.DT
		if dmg > 0 {
			b.HP -= dmg
			out.emit(events.BossHit(dmg))
		}
	}

	for _, hit := range s.PendingHits {
		if hit.Damage <= 0 {
			continue
		}
		if hit.WeakPoint >= 0 && hit.WeakPoint < len(b.WeakPoints) && !b.WeakPoints[hit.WeakPoint].Destroyed {
			wp := &b.WeakPoints[hit.WeakPoint]
			wp.HP -= hit.Damage
			b.HP -= hit.Damage * weakPointHitFactor
			out.emit(events.BossHit(hit.Damage*weakPointHitFactor), events.Text("CRIT", -hit.Damage*weakPointHitFactor))
			if wp.HP <= 0 {
				wp.HP = 0
				wp.Destroyed = true
				bonus := weakPointBreakBonus * b.MaxHP
				b.HP -= bonus
				out.emit(
					events.Log("Weak point shattered!", events.ColorSuccess),
					events.Particles("weak_point_break"),
					events.Text(fmt.Sprintf("-%.0f", bonus), -bonus),
				)
			}
			continue
		}
		b.HP -= hit.Damage
		out.emit(events.BossHit(hit.Damage), events.Text(fmt.Sprintf("-%.0f", hit.Damage), -hit.Damage))
	}
}

func (cs *CombatSystem) advancePhase(b *boss.Boss, out *Outcome) {
	for {
		frac := b.HPFraction()
		switch {
		case b.Phase < boss.PhaseTwo && frac <= phaseTwoAt:
			b.Phase = boss.PhaseTwo
			b.AttackSpeed = max(1, int(float64(b.AttackSpeed)*rules.PhaseCadenceFactor))
			out.emit(events.Log(b.Name+" is enraged!", events.ColorWarning), events.Sound("boss_roar"))
		case b.Phase < boss.PhaseThree && frac <= phaseThreeAt:
			b.Phase = boss.PhaseThree
			b.AttackSpeed = max(1, int(float64(b.AttackSpeed)*rules.PhaseCadenceFactor))
			b.Damage *= rules.FinalPhaseDamageMul
			out.emit(events.Log(b.Name+" is desperate! Attacks intensify.", events.ColorDanger), events.Sound("boss_roar"), events.Shake(5))
		default:
			return
		}
	}
}

func (cs *CombatSystem) bossAttack(t *Tick, s *drill.GameState, b *boss.Boss, out *Outcome) {
	if t.Effects.Barrier {
		out.emit(events.Text("BLOCKED", 0), events.Sound("barrier"))
		return
	}
	if t.Rng.Float64() < rules.EvasionChance(t.Stats.EvasionPct, s.IsOverheated) {
		out.emit(events.Text("EVADED", 0))
		return
	}

	dmg := rules.MitigatedBossDamage(b.Damage, t.Stats.DefensePct, s.IsShielding)
	dealt := out.damage(s, dmg)
	out.emit(events.Shake(3), events.Sound("boss_attack"))
	if dealt > 0 {
		out.emit(events.Text(fmt.Sprintf("-%.0f HULL", dealt), -dealt))
	}
}

func (cs *CombatSystem) payout(t *Tick, s *drill.GameState, b *boss.Boss, out *Outcome) {
	out.Patch.XPDelta += b.RewardXP
	out.Patch.CreditBag(b.Rewards)

	if id, rarity, ok := cs.rollDrop(t, b.DropRarity); ok {
		inv := append([]item.Item(nil), s.Inventory...)
		inv = append(inv, item.Item{ID: newID(t.Rng), DefinitionID: id, Rarity: rarity})
		out.Patch.Inventory = Some(inv)
		out.emit(events.Log(fmt.Sprintf("Recovered an unidentified %s artifact.", rarity), events.ColorSuccess))
	}

	out.progress(b.ID, quest.TypeKill)
	out.progress(b.DefinitionID, quest.TypeKill)

	out.Patch.CurrentBoss = Some[*boss.Boss](nil)
	out.Patch.CombatMinigame = Some[*boss.Minigame](nil)
	out.Patch.BossAttackTick = Some(0)
	out.Patch.MinigameCooldown = Some(0.0)

	cs.logger.Info("boss %s (%s) defeated at tick %d", b.DefinitionID, b.ID, t.Number)
	out.emit(
		events.Log(fmt.Sprintf("%s defeated! +%.0f XP", b.Name, b.RewardXP), events.ColorSuccess),
		events.Particles("boss_death"),
		events.Sound("boss_death"),
		events.Shake(12),
	)
}

// rollDrop picks an artifact of exactly rarity, falling back to lower rarities
// when the table has none.
func (cs *CombatSystem) rollDrop(t *Tick, rarity item.Rarity) (string, item.Rarity, bool) {
	for r := rarity; r >= item.RarityCommon; r-- {
		ids := cs.registry.ArtifactsByRarity(r)
		if len(ids) > 0 {
			return ids[t.Rng.IntN(len(ids))], r, true
		}
	}
	return "", rarity, false
}
