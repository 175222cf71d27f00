package engine

import (
	"fmt"
	"math"

	"github.com/MRamiBalles/DrillCore/internal/domain/boss"
	"github.com/MRamiBalles/DrillCore/internal/domain/drill"
	"github.com/MRamiBalles/DrillCore/internal/events"
)

// IsDead reports whether s must go through the death transition.
func IsDead(s *drill.GameState) bool {
	return s.Integrity <= 0 && !s.Settings.GodMode
}

// DeathTransition salvages the rig: resources keep ⌊70%⌋, depth rolls back,
// heat resets to 0 and the hull is restored. All combat and tunnel state is cleared.
func DeathTransition(s *drill.GameState, maxIntegrity float64) Outcome {
	var out Outcome
	kept := s.Resources.Scaled(deathResourceKeep).Floor()
	kept.ClampNonNegative()
	depth := math.Max(0, s.Depth-deathDepthLoss)

	p := &out.Patch
	p.Resources = Some(kept)
	p.Depth = Some(depth)
	p.Heat = Some(0.0)
	p.Integrity = Some(maxIntegrity)
	p.IsDrilling = Some(false)
	p.IsOverheated = Some(false)
	p.IsCoolingGameActive = Some(false)
	p.IsShielding = Some(false)
	p.CurrentBoss = Some[*boss.Boss](nil)
	p.CombatMinigame = Some[*boss.Minigame](nil)
	p.PendingHits = Some[[]boss.Hit](nil)
	p.SideTunnel = Some[*drill.SideTunnel](nil)
	p.BossAttackTick = Some(0)
	p.MinigameCooldown = Some(0.0)
	p.HeatStabilityTimer = Some(0.0)

	out.emit(
		events.Log(fmt.Sprintf("HULL BREACH! Rig recovered at %.0fm. 30%% of cargo lost.", depth), events.ColorDanger),
		events.Sound("death"),
	)
	return out
}
