package engine

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/zyedidia/generic/mapset"

	"github.com/MRamiBalles/DrillCore/internal/content"
	"github.com/MRamiBalles/DrillCore/internal/domain/drill"
	"github.com/MRamiBalles/DrillCore/internal/domain/resource"
	"github.com/MRamiBalles/DrillCore/internal/events"
	"github.com/MRamiBalles/DrillCore/internal/platform/logger"
	"github.com/MRamiBalles/DrillCore/internal/quest"
)

// TunnelSystem advances an open side tunnel with the drill power it is fed.
type TunnelSystem struct {
	registry content.Registry
	logger   *logger.Logger
}

// NewTunnelSystem creates the side-tunnel subsystem.
func NewTunnelSystem(reg content.Registry, log *logger.Logger) *TunnelSystem {
	return &TunnelSystem{registry: reg, logger: log}
}

// Advance adds power/difficulty progress, rolls small drops and collapses, and
// pays out once when the tunnel is finished.
func (ts *TunnelSystem) Advance(t *Tick, s *drill.GameState, power float64) Outcome {
	var out Outcome
	if s.SideTunnel == nil {
		return out
	}
	tunnel := *s.SideTunnel
	tunnel.Rewards = s.SideTunnel.Rewards.Clone()

	difficulty := math.Max(1, tunnel.Difficulty)
	tunnel.Progress += power / difficulty

	if t.Rng.Float64() < tunnelDropChance {
		kind := ts.dropKind(tunnel.Type)
		amount := float64(1 + t.Rng.IntN(3*max(1, tunnel.Risk)))
		out.Patch.Credit(kind, amount)
		out.emit(events.Text(fmt.Sprintf("+%.0f %s", amount, kind), amount))
	}

	hullFloor := tunnelCollapseMinHull * t.Stats.MaxIntegrity
	if t.Rng.Float64() < float64(tunnel.Risk)*tunnelCollapsePerRisk && s.Integrity > hullFloor {
		dmg := 2 + t.Rng.Float64()*4
		if dealt := out.damage(s, dmg); dealt > 0 {
			out.emit(
				events.Log("The tunnel ceiling gives way!", events.ColorWarning),
				events.Text("-HULL", -dealt),
				events.Shake(4),
			)
		}
	}

	if tunnel.Progress < tunnel.MaxProgress {
		out.Patch.SideTunnel = Some(&tunnel)
		return out
	}

	out.Patch.CreditBag(tunnel.Rewards)
	out.Patch.SideTunnel = Some[*drill.SideTunnel](nil)
	out.progress(tunnel.Type, quest.TypeTunnelComplete)
	out.emit(
		events.Log(fmt.Sprintf("%s fully explored. Haul secured.", tunnel.Name), events.ColorSuccess),
		events.Particles("tunnel_complete"),
		events.Sound("tunnel_complete"),
	)

	if t.Rng.Float64() < tunnelBlueprintChance {
		if bp, ok := pickBlueprint(ts.registry.Blueprints(), s.UnlockedBlueprints, t.Rng); ok {
			out.Patch.UnlockedBlueprints = Some(append(append([]string(nil), s.UnlockedBlueprints...), bp))
			out.emit(events.Log("Blueprint recovered: "+bp, events.ColorSuccess))
		}
	}
	ts.logger.Info("tunnel %s complete at tick %d", tunnel.Type, t.Number)
	return out
}

func (ts *TunnelSystem) dropKind(tunnelType string) resource.Kind {
	for _, tt := range ts.registry.TunnelTypes() {
		if tt.ID == tunnelType && tt.Drop != "" {
			return tt.Drop
		}
	}
	return resource.Stone
}

func pickBlueprint(pool, unlocked []string, rng *rand.Rand) (string, bool) {
	have := mapset.New[string]()
	for _, id := range unlocked {
		have.Put(id)
	}
	var candidates []string
	for _, id := range pool {
		if !have.Has(id) {
			candidates = append(candidates, id)
		}
	}
	if len(candidates) == 0 {
		return "", false
	}
	return candidates[rng.IntN(len(candidates))], true
}

// GenerateTunnel picks a tunnel type eligible at depth, weighting lower risk
// higher, and pre-rolls its rewards.
func GenerateTunnel(reg content.Registry, depth float64, rng *rand.Rand) (*drill.SideTunnel, bool) {
	var eligible []content.TunnelType
	total := 0.0
	for _, tt := range reg.TunnelTypes() {
		if depth >= tt.MinDepth && tt.Risk > 0 {
			eligible = append(eligible, tt)
			total += 1 / float64(tt.Risk)
		}
	}
	if len(eligible) == 0 {
		return nil, false
	}

	roll := rng.Float64() * total
	chosen := eligible[len(eligible)-1]
	for _, tt := range eligible {
		roll -= 1 / float64(tt.Risk)
		if roll < 0 {
			chosen = tt
			break
		}
	}

	scale := 1 + depth/10000
	rewards := resource.Bag{}
	for _, kind := range chosen.Rewards.Kinds() {
		rewards[kind] = math.Floor(chosen.Rewards[kind] * scale * (0.8 + 0.4*rng.Float64()))
	}
	return &drill.SideTunnel{
		Type:        chosen.ID,
		Name:        chosen.Name,
		MaxProgress: chosen.MaxProgress,
		Difficulty:  chosen.Difficulty,
		Risk:        chosen.Risk,
		Rewards:     rewards,
	}, true
}
