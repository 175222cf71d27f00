package engine

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/MRamiBalles/DrillCore/internal/domain/base"
	"github.com/MRamiBalles/DrillCore/internal/domain/drill"
	"github.com/MRamiBalles/DrillCore/internal/domain/resource"
	"github.com/MRamiBalles/DrillCore/internal/domain/rules"
	"github.com/MRamiBalles/DrillCore/internal/events"
	"github.com/MRamiBalles/DrillCore/internal/platform/logger"
	"github.com/MRamiBalles/DrillCore/internal/quest"
)

// RaidReport describes one resolved raid.
type RaidReport struct {
	BaseID   string
	BaseName string
	Success  bool // true when the defenders held
	Attack   float64
	Defense  float64
	Stolen   resource.Bag
	Lost     base.Garrison
	After    base.Base
}

// String formats the report for the notification log.
func (r RaidReport) String() string {
	var sb strings.Builder
	if r.Success {
		fmt.Fprintf(&sb, "Raid on %s repelled (defense %s vs attack %s).",
			r.BaseName, humanize.Commaf(math.Round(r.Defense)), humanize.Commaf(math.Round(r.Attack)))
		if r.Lost.Infantry > 0 {
			fmt.Fprintf(&sb, " %s infantry fell holding the line.", humanize.Comma(int64(r.Lost.Infantry)))
		}
		return sb.String()
	}

	fmt.Fprintf(&sb, "Raid on %s breached! (defense %s vs attack %s)",
		r.BaseName, humanize.Commaf(math.Round(r.Defense)), humanize.Commaf(math.Round(r.Attack)))
	var stolen []string
	for _, kind := range r.Stolen.Kinds() {
		if amt := r.Stolen[kind]; amt > 0 {
			stolen = append(stolen, fmt.Sprintf("%s %s", humanize.Commaf(math.Floor(amt)), kind))
		}
	}
	if len(stolen) > 0 {
		fmt.Fprintf(&sb, " Stolen: %s.", strings.Join(stolen, ", "))
	}
	fmt.Fprintf(&sb, " Lost %d infantry, %d drones, %d turrets.", r.Lost.Infantry, r.Lost.Drones, r.Lost.Turrets)
	return sb.String()
}

// ResolveRaid pits attackPower against b. The shield soaks up to half of the
// attack; the base holds only when its defense is strictly greater.
func ResolveRaid(b base.Base, attackPower float64, rng *rand.Rand) RaidReport {
	after := b.Clone()
	effective := attackPower * (1 - b.ShieldAbsorb())
	defense := b.Garrison.DefensePower()

	r := RaidReport{
		BaseID:   b.ID,
		BaseName: b.Name,
		Attack:   effective,
		Defense:  defense,
		Stolen:   resource.Bag{},
	}

	if defense > effective {
		r.Success = true
		lost := min(after.Garrison.Infantry, rng.IntN(3))
		after.Garrison.Infantry -= lost
		r.Lost.Infantry = lost
		r.After = after
		return r
	}

	for _, kind := range after.Storage.Kinds() {
		amount := after.Storage[kind]
		if amount <= 0 {
			continue
		}
		taken := amount * (0.1 + 0.2*rng.Float64())
		after.Storage[kind] = amount - taken
		r.Stolen[kind] = taken
	}

	r.Lost.Infantry = lossOf(after.Garrison.Infantry, 0.2, 0.1, rng)
	r.Lost.Drones = lossOf(after.Garrison.Drones, 0.1, 0.1, rng)
	r.Lost.Turrets = lossOf(after.Garrison.Turrets, 0.05, 0.05, rng)
	after.Garrison.Infantry -= r.Lost.Infantry
	after.Garrison.Drones -= r.Lost.Drones
	after.Garrison.Turrets -= r.Lost.Turrets
	r.After = after
	return r
}

func lossOf(count int, minShare, spread float64, rng *rand.Rand) int {
	if count <= 0 {
		return 0
	}
	n := int(math.Round(float64(count) * (minShare + spread*rng.Float64())))
	return min(count, n)
}

// RaidSystem decides whether a raid happens and which single base it hits.
type RaidSystem struct {
	logger *logger.Logger
}

// NewRaidSystem creates the raid subsystem.
func NewRaidSystem(log *logger.Logger) *RaidSystem {
	return &RaidSystem{logger: log}
}

// Check rolls once against the combined threat and resolves at most one raid.
func (rs *RaidSystem) Check(t *Tick, s *drill.GameState) Outcome {
	var out Outcome

	var eligible []int
	total := 0.0
	for i, b := range s.PlayerBases {
		if !b.IsOperational() {
			continue
		}
		eligible = append(eligible, i)
		total += b.Threat()
	}
	if len(eligible) == 0 || t.Rng.Float64() >= rules.RaidChance(total) {
		return out
	}

	idx := eligible[t.Rng.IntN(len(eligible))]
	target := s.PlayerBases[idx]
	attack := rules.RaidAttackPower(target.Threat(), s.Depth) * (0.8 + 0.4*t.Rng.Float64())
	report := ResolveRaid(target, attack, t.Rng)
	report.After.LastRaidTick = t.Number

	bases := make([]base.Base, len(s.PlayerBases))
	for i, b := range s.PlayerBases {
		bases[i] = b.Clone()
	}
	bases[idx] = report.After
	out.Patch.PlayerBases = Some(bases)

	color := events.ColorDanger
	if report.Success {
		color = events.ColorSuccess
		out.progress(target.ID, quest.TypeRaidRepelled)
	}
	rs.logger.Info("raid on %s success=%t attack=%.1f defense=%.1f", target.ID, report.Success, report.Attack, report.Defense)
	out.emit(events.Log(report.String(), color), events.Sound("raid_alarm"))
	return out
}
