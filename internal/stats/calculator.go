// Package stats derives the per-tick numeric snapshot from equipment, skills
// and identified artifacts.
package stats

import (
	"math"

	"github.com/MRamiBalles/DrillCore/internal/content"
	"github.com/MRamiBalles/DrillCore/internal/domain/drill"
	"github.com/MRamiBalles/DrillCore/internal/domain/item"
)

// Skill keys read from GameState.Skills.
const (
	SkillDrilling = "drilling"
	SkillTorque   = "torque"
	SkillEvasion  = "evasion"
	SkillLuck     = "luck"
	SkillCombat   = "combat"
)

// Caps keep derived percentages sane.
const (
	maxHeatReductionPct = 90.0
	maxDefensePct       = 80.0
	maxEvasionPct       = 50.0
	maxAmbientHeat      = 60.0
)

// Calculator computes Stats. It is safe for concurrent use.
type Calculator struct {
	registry content.Registry
}

// NewCalculator creates a calculator that resolves artifacts through reg.
func NewCalculator(reg content.Registry) *Calculator {
	return &Calculator{registry: reg}
}

// Compute returns the derived stats for s.
func (c *Calculator) Compute(s *drill.GameState) drill.Stats {
	eq := s.Equipment
	bonus := c.artifactBonuses(s.Inventory)

	st := drill.Stats{
		DrillSpeed:       5 + 2.5*float64(eq.DrillLevel) + 0.5*float64(s.Skills[SkillDrilling]) + bonus[item.StatDrillSpeed],
		Torque:           10*float64(eq.EngineLevel) + 2*float64(s.Skills[SkillTorque]),
		HeatReductionPct: 3*float64(eq.CoolerLevel) + bonus[item.StatHeatReduction],
		CoolingPower:     5 + 2*float64(eq.CoolerLevel) + bonus[item.StatCooling],
		AmbientHeat:      math.Min(maxAmbientHeat, s.Depth/1000),
		MaxIntegrity:     100 + 25*float64(eq.HullLevel),
		DefensePct:       4*float64(eq.ArmorLevel) + bonus[item.StatDefense],
		EvasionPct:       2*float64(s.Skills[SkillEvasion]) + bonus[item.StatEvasion],
		AttackPower:      10 + 5*float64(eq.DrillLevel) + 2*float64(s.Skills[SkillCombat]) + bonus[item.StatAttack],
		Luck:             float64(s.Skills[SkillLuck]) + bonus[item.StatLuck],
		DroneEfficiency:  1 + bonus[item.StatDroneEfficiency],
	}
	st.HeatReductionPct = math.Min(maxHeatReductionPct, st.HeatReductionPct)
	st.DefensePct = math.Min(maxDefensePct, st.DefensePct)
	st.EvasionPct = math.Min(maxEvasionPct, st.EvasionPct)
	return st
}

// Only identified artifacts count.
func (c *Calculator) artifactBonuses(inv []item.Item) map[item.StatKey]float64 {
	out := make(map[item.StatKey]float64)
	for _, it := range inv {
		if !it.Identified {
			continue
		}
		def, ok := c.registry.Artifact(it.DefinitionID)
		if !ok {
			continue
		}
		for _, b := range def.Bonuses {
			out[b.Stat] += b.Value
		}
	}
	return out
}
