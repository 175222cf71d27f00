// Package rules contains the pure balancing formulas shared by the subsystems.
// Nothing here touches state or randomness; callers roll against the results.
package rules

import "math"

// Heat.
const (
	BaseHeatGain       = 8.5 // per second while drilling
	EmergencyThreshold = 95.0
	RecoveryMargin     = 1.0
	OverheatDamagePct  = 0.10
)

// HeatGainPerSec returns heat added per second while drilling.
func HeatGainPerSec(reductionPct, multiplier float64) float64 {
	r := math.Max(0, math.Min(100, reductionPct)) / 100
	return BaseHeatGain * (1 - r) * multiplier
}

// Drilling.
const (
	HardnessSaturationDepth = 10000.0
	MinSpeedPenalty         = 0.1
	ResourceYieldRatio      = 0.3
	OverdriveMultiplier     = 100.0
)

// SpeedPenalty is the fraction of drill speed that survives rock hardness.
func SpeedPenalty(depth, torque float64) float64 {
	hardness := math.Min(1, math.Max(0, depth)/HardnessSaturationDepth)
	effective := math.Max(0, hardness-torque/100)
	return math.Max(MinSpeedPenalty, 1-effective)
}

// Hazards.
const (
	HazardMinDepth     = 2000.0
	hazardBaseChance   = 0.005
	hazardChanceSpread = 0.015
	hazardMaxChance    = 0.02
	hazardRampDepth    = 48000.0
)

// HazardChancePerSec scales from 0.5%/s at HazardMinDepth to 2%/s at 50000.
func HazardChancePerSec(depth float64, stability bool) float64 {
	if depth < HazardMinDepth {
		return 0
	}
	chance := hazardBaseChance + hazardChanceSpread*(depth-HazardMinDepth)/hazardRampDepth
	chance = math.Min(hazardMaxChance, chance)
	if stability {
		chance /= 2
	}
	return chance
}

// Combat.
const (
	ShieldBlockFactor   = 0.2 // blocking lets 20% through
	MinBossDamage       = 1.0
	OverheatEvasionCut  = 0.5
	PhaseCadenceFactor  = 0.75
	FinalPhaseDamageMul = 1.5
)

// MitigatedBossDamage applies defense, the floor, then shield blocking.
func MitigatedBossDamage(damage, defensePct float64, blocking bool) float64 {
	d := math.Max(0, math.Min(100, defensePct)) / 100
	out := math.Max(MinBossDamage, damage*(1-d))
	if blocking {
		out *= ShieldBlockFactor
	}
	return out
}

// EvasionChance returns the probability in [0,1] of dodging a boss attack.
func EvasionChance(evasionPct float64, overheated bool) float64 {
	p := math.Max(0, math.Min(100, evasionPct)) / 100
	if overheated {
		p *= OverheatEvasionCut
	}
	return p
}

// BossScale multiplies boss hp, damage and rewards by depth.
func BossScale(depth float64) float64 {
	return 1 + math.Max(0, depth)/5000
}

// Raids.
const (
	RaidBaseChance = 0.05
	RaidMaxChance  = 0.5
)

// RaidChance scales the base chance by total threat across bases.
func RaidChance(totalThreat float64) float64 {
	if totalThreat <= 0 {
		return 0
	}
	return math.Min(RaidMaxChance, RaidBaseChance*(1+totalThreat))
}

// RaidAttackPower is the raiders' strength against a base with the given threat.
func RaidAttackPower(threat, depth float64) float64 {
	return 10 + threat*15 + math.Max(0, depth)/1000
}
