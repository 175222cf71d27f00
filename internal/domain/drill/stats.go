package drill

// Stats is the derived numeric snapshot computed once per tick from equipment,
// skills and identified artifacts. Subsystems read it and never recompute it.
type Stats struct {
	DrillSpeed       float64 `json:"drill_speed"`        // depth units per second
	Torque           float64 `json:"torque"`             // offsets rock hardness, 100 = 1.0
	HeatReductionPct float64 `json:"heat_reduction_pct"` // 0..100
	CoolingPower     float64 `json:"cooling_power"`      // heat units per second
	AmbientHeat      float64 `json:"ambient_heat"`
	MaxIntegrity     float64 `json:"max_integrity"`
	DefensePct       float64 `json:"defense_pct"` // 0..100
	EvasionPct       float64 `json:"evasion_pct"` // 0..100
	AttackPower      float64 `json:"attack_power"`
	Luck             float64 `json:"luck"`
	DroneEfficiency  float64 `json:"drone_efficiency"`
}

// AmbientFloor is the lowest heat the rig can cool to this tick.
func AmbientFloor(st Stats, settings Settings, fx EffectTotals) float64 {
	if settings.InfiniteCoolant || fx.HeatImmune {
		return 0
	}
	if st.AmbientHeat < 0 {
		return 0
	}
	if st.AmbientHeat > MaxHeat {
		return MaxHeat
	}
	return st.AmbientHeat
}
