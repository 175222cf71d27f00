package drill

// ModifierKind is the closed set of things a timed effect can change.
type ModifierKind string

const (
	ModHeatGain      ModifierKind = "HEAT_GAIN"      // multiplies heat gain
	ModDrillSpeed    ModifierKind = "DRILL_SPEED"    // multiplies drill power
	ModResourceYield ModifierKind = "RESOURCE_YIELD" // multiplies mined resources
	ModCooling       ModifierKind = "COOLING"        // multiplies heat decay
	ModHeatImmunity  ModifierKind = "HEAT_IMMUNITY"  // forces ambient floor to 0
	ModBarrier       ModifierKind = "BARRIER"        // negates boss attacks
	ModStability     ModifierKind = "STABILITY"      // halves hazard chance
)

// Modifier is one entry of an effect. Value is a multiplier for the scaling
// kinds and ignored for the flag kinds.
type Modifier struct {
	Kind  ModifierKind `json:"kind" msgpack:"kind"`
	Value float64      `json:"value" msgpack:"value"`
}

// ActiveEffect is a timed buff or debuff.
type ActiveEffect struct {
	ID        string     `json:"id" msgpack:"id"`
	Name      string     `json:"name" msgpack:"name"`
	Remaining float64    `json:"remaining" msgpack:"remaining"` // seconds
	Modifiers []Modifier `json:"modifiers" msgpack:"modifiers"`
}

// EffectTotals is the combined view of every active effect.
type EffectTotals struct {
	HeatGain      float64
	DrillSpeed    float64
	ResourceYield float64
	Cooling       float64
	HeatImmune    bool
	Barrier       bool
	Stability     bool
}

// NeutralTotals has no modification.
func NeutralTotals() EffectTotals {
	return EffectTotals{HeatGain: 1, DrillSpeed: 1, ResourceYield: 1, Cooling: 1}
}

// CombineEffects folds effects into totals. Multipliers compound; flags OR.
// Expired effects (Remaining <= 0) are ignored.
func CombineEffects(effects []ActiveEffect) EffectTotals {
	t := NeutralTotals()
	for _, e := range effects {
		if e.Remaining <= 0 {
			continue
		}
		for _, m := range e.Modifiers {
			switch m.Kind {
			case ModHeatGain:
				t.HeatGain *= nonNegative(m.Value)
			case ModDrillSpeed:
				t.DrillSpeed *= nonNegative(m.Value)
			case ModResourceYield:
				t.ResourceYield *= nonNegative(m.Value)
			case ModCooling:
				t.Cooling *= nonNegative(m.Value)
			case ModHeatImmunity:
				t.HeatImmune = true
			case ModBarrier:
				t.Barrier = true
			case ModStability:
				t.Stability = true
			}
		}
	}
	return t
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
