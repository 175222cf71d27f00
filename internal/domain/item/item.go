// Package item defines inventory entries and the artifact catalogue.
// This package is PURE and must NOT import any infrastructure packages.
package item

import "sort"

// Rarity grades an artifact.
type Rarity int

const (
	RarityCommon Rarity = iota
	RarityUncommon
	RarityRare
	RarityEpic
	RarityLegendary
)

func (r Rarity) String() string {
	switch r {
	case RarityCommon:
		return "Common"
	case RarityUncommon:
		return "Uncommon"
	case RarityRare:
		return "Rare"
	case RarityEpic:
		return "Epic"
	case RarityLegendary:
		return "Legendary"
	default:
		return "Unknown"
	}
}

// StatKey names a derived stat an artifact can boost.
type StatKey string

const (
	StatDrillSpeed      StatKey = "drill_speed"
	StatCooling         StatKey = "cooling"
	StatHeatReduction   StatKey = "heat_reduction"
	StatDefense         StatKey = "defense"
	StatEvasion         StatKey = "evasion"
	StatAttack          StatKey = "attack"
	StatLuck            StatKey = "luck"
	StatDroneEfficiency StatKey = "drone_efficiency"
)

// Bonus is a flat addition to one stat while the artifact is identified and held.
type Bonus struct {
	Stat  StatKey `json:"stat"`
	Value float64 `json:"value"`
}

// Item is one inventory entry. Artifacts drop unidentified; the analyzer reveals them.
type Item struct {
	ID           string `json:"id" msgpack:"id"`
	DefinitionID string `json:"definition_id" msgpack:"definition_id"`
	Rarity       Rarity `json:"rarity" msgpack:"rarity"`
	Identified   bool   `json:"identified" msgpack:"identified"`
}

// Definition provides metadata about an artifact.
type Definition struct {
	ID           string
	Name         string
	Description  string
	Rarity       Rarity
	AnalysisSecs float64 // Time the analyzer needs to identify it
	Bonuses      []Bonus
}

// Registry contains all known artifacts.
var Registry = map[string]Definition{
	"fossil_gear": {
		ID:           "fossil_gear",
		Name:         "Fossilized Gear",
		Description:  "A cog petrified mid-turn. Still meshes with modern drill heads.",
		Rarity:       RarityCommon,
		AnalysisSecs: 10,
		Bonuses:      []Bonus{{Stat: StatDrillSpeed, Value: 0.5}},
	},
	"frost_lattice": {
		ID:           "frost_lattice",
		Name:         "Frost Lattice",
		Description:  "Cold to the touch no matter how deep you take it.",
		Rarity:       RarityUncommon,
		AnalysisSecs: 20,
		Bonuses:      []Bonus{{Stat: StatCooling, Value: 2}},
	},
	"quartz_plating": {
		ID:           "quartz_plating",
		Name:         "Quartz Plating",
		Description:  "Layered crystal that shrugs off claws.",
		Rarity:       RarityUncommon,
		AnalysisSecs: 20,
		Bonuses:      []Bonus{{Stat: StatDefense, Value: 5}},
	},
	"worm_fang": {
		ID:           "worm_fang",
		Name:         "Worm Fang",
		Description:  "Serrated, hollow and still sharp.",
		Rarity:       RarityRare,
		AnalysisSecs: 30,
		Bonuses:      []Bonus{{Stat: StatAttack, Value: 4}},
	},
	"drone_core": {
		ID:           "drone_core",
		Name:         "Antique Drone Core",
		Description:  "Somebody built drones down here before you did.",
		Rarity:       RarityRare,
		AnalysisSecs: 30,
		Bonuses:      []Bonus{{Stat: StatDroneEfficiency, Value: 0.25}},
	},
	"magma_heart": {
		ID:           "magma_heart",
		Name:         "Magma Heart",
		Description:  "Pulses slowly. The rig runs cooler when it is aboard.",
		Rarity:       RarityEpic,
		AnalysisSecs: 45,
		Bonuses:      []Bonus{{Stat: StatHeatReduction, Value: 10}},
	},
	"void_compass": {
		ID:           "void_compass",
		Name:         "Void Compass",
		Description:  "Points toward whatever you have not found yet.",
		Rarity:       RarityLegendary,
		AnalysisSecs: 60,
		Bonuses:      []Bonus{{Stat: StatLuck, Value: 10}, {Stat: StatEvasion, Value: 5}},
	},
}

// GetDefinition returns the definition for an artifact id.
func GetDefinition(id string) (Definition, bool) {
	def, ok := Registry[id]
	return def, ok
}

// ByRarity returns every artifact id of exactly the given rarity in stable order.
func ByRarity(r Rarity) []string {
	var ids []string
	for id, def := range Registry {
		if def.Rarity == r {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
