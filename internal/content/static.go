package content

import (
	"github.com/MRamiBalles/DrillCore/internal/domain/drill"
	"github.com/MRamiBalles/DrillCore/internal/domain/item"
	"github.com/MRamiBalles/DrillCore/internal/domain/resource"
)

// Static serves the built-in tables.
type Static struct {
	events map[string]EventDefinition
}

// NewStatic indexes the built-in tables.
func NewStatic() *Static {
	s := &Static{events: make(map[string]EventDefinition, len(eventTable))}
	for _, e := range eventTable {
		s.events[e.ID] = e
	}
	return s
}

var _ Registry = (*Static)(nil)

func (s *Static) Biomes() []Biome { return biomeTable }
func (s *Static) Events() []EventDefinition { return eventTable }
func (s *Static) Bosses() []BossDefinition { return bossTable }
func (s *Static) Blueprints() []string { return blueprintTable }
func (s *Static) TunnelTypes() []TunnelType { return tunnelTable }
func (s *Static) Unlocks() []Unlock { return unlockTable }
func (s *Static) MinigameTypes() []string { return []string{"circuit", "frequency", "cipher"} }
func (s *Static) ArtifactsByRarity(r item.Rarity) []string { return item.ByRarity(r) }

func (s *Static) Event(id string) (EventDefinition, bool) {
	e, ok := s.events[id]
	return e, ok
}

func (s *Static) Artifact(id string) (item.Definition, bool) {
	return item.GetDefinition(id)
}

// Ordered by depth threshold.
var biomeTable = []Biome{
	{Name: "Topsoil", Depth: 0, Resource: resource.Dirt},
	{Name: "Bedrock", Depth: 500, Resource: resource.Stone},
	{Name: "Coal Seams", Depth: 1500, Resource: resource.Coal},
	{Name: "Iron Veins", Depth: 3500, Resource: resource.Iron},
	{Name: "Copper Caverns", Depth: 6000, Resource: resource.Copper},
	{Name: "Gold Reef", Depth: 10000, Resource: resource.Gold},
	{Name: "Gem Hollows", Depth: 16000, Resource: resource.Gems},
	{Name: "Crystal Depths", Depth: 25000, Resource: resource.Crystal},
	{Name: "Magma Mantle", Depth: 40000, Resource: resource.MagmaCore},
	{Name: "The Void", Depth: 60000, Resource: resource.VoidShard},
}

var unlockTable = []Unlock{
	{ID: "shield", Depth: 100, Label: "Deflector shield online"},
	{ID: "analyzer", Depth: 300, Label: "Artifact analyzer recovered"},
	{ID: "drones", Depth: 1000, Label: "Drone bay unlocked"},
	{ID: "side_tunnels", Depth: 2500, Label: "Tunnel scanner calibrated"},
	{ID: "bases", Depth: 5000, Label: "Outpost construction permitted"},
	{ID: "overdrive_core", Depth: 20000, Label: "Overdrive core stabilised"},
}

var blueprintTable = []string{
	"bp_reinforced_hull",
	"bp_cryo_loop",
	"bp_diamond_bit",
	"bp_turret_mk2",
	"bp_drone_hive",
	"bp_magma_shunt",
}

var tunnelTable = []TunnelType{
	{ID: "crystal_cave", Name: "Crystal Cave", MinDepth: 0, Risk: 1, Difficulty: 1, MaxProgress: 100,
		Rewards: resource.Bag{resource.Crystal: 5, resource.Stone: 40}, Drop: resource.Crystal},
	{ID: "abandoned_mine", Name: "Abandoned Mine", MinDepth: 500, Risk: 2, Difficulty: 1.5, MaxProgress: 150,
		Rewards: resource.Bag{resource.Iron: 40, resource.Coal: 60}, Drop: resource.Coal},
	{ID: "fungal_grotto", Name: "Fungal Grotto", MinDepth: 2000, Risk: 3, Difficulty: 2, MaxProgress: 200,
		Rewards: resource.Bag{resource.Copper: 50, resource.Gems: 5}, Drop: resource.Copper},
	{ID: "magma_vent", Name: "Magma Vent", MinDepth: 8000, Risk: 4, Difficulty: 3, MaxProgress: 300,
		Rewards: resource.Bag{resource.MagmaCore: 8, resource.Gold: 30}, Drop: resource.Gold},
	{ID: "ancient_vault", Name: "Ancient Vault", MinDepth: 20000, Risk: 5, Difficulty: 4, MaxProgress: 400,
		Rewards: resource.Bag{resource.VoidShard: 3, resource.Gems: 40}, Drop: resource.Gems},
}

var bossTable = []BossDefinition{
	{ID: "rock_worm", Name: "Rock Worm", MinDepth: 0, BaseHP: 200, BaseDamage: 8, AttackSpeed: 20,
		RewardXP: 100, Rewards: resource.Bag{resource.Stone: 100, resource.Iron: 10}, DropRarity: item.RarityCommon},
	{ID: "crystal_golem", Name: "Crystal Golem", MinDepth: 3000, BaseHP: 500, BaseDamage: 12, AttackSpeed: 25,
		RewardXP: 300, Rewards: resource.Bag{resource.Crystal: 10, resource.Gold: 20}, DropRarity: item.RarityUncommon},
	{ID: "magma_wyrm", Name: "Magma Wyrm", MinDepth: 12000, BaseHP: 1200, BaseDamage: 20, AttackSpeed: 18,
		RewardXP: 800, Rewards: resource.Bag{resource.MagmaCore: 5, resource.Gems: 15}, DropRarity: item.RarityRare},
	{ID: "void_leviathan", Name: "Void Leviathan", MinDepth: 40000, BaseHP: 4000, BaseDamage: 35, AttackSpeed: 15,
		RewardXP: 3000, Rewards: resource.Bag{resource.VoidShard: 5}, DropRarity: item.RarityEpic},
}

var eventTable = []EventDefinition{
	{
		ID: "tremor", Title: "Seismic Tremor", Weight: 3, MinDepth: 0,
		Instant: InstantEffect{IntegrityPct: 0.05},
		Options: []EventOption{{ID: "brace", Label: "Brace and carry on"}},
	},
	{
		ID: "sinkhole", Title: "Sinkhole", Weight: 2, MinDepth: 300,
		Instant: InstantEffect{DepthJump: 150},
		Options: []EventOption{{ID: "scan", Label: "Scan the new strata", Resources: resource.Bag{resource.Stone: 30}}},
	},
	{
		ID: "fossil_bed", Title: "Fossil Bed", Weight: 2, MinDepth: 200,
		Instant: InstantEffect{XP: 50},
		Options: []EventOption{{ID: "catalogue", Label: "Catalogue the find", Resources: resource.Bag{resource.Coal: 20}}},
	},
	{
		ID: "steam_pocket", Title: "Steam Pocket", Weight: 2, MinDepth: 1000,
		Instant: InstantEffect{Heat: 15},
		Options: []EventOption{
			{ID: "vent", Label: "Vent the coolant lines", Effect: &EffectTemplate{
				ID: "vented", Name: "Vented Coolant", Duration: 30,
				Modifiers: []drill.Modifier{{Kind: drill.ModCooling, Value: 1.5}},
			}},
		},
	},
	{
		ID: "rich_vein", Title: "Rich Vein", Weight: 2, MinDepth: 500,
		Options: []EventOption{
			{ID: "mine", Label: "Mine it carefully", Effect: &EffectTemplate{
				ID: "rich_vein", Name: "Rich Vein", Duration: 60,
				Modifiers: []drill.Modifier{{Kind: drill.ModResourceYield, Value: 2}},
			}},
			{ID: "grab", Label: "Grab what you can", Resources: resource.Bag{resource.Iron: 25}},
		},
	},
	{
		ID: "hidden_passage", Title: "Hidden Passage", Weight: 1.5, MinDepth: 0,
		Options: []EventOption{
			{ID: "explore", Label: "Explore the passage", StartsTunnel: true},
			{ID: "ignore", Label: "Keep drilling"},
		},
	},
	{
		ID: "ancient_ward", Title: "Ancient Ward", Weight: 1, MinDepth: 5000,
		Options: []EventOption{
			{ID: "attune", Label: "Attune to the ward", Effect: &EffectTemplate{
				ID: "warded", Name: "Warded", Duration: 45,
				Modifiers: []drill.Modifier{{Kind: drill.ModBarrier}, {Kind: drill.ModStability}},
			}},
		},
	},
	{
		ID: "overclock_surge", Title: "Overclock Surge", Weight: 1, MinDepth: 2000,
		Options: []EventOption{
			{ID: "ride", Label: "Ride the surge", Effect: &EffectTemplate{
				ID: "overclock", Name: "Overclocked", Duration: 20,
				Modifiers: []drill.Modifier{{Kind: drill.ModDrillSpeed, Value: 2}, {Kind: drill.ModHeatGain, Value: 1.5}},
			}},
			{ID: "dampen", Label: "Dampen it"},
		},
	},
	{
		ID: "cryo_spring", Title: "Cryo Spring", Weight: 1, MinDepth: 8000,
		Options: []EventOption{
			{ID: "bathe", Label: "Flood the radiators", Effect: &EffectTemplate{
				ID: "cryo", Name: "Cryo Bath", Duration: 30,
				Modifiers: []drill.Modifier{{Kind: drill.ModHeatImmunity}},
			}},
		},
	},
}
