// Package content holds the read-only lookup tables the simulation consumes:
// biomes, ambient events, bosses, tunnel types, blueprints and depth unlocks.
package content

import (
	"github.com/MRamiBalles/DrillCore/internal/domain/drill"
	"github.com/MRamiBalles/DrillCore/internal/domain/item"
	"github.com/MRamiBalles/DrillCore/internal/domain/resource"
)

// Biome is a depth band that determines which resource drilling yields.
type Biome struct {
	Name     string
	Depth    float64 // threshold at which the biome starts
	Resource resource.Kind
}

// InstantEffect is applied the moment an event is rolled. Zero fields are skipped.
type InstantEffect struct {
	IntegrityPct float64 // fraction of max integrity lost, 0.1 = 10%
	DepthJump    float64
	XP           float64
	Heat         float64
}

// EffectTemplate instantiates an ActiveEffect.
type EffectTemplate struct {
	ID        string
	Name      string
	Duration  float64
	Modifiers []drill.Modifier
}

// EventOption is one player choice on an event.
type EventOption struct {
	ID           string
	Label        string
	Effect       *EffectTemplate
	Resources    resource.Bag
	StartsTunnel bool
}

// EventDefinition is an ambient event.
type EventDefinition struct {
	ID       string
	Title    string
	Weight   float64
	MinDepth float64
	Instant  InstantEffect
	Options  []EventOption
}

// BossDefinition is scaled by depth at spawn time.
type BossDefinition struct {
	ID          string
	Name        string
	MinDepth    float64
	BaseHP      float64
	BaseDamage  float64
	AttackSpeed int // ticks between attacks
	RewardXP    float64
	Rewards     resource.Bag
	DropRarity  item.Rarity
}

// TunnelType is one of the side-tunnel variants.
type TunnelType struct {
	ID          string
	Name        string
	MinDepth    float64
	Risk        int
	Difficulty  float64
	MaxProgress float64
	Rewards     resource.Bag // scaled by risk at generation time
	Drop        resource.Kind
}

// Unlock is a depth-gated feature flag.
type Unlock struct {
	ID    string
	Depth float64
	Label string
}

// Registry is the read-only content surface the engine depends on.
type Registry interface {
	Biomes() []Biome
	Events() []EventDefinition
	Event(id string) (EventDefinition, bool)
	Bosses() []BossDefinition
	Artifact(id string) (item.Definition, bool)
	ArtifactsByRarity(r item.Rarity) []string
	Blueprints() []string
	TunnelTypes() []TunnelType
	Unlocks() []Unlock
	MinigameTypes() []string
}

// BiomeAt returns the last biome whose threshold the depth has reached.
func BiomeAt(reg Registry, depth float64) Biome {
	biomes := reg.Biomes()
	if len(biomes) == 0 {
		return Biome{}
	}
	current := biomes[0]
	for _, b := range biomes {
		if depth >= b.Depth {
			current = b
		}
	}
	return current
}

// BiomeByName finds a biome by name.
func BiomeByName(reg Registry, name string) (Biome, bool) {
	for _, b := range reg.Biomes() {
		if b.Name == name {
			return b, true
		}
	}
	return Biome{}, false
}
