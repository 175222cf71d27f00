// Package boss defines the encounter entities owned by the combat subsystem.
// This package is PURE and must NOT import any infrastructure packages.
package boss

import (
	"maps"
	"slices"

	"github.com/MRamiBalles/DrillCore/internal/domain/item"
	"github.com/MRamiBalles/DrillCore/internal/domain/resource"
)

// Phase is the escalation stage of an encounter. Phases only move forward.
type Phase int

const (
	PhaseOne   Phase = 1 // above 50% hp
	PhaseTwo   Phase = 2 // at or below 50% hp
	PhaseThree Phase = 3 // at or below 20% hp
)

// WeakPoint is a sub-target with its own hit pool.
type WeakPoint struct {
	ID        string  `json:"id" msgpack:"id"`
	HP        float64 `json:"hp" msgpack:"hp"`
	MaxHP     float64 `json:"max_hp" msgpack:"max_hp"`
	Destroyed bool    `json:"destroyed" msgpack:"destroyed"`
}

// Boss is a live encounter.
type Boss struct {
	ID             string       `json:"id" msgpack:"id"`
	DefinitionID   string       `json:"definition_id" msgpack:"definition_id"`
	Name           string       `json:"name" msgpack:"name"`
	HP             float64      `json:"hp" msgpack:"hp"`
	MaxHP          float64      `json:"max_hp" msgpack:"max_hp"`
	Damage         float64      `json:"damage" msgpack:"damage"`
	AttackSpeed    int          `json:"attack_speed" msgpack:"attack_speed"` // ticks between attacks
	Phase          Phase        `json:"phase" msgpack:"phase"`
	WeakPoints     []WeakPoint  `json:"weak_points" msgpack:"weak_points"`
	IsInvulnerable bool         `json:"is_invulnerable" msgpack:"is_invulnerable"`
	RewardXP       float64      `json:"reward_xp" msgpack:"reward_xp"`
	Rewards        resource.Bag `json:"rewards" msgpack:"rewards"`
	DropRarity     item.Rarity  `json:"drop_rarity" msgpack:"drop_rarity"`
}

// Clone returns a deep copy so the combat subsystem can propose changes without
// touching the snapshot.
func (b *Boss) Clone() *Boss {
	if b == nil {
		return nil
	}
	c := *b
	c.WeakPoints = slices.Clone(b.WeakPoints)
	c.Rewards = maps.Clone(b.Rewards)
	return &c
}

// HPFraction returns remaining hp as a fraction of max.
func (b *Boss) HPFraction() float64 {
	if b.MaxHP <= 0 {
		return 0
	}
	return b.HP / b.MaxHP
}

// IsDead reports whether the main pool is exhausted.
func (b *Boss) IsDead() bool {
	return b.HP <= 0
}

// LiveWeakPoints returns the indices of weak points that can still be hit.
func (b *Boss) LiveWeakPoints() []int {
	var idx []int
	for i, wp := range b.WeakPoints {
		if !wp.Destroyed {
			idx = append(idx, i)
		}
	}
	return idx
}

// MinigameOutcome is reported by the presentation layer once the player finishes.
type MinigameOutcome int

const (
	MinigamePending MinigameOutcome = iota
	MinigameWon
	MinigameLost
)

// Minigame locks the boss while the player attempts a hack.
type Minigame struct {
	Type       string          `json:"type" msgpack:"type"`
	Difficulty int             `json:"difficulty" msgpack:"difficulty"`
	Outcome    MinigameOutcome `json:"outcome" msgpack:"outcome"`
}

// MainPool targets the boss body instead of a weak point.
const MainPool = -1

// Hit is a player strike queued between ticks.
type Hit struct {
	WeakPoint int     `json:"weak_point" msgpack:"weak_point"`
	Damage    float64 `json:"damage" msgpack:"damage"`
}
