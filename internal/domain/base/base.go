// Package base defines player outposts: their construction timer, production
// queue, stored resources and defensive garrison.
// This package is PURE and must NOT import any infrastructure packages.
package base

import (
	"maps"
	"math"
	"slices"

	"github.com/MRamiBalles/DrillCore/internal/domain/resource"
)

// Garrison unit weights used for defense power.
const (
	InfantryWeight = 1.0
	DroneWeight    = 3.0
	TurretWeight   = 5.0

	// MaxShieldAbsorb caps the share of attack power a shield can soak.
	MaxShieldAbsorb = 0.5
)

// Garrison is the defensive unit roster of a base.
type Garrison struct {
	Infantry int `json:"infantry" msgpack:"infantry"`
	Drones   int `json:"drones" msgpack:"drones"`
	Turrets  int `json:"turrets" msgpack:"turrets"`
}

// DefensePower is the weighted sum of garrison units.
func (g Garrison) DefensePower() float64 {
	return float64(g.Infantry)*InfantryWeight +
		float64(g.Drones)*DroneWeight +
		float64(g.Turrets)*TurretWeight
}

// Job is one entry of a production queue.
type Job struct {
	RecipeID  string       `json:"recipe_id" msgpack:"recipe_id"`
	Remaining float64      `json:"remaining" msgpack:"remaining"` // seconds
	Output    resource.Bag `json:"output" msgpack:"output"`
}

// Base is a player outpost.
type Base struct {
	ID    string `json:"id" msgpack:"id"`
	Name  string `json:"name" msgpack:"name"`
	Biome string `json:"biome" msgpack:"biome"`

	UnderConstruction bool    `json:"under_construction" msgpack:"under_construction"`
	BuildRemaining    float64 `json:"build_remaining" msgpack:"build_remaining"`

	Storage  resource.Bag `json:"storage" msgpack:"storage"`
	Queue    []Job        `json:"queue" msgpack:"queue"`
	Garrison Garrison     `json:"garrison" msgpack:"garrison"`

	// Shield is the fraction of attack power absorbed, capped at MaxShieldAbsorb.
	Shield float64 `json:"shield" msgpack:"shield"`

	// Activity flags raise raid threat.
	IsMining   bool `json:"is_mining" msgpack:"is_mining"`
	IsRefining bool `json:"is_refining" msgpack:"is_refining"`

	LastRaidTick int64 `json:"last_raid_tick" msgpack:"last_raid_tick"`
}

// Clone returns a deep copy.
func (b Base) Clone() Base {
	c := b
	c.Storage = maps.Clone(b.Storage)
	c.Queue = slices.Clone(b.Queue)
	for i := range c.Queue {
		c.Queue[i].Output = maps.Clone(c.Queue[i].Output)
	}
	return c
}

// IsOperational reports whether the base can be raided and can produce.
func (b Base) IsOperational() bool {
	return !b.UnderConstruction
}

// ShieldAbsorb returns the share of attack power the shield soaks.
func (b Base) ShieldAbsorb() float64 {
	if b.Shield <= 0 || math.IsNaN(b.Shield) {
		return 0
	}
	return math.Min(MaxShieldAbsorb, b.Shield)
}

// highValue weights stored resources by how attractive they are to raiders.
var highValue = map[resource.Kind]float64{
	resource.Gold:      1.0,
	resource.Gems:      1.5,
	resource.Crystal:   1.5,
	resource.MagmaCore: 2.0,
	resource.VoidShard: 3.0,
}

// Threat scores how tempting the base is. Every 1000 weighted units of stored
// high-value resources add 1; each activity flag adds 0.5.
func (b Base) Threat() float64 {
	if !b.IsOperational() {
		return 0
	}
	weighted := 0.0
	for kind, amount := range b.Storage {
		if w, ok := highValue[kind]; ok && amount > 0 {
			weighted += amount * w
		}
	}
	threat := weighted / 1000
	if b.IsMining {
		threat += 0.5
	}
	if b.IsRefining {
		threat += 0.5
	}
	return threat
}

// Advance moves construction and the front production job forward by elapsed
// seconds and reports what finished.
func (b *Base) Advance(elapsed float64) (built bool, finished []Job) {
	if elapsed <= 0 {
		return false, nil
	}
	if b.UnderConstruction {
		b.BuildRemaining -= elapsed
		if b.BuildRemaining > 0 {
			return false, nil
		}
		b.BuildRemaining = 0
		b.UnderConstruction = false
		return true, nil
	}

	// Only the front job runs; leftover time carries into the next one.
	for elapsed > 0 && len(b.Queue) > 0 {
		front := &b.Queue[0]
		if front.Remaining > elapsed {
			front.Remaining -= elapsed
			break
		}
		elapsed -= front.Remaining
		done := *front
		done.Remaining = 0
		if b.Storage == nil {
			b.Storage = resource.Bag{}
		}
		b.Storage.Add(done.Output)
		finished = append(finished, done)
		b.Queue = b.Queue[1:]
	}
	return false, finished
}
