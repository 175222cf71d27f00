// Package resource defines the raw materials a rig extracts and the bag type used
// for inventories, rewards and per-tick deltas.
// This package is PURE and must NOT import any infrastructure packages.
package resource

import (
	"math"
	"sort"
)

// Kind identifies a raw material.
type Kind string

const (
	Dirt      Kind = "dirt"
	Stone     Kind = "stone"
	Coal      Kind = "coal"
	Iron      Kind = "iron"
	Copper    Kind = "copper"
	Gold      Kind = "gold"
	Gems      Kind = "gems"
	Crystal   Kind = "crystal"
	MagmaCore Kind = "magma_core"
	VoidShard Kind = "void_shard"
)

// Bag maps a material to an amount. A nil Bag is a valid empty bag for reads.
type Bag map[Kind]float64

// Clone returns an independent copy.
func (b Bag) Clone() Bag {
	out := make(Bag, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// Add accumulates other into b, creating entries as needed.
func (b Bag) Add(other Bag) {
	for k, v := range other {
		b[k] += v
	}
}

// Credit adds amount of kind.
func (b Bag) Credit(kind Kind, amount float64) {
	b[kind] += amount
}

// Scaled returns a copy of b multiplied by factor.
func (b Bag) Scaled(factor float64) Bag {
	out := make(Bag, len(b))
	for k, v := range b {
		out[k] = v * factor
	}
	return out
}

// Floor returns a copy with every amount rounded down.
func (b Bag) Floor() Bag {
	out := make(Bag, len(b))
	for k, v := range b {
		out[k] = math.Floor(v)
	}
	return out
}

// ClampNonNegative zeroes any negative amount in place.
func (b Bag) ClampNonNegative() {
	for k, v := range b {
		if v < 0 || math.IsNaN(v) {
			b[k] = 0
		}
	}
}

// Total sums every amount.
func (b Bag) Total() float64 {
	total := 0.0
	for _, v := range b {
		total += v
	}
	return total
}

// IsEmpty reports whether every amount is zero.
func (b Bag) IsEmpty() bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

// Kinds returns the keys in stable order so iteration that consumes randomness
// stays replayable.
func (b Bag) Kinds() []Kind {
	kinds := make([]Kind, 0, len(b))
	for k := range b {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
