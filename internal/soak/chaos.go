package soak

import (
	"errors"
	"math/rand/v2"

	"github.com/MRamiBalles/DrillCore/internal/domain/base"
	"github.com/MRamiBalles/DrillCore/internal/engine"
)

// ErrChaos is the injected base hook failure.
var ErrChaos = errors.New("soak: injected base failure")

// ChaosLifecycle wraps a BaseLifecycle and randomly fails or panics so long
// runs prove the tick survives faulty hooks.
type ChaosLifecycle struct {
	Inner     engine.BaseLifecycle
	FailRate  float64 // chance of returning ErrChaos
	PanicRate float64 // chance of panicking
	rng       *rand.Rand
}

// NewChaosLifecycle creates a chaos wrapper with its own seeded source so it
// does not perturb the engine's stream.
func NewChaosLifecycle(inner engine.BaseLifecycle, failRate, panicRate float64, seed uint64) *ChaosLifecycle {
	return &ChaosLifecycle{
		Inner:     inner,
		FailRate:  failRate,
		PanicRate: panicRate,
		rng:       rand.New(rand.NewPCG(seed, ^seed)),
	}
}

func (c *ChaosLifecycle) Advance(bases []base.Base, elapsed float64) ([]base.Base, []string, error) {
	roll := c.rng.Float64()
	switch {
	case roll < c.PanicRate:
		panic("chaos: base scheduler crashed")
	case roll < c.PanicRate+c.FailRate:
		return nil, nil, ErrChaos
	}
	return c.Inner.Advance(bases, elapsed)
}
