// Package narrative turns post-tick context into flavour text for the log.
package narrative

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
)

// Reason says why a line was requested.
type Reason string

const (
	ReasonPeriodic Reason = "periodic"
	ReasonAFK      Reason = "afk"
)

// Context is what the engine knows after a tick.
type Context struct {
	Reason       Reason  `json:"reason"`
	Depth        float64 `json:"depth"`
	Heat         float64 `json:"heat"`
	Integrity    float64 `json:"integrity"`
	MaxIntegrity float64 `json:"max_integrity"`
	AFKSeconds   float64 `json:"afk_seconds"`
	Biome        string  `json:"biome"`
	BossName     string  `json:"boss_name,omitempty"`
}

// Narrator produces one line for a context.
type Narrator interface {
	Line(ctx context.Context, c Context) (string, error)
}

// Static picks from canned lines. It never fails.
type Static struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewStatic creates a narrator with a seeded source.
func NewStatic(seed uint64) *Static {
	return &Static{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

var (
	afkLines = []string{
		"The drill hums on, patient as stone.",
		"Nobody at the controls. The rock does not mind.",
		"Telemetry idles. Somewhere above, the sun moves.",
	}
	hotLines = []string{
		"The cabin smells of scorched oil.",
		"Sweat beads on the gauges.",
	}
	hurtLines = []string{
		"The hull groans with every metre.",
		"Rivets ping loose somewhere aft.",
	}
	bossLines = []string{
		"Something large is breathing in the dark.",
		"The walls are moving. That is not rock.",
	}
	calmLines = []string{
		"Layer after layer gives way.",
		"The bit bites clean.",
		"Dust settles on the viewport.",
	}
)

// Line returns a line matched to the most pressing condition.
func (s *Static) Line(_ context.Context, c Context) (string, error) {
	var pool []string
	switch {
	case c.Reason == ReasonAFK:
		pool = afkLines
	case c.BossName != "":
		pool = bossLines
	case c.MaxIntegrity > 0 && c.Integrity/c.MaxIntegrity < 0.25:
		pool = hurtLines
	case c.Heat > 80:
		pool = hotLines
	default:
		pool = calmLines
	}

	s.mu.Lock()
	line := pool[s.rng.IntN(len(pool))]
	s.mu.Unlock()

	if c.Biome != "" {
		return fmt.Sprintf("[%s, %.0fm] %s", c.Biome, c.Depth, line), nil
	}
	return line, nil
}
