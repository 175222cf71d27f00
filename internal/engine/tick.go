package engine

import (
	"encoding/binary"
	"math"
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/MRamiBalles/DrillCore/internal/domain/drill"
	"github.com/MRamiBalles/DrillCore/internal/events"
	"github.com/MRamiBalles/DrillCore/internal/quest"
)

// Tick is the read-only context every subsystem receives.
type Tick struct {
	Start   *drill.GameState // snapshot at tick start, never mutated
	Stats   drill.Stats
	Effects drill.EffectTotals
	Floor   float64 // ambient heat floor
	DT      float64
	Number  int64
	Rng     *rand.Rand
}

// Outcome is what a subsystem proposes.
type Outcome struct {
	Patch  Patch
	Events []events.Notification
	Quests []quest.Update
}

func (o *Outcome) emit(n ...events.Notification) {
	o.Events = append(o.Events, n...)
}

func (o *Outcome) progress(target, kind string) {
	o.Quests = append(o.Quests, quest.Update{Target: target, Type: kind})
}

// damage lowers integrity on the patch unless god mode is on.
func (o *Outcome) damage(s *drill.GameState, amount float64) float64 {
	if s.Settings.GodMode || amount <= 0 {
		return 0
	}
	current := s.Integrity
	if o.Patch.Integrity.Set {
		current = o.Patch.Integrity.Value
	}
	o.Patch.Integrity = Some(math.Max(0, current-amount))
	return amount
}

// rngReader lets uuid draw from the tick's source so ids replay with the seed.
type rngReader struct{ rng *rand.Rand }

func (r rngReader) Read(p []byte) (int, error) {
	var buf [8]byte
	for i := 0; i < len(p); i += 8 {
		binary.LittleEndian.PutUint64(buf[:], r.rng.Uint64())
		copy(p[i:], buf[:])
	}
	return len(p), nil
}

func newID(rng *rand.Rand) string {
	id, err := uuid.NewRandomFromReader(rngReader{rng})
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
