// Package events provides the notification stream the simulation emits for the
// presentation layer, and the append-only log the runtime keeps of it.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Type is the category of a notification.
type Type string

const (
	TypeLog         Type = "LOG"
	TypeText        Type = "TEXT"         // floating combat text
	TypeSound       Type = "SOUND"        // audio cue identifier
	TypeBossHit     Type = "BOSS_HIT"     // boss hit flash
	TypeScreenShake Type = "SCREEN_SHAKE" // camera shake
	TypeParticles   Type = "PARTICLES"    // particle burst request
)

// Color hints for LOG entries.
const (
	ColorInfo    = "info"
	ColorSuccess = "success"
	ColorWarning = "warning"
	ColorDanger  = "danger"
)

// Notification is a fire-and-forget message for the presentation layer.
// ID, Seq and Timestamp are stamped by the EventLog, not by the simulation.
type Notification struct {
	ID        string    `json:"id"`
	Seq       int64     `json:"seq"`
	Tick      int64     `json:"tick"`
	Timestamp time.Time `json:"timestamp"`
	Type      Type      `json:"type"`
	Message   string    `json:"message,omitempty"`
	Color     string    `json:"color,omitempty"`
	Value     float64   `json:"value,omitempty"`
	Cue       string    `json:"cue,omitempty"`
}

// Log builds a LOG notification.
func Log(msg, color string) Notification {
	return Notification{Type: TypeLog, Message: msg, Color: color}
}

// Text builds a floating combat text notification.
func Text(msg string, value float64) Notification {
	return Notification{Type: TypeText, Message: msg, Value: value}
}

// Sound builds a SOUND notification.
func Sound(cue string) Notification {
	return Notification{Type: TypeSound, Cue: cue}
}

// BossHit signals a boss hit of the given damage.
func BossHit(damage float64) Notification {
	return Notification{Type: TypeBossHit, Value: damage}
}

// Shake requests a screen shake of the given intensity.
func Shake(intensity float64) Notification {
	return Notification{Type: TypeScreenShake, Value: intensity}
}

// Particles requests a particle burst.
func Particles(cue string) Notification {
	return Notification{Type: TypeParticles, Cue: cue}
}

// Persister defines how a notification is durably stored.
type Persister interface {
	Append(n Notification) error
}

// EventLog is the in-memory append-only log of notifications.
type EventLog struct {
	mu        sync.RWMutex
	entries   []Notification
	seq       int64
	persister Persister
	onError   func(error)
}

// NewEventLog creates a new log with an optional persister.
func NewEventLog(persister Persister) *EventLog {
	return &EventLog{
		entries:   make([]Notification, 0),
		persister: persister,
	}
}

// OnPersistError registers a callback for write-through failures.
func (el *EventLog) OnPersistError(fn func(error)) {
	el.mu.Lock()
	defer el.mu.Unlock()
	el.onError = fn
}

// Append stamps and stores notifications produced during tick. Entries are
// immutable once appended.
func (el *EventLog) Append(tick int64, batch ...Notification) []Notification {
	if len(batch) == 0 {
		return nil
	}
	el.mu.Lock()
	defer el.mu.Unlock()

	now := time.Now()
	stamped := make([]Notification, len(batch))
	for i, n := range batch {
		el.seq++
		n.ID = uuid.NewString()
		n.Seq = el.seq
		n.Tick = tick
		n.Timestamp = now
		stamped[i] = n

		if el.persister != nil {
			if err := el.persister.Append(n); err != nil && el.onError != nil {
				el.onError(err)
			}
		}
	}
	el.entries = append(el.entries, stamped...)
	return stamped
}

// Since returns every entry with Seq greater than seq.
func (el *EventLog) Since(seq int64) []Notification {
	el.mu.RLock()
	defer el.mu.RUnlock()

	var result []Notification
	for _, n := range el.entries {
		if n.Seq > seq {
			result = append(result, n)
		}
	}
	return result
}

// ByType returns all entries of one type.
func (el *EventLog) ByType(t Type) []Notification {
	el.mu.RLock()
	defer el.mu.RUnlock()

	var result []Notification
	for _, n := range el.entries {
		if n.Type == t {
			result = append(result, n)
		}
	}
	return result
}

// Replay returns a copy of the full history.
func (el *EventLog) Replay() []Notification {
	el.mu.RLock()
	defer el.mu.RUnlock()
	return append([]Notification(nil), el.entries...)
}

// Restore seeds the log from persisted history and continues numbering after it.
func (el *EventLog) Restore(history []Notification) {
	el.mu.Lock()
	defer el.mu.Unlock()
	el.entries = append([]Notification(nil), history...)
	for _, n := range history {
		if n.Seq > el.seq {
			el.seq = n.Seq
		}
	}
}

// Len reports how many entries are held.
func (el *EventLog) Len() int {
	el.mu.RLock()
	defer el.mu.RUnlock()
	return len(el.entries)
}
