// Package quest tracks objective progress fed by the simulation's quest hooks.
package quest

import (
	"sync"

	"github.com/MRamiBalles/DrillCore/internal/domain/drill"
)

// Update is a progress hook emitted by a subsystem, e.g. {target:"rock_worm", type:"KILL"}.
type Update struct {
	Target string `json:"target"`
	Type   string `json:"type"`
}

// Hook types emitted by the simulation.
const (
	TypeKill           = "KILL"
	TypeMaintain       = "MAINTAIN"
	TypeTunnelComplete = "TUNNEL_COMPLETE"
	TypeReachDepth     = "REACH_DEPTH"
	TypeRaidRepelled   = "RAID_REPELLED"
)

// Quest is one tracked objective.
type Quest struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Target   string  `json:"target"`
	Type     string  `json:"type"`
	Required int     `json:"required"`
	Depth    float64 `json:"depth,omitempty"` // REACH_DEPTH only
	Progress int     `json:"progress"`
	Done     bool    `json:"done"`
}

// Tracker holds the quest book. Record is called by the runtime with each
// tick's updates; CheckProgress is called from the engine's periodic hook.
type Tracker struct {
	mu     sync.Mutex
	quests []*Quest
}

// NewTracker creates a tracker with the given quests.
func NewTracker(quests ...Quest) *Tracker {
	t := &Tracker{}
	for i := range quests {
		q := quests[i]
		t.quests = append(t.quests, &q)
	}
	return t
}

// DefaultQuests is the starter quest book.
func DefaultQuests() []Quest {
	return []Quest{
		{ID: "first_kilometre", Title: "Reach 1,000m", Target: "depth_1000", Type: TypeReachDepth, Depth: 1000, Required: 1},
		{ID: "worm_hunter", Title: "Slay a Rock Worm", Target: "rock_worm", Type: TypeKill, Required: 1},
		{ID: "steady_hands", Title: "Keep the rig in the green for a minute", Target: "heat_stability", Type: TypeMaintain, Required: 3},
		{ID: "spelunker", Title: "Finish a Crystal Cave", Target: "crystal_cave", Type: TypeTunnelComplete, Required: 1},
	}
}

// Record applies a batch of updates and returns the quests completed by it.
func (t *Tracker) Record(updates []Update) []Quest {
	t.mu.Lock()
	defer t.mu.Unlock()

	var completed []Quest
	for _, u := range updates {
		for _, q := range t.quests {
			if q.Done || q.Type != u.Type || q.Target != u.Target {
				continue
			}
			q.Progress++
			if q.Progress >= q.Required {
				q.Done = true
				completed = append(completed, *q)
			}
		}
	}
	return completed
}

// CheckProgress evaluates state-derived objectives such as depth milestones and
// returns REACH_DEPTH updates for the ones now met. Completion happens in Record,
// so depth quests are announced like every other quest.
func (t *Tracker) CheckProgress(s *drill.GameState) ([]Update, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var updates []Update
	for _, q := range t.quests {
		if q.Done || q.Type != TypeReachDepth {
			continue
		}
		if s.Depth >= q.Depth {
			updates = append(updates, Update{Target: q.Target, Type: TypeReachDepth})
		}
	}
	return updates, nil
}

// Snapshot returns a copy of the quest book.
func (t *Tracker) Snapshot() []Quest {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Quest, len(t.quests))
	for i, q := range t.quests {
		out[i] = *q
	}
	return out
}
