package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/MRamiBalles/DrillCore/internal/events"
)

// Impact classes for recap entries.
const (
	ImpactPositive = "POSITIVE"
	ImpactNegative = "NEGATIVE"
	ImpactNeutral  = "NEUTRAL"
)

// RecapEntry is one line of the "while you were away" screen.
type RecapEntry struct {
	Seq     int64  `json:"seq"`
	When    string `json:"when"` // relative, e.g. "3 minutes ago"
	Summary string `json:"summary"`
	Impact  string `json:"impact"`
}

// Recap summarises the notification history after a sequence number.
type Recap struct {
	Entries   []RecapEntry `json:"entries"`
	Deaths    int          `json:"deaths"`
	BossKills int          `json:"boss_kills"`
	Raids     int          `json:"raids"`
	LastSeq   int64        `json:"last_seq"`
}

// Reconstructor rebuilds a player-facing recap from stored notifications.
// Only LOG entries carry text; cues are counted, not listed.
type Reconstructor struct {
	repo NotificationRepository
	now  func() time.Time
}

// NewReconstructor creates a recap builder over repo.
func NewReconstructor(repo NotificationRepository) *Reconstructor {
	return &Reconstructor{repo: repo, now: time.Now}
}

// GenerateRecap collects everything logged for gameID after sinceSeq. limit
// keeps the newest entries; 0 means no limit.
func (r *Reconstructor) GenerateRecap(ctx context.Context, gameID string, sinceSeq int64, limit int) (*Recap, error) {
	history, err := r.repo.GetSince(ctx, gameID, sinceSeq)
	if err != nil {
		return nil, fmt.Errorf("failed to read notifications: %w", err)
	}

	recap := &Recap{LastSeq: sinceSeq}
	now := r.now()
	for _, n := range history {
		recap.LastSeq = n.Seq
		switch n.Type {
		case events.TypeSound:
			switch n.Cue {
			case "death":
				recap.Deaths++
			case "boss_death":
				recap.BossKills++
			case "raid_alarm":
				recap.Raids++
			}
			continue
		case events.TypeLog:
		default:
			continue
		}
		recap.Entries = append(recap.Entries, RecapEntry{
			Seq:     n.Seq,
			When:    humanize.RelTime(n.Timestamp, now, "ago", "from now"),
			Summary: strings.TrimSpace(n.Message),
			Impact:  impactOf(n.Color),
		})
	}

	if limit > 0 && len(recap.Entries) > limit {
		recap.Entries = recap.Entries[len(recap.Entries)-limit:]
	}
	return recap, nil
}

// impactOf classifies a LOG entry by its colour hint.
func impactOf(color string) string {
	switch color {
	case events.ColorSuccess:
		return ImpactPositive
	case events.ColorDanger, events.ColorWarning:
		return ImpactNegative
	default:
		return ImpactNeutral
	}
}
