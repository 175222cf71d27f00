// Package storage persists save slots and the notification history.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/MRamiBalles/DrillCore/internal/domain/drill"
	"github.com/MRamiBalles/DrillCore/internal/events"
)

// ErrNotFound is returned when a game has no save slot.
var ErrNotFound = errors.New("storage: not found")

// SaveInfo describes a stored slot without decoding the state blob.
type SaveInfo struct {
	GameID      string    `json:"game_id"`
	Tick        int64     `json:"tick"`
	Depth       float64   `json:"depth"`
	LastUpdated time.Time `json:"last_updated"`
}

// SaveRepository stores one state snapshot per game.
type SaveRepository interface {
	// Save overwrites the slot for gameID.
	Save(ctx context.Context, gameID string, s *drill.GameState) error

	// Load returns the stored state or ErrNotFound.
	Load(ctx context.Context, gameID string) (*drill.GameState, error)

	// Info returns slot metadata or ErrNotFound.
	Info(ctx context.Context, gameID string) (SaveInfo, error)
}

// NotificationRepository is the durable notification history.
type NotificationRepository interface {
	Append(ctx context.Context, gameID string, n events.Notification) error

	// GetByGameID returns the whole history in sequence order.
	GetByGameID(ctx context.Context, gameID string) ([]events.Notification, error)

	// GetSince returns entries with seq greater than the given one.
	GetSince(ctx context.Context, gameID string, seq int64) ([]events.Notification, error)

	// GetByType returns all entries of one type.
	GetByType(ctx context.Context, gameID string, t events.Type) ([]events.Notification, error)
}
