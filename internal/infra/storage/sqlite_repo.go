package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/MRamiBalles/DrillCore/internal/domain/drill"
	"github.com/MRamiBalles/DrillCore/internal/events"
)

// SQLiteSaveRepository implements SaveRepository with a msgpack state blob.
type SQLiteSaveRepository struct {
	db *sql.DB
}

func NewSQLiteSaveRepository(db *sql.DB) *SQLiteSaveRepository {
	return &SQLiteSaveRepository{db: db}
}

func (r *SQLiteSaveRepository) Save(ctx context.Context, gameID string, s *drill.GameState) error {
	blob, err := msgpack.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	query := `
		INSERT INTO saves (game_id, tick, depth, state, last_updated)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(game_id) DO UPDATE SET
			tick=excluded.tick,
			depth=excluded.depth,
			state=excluded.state,
			last_updated=excluded.last_updated
	`
	if _, err := r.db.ExecContext(ctx, query, gameID, s.TickCount, s.Depth, blob, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to save game %s: %w", gameID, err)
	}
	return nil
}

func (r *SQLiteSaveRepository) Load(ctx context.Context, gameID string) (*drill.GameState, error) {
	var blob []byte
	err := r.db.QueryRowContext(ctx, `SELECT state FROM saves WHERE game_id = ?`, gameID).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load game %s: %w", gameID, err)
	}

	var s drill.GameState
	if err := msgpack.Unmarshal(blob, &s); err != nil {
		return nil, fmt.Errorf("failed to decode state: %w", err)
	}
	return &s, nil
}

func (r *SQLiteSaveRepository) Info(ctx context.Context, gameID string) (SaveInfo, error) {
	info := SaveInfo{GameID: gameID}
	err := r.db.QueryRowContext(ctx,
		`SELECT tick, depth, last_updated FROM saves WHERE game_id = ?`, gameID,
	).Scan(&info.Tick, &info.Depth, &info.LastUpdated)
	if errors.Is(err, sql.ErrNoRows) {
		return SaveInfo{}, ErrNotFound
	}
	if err != nil {
		return SaveInfo{}, fmt.Errorf("failed to read save info: %w", err)
	}
	return info, nil
}

// ---------------------------------------------------------
// SQLiteNotificationRepository
// ---------------------------------------------------------

const notificationColumns = `id, seq, tick, timestamp, type, message, color, value, cue`

// SQLiteNotificationRepository implements NotificationRepository.
type SQLiteNotificationRepository struct {
	db *sql.DB
}

func NewSQLiteNotificationRepository(db *sql.DB) *SQLiteNotificationRepository {
	return &SQLiteNotificationRepository{db: db}
}

func (r *SQLiteNotificationRepository) Append(ctx context.Context, gameID string, n events.Notification) error {
	query := `
		INSERT INTO notifications (id, game_id, seq, tick, timestamp, type, message, color, value, cue)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		n.ID, gameID, n.Seq, n.Tick, n.Timestamp.UTC(), string(n.Type), n.Message, n.Color, n.Value, n.Cue,
	)
	if err != nil {
		return fmt.Errorf("failed to append notification: %w", err)
	}
	return nil
}

func (r *SQLiteNotificationRepository) getMany(ctx context.Context, query string, args ...interface{}) ([]events.Notification, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []events.Notification
	for rows.Next() {
		var n events.Notification
		var typ string
		if err := rows.Scan(&n.ID, &n.Seq, &n.Tick, &n.Timestamp, &typ, &n.Message, &n.Color, &n.Value, &n.Cue); err != nil {
			return nil, err
		}
		n.Type = events.Type(typ)
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *SQLiteNotificationRepository) GetByGameID(ctx context.Context, gameID string) ([]events.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE game_id = ? ORDER BY seq ASC`
	return r.getMany(ctx, query, gameID)
}

func (r *SQLiteNotificationRepository) GetSince(ctx context.Context, gameID string, seq int64) ([]events.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE game_id = ? AND seq > ? ORDER BY seq ASC`
	return r.getMany(ctx, query, gameID, seq)
}

func (r *SQLiteNotificationRepository) GetByType(ctx context.Context, gameID string, t events.Type) ([]events.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE game_id = ? AND type = ? ORDER BY seq ASC`
	return r.getMany(ctx, query, gameID, string(t))
}

// Persister binds the repository to one game so it can back an events.EventLog.
func (r *SQLiteNotificationRepository) Persister(gameID string, timeout time.Duration) events.Persister {
	return &boundPersister{repo: r, gameID: gameID, timeout: timeout}
}

type boundPersister struct {
	repo    *SQLiteNotificationRepository
	gameID  string
	timeout time.Duration
}

func (p *boundPersister) Append(n events.Notification) error {
	ctx := context.Background()
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	return p.repo.Append(ctx, p.gameID, n)
}
