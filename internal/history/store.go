package history

import (
	"context"
	"fmt"
	"time"

	"github.com/lockbridge/lockbridge/internal/infrastructure/database"
	"github.com/lockbridge/lockbridge/internal/infrastructure/logging"
)

// writeTimeout bounds each journal insert; a stuck disk must not stall
// the dispatch path for long.
const writeTimeout = 2 * time.Second

// Entry is one journalled message.
type Entry struct {
	ID         int64
	Topic      string
	Payload    []byte
	ReceivedAt time.Time
}

// Store is the SQLite-backed message journal. It implements the session
// manager's Receiver interface.
type Store struct {
	db      *database.DB
	log     *logging.Logger
	maxRows int
}

// New creates a journal over an opened database.
//
// Parameters:
//   - db: Migrated database handle
//   - maxRows: Row cap, <=0 disables pruning
//   - log: Logger for write failures
func New(db *database.DB, maxRows int, log *logging.Logger) *Store {
	return &Store{db: db, log: log, maxRows: maxRows}
}

// OnMQTTMessage records an inbound message. Failures are logged and
// dropped; the journal is diagnostic, not authoritative.
func (s *Store) OnMQTTMessage(topic string, payload []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO mqtt_messages (topic, payload, received_at) VALUES (?, ?, ?)",
		topic, payload, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		s.log.Warn("journalling mqtt message", "topic", topic, "error", err)
		return
	}

	if s.maxRows > 0 {
		if err := s.Prune(ctx); err != nil {
			s.log.Warn("pruning mqtt journal", "error", err)
		}
	}
}

// Recent returns the newest entries, most recent first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, topic, payload, received_at
		FROM mqtt_messages
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying journal: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var receivedAt string
		if err := rows.Scan(&e.ID, &e.Topic, &e.Payload, &receivedAt); err != nil {
			return nil, fmt.Errorf("scanning journal row: %w", err)
		}
		e.ReceivedAt, _ = time.Parse(time.RFC3339Nano, receivedAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Count returns the number of journalled messages.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM mqtt_messages").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting journal rows: %w", err)
	}
	return n, nil
}

// Prune deletes the oldest rows beyond the configured cap.
func (s *Store) Prune(ctx context.Context) error {
	if s.maxRows <= 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM mqtt_messages
		WHERE id NOT IN (
			SELECT id FROM mqtt_messages ORDER BY id DESC LIMIT ?
		)
	`, s.maxRows)
	if err != nil {
		return fmt.Errorf("pruning journal: %w", err)
	}
	return nil
}
