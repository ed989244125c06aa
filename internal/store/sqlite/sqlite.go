package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/vovakirdan/chatscope-server/internal/model"
	"github.com/vovakirdan/chatscope-server/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS entity_mentions (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	value        TEXT NOT NULL,
	occurrences  INTEGER NOT NULL,
	mentioned_at DATETIME NOT NULL,
	room_id      TEXT NOT NULL,
	user_id      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_entity_mentions_time ON entity_mentions(mentioned_at);

CREATE TABLE IF NOT EXISTS message_summaries (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id       TEXT NOT NULL,
	room_id       TEXT NOT NULL,
	message_at    DATETIME NOT NULL,
	message_type  TEXT NOT NULL,
	message_count INTEGER NOT NULL DEFAULT 1
);
CREATE INDEX IF NOT EXISTS idx_message_summaries_time ON message_summaries(message_at);
`

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLite store and applies the schema.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// NewWithSetup creates a new SQLite store and runs a setup function instead
// of the default schema. Useful for tests.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveMention persists one entity mention record.
func (s *SQLiteStore) SaveMention(ctx context.Context, m store.MentionRecord) error {
	query := `
		INSERT INTO entity_mentions (value, occurrences, mentioned_at, room_id, user_id)
		VALUES (?, ?, ?, ?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query, m.Value, m.Occurrences, m.MentionedAt.UTC(), m.RoomID, m.UserID); err != nil {
		return fmt.Errorf("insert mention: %w", err)
	}
	return nil
}

// SaveMessageSummary persists one message summary record.
func (s *SQLiteStore) SaveMessageSummary(ctx context.Context, sum store.MessageSummary) error {
	count := sum.Count
	if count == 0 {
		count = 1
	}
	query := `
		INSERT INTO message_summaries (user_id, room_id, message_at, message_type, message_count)
		VALUES (?, ?, ?, ?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query, sum.UserID, sum.RoomID, sum.MessageAt.UTC(), string(sum.Type), count); err != nil {
		return fmt.Errorf("insert message summary: %w", err)
	}
	return nil
}

// CountMessageSummaries counts summaries in [start, end). Empty filter
// values match everything.
func (s *SQLiteStore) CountMessageSummaries(ctx context.Context, start, end time.Time, userID, roomID string, msgType model.MessageType) (int, error) {
	query := `
		SELECT COALESCE(SUM(message_count), 0)
		FROM message_summaries
		WHERE message_at >= ? AND message_at < ?
	`
	args := []any{start.UTC(), end.UTC()}

	if userID != "" {
		query += " AND user_id = ?"
		args = append(args, userID)
	}
	if roomID != "" {
		query += " AND room_id = ?"
		args = append(args, roomID)
	}
	if msgType != "" {
		query += " AND message_type = ?"
		args = append(args, string(msgType))
	}

	var total int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count message summaries: %w", err)
	}
	return total, nil
}

// TopMentions returns the highest aggregated mention totals in [start, end).
func (s *SQLiteStore) TopMentions(ctx context.Context, start, end time.Time, limit int) ([]store.MentionTotal, error) {
	query := `
		SELECT value, SUM(occurrences) AS total
		FROM entity_mentions
		WHERE mentioned_at >= ? AND mentioned_at < ?
		GROUP BY value
		ORDER BY total DESC, value ASC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, start.UTC(), end.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("query top mentions: %w", err)
	}
	defer rows.Close()

	var totals []store.MentionTotal
	for rows.Next() {
		var mt store.MentionTotal
		if err := rows.Scan(&mt.Value, &mt.Total); err != nil {
			return nil, fmt.Errorf("scan mention total: %w", err)
		}
		totals = append(totals, mt)
	}
	return totals, rows.Err()
}
