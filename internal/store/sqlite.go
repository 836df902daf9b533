package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/akhatri/ledger-alerts/internal/model"
)

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	// Check if schema_version table exists.
	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// GetReadIDs returns every notification ID present in the read-mark set.
func (s *SQLiteStore) GetReadIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.SelectContext(ctx, &ids, "SELECT id FROM read_marks")
	if err != nil {
		return nil, fmt.Errorf("querying read marks: %w", err)
	}
	return ids, nil
}

// AddReadMarks records the given IDs as read. Re-marking an existing ID
// keeps its original mark time.
func (s *SQLiteStore) AddReadMarks(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx,
		"INSERT OR IGNORE INTO read_marks (id, marked_at) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("preparing read-mark statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, id := range ids {
		if _, err := stmt.ExecContext(ctx, id, now); err != nil {
			return fmt.Errorf("marking %s as read: %w", id, err)
		}
	}

	return tx.Commit()
}

// PruneReadMarks deletes marks older than the cutoff.
func (s *SQLiteStore) PruneReadMarks(
	ctx context.Context,
	olderThan time.Time,
) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM read_marks WHERE marked_at < ?", olderThan.UTC())
	if err != nil {
		return 0, fmt.Errorf("pruning read marks: %w", err)
	}
	return res.RowsAffected()
}

// SaveSnapshot replaces the stored feed with the given list. Position
// encodes list order so LoadSnapshot restores it exactly.
func (s *SQLiteStore) SaveSnapshot(
	ctx context.Context,
	items []model.Notification,
) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM feed_snapshot"); err != nil {
		return fmt.Errorf("clearing feed snapshot: %w", err)
	}

	const query = `
		INSERT INTO feed_snapshot (
			position, id, type, title, message,
			timestamp, read, action_url, action_text, metadata
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return fmt.Errorf("preparing snapshot statement: %w", err)
	}
	defer stmt.Close()

	for i, n := range items {
		metadata, err := json.Marshal(n.Metadata)
		if err != nil {
			return fmt.Errorf("marshaling metadata for %s: %w", n.ID, err)
		}

		_, err = stmt.ExecContext(ctx,
			i, n.ID, string(n.Type), n.Title, n.Message,
			n.Timestamp.UTC(), boolToInt(n.Read),
			n.ActionURL, n.ActionText, string(metadata),
		)
		if err != nil {
			return fmt.Errorf("saving snapshot entry %s: %w", n.ID, err)
		}
	}

	return tx.Commit()
}

// LoadSnapshot returns the stored feed in its saved order.
func (s *SQLiteStore) LoadSnapshot(
	ctx context.Context,
) ([]model.Notification, error) {
	rows, err := s.db.QueryxContext(ctx,
		`SELECT id, type, title, message, timestamp, read,
			action_url, action_text, metadata
		FROM feed_snapshot ORDER BY position`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying feed snapshot: %w", err)
	}
	defer rows.Close()

	var items []model.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, n)
	}

	return items, rows.Err()
}

// scanNotification scans a snapshot row from a sqlx.Rows result set.
func scanNotification(rows *sqlx.Rows) (model.Notification, error) {
	var (
		n         model.Notification
		notifType string
		readInt   int
		timestamp time.Time
		metadata  string
	)

	err := rows.Scan(
		&n.ID, &notifType, &n.Title, &n.Message, &timestamp,
		&readInt, &n.ActionURL, &n.ActionText, &metadata,
	)
	if err != nil {
		return model.Notification{}, fmt.Errorf("scanning snapshot row: %w", err)
	}

	n.Type = model.NotificationType(notifType)
	n.Read = readInt != 0
	n.Timestamp = timestamp

	if metadata != "" && metadata != "{}" && metadata != "null" {
		if err := json.Unmarshal([]byte(metadata), &n.Metadata); err != nil {
			return model.Notification{}, fmt.Errorf("unmarshaling metadata: %w", err)
		}
	}

	return n, nil
}

// boolToInt converts a boolean to 0 or 1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
