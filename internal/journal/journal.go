package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/aurora-obs/aurora-core/internal/indi"
	"github.com/aurora-obs/aurora-core/internal/infrastructure/config"
)

// Journal configuration constants.
const (
	// dirPermissions is the permission mode for the database directory.
	dirPermissions = 0750

	// filePermissions is the permission mode for the database file.
	filePermissions = 0600

	// msPerSecond converts seconds to milliseconds.
	msPerSecond = 1000

	// connectionTimeout is the timeout for verifying database connectivity.
	connectionTimeout = 5 * time.Second

	// defaultRecentLimit bounds Recent when the caller passes no limit.
	defaultRecentLimit = 50

	// maxRecentLimit is the hard cap on entries returned by Recent.
	maxRecentLimit = 500
)

// schema creates the notifications table on first open.
// UID is unique: re-appending a note already journalled is a no-op,
// which makes replaying the client's in-memory buffer after a restart safe.
const schema = `
CREATE TABLE IF NOT EXISTS notifications (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    uid        TEXT NOT NULL UNIQUE,
    device     TEXT NOT NULL,
    timestamp  TEXT NOT NULL,
    message    TEXT NOT NULL,
    created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
);
CREATE INDEX IF NOT EXISTS idx_notifications_device ON notifications(device);
CREATE INDEX IF NOT EXISTS idx_notifications_created ON notifications(created_at);
`

// Journal is a SQLite-backed store for driver notifications.
type Journal struct {
	db   *sql.DB
	path string
}

// Open creates a new journal backed by the configured SQLite file.
//
// It performs the following setup:
//  1. Creates the database directory if it doesn't exist
//  2. Opens the database file (creates if not present)
//  3. Configures WAL mode and busy timeout
//  4. Creates the notifications schema if missing
//  5. Verifies the connection with a ping
//
// Parameters:
//   - cfg: Journal configuration from config.yaml
//
// Returns:
//   - *Journal: Open journal ready for use
//   - error: If the journal is disabled or setup fails
func Open(cfg config.JournalConfig) (*Journal, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}

	// Ensure directory exists
	dir := filepath.Dir(cfg.Path)
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return nil, fmt.Errorf("creating journal directory: %w", err)
	}

	busyTimeout := cfg.BusyTimeout
	if busyTimeout <= 0 {
		busyTimeout = 5
	}

	// Build connection string with pragmas
	// See: https://github.com/mattn/go-sqlite3#connection-string
	connStr := fmt.Sprintf("file:%s?_busy_timeout=%d&_journal_mode=WAL&_synchronous=NORMAL",
		cfg.Path,
		busyTimeout*msPerSecond,
	)

	sqlDB, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening journal database: %w", err)
	}

	// SQLite works best with a single writer
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	j := &Journal{
		db:   sqlDB,
		path: cfg.Path,
	}

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("verifying journal connection: %w", err)
	}

	if _, err := sqlDB.ExecContext(ctx, schema); err != nil {
		sqlDB.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("creating journal schema: %w", err)
	}

	// Set file permissions (owner read/write only)
	_ = os.Chmod(cfg.Path, filePermissions) //nolint:errcheck // Intentional: first run creates file later

	return j, nil
}

// Close closes the journal database.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	if err := j.db.Close(); err != nil {
		return fmt.Errorf("closing journal: %w", err)
	}
	return nil
}

// Path returns the filesystem path to the journal database file.
func (j *Journal) Path() string {
	return j.path
}

// Append persists a notification.
//
// Appending a notification whose UID is already journalled is a no-op,
// so callers may replay overlapping batches without duplicating rows.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - note: Notification to persist
//
// Returns:
//   - error: nil on success, otherwise the underlying database error
func (j *Journal) Append(ctx context.Context, note indi.Notification) error {
	if note.UID == "" {
		return fmt.Errorf("notification uid is required")
	}

	_, err := j.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO notifications (uid, device, timestamp, message) VALUES (?, ?, ?, ?)",
		note.UID,
		note.Device,
		note.Timestamp,
		note.Message,
	)
	if err != nil {
		return fmt.Errorf("inserting notification: %w", err)
	}

	return nil
}

// Recent returns the most recent notifications, newest first.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - limit: Maximum entries to return (default 50, max 500)
//
// Returns:
//   - []indi.Notification: Entries ordered by insertion, newest first
//   - error: nil on success, otherwise the underlying query error
func (j *Journal) Recent(ctx context.Context, limit int) ([]indi.Notification, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}

	rows, err := j.db.QueryContext(ctx,
		`SELECT uid, device, timestamp, message
		 FROM notifications
		 ORDER BY id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying notifications: %w", err)
	}
	defer rows.Close()

	notes := make([]indi.Notification, 0, limit)
	for rows.Next() {
		var note indi.Notification
		if err := rows.Scan(&note.UID, &note.Device, &note.Timestamp, &note.Message); err != nil {
			return nil, fmt.Errorf("scanning notification: %w", err)
		}
		notes = append(notes, note)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating notifications: %w", err)
	}

	return notes, nil
}

// Prune deletes notifications older than the given duration.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - olderThan: Duration to retain (entries older than now-olderThan are deleted)
//
// Returns:
//   - int64: Number of rows deleted
//   - error: nil on success, otherwise the underlying database error
func (j *Journal) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, fmt.Errorf("olderThan must be positive")
	}

	cutoff := time.Now().UTC().Add(-olderThan).Format("2006-01-02T15:04:05Z")
	result, err := j.db.ExecContext(ctx,
		"DELETE FROM notifications WHERE created_at < ?",
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("deleting notifications: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}

	return rowsAffected, nil
}

// HealthCheck verifies the journal database is accessible.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
func (j *Journal) HealthCheck(ctx context.Context) error {
	var result int
	if err := j.db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("journal health check failed: %w", err)
	}
	return nil
}
