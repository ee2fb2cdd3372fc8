package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"pgs-go/internal/model"
	"pgs-go/internal/pgs"
	"pgs-go/internal/state/migrations"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteState implements the pgs.SyncState interface using SQLite.
// Each mutation runs its entry write and audit append in one transaction,
// so a failed mutation leaves the ledger unchanged.
type SQLiteState struct {
	db    *sql.DB
	path  string
	clock pgs.Clock
}

var _ pgs.SyncState = (*SQLiteState)(nil)

// Open creates the parent directory if needed, opens the ledger at path
// (or ":memory:"), and applies any pending migrations. The caller must
// Close the returned state on all exit paths.
func Open(path string, clock pgs.Clock) (*SQLiteState, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, &pgs.StateError{Op: "open", Err: err}
		}
	}

	db, err := OpenConnection(path)
	if err != nil {
		return nil, &pgs.StateError{Op: "open", Err: err}
	}

	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, &pgs.StateError{Op: "migrate", Err: err}
	}

	return &SQLiteState{db: db, path: path, clock: clock}, nil
}

// NewFromDB wraps an existing connection. The caller is responsible for the
// schema being in place; used by tests.
func NewFromDB(db *sql.DB, clock pgs.Clock) *SQLiteState {
	return &SQLiteState{db: db, clock: clock}
}

// OpenConnection opens and configures a SQLite connection with the PRAGMAs
// the ledger relies on. path can be a file path or ":memory:".
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign key constraints (SQLite default is OFF for backward compatibility)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

// IsSynced reports whether an entry exists for the (photo, album) pair.
func (s *SQLiteState) IsSynced(photoUUID, albumName string) (bool, error) {
	var one int
	err := s.db.QueryRow(
		"SELECT 1 FROM synced_photos WHERE photo_uuid = ? AND album_name = ?",
		photoUUID, albumName,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, &pgs.StateError{Op: "checking sync status", Err: err}
	}
	return true, nil
}

// GetChecksum returns the stored checksum for the pair, with ok=false when
// no entry exists.
func (s *SQLiteState) GetChecksum(photoUUID, albumName string) (string, bool, error) {
	var checksum string
	err := s.db.QueryRow(
		"SELECT checksum FROM synced_photos WHERE photo_uuid = ? AND album_name = ?",
		photoUUID, albumName,
	).Scan(&checksum)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, &pgs.StateError{Op: "reading checksum", Err: err}
	}
	return checksum, true, nil
}

// RecordSync upserts the entry and appends a "sync" audit row atomically.
// On conflict the existing row's category, output path, checksum and
// synced-at time are overwritten; the original synced-at is lost, which is
// intentional — the ledger reflects last-sync time.
func (s *SQLiteState) RecordSync(photoUUID, albumName, category, outputPath, checksum string) error {
	now := s.clock.Now().UTC()

	ctx := context.Background()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &pgs.StateError{Op: "record sync", Err: err}
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO synced_photos
			(photo_uuid, album_name, category, output_path, checksum, synced_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(photo_uuid, album_name) DO UPDATE SET
			category = excluded.category,
			output_path = excluded.output_path,
			checksum = excluded.checksum,
			synced_at = excluded.synced_at`,
		photoUUID, albumName, category, outputPath, checksum, now,
	)
	if err != nil {
		return &pgs.StateError{Op: "record sync", Err: err}
	}

	_, err = tx.Exec(
		"INSERT INTO audit_log (timestamp, action, detail) VALUES (?, ?, ?)",
		now, model.AuditActionSync, fmt.Sprintf("%s -> %s", photoUUID, outputPath),
	)
	if err != nil {
		return &pgs.StateError{Op: "record sync audit", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return &pgs.StateError{Op: "record sync", Err: err}
	}
	return nil
}

// RemoveRecord deletes the entry (no-op if absent) and appends a "remove"
// audit row atomically.
func (s *SQLiteState) RemoveRecord(photoUUID, albumName string) error {
	now := s.clock.Now().UTC()

	ctx := context.Background()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &pgs.StateError{Op: "remove record", Err: err}
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		"DELETE FROM synced_photos WHERE photo_uuid = ? AND album_name = ?",
		photoUUID, albumName,
	)
	if err != nil {
		return &pgs.StateError{Op: "remove record", Err: err}
	}

	_, err = tx.Exec(
		"INSERT INTO audit_log (timestamp, action, detail) VALUES (?, ?, ?)",
		now, model.AuditActionRemove, fmt.Sprintf("%s from %s", photoUUID, albumName),
	)
	if err != nil {
		return &pgs.StateError{Op: "remove record audit", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return &pgs.StateError{Op: "remove record", Err: err}
	}
	return nil
}

// AllRecords returns every ledger entry, newest sync first.
func (s *SQLiteState) AllRecords() ([]*model.SyncedEntry, error) {
	return s.queryEntries(
		"SELECT photo_uuid, album_name, category, output_path, checksum, synced_at FROM synced_photos ORDER BY synced_at DESC, photo_uuid",
	)
}

// RecordsByCategory returns entries for one category, newest sync first.
func (s *SQLiteState) RecordsByCategory(category string) ([]*model.SyncedEntry, error) {
	return s.queryEntries(
		"SELECT photo_uuid, album_name, category, output_path, checksum, synced_at FROM synced_photos WHERE category = ? ORDER BY synced_at DESC, photo_uuid",
		category,
	)
}

func (s *SQLiteState) queryEntries(query string, args ...any) ([]*model.SyncedEntry, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, &pgs.StateError{Op: "listing entries", Err: err}
	}
	defer rows.Close()

	var entries []*model.SyncedEntry
	for rows.Next() {
		e := &model.SyncedEntry{}
		if err := rows.Scan(&e.PhotoUUID, &e.AlbumName, &e.Category, &e.OutputPath, &e.Checksum, &e.SyncedAt); err != nil {
			return nil, &pgs.StateError{Op: "scanning entry", Err: err}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, &pgs.StateError{Op: "listing entries", Err: err}
	}
	return entries, nil
}

// AuditTrail returns up to limit audit entries, newest first.
// limit <= 0 returns the full trail.
func (s *SQLiteState) AuditTrail(limit int) ([]*model.AuditEntry, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := s.db.Query(
		"SELECT id, timestamp, action, detail FROM audit_log ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, &pgs.StateError{Op: "listing audit trail", Err: err}
	}
	defer rows.Close()

	var entries []*model.AuditEntry
	for rows.Next() {
		e := &model.AuditEntry{}
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Action, &e.Detail); err != nil {
			return nil, &pgs.StateError{Op: "scanning audit entry", Err: err}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, &pgs.StateError{Op: "listing audit trail", Err: err}
	}
	return entries, nil
}

// Count returns the total number of ledger entries.
func (s *SQLiteState) Count() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM synced_photos").Scan(&n); err != nil {
		return 0, &pgs.StateError{Op: "counting entries", Err: err}
	}
	return n, nil
}

// MaxAuditID returns the highest audit entry id, or 0 for an empty trail.
func (s *SQLiteState) MaxAuditID() (int64, error) {
	var id int64
	if err := s.db.QueryRow("SELECT COALESCE(MAX(id), 0) FROM audit_log").Scan(&id); err != nil {
		return 0, &pgs.StateError{Op: "reading max audit id", Err: err}
	}
	return id, nil
}

// SnapshotTo writes a consistent copy of the ledger to destPath using
// VACUUM INTO.
func (s *SQLiteState) SnapshotTo(destPath string) error {
	if _, err := s.db.Exec("VACUUM INTO ?", destPath); err != nil {
		return &pgs.StateError{Op: "snapshotting", Err: err}
	}
	return nil
}

// Path returns the ledger file path (or ":memory:").
func (s *SQLiteState) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *SQLiteState) Close() error {
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			return &pgs.StateError{Op: "closing", Err: err}
		}
	}
	return nil
}
