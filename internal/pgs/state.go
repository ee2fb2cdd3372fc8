package pgs

import "pgs-go/internal/model"

// SyncState is the transactional ledger of exported (photo, album) pairs.
// Exactly one handle is open per invocation; callers must Close it on all
// exit paths. All failures surface as *StateError, and a failed mutation
// leaves the ledger unchanged (the entry write and the audit append either
// both happen or neither does).
type SyncState interface {
	// IsSynced reports whether an entry exists for the (photo, album) pair.
	IsSynced(photoUUID, albumName string) (bool, error)

	// GetChecksum returns the stored checksum for the pair. The second
	// return is false if no entry exists.
	GetChecksum(photoUUID, albumName string) (string, bool, error)

	// RecordSync upserts the entry for the pair and appends a "sync" audit
	// entry in the same transaction. An existing entry's category, output
	// path, checksum and synced-at time are overwritten in place; the
	// ledger reflects last-sync time, not first-sync time.
	RecordSync(photoUUID, albumName, category, outputPath, checksum string) error

	// RemoveRecord deletes the entry (a no-op if absent) and appends a
	// "remove" audit entry in the same transaction.
	RemoveRecord(photoUUID, albumName string) error

	// AllRecords returns every entry, ordered by synced-at descending.
	AllRecords() ([]*model.SyncedEntry, error)

	// RecordsByCategory returns entries for one category, ordered by
	// synced-at descending.
	RecordsByCategory(category string) ([]*model.SyncedEntry, error)

	// AuditTrail returns up to limit audit entries, newest first.
	AuditTrail(limit int) ([]*model.AuditEntry, error)

	// Count returns the total number of ledger entries.
	Count() (int, error)

	// MaxAuditID returns the highest audit entry id, or 0 for an empty
	// trail. Used as the monotonically increasing snapshot version.
	MaxAuditID() (int64, error)

	// SnapshotTo writes a consistent copy of the ledger to destPath.
	SnapshotTo(destPath string) error

	// Close releases the underlying store handle.
	Close() error
}
