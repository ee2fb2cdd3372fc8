package model

import "time"

// SyncedEntry is one row of the sync ledger: a (photo, album) pair that has
// been exported, with the checksum of the source file at export time. At
// most one entry exists per pair; re-syncs overwrite in place.
type SyncedEntry struct {
	PhotoUUID  string
	AlbumName  string
	Category   string
	OutputPath string    // relative to the output base
	Checksum   string    // hex SHA-256 of the source file at export time
	SyncedAt   time.Time // UTC time of the last sync, not the first
}

// Audit actions. One audit entry is written per state-mutating operation,
// in the same transaction as the mutation it describes.
const (
	AuditActionSync   = "sync"
	AuditActionRemove = "remove"
)

// AuditEntry is one row of the append-only audit trail. Entries are never
// updated or deleted.
type AuditEntry struct {
	ID        int64
	Timestamp time.Time
	Action    string // AuditActionSync or AuditActionRemove
	Detail    string
}
