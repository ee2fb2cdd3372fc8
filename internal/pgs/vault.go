package pgs

import "io"

// Vault stores off-machine snapshots of the sync ledger. All operations use
// io.Reader/io.Writer for streaming.
type Vault interface {
	// PutSnapshot stores a ledger snapshot for a host. size is the number
	// of bytes that will be read from r. version is stored alongside the
	// snapshot for staleness checks.
	PutSnapshot(hostID string, r io.Reader, size int64, version int64) error

	// GetSnapshot retrieves the latest snapshot for a host and writes it to w.
	GetSnapshot(hostID string, w io.Writer) error

	// SnapshotVersion returns the stored snapshot version for a host, or 0
	// if no snapshot has been stored.
	SnapshotVersion(hostID string) (int64, error)

	// ValidateSetup verifies the vault is accessible and properly configured.
	ValidateSetup() error
}
