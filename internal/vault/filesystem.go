package vault

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"pgs-go/internal/pgs"
)

// FileSystemVault is a filesystem-based implementation of the Vault
// interface. It stores ledger snapshots in a flat directory:
//
//	<root>/
//	  snapshots/
//	    <hostID>.db       (snapshot files)
//	    <hostID>.version  (version markers)
type FileSystemVault struct {
	name         string
	root         string
	snapshotsDir string
}

var _ pgs.Vault = (*FileSystemVault)(nil)

// NewFileSystemVault creates a new filesystem vault rooted at the given path.
func NewFileSystemVault(name, root string) (*FileSystemVault, error) {
	snapshotsDir := filepath.Join(root, "snapshots")
	if err := os.MkdirAll(snapshotsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create snapshots directory: %w", err)
	}

	return &FileSystemVault{
		name:         name,
		root:         root,
		snapshotsDir: snapshotsDir,
	}, nil
}

// PutSnapshot stores a ledger snapshot and its version marker.
func (v *FileSystemVault) PutSnapshot(hostID string, r io.Reader, size int64, version int64) error {
	destPath := filepath.Join(v.snapshotsDir, hostID+".db")
	if err := v.writeFile(destPath, r, size); err != nil {
		return err
	}

	versionPath := filepath.Join(v.snapshotsDir, hostID+".version")
	return os.WriteFile(versionPath, []byte(strconv.FormatInt(version, 10)), 0644)
}

// GetSnapshot retrieves the latest snapshot for a host and writes it to w.
func (v *FileSystemVault) GetSnapshot(hostID string, w io.Writer) error {
	srcPath := filepath.Join(v.snapshotsDir, hostID+".db")
	f, err := os.Open(srcPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("snapshot not found for host: %s", hostID)
		}
		return fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}
	return nil
}

// SnapshotVersion returns the stored snapshot version for a host.
// Returns 0 if no version file exists.
func (v *FileSystemVault) SnapshotVersion(hostID string) (int64, error) {
	versionPath := filepath.Join(v.snapshotsDir, hostID+".version")
	data, err := os.ReadFile(versionPath)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading version file: %w", err)
	}

	version, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing version: %w", err)
	}
	return version, nil
}

// ValidateSetup verifies that the vault directories are accessible.
func (v *FileSystemVault) ValidateSetup() error {
	for _, dir := range []string{v.root, v.snapshotsDir} {
		info, err := os.Stat(dir)
		if err != nil {
			return fmt.Errorf("vault directory not accessible: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("vault path is not a directory: %s", dir)
		}
	}
	return nil
}

// writeFile writes data from r to the specified path using atomic write (temp file + rename).
func (v *FileSystemVault) writeFile(destPath string, r io.Reader, expectedSize int64) error {
	dir := filepath.Dir(destPath)
	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmpFile, r)
	if err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if written != expectedSize {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", expectedSize, written)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}
