package vault

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"pgs-go/internal/pgs"
)

// MemoryVault keeps snapshots in process memory. It exists for tests and
// for dry-run experiments where nothing should touch disk or the network.
type MemoryVault struct {
	mu        sync.Mutex
	snapshots map[string][]byte
	versions  map[string]int64
}

var _ pgs.Vault = (*MemoryVault)(nil)

func NewMemoryVault() *MemoryVault {
	return &MemoryVault{
		snapshots: make(map[string][]byte),
		versions:  make(map[string]int64),
	}
}

func (v *MemoryVault) PutSnapshot(hostID string, r io.Reader, size int64, version int64) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read snapshot data: %w", err)
	}
	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.snapshots[hostID] = data
	v.versions[hostID] = version
	return nil
}

func (v *MemoryVault) GetSnapshot(hostID string, w io.Writer) error {
	v.mu.Lock()
	data, ok := v.snapshots[hostID]
	v.mu.Unlock()

	if !ok {
		return fmt.Errorf("snapshot not found for host: %s", hostID)
	}
	_, err := io.Copy(w, bytes.NewReader(data))
	return err
}

func (v *MemoryVault) SnapshotVersion(hostID string) (int64, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.versions[hostID], nil
}

func (v *MemoryVault) ValidateSetup() error {
	return nil
}
