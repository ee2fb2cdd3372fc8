package vault

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pgs-go/internal/pgs"
)

// vaultFactories builds each in-process backend against a fresh root.
var vaultFactories = map[string]func(t *testing.T) pgs.Vault{
	"filesystem": func(t *testing.T) pgs.Vault {
		v, err := NewFileSystemVault("test", t.TempDir())
		if err != nil {
			t.Fatalf("NewFileSystemVault: %v", err)
		}
		return v
	},
	"memory": func(t *testing.T) pgs.Vault {
		return NewMemoryVault()
	},
}

func TestVault_PutGetSnapshot(t *testing.T) {
	for name, newVault := range vaultFactories {
		t.Run(name, func(t *testing.T) {
			v := newVault(t)
			data := []byte("ledger snapshot bytes")

			if err := v.PutSnapshot("host-1", bytes.NewReader(data), int64(len(data)), 7); err != nil {
				t.Fatalf("PutSnapshot: %v", err)
			}

			var out bytes.Buffer
			if err := v.GetSnapshot("host-1", &out); err != nil {
				t.Fatalf("GetSnapshot: %v", err)
			}
			if !bytes.Equal(out.Bytes(), data) {
				t.Errorf("roundtrip mismatch: %q", out.Bytes())
			}

			version, err := v.SnapshotVersion("host-1")
			if err != nil {
				t.Fatalf("SnapshotVersion: %v", err)
			}
			if version != 7 {
				t.Errorf("version = %d, want 7", version)
			}
		})
	}
}

func TestVault_MissingSnapshot(t *testing.T) {
	for name, newVault := range vaultFactories {
		t.Run(name, func(t *testing.T) {
			v := newVault(t)

			var out bytes.Buffer
			if err := v.GetSnapshot("ghost", &out); err == nil {
				t.Error("expected error for missing snapshot")
			}

			version, err := v.SnapshotVersion("ghost")
			if err != nil {
				t.Fatalf("SnapshotVersion: %v", err)
			}
			if version != 0 {
				t.Errorf("version = %d, want 0 for missing snapshot", version)
			}
		})
	}
}

func TestVault_SizeMismatch(t *testing.T) {
	for name, newVault := range vaultFactories {
		t.Run(name, func(t *testing.T) {
			v := newVault(t)
			data := []byte("short")
			err := v.PutSnapshot("host-1", bytes.NewReader(data), int64(len(data))+10, 1)
			if err == nil {
				t.Error("expected size mismatch error")
			}
		})
	}
}

func TestVault_OverwriteBumpsVersion(t *testing.T) {
	for name, newVault := range vaultFactories {
		t.Run(name, func(t *testing.T) {
			v := newVault(t)

			first := []byte("v1")
			second := []byte("v2 with more data")
			if err := v.PutSnapshot("host-1", bytes.NewReader(first), int64(len(first)), 1); err != nil {
				t.Fatal(err)
			}
			if err := v.PutSnapshot("host-1", bytes.NewReader(second), int64(len(second)), 2); err != nil {
				t.Fatal(err)
			}

			var out bytes.Buffer
			if err := v.GetSnapshot("host-1", &out); err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(out.Bytes(), second) {
				t.Errorf("got %q, want the second snapshot", out.Bytes())
			}
			version, _ := v.SnapshotVersion("host-1")
			if version != 2 {
				t.Errorf("version = %d, want 2", version)
			}
		})
	}
}

func TestFileSystemVault_Layout(t *testing.T) {
	root := t.TempDir()
	v, err := NewFileSystemVault("test", root)
	if err != nil {
		t.Fatal(err)
	}

	data := []byte("bytes")
	if err := v.PutSnapshot("host-1", bytes.NewReader(data), int64(len(data)), 3); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(filepath.Join(root, "snapshots", "host-1.db")); err != nil {
		t.Errorf("snapshot file missing: %v", err)
	}
	raw, err := os.ReadFile(filepath.Join(root, "snapshots", "host-1.version"))
	if err != nil {
		t.Fatalf("version file missing: %v", err)
	}
	if strings.TrimSpace(string(raw)) != "3" {
		t.Errorf("version file holds %q, want 3", raw)
	}

	if err := v.ValidateSetup(); err != nil {
		t.Errorf("ValidateSetup: %v", err)
	}

	// No temp files left behind.
	entries, err := os.ReadDir(filepath.Join(root, "snapshots"))
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".tmp-") {
			t.Errorf("leftover temp file %s", e.Name())
		}
	}
}
