package state

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"pgs-go/internal/model"
	"pgs-go/internal/pgs"
	"pgs-go/internal/state/migrations"
)

// stubClock returns a settable fixed time.
type stubClock struct {
	now time.Time
}

func (c *stubClock) Now() time.Time { return c.now }

func newTestState(t *testing.T, clock pgs.Clock) *SQLiteState {
	t.Helper()

	db, err := OpenConnection(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	db.SetMaxOpenConns(1)

	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		t.Fatalf("failed to apply migrations: %v", err)
	}

	s := NewFromDB(db, clock)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteState_RecordSync(t *testing.T) {
	t.Run("records a new entry", func(t *testing.T) {
		s := newTestState(t, pgs.RealClock{})

		if err := s.RecordSync("u1", "Album A", "eagles", "eagles/a/1.jpg", "abc"); err != nil {
			t.Fatalf("RecordSync: %v", err)
		}

		synced, err := s.IsSynced("u1", "Album A")
		if err != nil {
			t.Fatal(err)
		}
		if !synced {
			t.Error("expected entry to exist")
		}

		checksum, ok, err := s.GetChecksum("u1", "Album A")
		if err != nil || !ok {
			t.Fatalf("GetChecksum: ok=%v err=%v", ok, err)
		}
		if checksum != "abc" {
			t.Errorf("checksum = %q, want abc", checksum)
		}
	})

	t.Run("re-recording upserts instead of duplicating", func(t *testing.T) {
		clock := &stubClock{now: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
		s := newTestState(t, clock)

		if err := s.RecordSync("u1", "Album A", "eagles", "eagles/a/1.jpg", "abc"); err != nil {
			t.Fatal(err)
		}

		clock.now = clock.now.Add(time.Hour)
		if err := s.RecordSync("u1", "Album A", "family", "family/a/1.jpg", "def"); err != nil {
			t.Fatal(err)
		}

		count, err := s.Count()
		if err != nil {
			t.Fatal(err)
		}
		if count != 1 {
			t.Fatalf("count = %d, want 1", count)
		}

		entries, err := s.AllRecords()
		if err != nil {
			t.Fatal(err)
		}
		e := entries[0]
		if e.Category != "family" || e.OutputPath != "family/a/1.jpg" || e.Checksum != "def" {
			t.Errorf("entry not overwritten: %+v", e)
		}
		if !e.SyncedAt.Equal(clock.now) {
			t.Errorf("synced_at = %v, want last-sync time %v", e.SyncedAt, clock.now)
		}
	})

	t.Run("same photo in two albums is two entries", func(t *testing.T) {
		s := newTestState(t, pgs.RealClock{})

		if err := s.RecordSync("u1", "Album A", "eagles", "eagles/a/1.jpg", "abc"); err != nil {
			t.Fatal(err)
		}
		if err := s.RecordSync("u1", "Album B", "family", "family/b/1.jpg", "abc"); err != nil {
			t.Fatal(err)
		}

		count, err := s.Count()
		if err != nil {
			t.Fatal(err)
		}
		if count != 2 {
			t.Errorf("count = %d, want 2", count)
		}
	})

	t.Run("appends one audit entry per mutation", func(t *testing.T) {
		s := newTestState(t, pgs.RealClock{})

		s.RecordSync("u1", "Album A", "eagles", "eagles/a/1.jpg", "abc")
		s.RecordSync("u1", "Album A", "eagles", "eagles/a/1.jpg", "def")
		s.RemoveRecord("u1", "Album A")

		trail, err := s.AuditTrail(0)
		if err != nil {
			t.Fatal(err)
		}
		if len(trail) != 3 {
			t.Fatalf("audit trail has %d entries, want 3", len(trail))
		}
		// Newest first.
		if trail[0].Action != model.AuditActionRemove {
			t.Errorf("newest action = %q, want remove", trail[0].Action)
		}
		if trail[1].Action != model.AuditActionSync || trail[2].Action != model.AuditActionSync {
			t.Error("older actions should both be sync")
		}
	})
}

func TestSQLiteState_RemoveRecord(t *testing.T) {
	t.Run("removes an existing entry", func(t *testing.T) {
		s := newTestState(t, pgs.RealClock{})

		s.RecordSync("u1", "Album A", "eagles", "eagles/a/1.jpg", "abc")
		if err := s.RemoveRecord("u1", "Album A"); err != nil {
			t.Fatal(err)
		}

		synced, err := s.IsSynced("u1", "Album A")
		if err != nil {
			t.Fatal(err)
		}
		if synced {
			t.Error("entry still present after removal")
		}
	})

	t.Run("removing a missing entry is a no-op", func(t *testing.T) {
		s := newTestState(t, pgs.RealClock{})
		if err := s.RemoveRecord("ghost", "Album A"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})
}

func TestSQLiteState_Queries(t *testing.T) {
	t.Run("GetChecksum for missing entry reports not found", func(t *testing.T) {
		s := newTestState(t, pgs.RealClock{})
		_, ok, err := s.GetChecksum("ghost", "Album A")
		if err != nil {
			t.Fatal(err)
		}
		if ok {
			t.Error("expected ok=false for missing entry")
		}
	})

	t.Run("AllRecords orders newest sync first", func(t *testing.T) {
		clock := &stubClock{now: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
		s := newTestState(t, clock)

		s.RecordSync("u1", "Album A", "eagles", "eagles/a/1.jpg", "c1")
		clock.now = clock.now.Add(time.Minute)
		s.RecordSync("u2", "Album A", "eagles", "eagles/a/2.jpg", "c2")

		entries, err := s.AllRecords()
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 2 {
			t.Fatalf("got %d entries", len(entries))
		}
		if entries[0].PhotoUUID != "u2" || entries[1].PhotoUUID != "u1" {
			t.Errorf("wrong order: %s, %s", entries[0].PhotoUUID, entries[1].PhotoUUID)
		}
	})

	t.Run("RecordsByCategory filters", func(t *testing.T) {
		s := newTestState(t, pgs.RealClock{})

		s.RecordSync("u1", "Album A", "eagles", "eagles/a/1.jpg", "c1")
		s.RecordSync("u2", "Album B", "family", "family/b/2.jpg", "c2")

		entries, err := s.RecordsByCategory("eagles")
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 1 || entries[0].PhotoUUID != "u1" {
			t.Errorf("got %+v", entries)
		}
	})

	t.Run("AuditTrail honors the limit", func(t *testing.T) {
		s := newTestState(t, pgs.RealClock{})

		for i := 0; i < 5; i++ {
			s.RecordSync("u1", "Album A", "eagles", "eagles/a/1.jpg", "c")
		}

		trail, err := s.AuditTrail(2)
		if err != nil {
			t.Fatal(err)
		}
		if len(trail) != 2 {
			t.Errorf("got %d entries, want 2", len(trail))
		}
	})

	t.Run("MaxAuditID grows with each mutation", func(t *testing.T) {
		s := newTestState(t, pgs.RealClock{})

		id, err := s.MaxAuditID()
		if err != nil {
			t.Fatal(err)
		}
		if id != 0 {
			t.Errorf("empty trail id = %d, want 0", id)
		}

		s.RecordSync("u1", "Album A", "eagles", "eagles/a/1.jpg", "c")
		s.RemoveRecord("u1", "Album A")

		id, err = s.MaxAuditID()
		if err != nil {
			t.Fatal(err)
		}
		if id != 2 {
			t.Errorf("id = %d, want 2", id)
		}
	})
}

func TestSQLiteState_Open(t *testing.T) {
	t.Run("creates the parent directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "state", "sync.db")
		s, err := Open(path, pgs.RealClock{})
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		defer s.Close()

		if err := s.RecordSync("u1", "Album A", "eagles", "eagles/a/1.jpg", "c"); err != nil {
			t.Fatal(err)
		}
		if _, err := os.Stat(path); err != nil {
			t.Errorf("ledger file missing: %v", err)
		}
	})

	t.Run("reopening preserves entries", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "sync.db")

		s, err := Open(path, pgs.RealClock{})
		if err != nil {
			t.Fatal(err)
		}
		if err := s.RecordSync("u1", "Album A", "eagles", "eagles/a/1.jpg", "c"); err != nil {
			t.Fatal(err)
		}
		s.Close()

		s2, err := Open(path, pgs.RealClock{})
		if err != nil {
			t.Fatal(err)
		}
		defer s2.Close()

		synced, err := s2.IsSynced("u1", "Album A")
		if err != nil {
			t.Fatal(err)
		}
		if !synced {
			t.Error("entry lost across reopen")
		}
	})
}

func TestSQLiteState_SnapshotTo(t *testing.T) {
	s := newTestState(t, pgs.RealClock{})
	s.RecordSync("u1", "Album A", "eagles", "eagles/a/1.jpg", "c")

	dest := filepath.Join(t.TempDir(), "snapshot.db")
	if err := s.SnapshotTo(dest); err != nil {
		t.Fatalf("SnapshotTo: %v", err)
	}

	restored, err := Open(dest, pgs.RealClock{})
	if err != nil {
		t.Fatalf("opening snapshot: %v", err)
	}
	defer restored.Close()

	synced, err := restored.IsSynced("u1", "Album A")
	if err != nil {
		t.Fatal(err)
	}
	if !synced {
		t.Error("snapshot missing entry")
	}
}

func TestSQLiteState_ErrorsAreStateErrors(t *testing.T) {
	s := newTestState(t, pgs.RealClock{})
	s.Close()

	err := s.RecordSync("u1", "Album A", "eagles", "eagles/a/1.jpg", "c")
	if err == nil {
		t.Fatal("expected error on closed ledger")
	}
	var stateErr *pgs.StateError
	if !errors.As(err, &stateErr) {
		t.Errorf("error %T is not a *StateError", err)
	}
}
