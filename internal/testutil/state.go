package testutil

import (
	"testing"

	"pgs-go/internal/pgs"
	"pgs-go/internal/state"
	"pgs-go/internal/state/migrations"
)

// NewTestState creates a new in-memory sync ledger with schema applied.
// The ledger is automatically closed when the test completes.
func NewTestState(t *testing.T) pgs.SyncState {
	t.Helper()
	return NewTestStateWithClock(t, pgs.RealClock{})
}

// NewTestStateWithClock is NewTestState with an explicit clock, for tests
// that assert on recorded timestamps.
func NewTestStateWithClock(t *testing.T, clock pgs.Clock) pgs.SyncState {
	t.Helper()

	db, err := state.OpenConnection(":memory:")
	if err != nil {
		t.Fatalf("failed to open ledger database: %v", err)
	}
	// Each pooled connection would get its own in-memory database.
	db.SetMaxOpenConns(1)

	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		t.Fatalf("failed to apply migrations: %v", err)
	}

	st := state.NewFromDB(db, clock)

	t.Cleanup(func() {
		st.Close()
	})

	return st
}
