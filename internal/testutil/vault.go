package testutil

import (
	"pgs-go/internal/pgs"
	"pgs-go/internal/vault"
)

// NewTestVault creates a new in-memory vault for testing.
func NewTestVault() pgs.Vault {
	return vault.NewMemoryVault()
}
