package vault

import (
	"context"
	"fmt"

	"pgs-go/internal/config"
	"pgs-go/internal/pgs"
)

// NewVaultFromConfig creates a vault from configuration. Returns nil (and
// no error) when no vault is configured.
func NewVaultFromConfig(ctx context.Context, cfg *config.Config) (pgs.Vault, error) {
	switch cfg.Vault.Type {
	case "", "none":
		return nil, nil
	case "filesystem":
		if cfg.Vault.FSVaultRoot == "" {
			return nil, fmt.Errorf("filesystem vault requires fs_vault_root")
		}
		return NewFileSystemVault(cfg.Vault.Name, cfg.Vault.FSVaultRoot)
	case "s3":
		return NewS3Vault(ctx, cfg.Vault.Name, S3Options{
			Bucket:          cfg.Vault.S3Bucket,
			Prefix:          cfg.Vault.S3Prefix,
			Region:          cfg.Vault.S3Region,
			AccessKeyID:     cfg.Vault.S3AccessKeyID,
			SecretAccessKey: cfg.Vault.S3SecretAccessKey,
		})
	case "memory":
		return NewMemoryVault(), nil
	default:
		return nil, fmt.Errorf("unknown vault type: %s", cfg.Vault.Type)
	}
}
