package provider

import (
	"fmt"

	"pgs-go/internal/config"
	"pgs-go/internal/pgs"
)

// NewProviderFromConfig creates a PhotoSource based on the provider config type.
func NewProviderFromConfig(cfg config.ProviderConfig, logger pgs.Logger) (pgs.PhotoSource, error) {
	switch cfg.Type {
	case "folder":
		if cfg.Root == "" {
			return nil, fmt.Errorf("folder provider requires root to be set")
		}
		return NewFolderProvider(cfg.Root, logger)
	default:
		return nil, fmt.Errorf("unknown provider type: %q", cfg.Type)
	}
}
