package encryption

import (
	"fmt"

	"pgs-go/internal/config"
	"pgs-go/internal/pgs"
)

// NewEncryptorFromConfig creates an Encryptor based on the configuration
// type. Returns nil (and no error) when encryption is disabled.
func NewEncryptorFromConfig(cfg config.EncryptionConfig) (pgs.Encryptor, error) {
	switch cfg.Type {
	case "", "none":
		return nil, nil
	case "age":
		return NewAgeEncryptor(cfg), nil
	case "test":
		return NewTestEncryptor(), nil
	default:
		return nil, fmt.Errorf("unknown encryption type: %q", cfg.Type)
	}
}
