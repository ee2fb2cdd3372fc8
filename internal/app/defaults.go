package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - PGS_CONFIG_PATH: config file location (default: ~/.config/pgs.toml)
//   - PGS_HOME: base directory for pgs data (default: ~/.local/share/pgs)
func GetDefaults() (map[string]string, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	baseDir, err := getBaseDir()
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"state_path":  filepath.Join(baseDir, "state", "sync.db"),
		"log_dir":     filepath.Join(baseDir, "log"),
	}, nil
}

// getConfigPath returns the config file path, checking PGS_CONFIG_PATH env var first,
// then falling back to the default ~/.config/pgs.toml.
func getConfigPath() (string, error) {
	if path := os.Getenv("PGS_CONFIG_PATH"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "pgs.toml"), nil
}

// getBaseDir returns the base directory for pgs data, checking PGS_HOME env var first,
// then falling back to the XDG default ~/.local/share/pgs.
func getBaseDir() (string, error) {
	if path := os.Getenv("PGS_HOME"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "pgs"), nil
}
