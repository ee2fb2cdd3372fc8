package app

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetDefaults(t *testing.T) {
	t.Run("uses env vars when set", func(t *testing.T) {
		t.Setenv("PGS_CONFIG_PATH", "/custom/config.toml")
		t.Setenv("PGS_HOME", "/custom/pgs")

		defaults, err := GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults() error = %v", err)
		}

		if defaults["config_path"] != "/custom/config.toml" {
			t.Errorf("config_path = %q, want %q", defaults["config_path"], "/custom/config.toml")
		}
		if defaults["base_dir"] != "/custom/pgs" {
			t.Errorf("base_dir = %q, want %q", defaults["base_dir"], "/custom/pgs")
		}
		if defaults["state_path"] != "/custom/pgs/state/sync.db" {
			t.Errorf("state_path = %q, want %q", defaults["state_path"], "/custom/pgs/state/sync.db")
		}
		if defaults["log_dir"] != "/custom/pgs/log" {
			t.Errorf("log_dir = %q, want %q", defaults["log_dir"], "/custom/pgs/log")
		}
	})

	t.Run("falls back to home dir defaults", func(t *testing.T) {
		t.Setenv("PGS_CONFIG_PATH", "")
		t.Setenv("PGS_HOME", "")

		defaults, err := GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults() error = %v", err)
		}

		homeDir, _ := os.UserHomeDir()

		wantConfig := filepath.Join(homeDir, ".config", "pgs.toml")
		if defaults["config_path"] != wantConfig {
			t.Errorf("config_path = %q, want %q", defaults["config_path"], wantConfig)
		}

		wantBase := filepath.Join(homeDir, ".local", "share", "pgs")
		if defaults["base_dir"] != wantBase {
			t.Errorf("base_dir = %q, want %q", defaults["base_dir"], wantBase)
		}

		wantState := filepath.Join(wantBase, "state", "sync.db")
		if defaults["state_path"] != wantState {
			t.Errorf("state_path = %q, want %q", defaults["state_path"], wantState)
		}
	})
}
