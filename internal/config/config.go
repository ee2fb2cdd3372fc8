package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/BurntSushi/toml"

	"pgs-go/internal/pgs"
)

// Config represents the main configuration for pgs.
type Config struct {
	HostID     string           `toml:"host_id"`
	General    GeneralConfig    `toml:"general"`
	Export     ExportConfig     `toml:"export"`
	Git        GitConfig        `toml:"git"`
	Provider   ProviderConfig   `toml:"provider"`
	Vault      VaultConfig      `toml:"vault"`
	Encryption EncryptionConfig `toml:"encryption"`
	Sync       SyncConfig       `toml:"sync"`
}

// GeneralConfig holds the gallery repo layout settings.
type GeneralConfig struct {
	RepoPath      string   `toml:"repo_path"`
	OutputBase    string   `toml:"output_base"`
	OutputPattern string   `toml:"output_pattern"`
	Categories    []string `toml:"categories"`
}

// ExportConfig holds the image transform parameters.
type ExportConfig struct {
	MaxWidth int    `toml:"max_width"`
	Format   string `toml:"format"`
	Quality  int    `toml:"quality"`
	StripGPS bool   `toml:"strip_gps"`
}

// GitConfig controls the post-sync version-control behavior.
type GitConfig struct {
	AutoCommit    bool   `toml:"auto_commit"`
	AutoPush      bool   `toml:"auto_push"`
	CommitMessage string `toml:"commit_message"`
}

// ProviderConfig selects the photo source.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type ProviderConfig struct {
	Type string `toml:"type"`           // "folder"
	Root string `toml:"root,omitempty"` // only used for type=folder
}

// VaultConfig selects the ledger snapshot backend.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type VaultConfig struct {
	Type string `toml:"type"` // "none", "memory", "s3", or "filesystem"
	Name string `toml:"name,omitempty"`

	// S3-specific fields (only used when Type == "s3")
	S3Bucket          string `toml:"s3_bucket,omitempty"`
	S3Prefix          string `toml:"s3_prefix,omitempty"`
	S3Region          string `toml:"s3_region,omitempty"`
	S3AccessKeyID     string `toml:"s3_access_key_id,omitempty"`
	S3SecretAccessKey string `toml:"s3_secret_access_key,omitempty"`

	// FileSystem-specific fields (only used when Type == "filesystem")
	FSVaultRoot string `toml:"fs_vault_root,omitempty"`
}

// EncryptionConfig holds the age key pair used to encrypt ledger snapshots.
type EncryptionConfig struct {
	Type           string `toml:"type"` // "none" (default), "age" or "test"
	PublicKeyPath  string `toml:"public_key_path,omitempty"`
	PrivateKeyPath string `toml:"private_key_path,omitempty"`
}

// AlbumMapping maps one exact album name to a category and slug.
type AlbumMapping struct {
	Category string `toml:"category"`
	Slug     string `toml:"slug"`
}

// SyncConfig holds the album mapping rules. Pattern rule order is
// semantically load-bearing (first match wins); TOML decoding does not
// preserve map order, so load reconstructs it from file metadata into
// patternOrder.
type SyncConfig struct {
	Albums   map[string]AlbumMapping `toml:"albums"`
	Patterns map[string]string       `toml:"patterns"`

	patternOrder []string
}

// PatternOrder returns the pattern keys in declaration order.
func (s *SyncConfig) PatternOrder() []string {
	return s.patternOrder
}

// AddPattern appends a pattern rule, preserving insertion order. For
// programmatic construction; file loading derives the order from the file.
func (s *SyncConfig) AddPattern(pattern, category string) {
	if s.Patterns == nil {
		s.Patterns = make(map[string]string)
	}
	if _, exists := s.Patterns[pattern]; !exists {
		s.patternOrder = append(s.patternOrder, pattern)
	}
	s.Patterns[pattern] = category
}

// allowed export formats
var exportFormats = map[string]bool{"jpg": true, "png": true, "webp": true}

// NewConfig creates a Config with the provided values and sensible defaults.
func NewConfig(hostID, repoPath string, categories []string) *Config {
	return &Config{
		HostID: hostID,
		General: GeneralConfig{
			RepoPath:      repoPath,
			OutputBase:    "src/assets/photos",
			OutputPattern: "{category}/{album_slug}/{filename}",
			Categories:    categories,
		},
		Export: ExportConfig{
			MaxWidth: 2048,
			Format:   "jpg",
			Quality:  85,
			StripGPS: true,
		},
		Git: GitConfig{
			AutoCommit:    true,
			AutoPush:      false,
			CommitMessage: "gallery: sync {count} photos from {albums}",
		},
		Provider: ProviderConfig{Type: "folder"},
		Vault:    VaultConfig{Type: "none"},
	}
}

// ReadFromFile reads, validates and finishes a Config from the given path.
func ReadFromFile(path string) (*Config, error) {
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg.Sync.patternOrder = patternOrderFromMetadata(md)

	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// patternOrderFromMetadata extracts the [sync.patterns] keys in the order
// they appear in the file. toml.MetaData.Keys returns keys in file order,
// which is the only place declaration order survives decoding.
func patternOrderFromMetadata(md toml.MetaData) []string {
	var order []string
	for _, key := range md.Keys() {
		if len(key) == 3 && key[0] == "sync" && key[1] == "patterns" {
			order = append(order, key[2])
		}
	}
	return order
}

func applyDefaults(cfg *Config) {
	if cfg.General.OutputBase == "" {
		cfg.General.OutputBase = "src/assets/photos"
	}
	if cfg.General.OutputPattern == "" {
		cfg.General.OutputPattern = "{category}/{album_slug}/{filename}"
	}
	if cfg.Export.MaxWidth == 0 {
		cfg.Export.MaxWidth = 2048
	}
	if cfg.Export.Format == "" {
		cfg.Export.Format = "jpg"
	}
	if cfg.Export.Quality == 0 {
		cfg.Export.Quality = 85
	}
	if cfg.Git.CommitMessage == "" {
		cfg.Git.CommitMessage = "gallery: sync {count} photos from {albums}"
	}
	if cfg.Provider.Type == "" {
		cfg.Provider.Type = "folder"
	}
	if cfg.Vault.Type == "" {
		cfg.Vault.Type = "none"
	}
	if cfg.Encryption.Type == "" {
		cfg.Encryption.Type = "none"
	}
}

func validate(cfg *Config) error {
	if cfg.General.RepoPath == "" {
		return fmt.Errorf("missing required key: general.repo_path")
	}
	if !exportFormats[cfg.Export.Format] {
		return fmt.Errorf("unsupported export format: %q", cfg.Export.Format)
	}
	if cfg.Export.Quality < 1 || cfg.Export.Quality > 100 {
		return fmt.Errorf("export quality must be 1-100, got %d", cfg.Export.Quality)
	}
	if cfg.Export.MaxWidth < 1 {
		return fmt.Errorf("export max_width must be positive, got %d", cfg.Export.MaxWidth)
	}
	for name, m := range cfg.Sync.Albums {
		if m.Category == "" {
			return fmt.Errorf("album mapping %q missing category", name)
		}
		if m.Slug == "" {
			return fmt.Errorf("album mapping %q missing slug", name)
		}
	}
	for _, key := range cfg.Sync.patternOrder {
		if _, err := regexp.Compile(cfg.Sync.Patterns[key]); err != nil {
			return fmt.Errorf("pattern %q: %w", key, err)
		}
	}
	return nil
}

// Rules compiles the album mappings and pattern rules into the form the
// mapper consumes. Pattern regexes are anchored at the start so rules keep
// match-from-start semantics regardless of how they are written.
func (c *Config) Rules() (pgs.Rules, error) {
	rules := pgs.Rules{
		Albums: make(map[string]pgs.AlbumMapping, len(c.Sync.Albums)),
	}
	for name, m := range c.Sync.Albums {
		rules.Albums[name] = pgs.AlbumMapping{Category: m.Category, Slug: m.Slug}
	}

	for _, pattern := range c.Sync.patternOrder {
		re, err := regexp.Compile(`\A(?:` + pattern + `)`)
		if err != nil {
			return pgs.Rules{}, fmt.Errorf("compiling pattern %q: %w", pattern, err)
		}
		rules.Patterns = append(rules.Patterns, pgs.PatternRule{
			Pattern:  re,
			Category: c.Sync.Patterns[pattern],
		})
	}
	return rules, nil
}

// WriteToFile writes a Config to the specified file path, creating the
// parent directory if needed. The file is written with owner-only
// permissions since it may hold credentials.
func WriteToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := WriteToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
