package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"pgs-go/internal/config"
	"pgs-go/internal/encryption"
	"pgs-go/internal/model"
	"pgs-go/internal/pgs"
	"pgs-go/internal/provider"
	"pgs-go/internal/state"
	"pgs-go/internal/transform"
	"pgs-go/internal/vault"
	"pgs-go/internal/vcs"
)

// App is the application layer between the CLI and SyncService.
// It constructs all dependencies from config, exposes high-level operations,
// and manages the ledger lifecycle on Close: when a run mutated the ledger
// and a vault is configured, Close snapshots the ledger and uploads it.
type App struct {
	cfg       *config.Config
	state     pgs.SyncState
	statePath string
	source    pgs.PhotoSource
	git       pgs.VCS
	vault     pgs.Vault
	encryptor pgs.Encryptor
	service   *pgs.SyncService
	logger    pgs.Logger
	logFile   *os.File
	mutated   bool
}

// AlbumInfo reports one source album together with its resolved mapping.
type AlbumInfo struct {
	Name       string
	PhotoCount int
	Category   string
	Slug       string
	Source     pgs.RuleSource
}

// NewApp creates a fully wired App from the given config and default paths
// (as returned by GetDefaults). operation identifies the CLI command being
// run (e.g. "Sync", "Status"). The caller must call Close when done.
func NewApp(cfg *config.Config, defaults map[string]string, operation string) (*App, error) {
	runID := time.Now().UTC().Format("20060102T150405Z") + "-" + operation

	slogger, logFile, err := newLogger(defaults["log_dir"], runID)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: slogger}

	source, err := provider.NewProviderFromConfig(cfg.Provider, logger)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("creating photo source: %w", err)
	}

	st, err := state.Open(defaults["state_path"], pgs.RealClock{})
	if err != nil {
		source.Close()
		logFile.Close()
		return nil, fmt.Errorf("opening sync ledger: %w", err)
	}

	v, err := vault.NewVaultFromConfig(context.Background(), cfg)
	if err != nil {
		st.Close()
		source.Close()
		logFile.Close()
		return nil, fmt.Errorf("creating vault: %w", err)
	}

	// Check local ledger version against the remote vault version. A remote
	// snapshot ahead of the local ledger means another machine (or a restore
	// that never happened) holds newer state; syncing on top of stale state
	// would rewrite history.
	if v != nil {
		remoteVersion, err := v.SnapshotVersion(cfg.HostID)
		if err != nil {
			st.Close()
			source.Close()
			logFile.Close()
			return nil, fmt.Errorf("checking remote snapshot version: %w", err)
		}

		localMax, err := st.MaxAuditID()
		if err != nil {
			st.Close()
			source.Close()
			logFile.Close()
			return nil, fmt.Errorf("checking local ledger version: %w", err)
		}

		if remoteVersion > localMax {
			st.Close()
			source.Close()
			logFile.Close()
			return nil, fmt.Errorf("local ledger is behind remote (local=%d, remote=%d): run 'pgs state restore' or re-initialize", localMax, remoteVersion)
		}
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		st.Close()
		source.Close()
		logFile.Close()
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}

	rules, err := cfg.Rules()
	if err != nil {
		st.Close()
		source.Close()
		logFile.Close()
		return nil, fmt.Errorf("compiling mapping rules: %w", err)
	}

	transformer := transform.NewBildTransformer(logger)
	git := vcs.NewGitClient(cfg.General.RepoPath)

	settings := pgs.Settings{
		RepoPath:      cfg.General.RepoPath,
		OutputBase:    cfg.General.OutputBase,
		OutputPattern: cfg.General.OutputPattern,
		Export: pgs.ExportOptions{
			MaxWidth: cfg.Export.MaxWidth,
			Format:   cfg.Export.Format,
			Quality:  cfg.Export.Quality,
			StripGPS: cfg.Export.StripGPS,
		},
		Rules: rules,
	}

	svc := pgs.NewSyncService(source, st, transformer, logger, settings)

	return &App{
		cfg:       cfg,
		state:     st,
		statePath: defaults["state_path"],
		source:    source,
		git:       git,
		vault:     v,
		encryptor: enc,
		service:   svc,
		logger:    logger,
		logFile:   logFile,
	}, nil
}

// ListAlbums returns all source albums with their resolved mappings.
func (a *App) ListAlbums() ([]AlbumInfo, error) {
	albums, err := a.source.ListAlbums()
	if err != nil {
		return nil, fmt.Errorf("listing albums: %w", err)
	}

	infos := make([]AlbumInfo, 0, len(albums))
	for _, album := range albums {
		m := pgs.ResolveAlbum(album.Name, a.service.Rules())
		infos = append(infos, AlbumInfo{
			Name:       album.Name,
			PhotoCount: album.PhotoCount,
			Category:   m.Category,
			Slug:       m.Slug,
			Source:     m.Source,
		})
	}
	return infos, nil
}

// Sync runs a sync over the selected albums. An explicit album list wins
// over a category filter; with neither, every mapped album is synced.
// After a run that wrote files, the new paths are committed to the gallery
// repo unless auto-commit is disabled or noCommit is set.
func (a *App) Sync(albums []string, category string, opts pgs.SyncOptions, noCommit bool) (*pgs.RunSummary, error) {
	selected, err := a.service.SelectAlbums(albums, category)
	if err != nil {
		return nil, err
	}
	if len(selected) == 0 {
		a.logger.Warn("no albums selected for sync")
		return &pgs.RunSummary{}, nil
	}

	summary, runErr := a.service.SyncAlbums(selected, opts)
	if !opts.DryRun && summary.Exported > 0 {
		a.mutated = true
	}
	if runErr != nil {
		return summary, runErr
	}

	if opts.DryRun || noCommit || !a.cfg.Git.AutoCommit || len(summary.WrittenPaths) == 0 {
		return summary, nil
	}

	if !a.git.IsRepo() {
		a.logger.Warn("gallery path is not a git repository, skipping commit", "path", a.cfg.General.RepoPath)
		return summary, nil
	}

	if err := a.git.Stage(summary.WrittenPaths); err != nil {
		return summary, fmt.Errorf("staging exported photos: %w", err)
	}

	message := renderCommitMessage(a.cfg.Git.CommitMessage, summary.Exported, exportedAlbums(summary))
	commitID, err := a.git.Commit(message)
	if err != nil {
		return summary, fmt.Errorf("committing exported photos: %w", err)
	}
	a.logger.Info("committed exported photos", "commit", commitID, "count", summary.Exported)

	if a.cfg.Git.AutoPush {
		branch, err := a.git.CurrentBranch()
		if err != nil {
			return summary, fmt.Errorf("determining branch for push: %w", err)
		}
		if err := a.git.Push("origin", branch); err != nil {
			return summary, fmt.Errorf("pushing to origin/%s: %w", branch, err)
		}
		a.logger.Info("pushed gallery repo", "remote", "origin", "branch", branch)
	}

	return summary, nil
}

// Status returns the synced ledger entries, optionally filtered by category.
func (a *App) Status(category string) ([]*model.SyncedEntry, error) {
	if category != "" {
		return a.state.RecordsByCategory(category)
	}
	return a.state.AllRecords()
}

// Audit returns up to limit entries of the audit trail, newest first.
func (a *App) Audit(limit int) ([]*model.AuditEntry, error) {
	return a.state.AuditTrail(limit)
}

// GitStatus returns the porcelain status of the gallery repo.
func (a *App) GitStatus() (string, error) {
	return a.git.Status()
}

// Push publishes the current branch of the gallery repo to the named remote.
// Returns the branch that was pushed.
func (a *App) Push(remote string) (string, error) {
	branch, err := a.git.CurrentBranch()
	if err != nil {
		return "", err
	}
	if err := a.git.Push(remote, branch); err != nil {
		return "", err
	}
	return branch, nil
}

// KeysInit generates the snapshot encryption key pair.
func (a *App) KeysInit(passphrase string) error {
	if a.encryptor == nil {
		return fmt.Errorf("encryption is not configured (set encryption.type in the config)")
	}
	if a.encryptor.IsConfigured() {
		return fmt.Errorf("encryption keys already exist")
	}
	return a.encryptor.Setup(passphrase)
}

// StateBackup snapshots the ledger and uploads it to the vault immediately,
// regardless of whether this run mutated the ledger.
func (a *App) StateBackup() error {
	if a.vault == nil {
		return fmt.Errorf("no vault configured")
	}
	return a.uploadSnapshot()
}

// Close finalizes the run and closes all resources. If the run mutated the
// ledger and a vault is configured, the ledger is snapshotted and uploaded
// before closing.
func (a *App) Close() error {
	var firstErr error

	if a.mutated && a.vault != nil {
		if err := a.uploadSnapshot(); err != nil {
			firstErr = err
		}
	}

	if err := a.state.Close(); err != nil {
		if firstErr == nil {
			firstErr = fmt.Errorf("closing sync ledger: %w", err)
		}
	}

	if err := a.source.Close(); err != nil {
		if firstErr == nil {
			firstErr = fmt.Errorf("closing photo source: %w", err)
		}
	}

	if a.logFile != nil {
		a.logFile.Close()
	}

	return firstErr
}

// uploadSnapshot writes a consistent ledger snapshot to a temp file,
// encrypts it when an encryptor is configured, and uploads it to the vault
// with version = the highest audit entry id.
func (a *App) uploadSnapshot() error {
	version, err := a.state.MaxAuditID()
	if err != nil {
		return fmt.Errorf("determining snapshot version: %w", err)
	}

	tmpFile, err := os.CreateTemp("", "pgs-state-*.db")
	if err != nil {
		return fmt.Errorf("creating temp file for ledger snapshot: %w", err)
	}
	tmpPath := tmpFile.Name()
	tmpFile.Close()
	defer os.Remove(tmpPath)

	if err := a.state.SnapshotTo(tmpPath); err != nil {
		return fmt.Errorf("snapshotting ledger: %w", err)
	}

	uploadPath := tmpPath
	if a.encryptor != nil && a.encryptor.IsConfigured() {
		encPath := tmpPath + ".age"
		if err := encryptFile(a.encryptor, tmpPath, encPath); err != nil {
			return fmt.Errorf("encrypting ledger snapshot: %w", err)
		}
		defer os.Remove(encPath)
		uploadPath = encPath
	}

	f, err := os.Open(uploadPath)
	if err != nil {
		return fmt.Errorf("opening ledger snapshot for upload: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat ledger snapshot: %w", err)
	}

	if err := a.vault.PutSnapshot(a.cfg.HostID, f, info.Size(), version); err != nil {
		return fmt.Errorf("uploading ledger snapshot to vault: %w", err)
	}

	a.logger.Info("ledger snapshot uploaded", "version", version)
	return nil
}

// encryptFile encrypts srcPath into destPath using the given encryptor.
func encryptFile(enc pgs.Encryptor, srcPath, destPath string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer src.Close()

	dest, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}

	if err := enc.Encrypt(src, dest); err != nil {
		dest.Close()
		return err
	}
	return dest.Close()
}

// exportedAlbums returns the distinct album names that had at least one
// photo exported, in first-export order.
func exportedAlbums(summary *pgs.RunSummary) []string {
	seen := make(map[string]bool)
	var albums []string
	for _, res := range summary.Results {
		if !res.Exported() {
			continue
		}
		if !seen[res.Photo.AlbumName] {
			seen[res.Photo.AlbumName] = true
			albums = append(albums, res.Photo.AlbumName)
		}
	}
	return albums
}

// renderCommitMessage substitutes {count} and {albums} in the configured
// commit message template.
func renderCommitMessage(template string, count int, albums []string) string {
	return strings.NewReplacer(
		"{count}", strconv.Itoa(count),
		"{albums}", strings.Join(albums, ", "),
	).Replace(template)
}

// RestoreState downloads the ledger snapshot from the vault and installs it
// at statePath. If snapshot encryption is configured, passphrase unlocks the
// private key for decryption. An existing ledger file is kept as a .bak
// sibling.
func RestoreState(cfg *config.Config, statePath, passphrase string) error {
	v, err := vault.NewVaultFromConfig(context.Background(), cfg)
	if err != nil {
		return fmt.Errorf("creating vault: %w", err)
	}
	if v == nil {
		return fmt.Errorf("no vault configured")
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		return fmt.Errorf("creating encryptor: %w", err)
	}

	tmpFile, err := os.CreateTemp("", "pgs-restore-*.db")
	if err != nil {
		return fmt.Errorf("creating temp file for restore: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath)

	if err := v.GetSnapshot(cfg.HostID, tmpFile); err != nil {
		tmpFile.Close()
		return fmt.Errorf("downloading ledger snapshot: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("writing downloaded snapshot: %w", err)
	}

	restoredPath := tmpPath
	if enc != nil && enc.IsConfigured() {
		dc, err := enc.Unlock(passphrase)
		if err != nil {
			return fmt.Errorf("unlocking private key: %w", err)
		}

		decPath := tmpPath + ".dec"
		if err := decryptFile(dc, tmpPath, decPath); err != nil {
			return fmt.Errorf("decrypting ledger snapshot: %w", err)
		}
		defer os.Remove(decPath)
		restoredPath = decPath
	}

	if _, err := os.Stat(statePath); err == nil {
		if err := os.Rename(statePath, statePath+".bak"); err != nil {
			return fmt.Errorf("backing up existing ledger: %w", err)
		}
	}

	if err := copyFile(restoredPath, statePath); err != nil {
		return fmt.Errorf("installing restored ledger: %w", err)
	}
	return nil
}

// decryptFile decrypts srcPath into destPath using the unlocked context.
func decryptFile(dc pgs.DecryptionContext, srcPath, destPath string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer src.Close()

	dest, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}

	if err := dc.Decrypt(src, dest); err != nil {
		dest.Close()
		return err
	}
	return dest.Close()
}

func copyFile(srcPath, destPath string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer src.Close()

	dest, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}

	if _, err := io.Copy(dest, src); err != nil {
		dest.Close()
		return err
	}
	return dest.Close()
}
