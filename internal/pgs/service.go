package pgs

import (
	"errors"
	"fmt"
	"path/filepath"
)

// Settings is the validated configuration slice the sync service needs.
// Loaded once and passed in explicitly; there is no ambient config state.
type Settings struct {
	RepoPath      string // absolute path to the gallery repo
	OutputBase    string // output directory, relative to RepoPath
	OutputPattern string // template with {category}, {album_slug}, {filename}
	Export        ExportOptions
	Rules         Rules
}

// Outcome is the terminal state of one photo within a run. A photo enters
// the run pending and reaches exactly one outcome; there is no retry loop.
type Outcome int

const (
	SkipUnchanged Outcome = iota
	ExportedNew
	ExportedChanged
	Errored
)

func (o Outcome) String() string {
	switch o {
	case SkipUnchanged:
		return "skip"
	case ExportedNew:
		return "export"
	case ExportedChanged:
		return "re-export"
	case Errored:
		return "error"
	default:
		return "unknown"
	}
}

// PhotoResult reports the decision made for one photo.
type PhotoResult struct {
	Photo        Photo
	Category     string
	RelativePath string
	AbsolutePath string
	Outcome      Outcome
	Err          error // set only when Outcome is Errored
}

// Exported reports whether this result wrote (or, in a dry run, would
// write) a destination file.
func (r PhotoResult) Exported() bool {
	return r.Outcome == ExportedNew || r.Outcome == ExportedChanged
}

// RunSummary aggregates one sync run across all albums.
type RunSummary struct {
	Exported int
	Skipped  int
	Errors   int
	Results  []PhotoResult
	// WrittenPaths holds the absolute destination paths actually written,
	// in write order, for handing to the VCS. Empty on dry runs.
	WrittenPaths []string
}

// SyncOptions are the per-run flags.
type SyncOptions struct {
	DryRun bool // report decisions without exporting or mutating state
	Force  bool // re-export even when the ledger says unchanged
}

// SyncService drives the per-photo export/skip decision: resolve the
// mapping, render and validate the destination path, consult the ledger and
// the source checksum, conditionally invoke the transformer, and record the
// result. Execution is sequential; the ledger has a single writer.
type SyncService struct {
	source      PhotoSource
	state       SyncState
	transformer Transformer
	logger      Logger
	settings    Settings
}

// NewSyncService creates a SyncService with the provided dependencies.
func NewSyncService(source PhotoSource, state SyncState, transformer Transformer, logger Logger, settings Settings) *SyncService {
	return &SyncService{
		source:      source,
		state:       state,
		transformer: transformer,
		logger:      logger,
		settings:    settings,
	}
}

// Rules returns the mapping rules the service was configured with.
func (s *SyncService) Rules() Rules {
	return s.settings.Rules
}

// SelectAlbums determines which albums a run should process. An explicit
// list wins; otherwise a category filter selects albums resolving to that
// category; otherwise every album with a mapping (explicit or pattern) is
// selected.
func (s *SyncService) SelectAlbums(explicit []string, category string) ([]string, error) {
	if len(explicit) > 0 {
		return explicit, nil
	}

	albums, err := s.source.ListAlbums()
	if err != nil {
		return nil, fmt.Errorf("listing albums: %w", err)
	}

	var selected []string
	for _, a := range albums {
		m := ResolveAlbum(a.Name, s.settings.Rules)
		switch {
		case category != "":
			if m.Category == category {
				selected = append(selected, a.Name)
			}
		default:
			if m.Source != RuleUnmatched {
				selected = append(selected, a.Name)
			}
		}
	}
	return selected, nil
}

// SyncAlbums processes the named albums in order and returns the aggregated
// run summary. Unmapped albums are skipped with a warning. A missing album
// or a failed export is counted and processing continues; a path-safety or
// ledger failure aborts the run.
func (s *SyncService) SyncAlbums(albumNames []string, opts SyncOptions) (*RunSummary, error) {
	summary := &RunSummary{}

	for _, albumName := range albumNames {
		mapping := ResolveAlbum(albumName, s.settings.Rules)
		if mapping.Category == "" {
			s.logger.Warn("skipping unmapped album", "album", albumName)
			continue
		}

		photos, err := s.source.GetPhotos(albumName)
		if err != nil {
			if errors.Is(err, ErrAlbumNotFound) {
				s.logger.Error("album not found", "album", albumName)
				summary.Errors++
				continue
			}
			return summary, fmt.Errorf("fetching photos for %q: %w", albumName, err)
		}
		if len(photos) == 0 {
			s.logger.Info("album has no photos", "album", albumName)
			continue
		}

		for _, photo := range photos {
			res, err := s.SyncPhoto(photo, mapping, opts)
			if err != nil {
				// Path-safety and ledger failures are fatal: never
				// continue past a path that might land outside the
				// output tree or a write the ledger didn't take.
				return summary, err
			}

			summary.Results = append(summary.Results, res)
			switch res.Outcome {
			case SkipUnchanged:
				summary.Skipped++
			case ExportedNew, ExportedChanged:
				summary.Exported++
				if !opts.DryRun {
					summary.WrittenPaths = append(summary.WrittenPaths, res.AbsolutePath)
				}
			case Errored:
				s.logger.Error("export failed", "album", albumName, "photo", photo.Filename, "error", res.Err)
				summary.Errors++
			}
		}
	}

	return summary, nil
}

// SyncPhoto runs the decision engine for a single photo.
//
// The returned error is non-nil only for fatal failures (path safety,
// ledger access). A transform failure is reported in the result with
// Outcome == Errored so callers can isolate it and keep going.
func (s *SyncService) SyncPhoto(photo Photo, mapping ResolvedMapping, opts SyncOptions) (PhotoResult, error) {
	res := PhotoResult{Photo: photo, Category: mapping.Category}

	relPath, err := RenderOutputPath(s.settings.OutputPattern, mapping.Category, mapping.Slug, photo.Filename)
	if err != nil {
		return res, fmt.Errorf("rendering output path for %q: %w", photo.Filename, err)
	}
	res.RelativePath = relPath

	outputBase := filepath.Join(s.settings.RepoPath, s.settings.OutputBase)
	destPath, err := ResolveSafe(outputBase, relPath)
	if err != nil {
		return res, fmt.Errorf("resolving destination for %q: %w", photo.Filename, err)
	}
	res.AbsolutePath = destPath

	// Skip decision: an existing ledger entry only skips the export when
	// the source file still hashes to the recorded source checksum. A
	// source edited in place re-exports even though it was synced before.
	previouslySynced := false
	var sourceChecksum string
	if !opts.Force {
		synced, err := s.state.IsSynced(photo.UUID, photo.AlbumName)
		if err != nil {
			return res, err
		}
		if synced {
			previouslySynced = true
			stored, ok, err := s.state.GetChecksum(photo.UUID, photo.AlbumName)
			if err != nil {
				return res, err
			}
			if ok {
				sourceChecksum, err = s.transformer.Checksum(photo.OriginalPath)
				if err != nil {
					res.Outcome = Errored
					res.Err = err
					return res, nil
				}
				if stored == sourceChecksum {
					res.Outcome = SkipUnchanged
					return res, nil
				}
				s.logger.Debug("source changed since last sync", "photo", photo.Filename)
			}
		}
	}

	outcome := ExportedNew
	if previouslySynced {
		outcome = ExportedChanged
	}

	if opts.DryRun {
		res.Outcome = outcome
		return res, nil
	}

	outputChecksum, err := s.transformer.Export(photo.OriginalPath, destPath, s.settings.Export)
	if err != nil {
		res.Outcome = Errored
		res.Err = err
		return res, nil
	}
	s.logger.Debug("destination written", "path", destPath, "checksum", outputChecksum)

	// The ledger records the checksum of the source, not of the exported
	// file: the skip decision rehashes the source on the next run, so only
	// the source checksum makes that comparison meaningful.
	if sourceChecksum == "" {
		sourceChecksum, err = s.transformer.Checksum(photo.OriginalPath)
		if err != nil {
			res.Outcome = Errored
			res.Err = err
			return res, nil
		}
	}

	if err := s.state.RecordSync(photo.UUID, photo.AlbumName, mapping.Category, relPath, sourceChecksum); err != nil {
		return res, err
	}

	res.Outcome = outcome
	s.logger.Info("photo exported", "photo", photo.Filename, "album", photo.AlbumName, "path", relPath)
	return res, nil
}
