package pgs

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for path safety and provider lookups. Callers check these
// with errors.Is after unwrapping whatever context was added along the way.
var (
	// ErrPathTraversal is returned when a rendered output path contains a
	// parent-directory segment.
	ErrPathTraversal = errors.New("path contains parent-directory segment")

	// ErrPathEscape is returned when a resolved path falls outside the
	// output base directory.
	ErrPathEscape = errors.New("path escapes base directory")

	// ErrAlbumNotFound is returned by a PhotoSource when the requested
	// album does not exist.
	ErrAlbumNotFound = errors.New("album not found")
)

// StateError wraps any failure opening, reading, or writing the sync ledger.
// A failed mutation leaves the ledger unchanged; callers must not continue
// as if the write happened.
type StateError struct {
	Op  string // operation that failed, e.g. "record sync"
	Err error
}

func (e *StateError) Error() string {
	return fmt.Sprintf("sync state: %s: %v", e.Op, e.Err)
}

func (e *StateError) Unwrap() error { return e.Err }

// ExportError wraps a transform failure for a single photo. It is recoverable
// at the orchestrator level: the photo is counted as errored and processing
// continues.
type ExportError struct {
	Source string // source file the export was reading
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("exporting %s: %v", e.Source, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }

// VCSError carries the underlying tool's exit code and stderr so failures
// can be diagnosed without re-running the command.
type VCSError struct {
	Cmd      string // the subcommand and arguments that were run
	ExitCode int
	Stderr   string
	Err      error
}

func (e *VCSError) Error() string {
	return fmt.Sprintf("git %s failed (exit %d): %s", e.Cmd, e.ExitCode, strings.TrimSpace(e.Stderr))
}

func (e *VCSError) Unwrap() error { return e.Err }
