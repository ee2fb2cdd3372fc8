package pgs

// VCS abstracts the version-control operations run against the gallery repo
// after a sync. All failures carry the underlying tool's exit code and
// stderr as a *VCSError.
type VCS interface {
	// IsRepo reports whether the client's working directory is inside a
	// version-controlled tree.
	IsRepo() bool

	// Stage marks the given paths for inclusion in the next commit.
	// Staging an empty list is a no-op.
	Stage(paths []string) error

	// Commit records staged changes and returns the short commit id.
	Commit(message string) (string, error)

	// Push publishes the given branch to the named remote.
	Push(remote, branch string) error

	// Status returns machine-readable working-tree status; empty means clean.
	Status() (string, error)

	// CurrentBranch returns the checked-out branch name.
	CurrentBranch() (string, error)
}
