package testutil

import (
	"fmt"

	"pgs-go/internal/pgs"
)

// FakeVCS is an in-memory pgs.VCS that records staged paths and commits.
type FakeVCS struct {
	Repo     bool
	Staged   []string
	Commits  []string
	Pushes   []string // "remote/branch"
	Branch   string
	Porcelain string
	FailPush bool
}

var _ pgs.VCS = (*FakeVCS)(nil)

// NewFakeVCS creates a FakeVCS that reports being inside a repo on branch main.
func NewFakeVCS() *FakeVCS {
	return &FakeVCS{Repo: true, Branch: "main"}
}

func (v *FakeVCS) IsRepo() bool { return v.Repo }

func (v *FakeVCS) Stage(paths []string) error {
	v.Staged = append(v.Staged, paths...)
	return nil
}

func (v *FakeVCS) Commit(message string) (string, error) {
	v.Commits = append(v.Commits, message)
	return fmt.Sprintf("abc%04d", len(v.Commits)), nil
}

func (v *FakeVCS) Push(remote, branch string) error {
	if v.FailPush {
		return &pgs.VCSError{Cmd: "git push", ExitCode: 1, Stderr: "simulated push failure"}
	}
	v.Pushes = append(v.Pushes, remote+"/"+branch)
	return nil
}

func (v *FakeVCS) Status() (string, error) {
	return v.Porcelain, nil
}

func (v *FakeVCS) CurrentBranch() (string, error) {
	if v.Branch == "" {
		return "", &pgs.VCSError{Cmd: "git branch", ExitCode: 1, Stderr: "detached HEAD"}
	}
	return v.Branch, nil
}
