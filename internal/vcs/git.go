package vcs

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"pgs-go/internal/pgs"
)

// GitClient implements pgs.VCS by shelling out to the git binary with
// list-form argv (never through a shell).
type GitClient struct {
	repoPath string
}

var _ pgs.VCS = (*GitClient)(nil)

// NewGitClient creates a client operating on the given repository path.
func NewGitClient(repoPath string) *GitClient {
	return &GitClient{repoPath: repoPath}
}

// run executes git with the given arguments in the repo directory and
// returns trimmed stdout. Failures surface as *pgs.VCSError carrying the
// exit code and stderr.
func (c *GitClient) run(args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = c.repoPath

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		vcsErr := &pgs.VCSError{
			Cmd:      strings.Join(args, " "),
			ExitCode: -1,
			Stderr:   stderr.String(),
			Err:      err,
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			vcsErr.ExitCode = exitErr.ExitCode()
		}
		return "", vcsErr
	}
	return strings.TrimSpace(stdout.String()), nil
}

// IsRepo reports whether the repo path is inside a git work tree.
func (c *GitClient) IsRepo() bool {
	_, err := c.run("rev-parse", "--is-inside-work-tree")
	return err == nil
}

// Stage stages the given paths for commit. An empty list is a no-op.
func (c *GitClient) Stage(paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	args := append([]string{"add", "--"}, paths...)
	_, err := c.run(args...)
	return err
}

// Commit creates a commit and returns the short hash.
func (c *GitClient) Commit(message string) (string, error) {
	if _, err := c.run("commit", "-m", message); err != nil {
		return "", err
	}
	return c.run("rev-parse", "--short", "HEAD")
}

// Push pushes the given branch to the named remote.
func (c *GitClient) Push(remote, branch string) error {
	args := []string{"push", remote}
	if branch != "" {
		args = append(args, branch)
	}
	_, err := c.run(args...)
	return err
}

// Status returns porcelain status output; empty means a clean tree.
func (c *GitClient) Status() (string, error) {
	return c.run("status", "--porcelain")
}

// CurrentBranch returns the checked-out branch name.
func (c *GitClient) CurrentBranch() (string, error) {
	branch, err := c.run("branch", "--show-current")
	if err != nil {
		return "", err
	}
	if branch == "" {
		return "", fmt.Errorf("not on a branch (detached HEAD?)")
	}
	return branch, nil
}
