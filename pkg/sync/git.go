// Package sync commits tracker changes to the git repository holding the
// data directory.
package sync

import (
	"errors"
	"fmt"
	"path/filepath"
	gosync "sync"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"

	"github.com/mklimuk/job-pilot/pkg/logging"
)

// GitManager handles git operations
type GitManager struct {
	RepoPath string
	push     bool
	sshKey   string
	log      *logging.Logger
	now      func() time.Time
	mu       gosync.Mutex
}

type Option func(*GitManager)

// WithPush pushes after each commit, authenticating with the SSH key at
// keyPath when it is not empty.
func WithPush(keyPath string) Option {
	return func(g *GitManager) {
		g.push = true
		g.sshKey = keyPath
	}
}

func WithLogger(l *logging.Logger) Option {
	return func(g *GitManager) { g.log = l }
}

// NewGitManager creates a new GitManager for the repository containing repoPath.
func NewGitManager(repoPath string, opts ...Option) *GitManager {
	g := &GitManager{RepoPath: repoPath, log: logging.NewNop(), now: time.Now}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Sync commits every change under RepoPath and pushes when enabled. A clean
// worktree is not an error.
func (g *GitManager) Sync(message string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	r, err := git.PlainOpenWithOptions(g.RepoPath, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return fmt.Errorf("failed to open repo: %w", err)
	}

	w, err := r.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}

	abs, err := filepath.Abs(g.RepoPath)
	if err != nil {
		return err
	}
	rel, err := filepath.Rel(w.Filesystem.Root(), abs)
	if err != nil {
		return fmt.Errorf("failed to locate %s in worktree: %w", g.RepoPath, err)
	}
	if err := w.AddWithOptions(&git.AddOptions{Path: filepath.ToSlash(rel)}); err != nil {
		return fmt.Errorf("failed to add changes: %w", err)
	}

	status, err := w.Status()
	if err != nil {
		return fmt.Errorf("failed to read status: %w", err)
	}
	if !staged(status) {
		return nil
	}

	if message == "" {
		message = fmt.Sprintf("Auto-sync: %s", g.now().Format(time.RFC3339))
	}
	hash, err := w.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  "Job Pilot",
			Email: "pilot@job.local",
			When:  g.now(),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	g.log.Debug("committed tracker changes", "commit", hash.String(), "message", message)

	if !g.push {
		return nil
	}
	return g.pushRemote(r)
}

// staged reports whether the index differs from HEAD. Untracked files
// outside RepoPath do not count.
func staged(st git.Status) bool {
	for _, fs := range st {
		if fs.Staging != git.Unmodified && fs.Staging != git.Untracked {
			return true
		}
	}
	return false
}

func (g *GitManager) pushRemote(r *git.Repository) error {
	opts := &git.PushOptions{}
	if g.sshKey != "" {
		keys, err := ssh.NewPublicKeysFromFile("git", g.sshKey, "")
		if err != nil {
			return fmt.Errorf("failed to load SSH key: %w", err)
		}
		opts.Auth = keys
	}
	if err := r.Push(opts); err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("failed to push: %w", err)
	}
	return nil
}

// Hook is a tracker save hook: it commits and logs failures instead of
// returning them, since the save itself already succeeded.
func (g *GitManager) Hook(message string) {
	if err := g.Sync(message); err != nil {
		g.log.Warn("git sync failed", "error", err)
	}
}
