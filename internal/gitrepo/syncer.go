// Package gitrepo syncs the task document through the git repository that
// contains it. It shells out to the git binary.
package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

type Options struct {
	AutoCommit     bool
	AutoPush       bool
	AutoPullRebase bool
}

func DefaultOptions() Options {
	return Options{AutoCommit: true, AutoPush: true, AutoPullRebase: true}
}

// Syncer commits and pushes one document path.
type Syncer struct {
	Dir     string
	Options Options
}

// New returns a syncer for the repository holding docPath.
func New(docPath string, opts Options) Syncer {
	return Syncer{Dir: filepath.Dir(filepath.Clean(docPath)), Options: opts}
}

// IsConfigured reports whether the document lives inside a git work tree.
func (s Syncer) IsConfigured(ctx context.Context) bool {
	if _, ok, err := FindGitDir(s.Dir); err != nil || !ok {
		return false
	}
	out, err := git(ctx, s.Dir, "rev-parse", "--is-inside-work-tree")
	return err == nil && strings.TrimSpace(out) == "true"
}

func (s Syncer) Status(ctx context.Context, path string) (Status, error) {
	return GetStatus(ctx, s.Dir, path)
}

func (s Syncer) Pull(ctx context.Context) error {
	st, err := GetStatus(ctx, s.Dir, "")
	if err != nil {
		return err
	}
	if !st.IsRepo {
		return ErrNotRepo
	}
	if st.Upstream == "" {
		return errors.New("no upstream configured for " + st.Branch)
	}
	return PullRebase(ctx, s.Dir)
}

// Push pushes the current branch.
func (s Syncer) Push(ctx context.Context) error {
	return Push(ctx, s.Dir)
}

var ErrNotRepo = errors.New("not a git repository")

// CommitAndSync stages only path, commits it with message, and pushes when an
// upstream is configured. A rejected push is retried once after pull --rebase.
// Outside a repository, or with auto-commit off, it does nothing.
func (s Syncer) CommitAndSync(ctx context.Context, path string, message string) error {
	if !s.Options.AutoCommit {
		return nil
	}
	committed, err := s.CommitFile(ctx, path, message)
	if err != nil || !committed || !s.Options.AutoPush {
		return err
	}

	st, err := GetStatus(ctx, s.Dir, "")
	if err != nil {
		return err
	}
	if st.Unmerged || st.InProgress || st.Upstream == "" {
		return nil
	}

	if err := Push(ctx, s.Dir); err != nil {
		if s.Options.AutoPullRebase && IsNonFastForwardPushErr(err) {
			if err := PullRebase(ctx, s.Dir); err != nil {
				return fmt.Errorf("push rejected and rebase failed: %w", err)
			}
			return Push(ctx, s.Dir)
		}
		return err
	}
	return nil
}

// CommitFile stages and commits a single file. Returns committed=false when the
// file is unchanged or the directory is not a repository.
func (s Syncer) CommitFile(ctx context.Context, path string, message string) (committed bool, err error) {
	st, err := GetStatus(ctx, s.Dir, "")
	if err != nil {
		return false, err
	}
	if !st.IsRepo {
		return false, nil
	}
	if st.Unmerged || st.InProgress {
		return false, errors.New("git repo has an in-progress merge/rebase; resolve first")
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return false, err
	}
	if _, err := git(ctx, s.Dir, "add", "--", abs); err != nil {
		return false, err
	}

	out, err := git(ctx, s.Dir, "diff", "--cached", "--name-only", "--", abs)
	if err != nil {
		return false, err
	}
	if strings.TrimSpace(out) == "" {
		return false, nil
	}

	msg := strings.TrimSpace(message)
	if msg == "" {
		msg = fmt.Sprintf("tasktree: update (%s)", time.Now().UTC().Format(time.RFC3339))
	}
	// Commit only the document even if other paths are staged.
	if _, err := git(ctx, s.Dir, "commit", "-m", msg, "--", abs); err != nil {
		return false, err
	}
	return true, nil
}

func PullRebase(ctx context.Context, dir string) error {
	_, err := git(ctx, dir, "pull", "--rebase")
	return err
}

func Push(ctx context.Context, dir string) error {
	_, err := git(ctx, dir, "push")
	return err
}

func IsNonFastForwardPushErr(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, needle := range []string{
		"non-fast-forward",
		"fetch first",
		"rejected",
	} {
		if strings.Contains(msg, needle) {
			return true
		}
	}
	return false
}
