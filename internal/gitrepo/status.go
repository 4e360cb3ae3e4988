package gitrepo

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

type Status struct {
	IsRepo bool `json:"isRepo"`

	Root string `json:"root,omitempty"`

	Branch   string `json:"branch,omitempty"`
	Upstream string `json:"upstream,omitempty"`
	// UpstreamURL is the fetch URL of the upstream's remote (best-effort).
	UpstreamURL string `json:"upstreamURL,omitempty"`

	Head string `json:"head,omitempty"`

	Dirty bool `json:"dirty"`
	// DocumentDirty reports uncommitted changes to the task document only.
	DocumentDirty bool `json:"documentDirty"`
	Unmerged      bool `json:"unmerged"`

	InProgress     bool   `json:"inProgress"`
	InProgressKind string `json:"inProgressKind,omitempty"` // merge|rebase|cherry-pick|revert

	Ahead  int `json:"ahead,omitempty"`
	Behind int `json:"behind,omitempty"`
}

// GetStatus reports the state of the repository containing dir. pathspec, when
// non-empty, limits DocumentDirty to that path. A directory outside any work
// tree is reported as IsRepo=false, not as an error.
func GetStatus(ctx context.Context, dir string, pathspec string) (Status, error) {
	out, err := git(ctx, dir, "rev-parse", "--show-toplevel", "--absolute-git-dir")
	if err != nil {
		return Status{IsRepo: false}, nil
	}
	lines := strings.Fields(out)
	if len(lines) != 2 {
		return Status{}, fmt.Errorf("git rev-parse: unexpected output %q", out)
	}
	st := Status{IsRepo: true, Root: lines[0]}

	porcelain, err := git(ctx, dir, "status", "--porcelain=v2", "--branch")
	if err != nil {
		return Status{}, err
	}
	st.applyPorcelain(parsePorcelainV2(porcelain))

	if pathspec = strings.TrimSpace(pathspec); pathspec != "" {
		if out, err := git(ctx, dir, "status", "--porcelain=v2", "--", pathspec); err == nil {
			st.DocumentDirty = parsePorcelainV2(out).changed > 0
		}
	}
	if remote, _, ok := strings.Cut(st.Upstream, "/"); ok && remote != "" {
		if url, err := git(ctx, dir, "remote", "get-url", remote); err == nil {
			st.UpstreamURL = strings.TrimSpace(url)
		}
	}
	st.InProgressKind = inProgressKind(lines[1])
	st.InProgress = st.InProgressKind != ""
	return st, nil
}

func git(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("git %s: %s", strings.Join(args, " "), msg)
	}
	return stdout.String(), nil
}

// porcelainV2 is the subset of `git status --porcelain=v2 --branch` we use.
type porcelainV2 struct {
	oid      string
	head     string
	upstream string
	ahead    int
	behind   int
	changed  int // tracked changes, renames, conflicts and untracked files
	conflict int
}

func parsePorcelainV2(out string) porcelainV2 {
	var p porcelainV2
	for _, ln := range strings.Split(out, "\n") {
		ln = strings.TrimRight(ln, "\r")
		if ln == "" {
			continue
		}
		if hdr, ok := strings.CutPrefix(ln, "# "); ok {
			key, val, _ := strings.Cut(hdr, " ")
			switch key {
			case "branch.oid":
				if val != "(initial)" {
					p.oid = val
				}
			case "branch.head":
				if val != "(detached)" {
					p.head = val
				}
			case "branch.upstream":
				p.upstream = val
			case "branch.ab":
				_, _ = fmt.Sscanf(val, "+%d -%d", &p.ahead, &p.behind)
			}
			continue
		}
		switch ln[0] {
		case '1', '2', '?':
			p.changed++
		case 'u':
			p.changed++
			p.conflict++
		}
	}
	return p
}

func (st *Status) applyPorcelain(p porcelainV2) {
	st.Branch = p.head
	st.Head = p.oid
	if len(st.Head) > 7 {
		st.Head = st.Head[:7]
	}
	st.Upstream = p.upstream
	st.Ahead, st.Behind = p.ahead, p.behind
	st.Dirty = p.changed > 0
	st.Unmerged = p.conflict > 0
}

// inProgressKind inspects the marker files git leaves in its directory while a
// multi-step operation waits for the user.
func inProgressKind(gitDir string) string {
	for _, m := range []struct{ name, kind string }{
		{"MERGE_HEAD", "merge"},
		{"rebase-merge", "rebase"},
		{"rebase-apply", "rebase"},
		{"CHERRY_PICK_HEAD", "cherry-pick"},
		{"REVERT_HEAD", "revert"},
	} {
		if _, err := os.Stat(filepath.Join(gitDir, m.name)); err == nil {
			return m.kind
		}
	}
	return ""
}
