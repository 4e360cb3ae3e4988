package gitrepo

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// FindGitDir returns the git directory governing start, found by walking up the
// tree. Worktrees and submodules use a .git file holding "gitdir: <path>"; that
// pointer is followed. No git process is started.
func FindGitDir(start string) (gitDir string, ok bool, err error) {
	start = strings.TrimSpace(start)
	if start == "" {
		return "", false, errors.New("empty start dir")
	}
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", false, err
	}

	for ; ; dir = filepath.Dir(dir) {
		dotGit := filepath.Join(dir, ".git")
		info, statErr := os.Stat(dotGit)
		switch {
		case statErr != nil:
		case info.IsDir():
			return dotGit, true, nil
		default:
			target, err := readGitdirPointer(dotGit)
			if err != nil {
				return "", false, err
			}
			if target != "" {
				return target, true, nil
			}
		}
		if filepath.Dir(dir) == dir {
			return "", false, nil
		}
	}
}

func readGitdirPointer(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	first, _, _ := strings.Cut(strings.TrimSpace(string(b)), "\n")
	key, value, found := strings.Cut(first, ":")
	if !found || !strings.EqualFold(strings.TrimSpace(key), "gitdir") {
		return "", nil
	}
	target := strings.TrimSpace(value)
	if target == "" {
		return "", nil
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(path), target)
	}
	return filepath.Clean(target), nil
}
