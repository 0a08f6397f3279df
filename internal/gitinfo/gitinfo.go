// Package gitinfo reads the revision of the repository holding the site sources.
package gitinfo

import (
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

const shortLen = 7

// Info describes the checked out commit.
type Info struct {
	Commit string
	Branch string
}

// Short returns the abbreviated commit hash.
func (i Info) Short() string {
	if len(i.Commit) > shortLen {
		return i.Commit[:shortLen]
	}
	return i.Commit
}

// ErrNotRepository is returned when dir is not inside a git work tree.
var ErrNotRepository = errors.New("not a git repository")

// Head resolves HEAD of the repository containing dir, searching parent
// directories for .git.
func Head(dir string) (Info, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return Info{}, ErrNotRepository
		}
		return Info{}, fmt.Errorf("open repository: %w", err)
	}

	ref, err := repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return Info{}, fmt.Errorf("repository has no commits: %w", err)
		}
		return Info{}, fmt.Errorf("resolve HEAD: %w", err)
	}

	info := Info{Commit: ref.Hash().String()}
	if ref.Name().IsBranch() {
		info.Branch = ref.Name().Short()
	}
	return info, nil
}

// Revision returns the short HEAD hash for dir, or "" when it cannot be read.
func Revision(dir string) string {
	info, err := Head(dir)
	if err != nil {
		return ""
	}
	return info.Short()
}
