package git

import (
	"errors"
	"fmt"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// ErrNoRepository is returned by Inspect when path has no repository.
var ErrNoRepository = gogit.ErrRepositoryNotExists

// RepoInfo is a read-only snapshot of a working tree's repository.
type RepoInfo struct {
	// Branch is the branch HEAD points at, including an unborn branch.
	Branch     string
	HasCommits bool
	// Remotes maps remote name to its first fetch URL.
	Remotes map[string]string
}

// Inspect opens the repository at path with go-git. It never runs git or
// changes anything on disk.
func Inspect(path string) (*RepoInfo, error) {
	repo, err := gogit.PlainOpen(path)
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}

	info := &RepoInfo{Remotes: make(map[string]string)}

	remotes, err := repo.Remotes()
	if err != nil {
		return nil, fmt.Errorf("list remotes: %w", err)
	}
	for _, r := range remotes {
		cfg := r.Config()
		if len(cfg.URLs) > 0 {
			info.Remotes[cfg.Name] = cfg.URLs[0]
		}
	}

	head, err := repo.Head()
	switch {
	case err == nil:
		info.HasCommits = true
		if head.Name().IsBranch() {
			info.Branch = head.Name().Short()
		}
	case errors.Is(err, plumbing.ErrReferenceNotFound):
		// Unborn branch: HEAD is symbolic and its target does not exist yet.
		ref, rerr := repo.Storer.Reference(plumbing.HEAD)
		if rerr == nil && ref.Type() == plumbing.SymbolicReference {
			info.Branch = ref.Target().Short()
		}
	default:
		return nil, fmt.Errorf("resolve HEAD: %w", err)
	}

	return info, nil
}
