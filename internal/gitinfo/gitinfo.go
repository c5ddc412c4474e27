// Package gitinfo exposes repository metadata as builtin deploy variables.
package gitinfo

import (
	"errors"
	"fmt"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Lookup returns GIT_COMMIT and GIT_BRANCH for the repository containing
// path. A path outside any repository (or an empty repository) yields a nil
// map rather than an error, so callers can skip the variables silently.
func Lookup(path string) (map[string]any, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}

	head, err := repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve HEAD: %w", err)
	}

	return map[string]any{
		"GIT_COMMIT": head.Hash().String(),
		"GIT_BRANCH": head.Name().Short(),
	}, nil
}
