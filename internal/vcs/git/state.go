package git

import (
	"context"
	"sync"
)

// RepositoryState lazy-loads and caches the describe output and worktree
// state of a Git repository.
type RepositoryState struct {
	path string

	lock            sync.Mutex
	describe        *string
	shortCommitID   *string
	worktreeIsDirty *bool
}

// NewRepositoryState initializes a RepositoryState for the given git
// repository.
func NewRepositoryState(repositoryPath string) *RepositoryState {
	return &RepositoryState{
		path: repositoryPath,
	}
}

// Describe calls git.Describe() for the repository.
// After the first successful call the result is stored and the stored value
// is returned on successive calls.
func (g *RepositoryState) Describe(ctx context.Context) (string, error) {
	g.lock.Lock()
	defer g.lock.Unlock()

	if g.describe == nil {
		describe, err := Describe(ctx, g.path)
		if err != nil {
			return "", err
		}

		g.describe = &describe
	}

	return *g.describe, nil
}

// ShortCommitID calls git.ShortCommitID() for the repository.
// After the first successful call the result is stored and the stored value
// is returned on successive calls.
func (g *RepositoryState) ShortCommitID(ctx context.Context) (string, error) {
	g.lock.Lock()
	defer g.lock.Unlock()

	if g.shortCommitID == nil {
		commitID, err := ShortCommitID(ctx, g.path)
		if err != nil {
			return "", err
		}

		g.shortCommitID = &commitID
	}

	return *g.shortCommitID, nil
}

// WorktreeIsDirty calls git.WorktreeIsDirty().
// After the first successful call the result is stored and the stored value
// is returned on successive calls.
func (g *RepositoryState) WorktreeIsDirty(ctx context.Context) (bool, error) {
	g.lock.Lock()
	defer g.lock.Unlock()

	if g.worktreeIsDirty == nil {
		isDirty, err := WorktreeIsDirty(ctx, g.path)
		if err != nil {
			return false, err
		}

		g.worktreeIsDirty = &isDirty
	}

	return *g.worktreeIsDirty, nil
}
