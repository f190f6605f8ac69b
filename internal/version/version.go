// Package version derives the version identifier of a source checkout.
package version

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/electrumsv/winebuild/internal/vcs/git"
)

// BuildVersion identifies the source revision a build is produced from.
// It is derived from git describe output, the same checkout state always
// yields the same BuildVersion.
type BuildVersion struct {
	// Version is the full identifier embedded in artifact names,
	// e.g. "v1.2.3", "v1.2.3-dirty" or a short commit id.
	Version string
	// CommitID is the abbreviated commit id of HEAD.
	CommitID string
	// Dirty is true if the worktree contained uncommitted changes.
	Dirty bool
	// IsRelease is true if HEAD is exactly at a tag that parses as a
	// semantic version and the worktree is clean.
	IsRelease bool
}

// String returns the full version identifier.
func (v *BuildVersion) String() string {
	return v.Version
}

// Derive computes the BuildVersion of the git repository represented by
// repo.
// The version is the git describe output: the tag name, with a "-dirty"
// suffix if tracked files have uncommitted changes, or the abbreviated
// commit id if no tag is reachable from HEAD.
// An error is returned if the git metadata can not be read, a build must
// never be produced without a trustworthy version identifier.
func Derive(ctx context.Context, repo *git.RepositoryState) (*BuildVersion, error) {
	if !git.CommandIsInstalled() {
		return nil, fmt.Errorf("git command not found in PATH, can not determine the build version")
	}

	describe, err := repo.Describe(ctx)
	if err != nil {
		return nil, fmt.Errorf("determining version via git describe failed: %w", err)
	}

	commitID, err := repo.ShortCommitID(ctx)
	if err != nil {
		return nil, fmt.Errorf("determining commit id failed: %w", err)
	}

	dirty, err := repo.WorktreeIsDirty(ctx)
	if err != nil {
		return nil, fmt.Errorf("determining the worktree state failed: %w", err)
	}

	v := BuildVersion{
		Version:  describe,
		CommitID: commitID,
		Dirty:    dirty,
	}
	v.IsRelease = !v.Dirty && isSemverTag(describe)

	return &v, nil
}

// isSemverTag returns true if describe output is exactly a tag that parses
// as a semantic version.
// Describe output for commits after a tag carries a "-<distance>-g<hash>"
// suffix and does not qualify.
func isSemverTag(describe string) bool {
	_, err := semver.StrictNewVersion(strings.TrimPrefix(describe, "v"))

	return err == nil
}
