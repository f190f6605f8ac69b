package pipeline

import (
	"context"
	"fmt"

	"github.com/electrumsv/winebuild/internal/log"
	"github.com/electrumsv/winebuild/internal/vcs/git"
	"github.com/electrumsv/winebuild/internal/version"
)

// SyncSources updates the vendored sub-resource trees of the checkout to
// their recorded revisions and computes the version identifier of the build.
// A checkout whose version can not be determined aborts the pipeline, an
// un-versioned artifact must never be produced.
func (p *Pipeline) SyncSources(ctx context.Context) error {
	if submodules := p.Cfg.Sources.Submodules; len(submodules) != 0 {
		log.Debugf("updating %d vendored submodules\n", len(submodules))

		if err := git.SubmoduleUpdate(ctx, p.RepoRoot, submodules...); err != nil {
			return err
		}
	}

	v, err := version.Derive(ctx, p.repoState)
	if err != nil {
		return fmt.Errorf("deriving the build version failed: %w", err)
	}

	p.version = v

	log.Infof("version: %s (commit %s)\n", v.Version, v.CommitID)
	if v.Dirty {
		log.Infof("worktree contains uncommitted changes, version carries a -dirty suffix\n")
	}

	return nil
}
