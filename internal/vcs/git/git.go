// Package git provides functionality to interact with a Git repository.
package git

import (
	"context"
	"errors"
	"fmt"
	stdexec "os/exec"
	"strings"

	"github.com/electrumsv/winebuild/internal/exec"
)

// CommandIsInstalled returns true if an executable called "git" is found in
// the directories listed in the PATH environment variable.
func CommandIsInstalled() bool {
	_, err := stdexec.LookPath("git")

	return err == nil
}

// ShortCommitID returns the abbreviated commit id of HEAD.
func ShortCommitID(ctx context.Context, dir string) (string, error) {
	res, err := exec.Command("git", "rev-parse", "--short", "HEAD").
		Directory(dir).ExpectSuccess().Run(ctx)
	if err != nil {
		return "", err
	}

	commitID := strings.TrimSpace(res.StrOutput())
	if commitID == "" {
		return "", errors.New("executing git rev-parse --short HEAD failed, no output")
	}

	return commitID, nil
}

// Describe returns the output of git describe for the most recent tag
// reachable from HEAD.
// If the worktree contains modified tracked files, the result carries a
// "-dirty" suffix.
// If no tag exists, the abbreviated commit id is returned instead
// (git describe --always semantics).
func Describe(ctx context.Context, dir string) (string, error) {
	res, err := exec.Command("git", "describe", "--tags", "--dirty", "--always").
		Directory(dir).ExpectSuccess().Run(ctx)
	if err != nil {
		return "", err
	}

	describe := strings.TrimSpace(res.StrOutput())
	if describe == "" {
		return "", errors.New("executing git describe failed, no output")
	}

	return describe, nil
}

// WorktreeIsDirty returns true if the repository contains modified tracked
// files.
// Untracked files are ignored, the pipeline writes its outputs into the
// checkout and they must not taint the version.
func WorktreeIsDirty(ctx context.Context, dir string) (bool, error) {
	res, err := exec.Command("git", "status", "-s", "-uno").
		Directory(dir).ExpectSuccess().Run(ctx)
	if err != nil {
		return false, err
	}

	return len(res.Output) != 0, nil
}

// SubmoduleUpdate initializes and updates the submodules at the passed
// repository relative paths to their recorded revisions.
// Passing no paths updates all submodules of the repository.
func SubmoduleUpdate(ctx context.Context, dir string, paths ...string) error {
	args := append([]string{"submodule", "update", "--init"}, paths...)

	_, err := exec.Command("git", args...).
		Directory(dir).ExpectSuccess().Run(ctx)
	if err != nil {
		return fmt.Errorf("updating git submodules failed: %w", err)
	}

	return nil
}
