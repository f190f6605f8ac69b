// Package gittest provides test utilities to set up git repositories.
package gittest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/electrumsv/winebuild/internal/exec"
)

var ctx = context.Background()

// CreateRepository initializes a git repository in directory and configures
// a committer identity so that commits succeed in bare test environments.
func CreateRepository(t *testing.T, directory string) {
	t.Helper()

	_, err := exec.Command("git", "init", ".").
		Directory(directory).ExpectSuccess().Run(ctx)
	require.NoError(t, err)

	_, err = exec.Command("git", "config", "user.email", "winebuild-test@localhost").
		Directory(directory).ExpectSuccess().Run(ctx)
	require.NoError(t, err)

	_, err = exec.Command("git", "config", "user.name", "winebuild test").
		Directory(directory).ExpectSuccess().Run(ctx)
	require.NoError(t, err)
}

// CommitAll adds and commits all files in the repository.
func CommitAll(t *testing.T, directory string) {
	t.Helper()

	_, err := exec.Command("git", "add", ".").
		Directory(directory).ExpectSuccess().Run(ctx)
	require.NoError(t, err)

	_, err = exec.Command("git", "commit", "-a", "-m", "winebuild commit").
		Directory(directory).ExpectSuccess().Run(ctx)
	require.NoError(t, err)
}

// Tag creates an annotated tag on HEAD.
func Tag(t *testing.T, directory, tag string) {
	t.Helper()

	_, err := exec.Command("git", "tag", "-a", "-m", tag, tag).
		Directory(directory).ExpectSuccess().Run(ctx)
	require.NoError(t, err)
}
