package fs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var canonMtime = time.Date(2019, time.January, 1, 0, 0, 0, 0, time.UTC)

func TestCanonicalizeMTimesSetsAllEntries(t *testing.T) {
	tempDir := t.TempDir()

	paths := []string{
		filepath.Join(tempDir, "a"),
		filepath.Join(tempDir, "sub", "b"),
		filepath.Join(tempDir, "sub", "deeper", "c"),
	}

	for _, p := range paths {
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}

	require.NoError(t, CanonicalizeMTimes(tempDir, canonMtime))

	checkPaths := append([]string{
		tempDir,
		filepath.Join(tempDir, "sub"),
		filepath.Join(tempDir, "sub", "deeper"),
	}, paths...)

	for _, p := range checkPaths {
		fi, err := os.Stat(p)
		require.NoError(t, err)
		require.Truef(t, fi.ModTime().Equal(canonMtime),
			"mtime of %q is %s, expected %s", p, fi.ModTime(), canonMtime)
	}
}

func TestCanonicalizeMTimesIsIdempotent(t *testing.T) {
	tempDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "f"), []byte("x"), 0o644))

	require.NoError(t, CanonicalizeMTimes(tempDir, canonMtime))

	before, err := os.Stat(filepath.Join(tempDir, "f"))
	require.NoError(t, err)

	require.NoError(t, CanonicalizeMTimes(tempDir, canonMtime))

	after, err := os.Stat(filepath.Join(tempDir, "f"))
	require.NoError(t, err)
	require.True(t, after.ModTime().Equal(before.ModTime()))
	require.True(t, after.ModTime().Equal(canonMtime))
}

func TestCanonicalizeMTimesMissingRootFails(t *testing.T) {
	err := CanonicalizeMTimes(filepath.Join(t.TempDir(), "does-not-exist"), canonMtime)
	require.Error(t, err)
}
