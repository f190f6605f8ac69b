package pipeline

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/electrumsv/winebuild/internal/log"
	"github.com/electrumsv/winebuild/internal/testutils/fstest"
)

func TestSyncSourcesComputesVersion(t *testing.T) {
	log.RedirectToTestingLog(t)

	repoDir := createCheckout(t, "v1.5.0")
	config := testConfig(t, writeStubTools(t, repoDir))

	p, err := New(repoDir, config)
	require.NoError(t, err)
	require.Nil(t, p.Version())

	require.NoError(t, p.SyncSources(ctx))

	v := p.Version()
	require.NotNil(t, v)
	require.Equal(t, "v1.5.0", v.Version)
	require.True(t, v.IsRelease)
}

func TestSyncSourcesDirtyCheckoutIsNoRelease(t *testing.T) {
	log.RedirectToTestingLog(t)

	repoDir := createCheckout(t, "v1.5.0")
	config := testConfig(t, writeStubTools(t, repoDir))

	fstest.WriteToFile(t, []byte("# modified\n"), filepath.Join(repoDir, "electrum-sv"))

	p, err := New(repoDir, config)
	require.NoError(t, err)

	require.NoError(t, p.SyncSources(ctx))

	v := p.Version()
	require.Equal(t, "v1.5.0-dirty", v.Version)
	require.True(t, v.Dirty)
	require.False(t, v.IsRelease)
}

func TestSyncSourcesFailsOutsideRepository(t *testing.T) {
	log.RedirectToTestingLog(t)

	repoDir := t.TempDir()
	config := testConfig(t, writeStubTools(t, repoDir))

	p, err := New(repoDir, config)
	require.NoError(t, err)

	require.Error(t, p.SyncSources(ctx))
	require.Nil(t, p.Version())
}
