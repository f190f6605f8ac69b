package pipeline

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/electrumsv/winebuild/internal/digest/sha256"
	"github.com/electrumsv/winebuild/internal/lockfile"
	"github.com/electrumsv/winebuild/internal/log"
	"github.com/electrumsv/winebuild/internal/testutils/fstest"
)

func depsTestPipeline(t *testing.T) *Pipeline {
	t.Helper()

	p := localeTestPipeline(t)
	p.env = os.Environ()

	return p
}

// wineInvocations returns the logged invocations of the stub wine tool.
func wineInvocations(t *testing.T, p *Pipeline) []string {
	t.Helper()

	logPath := filepath.Join(filepath.Dir(p.Cfg.Tools.Wine), "invocations.log")

	content, err := os.ReadFile(logPath)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)

	return strings.Split(strings.TrimSpace(string(content)), "\n")
}

func TestFreezeDependenciesInstallsAllSets(t *testing.T) {
	log.RedirectToTestingLog(t)

	p := depsTestPipeline(t)
	p.Cfg.Dependencies.HardwareLockfile = "contrib/deterministic-build/requirements-hw.txt"

	fstest.WriteToFile(t, []byte(validLockfile),
		p.path(p.Cfg.Dependencies.CoreLockfile))
	fstest.WriteToFile(t, []byte(validLockfile),
		p.path(p.Cfg.Dependencies.HardwareLockfile))

	require.NoError(t, p.FreezeDependencies(ctx))

	var installs []string
	for _, invocation := range wineInvocations(t, p) {
		if strings.Contains(invocation, "-m pip install") {
			installs = append(installs, invocation)
		}
	}

	require.Len(t, installs, 2)
	for _, invocation := range installs {
		require.Contains(t, invocation, "--require-hashes")
		require.Contains(t, invocation, "--no-deps")
	}
}

func TestFreezeDependenciesUnpinnedLockfileAbortsBeforeInstall(t *testing.T) {
	log.RedirectToTestingLog(t)

	p := depsTestPipeline(t)

	fstest.WriteToFile(t,
		[]byte("certifi>=2019.3.9 --hash=sha256:59b7658e26ca9c7339e00f8f4636cdfe59d34fa37b9b04f6f9e9926b3cece1a5\n"),
		p.path(p.Cfg.Dependencies.CoreLockfile))

	err := p.FreezeDependencies(ctx)
	require.Error(t, err)

	var verr *lockfile.ValidationError
	require.True(t, errors.As(err, &verr))

	require.Empty(t, wineInvocations(t, p), "pip was invoked despite an invalid lockfile")
}

func TestFreezeDependenciesMissingLockfileFails(t *testing.T) {
	log.RedirectToTestingLog(t)

	p := depsTestPipeline(t)

	require.Error(t, p.FreezeDependencies(ctx))
	require.Empty(t, wineInvocations(t, p))
}

func TestFreezeDependenciesWheelHashMismatchAbortsBeforeInstall(t *testing.T) {
	log.RedirectToTestingLog(t)

	p := depsTestPipeline(t)
	p.Cfg.Dependencies.WheelDir = "tmp/wheels"

	pinned := sha256.Sum([]byte("the published wheel"))
	fstest.WriteToFile(t,
		[]byte("pkg==1.0.0 --hash=sha256:"+pinned.Hex()+"\n"),
		p.path(p.Cfg.Dependencies.CoreLockfile))

	fstest.WriteToFile(t, []byte("a tampered wheel"),
		p.path(filepath.Join(p.Cfg.Dependencies.WheelDir, "pkg-1.0.0-py3-none-any.whl")))

	err := p.FreezeDependencies(ctx)
	require.Error(t, err)

	var merr *lockfile.HashMismatchError
	require.True(t, errors.As(err, &merr))

	require.Empty(t, wineInvocations(t, p), "pip was invoked despite a wheel hash mismatch")
}

func TestFreezeDependenciesVerifiedWheelCacheIsUsed(t *testing.T) {
	log.RedirectToTestingLog(t)

	p := depsTestPipeline(t)
	p.Cfg.Dependencies.WheelDir = "tmp/wheels"

	wheelContent := []byte("the published wheel")
	pinned := sha256.Sum(wheelContent)

	fstest.WriteToFile(t,
		[]byte("pkg==1.0.0 --hash=sha256:"+pinned.Hex()+"\n"),
		p.path(p.Cfg.Dependencies.CoreLockfile))
	fstest.WriteToFile(t, wheelContent,
		p.path(filepath.Join(p.Cfg.Dependencies.WheelDir, "pkg-1.0.0-py3-none-any.whl")))

	require.NoError(t, p.FreezeDependencies(ctx))

	invocations := wineInvocations(t, p)
	require.Len(t, invocations, 1)
	require.Contains(t, invocations[0], "--no-index")
	require.Contains(t, invocations[0], "--find-links")
}
