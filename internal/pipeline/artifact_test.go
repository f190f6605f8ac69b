package pipeline

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/electrumsv/winebuild/internal/log"
	"github.com/electrumsv/winebuild/internal/testutils/fstest"
	"github.com/electrumsv/winebuild/internal/version"
)

// artifactTestPipeline returns a pipeline whose sources stage already ran,
// with the build spec and installer script in place.
func artifactTestPipeline(t *testing.T) *Pipeline {
	t.Helper()

	p := localeTestPipeline(t)
	p.env = os.Environ()
	p.version = &version.BuildVersion{Version: "v2.0.0", CommitID: "abc1234", IsRelease: true}

	fstest.WriteToFile(t, []byte(buildSpecYaml), p.path(p.Cfg.Build.SpecFile))
	fstest.WriteToFile(t, []byte("; nsis installer script\n"), p.path(p.Cfg.Build.NSISScript))
	fstest.WriteToFile(t, []byte("#!/usr/bin/env python3\n"), p.path("electrum-sv"))

	return p
}

func TestBuildArtifactsProducesNamedInstaller(t *testing.T) {
	log.RedirectToTestingLog(t)

	p := artifactTestPipeline(t)

	staleFile := p.path(filepath.Join(p.Cfg.Build.DistDir, "leftover.exe"))
	fstest.WriteToFile(t, []byte("stale"), staleFile)

	installers, err := p.BuildArtifacts(ctx)
	require.NoError(t, err)

	require.Len(t, installers, 1)
	require.Equal(t, "electrumsv-v2.0.0-setup.exe", filepath.Base(installers[0].Path))
	require.NotNil(t, installers[0].Digest)
	require.FileExists(t, installers[0].Path)
	require.FileExists(t, installers[0].Path+".sha256")

	require.NoFileExists(t, staleFile)

	// the frozen executable carries the canonical timestamp
	fi, err := os.Stat(p.path(filepath.Join(p.Cfg.Build.DistDir, "electrum-sv.exe")))
	require.NoError(t, err)
	require.True(t, fi.ModTime().Equal(p.Cfg.Build.Timestamp))

	// the computed version is exported to the freezing tool
	require.Contains(t, wineInvocations(t, p), "env PRODUCT_VERSION=v2.0.0")
}

func TestBuildArtifactsWithoutVersionFails(t *testing.T) {
	log.RedirectToTestingLog(t)

	p := artifactTestPipeline(t)
	p.version = nil

	_, err := p.BuildArtifacts(ctx)
	require.Error(t, err)
}

func TestBuildArtifactsMissingMakensisFails(t *testing.T) {
	log.RedirectToTestingLog(t)

	p := artifactTestPipeline(t)
	p.Cfg.Tools.Makensis = p.path("does-not-exist")

	_, err := p.BuildArtifacts(ctx)
	require.Error(t, err)

	var toolErr *ToolMissingError
	require.True(t, errors.As(err, &toolErr))
}

func TestBuildArtifactsMissingBuildSpecFails(t *testing.T) {
	log.RedirectToTestingLog(t)

	p := artifactTestPipeline(t)
	require.NoError(t, os.Remove(p.path(p.Cfg.Build.SpecFile)))

	_, err := p.BuildArtifacts(ctx)
	require.Error(t, err)
}

func TestBuildArtifactsNoInstallerProducedFails(t *testing.T) {
	log.RedirectToTestingLog(t)

	p := artifactTestPipeline(t)

	// an installer generator that produces nothing
	fstest.WriteExecutable(t, []byte("#!/bin/sh\nexit 0\n"), p.Cfg.Tools.Makensis)

	_, err := p.BuildArtifacts(ctx)
	require.Error(t, err)
	require.Contains(t, err.Error(), "expected exactly 1")
}

func TestBuildArtifactsFreezeFailureAborts(t *testing.T) {
	log.RedirectToTestingLog(t)

	p := artifactTestPipeline(t)

	// freezing fails, no installer may be generated afterwards
	fstest.WriteExecutable(t, []byte("#!/bin/sh\nexit 1\n"), p.Cfg.Tools.Wine)

	_, err := p.BuildArtifacts(ctx)
	require.Error(t, err)

	entries, readErr := os.ReadDir(p.path(p.Cfg.Build.DistDir))
	require.NoError(t, readErr)
	require.Empty(t, entries, "a partial artifact was produced after a freeze failure")
}

func TestStateString(t *testing.T) {
	states := map[State]string{
		StateInitial:                "Initial",
		StateClean:                  "Clean",
		StateFrozen:                 "Frozen",
		StateTimestampCanonicalized: "TimestampCanonicalized",
		StateInstalled:              "Installed",
		StateRenamed:                "Renamed",
		StateChecksummed:            "Checksummed",
		State(99):                   "Invalid",
	}

	for state, str := range states {
		require.Equal(t, str, state.String())
	}
}

func TestAdvanceRejectsSkippedStates(t *testing.T) {
	b := artifactBuilder{}

	require.NoError(t, b.advance(StateClean))
	require.Error(t, b.advance(StateTimestampCanonicalized))
	require.Error(t, b.advance(StateClean))
}
