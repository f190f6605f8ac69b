package command

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/electrumsv/winebuild/internal/cfg"
	"github.com/electrumsv/winebuild/internal/log"
	"github.com/electrumsv/winebuild/internal/testutils/fstest"
)

func TestInitCreatesPipelineFile(t *testing.T) {
	log.RedirectToTestingLog(t)
	fstest.Chdir(t, t.TempDir())

	rootCmd.SetArgs([]string{"init"})
	require.NoError(t, rootCmd.Execute())

	require.FileExists(t, cfg.PipelineFile)

	// a second init must not overwrite the existing configuration
	rootCmd.SetArgs([]string{"init"})
	require.Error(t, rootCmd.Execute())
}

func TestBuildWithoutPipelineFileFails(t *testing.T) {
	log.RedirectToTestingLog(t)
	fstest.Chdir(t, t.TempDir())

	rootCmd.SetArgs([]string{})
	err := rootCmd.Execute()
	require.Error(t, err)
	require.Contains(t, err.Error(), cfg.PipelineFile)
}
