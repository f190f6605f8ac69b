// Package command implements the winebuild commandline interface.
package command

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/electrumsv/winebuild/internal/cfg"
	"github.com/electrumsv/winebuild/internal/exec"
	"github.com/electrumsv/winebuild/internal/log"
	"github.com/electrumsv/winebuild/internal/pipeline"
)

var rootCmd = &cobra.Command{
	Use:   "winebuild",
	Short: "winebuild produces reproducible windows installers of ElectrumSV.",
	Long: `winebuild builds byte-reproducible windows installer artifacts from an
application checkout, on a linux host through wine.
It is run without arguments from the root of the checkout, the pipeline
configuration is read from ` + cfg.PipelineFile + `.
The last output line per produced installer is its sha256 checksum, the
verifiable release fingerprint.`,
	Args:             cobra.NoArgs,
	PersistentPreRun: initLogging,
	RunE:             runBuild,
	// errors are printed via log, with the failed stage as context
	SilenceErrors: true,
	SilenceUsage:  true,
}

var (
	verboseFlag bool
	noColorFlag bool
)

var exitFunc = os.Exit

func initLogging(_ *cobra.Command, _ []string) {
	if verboseFlag {
		log.StdLogger.EnableDebug(true)
		exec.DefaultLogFn = log.StdLogger.Debugf
	}

	if noColorFlag {
		color.NoColor = true
	}
}

// Execute parses commandline flags and executes their actions.
func Execute() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColorFlag, "no-color", false, "disable color output")

	if err := rootCmd.Execute(); err != nil {
		log.Errorf("%s\n", err)
		exitFunc(exitCodeError)
	}
}

func runBuild(cmd *cobra.Command, _ []string) error {
	workDir, err := os.Getwd()
	if err != nil {
		return err
	}

	config, err := cfg.FromFile(filepath.Join(workDir, cfg.PipelineFile))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s not found in %s, winebuild must be run from the checkout root (run 'winebuild init' to create one)",
				cfg.PipelineFile, workDir)
		}

		return err
	}

	p, err := pipeline.New(workDir, config)
	if err != nil {
		return err
	}

	summary, err := p.Run(cmd.Context())
	if err != nil {
		return err
	}

	for _, installer := range summary.Installers {
		fmt.Printf("%s  %s\n", installer.Digest.Hex(), filepath.Base(installer.Path))
	}

	return nil
}
