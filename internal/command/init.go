package command

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/electrumsv/winebuild/internal/cfg"
)

func init() {
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "create an exemplary " + cfg.PipelineFile + " in the current directory",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		workDir, err := os.Getwd()
		if err != nil {
			return err
		}

		path := filepath.Join(workDir, cfg.PipelineFile)
		if err := cfg.NewPipelineFile(path); err != nil {
			if os.IsExist(err) {
				return fmt.Errorf("%s already exists", path)
			}

			return err
		}

		fmt.Printf("%s created, adapt it to the checkout and run winebuild\n", cfg.PipelineFile)

		return nil
	},
}
