package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dd0wney/nodesel-dagger/pkg/batchlog"
)

type exportCmdConfig struct {
	*rootCmdConfig
	output string
}

func exportCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &exportCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "export BATCHFILE",
		Short: "Write the records of a batch file as JSON lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if config.output == "" || config.output == "-" {
				return batchlog.ExportJSONLines(args[0], cmd.OutOrStdout())
			}
			f, err := os.Create(config.output)
			if err != nil {
				return fmt.Errorf("create export file: %w", err)
			}
			if err := batchlog.ExportJSONLines(args[0], f); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		},
	}
	cmd.Flags().StringVarP(&config.output, "output", "o", "-", "destination file, - for stdout")
	return cmd
}
