package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/dd0wney/nodesel-dagger/pkg/pipeline"
	"github.com/dd0wney/nodesel-dagger/pkg/stats"
)

type statsCmdConfig struct {
	*rootCmdConfig
	logDir      string
	layout      string
	output      string
	workers     int
	databaseURL string
	table       string
	runID       string
}

func statsCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &statsCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "stats [LOG...]",
		Short: "Tabulate solve statistics from solver logs",
		Long: `Read the statistics block of every solver log into one row per instance and
close the table with the geometric mean of each column. Without arguments every
.log file of the log directory is read.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			config.applyDefaults(cmd)
			if err := config.Validate(); err != nil {
				return err
			}
			return config.run(cmd, args)
		},
	}
	cmd.Flags().StringVarP(&config.logDir, "logs", "l", "", "directory of solver logs (default from config)")
	cmd.Flags().StringVar(&config.layout, "layout", "", "solver log layout name (default from config)")
	cmd.Flags().StringVarP(&config.output, "output", "o", "", "also write the table as plain text to this file")
	cmd.Flags().IntVarP(&config.workers, "workers", "w", 0, "logs read concurrently (default from config)")
	cmd.Flags().StringVar(&config.databaseURL, "database-url", "", "also insert the rows into this PostgreSQL database")
	cmd.Flags().StringVar(&config.table, "table", "", "PostgreSQL table name (default from config)")
	cmd.Flags().StringVar(&config.runID, "run-id", "", "run id stored with the rows (default random)")
	return cmd
}

func (c *statsCmdConfig) applyDefaults(cmd *cobra.Command) {
	s := c.cfg.Stats
	if c.logDir == "" {
		c.logDir = s.LogDir
	}
	if c.layout == "" {
		c.layout = s.Layout
	}
	if c.output == "" {
		c.output = s.Output
	}
	if !cmd.Flags().Changed("workers") {
		c.workers = s.Workers
	}
	if c.databaseURL == "" {
		c.databaseURL = s.DatabaseURL
	}
	if c.table == "" {
		c.table = s.Table
	}
	if c.runID == "" {
		c.runID = uuid.NewString()
	}
}

// Validate checks the flags once defaults are applied.
func (c *statsCmdConfig) Validate() error {
	if c.workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.workers)
	}
	if c.databaseURL != "" && c.table == "" {
		return fmt.Errorf("a table name is required with --database-url")
	}
	return nil
}

// logPaths returns args, or every .log file of the log directory in
// instance order.
func (c *statsCmdConfig) logPaths(args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	bases, err := pipeline.ListInstances(c.logDir, 0)
	if err != nil {
		return nil, err
	}
	paths := lo.Map(bases, func(base string, _ int) string {
		return filepath.Join(c.logDir, base+".log")
	})
	return lo.Uniq(lo.Filter(paths, func(p string, _ int) bool {
		info, err := os.Stat(p)
		return err == nil && info.Mode().IsRegular()
	})), nil
}

func (c *statsCmdConfig) run(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	paths, err := c.logPaths(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no solver logs found in %s", c.logDir)
	}

	builder, err := c.builder(c.layout, c.cfg.Pipeline.Sense)
	if err != nil {
		return err
	}
	rows, collectErr := stats.NewCollector(builder, c.workers, c.logger).Collect(ctx, paths)

	fmt.Fprintln(cmd.OutOrStdout(), renderTable(
		append([]string{"instance"}, stats.Columns...), stats.Cells(rows), true))

	if c.output != "" {
		if err := writeStatsFile(c.output, rows); err != nil {
			return err
		}
	}
	if c.databaseURL != "" {
		store, err := stats.NewPGStore(ctx, c.databaseURL, c.table)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.Insert(ctx, c.runID, rows); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(
			fmt.Sprintf("stored %d rows in %s under run %s", len(rows), c.table, c.runID)))
	}
	return collectErr
}

func writeStatsFile(path string, rows []stats.Row) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create stats file: %w", err)
	}
	if err := stats.WriteTable(f, rows); err != nil {
		f.Close()
		return fmt.Errorf("write stats file: %w", err)
	}
	return f.Close()
}
