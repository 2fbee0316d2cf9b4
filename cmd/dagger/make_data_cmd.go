package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dd0wney/nodesel-dagger/pkg/batchlog"
	"github.com/dd0wney/nodesel-dagger/pkg/oracle"
	"github.com/dd0wney/nodesel-dagger/pkg/pipeline"
)

type makeDataCmdConfig struct {
	*rootCmdConfig
	instancesDir  string
	trajectoryDir string
	logDir        string
	output        string
	firstK        int
	layout        string
	sense         string
	match         string
	runID         string
	noSync        bool
}

func makeDataCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &makeDataCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "make-data",
		Short: "Build labeled training batches from solver logs",
		Long: `Pair every instance's solver log with its trajectory file, rebuild and label
the search tree and append one batch of labeled records per instance to the
output batch file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			config.applyDefaults(cmd)
			if err := config.Validate(); err != nil {
				return err
			}
			return config.run(cmd)
		},
	}
	cmd.Flags().StringVarP(&config.instancesDir, "instances", "i", "", "directory of problem instances (default from config)")
	cmd.Flags().StringVarP(&config.trajectoryDir, "trajectories", "t", "", "directory of trajectory files (default from config)")
	cmd.Flags().StringVarP(&config.logDir, "logs", "l", "", "directory of solver logs (default from config)")
	cmd.Flags().StringVarP(&config.output, "output", "o", "", "batch file to append to (default from config)")
	cmd.Flags().IntVarP(&config.firstK, "first-k", "k", 0, "only process the first k instances (0 means all)")
	cmd.Flags().StringVar(&config.layout, "layout", "", "solver log layout name (default from config)")
	cmd.Flags().StringVar(&config.sense, "sense", "", "objective sense, min or max (default from config)")
	cmd.Flags().StringVar(&config.match, "match", "full", "branch history match: full or last-write")
	cmd.Flags().StringVar(&config.runID, "run-id", "", "run id stamped on every batch (default random)")
	cmd.Flags().BoolVar(&config.noSync, "no-sync", false, "skip the fsync after every instance")
	return cmd
}

func (c *makeDataCmdConfig) applyDefaults(cmd *cobra.Command) {
	p := c.cfg.Pipeline
	if c.instancesDir == "" {
		c.instancesDir = p.InstancesDir
	}
	if c.trajectoryDir == "" {
		c.trajectoryDir = p.TrajectoryDir
	}
	if c.logDir == "" {
		c.logDir = p.LogDir
	}
	if c.output == "" {
		c.output = p.Output
	}
	if !cmd.Flags().Changed("first-k") {
		c.firstK = p.FirstK
	}
	if c.layout == "" {
		c.layout = p.Layout
	}
	if c.sense == "" {
		c.sense = p.Sense
	}
}

// Validate checks the flags once defaults are applied.
func (c *makeDataCmdConfig) Validate() error {
	if c.instancesDir == "" {
		return fmt.Errorf("an instances directory is required")
	}
	if c.output == "" {
		return fmt.Errorf("an output batch file is required")
	}
	if c.firstK < 0 {
		return fmt.Errorf("first-k must be non-negative, got %d", c.firstK)
	}
	if _, err := matchFunc(c.match); err != nil {
		return err
	}
	return nil
}

func matchFunc(name string) (oracle.MatchFunc, error) {
	switch name {
	case "full":
		return oracle.FullMatch, nil
	case "last-write":
		return oracle.LastWriteWins, nil
	default:
		return nil, fmt.Errorf("unknown match %q: want full or last-write", name)
	}
}

func (c *makeDataCmdConfig) run(cmd *cobra.Command) error {
	builder, err := c.builder(c.layout, c.sense)
	if err != nil {
		return err
	}
	match, _ := matchFunc(c.match)

	w, err := batchlog.Open(c.output)
	if err != nil {
		return err
	}
	defer w.Close()
	w.SetSync(!c.noSync)

	p := pipeline.New(
		pipeline.Dirs{Instances: c.instancesDir, Trajectories: c.trajectoryDir, Logs: c.logDir},
		builder,
		pipeline.WithLogger(c.logger),
		pipeline.WithMetrics(c.metrics),
		pipeline.WithLabeler(oracle.NewLabeler(oracle.WithMatch(match))),
		pipeline.WithFirstK(c.firstK),
		pipeline.WithRunID(c.runID),
	)

	sum, err := p.Run(cmd.Context(), w)
	if sum != nil {
		printSummary(cmd, sum, w.Stats())
	}
	if err != nil {
		return err
	}
	return w.Close()
}

func printSummary(cmd *cobra.Command, sum *pipeline.Summary, st batchlog.Stats) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, titleStyle.Render("make-data "+sum.RunID))
	fmt.Fprintln(out, keyValues([][2]string{
		{"processed", strconv.Itoa(sum.Processed)},
		{"written", successStyle.Render(strconv.Itoa(sum.Written))},
		{"missing files", strconv.Itoa(sum.SkippedMissing)},
		{"unreadable logs", strconv.Itoa(sum.SkippedUnreadable)},
		{"structural errors", strconv.Itoa(sum.SkippedStructural)},
		{"unencodable batches", strconv.Itoa(sum.SkippedUnencodable)},
		{"no incumbent", strconv.Itoa(sum.ZeroIncumbent)},
		{"no positive", strconv.Itoa(sum.ZeroPositive)},
		{"records", strconv.Itoa(sum.Records)},
		{"positives", strconv.Itoa(sum.Positives)},
		{"dropped observations", strconv.Itoa(sum.DroppedObservations)},
		{"log parse errors", strconv.Itoa(sum.LogParseErrors)},
		{"trajectory parse errors", strconv.Itoa(sum.TrajParseErrors)},
		{"mean incumbents", fmt.Sprintf("%.2f", sum.MeanIncumbents)},
		{"mean incumbents (>1)", fmt.Sprintf("%.2f", sum.MeanIncumbentsMulti)},
		{"compression", fmt.Sprintf("%d -> %d bytes (%.0f%% smaller)", st.BytesUncompressed, st.BytesCompressed, 100*st.CompressionRatio)},
	}))
}
