package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dd0wney/nodesel-dagger/pkg/config"
	"github.com/dd0wney/nodesel-dagger/pkg/logging"
	"github.com/dd0wney/nodesel-dagger/pkg/metrics"
	"github.com/dd0wney/nodesel-dagger/pkg/solverlog"
	"github.com/dd0wney/nodesel-dagger/pkg/trace"
)

type rootCmdConfig struct {
	configPath string
	logLevel   string

	cfg     *config.Config
	logger  logging.Logger
	metrics *metrics.Registry
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cliParser().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error: "+err.Error()))
		os.Exit(1)
	}
}

func cliParser() *cobra.Command {
	config := &rootCmdConfig{}
	rootCmd := &cobra.Command{
		Use:   "dagger",
		Short: "dagger learns node-selection policies from branch-and-bound solver logs",
		Long: `Reconstruct search trees from solver logs, label the nodes on the path to the
best solution, train ranking policies on the result and serve them to the solver.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.load()
		},
	}
	rootCmd.PersistentFlags().StringVarP(&config.configPath, "config", "c", "", "path to the YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&config.logLevel, "log-level", "", "log level (debug, info, warn, error); overrides the configuration")
	rootCmd.AddCommand(
		versionCmd(),
		makeDataCmd(config),
		trainCmd(config),
		serveCmd(config),
		scoreCmd(config),
		statsCmd(config),
		inspectCmd(config),
		exportCmd(config),
	)
	return rootCmd
}

func (c *rootCmdConfig) load() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if c.logLevel != "" {
		cfg.Log.Level = c.logLevel
	}
	c.cfg = cfg
	c.logger = cfg.Logger()
	logging.SetDefaultLogger(c.logger)
	c.metrics = metrics.DefaultRegistry()
	return nil
}

// builder returns a trace builder for the named layout and sense.
func (c *rootCmdConfig) builder(layoutName, sense string) (*solverlog.Builder, error) {
	layout, err := c.cfg.Layout(layoutName)
	if err != nil {
		return nil, err
	}
	s, err := trace.ParseSense(sense)
	if err != nil {
		return nil, err
	}
	return solverlog.NewBuilder(layout,
		solverlog.WithSense(s),
		solverlog.WithLogger(c.logger),
		solverlog.WithMetrics(c.metrics),
	), nil
}
