package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/dd0wney/nodesel-dagger/pkg/config"
	"github.com/dd0wney/nodesel-dagger/pkg/training"
)

type trainCmdConfig struct {
	*rootCmdConfig
	input        string
	startIter    int
	flushPartial bool
	trees        int
	storeDir     string
}

func trainCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &trainCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train search policies from a batch file",
		Long: `Replay a batch file, hold out the first instances for evaluation and train one
policy iteration per batch of instances, each warm-started from the previous one.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			config.applyDefaults(cmd)
			if err := config.Validate(); err != nil {
				return err
			}
			return config.run(cmd)
		},
	}
	cmd.Flags().StringVarP(&config.input, "input", "i", "", "batch file to train from (default from config)")
	cmd.Flags().IntVar(&config.startIter, "start-iter", 0, "first iteration id; continues from policy start-iter-1 when positive")
	cmd.Flags().BoolVar(&config.flushPartial, "flush-partial", false, "train on the final incomplete batch")
	cmd.Flags().IntVar(&config.trees, "trees", 0, "boosting rounds per iteration (default from config)")
	cmd.Flags().StringVar(&config.storeDir, "policy-dir", "", "store policies in this directory instead of the configured store")
	return cmd
}

func (c *trainCmdConfig) applyDefaults(cmd *cobra.Command) {
	t := c.cfg.Training
	if c.input == "" {
		c.input = t.Input
	}
	if !cmd.Flags().Changed("start-iter") {
		c.startIter = t.StartIter
	}
	if !cmd.Flags().Changed("flush-partial") {
		c.flushPartial = t.FlushPartial
	}
	if c.trees == 0 {
		c.trees = t.Model.Trees
	}
}

// Validate checks the flags once defaults are applied.
func (c *trainCmdConfig) Validate() error {
	if c.input == "" {
		return fmt.Errorf("an input batch file is required")
	}
	if c.startIter < 0 {
		return fmt.Errorf("start-iter must be non-negative, got %d", c.startIter)
	}
	params := c.cfg.Training.Model
	params.Trees = c.trees
	return params.Validate()
}

func (c *trainCmdConfig) run(cmd *cobra.Command) error {
	ctx := cmd.Context()
	storeCfg := c.cfg.Training.Store
	if c.storeDir != "" {
		storeCfg = config.StoreConfig{Kind: "dir", Dir: c.storeDir}
	}
	store, err := storeCfg.Open(ctx)
	if err != nil {
		return fmt.Errorf("open policy store: %w", err)
	}

	t := c.cfg.Training
	params := t.Model
	params.Trees = c.trees
	trainer := training.New(training.Config{
		EvalInstances:  t.EvalInstances,
		EvalExamples:   t.EvalExamples,
		BatchInstances: t.BatchInstances,
		BatchExamples:  t.BatchExamples,
		FlushPartial:   c.flushPartial,
		StartIter:      c.startIter,
		Params:         params,
	}, store, training.WithLogger(c.logger), training.WithMetrics(c.metrics))

	report, err := trainer.Run(ctx, c.input)
	if report != nil {
		printTrainingReport(cmd, report)
	}
	if err != nil {
		return err
	}
	return report.Require()
}

func printTrainingReport(cmd *cobra.Command, r *training.Report) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, titleStyle.Render("training"))
	fmt.Fprintln(out, keyValues([][2]string{
		{"eval instances", strconv.Itoa(r.EvalInstances)},
		{"eval examples", strconv.Itoa(r.EvalExamples)},
		{"empty instances", strconv.Itoa(r.EmptyInstances)},
		{"groups kept", strconv.Itoa(r.Groups.Kept)},
		{"groups without positive", strconv.Itoa(r.Groups.NoPositive)},
		{"groups after frontier growth", strconv.Itoa(r.Groups.FrontierGrowth)},
	}))
	if len(r.Iterations) == 0 {
		return
	}

	rows := make([][]string, 0, len(r.Iterations))
	for _, it := range r.Iterations {
		rows = append(rows, []string{
			strconv.Itoa(it.Iter),
			strconv.Itoa(it.Instances),
			strconv.Itoa(it.Examples),
			strconv.Itoa(it.Trees),
			fmt.Sprintf("%.3f", it.Train.PairwiseAccuracy),
			fmt.Sprintf("%.3f", it.Eval.PairwiseAccuracy),
			fmt.Sprintf("%.3f", it.Eval.NDCG),
			fmt.Sprintf("%.3f", it.Eval.Top1),
			it.Duration.Round(time.Millisecond).String(),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"iter", "instances", "examples", "trees", "train pairwise", "eval pairwise", "eval ndcg", "eval top1", "time"},
		rows, false))
}
