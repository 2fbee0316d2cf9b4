package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/dd0wney/nodesel-dagger/pkg/features"
	"github.com/dd0wney/nodesel-dagger/pkg/oracle"
	"github.com/dd0wney/nodesel-dagger/pkg/ranking"
	"github.com/dd0wney/nodesel-dagger/pkg/stats"
	"github.com/dd0wney/nodesel-dagger/pkg/trace"
)

type inspectCmdConfig struct {
	*rootCmdConfig
	layout     string
	sense      string
	match      string
	trajectory string
	limit      int
	positives  bool
}

func inspectCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &inspectCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "inspect LOG",
		Short: "Show the reconstructed search tree of one solver log",
		Long: `Rebuild the search tree of one solver log, label it and print its incumbents
and nodes. With --trajectory the labeled records and ranking groups are shown
as make-data would produce them.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if config.layout == "" {
				config.layout = config.cfg.Pipeline.Layout
			}
			if config.sense == "" {
				config.sense = config.cfg.Pipeline.Sense
			}
			return config.run(cmd, args[0])
		},
	}
	cmd.Flags().StringVar(&config.layout, "layout", "", "solver log layout name (default from config)")
	cmd.Flags().StringVar(&config.sense, "sense", "", "objective sense, min or max (default from config)")
	cmd.Flags().StringVar(&config.match, "match", "full", "branch history match: full or last-write")
	cmd.Flags().StringVarP(&config.trajectory, "trajectory", "t", "", "trajectory file to join with the trace")
	cmd.Flags().IntVarP(&config.limit, "limit", "n", 40, "nodes to list (0 lists all)")
	cmd.Flags().BoolVarP(&config.positives, "positives", "p", false, "list only positively labeled nodes")
	return cmd
}

func (c *inspectCmdConfig) run(cmd *cobra.Command, path string) error {
	match, err := matchFunc(c.match)
	if err != nil {
		return err
	}
	builder, err := c.builder(c.layout, c.sense)
	if err != nil {
		return err
	}
	tr, err := builder.BuildTrace(path)
	if err != nil {
		if tr == nil || !trace.IsStructural(err) {
			return err
		}
		fmt.Fprintln(cmd.ErrOrStderr(), errorStyle.Render("warning: "+err.Error()))
	}
	positives := oracle.NewLabeler(oracle.WithMatch(match)).LabelAll(tr)

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, titleStyle.Render(tr.Name))
	fmt.Fprintln(out, keyValues([][2]string{
		{"sense", tr.Sense.String()},
		{"nodes", strconv.Itoa(len(tr.Chronological))},
		{"max id", strconv.Itoa(tr.MaxID)},
		{"skipped records", strconv.Itoa(tr.SkippedRecords)},
		{"dropped ids", fmt.Sprint(tr.DroppedIDs)},
		{"best primal bound", stats.FormatValue(tr.BestPrimalBound)},
		{"presolve", stats.FormatValue(tr.PresolveDuration)},
		{"time to best primal", stats.FormatValue(tr.TimeToBestPrimalBound)},
		{"incumbents", formatFloats(tr.AcceptedObjectives())},
		{"positive labels", successStyle.Render(strconv.Itoa(positives))},
	}))

	nodes := tr.Chronological
	if c.positives {
		nodes = lo.Filter(nodes, func(n *trace.Node, _ int) bool { return n.Label.Value == 1 })
	}
	if c.limit > 0 && len(nodes) > c.limit {
		nodes = nodes[:c.limit]
	}
	fmt.Fprintln(out, renderTable(
		[]string{"id", "depth", "lower", "upper", "primal", "dual", "time", "open", "label", "opt", "branches"},
		lo.Map(nodes, func(n *trace.Node, _ int) []string { return nodeRow(n) }),
		false))

	if c.trajectory != "" {
		return c.showRecords(cmd, tr)
	}
	return nil
}

func (c *inspectCmdConfig) showRecords(cmd *cobra.Command, tr *trace.InstanceTrace) error {
	traj, err := features.ReadFile(c.trajectory)
	if err != nil {
		return err
	}
	records, join := ranking.FromTrace(tr, traj.Observations)
	groups, filtered := ranking.Convert(records)

	fmt.Fprintln(cmd.OutOrStdout(), keyValues([][2]string{
		{"observations", strconv.Itoa(len(traj.Observations))},
		{"trajectory parse errors", strconv.Itoa(len(traj.Errors))},
		{"joined", strconv.Itoa(join.Joined)},
		{"out of range", strconv.Itoa(join.OutOfRange)},
		{"absent", strconv.Itoa(join.Absent)},
		{"groups kept", strconv.Itoa(filtered.Kept)},
		{"groups without positive", strconv.Itoa(filtered.NoPositive)},
		{"groups after frontier growth", strconv.Itoa(filtered.FrontierGrowth)},
		{"ranking rows", strconv.Itoa(lo.SumBy(groups, func(g ranking.Group) int { return g.Size() }))},
	}))
	return nil
}

func nodeRow(n *trace.Node) []string {
	label := "-"
	if n.Labelled {
		label = strconv.Itoa(n.Label.Value)
	}
	return []string{
		strconv.Itoa(n.ID),
		strconv.Itoa(n.Depth),
		stats.FormatValue(n.LowerBound),
		stats.FormatValue(n.UpperBound),
		stats.FormatValue(n.PrimalBound),
		stats.FormatValue(n.DualBound),
		stats.FormatValue(n.Time),
		strconv.Itoa(n.Remaining),
		label,
		strconv.Itoa(n.Label.MatchDepth),
		formatBranches(n.Branches),
	}
}

func formatBranches(bs []trace.BranchDecision) string {
	if len(bs) == 0 {
		return mutedStyle.Render("root")
	}
	return strings.Join(lo.Map(bs, func(b trace.BranchDecision, _ int) string { return b.String() }), " ")
}

func formatFloats(vs []float64) string {
	if len(vs) == 0 {
		return mutedStyle.Render("none")
	}
	return strings.Join(lo.Map(vs, func(v float64, _ int) string { return stats.FormatValue(v) }), " ")
}
