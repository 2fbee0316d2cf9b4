package stats

import (
	"context"
	"fmt"

	"github.com/dd0wney/nodesel-dagger/pkg/logging"
	"github.com/dd0wney/nodesel-dagger/pkg/parallel"
	"github.com/dd0wney/nodesel-dagger/pkg/solverlog"
	"github.com/dd0wney/nodesel-dagger/pkg/validation"
)

// Collector reads solver logs into rows.
type Collector struct {
	builder *solverlog.Builder
	workers int
	logger  logging.Logger
}

// NewCollector creates a collector parsing node records with builder and
// reading up to workers logs at once; workers <= 0 reads one at a time.
func NewCollector(builder *solverlog.Builder, workers int, logger logging.Logger) *Collector {
	return &Collector{
		builder: builder,
		workers: validation.DefaultOrInt(workers, 1),
		logger:  logging.OrDefault(logger).With(logging.Component("stats")),
	}
}

// CollectFile builds the row of one log. The best-primal and presolve
// times come from the reconstructed trace and are -1 when it cannot be
// built.
func (c *Collector) CollectFile(path string) (Row, error) {
	name := solverlog.InstanceName(path)
	lines, err := solverlog.ReadLines(path)
	if err != nil {
		return Row{Instance: name}, fmt.Errorf("read %s: %w", path, err)
	}

	sum := solverlog.ParseSummary(lines)
	if !sum.Finished {
		c.logger.Warn("solve did not finish", logging.Instance(name))
		return Row{Instance: name}, nil
	}

	row := Row{
		Instance:       name,
		Finished:       true,
		SolvingTime:    sum.SolvingTime,
		Nodes:          sum.Nodes,
		Gap:            sum.Gap,
		DualBound:      sum.DualBound,
		PrimalBound:    sum.PrimalBound,
		Optimal:        sum.Optimal,
		OptimalGap:     sum.OptimalGap,
		BestPrimalTime: -1,
		PresolveTime:   -1,
		BranchTime:     sum.BranchTime,
		BranchedVars:   sum.BranchedVars,
	}

	tr, err := c.builder.Build(name, lines)
	if err != nil {
		c.logger.Debug("no search trace for timing columns", logging.Instance(name), logging.Error(err))
		return row, nil
	}
	row.BestPrimalTime = tr.TimeToBestPrimalBound
	row.PresolveTime = tr.PresolveDuration
	return row, nil
}

// Collect reads every log in paths concurrently. Rows keep the order of
// paths; a log that cannot be read yields its error and is left out.
func (c *Collector) Collect(ctx context.Context, paths []string) ([]Row, error) {
	rows, errs := parallel.Map(ctx, c.workers, paths, func(_ context.Context, path string) (Row, error) {
		return c.CollectFile(path)
	})

	out := make([]Row, 0, len(rows))
	var firstErr error
	for i, row := range rows {
		if errs[i] != nil {
			c.logger.Error("collect failed", logging.Path(paths[i]), logging.Error(errs[i]))
			if firstErr == nil {
				firstErr = errs[i]
			}
			continue
		}
		out = append(out, row)
	}
	if err := ctx.Err(); err != nil {
		return out, err
	}
	if len(out) == 0 && firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}
