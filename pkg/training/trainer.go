// Package training fits successive search policy iterations from batch
// files written by make-data.
package training

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dd0wney/nodesel-dagger/pkg/batchlog"
	"github.com/dd0wney/nodesel-dagger/pkg/gbrank"
	"github.com/dd0wney/nodesel-dagger/pkg/logging"
	"github.com/dd0wney/nodesel-dagger/pkg/metrics"
	"github.com/dd0wney/nodesel-dagger/pkg/policy"
	"github.com/dd0wney/nodesel-dagger/pkg/ranking"
)

// ErrNoIterations is returned by Require when a run trained nothing.
var ErrNoIterations = errors.New("no training iteration produced")

// Config controls how instances are split into the evaluation set and
// training batches.
type Config struct {
	// EvalInstances non-empty instances are held out first; EvalExamples,
	// when positive, also caps the held-out rows.
	EvalInstances int
	EvalExamples  int
	// A training batch closes after BatchInstances instances or, when
	// positive, BatchExamples rows, whichever comes first.
	BatchInstances int
	BatchExamples  int
	// FlushPartial trains on the final incomplete batch.
	FlushPartial bool
	// StartIter > 0 warm-starts from stored iteration StartIter-1.
	StartIter int
	Params    gbrank.Params
}

// IterationReport describes one trained policy.
type IterationReport struct {
	Iter      int
	Instances int
	Examples  int
	Trees     int
	Train     ranking.Evaluation
	Eval      ranking.Evaluation
	Duration  time.Duration
}

// Report summarizes a training run.
type Report struct {
	EvalInstances int
	EvalExamples  int
	// EmptyInstances had no group left after filtering.
	EmptyInstances int
	Groups         ranking.FilterStats
	Iterations     []IterationReport
}

// Trainer turns a stream of batches into stored policies.
type Trainer struct {
	cfg     Config
	store   policy.Store
	logger  logging.Logger
	metrics *metrics.Registry
}

// Option configures a Trainer.
type Option func(*Trainer)

// WithLogger sets the trainer logger.
func WithLogger(l logging.Logger) Option {
	return func(t *Trainer) { t.logger = l }
}

// WithMetrics enables training metrics.
func WithMetrics(r *metrics.Registry) Option {
	return func(t *Trainer) { t.metrics = r }
}

// New creates a trainer saving policies to store.
func New(cfg Config, store policy.Store, opts ...Option) *Trainer {
	t := &Trainer{
		cfg:    cfg,
		store:  store,
		logger: logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// run is the state of one pass over a batch file.
type run struct {
	ctx    context.Context
	report *Report
	iter   int
	prev   *gbrank.Booster

	eval          ranking.Dataset
	evalInstances int
	evalFull      bool

	batch          ranking.Dataset
	batchInstances int
}

// Run trains from the batch file at path.
func (t *Trainer) Run(ctx context.Context, path string) (*Report, error) {
	r := &run{
		ctx:    ctx,
		report: &Report{Iterations: make([]IterationReport, 0)},
		iter:   t.cfg.StartIter,
	}
	if t.cfg.StartIter > 0 {
		prev, err := t.store.Load(ctx, t.cfg.StartIter-1)
		if err != nil {
			return nil, fmt.Errorf("load warm start policy: %w", err)
		}
		prev.SetLogger(t.logger)
		r.prev = prev
	}

	err := batchlog.Replay(path, func(e *batchlog.Entry) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return t.consume(r, e.Batch)
	})
	if err != nil {
		return r.report, err
	}

	if t.cfg.FlushPartial && r.batchInstances > 0 {
		if err := t.trainIteration(r); err != nil {
			return r.report, err
		}
	}
	if len(r.report.Iterations) == 0 {
		t.logger.Warn("no training batch completed",
			logging.Int("pending_instances", r.batchInstances),
			logging.Bool("flush_partial", t.cfg.FlushPartial))
	}
	return r.report, nil
}

func (t *Trainer) consume(r *run, b *batchlog.Batch) error {
	groups, stats := ranking.Convert(b.Records)
	r.report.Groups.Kept += stats.Kept
	r.report.Groups.NoPositive += stats.NoPositive
	r.report.Groups.FrontierGrowth += stats.FrontierGrowth
	if t.metrics != nil {
		t.metrics.RecordGroups("kept", stats.Kept)
		t.metrics.RecordGroups("no_positive", stats.NoPositive)
		t.metrics.RecordGroups("frontier_growth", stats.FrontierGrowth)
	}
	if len(groups) == 0 {
		r.report.EmptyInstances++
		t.logger.Debug("instance has no usable group", logging.Instance(b.Instance))
		return nil
	}

	if !r.evalFull {
		r.eval.Append(groups...)
		r.evalInstances++
		r.report.EvalInstances = r.evalInstances
		r.report.EvalExamples = r.eval.Len()
		if r.evalInstances >= t.cfg.EvalInstances ||
			(t.cfg.EvalExamples > 0 && r.eval.Len() >= t.cfg.EvalExamples) {
			r.evalFull = true
			t.logger.Info("evaluation set complete",
				logging.Int("instances", r.evalInstances),
				logging.Int("examples", r.eval.Len()))
		}
		return nil
	}

	r.batch.Append(groups...)
	r.batchInstances++
	if r.batchInstances >= t.cfg.BatchInstances ||
		(t.cfg.BatchExamples > 0 && r.batch.Len() >= t.cfg.BatchExamples) {
		return t.trainIteration(r)
	}
	return nil
}

func (t *Trainer) trainIteration(r *run) error {
	start := time.Now()
	logger := t.logger.With(logging.PolicyID(r.iter))

	var eval *ranking.Dataset
	if r.eval.Len() > 0 {
		eval = &r.eval
	}

	b := r.prev
	var err error
	if b == nil {
		b = gbrank.New(t.cfg.Params, gbrank.WithLogger(logger))
		err = b.Fit(r.batch, eval)
	} else {
		b.Params = t.cfg.Params
		b.SetLogger(logger)
		err = b.Continue(r.batch, eval)
	}
	if err != nil {
		return fmt.Errorf("train policy %d: %w", r.iter, err)
	}
	if err := t.store.Save(r.ctx, r.iter, b); err != nil {
		return err
	}

	rep := IterationReport{
		Iter:      r.iter,
		Instances: r.batchInstances,
		Examples:  r.batch.Len(),
		Trees:     len(b.Trees),
		Duration:  time.Since(start),
	}
	rep.Train, err = ranking.Evaluate(b.PredictAll(r.batch.X), r.batch)
	if err != nil {
		return err
	}
	if eval != nil {
		rep.Eval, err = ranking.Evaluate(b.PredictAll(eval.X), *eval)
		if err != nil {
			return err
		}
	}
	r.report.Iterations = append(r.report.Iterations, rep)
	t.publish(logger, rep, r.eval.Len())

	r.prev = b
	r.iter++
	r.batch = ranking.Dataset{}
	r.batchInstances = 0
	return nil
}

func (t *Trainer) publish(logger logging.Logger, rep IterationReport, evalExamples int) {
	logger.Info("policy trained",
		logging.Int("instances", rep.Instances),
		logging.Int("examples", rep.Examples),
		logging.Int("trees", rep.Trees),
		logging.Float64("train_pairwise", rep.Train.PairwiseAccuracy),
		logging.Float64("eval_pairwise", rep.Eval.PairwiseAccuracy),
		logging.Float64("eval_top1", rep.Eval.Top1),
		logging.Latency(rep.Duration))

	if t.metrics == nil {
		return
	}
	t.metrics.RecordTrainingIteration(rep.Examples, evalExamples, rep.Duration)
	for name, v := range rep.Train.Metrics() {
		t.metrics.SetEvalMetric("train", name, v)
	}
	for name, v := range rep.Eval.Metrics() {
		t.metrics.SetEvalMetric("eval", name, v)
	}
}

// Require returns ErrNoIterations when the report holds no iteration.
func (r *Report) Require() error {
	if len(r.Iterations) == 0 {
		return ErrNoIterations
	}
	return nil
}
