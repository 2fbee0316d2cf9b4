// Package pipeline turns solved instances into labeled training batches.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/dd0wney/nodesel-dagger/pkg/batchlog"
	"github.com/dd0wney/nodesel-dagger/pkg/features"
	"github.com/dd0wney/nodesel-dagger/pkg/logging"
	"github.com/dd0wney/nodesel-dagger/pkg/metrics"
	"github.com/dd0wney/nodesel-dagger/pkg/oracle"
	"github.com/dd0wney/nodesel-dagger/pkg/ranking"
	"github.com/dd0wney/nodesel-dagger/pkg/solverlog"
	"github.com/dd0wney/nodesel-dagger/pkg/trace"
)

// Outcome is what happened to one instance.
type Outcome string

const (
	Written      Outcome = "written"
	Missing      Outcome = "missing"
	Unreadable   Outcome = "unreadable"
	Structural   Outcome = "structural"
	NoIncumbent  Outcome = "no_incumbent"
	NoPositive   Outcome = "no_positive"
	EncodeFailed Outcome = "encode_failed"
	WriteFailed  Outcome = "write_failed"
)

// Dirs locates the inputs of a run.
type Dirs struct {
	Instances    string
	Trajectories string
	Logs         string
}

// LogPath returns the solver log of an instance.
func (d Dirs) LogPath(base string) string {
	return filepath.Join(d.Logs, base+".log")
}

// TrajectoryPath returns the trajectory file of an instance.
func (d Dirs) TrajectoryPath(base string) string {
	return filepath.Join(d.Trajectories, features.FileName(base))
}

// BatchWriter receives one batch per written instance.
type BatchWriter interface {
	Append(b *batchlog.Batch) (uint64, error)
}

// Pipeline builds, labels and converts instances one at a time.
type Pipeline struct {
	dirs    Dirs
	firstK  int
	builder *solverlog.Builder
	labeler *oracle.Labeler
	logger  logging.Logger
	metrics *metrics.Registry
	runID   string
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the run logger.
func WithLogger(l logging.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithMetrics enables instance and record counters.
func WithMetrics(r *metrics.Registry) Option {
	return func(p *Pipeline) { p.metrics = r }
}

// WithLabeler replaces the default labeler.
func WithLabeler(l *oracle.Labeler) Option {
	return func(p *Pipeline) { p.labeler = l }
}

// WithFirstK limits the run to the first k instances.
func WithFirstK(k int) Option {
	return func(p *Pipeline) { p.firstK = k }
}

// WithRunID fixes the run id instead of generating one.
func WithRunID(id string) Option {
	return func(p *Pipeline) { p.runID = id }
}

// New creates a pipeline.
func New(dirs Dirs, builder *solverlog.Builder, opts ...Option) *Pipeline {
	p := &Pipeline{
		dirs:    dirs,
		builder: builder,
		labeler: oracle.NewLabeler(),
		logger:  logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.runID == "" {
		p.runID = uuid.NewString()
	}
	return p
}

// RunID returns the id stamped on every batch of this run.
func (p *Pipeline) RunID() string {
	return p.runID
}

// Result describes one processed instance.
type Result struct {
	Instance   string
	Outcome    Outcome
	Batch      *batchlog.Batch
	Trace      *trace.InstanceTrace
	Join       ranking.JoinStats
	TrajErrors int
	Positives  int
	Err        error
}

// Run processes every listed instance and appends a batch for each one that
// yields usable records. Per-instance failures are counted in the summary;
// only listing failures, cancellation and I/O errors on the batch log stop
// the run. A batch that cannot be encoded is skipped like any other instance.
func (p *Pipeline) Run(ctx context.Context, w BatchWriter) (*Summary, error) {
	bases, err := ListInstances(p.dirs.Instances, p.firstK)
	if err != nil {
		return nil, err
	}

	logger := p.logger.With(logging.Component("pipeline"), logging.RunID(p.runID))
	logger.Info("make-data started", logging.Count(len(bases)))

	sum := newSummary(p.runID)
	for _, base := range bases {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		start := time.Now()
		res := p.Process(base)
		if res.Outcome == Written {
			if _, err := w.Append(res.Batch); err != nil {
				res.Outcome = WriteFailed
				if errors.Is(err, batchlog.ErrEncode) {
					res.Outcome = EncodeFailed
				}
				res.Err = err
			}
		}
		sum.add(res)
		p.report(logger, res, time.Since(start))

		if res.Outcome == WriteFailed {
			return sum, fmt.Errorf("write batch for %s: %w", base, res.Err)
		}
	}

	logger.Info("make-data finished",
		logging.Int("processed", sum.Processed),
		logging.Int("written", sum.Written),
		logging.Int("records", sum.Records))
	return sum, nil
}

// Process builds, labels and converts one instance without writing it.
func (p *Pipeline) Process(base string) Result {
	res := Result{Instance: base}

	logPath := p.dirs.LogPath(base)
	trajPath := p.dirs.TrajectoryPath(base)
	for _, path := range []string{logPath, trajPath} {
		if _, err := os.Stat(path); err != nil {
			res.Outcome = Missing
			res.Err = err
			return res
		}
	}

	tr, err := p.builder.BuildTrace(logPath)
	res.Trace = tr
	if err != nil {
		res.Outcome = Unreadable
		if trace.IsStructural(err) {
			res.Outcome = Structural
		}
		res.Err = err
		return res
	}
	if len(tr.Incumbents) == 0 {
		res.Outcome = NoIncumbent
		return res
	}

	traj, err := features.ReadFile(trajPath)
	if err != nil {
		res.Outcome = Missing
		res.Err = err
		return res
	}
	res.TrajErrors = len(traj.Errors)

	p.labeler.LabelAll(tr)
	records, join := ranking.FromTrace(tr, traj.Observations)
	res.Join = join
	res.Positives = lo.CountBy(records, func(r ranking.Record) bool { return r.Label.Value == 1 })
	if res.Positives == 0 {
		res.Outcome = NoPositive
		return res
	}

	res.Outcome = Written
	res.Batch = &batchlog.Batch{
		Instance: base,
		RunID:    p.runID,
		Records:  records,
	}
	return res
}

func (p *Pipeline) report(logger logging.Logger, res Result, elapsed time.Duration) {
	l := logger.With(logging.Instance(res.Instance))
	switch res.Outcome {
	case Written:
		l.Info("instance written",
			logging.Count(len(res.Batch.Records)),
			logging.Int("positives", res.Positives),
			logging.Int("dropped", res.Join.Dropped()),
			logging.Latency(elapsed))
	case Missing:
		l.Warn("input missing, skipping", logging.Error(res.Err))
	case Unreadable:
		l.Error("solver log unreadable, skipping", logging.Error(res.Err))
	case Structural:
		var te *trace.TraceError
		if errors.As(res.Err, &te) {
			l.Error("instance aborted", logging.Error(te))
		} else {
			l.Error("instance aborted", logging.Error(res.Err))
		}
	case NoIncumbent:
		l.Warn("no improving incumbent in log, skipping")
	case NoPositive:
		l.Warn("no record on the optimal path, skipping", logging.Int("dropped", res.Join.Dropped()))
	case EncodeFailed:
		l.Error("batch not encodable, skipping", logging.Error(res.Err))
	case WriteFailed:
		l.Error("batch write failed", logging.Error(res.Err))
	}
	if res.TrajErrors > 0 {
		l.Warn("malformed trajectory lines skipped", logging.Count(res.TrajErrors))
	}

	if p.metrics == nil {
		return
	}
	p.metrics.RecordInstance(string(res.Outcome), elapsed)
	p.metrics.RecordParseErrors("trajectory", res.TrajErrors)
	if res.Outcome == Written {
		p.metrics.RecordRecords("positive", res.Positives)
		p.metrics.RecordRecords("negative", len(res.Batch.Records)-res.Positives)
	}
}
