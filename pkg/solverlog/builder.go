package solverlog

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/dd0wney/nodesel-dagger/pkg/logging"
	"github.com/dd0wney/nodesel-dagger/pkg/metrics"
	"github.com/dd0wney/nodesel-dagger/pkg/trace"
)

// Builder reconstructs instance traces from solver logs.
type Builder struct {
	parser  *Parser
	sense   trace.Sense
	logger  logging.Logger
	metrics *metrics.Registry
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithSense sets the objective sense used to pick the best primal bound.
func WithSense(s trace.Sense) BuilderOption {
	return func(b *Builder) { b.sense = s }
}

// WithLogger sets the logger parse errors are reported to.
func WithLogger(l logging.Logger) BuilderOption {
	return func(b *Builder) { b.logger = l }
}

// WithMetrics enables node and parse error counters.
func WithMetrics(r *metrics.Registry) BuilderOption {
	return func(b *Builder) { b.metrics = r }
}

// NewBuilder creates a builder reading logs written in the given layout.
func NewBuilder(layout Layout, opts ...BuilderOption) *Builder {
	b := &Builder{
		parser: NewParser(layout),
		sense:  trace.Maximize,
		logger: logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// BuildTrace reads the log at path and builds its trace. The instance name
// is the file name without extension.
func (b *Builder) BuildTrace(path string) (*trace.InstanceTrace, error) {
	lines, err := ReadLines(path)
	if err != nil {
		return nil, err
	}
	return b.Build(InstanceName(path), lines)
}

// Build parses every selection record in lines and assembles the trace.
// Malformed records are logged and skipped; structural errors from
// assembly are returned together with the partial trace.
func (b *Builder) Build(name string, lines []string) (*trace.InstanceTrace, error) {
	logger := b.logger.With(logging.Component("solverlog"), logging.Instance(name))
	markers := ScanMarkers(lines, b.parser.layout.Marker)

	nodes := make([]*trace.Node, 0, len(markers))
	skipped := 0
	for i, end := range markers {
		// The first record has no predecessor. Its range starts after the
		// last marker, which lies beyond its own end, so it owns no
		// branching lines.
		start := markers[len(markers)-1] + 1
		if i > 0 {
			start = markers[i-1] + 1
		}

		node, err := b.parser.ParseNode(lines, start, end)
		if err != nil {
			var pe *ParseError
			if !errors.As(err, &pe) {
				return nil, err
			}
			skipped++
			logger.Warn("skipping malformed record",
				logging.Line(pe.Line),
				logging.String("field", pe.Field),
				logging.Token(pe.Token),
				logging.Error(pe.Cause))
			continue
		}
		if node != nil {
			nodes = append(nodes, node)
		}
	}

	if b.metrics != nil {
		b.metrics.RecordNodes(len(nodes))
		b.metrics.RecordParseErrors("log", skipped)
	}

	tr, err := trace.Assemble(name, nodes, b.sense)
	if tr != nil {
		tr.SkippedRecords = skipped
		if len(tr.DroppedIDs) > 0 {
			logger.Warn("dropped duplicate or negative node ids", logging.Any("ids", tr.DroppedIDs))
		}
	}
	if err != nil {
		return tr, err
	}

	logger.Debug("trace built",
		logging.Count(len(tr.Chronological)),
		logging.Int("max_id", tr.MaxID),
		logging.Int("incumbents", len(tr.Incumbents)),
		logging.Int("skipped", skipped))
	return tr, nil
}

// InstanceName returns the base name of path without its extension.
func InstanceName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
