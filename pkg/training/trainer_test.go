package training

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/nodesel-dagger/pkg/batchlog"
	"github.com/dd0wney/nodesel-dagger/pkg/features"
	"github.com/dd0wney/nodesel-dagger/pkg/gbrank"
	"github.com/dd0wney/nodesel-dagger/pkg/metrics"
	"github.com/dd0wney/nodesel-dagger/pkg/policy"
	"github.com/dd0wney/nodesel-dagger/pkg/ranking"
	"github.com/dd0wney/nodesel-dagger/pkg/trace"
)

// instanceBatch returns two snapshot groups of three nodes; the positive
// node is the one with feature 0 set.
func instanceBatch(name string, seed int) *batchlog.Batch {
	b := &batchlog.Batch{Instance: name, RunID: "run"}
	for g := 0; g < 2; g++ {
		pos := (seed + g) % 3
		for i := 0; i < 3; i++ {
			feats := make([]float64, features.Size)
			feats[1] = float64((seed + i) % 5)
			label := trace.Label{}
			if i == pos {
				feats[0] = 1
				label = trace.Label{Value: 1, MatchDepth: 3}
			}
			b.Records = append(b.Records, ranking.Record{
				Idx:     10*g + i + 2,
				GroupID: g,
				Feats:   feats,
				Label:   label,
			})
		}
	}
	return b
}

func emptyBatch(name string) *batchlog.Batch {
	return &batchlog.Batch{Instance: name, Records: []ranking.Record{
		{Idx: 2, GroupID: 0, Feats: make([]float64, features.Size)},
	}}
}

func writeBatches(t *testing.T, batches ...*batchlog.Batch) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "train.bin")
	w, err := batchlog.Open(path)
	require.NoError(t, err)
	for _, b := range batches {
		_, err := w.Append(b)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return path
}

func testConfig() Config {
	p := gbrank.DefaultParams()
	p.Trees = 3
	p.MaxDepth = 2
	p.Subsample = 1
	p.ColSample = 1
	return Config{
		EvalInstances:  2,
		BatchInstances: 3,
		Params:         p,
	}
}

func TestRunIterations(t *testing.T) {
	batches := []*batchlog.Batch{emptyBatch("empty_0")}
	for i := 0; i < 10; i++ {
		batches = append(batches, instanceBatch("inst", i))
	}
	path := writeBatches(t, batches...)

	store, err := policy.NewDirStore(t.TempDir())
	require.NoError(t, err)
	reg := metrics.NewRegistry()

	cfg := testConfig()
	cfg.FlushPartial = true
	report, err := New(cfg, store, WithMetrics(reg)).Run(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, report.Require())

	assert.Equal(t, 1, report.EmptyInstances)
	assert.Equal(t, 2, report.EvalInstances)
	assert.Equal(t, 12, report.EvalExamples)
	require.Len(t, report.Iterations, 3)

	assert.Equal(t, 0, report.Iterations[0].Iter)
	assert.Equal(t, 3, report.Iterations[0].Instances)
	assert.Equal(t, 18, report.Iterations[0].Examples)
	assert.Equal(t, 3, report.Iterations[0].Trees)
	assert.Equal(t, 6, report.Iterations[1].Trees)
	assert.Equal(t, 2, report.Iterations[2].Instances)
	assert.Equal(t, 9, report.Iterations[2].Trees)
	assert.Equal(t, 1.0, report.Iterations[2].Eval.Top1)

	latest, err := store.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, latest)
	b, err := store.Load(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, b.Trees, 9)

	assert.Equal(t, 3.0, testutil.ToFloat64(reg.TrainingIterationsTotal))
	assert.Equal(t, 20.0, testutil.ToFloat64(reg.GroupsTotal.WithLabelValues("kept")))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.GroupsTotal.WithLabelValues("no_positive")))
}

func TestRunWithoutFlush(t *testing.T) {
	batches := make([]*batchlog.Batch, 0)
	for i := 0; i < 7; i++ {
		batches = append(batches, instanceBatch("inst", i))
	}
	path := writeBatches(t, batches...)
	store, err := policy.NewDirStore(t.TempDir())
	require.NoError(t, err)

	report, err := New(testConfig(), store).Run(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, report.Iterations, 1)

	_, err = store.Load(context.Background(), 1)
	assert.ErrorIs(t, err, policy.ErrNotFound)
}

func TestRunBatchExamples(t *testing.T) {
	batches := make([]*batchlog.Batch, 0)
	for i := 0; i < 6; i++ {
		batches = append(batches, instanceBatch("inst", i))
	}
	path := writeBatches(t, batches...)
	store, err := policy.NewDirStore(t.TempDir())
	require.NoError(t, err)

	cfg := testConfig()
	cfg.EvalInstances = 1
	cfg.BatchInstances = 100
	cfg.BatchExamples = 10
	report, err := New(cfg, store).Run(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, report.Iterations, 2)
	assert.Equal(t, 12, report.Iterations[0].Examples)
	assert.Equal(t, 2, report.Iterations[0].Instances)
}

func TestRunWarmStart(t *testing.T) {
	batches := make([]*batchlog.Batch, 0)
	for i := 0; i < 5; i++ {
		batches = append(batches, instanceBatch("inst", i))
	}
	path := writeBatches(t, batches...)
	store, err := policy.NewDirStore(t.TempDir())
	require.NoError(t, err)

	first, err := New(testConfig(), store).Run(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, first.Iterations, 1)

	cfg := testConfig()
	cfg.StartIter = 1
	second, err := New(cfg, store).Run(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, second.Iterations, 1)
	assert.Equal(t, 1, second.Iterations[0].Iter)
	assert.Equal(t, 6, second.Iterations[0].Trees)

	cfg.StartIter = 9
	_, err = New(cfg, store).Run(context.Background(), path)
	assert.ErrorIs(t, err, policy.ErrNotFound)
}

func TestRunNothingTrained(t *testing.T) {
	path := writeBatches(t, instanceBatch("inst", 0))
	store, err := policy.NewDirStore(t.TempDir())
	require.NoError(t, err)

	report, err := New(testConfig(), store).Run(context.Background(), path)
	require.NoError(t, err)
	assert.ErrorIs(t, report.Require(), ErrNoIterations)
}
