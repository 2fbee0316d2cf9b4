package gbrank

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/nodesel-dagger/pkg/logging"
	"github.com/dd0wney/nodesel-dagger/pkg/ranking"
)

// separable builds groups of four rows where the positive row is the only
// one with feature 0 set; feature 1 is noise.
func separable(groups int) ranking.Dataset {
	var gs []ranking.Group
	for g := 0; g < groups; g++ {
		grp := ranking.Group{GroupID: g}
		pos := g % 4
		for i := 0; i < 4; i++ {
			f0, label := 0.0, 0
			if i == pos {
				f0, label = 1, 1
			}
			grp.Features = append(grp.Features, []float64{f0, float64((g + i) % 3)})
			grp.Labels = append(grp.Labels, label)
		}
		gs = append(gs, grp)
	}
	return ranking.Flatten(gs)
}

func testParams() Params {
	p := DefaultParams()
	p.Trees = 10
	p.MaxDepth = 3
	p.Subsample = 1
	p.ColSample = 1
	return p
}

func TestDefaultParams(t *testing.T) {
	p := DefaultParams()
	assert.Equal(t, 50, p.Trees)
	assert.Equal(t, 6, p.MaxDepth)
	assert.Equal(t, 0.1, p.LearningRate)
	assert.Equal(t, 0.75, p.Subsample)
	assert.Equal(t, 0.9, p.ColSample)
	assert.Equal(t, int64(42), p.Seed)
	assert.NoError(t, p.Validate())
}

func TestParamsValidate(t *testing.T) {
	p := DefaultParams()
	p.Trees = 0
	p.Subsample = 1.5
	err := p.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model.trees")
	assert.Contains(t, err.Error(), "model.subsample")
}

func TestFitRanksPositivesFirst(t *testing.T) {
	ds := separable(12)
	b := New(testParams(), WithLogger(logging.NewNopLogger()))
	require.NoError(t, b.Fit(ds, &ds))
	assert.Len(t, b.Trees, 10)
	assert.Equal(t, 2, b.NumFeatures)

	assert.Greater(t, b.Predict([]float64{1, 0}), b.Predict([]float64{0, 0}))

	ev, err := ranking.Evaluate(b.PredictAll(ds.X), ds)
	require.NoError(t, err)
	assert.Equal(t, 1.0, ev.Top1)
	assert.Equal(t, 1.0, ev.PairwiseAccuracy)
}

func TestFitEmpty(t *testing.T) {
	b := New(testParams())
	assert.ErrorIs(t, b.Fit(ranking.Dataset{}, nil), ErrEmptyDataset)
}

func TestContinueAddsTrees(t *testing.T) {
	ds := separable(8)
	b := New(testParams(), WithLogger(logging.NewNopLogger()))
	require.NoError(t, b.Fit(ds, nil))

	before := b.Predict([]float64{1, 0}) - b.Predict([]float64{0, 0})
	require.NoError(t, b.Continue(ds, nil))
	assert.Len(t, b.Trees, 20)
	after := b.Predict([]float64{1, 0}) - b.Predict([]float64{0, 0})
	assert.Greater(t, after, before)

	wide := ranking.Dataset{X: [][]float64{{1, 2, 3}, {0, 0, 0}}, Y: []float64{1, 0}, Groups: []int{2}}
	assert.ErrorIs(t, b.Continue(wide, nil), ErrFeatureMismatch)

	require.NoError(t, b.Fit(ds, nil))
	assert.Len(t, b.Trees, 10)
}

func TestSaveLoad(t *testing.T) {
	ds := separable(8)
	b := New(testParams(), WithLogger(logging.NewNopLogger()))
	require.NoError(t, b.Fit(ds, nil))

	var buf bytes.Buffer
	require.NoError(t, b.Save(&buf))

	loaded, err := Load(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, b.Params, loaded.Params)
	assert.Equal(t, b.NumFeatures, loaded.NumFeatures)
	for _, x := range ds.X {
		assert.InDelta(t, b.Predict(x), loaded.Predict(x), 1e-12)
	}
}

func TestLoadRejectsGarbage(t *testing.T) {
	_, err := Load(bytes.NewReader([]byte("not a model")))
	assert.Error(t, err)
}

func TestPairwiseGradients(t *testing.T) {
	ds := ranking.Dataset{
		X:      [][]float64{{0}, {0}, {0}},
		Y:      []float64{1, 0, 0},
		Groups: []int{3},
	}
	grad := make([]float64, 3)
	hess := make([]float64, 3)
	loss := pairwiseGradients(ds, []float64{0, 0, 0}, grad, hess)

	assert.InDelta(t, -1.0, grad[0], 1e-12)
	assert.InDelta(t, 0.5, grad[1], 1e-12)
	assert.InDelta(t, 0.5, grad[2], 1e-12)
	assert.InDelta(t, 0.5, hess[0], 1e-12)
	assert.InDelta(t, 0.6931471805599453, loss, 1e-12)
}

func TestTreePredictMissingFeature(t *testing.T) {
	tr := Tree{Nodes: []treeNode{
		{Feature: 5, Threshold: 0.5, Left: 1, Right: 2},
		{Feature: -1, Value: -1},
		{Feature: -1, Value: 1},
	}}
	assert.Equal(t, -1.0, tr.predict([]float64{1}))
	assert.NoError(t, tr.check())
}
