package gbrank

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/dd0wney/nodesel-dagger/pkg/logging"
	"github.com/dd0wney/nodesel-dagger/pkg/ranking"
)

var (
	ErrEmptyDataset    = errors.New("empty dataset")
	ErrFeatureMismatch = errors.New("feature count mismatch")
)

// Booster is an additive ensemble of regression trees. A row's score is
// the sum of the leaf values it reaches.
type Booster struct {
	Params      Params `json:"params"`
	NumFeatures int    `json:"numFeatures"`
	Trees       []Tree `json:"trees"`

	logger logging.Logger
	rng    *rand.Rand
}

// Option configures a Booster.
type Option func(*Booster)

// WithLogger sets the logger used for per-round progress.
func WithLogger(l logging.Logger) Option {
	return func(b *Booster) { b.logger = l }
}

// New creates an untrained booster.
func New(p Params, opts ...Option) *Booster {
	b := &Booster{Params: p, Trees: make([]Tree, 0)}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// SetLogger replaces the progress logger, e.g. on a loaded model.
func (b *Booster) SetLogger(l logging.Logger) {
	b.logger = l
}

// Fit discards any existing trees and trains Params.Trees rounds on train.
// When eval is non-nil its metrics are logged after every round.
func (b *Booster) Fit(train ranking.Dataset, eval *ranking.Dataset) error {
	b.Trees = b.Trees[:0]
	b.NumFeatures = 0
	return b.Continue(train, eval)
}

// Continue adds Params.Trees rounds on top of the current ensemble, so
// boosting starts from the margins the existing trees produce.
func (b *Booster) Continue(train ranking.Dataset, eval *ranking.Dataset) error {
	if train.Len() == 0 {
		return ErrEmptyDataset
	}
	if err := b.Params.Validate(); err != nil {
		return err
	}
	nf := len(train.X[0])
	if b.NumFeatures == 0 {
		b.NumFeatures = nf
	}
	if nf != b.NumFeatures {
		return fmt.Errorf("%w: model has %d, data has %d", ErrFeatureMismatch, b.NumFeatures, nf)
	}

	logger := logging.OrDefault(b.logger).With(logging.Component("gbrank"))
	if b.rng == nil {
		b.rng = rand.New(rand.NewSource(b.Params.Seed))
	}

	margins := b.PredictAll(train.X)
	var evalMargins []float64
	if eval != nil && eval.Len() > 0 {
		evalMargins = b.PredictAll(eval.X)
	}

	grad := make([]float64, train.Len())
	hess := make([]float64, train.Len())
	for round := 0; round < b.Params.Trees; round++ {
		loss := pairwiseGradients(train, margins, grad, hess)

		g := &grower{
			x:        train.X,
			grad:     grad,
			hess:     hess,
			features: b.sampleFeatures(),
			params:   b.Params,
		}
		tree := g.grow(b.sampleRows(train.Len()))
		b.Trees = append(b.Trees, *tree)

		for i, x := range train.X {
			margins[i] += tree.predict(x)
		}
		fields := []logging.Field{
			logging.Int("round", len(b.Trees)),
			logging.Float64("train_loss", loss),
		}
		if evalMargins != nil {
			for i, x := range eval.X {
				evalMargins[i] += tree.predict(x)
			}
			if ev, err := ranking.Evaluate(evalMargins, *eval); err == nil {
				fields = append(fields,
					logging.Float64("eval_pairwise", ev.PairwiseAccuracy),
					logging.Float64("eval_ndcg", ev.NDCG))
			}
		}
		logger.Debug("boosting round", fields...)
	}
	return nil
}

// Predict scores one feature row.
func (b *Booster) Predict(x []float64) float64 {
	var s float64
	for i := range b.Trees {
		s += b.Trees[i].predict(x)
	}
	return s
}

// PredictAll scores every row.
func (b *Booster) PredictAll(x [][]float64) []float64 {
	out := make([]float64, len(x))
	for i, row := range x {
		out[i] = b.Predict(row)
	}
	return out
}

func (b *Booster) sampleRows(n int) []int {
	rows := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if b.Params.Subsample >= 1 || b.rng.Float64() < b.Params.Subsample {
			rows = append(rows, i)
		}
	}
	if len(rows) == 0 {
		rows = append(rows, b.rng.Intn(n))
	}
	return rows
}

func (b *Booster) sampleFeatures() []int {
	k := int(b.Params.ColSample * float64(b.NumFeatures))
	if k < 1 {
		k = 1
	}
	perm := b.rng.Perm(b.NumFeatures)
	return perm[:k]
}

// pairwiseGradients fills grad and hess with the derivatives of the
// pairwise logistic loss over every (higher label, lower label) pair in
// each group and returns the mean loss per pair.
func pairwiseGradients(ds ranking.Dataset, margins, grad, hess []float64) float64 {
	for i := range grad {
		grad[i] = 0
		hess[i] = 0
	}

	var loss float64
	pairs := 0
	off := 0
	for _, size := range ds.Groups {
		for i := off; i < off+size; i++ {
			for j := off; j < off+size; j++ {
				if ds.Y[i] <= ds.Y[j] {
					continue
				}
				// p is the modelled probability that j outranks i.
				p := sigmoid(margins[j] - margins[i])
				grad[i] -= p
				grad[j] += p
				h := math.Max(p*(1-p), 1e-16)
				hess[i] += h
				hess[j] += h
				loss += math.Log1p(math.Exp(margins[j] - margins[i]))
				pairs++
			}
		}
		off += size
	}
	if pairs == 0 {
		return 0
	}
	return loss / float64(pairs)
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
