// Package gbrank implements a gradient-boosted tree ranker trained with a
// pairwise logistic loss over ranking groups.
package gbrank

import (
	"fmt"

	"github.com/dd0wney/nodesel-dagger/pkg/validation"
)

// Params controls tree growth and boosting.
type Params struct {
	// Trees is the number of boosting rounds added per Fit or Continue call.
	Trees          int     `yaml:"trees" json:"trees"`
	MaxDepth       int     `yaml:"max_depth" json:"maxDepth"`
	LearningRate   float64 `yaml:"learning_rate" json:"learningRate"`
	Subsample      float64 `yaml:"subsample" json:"subsample"`
	ColSample      float64 `yaml:"colsample" json:"colsample"`
	Lambda         float64 `yaml:"lambda" json:"lambda"`
	MinChildWeight float64 `yaml:"min_child_weight" json:"minChildWeight"`
	Seed           int64   `yaml:"seed" json:"seed"`
}

// DefaultParams returns the settings search policies are trained with.
func DefaultParams() Params {
	return Params{
		Trees:          50,
		MaxDepth:       6,
		LearningRate:   0.1,
		Subsample:      0.75,
		ColSample:      0.9,
		Lambda:         1,
		MinChildWeight: 1,
		Seed:           42,
	}
}

// Validate checks the parameters.
func (p Params) Validate() error {
	return validation.NewConfigValidator("model").
		Positive("trees", p.Trees).
		Positive("max_depth", p.MaxDepth).
		PositiveFloat("learning_rate", p.LearningRate).
		Fraction("subsample", p.Subsample).
		Fraction("colsample", p.ColSample).
		PositiveFloat("lambda", p.Lambda).
		Custom("min_child_weight", func() error {
			if p.MinChildWeight < 0 {
				return fmt.Errorf("value %g must be non-negative", p.MinChildWeight)
			}
			return nil
		}).
		Validate()
}
