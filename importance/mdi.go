package importance

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/hypertune/pkg/errors"
)

// MDIEvaluator scores parameters by mean decrease in impurity: a random
// forest regressor is fit on the encoded parameters, and each column is
// credited with the variance reduction of the splits that use it.
// This is the default strategy of EvaluateParamImportances.
type MDIEvaluator struct {
	numTrees       int
	maxDepth       int
	minSamplesLeaf int
}

// MDIOption configures an MDIEvaluator.
type MDIOption func(*MDIEvaluator)

// WithNumTrees sets the ensemble size. Defaults to 64.
func WithNumTrees(n int) MDIOption {
	return func(e *MDIEvaluator) { e.numTrees = n }
}

// WithMaxDepth bounds tree depth. Defaults to 64.
func WithMaxDepth(d int) MDIOption {
	return func(e *MDIEvaluator) { e.maxDepth = d }
}

// WithMinSamplesLeaf sets the minimum samples per leaf. Defaults to 1.
func WithMinSamplesLeaf(n int) MDIOption {
	return func(e *MDIEvaluator) { e.minSamplesLeaf = n }
}

// NewMDIEvaluator creates a mean-decrease-impurity evaluator.
func NewMDIEvaluator(opts ...MDIOption) *MDIEvaluator {
	e := &MDIEvaluator{numTrees: 64, maxDepth: 64, minSamplesLeaf: 1}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate implements Evaluator.
func (e *MDIEvaluator) Evaluate(X *mat.Dense, y []float64, seed int64) ([]float64, error) {
	forest := newRegressionForest(forestParams{
		NumTrees:       e.numTrees,
		MaxDepth:       e.maxDepth,
		MinSamplesLeaf: e.minSamplesLeaf,
	})
	if err := forest.Fit(X, y, seed); err != nil {
		return nil, errors.Wrap(err, "MDIEvaluator.Evaluate")
	}
	return forest.FeatureImportances()
}
