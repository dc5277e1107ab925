package importance

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/hypertune/pkg/errors"
)

// PermutationEvaluator scores a column by how much shuffling it degrades
// the fit of a forest trained on the intact data: the mean squared error
// increase over repeated shuffles, clamped at zero.
type PermutationEvaluator struct {
	numTrees       int
	maxDepth       int
	minSamplesLeaf int
	repeats        int
}

// PermutationOption configures a PermutationEvaluator.
type PermutationOption func(*PermutationEvaluator)

// WithPermutationTrees sets the ensemble size of the underlying forest.
func WithPermutationTrees(n int) PermutationOption {
	return func(e *PermutationEvaluator) { e.numTrees = n }
}

// WithRepeats sets how many shuffles are averaged per column. Defaults to 8.
func WithRepeats(n int) PermutationOption {
	return func(e *PermutationEvaluator) { e.repeats = n }
}

// NewPermutationEvaluator creates a permutation-importance evaluator.
func NewPermutationEvaluator(opts ...PermutationOption) *PermutationEvaluator {
	e := &PermutationEvaluator{numTrees: 64, maxDepth: 64, minSamplesLeaf: 1, repeats: 8}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate implements Evaluator.
func (e *PermutationEvaluator) Evaluate(X *mat.Dense, y []float64, seed int64) ([]float64, error) {
	const op = "PermutationEvaluator.Evaluate"

	forest := newRegressionForest(forestParams{
		NumTrees:       e.numTrees,
		MaxDepth:       e.maxDepth,
		MinSamplesLeaf: e.minSamplesLeaf,
	})
	if err := forest.Fit(X, y, seed); err != nil {
		return nil, errors.Wrap(err, op)
	}

	baselinePred, err := forest.Predict(X)
	if err != nil {
		return nil, errors.Wrap(err, op)
	}
	baseline := meanSquaredError(baselinePred, y)

	rows, cols := X.Dims()
	rng := rand.New(rand.NewSource(seed))
	scores := make([]float64, cols)

	shuffled := mat.NewDense(rows, cols, nil)
	shuffled.Copy(X)

	for j := 0; j < cols; j++ {
		original := make([]float64, rows)
		mat.Col(original, j, X)

		delta := 0.0
		perm := make([]float64, rows)
		for r := 0; r < e.repeats; r++ {
			copy(perm, original)
			rng.Shuffle(rows, func(a, b int) {
				perm[a], perm[b] = perm[b], perm[a]
			})
			shuffled.SetCol(j, perm)

			pred, perr := forest.Predict(shuffled)
			if perr != nil {
				return nil, errors.Wrap(perr, op)
			}
			delta += meanSquaredError(pred, y) - baseline
		}
		shuffled.SetCol(j, original)

		score := delta / float64(e.repeats)
		if score < 0 {
			score = 0
		}
		scores[j] = score
	}
	return scores, nil
}

func meanSquaredError(pred, y []float64) float64 {
	sum := 0.0
	for i := range pred {
		d := pred[i] - y[i]
		sum += d * d
	}
	return sum / float64(len(pred))
}
