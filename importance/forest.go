package importance

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/hypertune/core/parallel"
	"github.com/YuminosukeSato/hypertune/pkg/errors"
)

// forestParams contains the hyperparameters of the importance forest.
type forestParams struct {
	NumTrees       int
	MaxDepth       int
	MinSamplesLeaf int
}

// regressionForest is a bagged ensemble of variance-reduction regression
// trees. It exists to measure impurity decrease per feature, not to be a
// general-purpose estimator, so the API is deliberately small.
type regressionForest struct {
	params forestParams
	trees  []regressionTree
	fitted bool
}

type regressionTree struct {
	nodes []treeNode
	// impurity decrease accumulated per feature, normalized per tree
	importances []float64
}

type treeNode struct {
	Feature    int
	Threshold  float64
	LeftChild  int
	RightChild int
	LeafValue  float64
	IsLeaf     bool
}

// splitInfo describes the best split found for a node.
type splitInfo struct {
	Feature   int
	Threshold float64
	Gain      float64
}

func newRegressionForest(params forestParams) *regressionForest {
	if params.NumTrees <= 0 {
		params.NumTrees = 64
	}
	if params.MaxDepth <= 0 {
		params.MaxDepth = 64
	}
	if params.MinSamplesLeaf <= 0 {
		params.MinSamplesLeaf = 1
	}
	return &regressionForest{params: params}
}

// Fit trains the forest on X and y. Trees are fit in parallel, but each
// tree draws from its own pre-derived seed, so the result is identical for
// a fixed seed regardless of scheduling.
func (f *regressionForest) Fit(X *mat.Dense, y []float64, seed int64) error {
	rows, cols := X.Dims()
	if rows == 0 || cols == 0 {
		return errors.Wrap(errors.ErrEmptyData, "regressionForest.Fit")
	}
	if rows != len(y) {
		return errors.NewDimensionError("regressionForest.Fit", rows, len(y), 0)
	}

	seeds := make([]int64, f.params.NumTrees)
	rng := rand.New(rand.NewSource(seed))
	for i := range seeds {
		seeds[i] = rng.Int63()
	}

	f.trees = make([]regressionTree, f.params.NumTrees)
	parallel.ParallelizeWithThreshold(f.params.NumTrees, 4, func(start, end int) {
		for i := start; i < end; i++ {
			f.trees[i] = f.fitTree(X, y, rand.New(rand.NewSource(seeds[i])))
		}
	})

	f.fitted = true
	return nil
}

// fitTree grows one tree on a bootstrap sample.
func (f *regressionForest) fitTree(X *mat.Dense, y []float64, rng *rand.Rand) regressionTree {
	rows, cols := X.Dims()

	indices := make([]int, rows)
	for i := range indices {
		indices[i] = rng.Intn(rows)
	}

	tree := regressionTree{importances: make([]float64, cols)}
	f.buildNode(&tree, X, y, indices, 0)

	// Normalize per tree so every tree contributes equally to the
	// ensemble importances.
	total := 0.0
	for _, v := range tree.importances {
		total += v
	}
	if total > 0 {
		for i := range tree.importances {
			tree.importances[i] /= total
		}
	}
	return tree
}

// buildNode recursively grows tree nodes, accumulating the impurity
// decrease of every split into the tree's per-feature importances.
func (f *regressionForest) buildNode(tree *regressionTree, X *mat.Dense, y []float64, indices []int, depth int) int {
	nodeIdx := len(tree.nodes)

	if depth >= f.params.MaxDepth || len(indices) < 2*f.params.MinSamplesLeaf {
		tree.nodes = append(tree.nodes, leafNode(meanTarget(y, indices)))
		return nodeIdx
	}

	best := f.findBestSplit(X, y, indices)
	if best.Gain <= 0 {
		tree.nodes = append(tree.nodes, leafNode(meanTarget(y, indices)))
		return nodeIdx
	}

	tree.importances[best.Feature] += best.Gain

	tree.nodes = append(tree.nodes, treeNode{
		Feature:   best.Feature,
		Threshold: best.Threshold,
	})

	leftIndices, rightIndices := splitData(X, indices, best)
	leftChild := f.buildNode(tree, X, y, leftIndices, depth+1)
	rightChild := f.buildNode(tree, X, y, rightIndices, depth+1)

	tree.nodes[nodeIdx].LeftChild = leftChild
	tree.nodes[nodeIdx].RightChild = rightChild
	return nodeIdx
}

// findBestSplit scans every feature for the variance-reduction maximizing
// threshold.
func (f *regressionForest) findBestSplit(X *mat.Dense, y []float64, indices []int) splitInfo {
	_, cols := X.Dims()
	best := splitInfo{Feature: -1, Gain: -math.MaxFloat64}

	for j := 0; j < cols; j++ {
		split := f.findBestSplitForFeature(X, y, indices, j)
		if split.Gain > best.Gain {
			best = split
		}
	}
	return best
}

// findBestSplitForFeature evaluates all thresholds of one feature using
// prefix sums over the sorted sample order.
func (f *regressionForest) findBestSplitForFeature(X *mat.Dense, y []float64, indices []int, feature int) splitInfo {
	n := len(indices)
	values := make([]struct {
		value  float64
		target float64
	}, n)
	for i, idx := range indices {
		values[i].value = X.At(idx, feature)
		values[i].target = y[idx]
	}
	sort.Slice(values, func(i, j int) bool {
		return values[i].value < values[j].value
	})

	totalSum := 0.0
	totalSq := 0.0
	for _, v := range values {
		totalSum += v.target
		totalSq += v.target * v.target
	}
	nodeImpurity := totalSq - totalSum*totalSum/float64(n)

	best := splitInfo{Feature: feature, Gain: -math.MaxFloat64}
	leftSum := 0.0
	leftSq := 0.0

	for i := 0; i < n-1; i++ {
		leftSum += values[i].target
		leftSq += values[i].target * values[i].target

		if values[i].value == values[i+1].value {
			continue
		}

		leftCount := i + 1
		rightCount := n - leftCount
		if leftCount < f.params.MinSamplesLeaf || rightCount < f.params.MinSamplesLeaf {
			continue
		}

		rightSum := totalSum - leftSum
		rightSq := totalSq - leftSq

		leftImpurity := leftSq - leftSum*leftSum/float64(leftCount)
		rightImpurity := rightSq - rightSum*rightSum/float64(rightCount)

		// Total sum-of-squares decrease; nonnegative by construction
		// up to floating-point noise.
		gain := nodeImpurity - leftImpurity - rightImpurity

		if gain > best.Gain {
			best.Gain = gain
			best.Threshold = (values[i].value + values[i+1].value) / 2
		}
	}

	// Sum-of-squares arithmetic can leave tiny negative noise; a gain
	// this small is no usable split.
	if best.Gain <= 1e-12 {
		best.Gain = -1
	}
	return best
}

func splitData(X *mat.Dense, indices []int, split splitInfo) ([]int, []int) {
	var leftIndices, rightIndices []int
	for _, idx := range indices {
		if X.At(idx, split.Feature) <= split.Threshold {
			leftIndices = append(leftIndices, idx)
		} else {
			rightIndices = append(rightIndices, idx)
		}
	}
	return leftIndices, rightIndices
}

func leafNode(value float64) treeNode {
	return treeNode{IsLeaf: true, LeafValue: value, LeftChild: -1, RightChild: -1}
}

func meanTarget(y []float64, indices []int) float64 {
	if len(indices) == 0 {
		return 0
	}
	sum := 0.0
	for _, idx := range indices {
		sum += y[idx]
	}
	return sum / float64(len(indices))
}

// FeatureImportances returns the mean per-feature impurity decrease over
// all trees, normalized to sum to one when any split occurred.
func (f *regressionForest) FeatureImportances() ([]float64, error) {
	if !f.fitted {
		return nil, errors.NewNotFittedError("regressionForest", "FeatureImportances")
	}

	cols := 0
	if len(f.trees) > 0 {
		cols = len(f.trees[0].importances)
	}

	importances := make([]float64, cols)
	for _, tree := range f.trees {
		for j, v := range tree.importances {
			importances[j] += v
		}
	}

	total := 0.0
	for _, v := range importances {
		total += v
	}
	if total > 0 {
		for i := range importances {
			importances[i] /= total
		}
	}
	return importances, nil
}

// Predict returns the ensemble mean prediction for each row of X.
func (f *regressionForest) Predict(X *mat.Dense) ([]float64, error) {
	if !f.fitted {
		return nil, errors.NewNotFittedError("regressionForest", "Predict")
	}

	rows, _ := X.Dims()
	out := make([]float64, rows)
	for i := 0; i < rows; i++ {
		sum := 0.0
		for _, tree := range f.trees {
			sum += tree.predict(X, i)
		}
		out[i] = sum / float64(len(f.trees))
	}
	return out, nil
}

func (t *regressionTree) predict(X *mat.Dense, row int) float64 {
	node := 0
	for {
		n := t.nodes[node]
		if n.IsLeaf {
			return n.LeafValue
		}
		if X.At(row, n.Feature) <= n.Threshold {
			node = n.LeftChild
		} else {
			node = n.RightChild
		}
	}
}
