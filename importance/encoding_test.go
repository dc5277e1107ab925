package importance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/hypertune/study"
)

func trialWith(params map[string]study.ParamValue) study.FrozenTrial {
	return study.FrozenTrial{State: study.Complete, Params: params}
}

func TestEncodeNumericColumns(t *testing.T) {
	trials := []study.FrozenTrial{
		trialWith(map[string]study.ParamValue{"lr": study.FloatValue(0.1)}),
		trialWith(map[string]study.ParamValue{"lr": study.FloatValue(0.3)}),
	}

	enc, err := encode(trials, []string{"lr"})
	require.NoError(t, err)

	rows, cols := enc.matrix.Dims()
	assert.Equal(t, 2, rows)
	assert.Equal(t, 1, cols)
	assert.Equal(t, 0.1, enc.matrix.At(0, 0))
	assert.Equal(t, 0.3, enc.matrix.At(1, 0))
}

func TestEncodeCategoricalOneHot(t *testing.T) {
	trials := []study.FrozenTrial{
		trialWith(map[string]study.ParamValue{"opt": study.CategoricalValue("adam")}),
		trialWith(map[string]study.ParamValue{"opt": study.CategoricalValue("sgd")}),
		trialWith(map[string]study.ParamValue{"opt": study.CategoricalValue("adam")}),
	}

	enc, err := encode(trials, []string{"opt"})
	require.NoError(t, err)

	_, cols := enc.matrix.Dims()
	assert.Equal(t, 2, cols, "one column per observed category")

	// Each row is a one-hot vector.
	for i := 0; i < 3; i++ {
		rowSum := enc.matrix.At(i, 0) + enc.matrix.At(i, 1)
		assert.Equal(t, 1.0, rowSum)
	}
	// Rows 0 and 2 share a category, row 1 does not.
	assert.Equal(t, enc.matrix.At(0, 0), enc.matrix.At(2, 0))
	assert.NotEqual(t, enc.matrix.At(0, 0), enc.matrix.At(1, 0))
}

func TestEncodeMissingNumericGetsIndicator(t *testing.T) {
	trials := []study.FrozenTrial{
		trialWith(map[string]study.ParamValue{"depth": study.IntValue(4)}),
		trialWith(map[string]study.ParamValue{}),
		trialWith(map[string]study.ParamValue{"depth": study.IntValue(8)}),
	}

	enc, err := encode(trials, []string{"depth"})
	require.NoError(t, err)

	_, cols := enc.matrix.Dims()
	require.Equal(t, 2, cols, "value column plus missing indicator")

	assert.Equal(t, 4.0, enc.matrix.At(0, 0))
	assert.Equal(t, 6.0, enc.matrix.At(1, 0), "missing value is mean-imputed")
	assert.Equal(t, 1.0, enc.matrix.At(1, 1))
	assert.Equal(t, 0.0, enc.matrix.At(0, 1))

	// Both columns belong to the same parameter group.
	assert.Equal(t, [][]int{{0, 1}}, enc.groups)
}

func TestEncodeMissingCategoricalGetsSentinel(t *testing.T) {
	trials := []study.FrozenTrial{
		trialWith(map[string]study.ParamValue{"opt": study.CategoricalValue("adam")}),
		trialWith(map[string]study.ParamValue{}),
	}

	enc, err := encode(trials, []string{"opt"})
	require.NoError(t, err)

	_, cols := enc.matrix.Dims()
	assert.Equal(t, 2, cols, "observed category plus missing sentinel")
	rowSum := enc.matrix.At(1, 0) + enc.matrix.At(1, 1)
	assert.Equal(t, 1.0, rowSum, "missing trials land in the sentinel category")
}

func TestParamScoresSumGroups(t *testing.T) {
	trials := []study.FrozenTrial{
		trialWith(map[string]study.ParamValue{
			"lr":  study.FloatValue(0.1),
			"opt": study.CategoricalValue("adam"),
		}),
		trialWith(map[string]study.ParamValue{
			"lr":  study.FloatValue(0.2),
			"opt": study.CategoricalValue("sgd"),
		}),
	}

	enc, err := encode(trials, []string{"lr", "opt"})
	require.NoError(t, err)

	scores, err := enc.paramScores([]float64{0.5, 0.25, 0.25})
	require.NoError(t, err)
	assert.Equal(t, 0.5, scores["lr"])
	assert.Equal(t, 0.5, scores["opt"], "one-hot columns fold back onto their parameter")

	_, err = enc.paramScores([]float64{0.5})
	require.Error(t, err, "column count mismatch must fail")
}

func TestEncodeEmptyTrials(t *testing.T) {
	_, err := encode(nil, []string{"lr"})
	require.Error(t, err)
}
