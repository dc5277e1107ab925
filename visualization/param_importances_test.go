package visualization

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/hypertune/importance"
	"github.com/YuminosukeSato/hypertune/pkg/errors"
	"github.com/YuminosukeSato/hypertune/study"
)

func prepareStudy(t *testing.T) *study.Study {
	t.Helper()

	s := study.New(
		study.WithSeed(23),
		study.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	err := s.Optimize(func(trial *study.Trial) (float64, error) {
		a, serr := trial.SuggestFloat("param_a", 0, 10)
		if serr != nil {
			return 0, serr
		}
		b, serr := trial.SuggestFloat("param_b", 0, 10)
		if serr != nil {
			return 0, serr
		}
		d, serr := trial.SuggestInt("param_d", 0, 10)
		if serr != nil {
			return 0, serr
		}
		return 4*a + b + 0.1*float64(d), nil
	}, 30)
	require.NoError(t, err)
	return s
}

func silenceWarnings(t *testing.T) {
	t.Helper()
	errors.SetWarningHandler(func(error) {})
	t.Cleanup(func() { errors.SetWarningHandler(func(error) {}) })
}

func TestPlotEmptyStudy(t *testing.T) {
	s := study.New()

	p, err := PlotParamImportances(s)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Importance for Objective Value", p.X.Label.Text)
}

func TestPlotWithTrials(t *testing.T) {
	s := prepareStudy(t)

	p, err := PlotParamImportances(s, WithSeed(1))
	require.NoError(t, err)
	assert.Equal(t, "Importance for Objective Value", p.X.Label.Text)
	assert.Equal(t, "Hyperparameter", p.Y.Label.Text)
}

func TestPlotWithEvaluator(t *testing.T) {
	s := prepareStudy(t)

	p, err := PlotParamImportances(s,
		WithEvaluator(importance.NewMDIEvaluator(importance.WithNumTrees(16))),
		WithSeed(1),
	)
	require.NoError(t, err)
	assert.Equal(t, "Importance for Objective Value", p.X.Label.Text)
}

func TestPlotWithParamsFilter(t *testing.T) {
	s := prepareStudy(t)

	p, err := PlotParamImportances(s, WithParams([]string{"param_b"}), WithSeed(1))
	require.NoError(t, err)
	assert.Equal(t, "Importance for Objective Value", p.X.Label.Text)
}

func TestPlotWithCustomTarget(t *testing.T) {
	var warned []error
	errors.SetWarningHandler(func(w error) { warned = append(warned, w) })
	t.Cleanup(func() { errors.SetWarningHandler(func(error) {}) })

	s := prepareStudy(t)

	_, err := PlotParamImportances(s,
		WithTarget(func(tr study.FrozenTrial) float64 {
			return tr.Params["param_b"].Num() + tr.Params["param_d"].Num()
		}),
		WithSeed(1),
	)
	require.NoError(t, err)
	require.Len(t, warned, 1)

	var tw *errors.TargetWarning
	assert.True(t, errors.As(warned[0], &tw))
}

func TestPlotWithTargetName(t *testing.T) {
	s := prepareStudy(t)

	p, err := PlotParamImportances(s, WithTargetName("Target Name"), WithSeed(1))
	require.NoError(t, err)
	assert.Equal(t, "Importance for Target Name", p.X.Label.Text)
}

func TestPlotUnknownParam(t *testing.T) {
	s := prepareStudy(t)

	_, err := PlotParamImportances(s, WithParams([]string{"unknown_param"}))
	require.Error(t, err)

	var ipErr *errors.InvalidParameterError
	assert.True(t, errors.As(err, &ipErr))
}

func TestPlotIgnoresFailedTrials(t *testing.T) {
	silenceWarnings(t)

	s := study.New(study.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	boom := errors.New("objective failure")
	err := s.Optimize(func(trial *study.Trial) (float64, error) {
		return 0, boom
	}, 1, study.Catch(boom))
	require.NoError(t, err)

	p, err := PlotParamImportances(s)
	require.NoError(t, err, "a study with only failed trials plots empty, not an error")
	assert.Equal(t, "Importance for Objective Value", p.X.Label.Text)
}
