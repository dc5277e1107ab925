// Package visualization renders analysis plots for studies. It is a thin
// presentation layer: all ranking semantics live in the importance package,
// and this package only draws what it is handed.
package visualization

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/hypertune/importance"
	"github.com/YuminosukeSato/hypertune/pkg/errors"
	"github.com/YuminosukeSato/hypertune/study"
)

// Option configures one plot call.
type Option func(*config)

type config struct {
	evalOpts   []importance.Option
	targetName string
}

// WithParams restricts the plot to the named parameters.
func WithParams(names []string) Option {
	return func(c *config) { c.evalOpts = append(c.evalOpts, importance.WithParams(names)) }
}

// WithTarget plots importances for a custom target value.
func WithTarget(fn importance.TargetFunc) Option {
	return func(c *config) { c.evalOpts = append(c.evalOpts, importance.WithTarget(fn)) }
}

// WithEvaluator selects the importance strategy.
func WithEvaluator(e importance.Evaluator) Option {
	return func(c *config) { c.evalOpts = append(c.evalOpts, importance.WithEvaluator(e)) }
}

// WithSeed makes the underlying evaluation deterministic.
func WithSeed(seed int64) Option {
	return func(c *config) { c.evalOpts = append(c.evalOpts, importance.WithSeed(seed)) }
}

// WithTargetName sets the display name of the target on the axis label.
// The name is echoed verbatim; it has no effect on the computation.
func WithTargetName(name string) Option {
	return func(c *config) { c.targetName = name }
}

// PlotParamImportances builds a horizontal bar chart of parameter
// importances, most important on top. A study without completed trials
// yields a valid empty plot with its labels set, not an error.
func PlotParamImportances(s *study.Study, opts ...Option) (*plot.Plot, error) {
	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}

	result, err := importance.EvaluateParamImportances(s, cfg.evalOpts...)
	if err != nil {
		return nil, err
	}

	p := plot.New()
	p.Title.Text = "Hyperparameter Importances"
	p.X.Label.Text = fmt.Sprintf("Importance for %s", importance.DisplayLabel(cfg.targetName))
	p.Y.Label.Text = "Hyperparameter"
	p.X.Min = 0

	if len(result) == 0 {
		return p, nil
	}

	// Bars are drawn bottom-to-top, so reverse the ranking to put the
	// most important parameter at the top of the chart.
	values := make(plotter.Values, len(result))
	names := make([]string, len(result))
	for i, imp := range result {
		pos := len(result) - 1 - i
		values[pos] = imp.Value
		names[pos] = imp.Name
	}

	bars, err := plotter.NewBarChart(values, vg.Points(18))
	if err != nil {
		return nil, errors.Wrap(err, "PlotParamImportances")
	}
	bars.Horizontal = true
	p.Add(bars)
	p.NominalY(names...)

	return p, nil
}
