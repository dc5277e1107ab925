package study

import (
	"math/rand"

	"github.com/YuminosukeSato/hypertune/pkg/errors"
)

// TrialState represents the lifecycle state of a trial.
type TrialState int

const (
	// Running is a trial whose objective evaluation is in progress.
	Running TrialState = iota
	// Complete is a trial that finished and reported objective values.
	Complete
	// Pruned is a trial stopped early by a pruning policy.
	Pruned
	// Failed is a trial whose objective raised an error.
	Failed
)

// String returns the state name used in logs and storage records.
func (s TrialState) String() string {
	switch s {
	case Running:
		return "RUNNING"
	case Complete:
		return "COMPLETE"
	case Pruned:
		return "PRUNED"
	case Failed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// ParamKind tags the type of a suggested parameter value.
type ParamKind int

const (
	// FloatParam is a continuous parameter.
	FloatParam ParamKind = iota
	// IntParam is an integer parameter.
	IntParam
	// CategoricalParam is a parameter drawn from a fixed set of choices.
	CategoricalParam
)

// ParamValue is a tagged union holding one suggested parameter value.
// Numeric kinds carry Float; categorical kinds carry Str.
type ParamValue struct {
	Kind  ParamKind
	Float float64
	Str   string
}

// FloatValue wraps a continuous value.
func FloatValue(v float64) ParamValue {
	return ParamValue{Kind: FloatParam, Float: v}
}

// IntValue wraps an integer value. The value is stored as float64 so
// numeric parameters share one design-matrix representation.
func IntValue(v int) ParamValue {
	return ParamValue{Kind: IntParam, Float: float64(v)}
}

// CategoricalValue wraps a categorical choice.
func CategoricalValue(s string) ParamValue {
	return ParamValue{Kind: CategoricalParam, Str: s}
}

// IsNumeric reports whether the value participates in numeric encodings directly.
func (p ParamValue) IsNumeric() bool {
	return p.Kind == FloatParam || p.Kind == IntParam
}

// Num returns the numeric value. Only meaningful when IsNumeric is true.
func (p ParamValue) Num() float64 {
	return p.Float
}

// FrozenTrial is the immutable record of one objective evaluation.
// Copies handed out by Study.Trials share no mutable state with the study.
type FrozenTrial struct {
	ID     int                   `json:"id"`
	State  TrialState            `json:"state"`
	Params map[string]ParamValue `json:"params"`
	Values []float64             `json:"values"`
}

// Value returns the primary objective value of a completed trial.
func (t FrozenTrial) Value() (float64, error) {
	if len(t.Values) == 0 {
		return 0, errors.NewValueError("FrozenTrial.Value", "trial has no objective values")
	}
	return t.Values[0], nil
}

func (t FrozenTrial) clone() FrozenTrial {
	c := t
	c.Params = make(map[string]ParamValue, len(t.Params))
	for k, v := range t.Params {
		c.Params[k] = v
	}
	c.Values = append([]float64(nil), t.Values...)
	return c
}

// Trial is the live handle passed to an objective function. Its Suggest
// methods sample a value, record it, and return it. Sampling is independent
// uniform random search; values are reproducible for a fixed study seed.
type Trial struct {
	id     int
	params map[string]ParamValue
	rng    *rand.Rand
}

// ID returns the trial number assigned by the study's storage.
func (t *Trial) ID() int { return t.id }

// SuggestFloat samples a continuous value from [low, high].
func (t *Trial) SuggestFloat(name string, low, high float64) (float64, error) {
	if low > high {
		return 0, errors.NewValueError("SuggestFloat", "low must not exceed high")
	}
	if v, ok := t.params[name]; ok {
		return v.Num(), nil
	}
	v := low + t.rng.Float64()*(high-low)
	t.params[name] = FloatValue(v)
	return v, nil
}

// SuggestInt samples an integer value from [low, high].
func (t *Trial) SuggestInt(name string, low, high int) (int, error) {
	if low > high {
		return 0, errors.NewValueError("SuggestInt", "low must not exceed high")
	}
	if v, ok := t.params[name]; ok {
		return int(v.Num()), nil
	}
	v := low + t.rng.Intn(high-low+1)
	t.params[name] = IntValue(v)
	return v, nil
}

// SuggestCategorical samples one of choices.
func (t *Trial) SuggestCategorical(name string, choices []string) (string, error) {
	if len(choices) == 0 {
		return "", errors.NewValueError("SuggestCategorical", "choices must not be empty")
	}
	if v, ok := t.params[name]; ok {
		return v.Str, nil
	}
	v := choices[t.rng.Intn(len(choices))]
	t.params[name] = CategoricalValue(v)
	return v, nil
}

// Params returns a copy of the parameters recorded so far.
func (t *Trial) Params() map[string]ParamValue {
	out := make(map[string]ParamValue, len(t.params))
	for k, v := range t.params {
		out[k] = v
	}
	return out
}
