package importance

import (
	"sort"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/hypertune/pkg/errors"
	"github.com/YuminosukeSato/hypertune/study"
)

// encoded is a design matrix over completed trials plus the mapping from
// matrix columns back to parameter names. Each parameter owns a contiguous
// group of columns: one column for a numeric parameter (plus a missing
// indicator when the parameter is conditional), or one column per observed
// category for a categorical parameter.
type encoded struct {
	matrix *mat.Dense
	names  []string
	groups [][]int // column indices per parameter, same order as names
}

// encode builds the design matrix for the given parameter names.
// Parameters absent from some trials never fail: missing numeric values
// are mean-imputed with a dedicated indicator column, and categorical
// parameters get a distinct missing category.
func encode(trials []study.FrozenTrial, names []string) (*encoded, error) {
	if len(trials) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "encode")
	}

	type column struct {
		values []float64
	}
	var columns []column
	groups := make([][]int, len(names))

	for pi, name := range names {
		numeric := true
		present := 0
		for _, t := range trials {
			v, ok := t.Params[name]
			if !ok {
				continue
			}
			present++
			if !v.IsNumeric() {
				numeric = false
			}
		}
		if present == 0 {
			// Unreachable after resolveParams, kept as a guard for
			// evaluators invoked with hand-built name lists.
			return nil, errors.NewInvalidParameterError("encode", []string{name})
		}

		if numeric {
			values := make([]float64, len(trials))
			indicator := make([]float64, len(trials))
			sum := 0.0
			missing := false
			for i, t := range trials {
				v, ok := t.Params[name]
				if !ok {
					indicator[i] = 1.0
					missing = true
					continue
				}
				values[i] = v.Num()
				sum += v.Num()
			}
			if missing {
				mean := sum / float64(present)
				for i := range values {
					if indicator[i] == 1.0 {
						values[i] = mean
					}
				}
			}
			groups[pi] = append(groups[pi], len(columns))
			columns = append(columns, column{values: values})
			if missing {
				groups[pi] = append(groups[pi], len(columns))
				columns = append(columns, column{values: indicator})
			}
			continue
		}

		// Categorical (or mixed) parameter: one-hot over observed
		// categories; a missing value is its own category.
		catIndex := map[string]int{}
		var cats []string
		for _, t := range trials {
			key, ok := categoryKey(t, name)
			if !ok {
				key = missingCategory
			}
			if _, exists := catIndex[key]; !exists {
				catIndex[key] = len(cats)
				cats = append(cats, key)
			}
		}
		sort.Strings(cats)
		for i, key := range cats {
			catIndex[key] = i
		}

		base := len(columns)
		for range cats {
			columns = append(columns, column{values: make([]float64, len(trials))})
		}
		for i, t := range trials {
			key, ok := categoryKey(t, name)
			if !ok {
				key = missingCategory
			}
			columns[base+catIndex[key]].values[i] = 1.0
		}
		for c := 0; c < len(cats); c++ {
			groups[pi] = append(groups[pi], base+c)
		}
	}

	X := mat.NewDense(len(trials), len(columns), nil)
	for j, col := range columns {
		for i, v := range col.values {
			X.Set(i, j, v)
		}
	}
	return &encoded{matrix: X, names: names, groups: groups}, nil
}

// missingCategory is the sentinel category for conditional parameters.
// The NUL prefix keeps it from colliding with user-supplied choices.
const missingCategory = "\x00missing"

func categoryKey(t study.FrozenTrial, name string) (string, bool) {
	v, ok := t.Params[name]
	if !ok {
		return "", false
	}
	if v.Kind == study.CategoricalParam {
		return v.Str, true
	}
	return strconv.FormatFloat(v.Num(), 'g', -1, 64), true
}

// paramScores folds per-column scores back onto parameters by summing each
// parameter's column group.
func (e *encoded) paramScores(columnScores []float64) (map[string]float64, error) {
	_, cols := e.matrix.Dims()
	if len(columnScores) != cols {
		return nil, errors.NewDimensionError("paramScores", cols, len(columnScores), 1)
	}
	scores := make(map[string]float64, len(e.names))
	for pi, name := range e.names {
		total := 0.0
		for _, c := range e.groups[pi] {
			total += columnScores[c]
		}
		scores[name] = total
	}
	return scores, nil
}
