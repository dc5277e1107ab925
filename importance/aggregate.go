package importance

import "sort"

// DefaultTargetName is the display label used when the caller does not
// name the target. It is cosmetic metadata for the presentation layer and
// never participates in computation.
const DefaultTargetName = "Objective Value"

// DisplayLabel returns the label the presentation layer should render the
// target as: the caller's name verbatim, or DefaultTargetName when empty.
func DisplayLabel(targetName string) string {
	if targetName == "" {
		return DefaultTargetName
	}
	return targetName
}

// assemble turns raw per-parameter scores into a Result: nonnegative
// values normalized to sum to one, sorted descending, ties broken by
// ascending name so repeated calls rank identically.
func assemble(scores map[string]float64) Result {
	result := make(Result, 0, len(scores))
	total := 0.0
	for name, v := range scores {
		if v < 0 {
			v = 0
		}
		total += v
		result = append(result, Importance{Name: name, Value: v})
	}
	if total > 0 {
		for i := range result {
			result[i].Value /= total
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Value != result[j].Value {
			return result[i].Value > result[j].Value
		}
		return result[i].Name < result[j].Name
	})
	return result
}
