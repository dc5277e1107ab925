// Package hypertune provides a hyperparameter-optimization toolkit for Go,
// centered on evaluating which parameters of a study actually matter.
//
// hypertune offers an Optuna-like API: a study collects trials, each trial
// suggests parameter values and reports an objective value, and the
// importance subsystem ranks parameters by how much they explain variation
// in that objective.
//
// # Features
//
// - Study/trial data model with pluggable trial storage (in-memory, bbolt)
// - Parameter-importance evaluation with pluggable strategies
//   (mean decrease in impurity, permutation importance)
// - Mixed numeric/categorical search spaces, including conditional parameters
// - Deterministic results for a fixed seed
// - Horizontal bar-chart rendering via gonum/plot
//
// # Installation
//
// Install hypertune using go get:
//
//	go get github.com/YuminosukeSato/hypertune
//
// # Quick Start
//
// Run a study and rank its parameters:
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/hypertune/importance"
//	    "github.com/YuminosukeSato/hypertune/study"
//	)
//
//	func main() {
//	    s := study.New(study.WithSeed(42))
//	    err := s.Optimize(func(t *study.Trial) (float64, error) {
//	        x, _ := t.SuggestFloat("x", -10, 10)
//	        y, _ := t.SuggestFloat("y", -10, 10)
//	        return x*x + 0.1*y, nil
//	    }, 100)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    result, err := importance.EvaluateParamImportances(s, importance.WithSeed(0))
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    for _, imp := range result {
//	        fmt.Printf("%s: %.3f\n", imp.Name, imp.Value)
//	    }
//	}
//
// # Packages
//
// The library is organized into several packages:
//
//   - study: study/trial data model and the optimization loop
//   - storage: persistent trial stores (bbolt)
//   - importance: parameter-importance evaluators and ranking
//   - visualization: plot rendering for importance results
//   - pkg/errors: structured errors and the warning channel
//   - pkg/log: structured logging setup
package hypertune
