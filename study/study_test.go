package study

import (
	"io"
	"log/slog"
	"testing"

	"github.com/YuminosukeSato/hypertune/pkg/errors"
)

func newTestStudy(opts ...Option) *Study {
	opts = append(opts, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	return New(opts...)
}

func TestOptimizeRecordsCompletedTrials(t *testing.T) {
	s := newTestStudy(WithSeed(1))

	err := s.Optimize(func(trial *Trial) (float64, error) {
		x, serr := trial.SuggestFloat("x", -5, 5)
		if serr != nil {
			return 0, serr
		}
		return x * x, nil
	}, 10)
	if err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}

	trials, err := s.Trials()
	if err != nil {
		t.Fatalf("Trials failed: %v", err)
	}
	if len(trials) != 10 {
		t.Fatalf("expected 10 trials, got %d", len(trials))
	}
	for _, trial := range trials {
		if trial.State != Complete {
			t.Errorf("trial %d: state = %v, want COMPLETE", trial.ID, trial.State)
		}
		if len(trial.Values) != 1 {
			t.Errorf("trial %d: expected one objective value", trial.ID)
		}
		if _, ok := trial.Params["x"]; !ok {
			t.Errorf("trial %d: suggested parameter not recorded", trial.ID)
		}
	}
}

func TestOptimizeCatchMarksTrialFailed(t *testing.T) {
	s := newTestStudy(WithSeed(2))
	boom := errors.New("bad objective")

	err := s.Optimize(func(trial *Trial) (float64, error) {
		return 0, boom
	}, 3, Catch(boom))
	if err != nil {
		t.Fatalf("caught errors should not abort the run: %v", err)
	}

	trials, _ := s.Trials()
	if len(trials) != 3 {
		t.Fatalf("expected 3 trials, got %d", len(trials))
	}
	for _, trial := range trials {
		if trial.State != Failed {
			t.Errorf("trial %d: state = %v, want FAILED", trial.ID, trial.State)
		}
	}
}

func TestOptimizeUncaughtErrorAborts(t *testing.T) {
	s := newTestStudy()
	boom := errors.New("bad objective")

	err := s.Optimize(func(trial *Trial) (float64, error) {
		return 0, boom
	}, 5)
	if err == nil {
		t.Fatal("expected uncaught objective error to abort")
	}
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped objective error, got %v", err)
	}

	trials, _ := s.Trials()
	if len(trials) != 1 {
		t.Fatalf("run should stop after the first failure, got %d trials", len(trials))
	}
}

func TestOptimizeRecoversPanic(t *testing.T) {
	s := newTestStudy()

	err := s.Optimize(func(trial *Trial) (float64, error) {
		panic("objective exploded")
	}, 3)
	if err == nil {
		t.Fatal("expected panic to surface as error")
	}

	var pErr *errors.PanicError
	if !errors.As(err, &pErr) {
		t.Fatalf("expected *PanicError, got %T", err)
	}
}

func TestOptimizeMultiObjectiveRejected(t *testing.T) {
	s := newTestStudy(WithDirections(Minimize, Maximize))

	err := s.Optimize(func(trial *Trial) (float64, error) { return 0, nil }, 1)
	var moErr *errors.MultiObjectiveError
	if !errors.As(err, &moErr) {
		t.Fatalf("expected *MultiObjectiveError, got %v", err)
	}
}

func TestBestTrial(t *testing.T) {
	tests := []struct {
		name      string
		direction Direction
		values    []float64
		wantValue float64
	}{
		{"minimize picks lowest", Minimize, []float64{3, 1, 2}, 1},
		{"maximize picks highest", Maximize, []float64{3, 1, 2}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStudy(WithDirections(tt.direction))
			for _, v := range tt.values {
				if _, err := s.AddTrial(FrozenTrial{
					State:  Complete,
					Params: map[string]ParamValue{},
					Values: []float64{v},
				}); err != nil {
					t.Fatalf("AddTrial failed: %v", err)
				}
			}

			best, err := s.BestTrial()
			if err != nil {
				t.Fatalf("BestTrial failed: %v", err)
			}
			if best.Values[0] != tt.wantValue {
				t.Errorf("best value = %v, want %v", best.Values[0], tt.wantValue)
			}
		})
	}
}

func TestBestTrialMultiObjectiveRejected(t *testing.T) {
	s := newTestStudy(WithDirections(Minimize, Minimize))

	_, err := s.BestTrial()
	var moErr *errors.MultiObjectiveError
	if !errors.As(err, &moErr) {
		t.Fatalf("expected *MultiObjectiveError, got %v", err)
	}
}

func TestBestTrialIgnoresFailedTrials(t *testing.T) {
	s := newTestStudy()
	if _, err := s.AddTrial(FrozenTrial{State: Failed, Params: map[string]ParamValue{}}); err != nil {
		t.Fatalf("AddTrial failed: %v", err)
	}

	if _, err := s.BestTrial(); !errors.Is(err, errors.ErrTrialNotFound) {
		t.Errorf("expected ErrTrialNotFound, got %v", err)
	}
}

func TestAddTrialValidatesValueCount(t *testing.T) {
	s := newTestStudy(WithDirections(Minimize, Minimize))

	_, err := s.AddTrial(FrozenTrial{
		State:  Complete,
		Params: map[string]ParamValue{},
		Values: []float64{1},
	})
	var dimErr *errors.DimensionError
	if !errors.As(err, &dimErr) {
		t.Fatalf("expected *DimensionError, got %v", err)
	}
}

func TestSeededStudiesReproduce(t *testing.T) {
	run := func() []FrozenTrial {
		s := newTestStudy(WithSeed(77))
		if err := s.Optimize(func(trial *Trial) (float64, error) {
			a, _ := trial.SuggestFloat("a", 0, 1)
			b, _ := trial.SuggestInt("b", 0, 9)
			c, _ := trial.SuggestCategorical("c", []string{"u", "v"})
			_ = c
			return a + float64(b), nil
		}, 5); err != nil {
			t.Fatalf("Optimize failed: %v", err)
		}
		trials, _ := s.Trials()
		return trials
	}

	first := run()
	second := run()
	for i := range first {
		for name, v := range first[i].Params {
			if second[i].Params[name] != v {
				t.Errorf("trial %d param %s differs between seeded runs", i, name)
			}
		}
	}
}

func TestTrialsReturnsSnapshotCopies(t *testing.T) {
	s := newTestStudy()
	if _, err := s.AddTrial(FrozenTrial{
		State:  Complete,
		Params: map[string]ParamValue{"a": FloatValue(1)},
		Values: []float64{1},
	}); err != nil {
		t.Fatalf("AddTrial failed: %v", err)
	}

	trials, _ := s.Trials()
	trials[0].Params["a"] = FloatValue(999)
	trials[0].Values[0] = 999

	again, _ := s.Trials()
	if again[0].Params["a"].Num() != 1 || again[0].Values[0] != 1 {
		t.Error("mutating a snapshot must not leak into storage")
	}
}

func TestSuggestValidatesRanges(t *testing.T) {
	trial := &Trial{params: map[string]ParamValue{}}

	if _, err := trial.SuggestFloat("x", 2, 1); err == nil {
		t.Error("expected error for inverted float range")
	}
	if _, err := trial.SuggestInt("y", 5, 4); err == nil {
		t.Error("expected error for inverted int range")
	}
	if _, err := trial.SuggestCategorical("z", nil); err == nil {
		t.Error("expected error for empty choices")
	}
}
