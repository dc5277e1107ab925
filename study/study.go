// Package study provides the study/trial data model of hypertune: a study
// is one optimization run holding the trials evaluated so far, together
// with the direction of each objective.
package study

import (
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/YuminosukeSato/hypertune/pkg/errors"
	"github.com/YuminosukeSato/hypertune/pkg/log"
)

// Direction tells whether an objective is minimized or maximized.
type Direction int

const (
	// Minimize means lower objective values are better.
	Minimize Direction = iota
	// Maximize means higher objective values are better.
	Maximize
)

// String returns the direction name.
func (d Direction) String() string {
	if d == Maximize {
		return "MAXIMIZE"
	}
	return "MINIMIZE"
}

// Objective is a user-supplied function evaluating one trial. Parameters
// are requested through the trial's Suggest methods.
type Objective func(t *Trial) (float64, error)

// Study is one optimization run. A study owns a Storage of trial records
// and a seeded RNG driving parameter suggestion. All exported methods are
// safe for concurrent use; readers always operate on snapshot copies.
type Study struct {
	directions []Direction
	storage    Storage
	logger     *slog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// Option configures a study at creation time.
type Option func(*Study)

// WithDirections sets the optimization direction per objective.
// More than one direction makes the study multi-objective.
func WithDirections(ds ...Direction) Option {
	return func(s *Study) { s.directions = ds }
}

// WithStorage sets the trial store. Defaults to NewInMemoryStorage.
func WithStorage(st Storage) Option {
	return func(s *Study) { s.storage = st }
}

// WithSeed seeds the suggestion RNG for reproducible runs.
func WithSeed(seed int64) Option {
	return func(s *Study) { s.rng = rand.New(rand.NewSource(seed)) }
}

// WithLogger replaces the default slog logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Study) { s.logger = l }
}

// New creates a study. Without options it is single-objective (minimize),
// in-memory, and seeded from the wall clock.
func New(opts ...Option) *Study {
	s := &Study{
		directions: []Direction{Minimize},
		storage:    NewInMemoryStorage(),
		logger:     slog.Default(),
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	if len(s.directions) == 0 {
		s.directions = []Direction{Minimize}
	}
	return s
}

// Directions returns a copy of the objective directions.
func (s *Study) Directions() []Direction {
	return append([]Direction(nil), s.directions...)
}

// Direction returns the primary objective direction.
func (s *Study) Direction() Direction {
	return s.directions[0]
}

// IsMultiObjective reports whether the study optimizes more than one objective.
func (s *Study) IsMultiObjective() bool {
	return len(s.directions) > 1
}

// Trials returns a snapshot copy of all trial records in creation order.
func (s *Study) Trials() ([]FrozenTrial, error) {
	return s.storage.Trials()
}

// AddTrial inserts a pre-built trial record, e.g. results imported from
// another system or fixtures in tests. The stored ID is returned.
func (s *Study) AddTrial(t FrozenTrial) (int, error) {
	if t.State == Complete && len(t.Values) != len(s.directions) {
		return 0, errors.NewDimensionError("AddTrial", len(s.directions), len(t.Values), 1)
	}
	return s.storage.CreateTrial(t)
}

// BestTrial returns the completed trial with the best primary objective
// value. It refuses multi-objective studies, where no total order exists.
func (s *Study) BestTrial() (FrozenTrial, error) {
	if s.IsMultiObjective() {
		return FrozenTrial{}, errors.NewMultiObjectiveError("BestTrial", len(s.directions))
	}
	trials, err := s.storage.Trials()
	if err != nil {
		return FrozenTrial{}, err
	}

	best := FrozenTrial{}
	found := false
	for _, t := range trials {
		if t.State != Complete || len(t.Values) == 0 {
			continue
		}
		if !found {
			best, found = t, true
			continue
		}
		if s.directions[0] == Minimize && t.Values[0] < best.Values[0] {
			best = t
		}
		if s.directions[0] == Maximize && t.Values[0] > best.Values[0] {
			best = t
		}
	}
	if !found {
		return FrozenTrial{}, errors.Wrap(errors.ErrTrialNotFound, "no completed trials")
	}
	return best, nil
}

// OptimizeOption configures one Optimize call.
type OptimizeOption func(*optimizeConfig)

type optimizeConfig struct {
	catch []error
}

// Catch lists error values that mark a trial Failed instead of aborting
// the run. Matching uses errors.Is, so wrapped errors are caught too.
func Catch(targets ...error) OptimizeOption {
	return func(c *optimizeConfig) { c.catch = append(c.catch, targets...) }
}

// Optimize runs the objective nTrials times, recording one trial per run.
// Objective errors listed via Catch (and recovered panics, which are never
// caught) mark the trial Failed; a caught failure continues the run.
// Multi-objective studies cannot use Optimize with a scalar objective.
func (s *Study) Optimize(objective Objective, nTrials int, opts ...OptimizeOption) error {
	if s.IsMultiObjective() {
		return errors.NewMultiObjectiveError("Optimize", len(s.directions))
	}

	cfg := optimizeConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	for i := 0; i < nTrials; i++ {
		id, err := s.storage.CreateTrial(FrozenTrial{
			State:  Running,
			Params: map[string]ParamValue{},
		})
		if err != nil {
			return errors.Wrap(err, "creating trial")
		}

		trial := &Trial{id: id, params: map[string]ParamValue{}, rng: s.trialRNG()}
		value, err := s.runObjective(objective, trial)

		record := FrozenTrial{ID: id, Params: trial.Params()}
		if err != nil {
			record.State = Failed
			if uerr := s.storage.UpdateTrial(record); uerr != nil {
				return errors.Wrap(uerr, "recording failed trial")
			}
			if !caught(err, cfg.catch) {
				return errors.Wrapf(err, "trial %d failed", id)
			}
			s.logger.Warn("trial failed", append(log.TrialAttrs(id, Failed.String()), log.ErrAttr(err))...)
			continue
		}

		record.State = Complete
		record.Values = []float64{value}
		if uerr := s.storage.UpdateTrial(record); uerr != nil {
			return errors.Wrap(uerr, "recording completed trial")
		}
		s.logger.Info("trial finished", append(log.TrialAttrs(id, Complete.String()), slog.Float64("value", value))...)
	}
	return nil
}

// runObjective guards the user's objective so a panic surfaces as an error.
func (s *Study) runObjective(objective Objective, trial *Trial) (value float64, err error) {
	defer errors.Recover(&err, "Optimize")
	return objective(trial)
}

// trialRNG derives a child RNG per trial so suggestion order inside one
// objective call does not perturb later trials.
func (s *Study) trialRNG() *rand.Rand {
	s.mu.Lock()
	defer s.mu.Unlock()
	return rand.New(rand.NewSource(s.rng.Int63()))
}

func caught(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}
