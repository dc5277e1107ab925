package study

import (
	"sync"

	"github.com/YuminosukeSato/hypertune/pkg/errors"
)

// Storage persists trial records for one study. Implementations must be
// safe for concurrent use; the study never hands callers a record that
// aliases storage-internal state.
type Storage interface {
	// CreateTrial stores a new trial and returns its assigned ID.
	CreateTrial(t FrozenTrial) (int, error)

	// UpdateTrial replaces the record with t's ID.
	UpdateTrial(t FrozenTrial) error

	// Trials returns a snapshot copy of all records in creation order.
	Trials() ([]FrozenTrial, error)
}

// InMemoryStorage keeps trial records in process memory. It is the
// default storage for studies created by New.
type InMemoryStorage struct {
	mu     sync.RWMutex
	trials []FrozenTrial
}

// NewInMemoryStorage returns an empty in-memory store.
func NewInMemoryStorage() *InMemoryStorage {
	return &InMemoryStorage{}
}

// CreateTrial implements Storage.
func (s *InMemoryStorage) CreateTrial(t FrozenTrial) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t.ID = len(s.trials)
	s.trials = append(s.trials, t.clone())
	return t.ID, nil
}

// UpdateTrial implements Storage.
func (s *InMemoryStorage) UpdateTrial(t FrozenTrial) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.ID < 0 || t.ID >= len(s.trials) {
		return errors.Wrapf(errors.ErrTrialNotFound, "trial_id=%d", t.ID)
	}
	s.trials[t.ID] = t.clone()
	return nil
}

// Trials implements Storage.
func (s *InMemoryStorage) Trials() ([]FrozenTrial, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]FrozenTrial, 0, len(s.trials))
	for _, t := range s.trials {
		out = append(out, t.clone())
	}
	return out, nil
}
