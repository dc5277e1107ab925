// Package storage provides persistent trial stores. The bbolt-backed
// implementation keeps one bucket per study with JSON-serialized trial
// records, so a study can be resumed or analyzed after the process exits.
package storage

import (
	"encoding/binary"
	"encoding/json"

	bolt "go.etcd.io/bbolt"

	"github.com/YuminosukeSato/hypertune/pkg/errors"
	"github.com/YuminosukeSato/hypertune/study"
)

// BoltStorage implements study.Storage on top of a bbolt database.
// Trial IDs are dense and assigned in creation order; keys are big-endian
// so cursor order equals creation order.
type BoltStorage struct {
	db     *bolt.DB
	bucket []byte
	owned  bool
}

// Open opens (or creates) the database file at path and returns a store
// backed by the bucket named studyName.
func Open(path, studyName string) (*BoltStorage, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "opening study database %s", path)
	}
	s, err := NewBoltStorage(db, studyName)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	s.owned = true
	return s, nil
}

// NewBoltStorage wraps an already-open bbolt database. The caller keeps
// ownership of db and is responsible for closing it.
func NewBoltStorage(db *bolt.DB, studyName string) (*BoltStorage, error) {
	bucket := []byte(studyName)
	err := db.Update(func(tx *bolt.Tx) error {
		_, berr := tx.CreateBucketIfNotExists(bucket)
		return berr
	})
	if err != nil {
		return nil, errors.Wrapf(err, "creating study bucket %s", studyName)
	}
	return &BoltStorage{db: db, bucket: bucket}, nil
}

// Close closes the underlying database if this store opened it.
func (s *BoltStorage) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}

// CreateTrial implements study.Storage.
func (s *BoltStorage) CreateTrial(t study.FrozenTrial) (int, error) {
	var id int
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		seq, serr := b.NextSequence()
		if serr != nil {
			return serr
		}
		id = int(seq - 1)
		t.ID = id
		data, merr := json.Marshal(t)
		if merr != nil {
			return merr
		}
		return b.Put(trialKey(id), data)
	})
	if err != nil {
		return 0, errors.Wrap(err, "storing trial")
	}
	return id, nil
}

// UpdateTrial implements study.Storage.
func (s *BoltStorage) UpdateTrial(t study.FrozenTrial) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b.Get(trialKey(t.ID)) == nil {
			return errors.Wrapf(errors.ErrTrialNotFound, "trial_id=%d", t.ID)
		}
		data, merr := json.Marshal(t)
		if merr != nil {
			return merr
		}
		return b.Put(trialKey(t.ID), data)
	})
	return errors.Wrap(err, "updating trial")
}

// Trials implements study.Storage.
func (s *BoltStorage) Trials() ([]study.FrozenTrial, error) {
	var out []study.FrozenTrial
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		return b.ForEach(func(_, v []byte) error {
			var t study.FrozenTrial
			if merr := json.Unmarshal(v, &t); merr != nil {
				return merr
			}
			out = append(out, t)
			return nil
		})
	})
	if err != nil {
		return nil, errors.Wrap(err, "loading trials")
	}
	return out, nil
}

func trialKey(id int) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(id))
	return key
}
