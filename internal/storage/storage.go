// Package storage persists fit-run checkpoints: per-split fitted
// parameters and log-likelihoods, so re-runs and cluster jobs can skip
// splits that already finished.
package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Storage key prefixes.
const (
	keySplitPrefix = "split/"
	keyRunInfo     = "run_info"
)

// RunInfo describes the ingest that produced the splits, so a resumed run
// can detect a mismatched input.
type RunInfo struct {
	InputPath    string    `json:"input_path"`
	SplitCount   int       `json:"split_count"`
	Observations int       `json:"observations"`
	StartedAt    time.Time `json:"started_at"`
}

// SplitResult is one finished cross-validation split.
type SplitResult struct {
	Split       int       `json:"split"`
	Params      []float64 `json:"params"`
	LLTrain     []float64 `json:"lltrain"`
	LLTest      []float64 `json:"lltest"`
	CompletedAt time.Time `json:"completed_at"`
}

// Store wraps BadgerDB for checkpoint persistence.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) the checkpoint database at dir.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // Disable logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func splitKey(split int) []byte {
	return []byte(fmt.Sprintf("%s%d", keySplitPrefix, split))
}

// SaveRunInfo records the run description.
func (s *Store) SaveRunInfo(info RunInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyRunInfo), data)
	})
}

// LoadRunInfo returns the stored run description, if any.
func (s *Store) LoadRunInfo() (RunInfo, bool, error) {
	var info RunInfo
	found := false

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyRunInfo))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &info)
		})
	})
	return info, found, err
}

// SaveSplitResult checkpoints a finished split.
func (s *Store) SaveSplitResult(result SplitResult) error {
	result.CompletedAt = time.Now()

	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(splitKey(result.Split), data)
	})
}

// LoadSplitResult returns a split's checkpoint, if it exists.
func (s *Store) LoadSplitResult(split int) (SplitResult, bool, error) {
	var result SplitResult
	found := false

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(splitKey(split))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &result)
		})
	})
	return result, found, err
}

// IsSplitDone reports whether a split has a checkpoint.
func (s *Store) IsSplitDone(split int) (bool, error) {
	_, found, err := s.LoadSplitResult(split)
	return found, err
}

// CompletedSplits lists the split numbers with checkpoints.
func (s *Store) CompletedSplits() ([]int, error) {
	var splits []int
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(keySplitPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			var split int
			if _, err := fmt.Sscanf(string(it.Item().Key()), keySplitPrefix+"%d", &split); err == nil {
				splits = append(splits, split)
			}
		}
		return nil
	})
	return splits, err
}
