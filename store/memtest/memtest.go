// Package memtest is a hand-rolled in-memory FingerprintStore used by the
// core pipeline's hermetic tests (spec §8 properties S1-S6 don't require a
// live Postgres). It is not grounded in any corpus library — no pack repo
// ships an in-memory fake — because the interface boundary itself is what
// spec §4.4 calls out as swappable, and these tests need to exercise it
// without external state.
package memtest

import (
	"context"
	"sync"
	"time"

	"shazoom/errs"
	"shazoom/models"
	"shazoom/store"
)

// Store is a mutex-guarded in-memory FingerprintStore.
type Store struct {
	mu         sync.RWMutex
	nextID     uint64
	recordings map[uint64]models.Recording
	byDigest   map[string]uint64
	tuples     map[uint64][]models.Tuple // recordingID -> tuples
	byHash     map[uint64][]models.Posting
	configHash string
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{
		recordings: make(map[uint64]models.Recording),
		byDigest:   make(map[string]uint64),
		tuples:     make(map[uint64][]models.Tuple),
		byHash:     make(map[uint64][]models.Posting),
	}
}

func (s *Store) PutRecording(_ context.Context, meta models.Recording, tuples []models.Tuple) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byDigest[meta.ContentDigest]; ok {
		return 0, errs.New(errs.DuplicateContent, "content already catalogued", &store.DuplicateError{ExistingID: id})
	}

	s.nextID++
	id := s.nextID
	meta.ID = id
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = time.Unix(0, 0).UTC()
	}
	s.recordings[id] = meta
	s.byDigest[meta.ContentDigest] = id

	stored := make([]models.Tuple, len(tuples))
	for i, tp := range tuples {
		tp.RecordingID = id
		stored[i] = tp
		s.byHash[tp.Hash] = append(s.byHash[tp.Hash], models.Posting{
			Hash:        tp.Hash,
			RecordingID: id,
			StoredTime:  tp.AnchorTime,
		})
	}
	s.tuples[id] = stored

	return id, nil
}

func (s *Store) DeleteRecording(_ context.Context, recordingID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	meta, ok := s.recordings[recordingID]
	if !ok {
		return errs.New(errs.NotFound, "recording not found", nil)
	}

	for _, tp := range s.tuples[recordingID] {
		postings := s.byHash[tp.Hash]
		filtered := postings[:0]
		for _, p := range postings {
			if p.RecordingID != recordingID {
				filtered = append(filtered, p)
			}
		}
		if len(filtered) == 0 {
			delete(s.byHash, tp.Hash)
		} else {
			s.byHash[tp.Hash] = filtered
		}
	}

	delete(s.tuples, recordingID)
	delete(s.recordings, recordingID)
	delete(s.byDigest, meta.ContentDigest)
	return nil
}

func (s *Store) Lookup(_ context.Context, hashes []uint64) ([]models.Posting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Posting
	for _, h := range hashes {
		out = append(out, s.byHash[h]...)
	}
	return out, nil
}

func (s *Store) Get(_ context.Context, recordingID uint64) (models.Recording, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.recordings[recordingID]
	if !ok {
		return models.Recording{}, errs.New(errs.NotFound, "recording not found", nil)
	}
	return r, nil
}

func (s *Store) List(_ context.Context) ([]models.Recording, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Recording, 0, len(s.recordings))
	for _, r := range s.recordings {
		out = append(out, r)
	}
	return out, nil
}

func (s *Store) Stats(_ context.Context) (models.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var tupleCount int64
	for _, ts := range s.tuples {
		tupleCount += int64(len(ts))
	}
	return models.Stats{
		RecordingCount: int64(len(s.recordings)),
		TupleCount:     tupleCount,
	}, nil
}

func (s *Store) ConfigHash(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.configHash, nil
}

func (s *Store) SetConfigHash(_ context.Context, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configHash = hash
	return nil
}

func (s *Store) Close() error { return nil }
