package repository

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/okian/rks/internal/domain/model"
)

// MemoryStore is an in-process Store. Safe for concurrent use.
type MemoryStore struct {
	opts options

	mu     sync.RWMutex
	rows   []model.ScoreRecord
	owners []string       // first-insert order
	counts map[string]int // live rows per owner
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &MemoryStore{opts: o, counts: make(map[string]int)}
}

// ListScoresForUser implements Store.
func (s *MemoryStore) ListScoresForUser(ctx context.Context, ownerID string) ([]model.ScoreRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.ScoreRecord, 0, s.counts[ownerID])
	for _, r := range s.rows {
		if r.OwnerID == ownerID {
			out = append(out, r)
		}
	}
	return out, nil
}

// ListAllUsers implements Store.
func (s *MemoryStore) ListAllUsers(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.owners))
	for _, o := range s.owners {
		if s.counts[o] > 0 {
			out = append(out, o)
		}
	}
	return out, nil
}

// ListAllScores implements Store.
func (s *MemoryStore) ListAllScores(ctx context.Context) ([]model.ScoreRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.rows), nil
}

// InsertScore implements Store.
func (s *MemoryStore) InsertScore(ctx context.Context, rec model.ScoreRecord) (model.ScoreRecord, error) {
	if err := ctx.Err(); err != nil {
		return model.ScoreRecord{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	if err := rec.Validate(); err != nil {
		return model.ScoreRecord{}, err
	}
	rec = s.opts.stamp(rec)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, seen := s.counts[rec.OwnerID]; !seen {
		s.owners = append(s.owners, rec.OwnerID)
	}
	s.counts[rec.OwnerID]++
	s.rows = append(s.rows, rec)
	return rec, nil
}

// DeleteScore implements Store.
func (s *MemoryStore) DeleteScore(ctx context.Context, ownerID, scoreID string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.rows, func(r model.ScoreRecord) bool {
		return r.ID == scoreID && r.OwnerID == ownerID
	})
	if i < 0 {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, ownerID, scoreID)
	}
	s.rows = slices.Delete(s.rows, i, i+1)
	s.counts[ownerID]--
	return nil
}
