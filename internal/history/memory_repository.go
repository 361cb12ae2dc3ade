package history

import (
	"context"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository.
// Used when no database is configured, and in tests.
type InMemoryRepository struct {
	mu      sync.RWMutex
	records []*Record
}

// NewInMemoryRepository creates a new in-memory history repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{}
}

// Insert stores a prediction record.
func (r *InMemoryRepository) Insert(_ context.Context, record *Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cpy := *record
	r.records = append(r.records, &cpy)
	return nil
}

// ListRecent returns up to limit records, newest first.
func (r *InMemoryRepository) ListRecent(_ context.Context, limit int) ([]*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}

	n := len(r.records)
	if limit > n {
		limit = n
	}

	out := make([]*Record, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		cpy := *r.records[i]
		out = append(out, &cpy)
	}
	return out, nil
}
