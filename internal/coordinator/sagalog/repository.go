package sagalog

import (
	"context"
	"sync"
)

// Repository persists incident entries. The coordinator depends on this
// abstraction; a nil Repository disables incident logging.
type Repository interface {
	// Save appends an entry. Rows are never updated.
	Save(ctx context.Context, entry *Entry) error
}

// MemoryRepository keeps entries in a slice. It backs tests and the
// memory store deployment.
type MemoryRepository struct {
	mu      sync.Mutex
	entries []Entry
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Save(_ context.Context, entry *Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *entry)
	return nil
}

// Entries returns a copy of everything saved so far, oldest first.
func (r *MemoryRepository) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}
