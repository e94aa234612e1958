// internal/journal/memory.go
package journal

import (
	"context"
	"sync"

	"github.com/cmatc13/ledgerflow/pkg/errors"
)

// MemoryJournal is an in-process Journal for tests and one-shot CLI runs
type MemoryJournal struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemoryJournal creates an empty in-process journal
func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{
		entries: make(map[string]Entry),
	}
}

// Record implements Journal
func (j *MemoryJournal) Record(ctx context.Context, entry Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries[entry.Address] = entry
	return nil
}

// Get implements Journal
func (j *MemoryJournal) Get(ctx context.Context, address string) (*Entry, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	entry, exists := j.entries[address]
	if !exists {
		return nil, errors.ErrNotFound
	}
	return &entry, nil
}

// Close implements Journal
func (j *MemoryJournal) Close() error {
	return nil
}
