// Package journal records the local lifecycle of submitted transactions so
// operators can answer "what happened to this address" across restarts.
// Journal writes are observability only: a failed write never fails the
// submission itself.
package journal

import (
	"context"
	"time"
)

// Entry is the journaled view of a single submission
type Entry struct {
	SubmissionID string    `json:"submission_id"`
	Address      string    `json:"address"`
	State        string    `json:"state"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Journal stores submission lifecycle entries keyed by address
type Journal interface {
	// Record upserts the entry for an address
	Record(ctx context.Context, entry Entry) error

	// Get returns the entry for an address, or errors.ErrNotFound
	Get(ctx context.Context, address string) (*Entry, error)

	// Close releases underlying resources
	Close() error
}
