// Package ledgertest provides an in-memory ledger service fake with
// scripted acceptance, rejection, and execution behavior for pipeline tests.
package ledgertest

import (
	"context"
	"sync"

	"github.com/cmatc13/ledgerflow/internal/ledger"
	"github.com/cmatc13/ledgerflow/internal/signing"
	"github.com/cmatc13/ledgerflow/pkg/errors"
)

// Ledger is an in-memory ledger.Client. Records transition from Pending to
// a scripted terminal status after a configurable number of status polls,
// and submissions are deduped by address like the real service.
type Ledger struct {
	mu sync.Mutex

	records      map[string]*ledger.TransactionRecord
	submits      map[string]int
	polls        map[string]int
	pollsToTerm  int
	outcome      ledger.Status
	errorMessage string
	rejectWith   string
	holdPending  bool
}

// New creates a fake that executes records successfully on the first poll
func New() *Ledger {
	return &Ledger{
		records: make(map[string]*ledger.TransactionRecord),
		submits: make(map[string]int),
		polls:   make(map[string]int),
		outcome: ledger.StatusExecuted,
	}
}

// RejectNext makes every subsequent Submit fail synchronously with msg
func (l *Ledger) RejectNext(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rejectWith = msg
}

// ExecuteAfter delays the Pending to terminal transition by n status polls
func (l *Ledger) ExecuteAfter(n int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pollsToTerm = n
}

// HoldPending keeps records Pending forever, forcing observation timeouts
func (l *Ledger) HoldPending() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.holdPending = true
}

// FailWith makes records terminate as Failed with the given message
func (l *Ledger) FailWith(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.outcome = ledger.StatusFailed
	l.errorMessage = msg
}

// RevertWith makes records terminate as Executed with an application-level
// revert message
func (l *Ledger) RevertWith(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.outcome = ledger.StatusExecuted
	l.errorMessage = msg
}

// SubmitCount reports how many times an address was submitted
func (l *Ledger) SubmitCount(address string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.submits[address]
}

// RecordCount reports how many distinct records exist
func (l *Ledger) RecordCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// Submit implements ledger.Client
func (l *Ledger) Submit(ctx context.Context, tx *signing.SignedTransaction) (*ledger.SubmitReceipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.rejectWith != "" {
		return nil, &ledger.RejectionError{Message: l.rejectWith}
	}

	l.submits[tx.Address]++
	if _, known := l.records[tx.Address]; known {
		return &ledger.SubmitReceipt{Address: tx.Address, AlreadyKnown: true}, nil
	}

	l.records[tx.Address] = &ledger.TransactionRecord{
		Address: tx.Address,
		Status:  ledger.StatusPending,
		Args:    tx.Payload.Args,
	}
	return &ledger.SubmitReceipt{Address: tx.Address}, nil
}

// GetByAddress implements ledger.Client
func (l *Ledger) GetByAddress(ctx context.Context, address string) (*ledger.TransactionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	record, known := l.records[address]
	if !known {
		return nil, errors.ErrNotFound
	}

	l.polls[address]++
	if !l.holdPending && record.Status == ledger.StatusPending && l.polls[address] > l.pollsToTerm {
		record.Status = l.outcome
		record.ErrorMessage = l.errorMessage
	}

	// Hand out a copy so callers cannot mutate remote state
	snapshot := *record
	return &snapshot, nil
}
