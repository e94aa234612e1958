// Package ledger defines the request/response contract of the remote ledger
// service the pipeline submits to. Transport details live in the client
// implementations; the pipeline depends only on the Client interface.
package ledger

import (
	"context"

	"github.com/cmatc13/ledgerflow/internal/codec"
	"github.com/cmatc13/ledgerflow/internal/signing"
)

// Status is the remote-observed state of a submitted transaction
type Status string

const (
	// StatusPending transactions are accepted but not yet executed
	StatusPending Status = "PENDING"
	// StatusExecuted transactions have run; an error message on an executed
	// record signals an application-level revert
	StatusExecuted Status = "EXECUTED"
	// StatusFailed transactions were rejected at execution
	StatusFailed Status = "FAILED"
)

// TransactionRecord is the remote service's view of a submitted transaction.
// It is created by the service on acceptance, mutated asynchronously as the
// transaction executes, and never mutated locally.
type TransactionRecord struct {
	Address      string           `json:"address"`
	Status       Status           `json:"status"`
	Args         []codec.Argument `json:"args,omitempty"`
	ErrorMessage string           `json:"error_message,omitempty"`
}

// Terminal reports whether the record's status will not change further
func (r *TransactionRecord) Terminal() bool {
	return r.Status == StatusExecuted || r.Status == StatusFailed
}

// SubmitReceipt acknowledges acceptance of a submitted transaction.
// AlreadyKnown acceptance is equivalent to fresh acceptance: the service
// dedups by address, so no duplicate economic effect occurs.
type SubmitReceipt struct {
	Address      string `json:"address"`
	AlreadyKnown bool   `json:"already_known,omitempty"`
}

// RejectionError is a synchronous rejection from the remote service
// (malformed, expired, insufficient fee).
type RejectionError struct {
	Message string
}

// Error implements the error interface
func (e *RejectionError) Error() string {
	return "transaction rejected: " + e.Message
}

// Client is the remote ledger service contract
type Client interface {
	// Submit sends a signed transaction. It returns a receipt on acceptance
	// (fresh or already known) or a *RejectionError on synchronous rejection.
	Submit(ctx context.Context, tx *signing.SignedTransaction) (*SubmitReceipt, error)

	// GetByAddress fetches the record at an address. It returns
	// errors.ErrNotFound while the service has no record yet.
	GetByAddress(ctx context.Context, address string) (*TransactionRecord, error)
}
