// Package pipeline orchestrates the transaction submission workflow:
// build, sign, broadcast, poll to a terminal state, interpret. Each
// submission runs an independent state machine; a single Pipeline is safe
// for concurrent use and holds no per-submission mutable state.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/cmatc13/ledgerflow/internal/codec"
	"github.com/cmatc13/ledgerflow/internal/journal"
	"github.com/cmatc13/ledgerflow/internal/ledger"
	"github.com/cmatc13/ledgerflow/internal/payload"
	"github.com/cmatc13/ledgerflow/internal/result"
	"github.com/cmatc13/ledgerflow/internal/signing"
	"github.com/cmatc13/ledgerflow/pkg/errors"
	"github.com/cmatc13/ledgerflow/pkg/logging"
	"github.com/cmatc13/ledgerflow/pkg/metrics"
)

// State is a submission's position in its local state machine
type State string

const (
	// StateBuilt means an unsigned payload exists
	StateBuilt State = "BUILT"
	// StateSigned means the payload is signed and content-addressed
	StateSigned State = "SIGNED"
	// StateBroadcast means the remote service accepted the transaction
	StateBroadcast State = "BROADCAST"
	// StateExecuted means a successful terminal record was observed
	StateExecuted State = "EXECUTED"
	// StateFailed means a negative terminal record was observed
	StateFailed State = "FAILED"
	// StateTimedOut means no terminal record was observed in time;
	// the remote outcome is unknown
	StateTimedOut State = "TIMED_OUT"
)

// Publisher receives terminal records for downstream consumers
type Publisher interface {
	PublishOutcome(ctx context.Context, record *ledger.TransactionRecord) error
}

// Config holds the pipeline's per-process configuration. It is created
// once and passed to New; there is no ambient global state.
type Config struct {
	// Chain is the chain name stamped into every payload
	Chain string
	// TTL is the expiry horizon stamped into every payload
	TTL time.Duration
	// PollInterval is the confirmation poll cadence
	PollInterval time.Duration
	// DefaultTimeout bounds confirmation waits when the caller passes none
	DefaultTimeout time.Duration
}

// Option configures optional pipeline collaborators
type Option func(*Pipeline)

// WithLogger sets the pipeline logger
func WithLogger(logger *logging.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// WithJournal records submission lifecycle transitions
func WithJournal(j journal.Journal) Option {
	return func(p *Pipeline) { p.journal = j }
}

// WithMetrics instruments the pipeline
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithPublisher publishes terminal outcomes
func WithPublisher(pub Publisher) Option {
	return func(p *Pipeline) { p.publisher = pub }
}

// Pipeline submits signed transactions and observes their confirmation
type Pipeline struct {
	client    ledger.Client
	cfg       Config
	logger    *logging.Logger
	journal   journal.Journal
	metrics   *metrics.Metrics
	publisher Publisher
}

// New creates a pipeline against a ledger client
func New(client ledger.Client, cfg Config, opts ...Option) (*Pipeline, error) {
	if client == nil {
		return nil, errors.New("pipeline requires a ledger client")
	}
	if cfg.Chain == "" {
		return nil, errors.New("pipeline requires a chain name")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Minute
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 500 * time.Millisecond
	}
	if cfg.DefaultTimeout <= 0 {
		cfg.DefaultTimeout = 60 * time.Second
	}

	p := &Pipeline{
		client: client,
		cfg:    cfg,
		logger: logging.New(logging.DefaultConfig()),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Broadcast sends a signed transaction to the remote service. A synchronous
// rejection surfaces as a broadcast-rejected error and the submission stays
// at Signed; an already-known acceptance is treated exactly like a fresh one.
func (p *Pipeline) Broadcast(ctx context.Context, tx *signing.SignedTransaction) error {
	receipt, err := p.client.Submit(ctx, tx)
	if err != nil {
		var rejection *ledger.RejectionError
		if errors.As(err, &rejection) {
			p.countBroadcast("rejected")
			return errors.PipelineWrapWithCode(err, errors.OpBroadcast,
				errors.PipelineErrBroadcastRejected, rejection.Message)
		}
		p.countBroadcast("error")
		return errors.PipelineWrap(err, errors.OpBroadcast, "broadcast transport failure")
	}

	if receipt.AlreadyKnown {
		p.countBroadcast("already_known")
		p.logger.Debug("Transaction already known to ledger", "address", tx.Address)
	} else {
		p.countBroadcast("accepted")
	}
	return nil
}

// AwaitConfirmation polls the record at address until its status leaves
// Pending or the timeout elapses. The wait is bounded and non-busy; it
// never returns a non-terminal record and never blocks past the deadline
// by more than one poll interval. Cancelling ctx stops local observation
// only; the remote transaction is unaffected.
func (p *Pipeline) AwaitConfirmation(ctx context.Context, address string, timeout time.Duration) (*ledger.TransactionRecord, error) {
	if timeout <= 0 {
		timeout = p.cfg.DefaultTimeout
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()

	for {
		record, err := p.client.GetByAddress(ctx, address)
		if p.metrics != nil {
			p.metrics.PollCount.Inc()
		}
		switch {
		case err == nil && record.Terminal():
			return record, nil
		case err == nil:
			// Still pending, keep polling
		case errors.Is(err, errors.ErrNotFound):
			// Not yet visible to the query surface, keep polling
		case ctx.Err() != nil:
			return nil, errors.PipelineWrapWithCode(ctx.Err(), errors.OpAwaitConfirmation,
				errors.PipelineErrConfirmationTimeout, "confirmation aborted by caller")
		default:
			// Transient read failure: polling retries only the read
			p.logger.WithError(err).Warn("Status poll failed", "address", address)
		}

		select {
		case <-ctx.Done():
			return nil, errors.PipelineWrapWithCode(ctx.Err(), errors.OpAwaitConfirmation,
				errors.PipelineErrConfirmationTimeout, "confirmation aborted by caller")
		case <-deadline.C:
			return nil, errors.PipelineErrorf(errors.PipelineErrConfirmationTimeout,
				"no terminal status for %s within %s; the transaction may still execute", address, timeout)
		case <-ticker.C:
		}
	}
}

// SubmitAndConfirm is the single caller-facing entry point: it builds a
// payload from the target, pricing and arguments, signs it with the given
// identity, broadcasts it, waits for a terminal record, and returns the
// decoded arguments of a successful execution.
func (p *Pipeline) SubmitAndConfirm(
	ctx context.Context,
	target payload.TargetDescriptor,
	pricing payload.PricingPolicy,
	args []codec.Argument,
	identity *signing.Identity,
	timeout time.Duration,
) (*result.ExtractedArgs, error) {
	submissionID := uuid.New().String()
	log := p.logger.WithField("submission_id", submissionID)

	if identity == nil {
		return nil, p.fail(errors.PipelineErrorf(errors.PipelineErrSigning,
			"a signing identity is required"))
	}

	unsigned, err := payload.Build(target, pricing, args, p.cfg.TTL, p.cfg.Chain, identity.PublicKey)
	if err != nil {
		return nil, p.fail(err)
	}
	log.Debug("Payload built", "chain", unsigned.Chain, "entry_point", unsigned.EntryPoint())

	signed, err := signing.Sign(unsigned, identity)
	if err != nil {
		return nil, p.fail(err)
	}
	log = log.WithField("address", signed.Address)
	p.journalState(ctx, submissionID, signed.Address, StateSigned)

	start := time.Now()
	if err := p.Broadcast(ctx, signed); err != nil {
		// Rejection never advances the submission past Signed
		return nil, p.fail(err)
	}
	p.journalState(ctx, submissionID, signed.Address, StateBroadcast)
	log.Info("Transaction broadcast")

	record, err := p.AwaitConfirmation(ctx, signed.Address, timeout)
	if err != nil {
		p.journalState(ctx, submissionID, signed.Address, StateTimedOut)
		if p.metrics != nil {
			p.metrics.ObserveConfirmation("timed_out", start)
		}
		return nil, p.fail(err)
	}

	p.publishOutcome(ctx, record)

	extracted, err := result.Interpret(record)
	if err != nil {
		p.journalState(ctx, submissionID, signed.Address, StateFailed)
		if p.metrics != nil {
			p.metrics.ObserveConfirmation("failed", start)
		}
		log.WithError(err).Info("Transaction failed")
		return nil, p.fail(err)
	}

	p.journalState(ctx, submissionID, signed.Address, StateExecuted)
	if p.metrics != nil {
		p.metrics.ObserveConfirmation("executed", start)
	}
	log.Info("Transaction executed")
	return extracted, nil
}

// journalState records a lifecycle transition. Journal failures are logged
// and never fail the submission.
func (p *Pipeline) journalState(ctx context.Context, submissionID, address string, state State) {
	if p.journal == nil {
		return
	}
	entry := journal.Entry{
		SubmissionID: submissionID,
		Address:      address,
		State:        string(state),
		UpdatedAt:    time.Now(),
	}
	if err := p.journal.Record(ctx, entry); err != nil {
		p.logger.WithError(err).Warn("Failed to journal submission state",
			"address", address, "state", string(state))
	}
}

func (p *Pipeline) publishOutcome(ctx context.Context, record *ledger.TransactionRecord) {
	if p.publisher == nil {
		return
	}
	if err := p.publisher.PublishOutcome(ctx, record); err != nil {
		p.logger.WithError(err).Warn("Failed to publish outcome", "address", record.Address)
	}
}

func (p *Pipeline) countBroadcast(outcome string) {
	if p.metrics != nil {
		p.metrics.BroadcastCount.WithLabelValues(outcome).Inc()
	}
}

// fail counts a submission failure by code and returns err unchanged
func (p *Pipeline) fail(err error) error {
	if p.metrics != nil {
		code := errors.CodeOf(err)
		if code == "" {
			code = "unclassified"
		}
		p.metrics.SubmissionErrors.WithLabelValues(code).Inc()
	}
	return err
}
