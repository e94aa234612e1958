package pipeline

import (
	"context"
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmatc13/ledgerflow/internal/codec"
	"github.com/cmatc13/ledgerflow/internal/journal"
	"github.com/cmatc13/ledgerflow/internal/ledger"
	"github.com/cmatc13/ledgerflow/internal/ledger/ledgertest"
	"github.com/cmatc13/ledgerflow/internal/payload"
	"github.com/cmatc13/ledgerflow/internal/signing"
	"github.com/cmatc13/ledgerflow/pkg/errors"
)

func newTestPipeline(t *testing.T, fake *ledgertest.Ledger, opts ...Option) *Pipeline {
	t.Helper()
	p, err := New(fake, Config{
		Chain:          "ledgerflow-test",
		TTL:            30 * time.Minute,
		PollInterval:   5 * time.Millisecond,
		DefaultTimeout: 2 * time.Second,
	}, opts...)
	require.NoError(t, err)
	return p
}

func newTestIdentity(t *testing.T) *signing.Identity {
	t.Helper()
	id, err := signing.NewIdentity()
	require.NoError(t, err)
	return id
}

func tagArg(t *testing.T, tag uint64) codec.Argument {
	t.Helper()
	arg, err := codec.Encode("sr_id", codec.TagBytes(tag), codec.ByteArray32)
	require.NoError(t, err)
	return arg
}

func TestSubmitAndConfirmTransferRoundTrip(t *testing.T) {
	fake := ledgertest.New()
	jnl := journal.NewMemoryJournal()
	p := newTestPipeline(t, fake, WithJournal(jnl))
	id := newTestIdentity(t)

	tag := codec.TagBytes(15)
	require.Equal(t, byte(15), tag[0])

	amountArg, err := codec.Encode("amount", uint64(4_200_000_000), codec.U64)
	require.NoError(t, err)
	args, err := codec.NewArgs(tagArg(t, 15), amountArg)
	require.NoError(t, err)

	extracted, err := p.SubmitAndConfirm(
		context.Background(),
		payload.NativeTransfer("recipient-1", 4_200_000_000),
		payload.FixedFee(100_000_000),
		args,
		id,
		time.Second,
	)
	require.NoError(t, err)

	// The tag survives the full round trip through the remote record
	decoded, err := extracted.Decode("sr_id")
	require.NoError(t, err)
	assert.Equal(t, tag, decoded.ByteArray())
	assert.Equal(t, hex.EncodeToString(tag), decoded.String())

	amount, err := extracted.Decode("amount")
	require.NoError(t, err)
	assert.Equal(t, uint64(4_200_000_000), amount.Uint64())

	entry, err := jnl.Get(context.Background(), extracted.Address)
	require.NoError(t, err)
	assert.Equal(t, string(StateExecuted), entry.State)
}

func TestSubmitAndConfirmContractCallRevert(t *testing.T) {
	fake := ledgertest.New()
	fake.RevertWith("transfer reverted: insufficient balance")
	p := newTestPipeline(t, fake)
	id := newTestIdentity(t)

	amountArg, err := codec.Encode("amount", uint64(1000), codec.U64)
	require.NoError(t, err)
	args, err := codec.NewArgs(tagArg(t, 63), amountArg)
	require.NoError(t, err)

	_, err = p.SubmitAndConfirm(
		context.Background(),
		payload.ContractCall("hash-token", "transfer"),
		payload.FixedFee(100_000_000),
		args,
		id,
		time.Second,
	)
	require.Error(t, err)
	assert.True(t, errors.IsPipelineError(err, errors.PipelineErrExecutionFailed))

	// The remote revert message surfaces verbatim
	var domainErr *errors.Error
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "transfer reverted: insufficient balance", domainErr.Message)
}

func TestBroadcastRejectionLeavesNoRecord(t *testing.T) {
	fake := ledgertest.New()
	fake.RejectNext("insufficient fee")
	p := newTestPipeline(t, fake)
	id := newTestIdentity(t)

	_, err := p.SubmitAndConfirm(
		context.Background(),
		payload.NativeTransfer("recipient-1", 1000),
		payload.FixedFee(1),
		nil,
		id,
		time.Second,
	)
	require.Error(t, err)
	assert.True(t, errors.IsPipelineError(err, errors.PipelineErrBroadcastRejected))
	assert.Equal(t, 0, fake.RecordCount())
}

func TestConfirmationTimeoutIsNotFailure(t *testing.T) {
	fake := ledgertest.New()
	fake.HoldPending()
	p := newTestPipeline(t, fake)
	id := newTestIdentity(t)

	timeout := 60 * time.Millisecond
	start := time.Now()
	_, err := p.SubmitAndConfirm(
		context.Background(),
		payload.NativeTransfer("recipient-1", 1000),
		payload.FixedFee(100),
		nil,
		id,
		timeout,
	)
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.True(t, errors.IsPipelineError(err, errors.PipelineErrConfirmationTimeout))
	assert.False(t, errors.IsPipelineError(err, errors.PipelineErrExecutionFailed))

	// The wait honors the full deadline and does not give up early
	assert.GreaterOrEqual(t, elapsed, timeout)
	assert.Less(t, elapsed, timeout+time.Second)
}

func TestDelayedExecutionKeepsPolling(t *testing.T) {
	fake := ledgertest.New()
	fake.ExecuteAfter(4)
	p := newTestPipeline(t, fake)
	id := newTestIdentity(t)

	extracted, err := p.SubmitAndConfirm(
		context.Background(),
		payload.NativeTransfer("recipient-1", 1000),
		payload.FixedFee(100),
		nil,
		id,
		time.Second,
	)
	require.NoError(t, err)
	assert.NotEmpty(t, extracted.Address)
}

func TestRebroadcastIsIdempotent(t *testing.T) {
	fake := ledgertest.New()
	p := newTestPipeline(t, fake)
	id := newTestIdentity(t)

	unsigned, err := payload.Build(
		payload.NativeTransfer("recipient-1", 1000),
		payload.FixedFee(100),
		nil,
		30*time.Minute,
		"ledgerflow-test",
		id.PublicKey,
	)
	require.NoError(t, err)
	signed, err := signing.Sign(unsigned, id)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, p.Broadcast(ctx, signed))
	require.NoError(t, p.Broadcast(ctx, signed))

	// Both broadcasts are accepted but the service holds a single record
	assert.Equal(t, 2, fake.SubmitCount(signed.Address))
	assert.Equal(t, 1, fake.RecordCount())

	record, err := p.AwaitConfirmation(ctx, signed.Address, time.Second)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusExecuted, record.Status)
}

func TestAwaitConfirmationCancellation(t *testing.T) {
	fake := ledgertest.New()
	fake.HoldPending()
	p := newTestPipeline(t, fake)
	id := newTestIdentity(t)

	unsigned, err := payload.Build(
		payload.NativeTransfer("recipient-1", 1000),
		payload.FixedFee(100),
		nil,
		30*time.Minute,
		"ledgerflow-test",
		id.PublicKey,
	)
	require.NoError(t, err)
	signed, err := signing.Sign(unsigned, id)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, p.Broadcast(ctx, signed))

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err = p.AwaitConfirmation(ctx, signed.Address, 5*time.Second)
	require.Error(t, err)
	assert.True(t, errors.IsPipelineError(err, errors.PipelineErrConfirmationTimeout))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestSubmitAndConfirmValidationErrors(t *testing.T) {
	fake := ledgertest.New()
	p := newTestPipeline(t, fake)
	id := newTestIdentity(t)
	ctx := context.Background()

	_, err := p.SubmitAndConfirm(ctx, payload.NativeTransfer("", 0),
		payload.FixedFee(100), nil, id, time.Second)
	assert.True(t, errors.IsPipelineError(err, errors.PipelineErrInvalidTarget))

	_, err = p.SubmitAndConfirm(ctx, payload.NativeTransfer("recipient-1", 1000),
		payload.LimitedFee(100, 0), nil, id, time.Second)
	assert.True(t, errors.IsPipelineError(err, errors.PipelineErrInvalidPricing))

	_, err = p.SubmitAndConfirm(ctx, payload.NativeTransfer("recipient-1", 1000),
		payload.FixedFee(100), nil, nil, time.Second)
	assert.True(t, errors.IsPipelineError(err, errors.PipelineErrSigning))

	assert.Equal(t, 0, fake.RecordCount())
}

func TestNewRequiresClientAndChain(t *testing.T) {
	_, err := New(nil, Config{Chain: "c"})
	assert.Error(t, err)

	_, err = New(ledgertest.New(), Config{})
	assert.Error(t, err)
}
