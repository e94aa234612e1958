package payload

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmatc13/ledgerflow/internal/codec"
	"github.com/cmatc13/ledgerflow/pkg/errors"
)

var testInitiator = []byte{0x02, 0xaa, 0xbb, 0xcc}

func TestBuildStampsAllFields(t *testing.T) {
	arg, err := codec.Encode("sr_id", codec.TagBytes(15), codec.ByteArray32)
	require.NoError(t, err)

	before := time.Now().UnixMilli()
	p, err := Build(
		NativeTransfer("recipient-1", 4_200_000_000),
		FixedFee(100_000_000),
		[]codec.Argument{arg},
		30*time.Minute,
		"ledgerflow-test",
		testInitiator,
	)
	require.NoError(t, err)
	after := time.Now().UnixMilli()

	assert.Equal(t, testInitiator, p.Initiator)
	assert.GreaterOrEqual(t, p.Timestamp, before)
	assert.LessOrEqual(t, p.Timestamp, after)
	assert.Equal(t, (30 * time.Minute).Milliseconds(), p.TTLMillis)
	assert.Equal(t, "ledgerflow-test", p.Chain)
	assert.Equal(t, uint64(100_000_000), p.Fee)
	assert.Equal(t, ScheduleStandard, p.Scheduling)
	assert.Len(t, p.Args, 1)
}

func TestTargetValidation(t *testing.T) {
	tests := []struct {
		name   string
		target TargetDescriptor
		ok     bool
	}{
		{"valid transfer", NativeTransfer("recipient-1", 1000), true},
		{"valid contract call", ContractCall("hash-abc", "transfer"), true},
		{"transfer without recipient", NativeTransfer("", 1000), false},
		{"transfer with zero amount", NativeTransfer("recipient-1", 0), false},
		{"contract call without ref", ContractCall("", "transfer"), false},
		{"contract call without entry point", ContractCall("hash-abc", ""), false},
		{"unknown kind", TargetDescriptor{Kind: "DELEGATE"}, false},
		{"transfer with contract fields", TargetDescriptor{
			Kind: KindNativeTransfer, Recipient: "r", Amount: 1, TargetRef: "hash-abc",
		}, false},
		{"contract call with transfer fields", TargetDescriptor{
			Kind: KindContractCall, TargetRef: "hash-abc", EntryPoint: "transfer", Amount: 1,
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.target.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.True(t, errors.IsPipelineError(err, errors.PipelineErrInvalidTarget))
			}
		})
	}
}

func TestResolveFee(t *testing.T) {
	fee, err := FixedFee(500).ResolveFee()
	require.NoError(t, err)
	assert.Equal(t, uint64(500), fee)

	fee, err = LimitedFee(500, 3).ResolveFee()
	require.NoError(t, err)
	assert.Equal(t, uint64(1500), fee)
}

func TestResolveFeeRejectsBadPolicies(t *testing.T) {
	tests := []struct {
		name   string
		policy PricingPolicy
	}{
		{"zero amount", FixedFee(0)},
		{"fixed with tolerance", PricingPolicy{Mode: PricingFixed, Amount: 10, Tolerance: 2}},
		{"limited without tolerance", PricingPolicy{Mode: PricingLimited, Amount: 10}},
		{"limited overflow", LimitedFee(1<<63, 3)},
		{"unknown mode", PricingPolicy{Mode: "AUCTION", Amount: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.policy.ResolveFee()
			assert.True(t, errors.IsPipelineError(err, errors.PipelineErrInvalidPricing))
		})
	}
}

func TestBuildRejectsMissingContext(t *testing.T) {
	target := NativeTransfer("recipient-1", 1000)
	pricing := FixedFee(100)

	_, err := Build(target, pricing, nil, 0, "chain", testInitiator)
	assert.True(t, errors.IsPipelineError(err, errors.PipelineErrInvalidPayload))

	_, err = Build(target, pricing, nil, time.Minute, "", testInitiator)
	assert.True(t, errors.IsPipelineError(err, errors.PipelineErrInvalidPayload))

	_, err = Build(target, pricing, nil, time.Minute, "chain", nil)
	assert.True(t, errors.IsPipelineError(err, errors.PipelineErrInvalidPayload))
}

func TestBuildRejectsDuplicateArgNames(t *testing.T) {
	a, err := codec.Encode("amount", uint64(1), codec.U64)
	require.NoError(t, err)
	b, err := codec.Encode("amount", uint64(2), codec.U64)
	require.NoError(t, err)

	_, err = Build(
		NativeTransfer("recipient-1", 1000),
		FixedFee(100),
		[]codec.Argument{a, b},
		time.Minute,
		"chain",
		testInitiator,
	)
	assert.True(t, errors.IsPipelineError(err, errors.PipelineErrEncoding))
}

func TestEntryPoint(t *testing.T) {
	transfer, err := Build(NativeTransfer("recipient-1", 1000), FixedFee(100),
		nil, time.Minute, "chain", testInitiator)
	require.NoError(t, err)
	assert.Equal(t, TransferEntryPoint, transfer.EntryPoint())

	call, err := Build(ContractCall("hash-abc", "mint"), FixedFee(100),
		nil, time.Minute, "chain", testInitiator)
	require.NoError(t, err)
	assert.Equal(t, "mint", call.EntryPoint())
}

func TestCanonicalBytesDeterministic(t *testing.T) {
	p, err := Build(NativeTransfer("recipient-1", 1000), FixedFee(100),
		nil, time.Minute, "chain", testInitiator)
	require.NoError(t, err)

	first, err := p.CanonicalBytes()
	require.NoError(t, err)
	second, err := p.CanonicalBytes()
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
