// Package payload assembles unsigned transaction payloads from a target
// descriptor, a pricing policy, a TTL, and an encoded argument list.
package payload

import (
	"encoding/json"
	"math"
	"time"

	"github.com/cmatc13/ledgerflow/internal/codec"
	"github.com/cmatc13/ledgerflow/pkg/errors"
)

// TargetKind discriminates the target descriptor variant
type TargetKind string

const (
	// KindNativeTransfer moves native funds to a recipient
	KindNativeTransfer TargetKind = "NATIVE_TRANSFER"
	// KindContractCall invokes an entry point on a stored contract
	KindContractCall TargetKind = "CONTRACT_CALL"
)

// TransferEntryPoint is the implicit entry point of native transfers
const TransferEntryPoint = "transfer"

// TargetDescriptor is a tagged variant: exactly one of the transfer or
// contract-call field sets is populated, selected by Kind. Construct via
// NativeTransfer or ContractCall rather than struct literals.
type TargetDescriptor struct {
	Kind TargetKind `json:"kind"`

	// NativeTransfer fields
	Recipient string `json:"recipient,omitempty"`
	Amount    uint64 `json:"amount,omitempty"`

	// ContractCall fields
	TargetRef  string `json:"target_ref,omitempty"`
	EntryPoint string `json:"entry_point,omitempty"`
}

// NativeTransfer builds a native transfer target
func NativeTransfer(recipient string, amount uint64) TargetDescriptor {
	return TargetDescriptor{
		Kind:      KindNativeTransfer,
		Recipient: recipient,
		Amount:    amount,
	}
}

// ContractCall builds a contract call target
func ContractCall(targetRef, entryPoint string) TargetDescriptor {
	return TargetDescriptor{
		Kind:       KindContractCall,
		TargetRef:  targetRef,
		EntryPoint: entryPoint,
	}
}

// Validate checks that exactly one variant is active and well-formed
func (t TargetDescriptor) Validate() error {
	switch t.Kind {
	case KindNativeTransfer:
		if t.TargetRef != "" || t.EntryPoint != "" {
			return errors.PipelineErrorf(errors.PipelineErrInvalidTarget,
				"native transfer must not carry contract call fields")
		}
		if t.Recipient == "" {
			return errors.PipelineErrorf(errors.PipelineErrInvalidTarget,
				"native transfer requires a recipient")
		}
		if t.Amount == 0 {
			return errors.PipelineErrorf(errors.PipelineErrInvalidTarget,
				"native transfer requires a positive amount")
		}
	case KindContractCall:
		if t.Recipient != "" || t.Amount != 0 {
			return errors.PipelineErrorf(errors.PipelineErrInvalidTarget,
				"contract call must not carry transfer fields")
		}
		if t.TargetRef == "" {
			return errors.PipelineErrorf(errors.PipelineErrInvalidTarget,
				"contract call requires a contract reference")
		}
		if t.EntryPoint == "" {
			return errors.PipelineErrorf(errors.PipelineErrInvalidTarget,
				"contract call requires an entry point")
		}
	default:
		return errors.PipelineErrorf(errors.PipelineErrInvalidTarget,
			"unknown target kind %q", t.Kind)
	}
	return nil
}

// PricingMode selects how the fee is resolved
type PricingMode string

const (
	// PricingFixed attaches the amount as-is
	PricingFixed PricingMode = "FIXED"
	// PricingLimited multiplies the amount by a price tolerance
	PricingLimited PricingMode = "LIMITED"
)

// PricingPolicy resolves to a single concrete fee before signing
type PricingPolicy struct {
	Mode      PricingMode `json:"mode"`
	Amount    uint64      `json:"amount"`
	Tolerance uint8       `json:"tolerance,omitempty"`
}

// FixedFee builds a fixed pricing policy
func FixedFee(amount uint64) PricingPolicy {
	return PricingPolicy{Mode: PricingFixed, Amount: amount}
}

// LimitedFee builds a limited pricing policy with a price tolerance
func LimitedFee(amount uint64, tolerance uint8) PricingPolicy {
	return PricingPolicy{Mode: PricingLimited, Amount: amount, Tolerance: tolerance}
}

// ResolveFee computes the single fee value attached to the payload.
// Resolution is pure: no I/O, no clock.
func (p PricingPolicy) ResolveFee() (uint64, error) {
	if p.Amount == 0 {
		return 0, errors.PipelineErrorf(errors.PipelineErrInvalidPricing,
			"pricing amount must be positive")
	}
	switch p.Mode {
	case PricingFixed:
		if p.Tolerance != 0 {
			return 0, errors.PipelineErrorf(errors.PipelineErrInvalidPricing,
				"fixed pricing must not set a tolerance")
		}
		return p.Amount, nil
	case PricingLimited:
		if p.Tolerance == 0 {
			return 0, errors.PipelineErrorf(errors.PipelineErrInvalidPricing,
				"limited pricing requires a tolerance of at least 1")
		}
		if p.Amount > math.MaxUint64/uint64(p.Tolerance) {
			return 0, errors.PipelineErrorf(errors.PipelineErrInvalidPricing,
				"limited pricing overflows: amount %d tolerance %d", p.Amount, p.Tolerance)
		}
		return p.Amount * uint64(p.Tolerance), nil
	}
	return 0, errors.PipelineErrorf(errors.PipelineErrInvalidPricing,
		"unknown pricing mode %q", p.Mode)
}

// Scheduling selects when the transaction becomes eligible for execution
type Scheduling string

// ScheduleStandard executes as soon as the transaction is picked up
const ScheduleStandard Scheduling = "STANDARD"

// UnsignedPayload is the content-complete description of an intended
// transaction. Immutable once built; all fields are required.
type UnsignedPayload struct {
	Initiator  []byte           `json:"initiator"`
	Timestamp  int64            `json:"timestamp"`
	TTLMillis  int64            `json:"ttl_ms"`
	Chain      string           `json:"chain"`
	Fee        uint64           `json:"fee"`
	Target     TargetDescriptor `json:"target"`
	Args       []codec.Argument `json:"args"`
	Scheduling Scheduling       `json:"scheduling"`
}

// Build assembles an unsigned payload. The timestamp is captured at build
// time, so each build is a fresh attempt; callers wanting a retry must
// rebuild rather than reuse a payload.
func Build(
	target TargetDescriptor,
	pricing PricingPolicy,
	args []codec.Argument,
	ttl time.Duration,
	chain string,
	initiator []byte,
) (*UnsignedPayload, error) {
	if err := target.Validate(); err != nil {
		return nil, errors.WrapWithOperation(err, errors.OpBuildPayload)
	}

	fee, err := pricing.ResolveFee()
	if err != nil {
		return nil, errors.WrapWithOperation(err, errors.OpBuildPayload)
	}

	if ttl <= 0 {
		return nil, errors.PipelineErrorf(errors.PipelineErrInvalidPayload,
			"ttl must be positive")
	}
	if chain == "" {
		return nil, errors.PipelineErrorf(errors.PipelineErrInvalidPayload,
			"chain name must not be empty")
	}
	if len(initiator) == 0 {
		return nil, errors.PipelineErrorf(errors.PipelineErrInvalidPayload,
			"initiator public key must not be empty")
	}

	// Re-check name uniqueness: args may have been assembled by hand
	if _, err := codec.NewArgs(args...); err != nil {
		return nil, errors.WrapWithOperation(err, errors.OpBuildPayload)
	}

	return &UnsignedPayload{
		Initiator:  initiator,
		Timestamp:  time.Now().UnixMilli(),
		TTLMillis:  ttl.Milliseconds(),
		Chain:      chain,
		Fee:        fee,
		Target:     target,
		Args:       args,
		Scheduling: ScheduleStandard,
	}, nil
}

// EntryPoint returns the entry point the payload invokes: the contract
// call's own entry point, or the implicit transfer entry point.
func (p *UnsignedPayload) EntryPoint() string {
	if p.Target.Kind == KindContractCall {
		return p.Target.EntryPoint
	}
	return TransferEntryPoint
}

// CanonicalBytes serializes the payload deterministically. The content
// address is a hash of exactly these bytes, so any party holding the
// payload can recompute the address without the signature.
func (p *UnsignedPayload) CanonicalBytes() ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, errors.PipelineWrap(err, errors.OpBuildPayload, "failed to serialize payload")
	}
	return data, nil
}
