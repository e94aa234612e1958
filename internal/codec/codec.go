// Package codec encodes typed values into canonical named arguments and
// decodes them back out of a confirmed transaction's argument list.
package codec

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"math/big"

	"github.com/cmatc13/ledgerflow/pkg/errors"
)

// Kind identifies the typed representation of an argument value
type Kind string

const (
	// U8 is an unsigned integer of width 8
	U8 Kind = "U8"
	// U32 is an unsigned integer of width 32
	U32 Kind = "U32"
	// U64 is an unsigned integer of width 64
	U64 Kind = "U64"
	// U512 is a big unsigned integer, decimal string on the wire
	U512 Kind = "U512"
	// ByteArray32 is a fixed 32-byte array, used for correlation tags
	ByteArray32 Kind = "BYTE_ARRAY_32"
	// PublicKeyRef references a public signing identity
	PublicKeyRef Kind = "PUBLIC_KEY_REF"
	// KeyRef references a stored ledger key
	KeyRef Kind = "KEY_REF"
)

// TagWidth is the fixed width of correlation tag byte arrays
const TagWidth = 32

// Value is the typed variant carried by an Argument. Exactly one of the
// representation fields is populated, selected by Kind.
type Value struct {
	Kind  Kind   `json:"kind"`
	Uint  uint64 `json:"uint,omitempty"`
	Big   string `json:"big,omitempty"`
	Bytes []byte `json:"bytes,omitempty"`
	Ref   string `json:"ref,omitempty"`
}

// Argument is a named typed value in a transaction's argument list
type Argument struct {
	Name  string `json:"name"`
	Value Value  `json:"value"`
}

// Encode maps a native value to a typed argument per kind. The accepted
// native types are uint64 for U8/U32/U64, *big.Int for U512, []byte for
// ByteArray32, and string for the reference kinds.
func Encode(name string, value interface{}, kind Kind) (Argument, error) {
	if name == "" {
		return Argument{}, errors.PipelineErrorf(errors.PipelineErrEncoding, "argument name must not be empty")
	}

	var v Value
	switch kind {
	case U8:
		u, err := asUint(value, math.MaxUint8, kind)
		if err != nil {
			return Argument{}, err
		}
		v = Value{Kind: kind, Uint: u}
	case U32:
		u, err := asUint(value, math.MaxUint32, kind)
		if err != nil {
			return Argument{}, err
		}
		v = Value{Kind: kind, Uint: u}
	case U64:
		u, err := asUint(value, math.MaxUint64, kind)
		if err != nil {
			return Argument{}, err
		}
		v = Value{Kind: kind, Uint: u}
	case U512:
		b, ok := value.(*big.Int)
		if !ok {
			return Argument{}, errors.PipelineErrorf(errors.PipelineErrEncoding,
				"value for %s must be *big.Int, got %T", kind, value)
		}
		if b == nil || b.Sign() < 0 {
			return Argument{}, errors.PipelineErrorf(errors.PipelineErrEncoding,
				"value for %s must be non-negative", kind)
		}
		v = Value{Kind: kind, Big: b.String()}
	case ByteArray32:
		raw, ok := value.([]byte)
		if !ok {
			return Argument{}, errors.PipelineErrorf(errors.PipelineErrEncoding,
				"value for %s must be []byte, got %T", kind, value)
		}
		if len(raw) != TagWidth {
			return Argument{}, errors.PipelineErrorf(errors.PipelineErrEncoding,
				"value for %s must be exactly %d bytes, got %d", kind, TagWidth, len(raw))
		}
		buf := make([]byte, TagWidth)
		copy(buf, raw)
		v = Value{Kind: kind, Bytes: buf}
	case PublicKeyRef, KeyRef:
		ref, ok := value.(string)
		if !ok {
			return Argument{}, errors.PipelineErrorf(errors.PipelineErrEncoding,
				"value for %s must be string, got %T", kind, value)
		}
		if ref == "" {
			return Argument{}, errors.PipelineErrorf(errors.PipelineErrEncoding,
				"reference for %s must not be empty", kind)
		}
		v = Value{Kind: kind, Ref: ref}
	default:
		return Argument{}, errors.PipelineErrorf(errors.PipelineErrEncoding, "unsupported kind %q", kind)
	}

	return Argument{Name: name, Value: v}, nil
}

// Decode performs a linear, case-sensitive, exact-match lookup by name and
// returns the raw typed value for the caller to interpret.
func Decode(args []Argument, name string) (Value, error) {
	for _, arg := range args {
		if arg.Name == name {
			return arg.Value, nil
		}
	}
	return Value{}, errors.PipelineErrorf(errors.PipelineErrArgumentNotFound,
		"argument %q not found", name)
}

// NewArgs assembles an argument list, enforcing name uniqueness.
func NewArgs(args ...Argument) ([]Argument, error) {
	seen := make(map[string]struct{}, len(args))
	for _, arg := range args {
		if _, dup := seen[arg.Name]; dup {
			return nil, errors.PipelineErrorf(errors.PipelineErrEncoding,
				"duplicate argument name %q", arg.Name)
		}
		seen[arg.Name] = struct{}{}
	}
	return args, nil
}

func asUint(value interface{}, max uint64, kind Kind) (uint64, error) {
	var u uint64
	switch n := value.(type) {
	case uint64:
		u = n
	case uint:
		u = uint64(n)
	case int:
		if n < 0 {
			return 0, errors.PipelineErrorf(errors.PipelineErrEncoding,
				"value %d for %s must not be negative", n, kind)
		}
		u = uint64(n)
	default:
		return 0, errors.PipelineErrorf(errors.PipelineErrEncoding,
			"value for %s must be an unsigned integer, got %T", kind, value)
	}
	if u > max {
		return 0, errors.PipelineErrorf(errors.PipelineErrEncoding,
			"value %d out of range for %s", u, kind)
	}
	return u, nil
}

// TagBytes expands a small tag value into the fixed 32-byte correlation
// tag form, little-endian in the first 8 bytes.
func TagBytes(tag uint64) []byte {
	buf := make([]byte, TagWidth)
	binary.LittleEndian.PutUint64(buf[:8], tag)
	return buf
}

// Uint64 returns the integer representation for U8/U32/U64 values.
func (v Value) Uint64() uint64 {
	return v.Uint
}

// BigInt returns the big integer representation for U512 values,
// or nil if the value does not carry one.
func (v Value) BigInt() *big.Int {
	if v.Big == "" {
		return nil
	}
	b, ok := new(big.Int).SetString(v.Big, 10)
	if !ok {
		return nil
	}
	return b
}

// ByteArray returns the fixed byte array for ByteArray32 values.
func (v Value) ByteArray() []byte {
	return v.Bytes
}

// String renders the value: hex for byte arrays, decimal for integers,
// the raw reference otherwise.
func (v Value) String() string {
	switch v.Kind {
	case U8, U32, U64:
		return fmt.Sprintf("%d", v.Uint)
	case U512:
		return v.Big
	case ByteArray32:
		return hex.EncodeToString(v.Bytes)
	case PublicKeyRef, KeyRef:
		return v.Ref
	}
	return ""
}
