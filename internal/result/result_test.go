package result

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmatc13/ledgerflow/internal/codec"
	"github.com/cmatc13/ledgerflow/internal/ledger"
	"github.com/cmatc13/ledgerflow/pkg/errors"
)

func TestInterpretSuccess(t *testing.T) {
	arg, err := codec.Encode("sr_id", codec.TagBytes(15), codec.ByteArray32)
	require.NoError(t, err)

	extracted, err := Interpret(&ledger.TransactionRecord{
		Address: "addr-1",
		Status:  ledger.StatusExecuted,
		Args:    []codec.Argument{arg},
	})
	require.NoError(t, err)

	assert.Equal(t, "addr-1", extracted.Address)
	assert.Len(t, extracted.Args(), 1)

	value, err := extracted.Decode("sr_id")
	require.NoError(t, err)
	assert.Equal(t, codec.TagBytes(15), value.ByteArray())
}

func TestInterpretFailedRecordPreservesMessage(t *testing.T) {
	_, err := Interpret(&ledger.TransactionRecord{
		Address:      "addr-1",
		Status:       ledger.StatusFailed,
		ErrorMessage: "out of gas",
	})
	require.Error(t, err)
	assert.True(t, errors.IsPipelineError(err, errors.PipelineErrExecutionFailed))

	var domainErr *errors.Error
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "out of gas", domainErr.Message)
}

func TestInterpretExecutedWithErrorMessageIsFailure(t *testing.T) {
	// An executed record carrying an error message is a revert, never success
	_, err := Interpret(&ledger.TransactionRecord{
		Address:      "addr-1",
		Status:       ledger.StatusExecuted,
		ErrorMessage: "transfer reverted: insufficient balance",
	})
	require.Error(t, err)
	assert.True(t, errors.IsPipelineError(err, errors.PipelineErrExecutionFailed))

	var domainErr *errors.Error
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "transfer reverted: insufficient balance", domainErr.Message)
}

func TestInterpretRejectsNonTerminalRecords(t *testing.T) {
	_, err := Interpret(nil)
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))

	_, err = Interpret(&ledger.TransactionRecord{
		Address: "addr-1",
		Status:  ledger.StatusPending,
	})
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
}

func TestDecodeMissingArgument(t *testing.T) {
	extracted, err := Interpret(&ledger.TransactionRecord{
		Address: "addr-1",
		Status:  ledger.StatusExecuted,
	})
	require.NoError(t, err)

	_, err = extracted.Decode("sr_id")
	assert.True(t, errors.IsPipelineError(err, errors.PipelineErrArgumentNotFound))
}
