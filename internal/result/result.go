// Package result classifies terminal transaction records and exposes their
// decoded arguments. A record is successful iff its status is Executed and
// it carries no error message; an executed record with an error message is
// an application-level revert and classifies as failure.
package result

import (
	"github.com/cmatc13/ledgerflow/internal/codec"
	"github.com/cmatc13/ledgerflow/internal/ledger"
	"github.com/cmatc13/ledgerflow/pkg/errors"
)

// ExtractedArgs exposes the argument list of a successfully executed
// transaction for decode-by-name lookup.
type ExtractedArgs struct {
	// Address is the content address of the executed transaction
	Address string

	args []codec.Argument
}

// Args returns the full decoded argument list
func (e *ExtractedArgs) Args() []codec.Argument {
	return e.args
}

// Decode looks up a named argument from the executed record
func (e *ExtractedArgs) Decode(name string) (codec.Value, error) {
	value, err := codec.Decode(e.args, name)
	if err != nil {
		return codec.Value{}, errors.WrapWithOperation(err, errors.OpInterpretResult)
	}
	return value, nil
}

// Interpret classifies a terminal record. On success it returns the record's
// arguments; on failure it surfaces the record's error message verbatim.
func Interpret(record *ledger.TransactionRecord) (*ExtractedArgs, error) {
	if record == nil {
		return nil, errors.PipelineWrap(errors.ErrInvalidInput, errors.OpInterpretResult,
			"cannot interpret a nil record")
	}
	if !record.Terminal() {
		return nil, errors.PipelineWrap(errors.ErrInvalidInput, errors.OpInterpretResult,
			"cannot interpret a non-terminal record")
	}

	if record.Status == ledger.StatusFailed {
		return nil, errors.PipelineErrorf(errors.PipelineErrExecutionFailed,
			"%s", record.ErrorMessage)
	}
	if record.ErrorMessage != "" {
		// Executed with an error message: partial execution reverted
		return nil, errors.PipelineErrorf(errors.PipelineErrExecutionFailed,
			"%s", record.ErrorMessage)
	}

	return &ExtractedArgs{
		Address: record.Address,
		args:    record.Args,
	}, nil
}
