// pkg/errors/pipeline.go
package errors

// Pipeline error codes
const (
	// PipelineErrEncoding indicates a value could not be encoded as a typed argument
	PipelineErrEncoding = "PIPELINE_ENCODING"
	// PipelineErrInvalidTarget indicates an invalid target descriptor
	PipelineErrInvalidTarget = "PIPELINE_INVALID_TARGET"
	// PipelineErrInvalidPricing indicates an unresolvable pricing policy
	PipelineErrInvalidPricing = "PIPELINE_INVALID_PRICING"
	// PipelineErrInvalidPayload indicates a payload construction error outside
	// target and pricing validation (missing chain, initiator, or TTL)
	PipelineErrInvalidPayload = "PIPELINE_INVALID_PAYLOAD"
	// PipelineErrSigning indicates missing key material or an unsupported scheme
	PipelineErrSigning = "PIPELINE_SIGNING"
	// PipelineErrBroadcastRejected indicates the remote service rejected the
	// transaction synchronously
	PipelineErrBroadcastRejected = "PIPELINE_BROADCAST_REJECTED"
	// PipelineErrConfirmationTimeout indicates the deadline elapsed before a
	// terminal status was observed; the outcome is unknown, not negative
	PipelineErrConfirmationTimeout = "PIPELINE_CONFIRMATION_TIMEOUT"
	// PipelineErrExecutionFailed indicates a known negative terminal outcome
	PipelineErrExecutionFailed = "PIPELINE_EXECUTION_FAILED"
	// PipelineErrArgumentNotFound indicates a named argument lookup miss
	PipelineErrArgumentNotFound = "PIPELINE_ARGUMENT_NOT_FOUND"
)

// Pipeline domain name
const PipelineDomain = "pipeline"

// Pipeline operations
const (
	OpEncodeArgument    = "EncodeArgument"
	OpDecodeArgument    = "DecodeArgument"
	OpBuildPayload      = "BuildPayload"
	OpResolveFee        = "ResolveFee"
	OpSignPayload       = "SignPayload"
	OpBroadcast         = "Broadcast"
	OpAwaitConfirmation = "AwaitConfirmation"
	OpInterpretResult   = "InterpretResult"
	OpSubmitAndConfirm  = "SubmitAndConfirm"
)

// NewPipelineError creates a new pipeline error
func NewPipelineError(code string, message string, err error) error {
	return &Error{
		Domain:   PipelineDomain,
		Code:     code,
		Message:  message,
		Original: err,
	}
}

// PipelineErrorf creates a new pipeline error with a formatted message
func PipelineErrorf(code string, format string, args ...interface{}) error {
	return &Error{
		Domain:  PipelineDomain,
		Code:    code,
		Message: Sprintf(format, args...),
	}
}

// PipelineWrap wraps an error with pipeline domain and operation
func PipelineWrap(err error, operation string, message string) error {
	if err == nil {
		return nil
	}

	return &Error{
		Domain:    PipelineDomain,
		Operation: operation,
		Message:   message,
		Original:  err,
	}
}

// PipelineWrapWithCode wraps an error with pipeline domain, operation and code
func PipelineWrapWithCode(err error, operation string, code string, message string) error {
	if err == nil {
		return nil
	}

	return &Error{
		Domain:    PipelineDomain,
		Operation: operation,
		Code:      code,
		Message:   message,
		Original:  err,
	}
}

// IsPipelineError checks if an error is a pipeline error with the given code
func IsPipelineError(err error, code string) bool {
	var domainErr *Error
	if As(err, &domainErr) {
		return domainErr.Domain == PipelineDomain && domainErr.Code == code
	}
	return false
}
