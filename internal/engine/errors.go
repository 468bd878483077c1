package engine

import (
	"errors"
	"fmt"
)

// RuntimeError represents an invariant violation detected during
// execution. Runs abort immediately; there is no retry concept because
// the computation is deterministic over immutable inputs.
type RuntimeError struct {
	// Code identifies the violated invariant.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Step is the 1-based commit step being executed, 0 when the error
	// is not tied to a commit.
	Step int
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeNonPositiveTick indicates tick with dt <= 0.
	ErrCodeNonPositiveTick RuntimeErrorCode = "NON_POSITIVE_TICK"

	// ErrCodeUnknownChannel indicates sense on a channel absent from the world.
	ErrCodeUnknownChannel RuntimeErrorCode = "UNKNOWN_CHANNEL"

	// ErrCodeCommitUnsensed indicates commit on a variable never sensed.
	ErrCodeCommitUnsensed RuntimeErrorCode = "COMMIT_UNSENSED"

	// ErrCodeRNGRequired indicates JitterU in an unseeded program.
	ErrCodeRNGRequired RuntimeErrorCode = "RNG_REQUIRED"

	// ErrCodeUnknownOperator indicates an operator name the pipeline
	// does not implement. The parser rejects these already; the engine
	// re-validates because the scanner rebuilds contexts programmatically.
	ErrCodeUnknownOperator RuntimeErrorCode = "UNKNOWN_OPERATOR"

	// ErrCodeBadOperatorArg indicates a missing or forbidden operator argument.
	ErrCodeBadOperatorArg RuntimeErrorCode = "BAD_OPERATOR_ARG"

	// ErrCodeNonPositiveTime indicates total elapsed time <= 0 after the
	// body ran, leaving the event rate undefined.
	ErrCodeNonPositiveTime RuntimeErrorCode = "NON_POSITIVE_TIME"

	// ErrCodeUnknownStmt indicates a statement kind outside the closed
	// set. Unreachable for parser output.
	ErrCodeUnknownStmt RuntimeErrorCode = "UNKNOWN_STMT"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.Step > 0 {
		return fmt.Sprintf("%s: %s (step=%d)", e.Code, e.Message, e.Step)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// newRuntimeError builds a RuntimeError with a formatted message.
func newRuntimeError(code RuntimeErrorCode, format string, args ...any) *RuntimeError {
	return &RuntimeError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// ErrorCode extracts the runtime error code from err, or "" if err is
// not a RuntimeError. Uses errors.As to handle wrapped errors.
func ErrorCode(err error) RuntimeErrorCode {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}
