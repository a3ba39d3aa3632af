package engine

import "fmt"

type ErrorCode string

const (
	ErrorInvalidInput        ErrorCode = "INVALID_INPUT"
	ErrorDuplicateSubmission ErrorCode = "DUPLICATE_SUBMISSION"
	ErrorTransferFailure     ErrorCode = "TRANSFER_FAILURE"
	ErrorSideChannel         ErrorCode = "SIDE_CHANNEL_FAILURE"
	ErrorInternal            ErrorCode = "INTERNAL_ERROR"
)

type Error struct {
	Code   ErrorCode
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("engine: %s (%s)", e.Code, e.Reason)
	}
	return fmt.Sprintf("engine: %s (%s): %v", e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newError(code ErrorCode, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}
