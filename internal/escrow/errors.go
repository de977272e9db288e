package escrow

import (
	"fmt"

	"github.com/pkg/errors"
)

const (
	ErrorCodeMilestoneNotFound   = 1
	ErrorCodeCollateralNotFound  = 2
	ErrorCodeInsufficientFunds   = 3
	ErrorCodeInvalidAction       = 4
	ErrorCodeNotFullyApproved    = 5 // InvalidAction
	ErrorCodeAlreadyApproved     = 6 // InvalidAction
	ErrorCodeAmbiguousState      = 7
	ErrorCodeDecodeError         = 8
	ErrorCodeEvaluationError     = 9
	ErrorCodeSigningFailure      = 10
	ErrorCodeSubmissionError     = 11
	ErrorCodeProviderUnavailable = 12
)

// IsErrorCode returns true if err, or the error it wraps, is an escrow error with code or with a
// code that is a kind of code.
func IsErrorCode(err error, code int) bool {
	er, ok := errors.Cause(err).(*escrowError)
	if !ok {
		return false
	}
	return er.code == code || parentCode(er.code) == code
}

// ErrorCode returns the escrow error code of err, or zero.
func ErrorCode(err error) int {
	er, ok := errors.Cause(err).(*escrowError)
	if !ok {
		return 0
	}
	return er.code
}

type escrowError struct {
	code    int
	message string
}

func (err *escrowError) Error() string {
	if len(err.message) == 0 {
		return ErrorCodeString(err.code)
	}
	return fmt.Sprintf("%s : %s", ErrorCodeString(err.code), err.message)
}

func parentCode(code int) int {
	switch code {
	case ErrorCodeNotFullyApproved, ErrorCodeAlreadyApproved:
		return ErrorCodeInvalidAction
	default:
		return 0
	}
}

func ErrorCodeString(code int) string {
	switch code {
	case ErrorCodeMilestoneNotFound:
		return "Milestone Not Found"
	case ErrorCodeCollateralNotFound:
		return "Collateral Not Found"
	case ErrorCodeInsufficientFunds:
		return "Insufficient Funds"
	case ErrorCodeInvalidAction:
		return "Invalid Action"
	case ErrorCodeNotFullyApproved:
		return "Not Fully Approved"
	case ErrorCodeAlreadyApproved:
		return "Already Approved"
	case ErrorCodeAmbiguousState:
		return "Ambiguous State"
	case ErrorCodeDecodeError:
		return "Decode Error"
	case ErrorCodeEvaluationError:
		return "Evaluation Error"
	case ErrorCodeSigningFailure:
		return "Signing Failure"
	case ErrorCodeSubmissionError:
		return "Submission Error"
	case ErrorCodeProviderUnavailable:
		return "Provider Unavailable"
	default:
		return "Unknown Error Code"
	}
}

func newError(code int, message string) *escrowError {
	result := escrowError{code: code, message: message}
	return &result
}

func newErrorf(code int, format string, values ...interface{}) *escrowError {
	return newError(code, fmt.Sprintf(format, values...))
}

// isUnavailable returns true for provider errors that mean the provider was not reached.
func isUnavailable(err error) bool {
	u, ok := errors.Cause(err).(interface{ Unavailable() bool })
	return ok && u.Unavailable()
}

// providerError converts a chain provider failure. Unreachable providers are
// ProviderUnavailable, anything else gets code.
func providerError(err error, code int, action string) error {
	if isUnavailable(err) {
		return newErrorf(ErrorCodeProviderUnavailable, "%s : %s", action, err)
	}
	return newErrorf(code, "%s : %s", action, err)
}
