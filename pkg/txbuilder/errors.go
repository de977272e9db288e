package txbuilder

import (
	"fmt"

	"github.com/pkg/errors"
)

const (
	ErrorCodeInsufficientValue = 1
	ErrorCodeWrongPrivateKey   = 2
	ErrorCodeMissingPrivateKey = 3
	ErrorCodeBelowMinimum      = 4
	ErrorCodeMissingScript     = 5
	ErrorCodeTooLarge          = 6
	ErrorCodeMissingChange     = 7
)

// IsErrorCode returns true if err, or the error it wraps, is a txbuilder error with code.
func IsErrorCode(err error, code int) bool {
	er, ok := errors.Cause(err).(*txBuilderError)
	if !ok {
		return false
	}
	return er.code == code
}

type txBuilderError struct {
	code    int
	message string
}

func (err *txBuilderError) Error() string {
	if len(err.message) == 0 {
		return errorCodeString(err.code)
	}
	return fmt.Sprintf("%s : %s", errorCodeString(err.code), err.message)
}

func errorCodeString(code int) string {
	switch code {
	case ErrorCodeInsufficientValue:
		return "Insufficient Value"
	case ErrorCodeWrongPrivateKey:
		return "Wrong Private Key"
	case ErrorCodeMissingPrivateKey:
		return "Missing Private Key"
	case ErrorCodeBelowMinimum:
		return "Below Minimum Value"
	case ErrorCodeMissingScript:
		return "Missing Script"
	case ErrorCodeTooLarge:
		return "Transaction Too Large"
	case ErrorCodeMissingChange:
		return "Missing Change Address"
	default:
		return "Unknown Error Code"
	}
}

func newError(code int, message string) *txBuilderError {
	result := txBuilderError{code: code, message: message}
	return &result
}
