package errors

import "fmt"

// ErrorType represents different classes of errors the pipeline can hit
type ErrorType string

const (
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeRateLimit   ErrorType = "rate_limit"
	ErrorTypeAuth        ErrorType = "auth"
	ErrorTypeRejected    ErrorType = "rejected" // remote refused the item for a structural reason
	ErrorTypeParsing     ErrorType = "parsing"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeCredentials ErrorType = "credentials" // missing credential artifact, immediately fatal
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Error carries the error class alongside the message so the retry layer
// and the campaign loop can classify outcomes without string matching.
type Error struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a typed error
func New(t ErrorType, message string) *Error {
	return &Error{Type: t, Message: message}
}

// Wrap creates a typed error wrapping an underlying cause
func Wrap(t ErrorType, message string, err error) *Error {
	return &Error{Type: t, Message: message, Err: err}
}

// IsRetryable checks if an error type should be retried.
// Network-class trouble is transient; rejections and auth problems are not.
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeRateLimit:
		return true
	case ErrorTypeAuth, ErrorTypeRejected, ErrorTypeParsing, ErrorTypeNotFound, ErrorTypeCredentials:
		return false
	default:
		return false
	}
}

// IsFatal reports whether an error type must abort the whole run rather
// than fail a single item. Only the missing-credential condition qualifies.
func IsFatal(errorType ErrorType) bool {
	return errorType == ErrorTypeCredentials
}
