package reliability

import (
	"errors"
	"fmt"
)

// Kind classifies a failure at an operation boundary.
type Kind string

const (
	KindConfig   Kind = "config"
	KindInvalid  Kind = "invalid"
	KindEmpty    Kind = "empty"
	KindUpstream Kind = "upstream"
)

// Failure is the only error shape that leaves a service. Message is safe to
// show to callers; Err keeps the underlying cause for logs.
type Failure struct {
	Kind      Kind
	Message   string
	Retryable bool
	Err       error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("%s: %s", f.Kind, f.Message)
	}
	return fmt.Sprintf("%s: %s: %v", f.Kind, f.Message, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

func NewFailure(kind Kind, message string, err error) *Failure {
	return &Failure{Kind: kind, Message: message, Err: err}
}

// AsFailure extracts a *Failure from err, if any.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// StatusError is returned by HTTP providers for non-2xx responses.
type StatusError struct {
	Provider string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s http status %d: %s", e.Provider, e.Code, e.Body)
}

// IsRetryable reports whether err is worth retrying by the caller.
func IsRetryable(err error) bool {
	if f, ok := AsFailure(err); ok && f.Retryable {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return IsRetryableHTTPStatus(se.Code)
	}
	return false
}
