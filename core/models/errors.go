package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies dashboard errors
type ErrorKind string

const (
	KindValidation         ErrorKind = "ValidationError"
	KindTransport          ErrorKind = "TransportError"
	KindStateInconsistency ErrorKind = "StateInconsistency"
)

// Sentinel errors matched with errors.Is
var (
	ErrValidation         = errors.New("validation failed")
	ErrTransport          = errors.New("transport error")
	ErrStateInconsistency = errors.New("state inconsistency")
	ErrPendingOperation   = errors.New("operation already in flight")
	ErrSessionClosed      = errors.New("dashboard closed")
	ErrNotRunning         = errors.New("polling loop not started")
	ErrUnsupported        = errors.New("unsupported request")
)

// Error is a dashboard error carrying its kind and an optional cause
type Error struct {
	Kind    ErrorKind
	JobID   string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	prefix := string(e.Kind)
	if e.JobID != "" {
		prefix = fmt.Sprintf("%s [%s]", prefix, e.JobID)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches the sentinel of the error's kind
func (e *Error) Is(target error) bool {
	switch e.Kind {
	case KindValidation:
		return target == ErrValidation
	case KindTransport:
		return target == ErrTransport
	case KindStateInconsistency:
		return target == ErrStateInconsistency
	}
	return false
}

// NewValidationError returns a pre-flight validation error
func NewValidationError(format string, args ...interface{}) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NewTransportError wraps a failed backend call
func NewTransportError(op string, cause error) error {
	return &Error{Kind: KindTransport, Message: op, Cause: cause}
}

// NewStateInconsistency reports a stage/status pair outside the fixed mapping
func NewStateInconsistency(jobID, message string) error {
	return &Error{Kind: KindStateInconsistency, JobID: jobID, Message: message}
}

// IsValidation reports whether err is a ValidationError
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsTransport reports whether err is a TransportError
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}
