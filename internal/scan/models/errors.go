package models

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrInvalidArgument = errors.New("invalid arguments")
	ErrNoFileSelected  = errors.New("no file selected")

	ErrTransport = errors.New("transport failure")
	ErrParse     = errors.New("unexpected response")
)

// ErrorKind classifies a failure by where it was detected.
type ErrorKind string

const (
	KindValidation  ErrorKind = "validation"
	KindTransport   ErrorKind = "transport"
	KindApplication ErrorKind = "application"
	KindParse       ErrorKind = "parse"
)

// ValidationError is a local rejection of a selected file. Never retried.
type ValidationError struct {
	Reason RejectReason
}

func (e *ValidationError) Error() string {
	return e.Reason.Message()
}

// ApplicationError is an explicit error reported by a remote service in a
// well-formed response. Message is shown to the user verbatim.
type ApplicationError struct {
	Message string
	Status  int
}

func (e *ApplicationError) Error() string {
	return e.Message
}

// TransportErrorf wraps a network or status failure as ErrTransport.
func TransportErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrTransport, fmt.Sprintf(format, args...))
}

// WrapTransport marks err as a transport failure while keeping its chain, so
// callers can still match context.DeadlineExceeded and friends.
func WrapTransport(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrTransport, op, err)
}

// ParseErrorf wraps a malformed response as ErrParse.
func ParseErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrParse, fmt.Sprintf(format, args...))
}

// KindOf maps an error to its taxonomy bucket. Unknown errors count as transport.
func KindOf(err error) ErrorKind {
	var verr *ValidationError
	var aerr *ApplicationError
	switch {
	case errors.As(err, &verr):
		return KindValidation
	case errors.As(err, &aerr):
		return KindApplication
	case errors.Is(err, ErrParse):
		return KindParse
	default:
		return KindTransport
	}
}
