// Package ferr defines the FAODEL-wide error taxonomy from §7: a small,
// closed set of result codes that every leaf operation returns, wrapped
// with the component that raised them and an optional underlying cause.
package ferr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Code is one of the §7 result codes.
type Code int

const (
	OK Code = iota
	NotFound
	AlreadyExists
	InvalidArg
	OutOfMemory
	TimedOut
	Cancelled
	Transport
	Unconfigured
	Fatal
)

func (c Code) String() string {
	switch c {
	case OK:
		return "OK"
	case NotFound:
		return "NOT_FOUND"
	case AlreadyExists:
		return "ALREADY_EXISTS"
	case InvalidArg:
		return "INVALID_ARG"
	case OutOfMemory:
		return "OUT_OF_MEMORY"
	case TimedOut:
		return "TIMED_OUT"
	case Cancelled:
		return "CANCELLED"
	case Transport:
		return "TRANSPORT"
	case Unconfigured:
		return "UNCONFIGURED"
	case Fatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// Error is a Code plus the component that raised it and an optional cause.
type Error struct {
	Code      Code
	Component string
	Cause     error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s[%s]: %v", e.Code, e.Component, e.Cause)
	}
	return fmt.Sprintf("%s[%s]", e.Code, e.Component)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an Error whose Cause is a plain error carrying msg.
func New(code Code, component, msg string) *Error {
	return &Error{Code: code, Component: component, Cause: errors.New(msg)}
}

// Wrap attaches a Code/component to an existing error, matching the
// corpus's errors.Wrap-style propagation (seen throughout rclone's backend
// drivers when a transport or API call fails).
func Wrap(code Code, component string, cause error) *Error {
	if cause == nil {
		return nil
	}
	return &Error{Code: code, Component: component, Cause: errors.Wrap(cause, component)}
}

// CodeOf extracts the Code from err, defaulting to Fatal for an unmodeled
// error so that a bug can never silently masquerade as a transient one.
func CodeOf(err error) Code {
	if err == nil {
		return OK
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return Fatal
}

// IsTransient reports whether err should be retried by a Pacer: only
// TRANSPORT errors are transient, per §4.4/§4.9's retry policy.
func IsTransient(err error) bool {
	return CodeOf(err) == Transport
}
