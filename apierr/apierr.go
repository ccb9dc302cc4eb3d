// Package apierr defines the error taxonomy of the eAPI client.
//
// Every failure surfaced by the client is an *Error carrying a Kind, so
// callers can branch with errors.Is against the package sentinels:
//
//	agg, err := client.Invoke(ctx, "get_reports_list", nil)
//	if errors.Is(err, apierr.ErrTransport) {
//		// retry policy is up to the caller
//	}
package apierr

import (
	"errors"
	"fmt"
)

// Kind classifies an Error.
type Kind uint8

const (
	KindUnknown           Kind = iota
	KindConfiguration          // missing credentials, unsupported format, no trust anchor
	KindInvalidInvocation      // malformed invocation name, unsupported verb, unknown endpoint
	KindTransport              // network, TLS or HTTP status failure
	KindMalformedResponse      // body is not JSON or lacks the required sections
	KindCallback               // a registered handler failed during classification
	KindBind                   // a section entry does not have the resource shape
)

// String returns string representation.
func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "ConfigurationError"
	case KindInvalidInvocation:
		return "InvalidInvocation"
	case KindTransport:
		return "TransportError"
	case KindMalformedResponse:
		return "MalformedResponse"
	case KindCallback:
		return "CallbackError"
	case KindBind:
		return "BindError"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(k))
	}
}

// Error is the error type returned by every eAPI client package.
type Error struct {
	Kind Kind
	// Op names the failing operation, e.g. "endpoint.Parse" or "GET reports/list".
	Op string
	// Mark is set for callback and bind errors.
	Mark string
	// Status is the HTTP status code for transport errors, 0 otherwise.
	Status int
	Err    error
}

// Sentinels for errors.Is. They match any *Error of the same Kind.
var (
	ErrConfiguration     = &Error{Kind: KindConfiguration}
	ErrInvalidInvocation = &Error{Kind: KindInvalidInvocation}
	ErrTransport         = &Error{Kind: KindTransport}
	ErrMalformedResponse = &Error{Kind: KindMalformedResponse}
	ErrCallback          = &Error{Kind: KindCallback}
	ErrBind              = &Error{Kind: KindBind}
)

// E builds an Error of the given kind wrapping err.
func E(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf builds an Error of the given kind with a formatted cause.
func Errorf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg += " (" + e.Op + ")"
	}
	if e.Mark != "" {
		msg += " [" + e.Mark + "]"
	}
	if e.Status != 0 {
		msg += fmt.Sprintf(" HTTP %d", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is a sentinel (or any *Error) of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
