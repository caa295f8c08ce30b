package toolerror

import (
	"errors"
	"fmt"
)

// Kind identifies a class of failure. The string values are stable and are
// shown to tool callers.
type Kind string

// Error kinds returned to tool callers
const (
	KindAuthConfiguration         Kind = "AuthConfigurationError"
	KindAuthFailure               Kind = "AuthFailureError"
	KindSubscriptionNotConfigured Kind = "SubscriptionNotConfiguredError"
	KindSubscriptionNotFound      Kind = "SubscriptionNotFoundError"
	KindInvalidTimeframe          Kind = "InvalidTimeframeError"
	KindCurrencyMismatch          Kind = "CurrencyMismatchError"
	KindInvalidArgument           Kind = "InvalidArgumentError"
	KindAPI                       Kind = "ApiError"
)

// Error is a classified failure. Status and Body are only set for ApiError
// values that came from a backend response.
type Error struct {
	Kind    Kind
	Message string
	Status  int
	Body    string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an error of the given kind
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an error of the given kind around cause
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: cause}
}

// API creates an ApiError carrying the backend status code and body
func API(status int, body string, cause error, format string, args ...any) *Error {
	return &Error{
		Kind:    KindAPI,
		Message: fmt.Sprintf(format, args...),
		Status:  status,
		Body:    body,
		Err:     cause,
	}
}

// As returns the classified error in err's chain, if any
func As(err error) (*Error, bool) {
	var te *Error
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}

// KindOf returns the kind of err. Unclassified errors report KindAPI.
func KindOf(err error) Kind {
	if te, ok := As(err); ok {
		return te.Kind
	}
	return KindAPI
}

// Is reports whether err carries the given kind
func Is(err error, kind Kind) bool {
	te, ok := As(err)
	return ok && te.Kind == kind
}
