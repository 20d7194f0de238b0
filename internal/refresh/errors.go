package refresh

import (
	"errors"
	"fmt"
)

var (
	// ErrNotAuthenticated means no usable bearer credential was available,
	// or the server rejected it.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrNetworkFailure covers rejected requests and non-success responses.
	ErrNetworkFailure = errors.New("network failure")

	// ErrImageResolution is returned for a storage key that could not be
	// turned into a displayable URI. It never blocks the list.
	ErrImageResolution = errors.New("image resolution failed")
)

// ErrorKind classifies a failed fetch.
type ErrorKind int

const (
	KindNetworkFailure ErrorKind = iota
	KindNotAuthenticated
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotAuthenticated:
		return "not_authenticated"
	default:
		return "network_failure"
	}
}

// FetchError is the error recorded in the store for a failed fetch.
type FetchError struct {
	Kind ErrorKind
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *FetchError) Unwrap() []error {
	sentinel := ErrNetworkFailure
	if e.Kind == KindNotAuthenticated {
		sentinel = ErrNotAuthenticated
	}
	return []error{sentinel, e.Err}
}

// Message returns the text shown to the user in the error banner.
func (e *FetchError) Message() string {
	if e.Kind == KindNotAuthenticated {
		return "You are not signed in. Run 'vd login' and try again."
	}
	return "Could not load visitors. Check your connection and try again."
}

// classify wraps err as a FetchError.
func classify(err error) *FetchError {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe
	}
	if errors.Is(err, ErrNotAuthenticated) {
		return &FetchError{Kind: KindNotAuthenticated, Err: err}
	}
	return &FetchError{Kind: KindNetworkFailure, Err: err}
}
