package twitterguess

import (
	"errors"
	"fmt"

	"github.com/masa-finance/masa-twitter-guess/auth"
	"github.com/masa-finance/masa-twitter-guess/httpwrap"
)

// ErrIllegalState matches every IllegalStateError with errors.Is.
var ErrIllegalState = errors.New("illegal state")

// NetworkError is a transport-level failure.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ProtocolError means the endpoint answered but rejected the request or
// left out required fields.
type ProtocolError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *ProtocolError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: protocol error (status %d): %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: protocol error: %v", e.Op, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// IllegalStateError is returned when an operation is invoked out of sequence.
type IllegalStateError struct {
	Op    string
	State State
	Want  State
}

func (e *IllegalStateError) Error() string {
	return fmt.Sprintf("%s: session is %s, want %s", e.Op, e.State, e.Want)
}

func (e *IllegalStateError) Is(target error) bool {
	return target == ErrIllegalState
}

// FetchError wraps any failure during paginated retrieval.
type FetchError struct {
	ScreenName string
	Page       int
	Err        error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching timeline of %q (page %d): %v", e.ScreenName, e.Page, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// classify sorts a token exchange failure into ProtocolError or NetworkError.
func classify(op string, err error) error {
	var httpErr httpwrap.HTTPError
	if errors.As(err, &httpErr) {
		return &ProtocolError{Op: op, StatusCode: httpErr.StatusCode, Err: err}
	}
	if errors.Is(err, auth.ErrMalformedResponse) {
		return &ProtocolError{Op: op, Err: err}
	}
	return &NetworkError{Op: op, Err: err}
}
