package models

import (
	"errors"
	"fmt"
)

// ErrEmptyResult is reported when a well-formed response left no posts
// after filtering.
var ErrEmptyResult = errors.New("no posts left after filtering")

// TransportError is returned when the request failed or the status was not 200.
type TransportError struct {
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transport error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// MalformedResponseError is returned when the body lacks the listing structure.
type MalformedResponseError struct {
	Reason string
	Err    error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed response: %s: %v", e.Reason, e.Err)
	}
	return "malformed response: " + e.Reason
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// ErrorKind classifies a refresh error for logging.
type ErrorKind string

const (
	KindTransport ErrorKind = "transport"
	KindMalformed ErrorKind = "malformed"
	KindEmpty     ErrorKind = "empty"
	KindUnknown   ErrorKind = "unknown"
)

// Kind returns the taxonomy bucket of err.
func Kind(err error) ErrorKind {
	var te *TransportError
	var me *MalformedResponseError
	switch {
	case errors.As(err, &te):
		return KindTransport
	case errors.As(err, &me):
		return KindMalformed
	case errors.Is(err, ErrEmptyResult):
		return KindEmpty
	default:
		return KindUnknown
	}
}
