// Package cms executes content queries against the Sanity query API.
package cms

import (
	"errors"
	"fmt"
)

// Common errors for content fetches.
var (
	ErrUnavailable       = errors.New("content source unavailable")
	ErrQueryRejected     = errors.New("query rejected by content source")
	ErrUnexpectedStatus  = errors.New("unexpected response status")
	ErrMalformedResponse = errors.New("malformed response from content source")
	ErrCanceled          = errors.New("content fetch canceled")
)

// FetchError wraps errors with the failing operation.
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("cms: %s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError creates a new FetchError.
func NewFetchError(op string, err error) error {
	return &FetchError{
		Op:  op,
		Err: err,
	}
}

// queryError is the error body returned by the query API.
type queryError struct {
	Error struct {
		Description string `json:"description"`
		Type        string `json:"type"`
	} `json:"error"`
}
