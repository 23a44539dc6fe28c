// Package ledgererr defines the error taxonomy shared by the ledger operations,
// the dispatcher and the response renderer.
package ledgererr

import (
	"errors"
	"fmt"
)

var (
	ErrFormat            = errors.New("message format error")
	ErrInvalidArgument   = errors.New("invalid command")
	ErrNotAuthenticated  = errors.New("not logged in, please login first")
	ErrForbidden         = errors.New("access denied")
	ErrNotFound          = errors.New("not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInsufficientStock = errors.New("insufficient stock balance")
	ErrInternal          = errors.New("internal server error")
)

// Status codes carried on the first response line.
const (
	StatusOK         = 200
	StatusBadRequest = 400
	StatusForbidden  = 403
	StatusNotFound   = 404
	StatusInternal   = 500
)

// StatusOf maps an error onto its response status code. Unknown errors are internal.
func StatusOf(err error) int {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, ErrFormat),
		errors.Is(err, ErrInvalidArgument),
		errors.Is(err, ErrInsufficientFunds),
		errors.Is(err, ErrInsufficientStock):
		return StatusBadRequest
	case errors.Is(err, ErrNotAuthenticated), errors.Is(err, ErrForbidden):
		return StatusForbidden
	case errors.Is(err, ErrNotFound):
		return StatusNotFound
	default:
		return StatusInternal
	}
}

// IsClientError reports whether err belongs to the taxonomy and is safe to echo to the client.
func IsClientError(err error) bool {
	return StatusOf(err) != StatusInternal
}

// Invalid wraps ErrInvalidArgument with a detail, e.g. "invalid command, missing arguments".
func Invalid(detail string) error {
	return fmt.Errorf("%w, %s", ErrInvalidArgument, detail)
}

// Denied wraps ErrForbidden with the reason shown to the client.
func Denied(detail string) error {
	return fmt.Errorf("%w: %s", ErrForbidden, detail)
}

type classified struct {
	kind error
	msg  string
}

func (e *classified) Error() string { return e.msg }
func (e *classified) Unwrap() error { return e.kind }

// Classify returns an error that reads as msg but matches kind under errors.Is.
func Classify(kind error, msg string) error {
	return &classified{kind: kind, msg: msg}
}
