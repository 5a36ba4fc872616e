// Package apperr holds the error taxonomy shared by the matching core and
// the service layer.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParameter marks malformed caller input: bad state codes,
	// out-of-range coordinates, non-positive radius or limit.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrDatasetUnavailable is returned for any query issued before the
	// first snapshot has been published.
	ErrDatasetUnavailable = errors.New("dataset unavailable")
)

// InvalidParameterError names the offending field. It matches
// ErrInvalidParameter under errors.Is.
type InvalidParameterError struct {
	Field  string
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %s: %s", e.Field, e.Reason)
}

func (e *InvalidParameterError) Unwrap() error {
	return ErrInvalidParameter
}

// Invalid builds an InvalidParameterError with a formatted reason.
func Invalid(field, format string, args ...any) error {
	return &InvalidParameterError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// IsInvalidParameter reports whether err is an input validation fault.
func IsInvalidParameter(err error) bool {
	return errors.Is(err, ErrInvalidParameter)
}

// IsDatasetUnavailable reports whether err means no snapshot is loaded yet.
func IsDatasetUnavailable(err error) bool {
	return errors.Is(err, ErrDatasetUnavailable)
}
