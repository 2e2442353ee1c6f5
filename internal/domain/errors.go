package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrMalformedEvent signals an inbound event that can never be processed.
	ErrMalformedEvent = errors.New("malformed event")
	// ErrInvalidProfile signals a profile missing required fields.
	ErrInvalidProfile = errors.New("invalid profile")
	// ErrSelfRelation signals an actor referencing itself as a target.
	ErrSelfRelation = errors.New("actor and target are the same profile")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)

// PermanentError marks a failure that redelivery cannot fix.
// Anything not wrapped in it is treated as transient.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return "permanent: " + e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err as a permanent failure. Nil stays nil.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	if IsPermanent(err) {
		return err
	}
	return &PermanentError{Err: err}
}

// Permanentf formats a permanent failure wrapping one of the sentinels above.
func Permanentf(format string, args ...any) error {
	return &PermanentError{Err: fmt.Errorf(format, args...)}
}

// IsPermanent reports whether err (or anything it wraps) is permanent.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}
