package storage

import (
	"context"
	"errors"
)

var (
	// ErrUnavailable indicates the backing store could not be reached or did
	// not answer in time. It is safe to retry.
	ErrUnavailable = errors.New("storage.unavailable")

	// ErrConflict indicates an optimistic update lost against a concurrent
	// writer. The caller must reload and reapply its change.
	ErrConflict = errors.New("storage.conflict")
)

// IsTransient reports whether err is a failure the client may retry as is.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrUnavailable) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, context.DeadlineExceeded)
}

// Unavailable wraps err with ErrUnavailable unless it already carries it.
func Unavailable(err error) error {
	if err == nil || errors.Is(err, ErrUnavailable) {
		return err
	}
	return errors.Join(ErrUnavailable, err)
}
