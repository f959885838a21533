package repoerr

import (
	"context"
	"errors"
)

var (
	ErrNotFound    = errors.New("record not found")
	ErrConflict    = errors.New("unique constraint conflict")
	ErrUnavailable = errors.New("storage unavailable")
)

// IsTransient reports whether a caller may retry the operation later.
func IsTransient(err error) bool {
	return errors.Is(err, ErrUnavailable) ||
		errors.Is(err, context.DeadlineExceeded)
}

type wrapped struct {
	kind  error
	cause error
}

func (e *wrapped) Error() string {
	return e.kind.Error() + ": " + e.cause.Error()
}

func (e *wrapped) Unwrap() []error {
	return []error{e.kind, e.cause}
}

// Wrap tags cause with one of the package sentinels while keeping the
// driver error reachable through errors.As.
func Wrap(kind, cause error) error {
	if cause == nil {
		return kind
	}
	return &wrapped{kind: kind, cause: cause}
}
