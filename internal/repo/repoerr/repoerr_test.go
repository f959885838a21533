package repoerr

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

type driverErr struct{ code string }

func (e *driverErr) Error() string { return "driver: " + e.code }

func TestWrapKeepsKindAndCause(t *testing.T) {
	cause := &driverErr{code: "23505"}
	err := fmt.Errorf("create match: %w", Wrap(ErrConflict, cause))

	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict in chain: %v", err)
	}
	var de *driverErr
	if !errors.As(err, &de) || de.code != "23505" {
		t.Fatalf("expected driver error in chain: %v", err)
	}
}

func TestWrapNilCause(t *testing.T) {
	if err := Wrap(ErrNotFound, nil); err != ErrNotFound {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestIsTransient(t *testing.T) {
	if !IsTransient(Wrap(ErrUnavailable, errors.New("dial tcp"))) {
		t.Fatalf("unavailable should be transient")
	}
	if !IsTransient(fmt.Errorf("query: %w", context.DeadlineExceeded)) {
		t.Fatalf("deadline should be transient")
	}
	if IsTransient(ErrConflict) {
		t.Fatalf("conflict should not be transient")
	}
}
