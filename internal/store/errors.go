package store

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrStaleState is the sentinel matched by every lost concurrent write.
var ErrStaleState = errors.New("stale state")

// StaleStateError reports a transition that lost a concurrent-write race:
// the entity's stored status no longer matches the status the caller read.
// The caller must re-fetch and may retry.
type StaleStateError struct {
	Entity   string
	PublicID string
	Expected string
}

func (e *StaleStateError) Error() string {
	return fmt.Sprintf("%s %s: status changed since read (expected %s)", e.Entity, e.PublicID, e.Expected)
}

func (e *StaleStateError) Is(target error) bool { return target == ErrStaleState }
