package session

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError reports missing or invalid booking fields. No persistence
// is attempted when one is returned; the caller fixes the input and retries.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid booking request: %s", strings.Join(e.Fields, ", "))
}

// PersistenceError wraps a failed or timed-out store operation. The
// operation is safe to retry.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("session store %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// ErrAuthenticationRequired is returned when an operation needing patient
// context runs without an active identity.
var ErrAuthenticationRequired = errors.New("authentication required")

// ErrSessionNotFound is returned by the store when no record matches.
var ErrSessionNotFound = errors.New("session not found")
