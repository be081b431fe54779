package repositories

import (
	"errors"
	"fmt"
)

// Kind categorises persistence failures so callers can map them to responses
// without inspecting store-specific errors.
type Kind int

const (
	// KindUnavailable covers transport and store-level faults; retryable.
	KindUnavailable Kind = iota
	// KindNotFound means the referenced aggregate does not exist.
	KindNotFound
	// KindConflict means an optimistic-concurrency or uniqueness violation;
	// the caller should reload and retry.
	KindConflict
)

// Error wraps a low-level persistence failure with its category and the
// operation that produced it.
type Error struct {
	Op   string
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("repository: %s", e.Op)
	}
	return fmt.Sprintf("repository: %s: %v", e.Op, e.Err)
}

// Unwrap exposes the underlying error for errors.Is/As.
func (e *Error) Unwrap() error { return e.Err }

// NewNotFound builds a not-found repository error.
func NewNotFound(op string, err error) *Error {
	return &Error{Op: op, Kind: KindNotFound, Err: err}
}

// NewConflict builds a concurrency-conflict repository error.
func NewConflict(op string, err error) *Error {
	return &Error{Op: op, Kind: KindConflict, Err: err}
}

// NewUnavailable builds a retryable infrastructure error.
func NewUnavailable(op string, err error) *Error {
	return &Error{Op: op, Kind: KindUnavailable, Err: err}
}

// IsNotFound reports whether err is a not-found repository error.
func IsNotFound(err error) bool { return hasKind(err, KindNotFound) }

// IsConflict reports whether err is a concurrency-conflict repository error.
func IsConflict(err error) bool { return hasKind(err, KindConflict) }

// IsUnavailable reports whether err is a retryable infrastructure error.
func IsUnavailable(err error) bool { return hasKind(err, KindUnavailable) }

func hasKind(err error, kind Kind) bool {
	var repoErr *Error
	if errors.As(err, &repoErr) {
		return repoErr.Kind == kind
	}
	return false
}
