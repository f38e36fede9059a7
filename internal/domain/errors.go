package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an account does not exist.
	ErrNotFound = errors.New("account not found")

	// ErrAlreadyExists is returned by the pre-check when an account with
	// the requested email is already present.
	ErrAlreadyExists = errors.New("account already exists")
)

// RetryClassifier is implemented by errors that carry an explicit
// retryable/non-retryable classification. The workflow engine consults it
// to decide whether an activity failure consumes retry budget or aborts
// the run outright.
type RetryClassifier interface {
	Retryable() bool
}

// IsRetryable reports whether err may be retried. Errors without an
// explicit classification default to retryable; the known sentinel errors
// (not-found, already-exists) and validation errors are terminal.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var rc RetryClassifier
	if errors.As(err, &rc) {
		return rc.Retryable()
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrAlreadyExists) {
		return false
	}
	var ve *ValidationError
	return !errors.As(err, &ve)
}

// ValidationError rejects a request before any workflow starts.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Retryable() bool { return false }

// ProviderError wraps a failure from the external payment provider.
// Transient infrastructure failures (timeouts, 5xx) are retryable;
// permanent rejections (4xx business rules) are not.
type ProviderError struct {
	Provider  string
	Op        string
	Err       error
	Transient bool
}

func (e *ProviderError) Error() string {
	kind := "rejected"
	if e.Transient {
		kind = "failed"
	}
	return fmt.Sprintf("provider %s: %s %s: %v", e.Provider, e.Op, kind, e.Err)
}

func (e *ProviderError) Unwrap() error   { return e.Err }
func (e *ProviderError) Retryable() bool { return e.Transient }

// StoreError wraps a failure from the account store. Uniqueness conflicts
// detected at commit time are terminal; other storage failures are
// assumed transient and retried.
type StoreError struct {
	Op       string
	Err      error
	Conflict bool
}

func (e *StoreError) Error() string {
	if e.Conflict {
		return fmt.Sprintf("store: %s: conflict: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error   { return e.Err }
func (e *StoreError) Retryable() bool { return !e.Conflict }

// IsConflict reports whether err is a uniqueness violation surfaced by
// the store at commit time.
func IsConflict(err error) bool {
	var se *StoreError
	return errors.As(err, &se) && se.Conflict
}
