package workflow

import "errors"

// terminalError marks an error as non-retryable regardless of the step's
// retry policy.
type terminalError struct {
	err error
}

func (e *terminalError) Error() string { return e.err.Error() }
func (e *terminalError) Unwrap() error { return e.err }

// Abort wraps err so the engine fails the run immediately without
// consuming remaining retry attempts. Wrapping a nil error returns nil.
func Abort(err error) error {
	if err == nil {
		return nil
	}
	return &terminalError{err: err}
}

// retryClassifier matches errors that carry their own retryable
// classification (the domain error taxonomy implements it). The engine
// honors it structurally so it stays decoupled from any one domain.
type retryClassifier interface {
	Retryable() bool
}

// Retryable reports whether a step error may consume another attempt.
// Errors wrapped with Abort and errors classifying themselves as
// non-retryable short-circuit the retry loop; everything else is assumed
// transient.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	var t *terminalError
	if errors.As(err, &t) {
		return false
	}
	var rc retryClassifier
	if errors.As(err, &rc) {
		return rc.Retryable()
	}
	return true
}
