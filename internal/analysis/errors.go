package analysis

import "errors"

// RetryableError marks a failure worth re-running, such as a remote model
// being temporarily unavailable. The job stays eligible for a later sweep.
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string {
	return "retryable analysis failure: " + e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// Retryable wraps err as a RetryableError. A nil err returns nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// IsRetryable reports whether err is, or wraps, a RetryableError.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}
