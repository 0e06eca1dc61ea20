package services

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned for rows that do not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned when a user touches another user's row.
	ErrForbidden = errors.New("forbidden")
	// ErrDuplicateSession is the session guard's advisory rejection.
	ErrDuplicateSession = errors.New("already generated for these answers")
)

// RetryExhaustedError is terminal for a generation request: every attempt of
// the pipeline failed. Only the last attempt's error is preserved; earlier
// ones are logged.
type RetryExhaustedError struct {
	Attempts int
	Err      error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("recommendation generation failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *RetryExhaustedError) Unwrap() error { return e.Err }
