package executor

import (
	"fmt"
	"time"
)

// FailureKind categorizes why a logical request ended in failure.
type FailureKind string

const (
	FailureTimeout          FailureKind = "timeout"
	FailureConnectionError  FailureKind = "connection_error"
	FailureNonSuccessStatus FailureKind = "non_success_status"
)

// Outcome is the terminal result of one logical request, inclusive of all
// retry attempts. Elapsed spans from the start of the first attempt to the
// terminal result, backoff waits included.
type Outcome struct {
	Elapsed    time.Duration
	Success    bool
	Attempts   int
	Kind       FailureKind // empty when Success is true
	StatusCode int         // last status observed, 0 if no response arrived
	Err        error       // last attempt error, nil when Success is true
}

// StatusError represents a response whose status fell outside the accepted
// success range.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// ExpectationError represents a response that passed the status check but
// failed the configured JSON body expectation.
type ExpectationError struct {
	Path string
	Want string
	Got  string
}

func (e *ExpectationError) Error() string {
	return fmt.Sprintf("body expectation %s: want %q, got %q", e.Path, e.Want, e.Got)
}
