package tryon

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrMissingBaseImage is returned when a request would be composed
	// before the user has uploaded a photo.
	ErrMissingBaseImage = errors.New("no base photo uploaded")

	// ErrBaseImageSet is returned when a second photo is submitted
	// without removing the first.
	ErrBaseImageSet = errors.New("base photo already set")

	// ErrPipelineBusy is returned when a turn is submitted while another
	// turn's pipeline is still in flight.
	ErrPipelineBusy = errors.New("a turn is already being processed")

	// ErrEmptyMessage is returned for blank message submissions.
	ErrEmptyMessage = errors.New("message text cannot be empty")

	// ErrStorageNotConfigured is returned when look persistence is
	// requested without a storage backend.
	ErrStorageNotConfigured = errors.New("storage not configured")
)

// RateLimitError is returned when a gateway rate limit is hit.
type RateLimitError struct {
	RetryAfter time.Duration
	LimitType  string
	Model      string
	Err        error // Underlying error from the provider
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s: %s limit, retry after %v",
		e.Model, e.LimitType, e.RetryAfter)
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// IsRateLimitError checks if an error is a RateLimitError.
func IsRateLimitError(err error) bool {
	var rlErr *RateLimitError
	return errors.As(err, &rlErr)
}
