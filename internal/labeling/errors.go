package labeling

import (
	"fmt"
	"strconv"
	"time"
)

// defaultRetryAfter is used when a 429 carries no usable Retry-After header.
const defaultRetryAfter = 30 * time.Second

// RateLimitError indicates the labeling endpoint returned HTTP 429.
type RateLimitError struct {
	Err        error
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("labeler rate limited (retry after %s): %v", e.RetryAfter, e.Err)
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// StatusError is a non-2xx answer from the labeling endpoint.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("labeler returned status %d: %s", e.StatusCode, e.Body)
}

// parseRetryAfter reads a Retry-After header given in seconds.
func parseRetryAfter(val string) time.Duration {
	secs, err := strconv.Atoi(val)
	if err != nil || secs <= 0 {
		return defaultRetryAfter
	}
	return time.Duration(secs) * time.Second
}
