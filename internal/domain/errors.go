package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrRunBusy is returned when a run is requested while another is in flight.
var ErrRunBusy = errors.New("a run is already in progress")

// SourceError marks one fetcher's failure. It never aborts a run; the
// orchestrator counts it and proceeds with the other sources.
type SourceError struct {
	Source Source
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %s: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// HTTPError wraps an HTTP status code so retry logic can inspect it.
type HTTPError struct {
	StatusCode int
	RetryAfter time.Duration // from Retry-After header, zero if absent
	Err        error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("HTTP %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

func (e *HTTPError) Unwrap() error { return e.Err }
