package core

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest marks requests rejected before admission.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrRateLimitExceeded matches any *RateLimitExceededError.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	// ErrUpstreamAPI matches any *UpstreamAPIError.
	ErrUpstreamAPI = errors.New("upstream api error")
)

// Messages carried by UpstreamAPIError.
const (
	UpstreamCallFailed       = "AI service call failed"
	UpstreamRetriesExhausted = "AI service retries exhausted"
	UpstreamTimedOut         = "AI service call timed out"
	UpstreamUnavailable      = "AI service temporarily unavailable"
)

// RateLimitExceededError reports that a site used up its admissions for the window.
type RateLimitExceededError struct {
	SiteID string
	Limit  int
}

func (e *RateLimitExceededError) Error() string {
	if e == nil {
		return ErrRateLimitExceeded.Error()
	}
	return fmt.Sprintf("request limit exceeded for site %s (%d requests per window)", e.SiteID, e.Limit)
}

func (e *RateLimitExceededError) Unwrap() error {
	return ErrRateLimitExceeded
}

// UpstreamAPIError reports a failed call to the generative API.
//
// Message is safe to show to end users. Detail carries the underlying cause for
// logs and must not be written to client responses.
type UpstreamAPIError struct {
	Message string
	Detail  string
	Err     error
}

func (e *UpstreamAPIError) Error() string {
	if e == nil {
		return ErrUpstreamAPI.Error()
	}
	if e.Detail == "" {
		return e.Message
	}
	return e.Message + ": " + e.Detail
}

func (e *UpstreamAPIError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is reports ErrUpstreamAPI as a match so callers need not type-assert.
func (e *UpstreamAPIError) Is(target error) bool {
	return target == ErrUpstreamAPI
}

// NewUpstreamAPIError builds an UpstreamAPIError whose detail is the cause's description.
func NewUpstreamAPIError(message string, cause error) *UpstreamAPIError {
	upstreamErr := &UpstreamAPIError{Message: message, Err: cause}
	if cause != nil {
		upstreamErr.Detail = cause.Error()
	}
	return upstreamErr
}
