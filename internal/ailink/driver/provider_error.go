package driver

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ProviderError is returned when a provider responds with a non-2xx status.
//
// Drivers should populate RawResponse with the provider response body bytes.
// RawResponse must never include API keys.
type ProviderError struct {
	Provider    string
	StatusCode  int
	Message     string
	RetryAfter  time.Duration
	RawResponse []byte
}

func (e *ProviderError) Error() string {
	if e == nil {
		return "provider error"
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s request failed: status %d: %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s request failed: %s", e.Provider, e.Message)
}

// Throttled reports whether the provider rejected the request for rate reasons.
func (e *ProviderError) Throttled() bool {
	return e != nil && e.StatusCode == http.StatusTooManyRequests
}

// IsThrottled reports whether err carries a throttling ProviderError.
func IsThrottled(err error) bool {
	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		return providerErr.Throttled()
	}
	return false
}

// IsClientError reports whether err carries a 4xx ProviderError other than a
// throttle, meaning the provider rejected this particular request.
func IsClientError(err error) bool {
	var providerErr *ProviderError
	if !errors.As(err, &providerErr) || providerErr.Throttled() {
		return false
	}
	return providerErr.StatusCode >= http.StatusBadRequest && providerErr.StatusCode < http.StatusInternalServerError
}

// ParseRetryAfter reads a Retry-After header given in seconds. HTTP dates and
// malformed values yield zero.
func ParseRetryAfter(value string) time.Duration {
	seconds, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
