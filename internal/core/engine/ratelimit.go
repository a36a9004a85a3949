package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dtrwidget/designassist/internal/core"
	"github.com/dtrwidget/designassist/internal/metrics"
)

// Default admission settings.
const (
	DefaultMaxRequests = 10
	DefaultWindow      = 24 * time.Hour
)

// RateLimiter admits at most MaxRequests per site over a trailing Window.
type RateLimiter struct {
	Store       RateLimitStore
	MaxRequests int
	Window      time.Duration
	Clock       func() time.Time
}

// RateLimitStore stores per-site admission windows.
//
// Update must run fn while holding an exclusive lock for key, creating an empty
// window when the key is unknown.
type RateLimitStore interface {
	Update(ctx context.Context, key string, fn func(window *core.RateWindow) error) error
}

// NewRateLimiter builds a limiter, falling back to the defaults for
// non-positive limits.
func NewRateLimiter(store RateLimitStore, maxRequests int, window time.Duration) *RateLimiter {
	if maxRequests <= 0 {
		maxRequests = DefaultMaxRequests
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &RateLimiter{
		Store:       store,
		MaxRequests: maxRequests,
		Window:      window,
	}
}

// CheckAndIncrement records an admission for siteID, or returns
// *core.RateLimitExceededError when the site is at its limit. Rejected
// attempts are not recorded.
func (r *RateLimiter) CheckAndIncrement(ctx context.Context, siteID string) error {
	if r == nil || r.Store == nil {
		return fmt.Errorf("rate limiter is not configured")
	}

	if strings.TrimSpace(siteID) == "" {
		return fmt.Errorf("%w: siteId is required", core.ErrInvalidRequest)
	}

	limit := r.maxRequests()
	window := r.window()

	err := r.Store.Update(ctx, siteID, func(w *core.RateWindow) error {
		now := r.now()
		w.Prune(now, window)
		if w.Count() >= limit {
			return &core.RateLimitExceededError{SiteID: siteID, Limit: limit}
		}
		w.Stamps = append(w.Stamps, now)
		return nil
	})

	if err == nil {
		metrics.RecordAdmission(true)
	} else if errors.Is(err, core.ErrRateLimitExceeded) {
		metrics.RecordAdmission(false)
	}
	return err
}

func (r *RateLimiter) maxRequests() int {
	if r.MaxRequests <= 0 {
		return DefaultMaxRequests
	}
	return r.MaxRequests
}

func (r *RateLimiter) window() time.Duration {
	if r.Window <= 0 {
		return DefaultWindow
	}
	return r.Window
}

func (r *RateLimiter) now() time.Time {
	if r != nil && r.Clock != nil {
		return r.Clock()
	}
	return time.Now().UTC()
}
