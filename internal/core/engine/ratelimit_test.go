package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dtrwidget/designassist/internal/core"
	"github.com/dtrwidget/designassist/internal/core/store"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestLimiter(max int, window time.Duration) (*RateLimiter, *fakeClock, *store.MemoryRateStore) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	rateStore := store.NewMemoryRateStore()
	limiter := NewRateLimiter(rateStore, max, window)
	limiter.Clock = clock.Now
	return limiter, clock, rateStore
}

func TestRateLimiterRejectsRequestPastLimit(t *testing.T) {
	limiter, _, rateStore := newTestLimiter(3, time.Hour)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, limiter.CheckAndIncrement(ctx, "site-a"))
	}

	err := limiter.CheckAndIncrement(ctx, "site-a")
	require.ErrorIs(t, err, core.ErrRateLimitExceeded)

	var rle *core.RateLimitExceededError
	require.ErrorAs(t, err, &rle)
	require.Equal(t, "site-a", rle.SiteID)
	require.Equal(t, 3, rle.Limit)

	// The rejected attempt is not recorded.
	window, ok := rateStore.Snapshot("site-a")
	require.True(t, ok)
	require.Equal(t, 3, window.Count())
}

func TestRateLimiterResumesAfterWindow(t *testing.T) {
	limiter, clock, _ := newTestLimiter(2, time.Hour)
	ctx := context.Background()

	require.NoError(t, limiter.CheckAndIncrement(ctx, "site-a"))
	require.NoError(t, limiter.CheckAndIncrement(ctx, "site-a"))
	require.Error(t, limiter.CheckAndIncrement(ctx, "site-a"))

	clock.Advance(time.Hour)
	require.NoError(t, limiter.CheckAndIncrement(ctx, "site-a"))
}

func TestRateLimiterSlidingWindowEdge(t *testing.T) {
	limiter, clock, _ := newTestLimiter(1, time.Hour)
	ctx := context.Background()

	require.NoError(t, limiter.CheckAndIncrement(ctx, "site-a"))

	clock.Advance(time.Hour - time.Millisecond)
	require.ErrorIs(t, limiter.CheckAndIncrement(ctx, "site-a"), core.ErrRateLimitExceeded)

	clock.Advance(2 * time.Millisecond)
	require.NoError(t, limiter.CheckAndIncrement(ctx, "site-a"))
}

func TestRateLimiterSlidesOneStampAtATime(t *testing.T) {
	limiter, clock, _ := newTestLimiter(2, time.Hour)
	ctx := context.Background()

	require.NoError(t, limiter.CheckAndIncrement(ctx, "site-a"))
	clock.Advance(30 * time.Minute)
	require.NoError(t, limiter.CheckAndIncrement(ctx, "site-a"))
	require.Error(t, limiter.CheckAndIncrement(ctx, "site-a"))

	// Only the first stamp has aged out.
	clock.Advance(30 * time.Minute)
	require.NoError(t, limiter.CheckAndIncrement(ctx, "site-a"))
	require.Error(t, limiter.CheckAndIncrement(ctx, "site-a"))
}

func TestRateLimiterIsolatesSites(t *testing.T) {
	limiter, _, _ := newTestLimiter(1, time.Hour)
	ctx := context.Background()

	require.NoError(t, limiter.CheckAndIncrement(ctx, "site-a"))
	require.Error(t, limiter.CheckAndIncrement(ctx, "site-a"))
	require.NoError(t, limiter.CheckAndIncrement(ctx, "site-b"))
}

func TestRateLimiterConcurrentAdmissionsNeverExceedLimit(t *testing.T) {
	limiter, _, rateStore := newTestLimiter(10, time.Hour)
	ctx := context.Background()

	var admitted atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if limiter.CheckAndIncrement(ctx, "site-a") == nil {
				admitted.Add(1)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int64(10), admitted.Load())
	window, _ := rateStore.Snapshot("site-a")
	require.Equal(t, 10, window.Count())
}

func TestRateLimiterRejectsBlankSite(t *testing.T) {
	limiter, _, _ := newTestLimiter(1, time.Hour)
	require.ErrorIs(t, limiter.CheckAndIncrement(context.Background(), " "), core.ErrInvalidRequest)
}

func TestNewRateLimiterDefaults(t *testing.T) {
	limiter := NewRateLimiter(store.NewMemoryRateStore(), 0, 0)
	require.Equal(t, DefaultMaxRequests, limiter.MaxRequests)
	require.Equal(t, DefaultWindow, limiter.Window)
}

func TestRateLimiterKeysOnRawSiteID(t *testing.T) {
	limiter, _, rateStore := newTestLimiter(1, time.Hour)
	ctx := context.Background()

	require.NoError(t, limiter.CheckAndIncrement(ctx, "s1"))
	require.NoError(t, limiter.CheckAndIncrement(ctx, " s1"))
	require.ErrorIs(t, limiter.CheckAndIncrement(ctx, "s1"), core.ErrRateLimitExceeded)
	require.Equal(t, 2, rateStore.Len())

	require.ErrorIs(t, limiter.CheckAndIncrement(ctx, "   "), core.ErrInvalidRequest)
}
