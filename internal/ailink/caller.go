package ailink

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/fulmenhq/gofulmen/logging"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/dtrwidget/designassist/internal/ailink/content"
	"github.com/dtrwidget/designassist/internal/ailink/driver"
	"github.com/dtrwidget/designassist/internal/ailink/encode"
	"github.com/dtrwidget/designassist/internal/ailink/prompt"
	"github.com/dtrwidget/designassist/internal/core"
	"github.com/dtrwidget/designassist/internal/metrics"
)

// Caller sends extracted prompts to the generative API. It caps concurrent
// calls, retries throttled attempts with exponential delays and returns the
// concatenated response text.
type Caller struct {
	driver  driver.Driver
	system  string
	cfg     CallerConfig
	sem     *semaphore.Weighted
	breaker *gobreaker.CircuitBreaker
	logger  *logging.Logger

	inflight atomic.Int64
}

// NewCaller builds a Caller around d using system as the system instruction.
// logger may be nil.
func NewCaller(d driver.Driver, system string, cfg CallerConfig, logger *logging.Logger) (*Caller, error) {
	if d == nil {
		return nil, errors.New("driver is required")
	}
	cfg = cfg.withDefaults()

	c := &Caller{
		driver: d,
		system: system,
		cfg:    cfg,
		sem:    semaphore.NewWeighted(cfg.MaxConcurrent),
		logger: logger,
	}
	if cfg.Breaker.Enabled {
		c.breaker = gobreaker.NewCircuitBreaker(c.breakerSettings())
	}
	return c, nil
}

// NewCallerFromRegistry resolves the system instruction from reg.
func NewCallerFromRegistry(d driver.Driver, reg prompt.Registry, cfg CallerConfig, logger *logging.Logger) (*Caller, error) {
	slug := cfg.PromptSlug
	if slug == "" {
		slug = prompt.DefaultSlug
	}
	def, err := reg.Get(slug)
	if err != nil {
		return nil, err
	}
	return NewCaller(d, def.System(), cfg, logger)
}

// Config returns the effective configuration.
func (c *Caller) Config() CallerConfig {
	return c.cfg
}

// Generate runs one upstream call for p, including retries.
//
// The configured timeout bounds the whole call, queueing for a concurrency
// slot included. Failures come back as *core.UpstreamAPIError, except
// cancellation or expiry of ctx itself, which is returned as ctx.Err().
func (c *Caller) Generate(ctx context.Context, p content.ExtractedPrompt) (string, error) {
	start := time.Now()

	// The deadline covers the wait for a slot as well as every attempt.
	callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	if err := c.sem.Acquire(callCtx, 1); err != nil {
		if parentErr := ctx.Err(); parentErr != nil {
			return "", parentErr
		}
		c.logWarn("Timed out waiting for an upstream slot",
			zap.Duration("waited", time.Since(start)),
			zap.Int64("max_concurrent", c.cfg.MaxConcurrent))
		return "", core.NewUpstreamAPIError(core.UpstreamTimedOut, err)
	}
	defer c.sem.Release(1)

	metrics.SetUpstreamInflight(c.inflight.Add(1))
	defer func() { metrics.SetUpstreamInflight(c.inflight.Add(-1)) }()

	req := c.BuildRequest(p)

	var (
		resp     *driver.Response
		attempts int
	)
	operation := func() error {
		attempts++
		r, err := c.attempt(callCtx, req)
		outcome := Classify(err)
		metrics.RecordUpstreamAttempt(outcome.String())

		switch outcome {
		case OutcomeSuccess:
			resp = r
			return nil
		case OutcomeThrottled:
			return err
		default:
			return backoff.Permanent(err)
		}
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), c.cfg.MaxRetries), callCtx)
	err := backoff.RetryNotify(operation, policy, func(err error, wait time.Duration) {
		c.logWarn("Upstream throttled, retrying",
			zap.Int("attempt", attempts),
			zap.Duration("wait", wait),
			zap.String("reason", describeProviderError(err)))
	})
	metrics.RecordUpstreamCall(err == nil, time.Since(start))

	if err != nil {
		failure := c.classifyFailure(ctx, callCtx, err)
		c.logError("Upstream call failed",
			zap.Int("attempts", attempts),
			zap.Duration("duration", time.Since(start)),
			zap.String("reason", describeProviderError(err)),
			zap.Error(err))
		return "", failure
	}

	c.logDebug("Upstream call completed",
		zap.Int("attempts", attempts),
		zap.Duration("duration", time.Since(start)),
		zap.String("stop_reason", resp.StopReason))

	return resp.Text(), nil
}

// BuildRequest assembles the provider request for p: the image block, when
// present, precedes the text block.
func (c *Caller) BuildRequest(p content.ExtractedPrompt) *driver.Request {
	blocks := make([]content.ContentBlock, 0, 2)
	if p.HasImage() {
		mediaType := encode.SniffImageMIME(p.ImageData, p.ImageMIME)
		blocks = append(blocks, content.ImageBlock(mediaType, p.ImageData))
	}
	blocks = append(blocks, content.TextBlock(prompt.BuildUserPrompt(p.Text)))

	return &driver.Request{
		Model:      c.cfg.Model,
		System:     c.system,
		MaxTokens:  c.cfg.MaxTokens,
		PromptSlug: c.cfg.PromptSlug,
		Messages:   []content.Message{{Role: "user", Content: blocks}},
	}
}

func (c *Caller) attempt(ctx context.Context, req *driver.Request) (*driver.Response, error) {
	if c.breaker == nil {
		return c.complete(ctx, req)
	}
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.complete(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return result.(*driver.Response), nil
}

func (c *Caller) complete(ctx context.Context, req *driver.Request) (*driver.Response, error) {
	resp, err := c.driver.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, fmt.Errorf("%s returned an empty response", c.driver.Name())
	}
	return resp, nil
}

func (c *Caller) classifyFailure(parent, callCtx context.Context, err error) error {
	if parentErr := parent.Err(); parentErr != nil {
		return parentErr
	}
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return core.NewUpstreamAPIError(core.UpstreamUnavailable, err)
	case errors.Is(callCtx.Err(), context.DeadlineExceeded):
		return core.NewUpstreamAPIError(core.UpstreamTimedOut, err)
	case Classify(err) == OutcomeThrottled:
		return core.NewUpstreamAPIError(core.UpstreamRetriesExhausted, err)
	default:
		return core.NewUpstreamAPIError(core.UpstreamCallFailed, err)
	}
}

func (c *Caller) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.BaseDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = c.cfg.BaseDelay << 10
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

func (c *Caller) breakerSettings() gobreaker.Settings {
	threshold := c.cfg.Breaker.ConsecutiveFailures
	return gobreaker.Settings{
		Name:        fmt.Sprintf("%s-upstream", c.driver.Name()),
		MaxRequests: 1,
		Timeout:     c.cfg.Breaker.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			// Rejections of this request and cancellations leave the breaker alone.
			return err == nil ||
				driver.IsThrottled(err) ||
				driver.IsClientError(err) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.RecordBreakerTransition(from.String(), to.String())
			c.logWarn("Upstream circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}
}

func (c *Caller) logDebug(msg string, fields ...zap.Field) {
	if c.logger != nil {
		c.logger.Debug(msg, fields...)
	}
}

func (c *Caller) logWarn(msg string, fields ...zap.Field) {
	if c.logger != nil {
		c.logger.Warn(msg, fields...)
	}
}

func (c *Caller) logError(msg string, fields ...zap.Field) {
	if c.logger != nil {
		c.logger.Error(msg, fields...)
	}
}
