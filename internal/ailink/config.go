package ailink

import (
	"strings"
	"time"
)

// Defaults for upstream calls.
const (
	DefaultModel         = "claude-sonnet-4-5-20250929"
	DefaultMaxTokens     = 4096
	DefaultTimeout       = 60 * time.Second
	DefaultMaxConcurrent = 5
	DefaultMaxRetries    = 2
	DefaultBaseDelay     = time.Second
)

// CallerConfig controls how the Caller talks to the generative API.
//
// Timeout bounds one Generate call after a concurrency slot is acquired,
// covering every attempt and the waits between them.
type CallerConfig struct {
	Model         string
	MaxTokens     int
	Timeout       time.Duration
	MaxConcurrent int64
	MaxRetries    uint64
	BaseDelay     time.Duration
	PromptSlug    string
	Breaker       BreakerConfig
}

// BreakerConfig controls the circuit breaker wrapped around each attempt.
type BreakerConfig struct {
	Enabled             bool
	ConsecutiveFailures uint32
	OpenTimeout         time.Duration
}

// DefaultCallerConfig returns the production defaults.
func DefaultCallerConfig() CallerConfig {
	return CallerConfig{
		Model:         DefaultModel,
		MaxTokens:     DefaultMaxTokens,
		Timeout:       DefaultTimeout,
		MaxConcurrent: DefaultMaxConcurrent,
		MaxRetries:    DefaultMaxRetries,
		BaseDelay:     DefaultBaseDelay,
		Breaker: BreakerConfig{
			Enabled:             true,
			ConsecutiveFailures: 5,
			OpenTimeout:         30 * time.Second,
		},
	}
}

func (c CallerConfig) withDefaults() CallerConfig {
	if strings.TrimSpace(c.Model) == "" {
		c.Model = DefaultModel
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = DefaultMaxConcurrent
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = DefaultBaseDelay
	}
	if c.Breaker.ConsecutiveFailures == 0 {
		c.Breaker.ConsecutiveFailures = 5
	}
	if c.Breaker.OpenTimeout <= 0 {
		c.Breaker.OpenTimeout = 30 * time.Second
	}
	return c
}
