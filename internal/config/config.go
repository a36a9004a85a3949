package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dtrwidget/designassist/internal/ailink"
	"github.com/dtrwidget/designassist/internal/observability"
	"github.com/dtrwidget/designassist/internal/server/middleware"
)

// ErrInvalidConfig marks configuration values that fail validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config represents the complete application configuration.
// Values are layered: defaults, then an optional YAML file, then a .env file
// and the process environment, then command-line flags.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Upstream  UpstreamConfig  `mapstructure:"upstream"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	CORS      CORSConfig      `mapstructure:"cors"`
	Prompts   PromptsConfig   `mapstructure:"prompts"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Admin     AdminConfig     `mapstructure:"admin"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
}

// UpstreamConfig configures the generative API and the call policy around it.
type UpstreamConfig struct {
	APIKey        string        `mapstructure:"api_key"`
	BaseURL       string        `mapstructure:"base_url"`
	Model         string        `mapstructure:"model"`
	MaxTokens     int           `mapstructure:"max_tokens"`
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxConcurrent int64         `mapstructure:"max_concurrent"`
	MaxRetries    uint64        `mapstructure:"max_retries"`
	BaseDelay     time.Duration `mapstructure:"base_delay"`
	Breaker       BreakerConfig `mapstructure:"breaker"`
}

// BreakerConfig configures the circuit breaker around upstream attempts.
type BreakerConfig struct {
	Enabled             bool          `mapstructure:"enabled"`
	ConsecutiveFailures uint32        `mapstructure:"consecutive_failures"`
	OpenTimeout         time.Duration `mapstructure:"open_timeout"`
}

// RateLimitConfig configures per-site admission.
type RateLimitConfig struct {
	MaxRequests   int           `mapstructure:"max_requests"`
	Window        time.Duration `mapstructure:"window"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// CORSConfig lists origins allowed to call the API; "*" admits any.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	MaxAge         int      `mapstructure:"max_age"`
}

// PromptsConfig points at a directory of prompt overrides.
type PromptsConfig struct {
	Dir string `mapstructure:"dir"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	// Level controls the minimum log level
	// Valid values: trace, debug, info, warn, error
	Level       string `mapstructure:"level"`
	Environment string `mapstructure:"environment"`
}

// MetricsConfig contains Prometheus metrics configuration
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// Port is the dedicated exporter port; /metrics on the main port proxies it.
	Port int `mapstructure:"port"`

	// Namespace prefixes exported metric names.
	Namespace string `mapstructure:"namespace"`
}

// AdminConfig enables the signal endpoint when Token is set.
type AdminConfig struct {
	Token string `mapstructure:"token"`
}

// CallerConfig converts upstream settings into the caller's policy.
func (c *Config) CallerConfig() ailink.CallerConfig {
	return ailink.CallerConfig{
		Model:         c.Upstream.Model,
		MaxTokens:     c.Upstream.MaxTokens,
		Timeout:       c.Upstream.Timeout,
		MaxConcurrent: c.Upstream.MaxConcurrent,
		MaxRetries:    c.Upstream.MaxRetries,
		BaseDelay:     c.Upstream.BaseDelay,
		Breaker: ailink.BreakerConfig{
			Enabled:             c.Upstream.Breaker.Enabled,
			ConsecutiveFailures: c.Upstream.Breaker.ConsecutiveFailures,
			OpenTimeout:         c.Upstream.Breaker.OpenTimeout,
		},
	}
}

// CORSOptions converts CORS settings into middleware options.
func (c *Config) CORSOptions() middleware.CORSConfig {
	return middleware.CORSConfig{
		AllowedOrigins: c.CORS.AllowedOrigins,
		MaxAge:         c.CORS.MaxAge,
	}
}

// MetricsOptions converts metrics settings into exporter options.
func (c *Config) MetricsOptions() observability.MetricsOptions {
	return observability.MetricsOptions{
		Namespace: c.Metrics.Namespace,
		Port:      c.Metrics.Port,
	}
}

// LoggerOptions converts logging settings into server logger options.
func (c *Config) LoggerOptions() observability.ServerLoggerOptions {
	return observability.ServerLoggerOptions{
		Service:     AppName,
		Level:       c.Logging.Level,
		Environment: c.Logging.Environment,
		Namespace:   c.Metrics.Namespace,
	}
}

// Validate checks ranges the rest of the program relies on.
func (c *Config) Validate() error {
	var problems []string
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("server.port %d out of range", c.Server.Port))
	}
	if c.Upstream.MaxTokens <= 0 {
		problems = append(problems, "upstream.max_tokens must be positive")
	}
	if c.Upstream.Timeout <= 0 {
		problems = append(problems, "upstream.timeout must be positive")
	}
	if c.Upstream.MaxConcurrent <= 0 {
		problems = append(problems, "upstream.max_concurrent must be positive")
	}
	if c.Upstream.BaseDelay < 0 {
		problems = append(problems, "upstream.base_delay must not be negative")
	}
	if strings.TrimSpace(c.Upstream.Model) == "" {
		problems = append(problems, "upstream.model is required")
	}
	if c.Upstream.Breaker.Enabled && c.Upstream.Breaker.ConsecutiveFailures == 0 {
		problems = append(problems, "upstream.breaker.consecutive_failures must be positive when the breaker is enabled")
	}
	if c.RateLimit.MaxRequests <= 0 {
		problems = append(problems, "rate_limit.max_requests must be positive")
	}
	if c.RateLimit.Window <= 0 {
		problems = append(problems, "rate_limit.window must be positive")
	}
	if c.Metrics.Port < 0 || c.Metrics.Port > 65535 {
		problems = append(problems, fmt.Sprintf("metrics.port %d out of range", c.Metrics.Port))
	}
	if c.Metrics.Enabled && strings.TrimSpace(c.Metrics.Namespace) == "" {
		problems = append(problems, "metrics.namespace is required when metrics are enabled")
	}
	if c.Server.WriteTimeout > 0 && c.Server.WriteTimeout <= c.Upstream.Timeout {
		problems = append(problems, "server.write_timeout must exceed upstream.timeout")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}
