// Package config loads designassist configuration. Defaults are set on viper,
// an optional YAML file is merged on top, then a .env file and the process
// environment (through gofulmen/config env specs), then bound CLI flags.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	gfconfig "github.com/fulmenhq/gofulmen/config"
	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/dtrwidget/designassist/internal/ailink"
	"github.com/dtrwidget/designassist/internal/ailink/driver/anthropic"
	"github.com/dtrwidget/designassist/internal/core/engine"
)

// AppName names the config directory and the environment prefix.
const AppName = "designassist"

// EnvPrefix prefixes application-specific environment variables.
const EnvPrefix = "DESIGNASSIST_"

var (
	// appConfig holds the current application configuration
	appConfig *Config
	configMu  sync.RWMutex
)

// EnvVarSpec defines environment variable mappings for config fields
type EnvVarSpec = gfconfig.EnvVarSpec

// Environment variable types
const (
	EnvString = gfconfig.EnvString
	EnvInt    = gfconfig.EnvInt
	EnvBool   = gfconfig.EnvBool
)

// LoadOptions controls where configuration comes from.
type LoadOptions struct {
	// ConfigFile is an explicit YAML file; when empty the XDG config dir and
	// ./config are searched for config.yaml.
	ConfigFile string
	// EnvFiles are dotenv files loaded before reading the environment. When
	// empty, ./.env is loaded if present. Existing variables win.
	EnvFiles []string
	// Viper supplies flag bindings; a fresh instance is used when nil.
	Viper *viper.Viper
}

// Load builds the configuration, validates it and stores it for GetConfig.
//
// This function is safe to call multiple times (e.g., for config reload)
func Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := loadEnvFiles(opts.EnvFiles); err != nil {
		return nil, err
	}

	v := opts.Viper
	if v == nil {
		v = viper.New()
	}
	SetDefaults(v)

	if err := readConfigFile(v, opts.ConfigFile); err != nil {
		return nil, err
	}

	envOverrides, err := gfconfig.LoadEnvOverrides(getEnvSpecs())
	if err != nil {
		return nil, fmt.Errorf("failed to load environment overrides: %w", err)
	}
	if err := applyUnitEnvOverrides(envOverrides); err != nil {
		return nil, err
	}
	if err := v.MergeConfigMap(envOverrides); err != nil {
		return nil, fmt.Errorf("failed to merge environment overrides: %w", err)
	}

	cfg := &Config{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.CORS.AllowedOrigins = cleanList(cfg.CORS.AllowedOrigins)
	cfg.Upstream.APIKey = strings.TrimSpace(cfg.Upstream.APIKey)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	setConfig(cfg)

	return cfg, nil
}

// SetDefaults sets default configuration values
func SetDefaults(v *viper.Viper) {
	defaults := ailink.DefaultCallerConfig()

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.write_timeout", "90s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.max_body_bytes", 20<<20)

	// Upstream defaults
	v.SetDefault("upstream.api_key", "")
	v.SetDefault("upstream.base_url", anthropic.DefaultBaseURL)
	v.SetDefault("upstream.model", defaults.Model)
	v.SetDefault("upstream.max_tokens", defaults.MaxTokens)
	v.SetDefault("upstream.timeout", defaults.Timeout.String())
	v.SetDefault("upstream.max_concurrent", defaults.MaxConcurrent)
	v.SetDefault("upstream.max_retries", defaults.MaxRetries)
	v.SetDefault("upstream.base_delay", defaults.BaseDelay.String())
	v.SetDefault("upstream.breaker.enabled", defaults.Breaker.Enabled)
	v.SetDefault("upstream.breaker.consecutive_failures", defaults.Breaker.ConsecutiveFailures)
	v.SetDefault("upstream.breaker.open_timeout", defaults.Breaker.OpenTimeout.String())

	// Rate limit defaults
	v.SetDefault("rate_limit.max_requests", engine.DefaultMaxRequests)
	v.SetDefault("rate_limit.window", engine.DefaultWindow.String())
	v.SetDefault("rate_limit.sweep_interval", "10m")

	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.max_age", 600)

	v.SetDefault("prompts.dir", "")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.environment", "production")

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.namespace", AppName)

	v.SetDefault("admin.token", "")
}

// GetConfig returns the current application configuration (thread-safe)
func GetConfig() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return appConfig
}

// setConfig updates the current configuration (thread-safe)
func setConfig(cfg *Config) {
	configMu.Lock()
	defer configMu.Unlock()
	appConfig = cfg
}

func loadEnvFiles(files []string) error {
	if len(files) == 0 {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
		files = []string{".env"}
	}
	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

func readConfigFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		return nil
	}

	if dir := gfconfig.GetAppConfigDir(AppName); dir != "" {
		v.AddConfigPath(dir)
	}
	v.AddConfigPath("./config")
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// getEnvSpecs returns environment variable specifications for config mapping.
// Upstream and rate-limit variables keep their unprefixed deployment names.
func getEnvSpecs() []EnvVarSpec {
	return []EnvVarSpec{
		{Name: "ANTHROPIC_API_KEY", Path: []string{"upstream", "api_key"}, Type: EnvString},
		{Name: "ANTHROPIC_MODEL", Path: []string{"upstream", "model"}, Type: EnvString},
		{Name: "ANTHROPIC_MAX_TOKENS", Path: []string{"upstream", "max_tokens"}, Type: EnvInt},
		{Name: "ANTHROPIC_BASE_URL", Path: []string{"upstream", "base_url"}, Type: EnvString},
		{Name: "MAX_REQUESTS_PER_SITE", Path: []string{"rate_limit", "max_requests"}, Type: EnvInt},
		{Name: "ALLOWED_ORIGINS", Path: []string{"cors", "allowed_origins"}, Type: EnvString},

		// Server config
		{Name: EnvPrefix + "HOST", Path: []string{"server", "host"}, Type: EnvString},
		{Name: EnvPrefix + "PORT", Path: []string{"server", "port"}, Type: EnvInt},
		// Duration fields are parsed as strings and converted by mapstructure decode hook
		{Name: EnvPrefix + "WRITE_TIMEOUT", Path: []string{"server", "write_timeout"}, Type: EnvString},
		{Name: EnvPrefix + "SHUTDOWN_TIMEOUT", Path: []string{"server", "shutdown_timeout"}, Type: EnvString},
		{Name: EnvPrefix + "MAX_BODY_BYTES", Path: []string{"server", "max_body_bytes"}, Type: EnvInt},

		{Name: EnvPrefix + "MAX_CONCURRENT", Path: []string{"upstream", "max_concurrent"}, Type: EnvInt},
		{Name: EnvPrefix + "MAX_RETRIES", Path: []string{"upstream", "max_retries"}, Type: EnvInt},
		{Name: EnvPrefix + "BASE_DELAY", Path: []string{"upstream", "base_delay"}, Type: EnvString},
		{Name: EnvPrefix + "BREAKER_ENABLED", Path: []string{"upstream", "breaker", "enabled"}, Type: EnvBool},
		{Name: EnvPrefix + "BREAKER_FAILURES", Path: []string{"upstream", "breaker", "consecutive_failures"}, Type: EnvInt},
		{Name: EnvPrefix + "BREAKER_OPEN_TIMEOUT", Path: []string{"upstream", "breaker", "open_timeout"}, Type: EnvString},

		{Name: EnvPrefix + "RATE_LIMIT_SWEEP_INTERVAL", Path: []string{"rate_limit", "sweep_interval"}, Type: EnvString},
		{Name: EnvPrefix + "PROMPTS_DIR", Path: []string{"prompts", "dir"}, Type: EnvString},

		{Name: EnvPrefix + "LOG_LEVEL", Path: []string{"logging", "level"}, Type: EnvString},
		{Name: EnvPrefix + "ENVIRONMENT", Path: []string{"logging", "environment"}, Type: EnvString},

		{Name: EnvPrefix + "METRICS_ENABLED", Path: []string{"metrics", "enabled"}, Type: EnvBool},
		{Name: EnvPrefix + "METRICS_PORT", Path: []string{"metrics", "port"}, Type: EnvInt},
		{Name: EnvPrefix + "METRICS_NAMESPACE", Path: []string{"metrics", "namespace"}, Type: EnvString},

		{Name: EnvPrefix + "ADMIN_TOKEN", Path: []string{"admin", "token"}, Type: EnvString},
	}
}

// unitEnvVar maps a whole-number environment variable onto a duration path.
type unitEnvVar struct {
	name string
	path []string
	unit time.Duration
}

var unitEnvVars = []unitEnvVar{
	{name: "ANTHROPIC_TIMEOUT_SECONDS", path: []string{"upstream", "timeout"}, unit: time.Second},
	{name: "RATE_LIMIT_TTL_HOURS", path: []string{"rate_limit", "window"}, unit: time.Hour},
}

func applyUnitEnvOverrides(envOverrides map[string]any) error {
	for _, spec := range unitEnvVars {
		raw := strings.TrimSpace(os.Getenv(spec.name))
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return fmt.Errorf("%w: %s %q must be a positive integer", ErrInvalidConfig, spec.name, raw)
		}
		parent := envOverrides
		for _, key := range spec.path[:len(spec.path)-1] {
			parent = ensureMap(parent, key)
		}
		parent[spec.path[len(spec.path)-1]] = (time.Duration(n) * spec.unit).String()
	}
	return nil
}

// DefaultConfigPath returns the XDG-compliant path to the user config file.
func DefaultConfigPath() string {
	configDir := gfconfig.GetAppConfigDir(AppName)
	if strings.TrimSpace(configDir) == "" {
		return ""
	}
	return filepath.Join(configDir, "config.yaml")
}

func ensureMap(parent map[string]any, key string) map[string]any {
	if existing, ok := parent[key]; ok {
		if typed, ok := existing.(map[string]any); ok {
			return typed
		}
	}
	next := map[string]any{}
	parent[key] = next
	return next
}

func cleanList(values []string) []string {
	clean := make([]string, 0, len(values))
	for _, value := range values {
		if value = strings.TrimSpace(value); value != "" {
			clean = append(clean, value)
		}
	}
	return clean
}
