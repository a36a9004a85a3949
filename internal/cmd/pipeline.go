package cmd

import (
	"fmt"

	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"

	"github.com/dtrwidget/designassist/internal/ailink"
	"github.com/dtrwidget/designassist/internal/ailink/driver/anthropic"
	"github.com/dtrwidget/designassist/internal/ailink/prompt"
	"github.com/dtrwidget/designassist/internal/config"
	"github.com/dtrwidget/designassist/internal/core/engine"
	"github.com/dtrwidget/designassist/internal/core/store"
)

// pipeline holds the components behind one generation.
type pipeline struct {
	Store        *store.MemoryRateStore
	Limiter      *engine.RateLimiter
	Caller       *ailink.Caller
	Orchestrator *engine.Orchestrator
}

// buildPipeline wires the rate store, limiter, upstream client and caller
// from configuration.
func buildPipeline(cfg *config.Config, logger *logging.Logger) (*pipeline, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}

	client := anthropic.NewClient(cfg.Upstream.BaseURL, cfg.Upstream.APIKey)
	client.Timeout = cfg.Upstream.Timeout

	reg, err := prompt.DefaultRegistry(cfg.Prompts.Dir)
	if err != nil {
		return nil, fmt.Errorf("load prompts: %w", err)
	}

	caller, err := ailink.NewCallerFromRegistry(client, reg, cfg.CallerConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("build upstream caller: %w", err)
	}

	rateStore := store.NewMemoryRateStore()
	limiter := engine.NewRateLimiter(rateStore, cfg.RateLimit.MaxRequests, cfg.RateLimit.Window)

	if logger != nil {
		logger.Debug("Generation pipeline ready",
			zap.String("model", cfg.Upstream.Model),
			zap.Int("max_requests_per_site", cfg.RateLimit.MaxRequests),
			zap.Duration("rate_window", cfg.RateLimit.Window),
			zap.Bool("api_key_set", cfg.Upstream.APIKey != ""))
	}

	return &pipeline{
		Store:        rateStore,
		Limiter:      limiter,
		Caller:       caller,
		Orchestrator: &engine.Orchestrator{Limiter: limiter, Generator: caller},
	}, nil
}
