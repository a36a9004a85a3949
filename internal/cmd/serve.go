package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/fulmenhq/gofulmen/signals"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/dtrwidget/designassist/internal/config"
	"github.com/dtrwidget/designassist/internal/core/store"
	errwrap "github.com/dtrwidget/designassist/internal/errors"
	"github.com/dtrwidget/designassist/internal/metrics"
	"github.com/dtrwidget/designassist/internal/observability"
	"github.com/dtrwidget/designassist/internal/server"
	"github.com/dtrwidget/designassist/internal/server/handlers"
)

var (
	serverPort int
	serverHost string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the design API server with graceful shutdown support.

Signal Handling:
  • Ctrl+C (SIGINT) or SIGTERM: Graceful shutdown
  • Ctrl+C twice within 2s: Force quit
  • SIGHUP: Log level reload from config

In-flight generations are allowed to finish within the shutdown timeout.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		ExitWithCode(observability.CLILogger, foundry.ExitConfigInvalid, "Failed to load configuration", err)
	}

	if err := observability.InitServerLogger(cfg.LoggerOptions()); err != nil {
		ExitWithCode(observability.CLILogger, foundry.ExitConfigInvalid, "Failed to initialize server logger", err)
	}
	logger := observability.ServerLogger

	if cfg.Metrics.Enabled {
		if err := observability.InitMetrics(cfg.MetricsOptions()); err != nil {
			logger.Error("Failed to initialize metrics", zap.Error(err))
			return errwrap.WrapInternal(cmd.Context(), err, "metrics initialization failed")
		}
		metrics.SetServerStartTime(time.Now().Unix())
	}

	if cfg.Upstream.APIKey == "" {
		logger.Warn("ANTHROPIC_API_KEY is not set; generation requests will fail and readiness reports unhealthy")
	}

	p, err := buildPipeline(cfg, logger)
	if err != nil {
		return errwrap.WrapInternal(cmd.Context(), err, "pipeline initialization failed")
	}

	logger.Info("Initializing server",
		zap.String("service", config.AppName),
		zap.String("version", versionInfo.Version),
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.Bool("metrics_enabled", cfg.Metrics.Enabled),
		zap.Int("metrics_port", observability.MetricsPort()),
		zap.String("metrics_namespace", cfg.Metrics.Namespace),
		zap.String("model", cfg.Upstream.Model),
		zap.Strings("allowed_origins", cfg.CORS.AllowedOrigins))

	hm := handlers.NewHealthManager(versionInfo.Version)
	hm.RegisterChecker("upstream_credentials", handlers.CredentialsChecker(cfg.Upstream.APIKey))
	hm.RegisterChecker("telemetry", handlers.TelemetryChecker(cfg.Metrics.Enabled))

	srv := server.New(cfg.Server.Host, cfg.Server.Port, server.Options{
		Designer:     p.Orchestrator,
		Health:       hm,
		CORS:         cfg.CORSOptions(),
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		AdminToken:   cfg.Admin.Token,
		WriteTimeout: cfg.Server.WriteTimeout,
		MetricsPort:  cfg.Metrics.Port,
	})

	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	go runRateStoreSweeper(sweepCtx, p.Store, cfg.RateLimit.Window, cfg.RateLimit.SweepInterval)

	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout == 0 {
		shutdownTimeout = 10 * time.Second
	}

	// Register graceful shutdown handlers (LIFO order - last registered, first executed)
	// Handler 1: Flush logger (executed last)
	signals.OnShutdown(func(ctx context.Context) error {
		logger.Info("Flushing logger...")
		if err := logger.Sync(); err != nil {
			// Sync errors are often benign (stdout/stderr already closed)
			logger.Warn("Logger sync returned error (may be benign)", zap.Error(err))
		}
		return nil
	})

	// Handler 2: Stop the sweeper and the exporter
	signals.OnShutdown(func(ctx context.Context) error {
		stopSweeper()
		if err := observability.ShutdownMetrics(); err != nil {
			logger.Warn("Failed to stop metrics exporter", zap.Error(err))
		}
		return nil
	})

	// Handler 3: Shutdown HTTP server (executed first)
	signals.OnShutdown(func(ctx context.Context) error {
		shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return errwrap.WrapInternal(ctx, err, "server shutdown failed")
		}

		logger.Info("HTTP server stopped gracefully")
		return nil
	})

	signals.OnReload(func(ctx context.Context) error {
		logger.Info("Received SIGHUP: reloading log level")

		reloaded, err := loadConfig(cmd)
		if err != nil {
			logger.Error("Failed to reload configuration", zap.Error(err))
			return errwrap.WrapInvalidInput(ctx, err, "config reload failed")
		}
		if reloaded.Logging.Level != cfg.Logging.Level {
			if err := observability.InitServerLogger(reloaded.LoggerOptions()); err != nil {
				logger.Error("Failed to rebuild logger", zap.Error(err))
				return errwrap.WrapInternal(ctx, err, "logger reload failed")
			}
			logger = observability.ServerLogger
			logger.Info("Log level updated", zap.String("level", reloaded.Logging.Level))
		}
		return nil
	})

	// Enable double-tap force quit (Ctrl+C within 2 seconds)
	if err := signals.EnableDoubleTap(signals.DoubleTapConfig{
		Window:  2 * time.Second,
		Message: "Press Ctrl+C again within 2 seconds to force quit",
	}); err != nil {
		logger.Warn("Failed to enable double-tap force quit", zap.Error(err))
	}

	errChan := make(chan error, 2)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
			return
		}
		errChan <- nil
	}()

	go func() {
		if err := signals.Listen(cmd.Context()); err != nil {
			logger.Error("Signal handler error", zap.Error(err))
			errChan <- err
		}
	}()

	if err := <-errChan; err != nil {
		return errwrap.WrapInternal(cmd.Context(), err, "server error")
	}

	return nil
}

// runRateStoreSweeper drops rate windows idle for longer than window and
// publishes the number of tracked sites.
func runRateStoreSweeper(ctx context.Context, rateStore *store.MemoryRateStore, window, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			sweepRateStore(rateStore, now, window)
		}
	}
}

func sweepRateStore(rateStore *store.MemoryRateStore, now time.Time, window time.Duration) int {
	removed := rateStore.Sweep(now.Add(-window))
	metrics.SetRateStoreSites(rateStore.Len())
	if removed > 0 && observability.ServerLogger != nil {
		observability.ServerLogger.Debug("Swept idle rate windows",
			zap.Int("removed", removed),
			zap.Int("remaining", rateStore.Len()))
	}
	return removed
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverHost, "host", "0.0.0.0", "server host")
	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 8080, "server port")

	_ = viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
}
