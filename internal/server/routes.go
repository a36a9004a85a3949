package server

import (
	"github.com/fulmenhq/gofulmen/signals"
	"go.uber.org/zap"

	"github.com/dtrwidget/designassist/internal/observability"
	"github.com/dtrwidget/designassist/internal/server/handlers"
)

// DesignGeneratePath is the generation endpoint.
const DesignGeneratePath = "/api/v1/design/generate"

// registerRoutes registers all HTTP routes
func (s *Server) registerRoutes() {
	s.router.Get("/", handlers.StatusHandler)
	s.router.Get("/health", handlers.StatusHandler)
	s.router.Get("/health/live", s.opts.Health.LivenessHandler)
	s.router.Get("/health/ready", s.opts.Health.ReadinessHandler)
	s.router.Get("/health/checks", s.opts.Health.HealthHandler)

	s.router.Get("/version", handlers.VersionHandler)

	s.router.Get("/metrics", MetricsHandler(s.opts.MetricsPort))

	if s.opts.Designer != nil {
		design := handlers.NewDesignHandler(s.opts.Designer).WithMaxBodyBytes(s.opts.MaxBodyBytes)
		s.router.Post(DesignGeneratePath, design.Generate)
	}

	s.registerAdminEndpoint()
}

// registerAdminEndpoint optionally registers the admin signal endpoint
func (s *Server) registerAdminEndpoint() {
	logger := observability.ServerLogger

	if s.opts.AdminToken == "" {
		if logger != nil {
			logger.Debug("Admin signal endpoint disabled (no admin token configured)")
		}
		return
	}

	handler := signals.NewHTTPHandler(signals.HTTPConfig{
		TokenAuth: s.opts.AdminToken,
		RateLimit: 10,  // 10 requests per minute
		RateBurst: 5,   // burst size
		Manager:   nil, // use default global manager
	})

	s.router.Post("/admin/signal", handler.ServeHTTP)

	if logger != nil {
		logger.Info("Admin signal endpoint enabled",
			zap.String("path", "/admin/signal"),
			zap.String("auth", "bearer token"),
			zap.String("rate_limit", "10/min, burst 5"))
		logger.Warn("Admin endpoint enabled - ensure this server is not exposed to public internet")
	}
}
