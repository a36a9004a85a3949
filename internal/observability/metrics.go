package observability

import (
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/fulmenhq/gofulmen/telemetry"
	"github.com/fulmenhq/gofulmen/telemetry/exporters"
)

// DefaultMetricsPort is the exporter port used when none is configured.
const DefaultMetricsPort = 9090

// MetricsOptions configures the Prometheus exporter.
type MetricsOptions struct {
	// Namespace prefixes every exported metric name.
	Namespace string
	// Port is the exporter listen port; 0 picks a free port.
	Port int
}

var (
	// TelemetrySystem receives every metric the service emits. Nil disables
	// emission.
	TelemetrySystem *telemetry.System

	// PrometheusExporter serves the collected metrics on its own port.
	PrometheusExporter *exporters.PrometheusExporter

	metricsPort int
)

// InitMetrics starts the Prometheus exporter and installs the telemetry
// system that feeds it.
func InitMetrics(opts MetricsOptions) error {
	if opts.Namespace == "" {
		return errors.New("metrics namespace is required")
	}
	port := opts.Port
	if port < 0 {
		port = 0
	}

	exporter := exporters.NewPrometheusExporter(opts.Namespace, fmt.Sprintf(":%d", port))
	if err := exporter.Start(); err != nil {
		return fmt.Errorf("start prometheus exporter on :%d: %w", port, err)
	}

	sys, err := telemetry.NewSystem(&telemetry.Config{
		Enabled: true,
		Emitter: exporter,
	})
	if err != nil {
		_ = exporter.Stop()
		return fmt.Errorf("create telemetry system: %w", err)
	}

	// A :0 listen only learns its port after binding.
	if bound, err := resolvePort(exporter.GetAddr()); err == nil {
		port = bound
	}

	PrometheusExporter = exporter
	TelemetrySystem = sys
	metricsPort = port
	return nil
}

// ShutdownMetrics stops the exporter and disables emission. Safe to call when
// metrics were never started.
func ShutdownMetrics() error {
	exporter := PrometheusExporter
	PrometheusExporter = nil
	TelemetrySystem = nil
	metricsPort = 0

	if exporter == nil {
		return nil
	}
	return exporter.Stop()
}

// MetricsPort reports the port the exporter is bound to, or zero when it is
// not running or the port could not be determined.
func MetricsPort() int {
	return metricsPort
}

func resolvePort(addr string) (int, error) {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(portStr)
}
