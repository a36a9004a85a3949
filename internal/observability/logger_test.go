package observability

import (
	"testing"

	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParseLogLevel(t *testing.T) {
	tests := map[string]string{
		"trace":   "TRACE",
		"DEBUG":   "DEBUG",
		" info ":  "INFO",
		"warning": "WARN",
		"warn":    "WARN",
		"error":   "ERROR",
		"":        "INFO",
		"verbose": "INFO",
	}
	for input, want := range tests {
		assert.Equal(t, want, parseLogLevel(input), "input %q", input)
	}
}

func TestLoggerFallsBackToCLILogger(t *testing.T) {
	originalCLI, originalServer := CLILogger, ServerLogger
	t.Cleanup(func() {
		CLILogger, ServerLogger = originalCLI, originalServer
	})

	CLILogger, ServerLogger = nil, nil
	assert.Nil(t, Logger())

	require.NoError(t, InitCLILogger("designassist-test", true))
	require.NotNil(t, CLILogger)
	assert.Same(t, CLILogger, Logger())

	require.NoError(t, InitServerLogger(ServerLoggerOptions{
		Service:     "designassist-test",
		Level:       "debug",
		Environment: "test",
		Namespace:   "designassist",
	}))
	require.NotNil(t, ServerLogger)
	assert.Same(t, ServerLogger, Logger())

	Logger().Info("server logger ready", zap.String("component", "test"))
}

func TestResolvePort(t *testing.T) {
	port, err := resolvePort("[::]:9464")
	require.NoError(t, err)
	assert.Equal(t, 9464, port)

	_, err = resolvePort("no-port")
	assert.Error(t, err)
}

func TestShutdownMetricsWithoutExporter(t *testing.T) {
	originalExporter, originalSystem := PrometheusExporter, TelemetrySystem
	t.Cleanup(func() {
		PrometheusExporter, TelemetrySystem = originalExporter, originalSystem
	})

	PrometheusExporter, TelemetrySystem = nil, nil
	require.NoError(t, ShutdownMetrics())
	assert.Zero(t, MetricsPort())
}

func TestInitMetricsRequiresNamespace(t *testing.T) {
	require.Error(t, InitMetrics(MetricsOptions{Port: 0}))
	assert.Nil(t, PrometheusExporter)
}

func TestCrucibleVersionAvailable(t *testing.T) {
	version := crucible.GetVersion()
	assert.NotEmpty(t, version.Gofulmen)
	assert.NotEmpty(t, version.Crucible)
}
