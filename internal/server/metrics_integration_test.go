package server

import (
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtrwidget/designassist/internal/observability"
)

// cleanupMetrics tears down global telemetry state so each test starts clean.
func cleanupMetrics(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		_ = observability.ShutdownMetrics()
	})
}

// isPermissionError normalizes OS-specific permission errors so sandboxes
// that block loopback sockets skip instead of fail.
func isPermissionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, os.ErrPermission) || errors.Is(err, syscall.EACCES) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, fragment := range []string{"permission denied", "operation not permitted", "not permitted"} {
		if strings.Contains(msg, fragment) {
			return true
		}
	}
	return false
}

func initMetricsOrSkip(t *testing.T) {
	t.Helper()
	if err := observability.InitMetrics(observability.MetricsOptions{Namespace: "test"}); err != nil {
		if isPermissionError(err) {
			t.Skipf("skipping metrics tests due to sandbox permissions: %v", err)
		}
		require.NoError(t, err)
	}
	cleanupMetrics(t)
}

func initLoggers(t *testing.T) {
	t.Helper()
	require.NoError(t, observability.InitCLILogger("test", false))
	require.NoError(t, observability.InitServerLogger(observability.ServerLoggerOptions{
		Service:   "test",
		Level:     "info",
		Namespace: "test",
	}))
}

// listen serves srv on IPv4 loopback.
func listen(t *testing.T, srv *Server) (*httptest.Server, *http.Client) {
	t.Helper()
	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		if isPermissionError(err) {
			t.Skipf("skipping server setup: %v", err)
		}
		require.NoError(t, err)
	}

	ts := &httptest.Server{
		Listener: listener,
		Config:   &http.Server{Handler: srv.Handler()},
	}
	ts.Start()
	t.Cleanup(ts.Close)
	return ts, ts.Client()
}

func scrape(t *testing.T, client *http.Client, url string) (*http.Response, string) {
	t.Helper()
	resp, err := client.Get(url + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, err)
	return resp, string(body)
}

func TestMetricsEndpoint_UnderGenerationLoad(t *testing.T) {
	initLoggers(t)
	initMetricsOrSkip(t)

	upstream := &upstreamStub{body: ".dtr-widget{color:red;}"}
	ts, client := listen(t, newTestServer(t, upstream, 3))

	const numRequests = 24
	const numWorkers = 6

	sites := make(chan string, numRequests)
	for i := 0; i < numRequests; i++ {
		sites <- []string{"shop-a", "shop-b", "shop-c", "shop-d"}[i%4]
	}
	close(sites)

	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go func() {
			defer wg.Done()
			for site := range sites {
				resp, err := client.Post(ts.URL+DesignGeneratePath, "application/json",
					strings.NewReader(`{"siteId":"`+site+`","prompt":"red text"}`))
				if err == nil {
					_ = resp.Body.Close()
				}
			}
		}()
	}
	wg.Wait()
	elapsed := time.Since(start)

	// Four sites with a budget of three each.
	assert.Equal(t, int64(12), upstream.calls.Load())

	resp, metrics := scrape(t, client, ts.URL)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, metrics, "test_http_requests_total")
	assert.Contains(t, metrics, "test_http_request_duration_ms")
	assert.Contains(t, metrics, "test_design_admissions_total")
	assert.Contains(t, metrics, "test_upstream_calls_total")
	assert.Less(t, elapsed, 5*time.Second)
}

func TestMetricsEndpoint_PrometheusFormat(t *testing.T) {
	initLoggers(t)
	initMetricsOrSkip(t)

	ts, client := listen(t, newTestServer(t, &upstreamStub{}, 10))

	resp, err := client.Get(ts.URL + "/health")
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	resp, body := scrape(t, client, ts.URL)
	contentType := resp.Header.Get("Content-Type")
	assert.True(t, strings.HasPrefix(contentType, "text/plain; version=0.0.4"),
		"expected Prometheus content type, got: %s", contentType)

	metricLines := 0
	for _, line := range strings.Split(strings.TrimSpace(body), "\n") {
		if !strings.HasPrefix(line, "#") && strings.TrimSpace(line) != "" {
			metricLines++
		}
	}
	assert.Greater(t, metricLines, 0)
}
