package metrics

import (
	"time"

	"github.com/dtrwidget/designassist/internal/observability"
)

// Design pipeline metrics following Prometheus conventions
var (
	// Admission control
	AdmissionsTotal = "design_admissions_total"

	// Upstream calls
	UpstreamAttemptsTotal  = "upstream_attempts_total"
	UpstreamCallsTotal     = "upstream_calls_total"
	UpstreamCallDuration   = "upstream_call_duration_ms"
	UpstreamInflight       = "upstream_inflight"
	UpstreamBreakerChanges = "upstream_breaker_transitions_total"

	// Rate store housekeeping
	RateStoreSites = "rate_store_sites"

	// Server lifecycle metrics
	ServerStartTime = "app_server_start_time_seconds"
)

// RecordAdmission records the admission decision for a site request.
func RecordAdmission(admitted bool) {
	result := "admitted"
	if !admitted {
		result = "rejected"
	}

	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			AdmissionsTotal,
			1,
			map[string]string{"result": result},
		)
	}
}

// RecordUpstreamAttempt records a single attempt against the upstream API.
// outcome is one of success, throttled, failed.
func RecordUpstreamAttempt(outcome string) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			UpstreamAttemptsTotal,
			1,
			map[string]string{"outcome": outcome},
		)
	}
}

// RecordUpstreamCall records a finished upstream call including its retries.
func RecordUpstreamCall(success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}

	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			UpstreamCallsTotal,
			1,
			map[string]string{"status": status},
		)

		_ = observability.TelemetrySystem.Histogram(
			UpstreamCallDuration,
			duration,
			map[string]string{"status": status},
		)
	}
}

// SetUpstreamInflight sets the number of upstream calls holding a concurrency slot.
func SetUpstreamInflight(count int64) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Gauge(
			UpstreamInflight,
			float64(count),
			nil,
		)
	}
}

// RecordBreakerTransition records a circuit breaker state change.
func RecordBreakerTransition(from, to string) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			UpstreamBreakerChanges,
			1,
			map[string]string{
				"from": from,
				"to":   to,
			},
		)
	}
}

// SetRateStoreSites records how many sites the rate store currently tracks.
func SetRateStoreSites(count int) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Gauge(
			RateStoreSites,
			float64(count),
			nil,
		)
	}
}

// SetServerStartTime records the server start time (Unix timestamp)
func SetServerStartTime(timestamp int64) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Gauge(
			ServerStartTime,
			float64(timestamp),
			nil,
		)
	}
}
