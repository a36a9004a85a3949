package ailink

import (
	"context"
	"errors"
	"strings"

	"github.com/sony/gobreaker"

	"github.com/dtrwidget/designassist/internal/ailink/driver"
)

// Outcome classifies a single upstream attempt.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeThrottled
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeThrottled:
		return "throttled"
	default:
		return "failed"
	}
}

// Classify maps an attempt error onto an Outcome. Only a provider 429 is
// throttled; everything else, including transport errors, is a failure.
func Classify(err error) Outcome {
	if err == nil {
		return OutcomeSuccess
	}
	if driver.IsThrottled(err) {
		return OutcomeThrottled
	}
	return OutcomeFailed
}

// describeProviderError renders a short log-friendly reason for err.
func describeProviderError(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "provider request timed out"
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "circuit open"
	}

	var perr *driver.ProviderError
	if errors.As(err, &perr) && perr != nil {
		status := perr.StatusCode
		details := strings.TrimSpace(perr.Message)
		switch {
		case status == 401 || status == 403:
			return "provider authentication failed: " + details
		case status == 429:
			return "provider rate limited: " + details
		case status >= 500 && status <= 599:
			return "provider unavailable: " + details
		case status >= 400 && status <= 499:
			return "provider rejected request: " + details
		default:
			return "provider request failed: " + details
		}
	}

	return err.Error()
}
