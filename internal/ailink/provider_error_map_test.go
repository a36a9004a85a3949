package ailink

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/require"

	"github.com/dtrwidget/designassist/internal/ailink/driver"
)

func TestClassify(t *testing.T) {
	require.Equal(t, OutcomeSuccess, Classify(nil))
	require.Equal(t, OutcomeThrottled, Classify(&driver.ProviderError{Provider: "anthropic", StatusCode: 429}))
	require.Equal(t, OutcomeThrottled, Classify(fmt.Errorf("wrapped: %w", &driver.ProviderError{StatusCode: 429})))
	require.Equal(t, OutcomeFailed, Classify(&driver.ProviderError{Provider: "anthropic", StatusCode: 529}))
	require.Equal(t, OutcomeFailed, Classify(errors.New("connection reset")))
	require.Equal(t, OutcomeFailed, Classify(context.DeadlineExceeded))
}

func TestDescribeProviderError(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{&driver.ProviderError{StatusCode: 401, Message: "bad key"}, "provider authentication failed: bad key"},
		{&driver.ProviderError{StatusCode: 429, Message: "slow"}, "provider rate limited: slow"},
		{&driver.ProviderError{StatusCode: 503, Message: "overloaded"}, "provider unavailable: overloaded"},
		{&driver.ProviderError{StatusCode: 400, Message: "bad image"}, "provider rejected request: bad image"},
		{fmt.Errorf("request failed: %w", context.DeadlineExceeded), "provider request timed out"},
		{gobreaker.ErrOpenState, "circuit open"},
		{errors.New("dial tcp"), "dial tcp"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, describeProviderError(tc.err))
	}
	require.Empty(t, describeProviderError(nil))
	require.Equal(t, "throttled", OutcomeThrottled.String())
}
