package core

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateWindowPrune(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	w := &RateWindow{Stamps: []time.Time{
		base,
		base.Add(30 * time.Minute),
		base.Add(59 * time.Minute),
	}}

	w.Prune(base.Add(time.Hour), time.Hour)

	// A stamp exactly one window old is outside the window.
	require.Equal(t, 2, w.Count())
	assert.Equal(t, base.Add(30*time.Minute), w.Oldest())
	assert.Equal(t, base.Add(59*time.Minute), w.Newest())
}

func TestRateWindowPruneEmptyAndNil(t *testing.T) {
	var nilWindow *RateWindow
	nilWindow.Prune(time.Now(), time.Hour)
	assert.Equal(t, 0, nilWindow.Count())
	assert.True(t, nilWindow.Newest().IsZero())

	w := &RateWindow{}
	w.Prune(time.Now(), time.Hour)
	assert.Equal(t, 0, w.Count())
	assert.True(t, w.Oldest().IsZero())
}

func TestGenerationRequestValidate(t *testing.T) {
	require.NoError(t, GenerationRequest{SiteID: "s", Prompt: "p"}.Validate())

	err := GenerationRequest{Prompt: "p"}.Validate()
	require.ErrorIs(t, err, ErrInvalidRequest)
	assert.Contains(t, err.Error(), "siteId")

	err = GenerationRequest{SiteID: "s", Prompt: "  "}.Validate()
	require.ErrorIs(t, err, ErrInvalidRequest)
	assert.Contains(t, err.Error(), "prompt")
}

func TestRateLimitExceededError(t *testing.T) {
	err := fmt.Errorf("admission: %w", &RateLimitExceededError{SiteID: "site-7", Limit: 10})

	require.ErrorIs(t, err, ErrRateLimitExceeded)
	var rle *RateLimitExceededError
	require.True(t, errors.As(err, &rle))
	assert.Equal(t, "site-7", rle.SiteID)
	assert.Contains(t, err.Error(), "site-7")
	assert.Contains(t, err.Error(), "10")
}

func TestUpstreamAPIError(t *testing.T) {
	cause := errors.New("status 529")
	err := NewUpstreamAPIError(UpstreamCallFailed, cause)

	require.ErrorIs(t, err, ErrUpstreamAPI)
	require.ErrorIs(t, err, cause)
	assert.Equal(t, UpstreamCallFailed+": status 529", err.Error())

	bare := NewUpstreamAPIError(UpstreamUnavailable, nil)
	assert.Equal(t, UpstreamUnavailable, bare.Error())
	assert.Empty(t, bare.Detail)
}
