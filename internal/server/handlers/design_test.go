package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtrwidget/designassist/internal/core"
)

type stubDesigner struct {
	got    core.GenerationRequest
	calls  int
	result *core.GenerationResult
	err    error
}

func (s *stubDesigner) Generate(ctx context.Context, req core.GenerationRequest) (*core.GenerationResult, error) {
	s.calls++
	s.got = req
	return s.result, s.err
}

func postGenerate(h *DesignHandler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/design/generate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.Generate(rec, req)
	return rec
}

func TestDesignHandlerReturnsSuccessEnvelope(t *testing.T) {
	designer := &stubDesigner{result: &core.GenerationResult{CSS: ".dtr-widget-title{font-weight:700;}"}}
	rec := postGenerate(NewDesignHandler(designer), `{"siteId":"shop-1","prompt":"bold titles"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "shop-1", designer.got.SiteID)
	assert.Equal(t, "bold titles", designer.got.Prompt)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "0000", body["code"])
	assert.Equal(t, "Success", body["message"])

	data, ok := body["data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, ".dtr-widget-title{font-weight:700;}", data["css"])
	assert.Contains(t, data, "explanation")
	assert.Nil(t, data["explanation"])
}

func TestDesignHandlerAcceptsSnakeCaseSiteID(t *testing.T) {
	designer := &stubDesigner{result: &core.GenerationResult{CSS: ".a{}"}}
	rec := postGenerate(NewDesignHandler(designer), `{"site_id":"shop-2","prompt":"x"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "shop-2", designer.got.SiteID)
}

func TestDesignHandlerRejectsInvalidBodies(t *testing.T) {
	cases := map[string]string{
		"malformed":    `{"siteId":`,
		"empty":        ``,
		"missing site": `{"prompt":"x"}`,
		"blank prompt": `{"siteId":"shop-1","prompt":"   "}`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			designer := &stubDesigner{}
			rec := postGenerate(NewDesignHandler(designer), body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Zero(t, designer.calls)

			var resp struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, "4000", resp.Code)
		})
	}
}

func TestDesignHandlerEnforcesBodyLimit(t *testing.T) {
	designer := &stubDesigner{}
	h := NewDesignHandler(designer).WithMaxBodyBytes(32)

	rec := postGenerate(h, `{"siteId":"shop-1","prompt":"`+strings.Repeat("a", 64)+`"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "exceeds 32 bytes")
	assert.Zero(t, designer.calls)
}

func TestDesignHandlerMapsDomainErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"rate limited", &core.RateLimitExceededError{SiteID: "shop-1", Limit: 10}, http.StatusTooManyRequests, "4029"},
		{"upstream", &core.UpstreamAPIError{Message: core.UpstreamCallFailed, Detail: "status 500"}, http.StatusBadGateway, "5002"},
		{"unknown", assert.AnError, http.StatusInternalServerError, "5000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postGenerate(NewDesignHandler(&stubDesigner{err: tt.err}), `{"siteId":"shop-1","prompt":"x"}`)

			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), `"code":"`+tt.code+`"`)
			assert.NotContains(t, rec.Body.String(), "status 500")
		})
	}
}
