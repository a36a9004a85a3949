package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/dtrwidget/designassist/internal/core"
	apperrors "github.com/dtrwidget/designassist/internal/errors"
	"github.com/dtrwidget/designassist/internal/observability"
)

// DefaultMaxBodyBytes bounds request bodies; prompts may embed base64 images.
const DefaultMaxBodyBytes int64 = 20 << 20

// Designer produces a stylesheet for a generation request.
type Designer interface {
	Generate(ctx context.Context, req core.GenerationRequest) (*core.GenerationResult, error)
}

// APIResponse is the success envelope of the design API.
type APIResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// DesignHandler serves POST /api/v1/design/generate.
type DesignHandler struct {
	designer     Designer
	maxBodyBytes int64
}

// NewDesignHandler wires a Designer into an HTTP handler.
func NewDesignHandler(designer Designer) *DesignHandler {
	return &DesignHandler{designer: designer, maxBodyBytes: DefaultMaxBodyBytes}
}

// WithMaxBodyBytes overrides the request body limit.
func (h *DesignHandler) WithMaxBodyBytes(limit int64) *DesignHandler {
	if limit > 0 {
		h.maxBodyBytes = limit
	}
	return h
}

type generateBody struct {
	SiteID      string `json:"siteId"`
	SiteIDSnake string `json:"site_id"`
	Prompt      string `json:"prompt"`
}

// Generate decodes the request body and returns the generated stylesheet.
func (h *DesignHandler) Generate(w http.ResponseWriter, r *http.Request) {
	req, err := h.decode(w, r)
	if err != nil {
		apperrors.RespondWithError(w, r, err)
		return
	}

	result, err := h.designer.Generate(r.Context(), req)
	if err != nil {
		apperrors.RespondWithError(w, r, err)
		return
	}

	if observability.ServerLogger != nil {
		observability.ServerLogger.Info("Design generated",
			zap.String("site_id", req.SiteID),
			zap.Int("css_bytes", len(result.CSS)))
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Code:    "0000",
		Message: "Success",
		Data:    result,
	})
}

func (h *DesignHandler) decode(w http.ResponseWriter, r *http.Request) (core.GenerationRequest, error) {
	if r.Body == nil {
		return core.GenerationRequest{}, fmt.Errorf("%w: request body is required", core.ErrInvalidRequest)
	}
	body := http.MaxBytesReader(w, r.Body, h.maxBodyBytes)

	var payload generateBody
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return core.GenerationRequest{}, fmt.Errorf("%w: request body exceeds %d bytes", core.ErrInvalidRequest, tooLarge.Limit)
		case errors.Is(err, io.EOF):
			return core.GenerationRequest{}, fmt.Errorf("%w: request body is required", core.ErrInvalidRequest)
		default:
			return core.GenerationRequest{}, fmt.Errorf("%w: malformed JSON body", core.ErrInvalidRequest)
		}
	}

	siteID := payload.SiteID
	if strings.TrimSpace(siteID) == "" {
		siteID = payload.SiteIDSnake
	}

	req := core.GenerationRequest{SiteID: siteID, Prompt: payload.Prompt}
	return req, req.Validate()
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
