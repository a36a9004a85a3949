package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/fulmenhq/gofulmen/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dtrwidget/designassist/internal/core"
	"github.com/dtrwidget/designassist/internal/metrics"
	"github.com/dtrwidget/designassist/internal/observability"
	"github.com/dtrwidget/designassist/internal/server/middleware"
)

// Envelope codes.
const (
	CodeInvalidInput       = "INVALID_INPUT"
	CodeNotFound           = "NOT_FOUND"
	CodeMethodNotAllowed   = "METHOD_NOT_ALLOWED"
	CodeRateLimited        = "RATE_LIMITED"
	CodeExternalService    = "EXTERNAL_SERVICE_ERROR"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	CodeInternal           = "INTERNAL_ERROR"
)

// API response codes written in the "code" field of error bodies.
const (
	APICodeSuccess            = "0000"
	APICodeInvalidInput       = "4000"
	APICodeNotFound           = "4004"
	APICodeMethodNotAllowed   = "4005"
	APICodeRateLimited        = "4029"
	APICodeInternal           = "5000"
	APICodeExternalService    = "5002"
	APICodeServiceUnavailable = "5003"
)

// InternalErrorMessage is the only message clients see for unclassified failures.
const InternalErrorMessage = "internal server error"

// Error creation helpers for common error types

func NewInvalidInputError(message string) *errors.ErrorEnvelope {
	env, _ := errors.NewErrorEnvelope(CodeInvalidInput, message).WithSeverity(errors.SeverityMedium)
	return env
}

func NewNotFoundError(message string) *errors.ErrorEnvelope {
	env, _ := errors.NewErrorEnvelope(CodeNotFound, message).WithSeverity(errors.SeverityMedium)
	return env
}

func NewMethodNotAllowedError(message string) *errors.ErrorEnvelope {
	env, _ := errors.NewErrorEnvelope(CodeMethodNotAllowed, message).WithSeverity(errors.SeverityMedium)
	return env
}

func NewServiceUnavailableError(message string) *errors.ErrorEnvelope {
	env, _ := errors.NewErrorEnvelope(CodeServiceUnavailable, message).WithSeverity(errors.SeverityHigh)
	return env
}

// Wrap functions for existing errors.
// These accept a context to pull the request ID used as correlation ID.

func WrapInvalidInput(ctx context.Context, err error, message string) *errors.ErrorEnvelope {
	envelope, _ := wrap(ctx, CodeInvalidInput, err, message).WithSeverity(errors.SeverityMedium)
	return envelope
}

func WrapRateLimited(ctx context.Context, err error, message string) *errors.ErrorEnvelope {
	envelope, _ := wrap(ctx, CodeRateLimited, err, message).WithSeverity(errors.SeverityMedium)
	return envelope
}

func WrapExternalService(ctx context.Context, err error, message string) *errors.ErrorEnvelope {
	envelope, _ := wrap(ctx, CodeExternalService, err, message).WithSeverity(errors.SeverityHigh)
	return envelope
}

func WrapInternal(ctx context.Context, err error, message string) *errors.ErrorEnvelope {
	envelope, _ := wrap(ctx, CodeInternal, err, message).WithSeverity(errors.SeverityHigh)
	return envelope
}

func wrap(ctx context.Context, code string, err error, message string) *errors.ErrorEnvelope {
	envelope := errors.NewErrorEnvelope(code, message)
	envelope = envelope.WithCorrelationID(extractCorrelationID(ctx))
	envelope = envelope.WithTraceID(extractTraceID(ctx))
	return withWrappedError(envelope, err)
}

// Helper functions for ID generation

// extractCorrelationID gets correlation ID from context, falls back to generating new UUID
func extractCorrelationID(ctx context.Context) string {
	if ctx != nil {
		if requestID := middleware.GetRequestID(ctx); requestID != "" {
			return requestID
		}
	}
	return uuid.New().String()
}

// extractTraceID uses the correlation ID; no distributed tracer is wired.
func extractTraceID(ctx context.Context) string {
	return extractCorrelationID(ctx)
}

// EnsureEnvelope classifies err into a gofulmen ErrorEnvelope.
//
// Domain errors keep their kind: rate limiting, upstream failures and invalid
// requests map to their own codes. Anything else becomes INTERNAL_ERROR with a
// generic message, the original text kept only in the envelope context.
func EnsureEnvelope(ctx context.Context, err error) *errors.ErrorEnvelope {
	if err == nil {
		env := errors.NewErrorEnvelope(CodeInternal, "unexpected nil error")
		env, _ = env.WithSeverity(errors.SeverityCritical)
		return env
	}

	var envelope *errors.ErrorEnvelope
	if stderrors.As(err, &envelope) && envelope != nil {
		return envelope
	}

	var rateErr *core.RateLimitExceededError
	if stderrors.As(err, &rateErr) {
		return WrapRateLimited(ctx, err, rateErr.Error())
	}

	var upstreamErr *core.UpstreamAPIError
	if stderrors.As(err, &upstreamErr) {
		message := upstreamErr.Message
		if message == "" {
			message = core.UpstreamCallFailed
		}
		return WrapExternalService(ctx, err, message)
	}

	if stderrors.Is(err, core.ErrInvalidRequest) {
		return WrapInvalidInput(ctx, err, err.Error())
	}

	return WrapInternal(ctx, err, InternalErrorMessage)
}

// EnsureCorrelationID attaches a correlation ID to the envelope using the context when available.
func EnsureCorrelationID(envelope *errors.ErrorEnvelope, ctx context.Context) *errors.ErrorEnvelope {
	if envelope == nil {
		return nil
	}

	if envelope.CorrelationID != "" {
		return envelope
	}

	var correlationID string
	if ctx != nil {
		correlationID = middleware.GetRequestID(ctx)
	}

	if correlationID == "" {
		correlationID = "fallback-" + errors.GenerateCorrelationID()
	}

	return envelope.WithCorrelationID(correlationID)
}

// HTTPStatusFromEnvelope resolves the HTTP status code corresponding to an error envelope.
func HTTPStatusFromEnvelope(envelope *errors.ErrorEnvelope) int {
	if envelope == nil {
		return http.StatusInternalServerError
	}
	return HTTPStatusFromCode(envelope.Code)
}

// HTTPStatusFromCode resolves the HTTP status code corresponding to an error code.
func HTTPStatusFromCode(code string) int {
	switch code {
	case CodeInvalidInput:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeExternalService:
		return http.StatusBadGateway
	case CodeServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// APICodeFromCode resolves the wire code written for an envelope code.
func APICodeFromCode(code string) string {
	switch code {
	case CodeInvalidInput:
		return APICodeInvalidInput
	case CodeNotFound:
		return APICodeNotFound
	case CodeMethodNotAllowed:
		return APICodeMethodNotAllowed
	case CodeRateLimited:
		return APICodeRateLimited
	case CodeExternalService:
		return APICodeExternalService
	case CodeServiceUnavailable:
		return APICodeServiceUnavailable
	default:
		return APICodeInternal
	}
}

func withWrappedError(envelope *errors.ErrorEnvelope, err error) *errors.ErrorEnvelope {
	if envelope == nil || err == nil {
		return envelope
	}

	updated, updateErr := envelope.WithContext(map[string]interface{}{
		"wrapped_error": err.Error(),
	})
	if updateErr != nil {
		return envelope
	}
	return updated
}

// HTTPErrorResponse is the error body returned to callers. Envelope context
// never reaches the wire.
type HTTPErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RespondWithError classifies the supplied error and writes a JSON response.
func RespondWithError(w http.ResponseWriter, r *http.Request, err error) {
	var ctx context.Context
	if r != nil {
		ctx = r.Context()
	}
	RespondWithEnvelope(w, r, EnsureEnvelope(ctx, err))
}

// RespondWithEnvelope finalizes the provided envelope, logging and emitting metrics.
func RespondWithEnvelope(w http.ResponseWriter, r *http.Request, envelope *errors.ErrorEnvelope) {
	if w == nil {
		return
	}

	if r != nil {
		envelope = EnsureCorrelationID(envelope, r.Context())
	} else {
		envelope = EnsureCorrelationID(envelope, nil)
	}

	statusCode := HTTPStatusFromEnvelope(envelope)

	response := HTTPErrorResponse{
		Code:    APICodeFromCode(envelope.Code),
		Message: envelope.Message,
	}

	logHTTPError(envelope, statusCode)
	emitErrorMetrics(r, envelope, statusCode)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(response)
}

func logHTTPError(envelope *errors.ErrorEnvelope, statusCode int) {
	if observability.ServerLogger == nil || envelope == nil {
		return
	}

	fields := []zap.Field{
		zap.String("error_code", envelope.Code),
		zap.Int("http_status", statusCode),
	}

	if envelope.Severity != "" {
		fields = append(fields, zap.String("severity", string(envelope.Severity)))
	}

	for key, value := range envelope.Context {
		fields = append(fields, zap.Any(key, value))
	}

	if envelope.CorrelationID != "" {
		fields = append(fields, zap.String("request_id", envelope.CorrelationID))
	}

	switch envelope.Severity {
	case errors.SeverityCritical, errors.SeverityHigh:
		observability.ServerLogger.Error(envelope.Message, fields...)
	case errors.SeverityMedium:
		observability.ServerLogger.Warn(envelope.Message, fields...)
	default:
		observability.ServerLogger.Info(envelope.Message, fields...)
	}
}

func emitErrorMetrics(r *http.Request, envelope *errors.ErrorEnvelope, statusCode int) {
	if envelope == nil {
		return
	}

	metrics.RecordError(envelope.Code, statusCode)
	if r != nil {
		metrics.RecordErrorByEndpoint(middleware.EndpointPattern(r), envelope.Code)
	}
}
