package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/utafrali/VideoTubeGo/pkg/errors"
	"github.com/utafrali/VideoTubeGo/pkg/logger"
	"github.com/utafrali/VideoTubeGo/pkg/validator"
)

// Response is the success envelope returned by every endpoint.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

// ErrorResponse is the failure envelope. Data is always null and Errors is
// always a list, possibly empty.
type ErrorResponse struct {
	StatusCode int      `json:"statusCode"`
	Data       any      `json:"data"`
	Message    string   `json:"message"`
	Errors     []string `json:"errors"`
	Success    bool     `json:"success"`
	RequestID  string   `json:"requestId,omitempty"`
}

// WriteJSON writes v as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; nothing meaningful can be done if encoding fails.
	_ = json.NewEncoder(w).Encode(v)
}

// WriteSuccess writes data wrapped in the success envelope.
func WriteSuccess(w http.ResponseWriter, status int, data any, message string) {
	WriteJSON(w, status, Response{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    status < http.StatusBadRequest,
	})
}

// WriteErrorMessage writes a failure envelope with an explicit status and message.
func WriteErrorMessage(w http.ResponseWriter, r *http.Request, status int, message string, details ...string) {
	if details == nil {
		details = []string{}
	}
	WriteJSON(w, status, ErrorResponse{
		StatusCode: status,
		Message:    message,
		Errors:     details,
		RequestID:  logger.CorrelationIDFromContext(r.Context()),
	})
}

// WriteError converts err into the failure envelope. AppErrors keep their
// status, message and details; bare sentinels map through
// apperrors.HTTPStatus. Server errors are logged with the request-scoped
// logger when the RequestLogger middleware is mounted, else with fallback.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	status := apperrors.HTTPStatus(err)
	message := defaultMessage(status)
	var details []string

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		message = appErr.Message
		details = appErr.Details
	} else if status == http.StatusBadRequest {
		message = err.Error()
	}

	if status >= http.StatusInternalServerError {
		l := logger.FromContext(r.Context())
		if l == slog.Default() && fallback != nil {
			l = fallback
		}
		l.ErrorContext(r.Context(), "request failed",
			slog.String("error", err.Error()),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
	}

	WriteErrorMessage(w, r, status, message, details...)
}

// WriteValidationError writes a 400 with one errors entry per invalid field.
// Errors that are not validation failures (a malformed body, say) are
// reported as a single entry.
func WriteValidationError(w http.ResponseWriter, r *http.Request, err error) {
	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		WriteErrorMessage(w, r, http.StatusBadRequest, "request validation failed", valErr.Messages()...)
		return
	}
	WriteErrorMessage(w, r, http.StatusBadRequest, "invalid request body", err.Error())
}

func defaultMessage(status int) string {
	switch status {
	case http.StatusNotFound:
		return "resource not found"
	case http.StatusConflict:
		return "resource already exists"
	case http.StatusUnauthorized:
		return "unauthorized request"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusTooManyRequests:
		return "too many requests"
	case http.StatusServiceUnavailable:
		return "service unavailable"
	default:
		return "an internal error occurred"
	}
}
