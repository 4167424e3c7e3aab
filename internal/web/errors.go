package web

// errors.go provides unified error response handling for the web layer.
//
// The error flow:
//  1. Handler encounters an error
//  2. Calls respondError(w, r, err), which picks the status from the error
//  3. Error is mapped via core.MapError to get user-friendly message
//  4. Technical error + context is logged with request ID for correlation
//  5. User message is returned as JSON

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/JonMunkholm/hoover/internal/codec"
	"github.com/JonMunkholm/hoover/internal/core"
	"github.com/JonMunkholm/hoover/internal/logging"
	"github.com/JonMunkholm/hoover/internal/service"
	"github.com/JonMunkholm/hoover/internal/session"
	"github.com/JonMunkholm/hoover/internal/store"
)

var errRateLimited = errors.New("rate limit exceeded")

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError writes err with the status statusFor derives from it.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, r, err, statusFor(err))
}

// writeError logs the technical error server-side and returns the mapped
// user message.
func writeError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userMsg := core.MapError(err)

	logger := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
	}
	if statusCode >= http.StatusInternalServerError {
		logger.Error("request error", attrs...)
	} else {
		logger.Warn("request error", attrs...)
	}

	writeJSON(w, statusCode, ErrorResponse{
		Error:   userMsg.Message,
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
	})
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	var (
		ve *core.ValidationError
		pe *core.ParseError
		ee *core.ExportError
		mb *http.MaxBytesError
	)
	switch {
	case errors.Is(err, core.ErrFileTooLarge), errors.As(err, &mb):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrNothingToUndo),
		errors.Is(err, session.ErrNothingToRedo),
		errors.Is(err, core.ErrNoData):
		return http.StatusConflict
	case errors.Is(err, service.ErrTooManyJobs):
		return http.StatusServiceUnavailable
	case errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	case errors.Is(err, core.ErrUnknownPreset),
		errors.Is(err, store.ErrInvalidSettings),
		errors.Is(err, codec.ErrUnsupportedFormat),
		errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.As(err, &pe):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrNoSink):
		return http.StatusServiceUnavailable
	case errors.As(err, &ee):
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}

// clientIP is the request's remote host without its port.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
