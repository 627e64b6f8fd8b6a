package web

// errors.go provides unified error response handling for the web layer.
//
// Every error is logged with its technical detail and request ID, then
// mapped through core.MapError to a user-facing message and code. The HTTP
// status is derived from the error itself, so handlers only call respondError.

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/reviewsense/internal/core"
	"github.com/JonMunkholm/reviewsense/internal/export"
	"github.com/JonMunkholm/reviewsense/internal/web/templates"
)

// errInvalidBody marks malformed or schema-invalid request bodies (VAL002).
var errInvalidBody = errors.New("invalid request body")

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// statusFor maps pipeline errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrOversizeDocument):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrUnsupportedFormat),
		errors.Is(err, core.ErrParse),
		errors.Is(err, core.ErrEmptyExtraction),
		errors.Is(err, core.ErrNoDocument),
		errors.Is(err, core.ErrInvalidBatch),
		errors.Is(err, export.ErrUnknownFormat),
		errors.Is(err, errInvalidBody):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrAnalysisNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrTooManyAnalyses),
		errors.Is(err, core.ErrModelNotReady):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and writes a user-friendly response: an HTML alert
// for browser page requests, JSON for everything else.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	userMsg := core.MapError(err)
	statusCode := statusFor(err)

	level := slog.LevelWarn
	if statusCode >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	slog.Log(r.Context(), level, "request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
		"request_id", middleware.GetReqID(r.Context()),
	)

	if statusCode == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "5")
	}

	if wantsHTML(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(statusCode)
		templates.ErrorAlert(userMsg.Message, userMsg.Action, userMsg.Code).Render(r.Context(), w)
		return
	}

	writeJSON(w, statusCode, ErrorResponse{
		Error:   userMsg.Message,
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
	})
}

// wantsHTML reports whether the client is a browser asking for a page.
// API routes always answer in JSON.
func wantsHTML(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return false
	}
	return r.Header.Get("HX-Request") == "true" || strings.Contains(r.Header.Get("Accept"), "text/html")
}
