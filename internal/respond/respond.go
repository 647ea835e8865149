// Package respond owns the wire envelope. Every handler and middleware
// writes responses through it; in particular Error is the only place a
// failure is translated into an HTTP status and JSON body.
package respond

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/yourorg/personnelapi/internal/apperror"
)

// Envelope is the uniform response shape {error, message, details, data}.
type Envelope struct {
	Error   bool    `json:"error"`
	Message string  `json:"message,omitempty"`
	Details *Paging `json:"details,omitempty"`
	Data    any     `json:"data,omitempty"`
}

// Paging describes one page of a list response.
type Paging struct {
	Total int `json:"total"`
	Pages int `json:"pages"`
	Page  int `json:"page"`
	Size  int `json:"size"`
}

// JSON writes a success envelope.
func JSON(w http.ResponseWriter, status int, message string, data any) {
	write(w, status, Envelope{Error: false, Message: message, Data: data})
}

// List writes a success envelope with paging details.
func List(w http.ResponseWriter, data any, paging Paging) {
	write(w, http.StatusOK, Envelope{Error: false, Details: &paging, Data: data})
}

// NoContent writes an empty success.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Error maps a classified failure onto its HTTP status and envelope. The
// client only ever sees the classified message; unclassified causes are
// logged and surfaced as a generic 500.
func Error(w http.ResponseWriter, logger *slog.Logger, err error) {
	kind := apperror.KindOf(err)
	status := statusFor(kind)

	if kind == apperror.Internal && logger != nil {
		logger.Error("request failed", slog.String("error", err.Error()))
	}

	write(w, status, Envelope{Error: true, Message: apperror.MessageOf(err)})
}

// NotFoundRoute writes the fallback 404 envelope for unmatched routes.
func NotFoundRoute(w http.ResponseWriter) {
	write(w, http.StatusNotFound, Envelope{Error: true, Message: "This route is not found !"})
}

func statusFor(kind apperror.Kind) int {
	switch kind {
	case apperror.Unauthenticated:
		return http.StatusUnauthorized
	case apperror.Forbidden:
		return http.StatusForbidden
	case apperror.NotFound:
		return http.StatusNotFound
	case apperror.BadRequest:
		return http.StatusBadRequest
	case apperror.Conflict:
		return http.StatusConflict
	case apperror.RateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func write(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(env)
}
