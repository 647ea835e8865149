package audit

import (
	"context"
	"log/slog"
)

type requestIDKey struct{}

// WithRequestID stores the request id for audit correlation.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the request id stored in ctx, if any.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// Logger emits security-relevant events as structured log records.
type Logger struct {
	logger *slog.Logger
}

func NewLogger(logger *slog.Logger) *Logger {
	return &Logger{logger: logger}
}

func (al *Logger) LogAction(ctx context.Context, userID, action, resource, resourceID, status string) {
	al.logger.Info("audit",
		slog.String("action", action),
		slog.String("resource", resource),
		slog.String("resource_id", resourceID),
		slog.String("user_id", userID),
		slog.String("status", status),
		slog.String("request_id", RequestID(ctx)),
	)
}

func (al *Logger) LogLogin(ctx context.Context, userID, status string) {
	al.LogAction(ctx, userID, "login", "session", "", status)
}

func (al *Logger) LogLogout(ctx context.Context, userID string) {
	al.LogAction(ctx, userID, "logout", "session", "", "ok")
}

func (al *Logger) LogTokenIssued(ctx context.Context, userID, tokenID string) {
	al.LogAction(ctx, userID, "issue", "token", tokenID, "ok")
}

func (al *Logger) LogTokenRevoked(ctx context.Context, userID, tokenID string) {
	al.LogAction(ctx, userID, "revoke", "token", tokenID, "ok")
}

func (al *Logger) LogDenied(ctx context.Context, userID, reason string) {
	al.LogAction(ctx, userID, "access_denied", "api", "", reason)
}
