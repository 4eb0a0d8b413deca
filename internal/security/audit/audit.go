package audit

import (
	"context"
	"log/slog"
	"time"
)

type requestIDKey struct{}

// WithRequestID stashes the request ID for audit records
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// Logger writes a structured trail of security-relevant events: gate
// decisions and admin mutations. This is operational logging, separate
// from the persisted member history store.
type Logger struct {
	logger *slog.Logger
}

func NewLogger(logger *slog.Logger) *Logger {
	return &Logger{logger: logger}
}

func (al *Logger) LogAction(ctx context.Context, userID, action, resource, resourceID, status string) {
	requestID := ""
	if reqID, ok := ctx.Value(requestIDKey{}).(string); ok {
		requestID = reqID
	}

	al.logger.Info("audit",
		slog.String("action", action),
		slog.String("resource", resource),
		slog.String("resource_id", resourceID),
		slog.String("user_id", userID),
		slog.String("status", status),
		slog.String("request_id", requestID),
		slog.Time("timestamp", time.Now()),
	)
}

func (al *Logger) LogMemberMutation(ctx context.Context, userID, action, memberID string) {
	al.LogAction(ctx, userID, action, "member", memberID, "initiated")
}

func (al *Logger) LogDenied(ctx context.Context, userID, path, reason string) {
	al.LogAction(ctx, userID, "access_denied", "api", path, reason)
}

func (al *Logger) LogLogin(ctx context.Context, username, ip string, success bool) {
	status := "failure"
	if success {
		status = "success"
	}
	al.LogAction(ctx, username, "login", "auth", ip, status)
}
