// Package observability provides logging, metrics, and tracing.
package observability

import (
	"context"
	"log/slog"
	"os"
)

type contextKey string

// Context keys for log enrichment.
const (
	RequestIDKey contextKey = "request_id"
	UserIDKey    contextKey = "user_id"
)

// Logger is the global structured logger instance used throughout the
// application.
var Logger *slog.Logger

// ctxHandler is a slog.Handler that adds context values to the log record.
type ctxHandler struct {
	slog.Handler
}

// Handle adds context values to the record before passing it to the
// underlying handler.
func (h *ctxHandler) Handle(ctx context.Context, r slog.Record) error {
	if rid, ok := ctx.Value(RequestIDKey).(string); ok {
		r.AddAttrs(slog.String("request_id", rid))
	}
	if uid, ok := ctx.Value(UserIDKey).(uint); ok {
		r.AddAttrs(slog.Uint64("user_id", uint64(uid)))
	}
	return h.Handler.Handle(ctx, r)
}

func init() {
	var handler slog.Handler
	level := slog.LevelInfo

	if os.Getenv("APP_ENV") == "production" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}

	Logger = slog.New(&ctxHandler{Handler: handler})
}

// WithRequestID returns a new context carrying the request id for log
// enrichment.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// WithUserID returns a new context carrying the authenticated user id for
// log enrichment.
func WithUserID(ctx context.Context, userID uint) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// SyncLogger provides structured logging for sync-engine reconciliation.
type SyncLogger struct {
	entity string
	logger *slog.Logger
}

// NewSyncLogger creates a SyncLogger for the given entity type
// ("friend_edge", "message", "group").
func NewSyncLogger(entity string) *SyncLogger {
	return &SyncLogger{entity: entity, logger: Logger}
}

// LogApply logs an incremental apply to an engine's in-memory state.
func (l *SyncLogger) LogApply(ctx context.Context, operation string, id uint, outcome string) {
	l.logger.InfoContext(ctx, "sync apply",
		slog.String("entity", l.entity),
		slog.String("operation", operation),
		slog.Uint64("id", uint64(id)),
		slog.String("outcome", outcome),
	)
}

// LogRefresh logs a full reconciliation fetch.
func (l *SyncLogger) LogRefresh(ctx context.Context, count int) {
	l.logger.InfoContext(ctx, "sync refresh",
		slog.String("entity", l.entity),
		slog.Int("count", count),
	)
}

// LogError logs a failed engine operation.
func (l *SyncLogger) LogError(ctx context.Context, operation string, err error) {
	l.logger.ErrorContext(ctx, "sync error",
		slog.String("entity", l.entity),
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}
