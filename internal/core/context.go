package core

import (
	"context"
	"log/slog"

	"github.com/go-chi/chi/v5/middleware"
)

type contextKey string

const ctxKeySessionID contextKey = "session_id"

// ContextWithSessionID tags ctx with the cleaning session it belongs to.
func ContextWithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeySessionID, id)
}

// SessionIDFromContext extracts the session ID, or "".
func SessionIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeySessionID).(string); ok {
		return v
	}
	return ""
}

// loggerFromContext enriches base with the request and session IDs on ctx.
func loggerFromContext(ctx context.Context, base *slog.Logger) *slog.Logger {
	if base == nil {
		base = slog.Default()
	}
	if reqID := middleware.GetReqID(ctx); reqID != "" {
		base = base.With("request_id", reqID)
	}
	if id := SessionIDFromContext(ctx); id != "" {
		base = base.With("session_id", id)
	}
	return base
}
