package log

import (
	"context"
	"log/slog"

	"github.com/ErlanBelekov/auth-server/internal/requestid"
)

type callerKey struct{}

// WithCaller attaches the authenticated caller's email to ctx so every
// record logged under it carries a "caller" attribute.
func WithCaller(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, callerKey{}, email)
}

// ContextHandler enriches records with request_id and caller taken from the
// record's context before delegating to inner.
type ContextHandler struct {
	inner slog.Handler
}

func NewContextHandler(inner slog.Handler) *ContextHandler {
	return &ContextHandler{inner: inner}
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := requestid.FromContext(ctx); id != "" {
		r.AddAttrs(slog.String("request_id", id))
	}
	if email, _ := ctx.Value(callerKey{}).(string); email != "" {
		r.AddAttrs(slog.String("caller", email))
	}
	return h.inner.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{inner: h.inner.WithGroup(name)}
}
