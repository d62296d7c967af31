package requestid

import (
	"context"

	"github.com/google/uuid"
)

// Header carries the request id in both directions.
const Header = "X-Request-ID"

const maxLen = 64

type ctxKey struct{}

func New() string {
	return uuid.NewString()
}

// FromHeader keeps an incoming id when it is a UUID and replaces anything
// else, so client-controlled values never reach the logs unchecked.
func FromHeader(value string) string {
	if value == "" || len(value) > maxLen {
		return New()
	}
	if _, err := uuid.Parse(value); err != nil {
		return New()
	}
	return value
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns "" if ctx carries no request id.
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}
