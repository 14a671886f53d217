package middleware

import (
	"context"

	"github.com/artcafe/storefront/pkg/auth"
)

type contextKey string

const (
	ctxSessionKey     contextKey = "session_key"
	ctxIdempotencyKey contextKey = "idempotency_key"
)

// SessionKeyFromContext returns the cart session key assigned by Session.
func SessionKeyFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxSessionKey).(string); ok {
		return v
	}
	return ""
}

// WithSessionKey injects the cart session key into the context.
func WithSessionKey(ctx context.Context, key string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxSessionKey, key)
}

// IdempotencyKeyFromContext returns the client-supplied Idempotency-Key, if any.
func IdempotencyKeyFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxIdempotencyKey).(string); ok {
		return v
	}
	return ""
}

func withIdempotencyKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, ctxIdempotencyKey, key)
}

// UserIDFromContext returns the signed-in user id or "".
func UserIDFromContext(ctx context.Context) string {
	id, ok := auth.IdentityFromContext(ctx)
	if !ok {
		return ""
	}
	return id.UserID
}
