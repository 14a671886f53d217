package auth

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID string
	Email  string
	JTI    string
}

// AccessTokenClaims represents the typed JWT issued to shoppers.
type AccessTokenClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Identity is the signed-in shopper as seen by the checkout workflow.
type Identity struct {
	UserID string
	Email  string
}

// Identity projects the claims onto the identity carried in request contexts.
func (c *AccessTokenClaims) Identity() Identity {
	return Identity{UserID: c.UserID, Email: c.Email}
}

type contextKey struct{}

// WithIdentity returns a copy of ctx carrying the identity.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// IdentityFromContext returns the identity stored by the auth middleware.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	id, ok := ctx.Value(contextKey{}).(Identity)
	if !ok || id.UserID == "" {
		return Identity{}, false
	}
	return id, true
}

// Provider reports the current identity, if any. The checkout orchestrator
// depends on this rather than on the context helpers directly.
type Provider interface {
	CurrentIdentity(ctx context.Context) (Identity, bool)
}

// ContextProvider reads identities placed in the context by middleware.
type ContextProvider struct{}

func (ContextProvider) CurrentIdentity(ctx context.Context) (Identity, bool) {
	return IdentityFromContext(ctx)
}
