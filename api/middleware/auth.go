package middleware

import (
	"net/http"

	"github.com/artcafe/storefront/api/responses"
	"github.com/artcafe/storefront/api/validators"
	"github.com/artcafe/storefront/pkg/auth"
	"github.com/artcafe/storefront/pkg/config"
	pkgerrors "github.com/artcafe/storefront/pkg/errors"
	"github.com/artcafe/storefront/pkg/logger"
)

// OptionalAuth seeds the request context with the caller's identity when a
// bearer token is present. Requests without a token continue anonymously; a
// token that fails validation is rejected.
func OptionalAuth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := validators.BearerToken(r.Header.Get("Authorization"))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid credentials"))
				return
			}
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := auth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			identity := claims.Identity()
			ctx := auth.WithIdentity(r.Context(), identity)
			if logg != nil {
				ctx = logg.WithUserID(ctx, identity.UserID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
