package middleware

import (
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/google/uuid"

	"github.com/artcafe/storefront/pkg/logger"
)

const cartSessionKey = "cart_session"

// Session loads the scs session and guarantees every request carries a stable
// cart session key, minting one on first visit.
func Session(sm *scs.SessionManager, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		assign := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			key := sm.GetString(ctx, cartSessionKey)
			if key == "" {
				key = uuid.NewString()
				sm.Put(ctx, cartSessionKey, key)
			}
			ctx = WithSessionKey(ctx, key)
			if logg != nil {
				ctx = logg.WithSessionID(ctx, key)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
		return sm.LoadAndSave(assign)
	}
}
