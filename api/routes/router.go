package routes

import (
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"github.com/artcafe/storefront/api/controllers"
	"github.com/artcafe/storefront/api/middleware"
	"github.com/artcafe/storefront/internal/cart"
	"github.com/artcafe/storefront/internal/catalog"
	"github.com/artcafe/storefront/pkg/config"
	"github.com/artcafe/storefront/pkg/logger"
	"github.com/artcafe/storefront/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	sessions *scs.SessionManager,
	redisClient *redis.Client,
	readiness map[string]controllers.Pinger,
	catalogService catalog.Service,
	carts *cart.Registry,
	checkoutRunner controllers.CheckoutRunner,
	metricsHandler http.Handler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})

	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}

	// A nil *redis.Client must not become a non-nil interface.
	var (
		idempotencyStore redis.IdempotencyStore
		rateLimiter      redis.RateLimiter
	)
	if redisClient != nil {
		idempotencyStore = redisClient
		rateLimiter = redisClient
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(
			middleware.Session(sessions, logg),
			middleware.OptionalAuth(cfg.JWT, logg),
		)

		r.Route("/catalog", func(r chi.Router) {
			r.Get("/menu", controllers.CatalogMenu(catalogService, logg))
			r.Get("/art", controllers.CatalogArt(catalogService, logg))
			r.Get("/{itemType}/{itemId}", controllers.CatalogItem(catalogService, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(carts, logg))
			r.Delete("/", controllers.CartClear(carts, logg))
			r.Post("/items", controllers.CartAddItem(carts, catalogService, logg))
			r.Patch("/items/{cartItemId}", controllers.CartUpdateItem(carts, logg))
			r.Delete("/items/{cartItemId}", controllers.CartRemoveItem(carts, logg))
		})

		r.With(
			middleware.Idempotency(idempotencyStore, logg),
			middleware.RateLimit("checkout", rateLimiter, cfg.Checkout.RateLimit, cfg.Checkout.RateLimitWindow, logg),
		).Post("/checkout", controllers.Checkout(carts, checkoutRunner, logg))
	})

	return r
}
