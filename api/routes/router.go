package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/smartcart/api/controllers"
	"github.com/angelmondragon/smartcart/api/middleware"
	"github.com/angelmondragon/smartcart/internal/catalog"
	"github.com/angelmondragon/smartcart/pkg/config"
	"github.com/angelmondragon/smartcart/pkg/logger"
	pkgredis "github.com/angelmondragon/smartcart/pkg/redis"
)

// NewRouter mounts the health, metrics and storefront routes. idem and
// metricsHandler are optional.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	sessions controllers.CartSessions,
	products catalog.Catalog,
	idem pkgredis.IdempotencyStore,
	readiness map[string]controllers.Pinger,
	metricsHandler http.Handler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSAllowedOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})

	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		idempotent := middleware.Idempotency(idem, logg)

		r.Get("/products", controllers.ProductsList(products, logg))

		r.With(idempotent).Post("/sessions", controllers.SessionStart(sessions, logg))

		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Use(middleware.SessionScope(logg))

			r.Delete("/", controllers.SessionEnd(sessions, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartGet(sessions, logg))
				r.Delete("/", controllers.CartClear(sessions, logg))
				r.Post("/items", controllers.CartAddItem(sessions, logg))
				r.Delete("/items/{productID}", controllers.CartRemoveItem(sessions, logg))
				r.Post("/items/{productID}/increment", controllers.CartIncrementItem(sessions, logg))
				r.Post("/items/{productID}/decrement", controllers.CartDecrementItem(sessions, logg))
			})

			r.Route("/checkout", func(r chi.Router) {
				r.Get("/", controllers.CheckoutGet(sessions, logg))
				r.Post("/promo", controllers.CheckoutApplyPromo(sessions, logg))
				r.Delete("/promo", controllers.CheckoutRemovePromo(sessions, logg))
				r.Post("/loyalty", controllers.CheckoutApplyLoyalty(sessions, logg))
				r.Delete("/loyalty", controllers.CheckoutResetLoyalty(sessions, logg))
				r.With(idempotent).Post("/proceed", controllers.CheckoutProceed(sessions, logg))
			})
		})
	})

	return r
}
