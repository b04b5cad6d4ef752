package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/windly-shop/windly/internal/address"
	"github.com/windly-shop/windly/internal/auth"
	"github.com/windly-shop/windly/internal/cart"
	"github.com/windly-shop/windly/internal/catalog"
	"github.com/windly-shop/windly/internal/review"
	"github.com/windly-shop/windly/internal/user"
)

type Services struct {
	Catalog catalog.Service
	Cart    cart.Service
	Address address.Service
	Review  review.Service
	User    user.Service
	Authz   auth.Authorizer
}

// NewRouter assembles the full route tree: public catalog reads, the
// scheduler sync endpoint, and the authenticated API behind the identity
// middleware.
func NewRouter(svcs Services) *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	productHandler := NewProductHandler(svcs.Catalog, svcs.Authz)
	cartHandler := NewCartHandler(svcs.Cart, svcs.Authz)
	addressHandler := NewAddressHandler(svcs.Address, svcs.Authz)
	reviewHandler := NewReviewHandler(svcs.Review, svcs.Authz)
	wishlistHandler := NewWishlistHandler(svcs.User)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// No caller identity on these: catalog browsing is anonymous and the
	// sync endpoint is hit by the external scheduler.
	productHandler.RegisterPublicRoutes(router)
	reviewHandler.RegisterPublicRoutes(router)
	router.Get("/internal/orders/sync", cartHandler.HandleSync)

	router.Group(func(r chi.Router) {
		r.Use(auth.Middleware)
		r.Use(ensureUser(svcs.User))

		productHandler.RegisterRoutes(r)
		cartHandler.RegisterRoutes(r)
		cartHandler.RegisterAdminRoutes(r)
		addressHandler.RegisterRoutes(r)
		reviewHandler.RegisterRoutes(r)
		wishlistHandler.RegisterRoutes(r)
	})

	return router
}

// ensureUser materializes the authenticated subject as a local user row so
// foreign keys from carts, addresses and reviews always resolve.
func ensureUser(svc user.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id, ok := auth.FromContext(r.Context()); ok {
				email := r.Header.Get("X-User-Email")
				name := r.Header.Get("X-User-Name")
				if err := svc.EnsureUser(r.Context(), id, email, name); err != nil {
					log.Error().Err(err).Str("user_id", id.Subject).Msg("handler: failed to ensure user row")
					respondError(w, http.StatusInternalServerError, "internal server error")
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
