// Package api implements the HTTP surface of the storefront: the public
// catalog, the per-identity cart/checkout/history routes, and the
// key-protected admin routes.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/bookhaven/bookhaven-server/internal/config"
	"github.com/bookhaven/bookhaven-server/internal/notify"
	"github.com/bookhaven/bookhaven-server/internal/ratelimit"
	"github.com/bookhaven/bookhaven-server/internal/service"
	"github.com/bookhaven/bookhaven-server/internal/store"
)

// Server is the HTTP API server.
type Server struct {
	config *config.Config
	logger *slog.Logger
	router *chi.Mux
	store  *store.Store

	catalog *service.CatalogService
	carts   *service.CartService
	orders  *service.OrderService
	history *service.HistoryService
	users   *service.UserService
	search  *service.SearchService
	sender  notify.Sender

	// checkoutLimiter throttles checkout/borrow per identity.
	checkoutLimiter *ratelimit.KeyedRateLimiter
}

// Options bundles the dependencies for NewServer.
type Options struct {
	Config  *config.Config
	Logger  *slog.Logger
	Store   *store.Store
	Catalog *service.CatalogService
	Carts   *service.CartService
	Orders  *service.OrderService
	History *service.HistoryService
	Users   *service.UserService
	Search  *service.SearchService
	Sender  notify.Sender
}

// NewServer creates the API server and wires up all routes.
func NewServer(opts Options) *Server {
	s := &Server{
		config:  opts.Config,
		logger:  opts.Logger,
		router:  chi.NewRouter(),
		store:   opts.Store,
		catalog: opts.Catalog,
		carts:   opts.Carts,
		orders:  opts.Orders,
		history: opts.History,
		users:   opts.Users,
		search:  opts.Search,
		sender:  opts.Sender,
		checkoutLimiter: ratelimit.New(
			opts.Config.Store.CheckoutRPS,
			opts.Config.Store.CheckoutBurst,
		),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(middleware.Timeout(30 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-User-Email", "X-Admin-Key"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api/v1", func(r chi.Router) {
		// Public catalog.
		r.Route("/books", func(r chi.Router) {
			r.Get("/", s.handleListBooks)
			r.Get("/search", s.handleSearchBooks)
			r.Get("/{id}", s.handleGetBook)
		})
		r.Get("/genres", s.handleListGenres)

		// Identity routes. The X-User-Email header names the caller;
		// this is a documented trust boundary, not authentication.
		r.Group(func(r chi.Router) {
			r.Use(s.requireIdentity)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", s.handleGetCart)
				r.Delete("/", s.handleClearCart)
				r.Post("/items", s.handleAddCartItem)
				r.Patch("/items/{bookID}", s.handleSetCartQuantity)
				r.Delete("/items/{bookID}", s.handleRemoveCartItem)
			})

			r.Group(func(r chi.Router) {
				r.Use(s.checkoutRateLimit)
				r.Post("/checkout", s.handleCheckout)
				r.Post("/borrow", s.handleBorrow)
			})

			r.Get("/history", s.handleHistory)
			r.Get("/transactions/{id}", s.handleGetTransaction)
			r.Post("/transactions/{id}/return", s.handleReturnTransaction)

			r.Get("/users/me", s.handleGetProfile)
		})

		r.Post("/users", s.handleRegisterUser)

		// Admin surface, gated on the shared key from config.
		r.Route("/admin", func(r chi.Router) {
			r.Use(s.requireAdmin)

			r.Post("/books", s.handleAdminCreateBook)
			r.Patch("/books/{id}", s.handleAdminUpdateBook)
			r.Patch("/books/{id}/stock", s.handleAdminSetStock)

			r.Get("/orders", s.handleAdminListOrders)
			r.Post("/orders/{id}/complete", s.handleAdminCompleteOrder)
			r.Post("/orders/{id}/return", s.handleAdminReturnOrder)
			r.Post("/orders/import", s.handleAdminImportOrders)

			r.Post("/search/reindex", s.handleAdminReindex)
			r.Get("/users", s.handleAdminListUsers)
			r.Get("/summary", s.handleAdminSummary)
			r.Post("/notify", s.handleAdminNotify)
		})
	})
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close releases server-held resources (the rate limiter's eviction loop).
func (s *Server) Close() {
	s.checkoutLimiter.Stop()
}
