package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	cartcontrollers "github.com/angelmondragon/storefront-backend/api/controllers/cart"
	ordercontrollers "github.com/angelmondragon/storefront-backend/api/controllers/orders"
	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/auth"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/wishlist"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

// RedisStore is the slice of the redis client the router depends on. Pass a
// nil interface when redis is disabled; idempotency and rate limiting then
// become pass-throughs.
type RedisStore interface {
	redis.IdempotencyStore
	middleware.RateLimiterStore
	Ping(context.Context) error
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient RedisStore,
	gatherer prometheus.Gatherer,
	httpMetrics *metrics.HTTPMetrics,
	productService products.Service,
	cartService cart.Service,
	wishlistService wishlist.Service,
	authService auth.Service,
	ordersService orders.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	deps := controllers.Dependencies{}
	if dbP != nil {
		deps["database"] = dbP
	}
	if redisClient != nil {
		deps["redis"] = redisClient
	}

	loginPolicy := middleware.NewAuthRateLimitPolicy("login", cfg.Auth.RateLimitWindow, cfg.Auth.RateLimitIP, cfg.Auth.RateLimitIdentity)
	registerPolicy := middleware.NewAuthRateLimitPolicy("register", cfg.Auth.RateLimitWindow, cfg.Auth.RateLimitIP, cfg.Auth.RateLimitIdentity)

	var limiter middleware.RateLimiterStore
	var idempotencyStore redis.IdempotencyStore
	if redisClient != nil {
		limiter = redisClient
		idempotencyStore = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps, logg))
	})
	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(productService, logg))
			r.Get("/{id}", controllers.GetProduct(productService, logg))
		})

		r.Route("/cart/{userId}", func(r chi.Router) {
			r.Get("/", cartcontrollers.Get(cartService, logg))
			r.Post("/", cartcontrollers.Add(cartService, logg))
			r.Put("/{productId}", cartcontrollers.Update(cartService, logg))
			r.Delete("/{productId}", cartcontrollers.Remove(cartService, logg))
		})

		r.Route("/wishlist/{userId}", func(r chi.Router) {
			r.Get("/", controllers.WishlistList(wishlistService, logg))
			r.Post("/", controllers.WishlistAdd(wishlistService, logg))
			r.Delete("/{productId}", controllers.WishlistRemove(wishlistService, logg))
		})

		r.Route("/users", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(registerPolicy, limiter, logg)).Post("/register", controllers.Register(authService, logg))
			r.With(middleware.AuthRateLimit(loginPolicy, limiter, logg)).Post("/login", controllers.Login(authService, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/order/{orderId}", ordercontrollers.Get(ordersService, logg))
			r.Put("/{orderId}/status", ordercontrollers.UpdateStatus(ordersService, logg))
			r.Get("/{userId}", ordercontrollers.List(ordersService, logg))
			r.With(middleware.Idempotency(idempotencyStore, cfg.Orders.IdempotencyTTL, logg)).Post("/{userId}", ordercontrollers.Place(ordersService, logg))
		})
	})

	return r
}
