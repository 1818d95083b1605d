package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/storefront-backend/api/routes"
	"github.com/angelmondragon/storefront-backend/internal/auth"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/users"
	"github.com/angelmondragon/storefront-backend/internal/wishlist"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/keylock"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/migrate"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       cfg.App.LogLevel,
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var closers []func() error

	var (
		dbClient   *db.Client
		dbPinger   db.Pinger
		cartStore  cart.Store
		orderStore orders.Store
	)
	if cfg.Storage.UsesSQL() {
		dbClient, err = db.New(ctx, cfg.Storage.Driver, cfg.DB, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap database", err)
			os.Exit(1)
		}
		closers = append(closers, dbClient.Close)
		dbPinger = dbClient

		if err := migrate.MaybeRun(ctx, cfg, logg, dbClient); err != nil {
			logg.Error(ctx, "failed to run migrations", err)
			os.Exit(1)
		}
		cartStore = cart.NewRepository(dbClient.DB())
		orderStore = orders.NewRepository(dbClient.DB())
	} else {
		cartStore = cart.NewFileStore(cfg.Storage.Path(cfg.Storage.CartFile))
		orderStore = orders.NewFileStore(cfg.Storage.Path(cfg.Storage.OrdersFile))
	}

	var redisStore routes.RedisStore
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap redis", err)
			os.Exit(1)
		}
		closers = append(closers, redisClient.Close)
		redisStore = redisClient
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Cart edits and checkouts for the same user share one lock set.
	locks := keylock.New()

	productService, err := products.NewService(products.ServiceParams{
		Store: products.NewFileStore(cfg.Storage.Path(cfg.Storage.ProductsFile)),
	})
	requireService(ctx, logg, "products", err)

	cartService, err := cart.NewService(cart.ServiceParams{
		Store:    cartStore,
		Products: productService,
		Locks:    locks,
		Logger:   logg,
	})
	requireService(ctx, logg, "cart", err)

	wishlistService, err := wishlist.NewService(wishlist.NewFileStore(cfg.Storage.Path(cfg.Storage.WishlistFile)))
	requireService(ctx, logg, "wishlist", err)

	authService, err := auth.NewService(auth.ServiceParams{
		Users:          users.NewFileStore(cfg.Storage.Path(cfg.Storage.UsersFile)),
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	requireService(ctx, logg, "auth", err)

	ordersService, err := orders.NewService(orders.ServiceParams{
		Store:          orderStore,
		Carts:          cartStore,
		Locks:          locks,
		Logger:         logg,
		Metrics:        metrics.NewOrderMetrics(reg),
		DeliveryWindow: cfg.Orders.DeliveryWindow,
		TrackingPrefix: cfg.Orders.TrackingPrefix,
	})
	requireService(ctx, logg, "orders", err)

	addr := ":" + cfg.App.Port
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, dbPinger, redisStore, reg, metrics.NewHTTPMetrics(reg),
			productService, cartService, wishlistService, authService, ordersService),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logCtx := logg.WithFields(ctx, map[string]any{
		"env":     cfg.App.Env,
		"addr":    addr,
		"storage": cfg.Storage.Driver,
		"redis":   redisStore != nil,
	})
	logg.Info(logCtx, "starting api server")

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	exitCode := 0
	select {
	case err := <-serveErr:
		if err != nil {
			logg.Error(logCtx, "api server stopped unexpectedly", err)
			exitCode = 1
		}
	case <-ctx.Done():
		logg.Info(logCtx, "shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	shutdownErr := server.Shutdown(shutdownCtx)
	for _, closeFn := range closers {
		shutdownErr = multierr.Append(shutdownErr, closeFn())
	}
	if shutdownErr != nil {
		logg.Error(logCtx, "error during shutdown", shutdownErr)
		exitCode = 1
	}
	logg.Info(logCtx, "api server stopped")
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

func requireService(ctx context.Context, logg *logger.Logger, name string, err error) {
	if err == nil {
		return
	}
	logg.Error(logg.WithField(ctx, "service", name), "failed to create service", err)
	os.Exit(1)
}
