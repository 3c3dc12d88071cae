package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/instastorehq/storefront-backend/api/routes"
	cartsvc "github.com/instastorehq/storefront-backend/internal/cart"
	catalogsvc "github.com/instastorehq/storefront-backend/internal/catalog"
	checkoutsvc "github.com/instastorehq/storefront-backend/internal/checkout"
	"github.com/instastorehq/storefront-backend/internal/plans"
	shopsvc "github.com/instastorehq/storefront-backend/internal/shops"
	subscriptionsvc "github.com/instastorehq/storefront-backend/internal/subscriptions"
	"github.com/instastorehq/storefront-backend/pkg/config"
	"github.com/instastorehq/storefront-backend/pkg/db"
	"github.com/instastorehq/storefront-backend/pkg/logger"
	"github.com/instastorehq/storefront-backend/pkg/metrics"
	"github.com/instastorehq/storefront-backend/pkg/migrate"
	"github.com/instastorehq/storefront-backend/pkg/redis"
)

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
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	checkoutMetrics := metrics.NewCheckoutMetrics(prometheus.DefaultRegisterer)

	planRepo := plans.NewRepository(dbClient.DB())
	shopRepo := shopsvc.NewRepository(dbClient.DB())
	catalogRepo := catalogsvc.NewRepository(dbClient.DB())
	checkoutRepo := checkoutsvc.NewRepository(dbClient.DB())

	shopService, err := shopsvc.NewService(shopRepo, planRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create shop service", err)
		os.Exit(1)
	}

	subscriptionService, err := subscriptionsvc.NewService(subscriptionsvc.NewRepository(dbClient.DB()), planRepo, shopRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create subscription service", err)
		os.Exit(1)
	}

	catalogService, err := catalogsvc.NewService(catalogRepo, shopRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	cartService, err := cartsvc.NewService(cartsvc.NewRedisStore(redisClient, cfg.Cart.TTL), catalogRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	checkoutService, err := checkoutsvc.NewService(
		checkoutRepo,
		shopRepo,
		cartService,
		dbClient,
		logg,
		checkoutMetrics,
		cfg.Checkout,
		checkoutsvc.NewCartClearHook(cartService),
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:        cfg,
			Logger:        logg,
			DBPinger:      dbClient,
			RedisPinger:   redisClient,
			Idempotency:   redisClient,
			Plans:         planRepo,
			Shops:         shopService,
			Subscriptions: subscriptionService,
			Catalog:       catalogService,
			Cart:          cartService,
			Checkout:      checkoutService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
