package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/meridianlabs/storefront-api/api/routes"
	"github.com/meridianlabs/storefront-api/internal/address"
	"github.com/meridianlabs/storefront-api/internal/auth"
	"github.com/meridianlabs/storefront-api/internal/cart"
	checkoutsvc "github.com/meridianlabs/storefront-api/internal/checkout"
	"github.com/meridianlabs/storefront-api/internal/customers"
	"github.com/meridianlabs/storefront-api/internal/orders"
	"github.com/meridianlabs/storefront-api/internal/regions"
	"github.com/meridianlabs/storefront-api/internal/returns"
	"github.com/meridianlabs/storefront-api/pkg/auth/session"
	"github.com/meridianlabs/storefront-api/pkg/config"
	"github.com/meridianlabs/storefront-api/pkg/db"
	"github.com/meridianlabs/storefront-api/pkg/logger"
	"github.com/meridianlabs/storefront-api/pkg/metrics"
	"github.com/meridianlabs/storefront-api/pkg/migrate"
	"github.com/meridianlabs/storefront-api/pkg/redis"
	"github.com/meridianlabs/storefront-api/pkg/stripe"
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

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags, logg)
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

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	stripeClient, err := stripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap stripe", err)
		os.Exit(1)
	}
	paymentGateway, err := checkoutsvc.NewStripeGateway(stripe.NewIntentClient(stripeClient))
	if err != nil {
		logg.Error(context.Background(), "failed to create payment gateway", err)
		os.Exit(1)
	}

	regionService, err := regions.NewService(regions.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create region service", err)
		os.Exit(1)
	}

	checkoutRepo := checkoutsvc.NewRepository(dbClient.DB())
	orderRepo := orders.NewRepository(dbClient.DB())

	cartService, err := cart.NewService(cart.ServiceParams{
		Repo:            cart.NewRepository(dbClient.DB()),
		Tx:              dbClient,
		Regions:         regionService,
		Sessions:        checkoutRepo,
		Orders:          orderRepo,
		FallbackCountry: cfg.Checkout.FallbackCountry,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	checkoutService, err := checkoutsvc.NewService(checkoutsvc.ServiceParams{
		Store:   checkoutRepo,
		Carts:   cartService,
		Gateway: paymentGateway,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	orderService, err := orders.NewService(orderRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	returnService, err := returns.NewService(returns.ServiceParams{
		Repo:   returns.NewRepository(dbClient.DB()),
		Orders: orderRepo,
		Tx:     dbClient,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create return service", err)
		os.Exit(1)
	}

	addressService, err := address.NewService(address.NewRepository(dbClient.DB()), dbClient, cfg.Checkout.FallbackCountry)
	if err != nil {
		logg.Error(context.Background(), "failed to create address service", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		CustomerRepo:   customers.NewRepository(dbClient.DB()),
		SessionManager: sessionManager,
		Carts:          cartService,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(registry)

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
			RedisClient:   redisClient,
			Sessions:      sessionManager,
			Gatherer:      registry,
			HTTPMetrics:   httpMetrics,
			AuthService:   authService,
			AddressSvc:    addressService,
			RegionService: regionService,
			CartService:   cartService,
			CheckoutSvc:   checkoutService,
			OrderService:  orderService,
			ReturnService: returnService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
