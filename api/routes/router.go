package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/meridianlabs/storefront-api/api/controllers"
	"github.com/meridianlabs/storefront-api/api/middleware"
	"github.com/meridianlabs/storefront-api/internal/address"
	"github.com/meridianlabs/storefront-api/internal/auth"
	"github.com/meridianlabs/storefront-api/internal/cart"
	checkoutsvc "github.com/meridianlabs/storefront-api/internal/checkout"
	"github.com/meridianlabs/storefront-api/internal/orders"
	"github.com/meridianlabs/storefront-api/internal/regions"
	"github.com/meridianlabs/storefront-api/internal/returns"
	"github.com/meridianlabs/storefront-api/pkg/auth/session"
	"github.com/meridianlabs/storefront-api/pkg/config"
	"github.com/meridianlabs/storefront-api/pkg/db"
	"github.com/meridianlabs/storefront-api/pkg/logger"
	"github.com/meridianlabs/storefront-api/pkg/metrics"
	"github.com/meridianlabs/storefront-api/pkg/redis"
)

// Deps carries everything the router wires into middleware and controllers.
type Deps struct {
	Config        *config.Config
	Logger        *logger.Logger
	DBPinger      db.Pinger
	RedisClient   *redis.Client
	Sessions      session.Checker
	Gatherer      prometheus.Gatherer
	HTTPMetrics   *metrics.HTTPMetrics
	AuthService   auth.Service
	AddressSvc    address.Service
	RegionService regions.Service
	CartService   cart.Service
	CheckoutSvc   checkoutsvc.Service
	OrderService  orders.Service
	ReturnService returns.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)
	if deps.HTTPMetrics != nil {
		r.Use(middleware.Metrics(deps.HTTPMetrics))
	}

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DBPinger, deps.RedisClient))
	})
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(loginPolicy, deps.RedisClient, logg)).
				Post("/login", controllers.AuthLogin(deps.AuthService, logg))
			r.With(middleware.AuthRateLimit(registerPolicy, deps.RedisClient, logg), middleware.Idempotency(deps.RedisClient, logg)).
				Post("/register", controllers.AuthRegister(deps.AuthService, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
				r.Post("/logout", controllers.AuthLogout(deps.AuthService, logg))
				r.Get("/me", controllers.AuthMe(deps.AuthService, logg))
			})
		})

		// Catalogue lookups and the cart itself are open to anonymous shoppers.
		r.Get("/regions", controllers.RegionList(deps.RegionService, logg))
		r.Get("/return-reasons", controllers.ReturnReasonList(deps.ReturnService, logg))

		r.Route("/carts", func(r chi.Router) {
			r.Post("/", controllers.CartCreate(deps.CartService, logg))
			r.Route("/{cartId}", func(r chi.Router) {
				r.Get("/", controllers.CartFetch(deps.CartService, logg))
				r.Post("/", controllers.CartUpdate(deps.CartService, logg))
				r.Post("/items", controllers.CartAddItem(deps.CartService, logg))
				r.Post("/items/{itemId}/increase", controllers.CartIncreaseItem(deps.CartService, logg))
				r.Post("/items/{itemId}/decrease", controllers.CartDecreaseItem(deps.CartService, logg))
				r.Delete("/items/{itemId}", controllers.CartDeleteItem(deps.CartService, logg))
				r.With(middleware.Idempotency(deps.RedisClient, logg)).
					Post("/complete", controllers.CartComplete(deps.CartService, logg))
			})
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Get("/payment-providers", controllers.CheckoutPaymentProviders(deps.CheckoutSvc, logg))
			r.Route("/{cartId}", func(r chi.Router) {
				r.Get("/", controllers.CheckoutFetch(deps.CheckoutSvc, logg))
				r.Post("/steps/{step}", controllers.CheckoutGoToStep(deps.CheckoutSvc, logg))
				r.Get("/shipping-options", controllers.CheckoutShippingOptions(deps.CheckoutSvc, logg))
				r.Post("/shipping-methods", controllers.CheckoutAddShippingMethod(deps.CheckoutSvc, logg))
				r.With(middleware.Idempotency(deps.RedisClient, logg)).
					Post("/payment-sessions", controllers.CheckoutCreatePaymentSession(deps.CheckoutSvc, logg))
				r.Get("/payment-sessions", controllers.CheckoutGetPaymentSession(deps.CheckoutSvc, logg))
				r.Delete("/payment-sessions", controllers.CheckoutDiscardPaymentSession(deps.CheckoutSvc, logg))
				r.Post("/payment/confirm", controllers.CheckoutConfirmPayment(deps.CheckoutSvc, logg))
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
			r.Use(middleware.Idempotency(deps.RedisClient, logg))

			r.Get("/customers/me/cart", controllers.CartMine(deps.CartService, logg))

			r.Route("/customers/me/addresses", func(r chi.Router) {
				r.Get("/", controllers.AddressList(deps.AddressSvc, logg))
				r.Get("/defaults", controllers.AddressDefaults(deps.AddressSvc, logg))
				r.Post("/", controllers.AddressCreate(deps.AddressSvc, logg))
				r.Post("/{addressId}", controllers.AddressUpdate(deps.AddressSvc, logg))
				r.Delete("/{addressId}", controllers.AddressDelete(deps.AddressSvc, logg))
				r.Post("/{addressId}/default-billing", controllers.AddressSetDefaultBilling(deps.AddressSvc, logg))
				r.Post("/{addressId}/default-shipping", controllers.AddressSetDefaultShipping(deps.AddressSvc, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.OrderList(deps.OrderService, logg))
				r.Get("/{orderId}", controllers.OrderDetail(deps.OrderService, logg))
			})

			r.Route("/returns", func(r chi.Router) {
				r.Get("/", controllers.ReturnList(deps.ReturnService, logg))
				r.Post("/", controllers.ReturnCreate(deps.ReturnService, logg))
				r.Get("/{returnId}", controllers.ReturnDetail(deps.ReturnService, logg))
				r.Post("/{returnId}/cancel", controllers.ReturnCancel(deps.ReturnService, logg))
			})
		})
	})

	return r
}
