package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/instastorehq/storefront-backend/api/controllers"
	"github.com/instastorehq/storefront-backend/api/middleware"
	cartsvc "github.com/instastorehq/storefront-backend/internal/cart"
	catalogsvc "github.com/instastorehq/storefront-backend/internal/catalog"
	checkoutsvc "github.com/instastorehq/storefront-backend/internal/checkout"
	shopsvc "github.com/instastorehq/storefront-backend/internal/shops"
	subscriptionsvc "github.com/instastorehq/storefront-backend/internal/subscriptions"
	"github.com/instastorehq/storefront-backend/pkg/config"
	"github.com/instastorehq/storefront-backend/pkg/logger"
	pkgredis "github.com/instastorehq/storefront-backend/pkg/redis"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config        *config.Config
	Logger        *logger.Logger
	DBPinger      controllers.Pinger
	RedisPinger   controllers.Pinger
	Idempotency   pkgredis.IdempotencyStore
	Plans         controllers.PlanLister
	Shops         shopsvc.Service
	Subscriptions subscriptionsvc.Service
	Catalog       catalogsvc.Service
	Cart          cartsvc.Service
	Checkout      checkoutsvc.Service
}

func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	logg := d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, d.DBPinger, d.RedisPinger))
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Idempotency inspects the matched chi route pattern, so it has to be
	// chained on the endpoints themselves rather than Use'd on the router.
	idem := middleware.Idempotency(d.Idempotency, cfg.Checkout, logg)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.VisitorSession(cfg.Session, logg))

		r.Get("/plans", controllers.PlanList(d.Plans, logg))

		r.With(idem).Post("/shops", controllers.ShopRegister(d.Shops, logg))
		r.Get("/storefronts/{slug}", controllers.ShopBySlug(d.Shops, logg))

		r.Route("/shops/{shopID}", func(r chi.Router) {
			r.Get("/", controllers.ShopDetail(d.Shops, logg))
			r.Patch("/", controllers.ShopUpdate(d.Shops, logg))
			r.Post("/deactivate", controllers.ShopDeactivate(d.Shops, logg))
			r.Post("/reactivate", controllers.ShopReactivate(d.Shops, logg))

			r.Route("/subscription", func(r chi.Router) {
				r.Get("/", controllers.SubscriptionStatus(d.Subscriptions, logg))
				r.With(idem).Post("/", controllers.SubscriptionAssign(d.Subscriptions, logg))
				r.With(idem).Post("/renew", controllers.SubscriptionRenew(d.Subscriptions, logg))
			})

			r.Get("/catalog", controllers.StorefrontCatalog(d.Catalog, logg))
			r.Route("/products", func(r chi.Router) {
				r.Get("/", controllers.ProductList(d.Catalog, logg))
				r.Post("/", controllers.ProductCreate(d.Catalog, logg))
				r.Get("/{productID}", controllers.ProductDetail(d.Catalog, logg))
				r.Patch("/{productID}", controllers.ProductUpdate(d.Catalog, logg))
				r.Post("/{productID}/variants", controllers.VariantAdd(d.Catalog, logg))
			})
			r.Put("/variants/{variantID}/stock", controllers.VariantRestock(d.Catalog, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartFetch(d.Cart, logg))
				r.Delete("/", controllers.CartClear(d.Cart, logg))
				r.Post("/items", controllers.CartAdd(d.Cart, logg))
				r.Put("/items/{variantID}", controllers.CartUpdateItem(d.Cart, logg))
				r.Delete("/items/{variantID}", controllers.CartRemoveItem(d.Cart, logg))
			})

			r.With(idem).Post("/checkout", controllers.Checkout(d.Checkout, logg))
			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.OrderList(d.Checkout, logg))
				r.Get("/{orderCode}", controllers.OrderDetail(d.Checkout, logg))
			})
		})
	})

	return r
}
