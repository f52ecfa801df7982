package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/creamcommerce/commerce-backend/api/controllers"
	"github.com/creamcommerce/commerce-backend/api/middleware"
	checkoutsvc "github.com/creamcommerce/commerce-backend/internal/checkout"
	"github.com/creamcommerce/commerce-backend/internal/orders"
	"github.com/creamcommerce/commerce-backend/internal/payments"
	"github.com/creamcommerce/commerce-backend/internal/points"
	product "github.com/creamcommerce/commerce-backend/internal/products"
	"github.com/creamcommerce/commerce-backend/pkg/config"
	"github.com/creamcommerce/commerce-backend/pkg/logger"
)

// Deps carries everything the router mounts. Metrics may be nil; the
// /metrics route is skipped then.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       controllers.Pinger
	Cache    controllers.Pinger
	Orders   orders.Service
	Payments payments.Service
	Points   points.Service
	Products product.Service
	Checkout checkoutsvc.Service
	Metrics  http.Handler
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Cache))
	})

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.CreateOrder(deps.Orders, logg))
			r.Get("/", controllers.ListOrders(deps.Orders, logg))
			r.Route("/{orderId}", func(r chi.Router) {
				r.Get("/", controllers.GetOrder(deps.Orders, logg))
				r.Get("/payment", controllers.GetOrderPayment(deps.Payments, logg))
				r.Post("/status", controllers.OrderLifecycle(deps.Orders, logg))
				r.Post("/cancel", controllers.CancelOrder(deps.Checkout, logg))
			})
		})

		r.Route("/payments", func(r chi.Router) {
			r.Post("/process", controllers.ProcessPayment(deps.Checkout, logg))
			r.Route("/{paymentId}", func(r chi.Router) {
				r.Get("/", controllers.GetPayment(deps.Payments, logg))
				r.Post("/retry", controllers.RetryPayment(deps.Payments, logg))
				r.Get("/failures", controllers.ListPaymentFailures(deps.Payments, logg))
			})
		})

		r.Route("/points/{userId}", func(r chi.Router) {
			r.Get("/", controllers.GetPointsBalance(deps.Points, logg))
			r.Post("/charge", controllers.ChargePoints(deps.Points, logg))
			r.Post("/use", controllers.UsePoints(deps.Points, logg))
			r.Get("/history", controllers.PointsHistory(deps.Points, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Post("/", controllers.CreateProduct(deps.Products, logg))
			r.Get("/", controllers.ListProducts(deps.Products, logg))
			r.Get("/top", controllers.TopProducts(deps.Products, logg))
			r.Post("/options/{optionId}/stock", controllers.AdjustOptionStock(deps.Products, logg))
			r.Route("/{productId}", func(r chi.Router) {
				r.Get("/", controllers.GetProduct(deps.Products, logg))
				r.Post("/status", controllers.UpdateProductStatus(deps.Products, logg))
				r.Post("/options", controllers.AddProductOption(deps.Products, logg))
				r.Post("/options/{optionId}/status", controllers.UpdateOptionStatus(deps.Products, logg))
			})
		})
	})

	return r
}
