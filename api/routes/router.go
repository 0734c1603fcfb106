package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sellora/sellora-backend/api/controllers"
	inventorycontrollers "github.com/sellora/sellora-backend/api/controllers/inventory"
	ordercontrollers "github.com/sellora/sellora-backend/api/controllers/orders"
	"github.com/sellora/sellora-backend/api/middleware"
	"github.com/sellora/sellora-backend/internal/inventory"
	"github.com/sellora/sellora-backend/internal/orders"
	"github.com/sellora/sellora-backend/pkg/config"
	"github.com/sellora/sellora-backend/pkg/db"
	"github.com/sellora/sellora-backend/pkg/logger"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP db.Pinger,
	registry *prometheus.Registry,
	inventoryService inventory.Service,
	ordersService orders.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/inventory", func(r chi.Router) {
			r.Get("/{sku}", inventorycontrollers.GetItem(inventoryService, logg))
			r.Get("/{sku}/movements", inventorycontrollers.ListMovements(inventoryService, logg))
			r.Post("/{sku}/restock", inventorycontrollers.Restock(inventoryService, logg))
		})

		r.Post("/reservations", inventorycontrollers.Reserve(inventoryService, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", ordercontrollers.Create(ordersService, logg))
			r.Get("/{orderId}", ordercontrollers.Detail(ordersService, logg))
			r.Post("/{orderId}/payment-status", ordercontrollers.ApplyPaymentStatus(ordersService, logg))
		})
	})

	return r
}
