package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/DarkRecklessness/ShopService/api/controllers"
	"github.com/DarkRecklessness/ShopService/api/middleware"
	"github.com/DarkRecklessness/ShopService/internal/orders"
	"github.com/DarkRecklessness/ShopService/internal/payments"
	"github.com/DarkRecklessness/ShopService/pkg/logger"
)

// Common carries what both services mount next to their command API.
type Common struct {
	Service  string
	Logger   *logger.Logger
	Gatherer prometheus.Gatherer
	Checks   []controllers.ReadinessCheck
}

func NewOrderRouter(common Common, svc orders.Service) http.Handler {
	r := newBaseRouter(common)
	logg := common.Logger
	r.Route("/orders", func(r chi.Router) {
		r.Post("/", controllers.CreateOrder(svc, logg))
		r.Get("/user/{userId}", controllers.ListUserOrders(svc, logg))
		r.Get("/{orderId}", controllers.GetOrder(svc, logg))
	})
	return r
}

func NewPaymentRouter(common Common, svc payments.Service) http.Handler {
	r := newBaseRouter(common)
	logg := common.Logger
	r.Route("/account", func(r chi.Router) {
		r.Post("/", controllers.CreateAccount(svc, logg))
		r.Post("/topup", controllers.TopUp(svc, logg))
		r.Get("/balance", controllers.Balance(svc, logg))
	})
	return r
}

func newBaseRouter(common Common) chi.Router {
	logg := common.Logger
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(common.Service))
		r.Get("/ready", controllers.HealthReady(logg, common.Checks...))
	})

	gatherer := common.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return r
}
