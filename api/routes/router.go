package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Maiconloureiro96-cyber/distribuidora/api/controllers"
	"github.com/Maiconloureiro96-cyber/distribuidora/api/middleware"
	"github.com/Maiconloureiro96-cyber/distribuidora/internal/catalog"
	"github.com/Maiconloureiro96-cyber/distribuidora/internal/orders"
	"github.com/Maiconloureiro96-cyber/distribuidora/internal/receipts"
	"github.com/Maiconloureiro96-cyber/distribuidora/internal/reports"
	"github.com/Maiconloureiro96-cyber/distribuidora/internal/session"
	"github.com/Maiconloureiro96-cyber/distribuidora/pkg/config"
	"github.com/Maiconloureiro96-cyber/distribuidora/pkg/db"
	"github.com/Maiconloureiro96-cyber/distribuidora/pkg/logger"
	"github.com/Maiconloureiro96-cyber/distribuidora/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	messenger controllers.ConnectionChecker,
	botService controllers.MessageHandler,
	catalogService catalog.Service,
	ordersService orders.Service,
	reportsService *reports.Service,
	receiptsService *receipts.Service,
	sessionStore *session.Store,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	// A nil *redis.Client must not reach the readiness probe as a
	// non-nil interface.
	var cache redis.Pinger
	if redisClient != nil {
		cache = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, cache, messenger))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/webhook", func(r chi.Router) {
		var dedupe redis.IdempotencyStore
		if redisClient != nil {
			dedupe = redisClient
		}
		r.Post("/whatsapp", controllers.WhatsAppWebhook(botService, dedupe, cfg.Bot, logg))
	})

	if !cfg.App.IsProd() {
		r.Post("/api/admin/auth/token", controllers.MintAdminToken(cfg.Admin, logg))
	}

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.AdminAuth(cfg.Admin, logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(catalogService, logg))
			r.Post("/", controllers.CreateProduct(catalogService, logg))
			r.Get("/low-stock", controllers.ListLowStockProducts(catalogService, logg))
			r.Get("/{productID}", controllers.GetProduct(catalogService, logg))
			r.Patch("/{productID}/stock", controllers.SetProductStock(catalogService, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListOrders(ordersService, logg))
			r.Get("/{orderID}", controllers.GetOrder(ordersService, logg))
			r.Patch("/{orderID}/status", controllers.UpdateOrderStatus(ordersService, logg))
			r.Post("/{orderID}/cancel", controllers.CancelOrder(ordersService, logg))
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/daily", controllers.DailyReport(reportsService, logg))
			r.Get("/monthly", controllers.MonthlyReport(reportsService, logg))
			r.Get("/period", controllers.PeriodReport(reportsService, logg))
			r.Get("/top-customers", controllers.TopCustomersReport(reportsService, logg))
			r.Get("/hourly", controllers.HourlySalesReport(reportsService, logg))
			r.Get("/daily/pdf", controllers.SalesReportPDF(reportsService, receiptsService, logg))
		})

		r.Get("/stats", controllers.GeneralStats(reportsService, sessionStore, logg))
	})

	return r
}
