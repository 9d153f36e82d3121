package server

import (
	"fmt"
	"net/http"
	"time"

	"storefront/internal/config"
	"storefront/internal/database"
	custommiddleware "storefront/internal/middleware"
	"storefront/internal/service"
	"storefront/internal/telemetry"
	"storefront/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// Services bundles what the handlers call into.
type Services struct {
	Users    service.UserService
	Catalog  service.CatalogService
	Carts    service.CartService
	Checkout service.CheckoutService
	Orders   service.OrderService
	Invoices service.InvoiceService
}

// Dependencies are the process-wide resources the server uses and closes.
type Dependencies struct {
	DB       database.Service
	Redis    redis.UniversalClient // nil disables rate limiting
	Metrics  http.Handler          // nil disables /metrics
	Renderer transport.Renderer    // nil means JSON
	Closers  []func() error
}

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	deps   Dependencies
}

func NewServer(cfg *config.Config, logger *zap.Logger, svc Services, deps Dependencies) *Server {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(telemetry.RouteTag)
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(middleware.Compress(5))
	router.Use(custommiddleware.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.IsDevelopment()))

	router.Get("/health", healthHandler(deps.DB))
	if deps.Metrics != nil {
		router.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	renderer := deps.Renderer
	if renderer == nil {
		renderer = transport.JSONRenderer{}
	}

	limit := func(next http.Handler) http.Handler { return next }
	if deps.Redis != nil {
		limit = custommiddleware.RateLimitMiddleware(deps.Redis, custommiddleware.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimit.Requests,
			Window:            cfg.RateLimit.Window,
			KeyPrefix:         "rate_limit",
		}, logger)
	}

	transport.NewShopHandler(svc.Catalog, renderer, logger).RegisterRoutes(router)

	router.Group(func(r chi.Router) {
		r.Use(custommiddleware.AuthMiddleware(svc.Users, logger))

		transport.NewCartHandler(svc.Carts, renderer, logger).RegisterRoutes(r, limit)
		transport.NewCheckoutHandler(svc.Checkout, svc.Orders, renderer, logger).RegisterRoutes(r, limit)
		transport.NewOrderHandler(svc.Orders, svc.Invoices, renderer, logger).RegisterRoutes(r)
	})

	return &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      otelhttp.NewHandler(router, "storefront"),
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		deps:   deps,
	}
}

func healthHandler(db database.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db == nil {
			custommiddleware.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
			return
		}

		stats := db.Health(r.Context())
		status := http.StatusOK
		if stats["status"] != "up" {
			status = http.StatusServiceUnavailable
		}
		custommiddleware.RespondWithJSON(w, status, stats)
	}
}

// Close releases the resources handed to the server, database last.
func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	for _, closeFn := range s.deps.Closers {
		if err := closeFn(); err != nil {
			s.logger.Error("Failed to close resource", zap.Error(err))
		}
	}

	if s.deps.Redis != nil {
		if err := s.deps.Redis.Close(); err != nil {
			s.logger.Error("Failed to close redis client", zap.Error(err))
		}
	}

	if s.deps.DB != nil {
		if err := s.deps.DB.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	_ = s.logger.Sync()
	return nil
}
