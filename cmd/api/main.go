package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/cache"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/invoice"
	"storefront/internal/logger"
	"storefront/internal/messaging"
	"storefront/internal/payment"
	"storefront/internal/repository"
	"storefront/internal/server"
	"storefront/internal/service"
	"storefront/internal/telemetry"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func gracefulShutdown(apiServer *server.Server, logger *zap.Logger, done chan bool) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	logger.Info("Shutting down gracefully, press Ctrl+C again to force")
	stop()

	// in-flight requests get 30 seconds to finish
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	if err := apiServer.Close(); err != nil {
		logger.Error("Error closing server resources", zap.Error(err))
	}

	logger.Info("Server exiting")
	done <- true
}

func main() {
	ctx := context.Background()
	cfg := config.Load()

	log, err := logger.New(cfg.Server.Env)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting storefront API",
		zap.String("env", cfg.Server.Env),
		zap.String("port", cfg.Server.Port),
	)

	var closers []func() error

	if cfg.Telemetry.Enabled {
		shutdownTracer, err := telemetry.InitTracerProvider(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.ServiceVersion)
		if err != nil {
			log.Fatal("Failed to initialize tracer", zap.Error(err))
		}
		closers = append(closers, shutdownFunc(shutdownTracer))
	}

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider(cfg.Telemetry.ServiceName, cfg.Telemetry.ServiceVersion)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}
	closers = append(closers, shutdownFunc(shutdownMeter))

	metrics, err := telemetry.NewShopMetrics()
	if err != nil {
		log.Fatal("Failed to create shop metrics", zap.Error(err))
	}

	dbService, err := database.New(ctx, cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	db := dbService.DB()
	log.Info("Database health check", zap.Any("health", dbService.Health(ctx)))

	if err := database.RunMigrations(ctx, db, cfg.Shop.MigrationsDir, log); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		// cache and rate limiter fail open
		log.Warn("Redis unavailable at startup", zap.Error(err), zap.String("addr", cfg.Redis.Addr()))
	}

	var publisher messaging.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer := messaging.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.OrderTopic)
		publisher = producer
		closers = append(closers, producer.Close)
		log.Info("Publishing order events",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.OrderTopic),
		)
	}

	if cfg.Checkout.StripeSecretKey == "" {
		log.Warn("STRIPE_KEY is not set; checkout sessions will be rejected by the provider")
	}
	provider := payment.NewStripeProvider(cfg.Checkout.StripeSecretKey)

	invoiceStore := invoice.NewStore(cfg.Shop.InvoiceDir)
	if err := invoiceStore.EnsureDir(); err != nil {
		log.Fatal("Failed to prepare invoice directory", zap.Error(err), zap.String("dir", cfg.Shop.InvoiceDir))
	}

	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	cartRepo := repository.NewCartRepository(db)
	orderRepo := repository.NewOrderRepository(db)

	carts := service.NewCartService(cartRepo, productRepo, cache.NewRedisCache(rdb), log)
	orders := service.NewOrderService(carts, orderRepo, publisher, metrics, log)

	svc := server.Services{
		Users:    service.NewUserService(userRepo, cfg.JWT.Secret),
		Catalog:  service.NewCatalogService(productRepo, cfg.Shop.PageSize),
		Carts:    carts,
		Checkout: service.NewCheckoutService(carts, provider, cfg.Checkout, metrics, log),
		Orders:   orders,
		Invoices: service.NewInvoiceService(orderRepo, invoice.NewGenerator(), invoiceStore, metrics, log),
	}

	srv := server.NewServer(cfg, log, svc, server.Dependencies{
		DB:      dbService,
		Redis:   rdb,
		Metrics: metricsHandler,
		Closers: closers,
	})

	done := make(chan bool, 1)
	go gracefulShutdown(srv, log, done)

	log.Info("Server listening", zap.String("addr", srv.Addr))

	err = srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		log.Fatal("HTTP server error", zap.Error(err))
	}

	<-done
	log.Info("Graceful shutdown complete")
}

// shutdownFunc adapts a telemetry shutdown to a closer with a bounded deadline.
func shutdownFunc(shutdown func(context.Context) error) func() error {
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return shutdown(ctx)
	}
}
