package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/cache"
	"storefront/internal/config"
	"storefront/internal/events"
	"storefront/internal/logging"
	"storefront/internal/metrics"
	"storefront/internal/models"
	"storefront/internal/payments"
	"storefront/internal/repositories"
	"storefront/internal/server"
	"storefront/internal/services"
	"storefront/pkg/kafka"
	"storefront/pkg/rabbitmq"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.AppEnv)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Database ---
	db, err := repositories.OpenDatabase(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	productRepo := repositories.NewGORMProductRepository(db)
	orderRepo, closeOrders := openOrderStore(ctx, cfg, db, logger)
	defer closeOrders()

	// --- Product cache ---
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("Redis unavailable, product cache disabled", zap.String("addr", cfg.RedisAddr), zap.Error(err))
			rdb.Close()
			rdb = nil
		} else {
			defer rdb.Close()
		}
	}
	catalog := cache.NewCatalogCache(rdb, productRepo, logger)

	// --- Event broker ---
	publisher := openPublisher(ctx, cfg, logger)
	defer publisher.Close()

	// --- Metrics ---
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// --- Services ---
	gateway := payments.NewGuardedGateway(
		payments.NewMockGateway(payments.MockConfig{
			Latency:   cfg.PaymentLatency,
			Secret:    cfg.PaymentSecret,
			SecretTTL: cfg.PaymentSecretTTL,
		}),
		cfg.PaymentTimeout, m, logger)
	pricing := services.NewPricingCalculator(catalog, services.PricingConfig{TaxRate: cfg.TaxRate, Currency: cfg.Currency})
	productService := services.NewProductService(productRepo, catalog, cfg.Currency, logger)
	orderService := services.NewOrderService(orderRepo, pricing, gateway, publisher, m, logger)

	seedProducts(ctx, productService, logger)

	if cfg.OrphanSweepInterval > 0 {
		go orderService.RunOrphanSweeper(ctx, cfg.OrphanSweepInterval, cfg.OrphanMinAge)
		logger.Info("Orphan sweeper started", zap.Duration("interval", cfg.OrphanSweepInterval))
	}

	// --- HTTP server ---
	app := server.New(cfg, server.Deps{
		Orders:   orderService,
		Products: productService,
		Metrics:  m,
		Gatherer: reg,
		Logger:   logger,
	})

	go func() {
		logger.Info("Starting server", zap.String("addr", cfg.AppPort), zap.String("env", cfg.AppEnv))
		if err := app.Listen(cfg.AppPort); err != nil {
			logger.Error("Server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("Error during Fiber shutdown", zap.Error(err))
	}
	logger.Info("Server gracefully stopped")
}

// openOrderStore returns the order repository selected by ORDER_STORE and its close func.
func openOrderStore(ctx context.Context, cfg *config.Config, db *gorm.DB, logger *zap.Logger) (repositories.OrderRepository, func()) {
	switch cfg.OrderStore {
	case "mongo":
		mdb, err := repositories.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
		}
		repo := repositories.NewMongoOrderRepository(mdb)
		if err := repo.CreateIndexes(ctx); err != nil {
			logger.Fatal("Failed to create order indexes", zap.Error(err))
		}
		logger.Info("Using MongoDB order store", zap.String("database", cfg.MongoDB))
		return repo, func() {
			if err := mdb.Client().Disconnect(context.Background()); err != nil {
				logger.Warn("Failed to disconnect MongoDB", zap.Error(err))
			}
		}
	case "memory":
		logger.Warn("Using in-memory order store; orders are lost on restart")
		return repositories.NewMockOrderRepository(), func() {}
	default:
		return repositories.NewGORMOrderRepository(db), func() {}
	}
}

// openPublisher connects the configured broker. Connection failures disable
// events instead of stopping the API.
func openPublisher(ctx context.Context, cfg *config.Config, logger *zap.Logger) events.Publisher {
	switch cfg.EventBroker {
	case "rabbitmq":
		client, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL}, logger)
		if err != nil {
			logger.Warn("RabbitMQ unavailable, order events disabled", zap.Error(err))
			return events.NopPublisher{}
		}
		if err := client.Consume(ctx, events.LogOrderEvent(logger)); err != nil {
			logger.Warn("Failed to start RabbitMQ consumer", zap.Error(err))
		}
		return events.NewRabbitMQPublisher(client)
	case "kafka":
		publisher, err := events.NewKafkaPublisher(kafka.NewClient(cfg.KafkaBrokers), cfg.KafkaTopic)
		if err != nil {
			logger.Warn("Kafka unavailable, order events disabled", zap.Error(err))
			return events.NopPublisher{}
		}
		return publisher
	default:
		return events.NopPublisher{}
	}
}

// seedProducts populates an empty catalog with some initial data.
func seedProducts(ctx context.Context, service *services.ProductService, logger *zap.Logger) {
	page, err := service.ListProducts(ctx, services.ProductQuery{Limit: 1})
	if err != nil {
		logger.Warn("Failed to inspect catalog for seeding", zap.Error(err))
		return
	}
	if page.TotalItems > 0 {
		return
	}

	category, err := service.EnsureCategory(ctx, "Computers", "computers")
	if err != nil {
		logger.Warn("Failed to seed category", zap.Error(err))
		return
	}

	products := []models.Product{
		{Name: "Laptop", Description: "High performance laptop", Price: 1200.00, Stock: 10},
		{Name: "Keyboard", Description: "Mechanical keyboard", Price: 75.00, Stock: 25},
		{Name: "Mouse", Description: "Ergonomic wireless mouse", Price: 25.00, Stock: 50},
	}
	for i := range products {
		products[i].IsActive = true
		products[i].CategoryID = &category.ID
		if err := service.CreateProduct(ctx, &products[i]); err != nil {
			logger.Warn("Error seeding product", zap.String("name", products[i].Name), zap.Error(err))
			continue
		}
		logger.Info("Seeded product", zap.String("name", products[i].Name), zap.String("id", products[i].ID))
	}
}
