package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"catalog-service/app/domain"
	handler "catalog-service/app/handler/api"
	eventhandler "catalog-service/app/handler/event"
	"catalog-service/app/repository/broker"
	"catalog-service/app/repository/db"
	"catalog-service/app/usecase"
	"catalog-service/config"
	"catalog-service/pkg/logger"
	"catalog-service/pkg/metrics"
	"catalog-service/pkg/retry"

	"github.com/go-playground/validator/v10"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// init logger
	logger.InitLogger()

	// cancelled on SIGINT/SIGTERM so a blocked startup can be interrupted too
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// init config
	cfg, err := config.InitConfig(ctx)
	if err != nil {
		slog.Error("failed to init config", "error", err)
		os.Exit(1)
	}

	// init database
	if cfg.RunMigrations {
		sqlDB, err := db.NewPostgres(cfg.Db)
		if err != nil {
			slog.Error("DB connection failed", "error", err)
			os.Exit(1)
		}
		err = db.RunMigrations(ctx, sqlDB)
		_ = sqlDB.Close()
		if err != nil {
			slog.Error("migrations failed", "error", err)
			os.Exit(1)
		}
	}

	pool, err := db.NewPool(ctx, cfg.Db)
	if err != nil {
		slog.Error("DB connection failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	messageMetrics := metrics.New(registry)

	// optional stock mirror on NATS JetStream
	stockNotifier := broker.NewNoopStockNotifier()
	if cfg.Nats.Url != "" {
		nc, err := nats.Connect(cfg.Nats.Url)
		if err != nil {
			slog.Error("Error connecting to NATS", "error", err)
			os.Exit(1)
		}
		defer nc.Drain()

		js, err := jetstream.New(nc)
		if err != nil {
			slog.Error("Error creating JetStream context", "error", err)
			os.Exit(1)
		}
		if err := broker.EnsureStream(ctx, js, cfg.Nats.StreamName); err != nil {
			slog.Error("create stock stream failed", "error", err)
			os.Exit(1)
		}
		stockNotifier = broker.NewStockNotifier(js, cfg.Nats.StreamName)
	}

	// broker
	topology := broker.NewTopology(cfg.Broker.Exchange, cfg.ServiceName)
	connManager := broker.NewConnectionManager(broker.ConnectionConfig{
		URL:            cfg.Broker.Url,
		Retry:          retry.Policy{MaxAttempts: cfg.Broker.MaxRetries, Delay: cfg.Broker.RetryDelay()},
		ReconnectDelay: cfg.Broker.ReconnectDelay(),
	}, topology, broker.DialAMQP)

	publisher := broker.NewPublisher(connManager, topology, broker.PublisherConfig{
		AppID:   cfg.ServiceName,
		Timeout: cfg.Broker.PublishTimeout(),
	}, messageMetrics)
	consumer := broker.NewConsumer(connManager, topology, broker.Decoders(validator.New()), messageMetrics, cfg.ServiceName)

	productRepo := db.NewProductRepository(pool)
	inventoryUsecase := usecase.NewInventoryUsecase(productRepo)
	productEvents := usecase.NewProductEvents(publisher, cfg)
	stockUsecase := usecase.NewStockUsecase(inventoryUsecase, productEvents, stockNotifier, messageMetrics)
	observer := usecase.NewObserver()

	if err := eventhandler.SetupRouter(consumer, stockUsecase, observer.Observe); err != nil {
		slog.Error("event subscriptions failed", "error", err)
		os.Exit(1)
	}

	if err := connManager.Connect(ctx); err != nil {
		if cfg.Broker.Required || ctx.Err() != nil || errors.Is(err, domain.ErrTopologyMismatch) {
			slog.Error("broker connection failed", "error", err)
			os.Exit(1)
		}
		slog.Warn("broker unavailable, continuing without RabbitMQ", "error", err)
		connManager.ScheduleReconnect()
	}

	// Initialize HTTP web framework
	webLogger := logger.New(os.Stdout, slog.LevelInfo)
	app := handler.NewServer(webLogger, handler.NewHealthHandler(cfg.ServiceName, connManager), registry)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("Failed to listen", "port", cfg.Port, "error", err)
			return
		}
	}()

	<-ctx.Done()
	stop()
	slog.Info("Gracefully shutdown")

	if err := app.Shutdown(); err != nil {
		slog.Warn("Unfortunately the shutdown wasn't smooth", "err", err)
	}
	consumer.Stop()
	if err := connManager.Close(); err != nil {
		slog.Warn("broker close failed", "error", err)
	}
}
