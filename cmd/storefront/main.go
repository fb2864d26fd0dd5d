package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fjod/storefront/internal/cache"
	"github.com/fjod/storefront/internal/config"
	storegrpc "github.com/fjod/storefront/internal/grpc"
	storehttp "github.com/fjod/storefront/internal/http"
	"github.com/fjod/storefront/internal/metrics"
	"github.com/fjod/storefront/internal/payment"
	"github.com/fjod/storefront/internal/publisher"
	"github.com/fjod/storefront/internal/repository"
	"github.com/fjod/storefront/internal/service"
	"github.com/fjod/storefront/pkg/logger"
	"github.com/fjod/storefront/pkg/tracing"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		slog.Error("storefront stopped with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(logger.Options{Service: "storefront", Env: cfg.Env, Level: cfg.LogLevel})
	slog.SetDefault(log)
	log.Info("storefront starting...")

	shutdownTracing, err := tracing.Setup(context.Background(), tracing.Options{
		Service:  "storefront",
		Env:      cfg.Env,
		Exporter: cfg.TraceExporter,
		Endpoint: cfg.OTLPEndpoint,
	})
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			log.Warn("failed to flush traces", slog.String("error", err.Error()))
		}
	}()

	// Database setup
	repo, err := repository.NewRepository(&cfg.DB, log)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer repo.Close()

	if err := repo.RunMigrations(&cfg.DB); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	log.Info("database migrations completed")

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rdb.Close()
	deduper := cache.NewRedisEventDeduper(rdb, cfg.WebhookDedupe)

	gateway := newGateway(cfg, log)
	m := metrics.New()

	writer := publisher.NewKafkaWriter(cfg.KafkaTopic, cfg.KafkaBrokers...)
	defer writer.Close()
	poller := publisher.NewOutboxPoller(repo, writer, m.Domain, log)

	services := storehttp.Services{
		Carts:      service.NewCartService(repo, m.Domain, log),
		Checkout:   service.NewCheckoutService(repo, gateway, m.Domain, log),
		Orders:     service.NewOrderService(repo, m.Domain, log),
		Inventory:  service.NewInventoryService(repo, log),
		Reconciler: service.NewReconcileService(repo, deduper, m.Domain, log),
	}
	router := storehttp.NewRouter(services, storehttp.RouterConfig{
		RequestTimeout: cfg.RequestTimeout,
		WebhookSecret:  cfg.StripeWebhookSecret,
	}, m, repo, log)

	httpServer := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	health := storegrpc.NewHealthServer(repo, cfg.HealthInterval, log)
	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		return fmt.Errorf("listen grpc: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		poller.Run(gctx)
		return nil
	})
	g.Go(func() error {
		health.Watch(gctx)
		return nil
	})
	g.Go(func() error {
		log.Info("grpc health server listening", slog.String("port", cfg.GRPCPort))
		return health.Server().Serve(lis)
	})
	g.Go(func() error {
		log.Info("http server listening", slog.String("port", cfg.HTTPPort))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down storefront...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		health.Server().GracefulStop()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("storefront stopped")
	return nil
}

func newGateway(cfg *config.Config, log *slog.Logger) payment.Gateway {
	var next payment.Gateway
	switch cfg.PaymentProvider {
	case config.PaymentProviderFake:
		log.Warn("using in-memory payment gateway")
		next = payment.NewFakeGateway(cfg.StripePublishableKey)
	default:
		next = payment.NewStripeGateway(cfg.StripeSecretKey, cfg.StripePublishableKey, cfg.Currency)
	}
	return payment.NewBreakerGateway(next, cfg.PaymentTimeout, payment.BreakerSettings(), log)
}
