package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/creamcommerce/commerce-backend/api/routes"
	"github.com/creamcommerce/commerce-backend/internal/checkout"
	"github.com/creamcommerce/commerce-backend/internal/orders"
	"github.com/creamcommerce/commerce-backend/internal/payments"
	"github.com/creamcommerce/commerce-backend/internal/points"
	product "github.com/creamcommerce/commerce-backend/internal/products"
	"github.com/creamcommerce/commerce-backend/pkg/config"
	"github.com/creamcommerce/commerce-backend/pkg/db"
	"github.com/creamcommerce/commerce-backend/pkg/logger"
	"github.com/creamcommerce/commerce-backend/pkg/metrics"
	"github.com/creamcommerce/commerce-backend/pkg/migrate"
	"github.com/creamcommerce/commerce-backend/pkg/outbox"
	"github.com/creamcommerce/commerce-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gormDB := dbClient.DB()
	orderRepo := orders.NewRepository(gormDB)
	paymentRepo := payments.NewRepository(gormDB)
	walletRepo := points.NewRepository(gormDB)
	catalogRepo := product.NewRepository(gormDB)
	outboxSvc := outbox.NewService(outbox.NewRepository(gormDB), logg)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	sagaMetrics := metrics.NewSagaMetrics(registry)

	pointsSvc, err := points.NewService(walletRepo, dbClient)
	exitOnErr(logg, "failed to create points service", err)

	productSvc, err := product.NewService(catalogRepo, dbClient, redisClient)
	exitOnErr(logg, "failed to create products service", err)

	paymentSvc, err := payments.NewService(paymentRepo, dbClient)
	exitOnErr(logg, "failed to create payments service", err)

	orderSvc, err := orders.NewService(orderRepo, catalogRepo, dbClient, outboxSvc)
	exitOnErr(logg, "failed to create orders service", err)

	checkoutSvc, err := checkout.NewService(
		orderRepo, paymentRepo, walletRepo, catalogRepo,
		dbClient, outboxSvc, redisClient, sagaMetrics, logg,
	)
	exitOnErr(logg, "failed to create checkout service", err)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	router := routes.NewRouter(routes.Deps{
		Config:   cfg,
		Logger:   logg,
		DB:       dbClient,
		Cache:    redisClient,
		Orders:   orderSvc,
		Payments: paymentSvc,
		Points:   pointsSvc,
		Products: productSvc,
		Checkout: checkoutSvc,
		Metrics:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-stop:
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}

func exitOnErr(logg *logger.Logger, msg string, err error) {
	if err != nil {
		logg.Error(context.Background(), msg, err)
		os.Exit(1)
	}
}
