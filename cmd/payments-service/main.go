package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/nurpe/marketplace-payments/internal/auth"
	"github.com/nurpe/marketplace-payments/internal/config"
	"github.com/nurpe/marketplace-payments/internal/db"
	"github.com/nurpe/marketplace-payments/internal/excel"
	httphandler "github.com/nurpe/marketplace-payments/internal/http"
	"github.com/nurpe/marketplace-payments/internal/http/middleware"
	"github.com/nurpe/marketplace-payments/internal/logger"
	"github.com/nurpe/marketplace-payments/internal/metrics"
	"github.com/nurpe/marketplace-payments/internal/pdf"
	"github.com/nurpe/marketplace-payments/internal/repository"
	"github.com/nurpe/marketplace-payments/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment, cfg.LogLevel)

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	profileRepo := repository.NewProfileRepository(database)
	contractRepo := repository.NewContractRepository(database)
	jobRepo := repository.NewJobRepository(database)
	paymentStore := repository.NewPaymentStore(database, repository.TxOptions{
		Isolation:   cfg.Payments.IsolationLevel(),
		LockTimeout: cfg.Payments.LockTimeout,
	})

	appMetrics := metrics.New()

	paymentService := service.NewPaymentService(paymentStore, appMetrics, service.PaymentOptions{
		MaxRetries:   cfg.Payments.MaxRetries,
		RetryBackoff: cfg.Payments.RetryBackoff,
	})
	contractService := service.NewContractService(contractRepo)
	jobService := service.NewJobService(jobRepo, profileRepo, pdf.NewGenerator(), excel.NewGenerator())

	resolver := auth.NewResolver(profileRepo, auth.NewParser(cfg.Auth.AccessSecret))
	handler := httphandler.NewHandler(paymentService, contractService, jobService, log)
	authMiddleware := middleware.Auth(resolver, log)
	router := httphandler.NewRouter(handler, authMiddleware, httphandler.RouterOptions{
		Environment: cfg.Environment,
		CORSOrigins: cfg.HTTP.CORSOrigins,
		Metrics:     appMetrics,
		Health: func(ctx context.Context) error {
			return db.Ping(ctx, database)
		},
		Log: log,
	})

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("starting payments service")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			log.Error().Err(err).Msg("server stopped")
			os.Exit(1)
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	if sqlDB, err := database.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
