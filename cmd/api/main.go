package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ton-payment-gateway/config"
	forecastClient "ton-payment-gateway/internal/adapter/forecast"
	httpHandler "ton-payment-gateway/internal/adapter/http/handler"
	pgStorage "ton-payment-gateway/internal/adapter/storage/postgres"
	redisStorage "ton-payment-gateway/internal/adapter/storage/redis"
	tonClient "ton-payment-gateway/internal/adapter/ton"
	"ton-payment-gateway/internal/core/ports"
	"ton-payment-gateway/internal/service"
	"ton-payment-gateway/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting TON Payment Gateway")

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize repositories
	merchantRepo := pgStorage.NewMerchantRepo(pool)
	addressRepo := pgStorage.NewAddressRepo(pool)
	txRepo := pgStorage.NewTransactionRepo(pool)
	dedupCache := redisStorage.NewDedupCache(rdb)

	// Initialize blockchain and forecast collaborators
	ton := tonClient.NewClient(cfg.Ton, log)
	registry := tonClient.NewWebhookRegistry(cfg.Ton, log)
	forecast := forecastClient.NewClient(cfg.Forecast, log)

	// Initialize core services
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Issuer)
	balanceSvc := service.NewBalanceService(txRepo, ton, cfg.Fees.NetworkReserveDecimal(), log)
	dispatchSvc := service.NewDispatchService(&http.Client{Timeout: cfg.Dispatch.Timeout}, cfg.Dispatch.Timeout, log)
	reconcileSvc := service.NewReconciliationService(
		txRepo, merchantRepo, addressRepo, ton, dedupCache, dispatchSvc,
		cfg.Fees.DepositFeeDecimal(), log,
	)
	withdrawalSvc := service.NewWithdrawalService(
		merchantRepo, addressRepo, txRepo, balanceSvc, ton,
		cfg.Fees.NetworkReserveDecimal(), log,
	)
	merchantSvc := service.NewMerchantService(merchantRepo, ton, registry, balanceSvc, log)
	addressSvc := service.NewAddressService(addressRepo, merchantRepo, ton, registry, log)
	txQuerySvc := service.NewTransactionQueryService(txRepo, log)
	analyticsSvc := service.NewAnalyticsService(txRepo, merchantRepo, forecast, log)

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		ReconcileSvc:   reconcileSvc,
		MerchantSvc:    merchantSvc,
		AddressSvc:     addressSvc,
		WithdrawalSvc:  withdrawalSvc,
		TxQuerySvc:     txQuerySvc,
		AnalyticsSvc:   analyticsSvc,
		TokenSvc:       tokenSvc,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
