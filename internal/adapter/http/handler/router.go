package handler

import (
	"ton-payment-gateway/internal/adapter/http/middleware"
	"ton-payment-gateway/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	ReconcileSvc   ports.ReconciliationService
	MerchantSvc    ports.MerchantService
	AddressSvc     ports.AddressService
	WithdrawalSvc  ports.WithdrawalService
	TxQuerySvc     ports.TransactionQueryService
	AnalyticsSvc   ports.AnalyticsService
	TokenSvc       ports.TokenService
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep — verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	v1 := r.Group("/api/v1")

	// --- Inbound notifications (no auth: the provider signs nothing, the
	// chain itself is the source of truth and every notification is
	// re-verified against it) ---
	webhookHandler := NewWebhookHandler(deps.ReconcileSvc)
	v1.POST("/webhook/ton", webhookHandler.HandleDeposit)

	// --- JWT-authenticated routes ---
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)

	merchantHandler := NewMerchantHandler(deps.MerchantSvc, deps.WithdrawalSvc)
	merchants := v1.Group("/merchants", jwtAuth)
	{
		merchants.POST("", merchantHandler.Create)
		merchants.GET("", merchantHandler.List)
		merchants.GET("/:id", merchantHandler.Get)
		merchants.PUT("/:id", merchantHandler.Update)
		merchants.DELETE("/:id", merchantHandler.Delete)
		merchants.GET("/:id/balances", merchantHandler.GetBalances)
		merchants.POST("/:id/withdraw", merchantHandler.Withdraw)
		merchants.POST("/:id/collect-addresses", merchantHandler.Sweep)
	}

	addressHandler := NewAddressHandler(deps.AddressSvc, deps.MerchantSvc)
	addresses := v1.Group("/addresses", jwtAuth)
	{
		addresses.POST("", addressHandler.Create)
		addresses.GET("", addressHandler.ListByMerchant)
	}

	txHandler := NewTransactionHandler(deps.TxQuerySvc, deps.MerchantSvc)
	transactions := v1.Group("/transactions", jwtAuth)
	{
		transactions.GET("", txHandler.List)
		transactions.GET("/:id", txHandler.Get)
	}

	// --- Admin-only analytics ---
	analyticsHandler := NewAnalyticsHandler(deps.AnalyticsSvc)
	analytics := v1.Group("/analytics", jwtAuth, middleware.AdminOnly())
	{
		analytics.GET("/overview", analyticsHandler.Overview)
		analytics.GET("/funnel", analyticsHandler.Funnel)
		analytics.GET("/chart/:metric", analyticsHandler.Series)
		analytics.GET("/retention", analyticsHandler.Retention)
		analytics.GET("/new-merchants", analyticsHandler.NewMerchants)
		analytics.GET("/hotspots", analyticsHandler.Hotspots)
		analytics.GET("/clusters", analyticsHandler.Clusters)
		analytics.GET("/alerts", analyticsHandler.Alerts)
		analytics.GET("/heatmap", analyticsHandler.Heatmap)
		analytics.GET("/slowest", analyticsHandler.Slowest)
		analytics.GET("/forecast/:metric", analyticsHandler.Forecast)
	}

	return r
}
