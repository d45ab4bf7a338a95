// Package routes assembles the HTTP router.
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bazaar-service/bazaar_service/internal/api/handlers"
	"github.com/bazaar-service/bazaar_service/internal/api/middleware"
	"github.com/bazaar-service/bazaar_service/pkg/logger"
)

// Handlers groups every handler set the router mounts.
type Handlers struct {
	Health      *handlers.HealthHandlers
	Reconcile   *handlers.ReconcileHandlers
	Balance     *handlers.BalanceHandlers
	Marketplace *handlers.MarketplaceHandlers
	Order       *handlers.OrderHandlers
	Payout      *handlers.PayoutHandlers
}

// SetupRoutes configures the gin engine with middleware and all routes.
func SetupRoutes(h Handlers, log *logger.Logger, environment string) *gin.Engine {
	if environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))

	router.GET("/health", h.Health.Health)
	router.GET("/ready", h.Health.Ready)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/sellers/:id/balances", h.Balance.SellerBalances)

		v1.POST("/marketplaces/:id/activation", h.Marketplace.Activate)

		v1.POST("/orders", h.Order.Create)
		v1.POST("/orders/:id/transaction", h.Order.Submit)
		v1.POST("/orders/:id/cancel", h.Order.Cancel)

		v1.POST("/payouts", h.Payout.Request)
		v1.POST("/payouts/:id/transaction", h.Payout.Submit)
		v1.POST("/payouts/:id/cancel", h.Payout.Cancel)

		admin := v1.Group("/admin")
		{
			admin.POST("/reconcile/:chainId", h.Reconcile.Reconcile)
		}
	}

	return router
}
