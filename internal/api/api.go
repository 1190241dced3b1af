// internal/api/api.go
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/vrukshagro/backend-go/internal/api/handlers"
	"github.com/vrukshagro/backend-go/internal/api/middleware"
	"github.com/vrukshagro/backend-go/internal/service"
)

type Services struct {
	SlotService     *service.SlotService
	TransferService *service.TransferService
	WalletService   *service.WalletService
	OrderService    *service.OrderService
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	// Add middleware
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api/v1")

	if services != nil {
		if services.SlotService != nil {
			slotHandler := handlers.NewSlotHandler(services.SlotService)
			slotGroup := apiGroup.Group("/slots")
			{
				slotGroup.POST("", slotHandler.RegisterSlot)
				slotGroup.GET("/:slotId", slotHandler.GetPeriod)
				slotGroup.POST("/:slotId/reserve", slotHandler.Reserve)
				slotGroup.POST("/:slotId/release", slotHandler.Release)
			}
		}

		if services.TransferService != nil {
			transferHandler := handlers.NewTransferHandler(services.TransferService)
			outwardGroup := apiGroup.Group("/outward")
			{
				outwardGroup.POST("", transferHandler.CreateBatch)
				outwardGroup.GET("/:batchId", transferHandler.GetBatch)
				outwardGroup.POST("/:batchId/lab", transferHandler.AddLabEntry)
				outwardGroup.POST("/:batchId/transfers/:stage", transferHandler.Transfer)
			}
		}

		if services.WalletService != nil {
			walletHandler := handlers.NewWalletHandler(services.WalletService)
			walletGroup := apiGroup.Group("/dealers/:dealerId/wallet")
			{
				walletGroup.GET("", walletHandler.GetWallet)
				walletGroup.POST("/transactions", walletHandler.RecordTransaction)
				walletGroup.POST("/payments", walletHandler.AddPayment)
			}
		}

		if services.OrderService != nil {
			orderHandler := handlers.NewOrderHandler(services.OrderService)
			orderGroup := apiGroup.Group("/orders")
			{
				orderGroup.POST("", orderHandler.CreateOrder)
				orderGroup.GET("/:id", orderHandler.GetOrder)
				orderGroup.PATCH("/:id", orderHandler.UpdateOrder)
				orderGroup.POST("/:id/status", orderHandler.ChangeStatus)
				orderGroup.POST("/:id/payments", orderHandler.AddPayment)
				orderGroup.POST("/:id/cancel", orderHandler.CancelOrder)
			}
		}
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
