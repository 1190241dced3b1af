// backend-go/cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vrukshagro/backend-go/internal/api"
	"github.com/vrukshagro/backend-go/internal/cache"
	"github.com/vrukshagro/backend-go/internal/config"
	"github.com/vrukshagro/backend-go/internal/repository/postgres"
	"github.com/vrukshagro/backend-go/internal/service"
	"github.com/vrukshagro/backend-go/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger.SetLevel(cfg.Server.Mode)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize database
	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Initialize slot availability cache
	slotCache, err := cache.NewSlotCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Slot cache unavailable, falling back to direct reads")
		slotCache = cache.NewNoopSlotCache()
	}

	// Initialize repositories
	slotRepo := postgres.NewSlotRepository(db)
	outwardRepo := postgres.NewOutwardRepository(db)
	walletRepo := postgres.NewWalletRepository(db)
	orderRepo := postgres.NewOrderRepository(db)

	// Initialize services
	walletService := service.NewWalletService(walletRepo)
	services := &api.Services{
		SlotService:     service.NewSlotService(slotRepo, slotCache),
		TransferService: service.NewTransferService(outwardRepo),
		WalletService:   walletService,
		OrderService:    service.NewOrderService(orderRepo, walletService, slotCache),
	}

	// Initialize HTTP server
	router := api.NewRouter(services, cfg.Server.AllowedOrigins)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
