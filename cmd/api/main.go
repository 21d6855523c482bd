// Command api runs the research backend as a standalone HTTP server.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"loupe-backend/infrastructure/config"
	"loupe-backend/infrastructure/di"
	"loupe-backend/interfaces/http/rest"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	container, err := di.NewContainer(ctx, cfg)
	cancel()
	if err != nil {
		log.Fatalf("failed to initialize: %v", err)
	}
	defer container.Shutdown()

	server := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      rest.NewRouter(container),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		container.Logger.Info("Server starting",
			zap.String("address", cfg.ServerAddress),
			zap.String("environment", cfg.Environment),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			container.Logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	container.Logger.Info("Shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		container.Logger.Error("Forced shutdown", zap.Error(err))
	}
}
