package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bqadmin/internal/config"
	"bqadmin/internal/httpapi"
	"bqadmin/internal/logging"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Failed to load config: %v", err)
	}
	if level, ok := logging.ParseLevel(cfg.LogLevel); ok {
		logging.SetLogLevel(level)
	}

	// Create router with all dependencies
	handler, deps, err := httpapi.NewRouter(cfg)
	if err != nil {
		logging.Fatalf("Failed to build router: %v", err)
	}

	addr := ":" + cfg.HTTPPort
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// queries wait on SQL generation upstream
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logging.Infof("bqadmin listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logging.Infof("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logging.Errorf("Server forced to shutdown: %v", err)
	}

	// Flush the access log and release Postgres and Redis
	if err := deps.Close(); err != nil {
		logging.Errorf("Failed to release dependencies: %v", err)
	}

	logging.Infof("Server exited")
}
