// Package server runs a local emulation of the hosted proving API so SDK
// code can be developed and tested without credentials. Circuits and proofs
// live in memory; proving is real (gnark groth16 over built-in circuits).
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sindri-labs/sindri-go/server/api"
)

type Config struct {
	// Server settings
	Host string
	Port int

	// Performance settings
	MaxRequestSize  int64
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Job settings
	CompileDelay time.Duration // artificial latency before compile jobs start
	ProveDelay   time.Duration // artificial latency before prove jobs start

	// Security settings
	EnableCORS  bool
	CorsOrigins []string

	// Observability
	LogLevel  string
	LogFormat string // "json" or "text"
}

// NewHandler builds the emulator's HTTP handler: a fresh in-memory
// registry behind the routed API surface. Useful for mounting the emulator
// inside tests.
func NewHandler(cfg *Config, logger *slog.Logger) http.Handler {
	registry := api.NewRegistry(logger, api.JobDelays{
		Compile: cfg.CompileDelay,
		Prove:   cfg.ProveDelay,
	})
	return setupRouter(api.NewServer(registry), cfg, logger)
}

// Run starts the emulator and blocks until SIGINT/SIGTERM or a server
// error, then shuts down gracefully.
func Run(cfg *Config) error {
	// Validate configuration
	if err := validateConfig(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Setup structured logging
	logger := SetupLogger(cfg.LogLevel, cfg.LogFormat)

	r := NewHandler(cfg, logger)

	// Configure HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	httpServer := &http.Server{
		Addr:           addr,
		Handler:        r,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxHeaderBytes: 1 << 20, // 1 MB
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Emulator listening", "addr", addr, "circuits", api.BuiltinCircuitNames())

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal or server error
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("Shutdown signal received")
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	logger.Info("Shutting down server gracefully...")
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	logger.Info("Server stopped")
	return nil
}

func validateConfig(cfg *Config) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("invalid port: %d", cfg.Port)
	}
	if cfg.MaxRequestSize <= 0 {
		return fmt.Errorf("invalid max request size: %d", cfg.MaxRequestSize)
	}
	return nil
}
