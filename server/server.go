package server

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/veridoc/idproof/attestation"
	"github.com/veridoc/idproof/server/api"
)

type ServeConfig struct {
	// Server settings
	Host string
	Port int

	// Registry settings
	TreesDir     string // snapshot directory, optional
	MaxTreeDepth int    // sibling array length of dense-tree proofs

	// Attestation settings
	RootDigest string // hex SHA-256 of the pinned root certificate
	Production bool   // require enclave debug disabled

	// Performance settings
	MaxRequestSize  int64
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Security settings
	EnableCORS  bool
	CorsOrigins []string

	// Observability
	EnablePprof bool
	LogLevel    string
	LogFormat   string // "json" or "text"

	// TLS settings
	EnableTLS bool
	CertFile  string
	KeyFile   string
}

func Run(cfg *ServeConfig) error {
	// Validate configuration
	if err := validateServeConfig(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Setup structured logging
	logger := SetupLogger(cfg.LogLevel, cfg.LogFormat)

	// Initialize tree registry and load snapshots
	registry := api.NewTreeRegistry()
	if cfg.TreesDir != "" {
		loaded, err := registry.LoadDir(cfg.TreesDir)
		if err != nil {
			return fmt.Errorf("failed to load tree snapshots: %w", err)
		}
		logger.Info("Tree snapshots loaded", "dir", cfg.TreesDir, "count", loaded)
	}

	validator, err := buildValidator(cfg)
	if err != nil {
		return err
	}

	// Create server
	server := api.NewServer(registry, validator, cfg.MaxTreeDepth)

	// Setup router with middleware
	r := setupRouter(server, cfg, logger)

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
		logger.Info("Server listening", "addr", addr, "tls", cfg.EnableTLS)

		var err error
		if cfg.EnableTLS {
			err = httpServer.ListenAndServeTLS(cfg.CertFile, cfg.KeyFile)
		} else {
			err = httpServer.ListenAndServe()
		}

		if err != nil && err != http.ErrServerClosed {
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

func buildValidator(cfg *ServeConfig) (*attestation.Validator, error) {
	v := &attestation.Validator{Production: cfg.Production}
	if cfg.RootDigest == "" {
		// No pinned root: every token is rejected on the digest check.
		return v, nil
	}
	digest, err := hex.DecodeString(cfg.RootDigest)
	if err != nil || len(digest) != sha256.Size {
		return nil, fmt.Errorf("root-digest must be %d hex bytes", sha256.Size)
	}
	copy(v.RootDigest[:], digest)
	return v, nil
}

func validateServeConfig(cfg *ServeConfig) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("invalid port: %d", cfg.Port)
	}

	if cfg.MaxTreeDepth < 1 {
		return fmt.Errorf("invalid max tree depth: %d", cfg.MaxTreeDepth)
	}

	if cfg.EnableTLS {
		if cfg.CertFile == "" || cfg.KeyFile == "" {
			return fmt.Errorf("TLS enabled but cert-file or key-file not provided")
		}
		if _, err := os.Stat(cfg.CertFile); err != nil {
			return fmt.Errorf("cert file not found: %s", cfg.CertFile)
		}
		if _, err := os.Stat(cfg.KeyFile); err != nil {
			return fmt.Errorf("key file not found: %s", cfg.KeyFile)
		}
	}

	if cfg.TreesDir != "" {
		if _, err := os.Stat(cfg.TreesDir); err != nil {
			return fmt.Errorf("trees directory not found: %s", cfg.TreesDir)
		}
	}

	return nil
}
