// Storefront service - hosting/VPS reseller with crypto checkout.
// Designed for Cloud Run deployment; state persists in SQLite.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"hoststore/internal/cache"
	"hoststore/internal/cart"
	"hoststore/internal/checkout"
	"hoststore/internal/config"
	"hoststore/internal/gate"
	"hoststore/internal/handler"
	"hoststore/internal/identity"
	"hoststore/internal/middleware"
	"hoststore/internal/payment"
	"hoststore/internal/relay"
	"hoststore/internal/storage"
	"hoststore/internal/telemetry"
	"hoststore/internal/transport"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Initialize structured logger
	logger := initLogger()

	// Load configuration
	ctx := context.Background()
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger.Info("configuration loaded",
		slog.String("merchant_id", cfg.MerchantID),
		slog.String("environment", cfg.Environment),
		slog.String("store_name", cfg.StoreName),
		slog.Bool("relay_enabled", cfg.RelayEnabled()),
	)

	// Per-visitor persistence (carts, visit counters)
	store, err := storage.OpenSQLite(cfg.Merchant.StoragePath)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer store.Close()

	// Outbound requests to the geo services use a browser-fingerprint
	// transport; some of them reject default Go clients.
	browserTransport := transport.NewBrowserTransport(10 * time.Second)

	// Notification relay: Telegram when configured, otherwise dropped
	var notifier relay.Notifier = relay.Discard{}
	if cfg.RelayEnabled() {
		notifier, err = relay.NewTelegram(relay.Config{
			BotToken: cfg.Merchant.TelegramBotToken,
			ChatID:   cfg.Merchant.TelegramChatID,
		}, browserTransport, logger)
		if err != nil {
			return fmt.Errorf("creating relay: %w", err)
		}
	}

	// Geo lookup cache: Redis when configured, otherwise per-process misses
	var geoCache cache.Cache = cache.Noop{}
	if cfg.Merchant.RedisAddr != "" {
		geoCache = cache.NewRedisCache(redis.NewClient(&redis.Options{
			Addr: cfg.Merchant.RedisAddr,
		}))
	}

	// Telemetry pipeline and access gate
	enricher := telemetry.NewEnricher(browserTransport, geoCache, logger)
	collector := telemetry.NewCollector(store, enricher, notifier, logger)
	accessGate := gate.New(collector, logger)

	// Identity provider and session manager
	identityClient, err := identity.NewClient(identity.Config{
		BaseURL: cfg.Merchant.IdentityURL,
		APIKey:  cfg.Merchant.IdentityAPIKey,
	})
	if err != nil {
		return fmt.Errorf("creating identity client: %w", err)
	}
	sessions := identity.NewManager(identityClient, logger)

	// Payment gateway client and checkout flow
	gateway := payment.NewClient(http.DefaultTransport, logger,
		cfg.Merchant.GatewayURL, cfg.MerchantID, cfg.Merchant.SignKey, cfg.BaseURL)
	carts := cart.NewStore(store, logger)
	flow := checkout.NewFlow(carts, sessions, gateway, notifier,
		checkout.LogMailer{Logger: logger}, logger)

	h := handler.New(accessGate, carts, sessions, flow, cfg.StoreName, logger)

	// Middleware chain: recovery → visitor → logging → gate → handler.
	// Recovery must be outermost to catch panics from logging middleware.
	// Visitor runs before logging so request logs carry the visitor ID.
	// The gate withholds storefront content until telemetry collection
	// succeeds (gate, health and payment-return paths are exempt).
	httpHandler := middleware.Chain(
		middleware.Recovery(logger),
		middleware.Visitor(),
		middleware.Logging(logger),
		gate.Middleware(accessGate),
	)(h.Routes())

	// Create HTTP server with timeouts
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      httpHandler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Channel for shutdown signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Channel for server errors
	serverErr := make(chan error, 1)

	go func() {
		logger.Info("server starting",
			slog.String("port", cfg.Port),
			slog.String("addr", server.Addr),
		)
		serverErr <- server.ListenAndServe()
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-serverErr:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-shutdown:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		// Give outstanding requests time to complete
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			// Force close if graceful shutdown fails
			server.Close()
			return fmt.Errorf("shutdown error: %w", err)
		}
	}

	logger.Info("server stopped")
	return nil
}

// initLogger creates a structured logger configured for the environment.
// Production uses JSON format for GCP Cloud Logging compatibility.
// Development uses text format for readability.
func initLogger() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
		// Add source location in debug mode
		AddSource: level == slog.LevelDebug,
	}

	// JSON for production (Cloud Logging compatible), text for development
	if os.Getenv("ENVIRONMENT") == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
