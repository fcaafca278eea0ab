// Package main is the entry point for the shopadmin API server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"shopadmin/internal/cache"
	"shopadmin/internal/config"
	"shopadmin/internal/database"
	"shopadmin/internal/handlers"
	"shopadmin/internal/janitor"
	"shopadmin/internal/middleware"
	"shopadmin/internal/router"
	"shopadmin/internal/session"
	"shopadmin/internal/storage"
	"shopadmin/internal/store"
)

func main() {
	// Load configuration from environment variables, config file and .env.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Structured logger: text in development, JSON everywhere else.
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}
	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, opts)
	if cfg.IsDev() {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
	)

	// Connect to PostgreSQL.
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run pending migrations.
	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed development data (no-op if data already exists).
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	// Connect to Valkey (sessions + response cache).
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	sessionStore := session.NewStore(valkeyClient, cfg.SecureCookies)
	responseCache := cache.NewResponseCache(valkeyClient, cfg.CacheTTL)

	// Initialize data stores.
	userStore := store.NewUserStore(db)
	categoryStore := store.NewCategoryStore(db)
	productStore := store.NewProductStore(db)
	imageStore := store.NewProductImageStore(db)
	orderStore := store.NewOrderStore(db)
	settingsStore := store.NewSettingsStore(db)

	// Connect to S3-compatible object storage (optional; uploads are
	// disabled without it).
	storageClient, err := storage.New(
		cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey,
		cfg.S3Bucket, cfg.S3PublicURL,
	)
	if err != nil {
		slog.Error("failed to initialize S3 storage", "error", err)
		os.Exit(1)
	}

	var blobs handlers.BlobStore
	var sweeper *janitor.Janitor
	if storageClient != nil {
		blobs = storageClient
		slog.Info("s3 storage connected", "endpoint", cfg.S3Endpoint, "bucket", storageClient.Bucket())

		if cfg.JanitorSchedule != "" {
			sweeper = janitor.New(storageClient, productStore, cfg.JanitorGrace,
				handlers.ProductImagePrefix, handlers.MainImagePrefix, handlers.EditorImagePrefix)
			if err := sweeper.Start(cfg.JanitorSchedule); err != nil {
				slog.Error("failed to schedule janitor", "error", err)
				os.Exit(1)
			}
		}
	} else {
		slog.Warn("s3 storage not configured, image uploads disabled")
	}

	// Create handler groups with their dependencies.
	adminHandlers := handlers.NewAdmin(categoryStore, productStore, imageStore, orderStore, settingsStore, userStore, blobs, responseCache)
	authHandlers := handlers.NewAuth(sessionStore, userStore)

	loginLimiter := middleware.NewRateLimiter(cfg.LoginRateLimit, cfg.LoginRateWindow)
	defer loginLimiter.Stop()

	// Set up the Chi router with all middleware and routes.
	r := router.New(sessionStore, adminHandlers, authHandlers, router.Options{
		SecureCookies: cfg.SecureCookies,
		LoginLimiter:  loginLimiter,
	})

	// Uploads of up to 5 MB need more than the default read budget.
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	// Give active requests up to 30 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if sweeper != nil {
		sweeper.Stop(ctx)
	}
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}

// parseLevel maps a LOG_LEVEL value onto a slog level, defaulting to info.
func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
