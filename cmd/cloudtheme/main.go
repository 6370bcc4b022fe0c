// Package main is the entry point for the theming server. It loads
// configuration, connects to the configured backends, sets up routing and
// starts the HTTP server with graceful shutdown support.
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

	"cloudtheme/internal/cache"
	"cloudtheme/internal/config"
	"cloudtheme/internal/database"
	"cloudtheme/internal/handlers"
	"cloudtheme/internal/i18n"
	"cloudtheme/internal/imaging"
	"cloudtheme/internal/imaging/vips"
	"cloudtheme/internal/middleware"
	"cloudtheme/internal/models"
	"cloudtheme/internal/router"
	"cloudtheme/internal/scss"
	"cloudtheme/internal/storage"
	"cloudtheme/internal/store"
	"cloudtheme/internal/theming"
	"cloudtheme/web"
)

// Admin endpoints accept this many requests per client and window.
const (
	adminRateLimit  = 60
	adminRateWindow = time.Minute
)

func main() {
	// Structured logger: text in development, JSON elsewhere.
	var handler slog.Handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	if env := os.Getenv("APP_ENV"); env != "" && env != "development" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	slog.SetDefault(slog.New(handler))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"state", cfg.StateBackend,
		"storage", cfg.StorageDriver,
		"images", cfg.ImageBackend,
	)
	if cfg.AdminTokenHash == "" {
		slog.Warn("ADMIN_TOKEN_HASH not set, admin endpoints are unauthenticated")
	}

	ctx := context.Background()

	var (
		configStore theming.ConfigStore
		memo        cache.Memo
		changes     theming.ChangeLogger
		history     handlers.ChangeHistory
	)

	switch cfg.StateBackend {
	case "postgres":
		db, err := database.Connect(ctx, cfg.DSN())
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		if err := database.Migrate(db); err != nil {
			slog.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}

		valkeyClient, err := cache.ConnectValkey(ctx, cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
		if err != nil {
			slog.Error("failed to connect to valkey", "error", err)
			os.Exit(1)
		}
		defer valkeyClient.Close()

		configStore = store.NewAppConfigStore(db)
		cacheLog := store.NewCacheLogStore(db)
		changes = cacheLog
		history = cacheLog
		memo = cache.NewValkeyMemo(valkeyClient, models.ThemingAppID, cache.DefaultMemoTTL)

		// Derived values memoized by a previous release may no longer match
		// what this build computes.
		memo.Clear(ctx)
		slog.Info("theming memo cleared", "namespace", memo.Namespace())
	default:
		slog.Warn("using in-memory state, settings are lost on restart")
		configStore = store.NewMemoryAppConfig()
		memo = cache.NewMemoryMemo(models.ThemingAppID)
	}

	blobs, err := openStorage(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialize blob storage", "driver", cfg.StorageDriver, "error", err)
		os.Exit(1)
	}

	var images imaging.Processor = imaging.NewGoProcessor()
	if cfg.ImageBackend == "vips" {
		vips.Startup(0)
		defer vips.Shutdown()
		images = vips.New()
	}

	settings := theming.NewSettings(configStore, blobs, memo, theming.Defaults{
		Name:   cfg.DefaultName,
		URL:    cfg.DefaultURL,
		Slogan: cfg.DefaultSlogan,
		Color:  cfg.DefaultColor,
	}, changes)
	styles := scss.NewCacher(blobs, web.ThemingSCSS, models.CSSFolder, models.StylesheetBlob)
	tr := i18n.New(cfg.DefaultLanguage)

	themingHandlers := handlers.NewTheming(settings, blobs, images, styles, tr)
	if history != nil {
		themingHandlers.WithHistory(history)
	}

	limiter := middleware.NewRateLimiter(adminRateLimit, adminRateWindow)
	defer limiter.Stop()

	r := router.New(themingHandlers, tr, cfg.AdminTokenHash, limiter)

	// WriteTimeout covers background processing of large uploads.
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		return
	}

	slog.Info("server stopped gracefully")
}

// openStorage builds the blob store selected by STORAGE_DRIVER.
func openStorage(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.StorageDriver {
	case "local":
		return storage.NewLocal(cfg.StorageDir)
	case "s3":
		s, err := storage.NewS3(cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, models.ThemingAppID)
		if err != nil {
			return nil, err
		}
		slog.Info("s3 storage configured", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3Bucket)
		return s, nil
	case "minio":
		s, err := storage.NewMinio(ctx, cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			return nil, err
		}
		slog.Info("minio storage connected", "endpoint", cfg.MinioEndpoint, "bucket", cfg.MinioBucket)
		return s, nil
	case "memory":
		slog.Warn("using in-memory blob storage, uploads are lost on restart")
		return storage.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}
