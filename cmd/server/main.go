package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"legalbridge.app/bridge/common/id"
	"legalbridge.app/bridge/common/logger"
	"legalbridge.app/bridge/common/otel"
	"legalbridge.app/bridge/core/config"
	"legalbridge.app/bridge/core/db"
	"legalbridge.app/bridge/internal/dedupe"
	"legalbridge.app/bridge/internal/http/middleware"
	httprouter "legalbridge.app/bridge/internal/http/router"
	"legalbridge.app/bridge/internal/service"
	"legalbridge.app/bridge/internal/store"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	// OTel must init before logger (logger uses OTel provider in production)
	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		// Can't use slog yet — OTel failed before logger setup
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	if telemetry != nil {
		slog.InfoContext(ctx, "otel initialized", "endpoint", cfg.OTel.Endpoint)
	}

	slog.InfoContext(ctx, "bridge starting",
		"env", cfg.Env, "trigger_label", cfg.Webhook.TriggerStatus)

	if err := id.Init(1); err != nil {
		slog.ErrorContext(ctx, "failed to initialize snowflake id generator", "error", err)
		os.Exit(1)
	}

	deliveries := store.NewNoopDeliveryStore()
	if cfg.AuditEnabled() {
		database, err := db.New(ctx, cfg.DB)
		if err != nil {
			slog.ErrorContext(ctx, "failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer database.Close()
		deliveries = store.NewDeliveryStore(database.Pool())
		slog.InfoContext(ctx, "delivery audit enabled")
	}

	guard := dedupe.NewMemoryGuard(cfg.Dedupe.ReserveTTL, cfg.Dedupe.ConfirmTTL)
	if cfg.Dedupe.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.Dedupe.RedisURL)
		if err != nil {
			slog.ErrorContext(ctx, "failed to parse redis url", "error", err)
			os.Exit(1)
		}
		redisClient := redis.NewClient(redisOpts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			slog.ErrorContext(ctx, "failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		guard = dedupe.NewRedisGuard(redisClient, cfg.Dedupe.ReserveTTL, cfg.Dedupe.ConfirmTTL, nil)
		slog.InfoContext(ctx, "redis dedupe connected")
	} else {
		slog.WarnContext(ctx, "no redis configured, dedupe is per-process only")
	}

	services := service.NewServices(service.ServicesConfig{
		Guard:      guard,
		Deliveries: deliveries,
		Webhook:    cfg.Webhook,
		Jira:       cfg.Jira,
		Notion:     cfg.Notion,
	})

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := setupRouter(cfg, services)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "http server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
}

func setupRouter(cfg config.Config, services *service.Services) *gin.Engine {
	router := gin.New()

	// Order matters: OTel creates span → Recovery catches panics → Logger logs with trace context
	if cfg.OTel.Enabled() {
		router.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())

	httprouter.SetupRoutes(router, services, httprouter.RouterConfig{
		WebhookSecret: cfg.Webhook.Secret,
	})

	return router
}
