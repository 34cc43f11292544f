package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/sudo-init-do/gamemarket/internal/admin"
	"github.com/sudo-init-do/gamemarket/internal/alerts"
	"github.com/sudo-init-do/gamemarket/internal/auth"
	"github.com/sudo-init-do/gamemarket/internal/config"
	"github.com/sudo-init-do/gamemarket/internal/db"
	"github.com/sudo-init-do/gamemarket/internal/logging"
	"github.com/sudo-init-do/gamemarket/internal/metrics"
	mware "github.com/sudo-init-do/gamemarket/internal/middleware"
	"github.com/sudo-init-do/gamemarket/internal/payout"
	"github.com/sudo-init-do/gamemarket/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		slog.Error("invalid configuration", "event", "config_invalid", "error", err.Error())
		os.Exit(1)
	}
	logger := logging.Setup(logging.Options{Service: "gamemarket", Level: cfg.LogLevel, File: cfg.LogFile})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", "event", "server_failed", "error", err.Error())
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	// Initialize database connection
	pool, err := db.Connect(ctx, cfg.DSN())
	if err != nil {
		return err
	}
	defer pool.Close()
	logger.Info("connected to postgres", "event", "db_connected", "module", "db")

	if err := db.EnsureSchema(ctx, pool, logger); err != nil {
		return err
	}
	repo := store.NewRepository(pool)

	if cfg.BootstrapEmail != "" {
		changed, err := auth.BootstrapMaster(ctx, repo, auth.BootstrapRequest{
			Email:    cfg.BootstrapEmail,
			Username: cfg.BootstrapUsername,
			Password: cfg.BootstrapPassword,
		})
		if err != nil {
			return err
		}
		logger.Info("admin master ensured", "event", "admin_master_bootstrap", "module", "auth", "changed", changed)
	}

	provider, err := payout.NewProvider(cfg.PayoutProvider)
	if err != nil {
		return err
	}
	collectors := metrics.Security()
	tokens := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL)

	serviceOpts := []admin.Option{admin.WithLogger(logger), admin.WithMetrics(collectors)}
	handler := &admin.Handler{
		Store:   repo,
		Payouts: payout.NewService(provider),
		Metrics: collectors,
		Logger:  logger,
	}
	if cfg.RedisAddr != "" {
		client := alerts.NewClient(cfg.RedisAddr)
		defer client.Close()
		processor := alerts.NewProcessor(cfg.RedisAddr, logger)
		if err := processor.Start(); err != nil {
			return err
		}
		defer processor.Shutdown()

		serviceOpts = append(serviceOpts, admin.WithNotifier(client))
		handler.Notifier = client
	} else {
		logger.Warn("REDIS_ADDR not set, security alerts disabled", "event", "alerts_disabled", "module", "alerts")
	}
	handler.Service = admin.NewService(repo, serviceOpts...)

	e := echo.New()
	e.HideBanner = true

	// Basic middleware
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	e.GET("/ready", func(c echo.Context) error {
		if err := repo.Ping(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "not_ready", "error": "db unreachable"})
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ready"})
	})
	e.GET("/metrics", metrics.Handler())

	// Auth routes, rate limited per IP
	authGroup := e.Group("/auth")
	authGroup.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(20)))
	authGroup.POST("/login", auth.NewHandler(repo, tokens).Login)
	authGroup.GET("/me", auth.Me, mware.JWTMiddleware(tokens, repo))

	// Admin routes
	adminGroup := e.Group("/admin")
	adminGroup.Use(mware.JWTMiddleware(tokens, repo))
	adminGroup.Use(mware.AdminGuard)
	handler.Register(adminGroup)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "event", "server_started", "addr", cfg.Addr())
		if err := e.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("shutting down", "event", "server_stopping")
	return e.Shutdown(shutdownCtx)
}
