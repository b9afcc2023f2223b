package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/rickyzatnika/new-spinner/config"
	"github.com/rickyzatnika/new-spinner/database"
	"github.com/rickyzatnika/new-spinner/feed"
	"github.com/rickyzatnika/new-spinner/middleware"
	"github.com/rickyzatnika/new-spinner/routes"
	"github.com/rickyzatnika/new-spinner/services"
	"github.com/rickyzatnika/new-spinner/store"
	"github.com/rickyzatnika/new-spinner/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
	logger.Info("Server exited")
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.IsDevelopment() {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	if cfg.Log.Level != "" {
		if err := zapCfg.Level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
			return nil, fmt.Errorf("invalid log.level: %w", err)
		}
	}
	if cfg.Log.Encoding != "" {
		zapCfg.Encoding = cfg.Log.Encoding
	}
	return zapCfg.Build()
}

func openStore(cfg config.Config, logger *zap.Logger) (store.Store, func(), error) {
	if cfg.Store.Driver == "memory" {
		logger.Warn("using in-memory store; data is lost on restart")
		return store.NewMemory(), func() {}, nil
	}
	db, err := database.Open(cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	closeFn := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return store.NewGorm(db), closeFn, nil
}

func memoryCounter(ctx context.Context, window time.Duration) middleware.Counter {
	c := middleware.NewMemoryCounter()
	go func() {
		tick := time.NewTicker(time.Minute)
		defer tick.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-tick.C:
				c.Sweep(window)
			}
		}
	}()
	return c
}

func rateCounter(ctx context.Context, cfg config.Config, logger *zap.Logger) (middleware.Counter, func()) {
	if cfg.Redis.Addr == "" {
		return memoryCounter(ctx, cfg.Rate.Window), func() {}
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unavailable, rate limits are per process", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		_ = client.Close()
		return memoryCounter(ctx, cfg.Rate.Window), func() {}
	}
	logger.Info("rate limits shared through redis", zap.String("addr", cfg.Redis.Addr))
	return middleware.NewRedisCounter(client, "luckywheel:rate"), func() { _ = client.Close() }
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, closeStore, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	counter, closeCounter := rateCounter(ctx, cfg, logger)
	defer closeCounter()

	hub := feed.NewHub(logger.Named("feed"), cfg.CORS.AllowedOrigins)
	defer hub.Close()

	tokens := utils.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Auth.Issuer)
	admins := services.NewAdminService(st, tokens, logger.Named("admin"))
	if err := admins.EnsureAdmin(ctx, cfg.Auth.AdminUsername, cfg.Auth.AdminPassword); err != nil {
		return fmt.Errorf("ensure admin account: %w", err)
	}
	if !tokens.Enabled() {
		logger.Warn("auth.jwt_secret is empty; admin routes are unauthenticated")
	}

	users := services.NewUserService(st, services.UserOptions{
		Codes:    services.CodeGenerator{MaxAttempts: cfg.Code.MaxAttempts},
		OnePerIP: cfg.Register.OnePerIP,
		Logger:   logger.Named("users"),
		Events:   hub,
	})
	prizes := services.NewPrizeService(st, logger.Named("prizes"))
	spins := services.NewSpinService(st, services.SpinOptions{
		Mode:   services.DrawMode(cfg.Spin.DrawMode),
		Logger: logger.Named("spin"),
		Events: hub,
	})

	router := routes.InitRouter(routes.Deps{
		Config:  cfg,
		Log:     logger,
		Store:   st,
		Users:   users,
		Prizes:  prizes,
		Spins:   spins,
		Admins:  admins,
		Feed:    hub,
		Counter: counter,
	})

	// Logging -> Security headers -> Request ID -> Max Body -> Timeout -> Recovery -> router (metrics inside)
	handler := middleware.RequestLog(logger)(
		middleware.SecurityHeaders(middleware.SecurityOptions{
			Development: cfg.IsDevelopment(),
			HSTS:        cfg.Server.HSTS,
			CSP:         cfg.Server.CSP,
		})(
			middleware.RequestID(
				middleware.MaxBody(cfg.Server.MaxBodyBytes)(
					middleware.Timeout(cfg.Server.RequestTimeout)(
						middleware.Recovery(logger)(router),
					),
				),
			),
		),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting",
			zap.String("addr", server.Addr),
			zap.String("store", cfg.Store.Driver),
			zap.String("draw_mode", cfg.Spin.DrawMode),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	hub.Close()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}
