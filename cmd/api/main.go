package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"mrxstudio/internal/config"
	"mrxstudio/internal/database"
	"mrxstudio/internal/httpapi"
	"mrxstudio/internal/logger"
	"mrxstudio/internal/ratelimit"
	"mrxstudio/internal/services"
	"mrxstudio/internal/util"
)

const (
	shutdownTimeout = 30 * time.Second
	readTimeout     = 15 * time.Second
	writeTimeout    = 30 * time.Second
	idleTimeout     = 60 * time.Second
	redisPingWait   = 3 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.SetupDefault(os.Stdout, "INFO")
		logger.Fatal("failed to load config", "error", err)
	}
	logger.SetupDefault(os.Stdout, cfg.App.LogLevel)

	if err := validateConfig(cfg); err != nil {
		logger.Fatal("configuration validation failed", "error", err)
	}

	slog.Info("starting",
		"service", cfg.App.Name,
		"version", cfg.App.Version,
		"debug", cfg.App.Debug,
		"addr", fmt.Sprintf("%s:%s", cfg.App.Host, cfg.App.Port),
	)

	db, err := database.Open(&cfg.Database)
	if err != nil {
		logger.Fatal("failed to initialize database", "error", err)
	}
	defer func() {
		if err := database.Close(db); err != nil {
			slog.Error("error closing database", "error", err)
		}
	}()

	limiter, closeLimiter := buildLimiter(cfg)
	defer closeLimiter()

	rules, err := services.LoadSpamRules(cfg.Spam.RulesFile)
	if err != nil {
		logger.Fatal("failed to load spam rules", "error", err)
	}
	spam, err := services.NewSpamFilter(rules)
	if err != nil {
		logger.Fatal("invalid spam rules", "error", err)
	}

	notifier := services.NewNotifierFromConfig(&cfg.Email)
	if len(notifier.Channels()) == 0 {
		slog.Warn("no email service configured; submissions will be stored without notification")
	} else {
		slog.Info("owner notifications enabled", "channels", notifier.Channels())
	}

	store := services.NewGormSubmissionStore(db)
	deps := httpapi.Deps{
		Contact: services.NewContactService(limiter, services.NewValidator(), spam, store, notifier),
		Health: services.NewHealthService(cfg.App.Name, cfg.App.Version,
			func(ctx context.Context) error { return database.Ping(ctx, db) },
			limiter.Backend,
		),
	}
	if cfg.Auth.SecretKey != "" {
		tokens := util.NewTokenIssuer(cfg.Auth.SecretKey, time.Duration(cfg.Auth.TokenExpiryMinutes)*time.Minute)
		deps.Auth = services.NewAuthService(db, tokens)
		deps.Review = services.NewReviewService(store)
	} else {
		slog.Warn("SECRET_KEY not set; staff review API disabled")
	}

	addr := fmt.Sprintf("%s:%s", cfg.App.Host, cfg.App.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      httpapi.NewRouter(cfg, deps),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
		ErrorLog:     slog.NewLogLogger(slog.Default().Handler(), slog.LevelWarn),
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- fmt.Errorf("server error: %w", err)
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Fatal("server failed to start", "error", err)
	case sig := <-shutdown:
		slog.Info("starting graceful shutdown", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("error during graceful shutdown", "error", err)
		if errors.Is(err, context.DeadlineExceeded) {
			_ = httpServer.Close()
		}
	}
	slog.Info("server shutdown complete")
}

// validateConfig validates the settings only the API server needs
func validateConfig(cfg *config.Config) error {
	if key := cfg.Auth.SecretKey; key != "" && len(key) < 32 {
		return fmt.Errorf("SECRET_KEY must be at least 32 characters")
	}
	return nil
}

// buildLimiter wires Redis as the primary store when REDIS_URL is set and
// always starts the in-memory fallback with its periodic sweep.
func buildLimiter(cfg *config.Config) (*ratelimit.Limiter, func()) {
	policy := ratelimit.Policy{Window: cfg.RateLimit.Window, Max: cfg.RateLimit.MaxRequests}
	log := slog.With("component", "ratelimit")

	fallback := ratelimit.NewMemoryStore(policy)
	fallback.Start(cfg.RateLimit.SweepInterval)
	closers := []func(){fallback.Stop}

	var primary ratelimit.Store
	if cfg.RateLimit.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RateLimit.RedisURL)
		if err != nil {
			log.Error("invalid REDIS_URL, using in-memory rate limiting", "error", err)
		} else {
			rdb := redis.NewClient(opts)
			store := ratelimit.NewRedisStore(rdb, policy)

			ctx, cancel := context.WithTimeout(context.Background(), redisPingWait)
			if err := store.Ping(ctx); err != nil {
				log.Warn("redis unreachable at startup; checks fall back until it recovers", "error", err)
			}
			cancel()

			primary = store
			closers = append(closers, func() { _ = rdb.Close() })
		}
	} else {
		log.Warn("REDIS_URL not set; rate limits are per instance")
	}

	limiter := ratelimit.NewLimiter(primary, fallback)
	log.Info("rate limiter ready", "backend", limiter.Backend(), "window", policy.Window, "max", policy.Max)

	return limiter, func() {
		for _, c := range closers {
			c()
		}
	}
}
