package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"meridian/internal/audit"
	"meridian/internal/auth/handler"
	"meridian/internal/auth/metrics"
	"meridian/internal/auth/service"
	accountStore "meridian/internal/auth/store/account"
	"meridian/internal/auth/store/registry"
	"meridian/internal/jwttoken"
	"meridian/internal/platform/config"
	"meridian/internal/platform/database"
	"meridian/internal/platform/logger"
	"meridian/internal/platform/middleware"
	"meridian/internal/platform/redis"
	httptransport "meridian/internal/transport/http"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	log.Info("initializing meridian",
		"addr", cfg.Addr,
		"issuer", cfg.Auth.Issuer,
	)

	jwtService := jwttoken.NewService(
		cfg.Auth.JWTSigningKey,
		cfg.Auth.Issuer,
		cfg.Auth.AccessTokenTTL,
		cfg.Auth.RefreshTokenTTL,
	)

	healthChecks := map[string]func(ctx context.Context) error{}

	dbCfg := database.DefaultConfig()
	dbCfg.URL = cfg.PostgresURL
	pool, err := database.New(dbCfg)
	if err != nil {
		log.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	var accounts service.AccountStore
	if pool != nil {
		defer pool.Close()
		accounts = accountStore.NewPostgres(pool.DB())
		healthChecks["postgres"] = pool.Health
	} else {
		log.Warn("POSTGRES_URL not set, using in-memory account store")
		accounts = accountStore.New()
	}

	redisClient, err := redis.New(redis.Config{
		URL:          cfg.RedisURL,
		DialTimeout:  cfg.RedisTimeout,
		ReadTimeout:  cfg.RedisTimeout,
		WriteTimeout: cfg.RedisTimeout,
	})
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	var reg registry.Registry
	if redisClient != nil {
		defer redisClient.Close()
		reg = registry.NewRedis(redisClient)
		healthChecks["redis"] = redisClient.Health
	} else {
		log.Warn("REDIS_URL not set, using in-memory revocation registry")
		reg = registry.NewInMemory()
	}

	auditPublisher := audit.NewPublisher(
		audit.NewInMemoryStore(),
		audit.WithAsyncBuffer(256),
		audit.WithPublisherLogger(log),
	)
	defer auditPublisher.Close()

	authService, err := service.New(accounts, reg, jwtService, service.Config{
		AccessTokenTTL:    cfg.Auth.AccessTokenTTL,
		RefreshTokenTTL:   cfg.Auth.RefreshTokenTTL,
		MfaChallengeTTL:   cfg.Auth.MfaChallengeTTL,
		MaxFailedAttempts: cfg.Auth.MaxFailedAttempts,
		LockoutDuration:   cfg.Auth.LockoutDuration,
	},
		service.WithLogger(log),
		service.WithAuditPublisher(auditPublisher),
		service.WithMetrics(metrics.New()),
	)
	if err != nil {
		log.Error("failed to construct auth service", "error", err)
		os.Exit(1)
	}

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Auth: handler.New(authService, log),
		Authenticate: middleware.Authenticate(
			jwttoken.NewServiceAdapter(jwtService),
			registry.NewRevocationChecker(reg),
			log,
		),
		Logger:       log,
		HealthChecks: healthChecks,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if redisClient != nil {
		g.Go(func() error {
			ticker := time.NewTicker(15 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					redisClient.RecordPoolStats()
				}
			}
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
