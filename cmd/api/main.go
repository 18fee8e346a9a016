// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the identity HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool) and Redis.
//  4. Run database migrations (idempotent).
//  5. Load the realm public key and build the identity provider client.
//  6. Wire HTTP handlers.
//  7. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/taibuivan/yomira-identity/internal/api"
	"github.com/taibuivan/yomira-identity/internal/platform/config"
	"github.com/taibuivan/yomira-identity/internal/platform/constants"
	"github.com/taibuivan/yomira-identity/internal/platform/migration"
	pgstore "github.com/taibuivan/yomira-identity/internal/platform/postgres"
	redisstore "github.com/taibuivan/yomira-identity/internal/platform/redis"
	"github.com/taibuivan/yomira-identity/internal/platform/sec"
	"github.com/taibuivan/yomira-identity/internal/users/account"
	"github.com/taibuivan/yomira-identity/internal/users/identity"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	log := newLogger(slog.LevelInfo)
	slog.SetDefault(log)

	log.Info("service_initializing", slog.String("version", constants.AppVersion))

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		log = newLogger(slog.LevelDebug)
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.String("realm", cfg.Keycloak.Realm),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL & Redis ─────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing postgres pool")
		pool.Close()
	}()

	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing redis client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis close error", slog.Any("error", cerr))
		}
	}()

	// ── 4. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 5. Token Verification & Identity Provider ─────────────────────────
	verifier, err := sec.NewTokenVerifier(cfg.JWTPubKeyPath, cfg.JWTIssuerURI)
	must(log, err, "load realm public key")

	identityClient := identity.NewClient(cfg.Keycloak, identity.NewRedisTokenCache(rdb), nil, log)

	// ── 6. Domain Wiring ──────────────────────────────────────────────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func(context context.Context) error {
			return pgstore.Ping(context, pool)
		},
		CheckCache: func(context context.Context) error {
			return redisstore.Ping(context, rdb)
		},
		CheckIdentityProvider: identityClient.Ping,
	}, log)

	auditRepository := account.NewAuditRepository(pool)
	adminAuthority := sec.Authority(cfg.AdminAuthority)
	rolePolicy := account.RolePolicy{AdminAuthority: adminAuthority}
	for _, role := range cfg.SelfAssignableRoles {
		rolePolicy.SelfAssignable = append(rolePolicy.SelfAssignable, sec.Authority(strings.TrimSpace(role)))
	}

	accountService := account.NewService(identityClient, auditRepository, rolePolicy, log)
	accountHandler := account.NewHandler(accountService, adminAuthority)

	// ── 7. HTTP Server ────────────────────────────────────────────────────
	serverCtx, serverCancel := context.WithCancel(context.Background())
	defer serverCancel()

	server := api.NewServer(serverCtx, cfg, log, verifier, api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Account:   accountHandler,
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
}

// newLogger builds the JSON logger tagged with the service name.
func newLogger(level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With(slog.String("app", constants.AppName))
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
