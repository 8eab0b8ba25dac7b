// Copyright 2026 The EdgeGate Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

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

	goredis "github.com/redis/go-redis/v9"

	"github.com/edgegate/edgegate/internal/audit"
	"github.com/edgegate/edgegate/internal/config"
	"github.com/edgegate/edgegate/internal/gate"
	"github.com/edgegate/edgegate/internal/identity"
	"github.com/edgegate/edgegate/internal/ipfilter"
	"github.com/edgegate/edgegate/internal/observability/logger"
	"github.com/edgegate/edgegate/internal/observability/metrics"
	"github.com/edgegate/edgegate/internal/observability/tracing"
	"github.com/edgegate/edgegate/internal/session"
	"github.com/edgegate/edgegate/internal/store/postgres"
	redisstore "github.com/edgegate/edgegate/internal/store/redis"
	"github.com/edgegate/edgegate/internal/tenant"
	transportHTTP "github.com/edgegate/edgegate/internal/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(logger.Config{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
	})
	slog.Info("starting edgegate")

	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if err := runMigrate(cfg); err != nil {
			fmt.Printf("Migration failed: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	ctx := context.Background()

	tracer, err := tracing.New(ctx, tracing.Config{
		Enabled:        cfg.Observability.OTELEnabled,
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: cfg.Observability.ServiceVersion,
		SamplingRate:   1.0,
	})
	if err != nil {
		slog.Error("failed to initialize tracer", logger.Error(err))
		os.Exit(1)
	}
	defer tracer.Shutdown(ctx)

	db, err := postgres.New(ctx, postgres.Config{
		Host:         cfg.Database.Host,
		Port:         cfg.Database.Port,
		User:         cfg.Database.User,
		Password:     cfg.Database.Password,
		Database:     cfg.Database.Database,
		SSLMode:      cfg.Database.SSLMode,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
	if err != nil {
		slog.Error("failed to connect to database", logger.Error(err))
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("connected to database")

	redisClient := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		slog.Error("failed to connect to redis", logger.Error(err))
		os.Exit(1)
	}
	defer redisClient.Close()
	slog.Info("connected to redis")

	// Repositories and stores
	principalRepo := postgres.NewPrincipalRepository(db)
	membershipRepo := postgres.NewMembershipRepository(db)
	sessionStore := redisstore.NewSessionStore(redisClient)

	// Services
	auditLogger := audit.NewSlogLogger()
	passwordHasher := identity.NewPasswordHasher(
		cfg.Security.Argon2Memory,
		cfg.Security.Argon2Iterations,
		cfg.Security.Argon2Parallelism,
		cfg.Security.Argon2SaltLength,
		cfg.Security.Argon2KeyLength,
	)
	identityService := identity.NewService(principalRepo, passwordHasher, auditLogger)
	sessionService := session.NewService(sessionStore, session.Config{
		CookieName:    cfg.Session.CookieName,
		CookieDomain:  cfg.Session.CookieDomain,
		CookiePath:    cfg.Session.CookiePath,
		CookieSecure:  cfg.Session.CookieSecure,
		Lifetime:      cfg.Session.Lifetime,
		RotateWithin:  cfg.Session.RotateWithin,
		RotationGrace: cfg.Session.RotationGrace,
	})
	cookieCodec := tenant.NewCookieCodec(
		[]byte(cfg.TenantCookie.Secret),
		cfg.TenantCookie.Domain,
		cfg.TenantCookie.Secure,
	)
	tenantResolver := tenant.NewResolver(membershipRepo, cookieCodec)

	// The gate itself
	zones := cfg.ZoneTable()
	filter := ipfilter.New(cfg.Ops.IPAllowlist)
	gateMetrics := metrics.MustNewGate(cfg.Observability.ServiceName)
	g := gate.New(zones, filter, sessionService, tenantResolver, auditLogger, gateMetrics, cfg.Gate.CollaboratorTimeout)

	rateLimiter := transportHTTP.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)

	handler := transportHTTP.NewHandler(identityService, sessionService, tenantResolver, auditLogger)
	router := transportHTTP.NewRouter(handler, g, rateLimiter)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		slog.Info("starting http server", logger.Component("server"), logger.Operation("listen"))
		slog.Info(fmt.Sprintf("listening on %s", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", logger.Error(err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", logger.Error(err))
	}

	slog.Info("server stopped")
}

func runMigrate(cfg *config.Config) error {
	ctx := context.Background()
	db, err := postgres.New(ctx, postgres.Config{
		Host:         cfg.Database.Host,
		Port:         cfg.Database.Port,
		User:         cfg.Database.User,
		Password:     cfg.Database.Password,
		Database:     cfg.Database.Database,
		SSLMode:      cfg.Database.SSLMode,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	fmt.Println("Applying initial schema...")
	if err := db.Migrate(ctx, postgres.InitialSchema); err != nil {
		return err
	}
	fmt.Println("Migration successful.")
	return nil
}
