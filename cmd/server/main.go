// Copyright 2026 The SISPAT Authors
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
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sispat/sispat/internal/audit"
	"github.com/sispat/sispat/internal/authz"
	"github.com/sispat/sispat/internal/config"
	"github.com/sispat/sispat/internal/identity"
	"github.com/sispat/sispat/internal/observability/logger"
	"github.com/sispat/sispat/internal/observability/metrics"
	"github.com/sispat/sispat/internal/observability/tracing"
	transportHTTP "github.com/sispat/sispat/internal/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.InitLogger(logger.Config{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
		OTELEnabled: cfg.Observability.OTELEnabled,
	})

	if len(os.Args) > 1 {
		if err := runCommand(os.Args[1], cfg); err != nil {
			fmt.Fprintf(os.Stderr, "%s failed: %v\n", os.Args[1], err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	slog.Info("starting sispat access control service", logger.Backend(cfg.Store.Backend))
	if err := run(cfg); err != nil {
		slog.Error("server exited", logger.Error(err))
		os.Exit(1)
	}
}

func runCommand(name string, cfg *config.Config) error {
	switch name {
	case "migrate":
		return runMigrate(cfg)
	case "reset-roles":
		return runResetRoles(cfg)
	default:
		return fmt.Errorf("unknown command %q (want migrate or reset-roles)", name)
	}
}

func run(cfg *config.Config) error {
	ctx := context.Background()

	tracer, err := tracing.New(ctx, tracing.Config{
		Enabled:        cfg.Observability.OTELEnabled,
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: cfg.Observability.ServiceVersion,
		SamplingRate:   cfg.Observability.SamplingRate,
		StoreBackend:   cfg.Store.Backend,
		RoleSeed:       cfg.Store.SeedFile,
	})
	if err != nil {
		slog.Error("failed to initialize tracer", logger.Error(err))
	} else {
		defer tracer.Shutdown(ctx)
	}

	meter, err := metrics.New(ctx, metrics.Config{
		Enabled: cfg.Observability.OTELEnabled,
	}, cfg.Observability.ServiceName)
	if err != nil {
		return fmt.Errorf("failed to initialize meter: %w", err)
	}
	instruments, err := metrics.NewInstruments(meter)
	if err != nil {
		return err
	}

	registry, closeStore, err := buildRegistry(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	authenticator := identity.NewTokenAuthenticator(identity.TokenConfig{
		Secret:     cfg.Auth.JWTSecret,
		Issuer:     cfg.Auth.Issuer,
		CookieName: cfg.Auth.CookieName,
		Leeway:     cfg.Auth.Leeway,
	})

	handler := transportHTTP.NewHandler(
		authz.NewEvaluator(registry),
		authenticator,
		audit.NewSlogLogger(nil),
		transportHTTP.WithMetrics(instruments),
	)

	rateLimiter := transportHTTP.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	defer rateLimiter.Stop()

	router := transportHTTP.NewRouter(handler, rateLimiter, transportHTTP.RouterConfig{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		RequestTimeout: cfg.Server.RequestTimeout,
		StaticFS:       staticFS(cfg.Server.StaticDir),
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting http server", logger.Component("server"), logger.Operation("listen"), slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-quit:
	}

	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", logger.Error(err))
	}

	slog.Info("server stopped")
	return nil
}

// buildRegistry opens the configured store and loads the registry from it.
func buildRegistry(ctx context.Context, cfg *config.Config) (*authz.Registry, func(), error) {
	seed := authz.DefaultRoles()
	if cfg.Store.SeedFile != "" {
		var err error
		if seed, err = authz.LoadSeedFile(cfg.Store.SeedFile); err != nil {
			return nil, nil, err
		}
		slog.Info("using role seed file", slog.String("path", cfg.Store.SeedFile))
	}

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	registry := authz.NewRegistry(store, seed)
	registry.Init(ctx)
	return registry, closeStore, nil
}

// staticFS returns the SPA build directory, or nil when it is absent.
func staticFS(dir string) fs.FS {
	if dir == "" {
		return nil
	}
	if st, err := os.Stat(dir); err != nil || !st.IsDir() {
		slog.Warn("static directory not found, views disabled", slog.String("dir", dir))
		return nil
	}
	return os.DirFS(dir)
}

func runResetRoles(cfg *config.Config) error {
	ctx := context.Background()
	registry, closeStore, err := buildRegistry(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	registry.Reset(ctx)
	audit.NewSlogLogger(nil).Log(ctx, audit.Event{
		Type:     audit.TypeRolesReset,
		ActorID:  "cli",
		Resource: "roles",
	})
	fmt.Println("Roles restored to defaults.")
	return nil
}
