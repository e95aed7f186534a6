// Datagate - Tenant-Scoped Data Access Gateway
// Copyright 2026 AgenciaFlow
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agenciaflow/datagate

// Package main is the entry point for the Datagate server.
//
// Datagate is the tenant-scoped data-access gateway for a multi-tenant
// agency platform. Clients submit generic operation descriptors to a single
// endpoint; the gateway authenticates the session, resolves the caller's
// membership, authorizes and scopes the operation, and executes it against
// the store over a privileged connection that only the executor holds.
//
// The server initializes components in the following order:
//
//  1. Configuration: layered Koanf v2 loading (defaults, YAML file, env)
//  2. Logging: global zerolog logger
//  3. Store: pgx connection pool over the privileged DSN
//  4. Access layer: policy registry, resolvers, authorizer
//  5. HTTP server: Chi router with graceful shutdown on SIGINT/SIGTERM
//
// Required configuration:
//   - DATABASE_URL: Postgres DSN for the privileged role
//   - JWT_SECRET: session signing secret (32+ characters in production)
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

	"github.com/agenciaflow/datagate/internal/access"
	"github.com/agenciaflow/datagate/internal/api"
	"github.com/agenciaflow/datagate/internal/auth"
	"github.com/agenciaflow/datagate/internal/config"
	"github.com/agenciaflow/datagate/internal/logging"
	"github.com/agenciaflow/datagate/internal/policy"
	"github.com/agenciaflow/datagate/internal/store"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "datagate: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().
		Str("environment", cfg.Server.Environment).
		Msg("starting datagate")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.New(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer st.Close()

	jwtManager, err := auth.NewJWTManager(cfg.Security)
	if err != nil {
		return fmt.Errorf("failed to initialize session manager: %w", err)
	}

	registry := policy.NewRegistry()
	actors := access.NewActorResolver(st)
	links := access.NewClientLinkResolver(st, cfg.Access.PortalFallbackAllClients)
	authorizer := access.NewAuthorizer(registry)

	handlers := api.NewHandlers(actors, links, authorizer, st, st)
	router := api.NewRouter(cfg, handlers, auth.NewMiddleware(jwtManager))

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  2 * cfg.Server.Timeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	logging.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	logging.Info().Msg("shutdown complete")
	return nil
}
