// Datagate - Tenant-Scoped Data Access Gateway
// Copyright 2026 AgenciaFlow
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agenciaflow/datagate

// Package store owns the privileged Postgres handle and the query executor.
//
// The handle is a capability: it lives only inside this package, behind the
// Store type, and the executor accepts nothing but access.AuthorizedOp
// values. The authorizer cannot reach the store, and nothing outside this
// package can issue raw queries.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agenciaflow/datagate/internal/config"
	"github.com/agenciaflow/datagate/internal/logging"
	"github.com/agenciaflow/datagate/internal/models"
)

// querier is the slice of the pgx pool API the store uses. Narrowing the
// dependency keeps the executor testable without a live server.
type querier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

// Store holds the privileged connection pool. It implements the access
// package's MembershipSource and ClientLinkSource, and exposes the
// executor for authorized operations.
type Store struct {
	pool *pgxpool.Pool
	db   querier
}

// New dials the store and verifies connectivity.
func New(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping store: %w", err)
	}

	logging.Info().Int32("max_conns", poolCfg.MaxConns).Msg("store connected")
	return &Store{pool: pool, db: pool}, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ping verifies store connectivity, for readiness checks.
func (s *Store) Ping(ctx context.Context) error {
	if s.pool == nil {
		return fmt.Errorf("store not connected")
	}
	return s.pool.Ping(ctx)
}

// ActiveMemberships returns the user's active memberships ordered oldest
// first, so membership resolution is deterministic.
func (s *Store) ActiveMemberships(ctx context.Context, userID string) ([]models.Membership, error) {
	rows, err := s.db.Query(ctx, `
SELECT id, organizacao_id, usuario_id, papel, status, criado_em
FROM membros
WHERE usuario_id = $1 AND status = $2
ORDER BY criado_em, id
`, userID, models.MembershipStatusActive)
	if err != nil {
		return nil, wrapStoreError("membership lookup", err)
	}
	defer rows.Close()

	var memberships []models.Membership
	for rows.Next() {
		var m models.Membership
		if err := rows.Scan(&m.ID, &m.OrganizacaoID, &m.UsuarioID, &m.Papel, &m.Status, &m.CriadoEm); err != nil {
			return nil, wrapStoreError("membership scan", err)
		}
		memberships = append(memberships, m)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStoreError("membership lookup", err)
	}
	return memberships, nil
}

// LinkedClientIDs returns the client ids explicitly linked to a portal
// member within their tenant.
func (s *Store) LinkedClientIDs(ctx context.Context, memberID, tenantID string) ([]string, error) {
	return s.queryIDs(ctx, "client link lookup", `
SELECT cliente_id FROM cliente_membros
WHERE membro_id = $1 AND organizacao_id = $2
ORDER BY cliente_id
`, memberID, tenantID)
}

// TenantClientIDs returns every client id belonging to a tenant, for the
// client-link fallback.
func (s *Store) TenantClientIDs(ctx context.Context, tenantID string) ([]string, error) {
	return s.queryIDs(ctx, "tenant client lookup", `
SELECT id FROM clientes
WHERE organizacao_id = $1
ORDER BY id
`, tenantID)
}

// queryIDs runs a single-column id query.
func (s *Store) queryIDs(ctx context.Context, op, sql string, args ...interface{}) ([]string, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, wrapStoreError(op, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, wrapStoreError(op, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStoreError(op, err)
	}
	return ids, nil
}
