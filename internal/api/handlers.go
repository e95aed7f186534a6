// Datagate - Tenant-Scoped Data Access Gateway
// Copyright 2026 AgenciaFlow
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agenciaflow/datagate

// Package api wires the HTTP surface: the single query endpoint, health
// probes, and the metrics endpoint. Handlers orchestrate the resolution
// pipeline (session, membership, client links, authorization, execution)
// but make no policy decisions themselves.
package api

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/agenciaflow/datagate/internal/access"
	"github.com/agenciaflow/datagate/internal/auth"
	"github.com/agenciaflow/datagate/internal/logging"
	"github.com/agenciaflow/datagate/internal/metrics"
	"github.com/agenciaflow/datagate/internal/models"
)

// maxDescriptorBytes bounds the request body of the query endpoint.
const maxDescriptorBytes = 1 << 20

// Executor runs authorized operations. Implemented by the store; narrowed
// here so handlers can be tested without a live database.
type Executor interface {
	Execute(ctx context.Context, op access.AuthorizedOp) ([]map[string]interface{}, error)
}

// Pinger reports store connectivity, for the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers orchestrates the request pipeline for the query endpoint.
type Handlers struct {
	actors     *access.ActorResolver
	links      *access.ClientLinkResolver
	authorizer *access.Authorizer
	executor   Executor
	pinger     Pinger
	validate   *validator.Validate
}

// NewHandlers creates the handler set.
func NewHandlers(actors *access.ActorResolver, links *access.ClientLinkResolver, authorizer *access.Authorizer, executor Executor, pinger Pinger) *Handlers {
	return &Handlers{
		actors:     actors,
		links:      links,
		authorizer: authorizer,
		executor:   executor,
		pinger:     pinger,
		validate:   validator.New(),
	}
}

// HandleQuery serves the single data-access endpoint. Every request walks
// the same pipeline: authenticated user id, active membership, optional
// client-link resolution, authorization, execution.
func (h *Handlers) HandleQuery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		respondError(w, r, access.ErrUnauthenticated)
		return
	}

	var descriptor models.OperationDescriptor
	r.Body = http.MaxBytesReader(w, r.Body, maxDescriptorBytes)
	if err := json.NewDecoder(r.Body).Decode(&descriptor); err != nil {
		respondError(w, r, access.NewValidationError("malformed request body: %v", err))
		return
	}
	if err := h.validate.Struct(&descriptor); err != nil {
		respondError(w, r, access.NewValidationError("invalid descriptor: %v", err))
		return
	}

	actor, err := h.actors.Resolve(ctx, userID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	var clientIDs []string
	if h.authorizer.NeedsClientScope(actor, descriptor.Table) {
		clientIDs, err = h.links.Resolve(ctx, actor)
		if err != nil {
			respondError(w, r, err)
			return
		}
	}

	op, err := h.authorizer.Authorize(actor, clientIDs, &descriptor)
	if err != nil {
		metrics.RecordAuthzDecision(string(descriptor.Action), descriptor.Table, "deny")
		respondError(w, r, err)
		return
	}

	if op.EmptyResult {
		metrics.RecordAuthzDecision(string(op.Action), op.Table, "empty")
		respondData(w, []map[string]interface{}{})
		return
	}
	metrics.RecordAuthzDecision(string(op.Action), op.Table, "allow")

	result, err := h.executor.Execute(ctx, op)
	if err != nil {
		respondError(w, r, err)
		return
	}

	logging.Ctx(ctx).Info().
		Str("user_id", actor.UserID).
		Str("tenant_id", actor.TenantID).
		Str("role", actor.Role).
		Str("action", string(op.Action)).
		Str("table", op.Table).
		Int("rows", len(result)).
		Msg("query served")

	if op.Single {
		respondData(w, result[0])
		return
	}
	respondData(w, result)
}
