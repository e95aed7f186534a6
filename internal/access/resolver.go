// Datagate - Tenant-Scoped Data Access Gateway
// Copyright 2026 AgenciaFlow
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agenciaflow/datagate

// Package access implements the authorization decision core: membership
// resolution, client-link resolution, and the query authorizer.
//
// The package is deliberately pure with respect to the store: it consumes
// narrow read interfaces (MembershipSource, ClientLinkSource) and never
// holds the privileged handle. Only the store's executor can run a query,
// and it accepts nothing but the AuthorizedOp values produced here.
package access

import (
	"context"

	"github.com/agenciaflow/datagate/internal/logging"
	"github.com/agenciaflow/datagate/internal/models"
)

// MembershipSource loads a user's active memberships, ordered
// deterministically (oldest first). It is the only store read permitted
// before authorization completes: membership is itself a prerequisite for
// any policy decision.
type MembershipSource interface {
	ActiveMemberships(ctx context.Context, userID string) ([]models.Membership, error)
}

// ClientLinkSource reads the client-link association table and the tenant's
// client roster. Both reads are scoped server-side by the ids passed in.
type ClientLinkSource interface {
	LinkedClientIDs(ctx context.Context, memberID, tenantID string) ([]string, error)
	TenantClientIDs(ctx context.Context, tenantID string) ([]string, error)
}

// ActorResolver derives the request Actor from an authenticated user id.
type ActorResolver struct {
	memberships MembershipSource
}

// NewActorResolver creates an ActorResolver over the given source.
func NewActorResolver(memberships MembershipSource) *ActorResolver {
	return &ActorResolver{memberships: memberships}
}

// Resolve loads the caller's active membership and builds the immutable
// Actor for this request. Returns ErrNoMembership when the user holds no
// active membership.
//
// When a user holds more than one active membership the oldest wins; the
// selection is deterministic but logged, because multi-tenant users should
// be disambiguated at the data level.
func (r *ActorResolver) Resolve(ctx context.Context, userID string) (models.Actor, error) {
	memberships, err := r.memberships.ActiveMemberships(ctx, userID)
	if err != nil {
		return models.Actor{}, err
	}
	if len(memberships) == 0 {
		return models.Actor{}, ErrNoMembership
	}
	if len(memberships) > 1 {
		logging.Ctx(ctx).Warn().
			Str("user_id", userID).
			Int("active_memberships", len(memberships)).
			Msg("user holds multiple active memberships; using oldest")
	}

	m := memberships[0]
	if !models.IsValidRole(m.Papel) {
		logging.Ctx(ctx).Warn().
			Str("user_id", userID).
			Str("papel", m.Papel).
			Msg("membership carries unrecognized role")
	}

	return models.Actor{
		UserID:   m.UsuarioID,
		TenantID: m.OrganizacaoID,
		Role:     m.Papel,
		MemberID: m.ID,
	}, nil
}

// ClientLinkResolver resolves which client identities a portal-role actor
// may see. The three-tier fallback cascade is deterministic and must run
// for every portal request against a client-scoped collection:
//
//  1. Explicit links for (member, tenant); a non-empty set is used verbatim.
//  2. If empty and the fallback is enabled, all client ids of the tenant.
//  3. If that is also empty, the caller short-circuits: selects return an
//     empty result set, mutations are rejected.
type ClientLinkResolver struct {
	links       ClientLinkSource
	fallbackAll bool
}

// NewClientLinkResolver creates a ClientLinkResolver. fallbackAll controls
// tier 2 (grant un-linked portal members visibility into every client of
// their tenant).
func NewClientLinkResolver(links ClientLinkSource, fallbackAll bool) *ClientLinkResolver {
	return &ClientLinkResolver{links: links, fallbackAll: fallbackAll}
}

// Resolve returns the set of client ids the actor may see. An empty set
// means tier 3: no client visibility at all.
func (r *ClientLinkResolver) Resolve(ctx context.Context, actor models.Actor) ([]string, error) {
	linked, err := r.links.LinkedClientIDs(ctx, actor.MemberID, actor.TenantID)
	if err != nil {
		return nil, err
	}
	if len(linked) > 0 {
		return linked, nil
	}

	if !r.fallbackAll {
		return nil, nil
	}

	all, err := r.links.TenantClientIDs(ctx, actor.TenantID)
	if err != nil {
		return nil, err
	}
	if len(all) > 0 {
		// Auditable broad grant: the member has no explicit links yet.
		logging.Ctx(ctx).Warn().
			Str("member_id", actor.MemberID).
			Str("tenant_id", actor.TenantID).
			Int("clients", len(all)).
			Msg("portal member has no client links; falling back to all tenant clients")
	}
	return all, nil
}
