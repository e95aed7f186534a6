// Datagate - Tenant-Scoped Data Access Gateway
// Copyright 2026 AgenciaFlow
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agenciaflow/datagate

/*
actor.go - Caller Identity Models

This file defines the resolved caller identity driving authorization
decisions, plus the membership and client-link rows it is derived from.

Role Hierarchy:
  - admin: full tenant control including membership role changes
  - gestor: tenant manager, may administer memberships/invites/webhooks
  - colaborador: internal contributor, regular tenant-scoped access
  - portal: external client reviewer, additionally scoped by client links
*/

package models

import "time"

// Role constants define the roles recognized by the authorization layer.
const (
	// RoleAdmin has full tenant control including membership role changes.
	RoleAdmin = "admin"

	// RoleGestor manages the tenant: memberships, invites, webhook configs.
	RoleGestor = "gestor"

	// RoleColaborador is an internal contributor with regular access.
	RoleColaborador = "colaborador"

	// RolePortal is an external client reviewer, additionally restricted
	// to the client entities linked to their membership.
	RolePortal = "portal"
)

// ValidRoles contains all valid role names for validation.
var ValidRoles = []string{RoleAdmin, RoleGestor, RoleColaborador, RolePortal}

// IsValidRole checks if a role name is valid.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}

// Actor is the resolved caller identity for one request: user, tenant, role
// and member ids. It is derived once per request from the session and
// membership resolvers and is immutable for the request's lifetime.
type Actor struct {
	UserID   string `json:"user_id"`
	TenantID string `json:"tenant_id"`
	Role     string `json:"role"`
	MemberID string `json:"member_id"`
}

// IsPortal reports whether the actor carries the restricted portal role.
func (a Actor) IsPortal() bool {
	return a.Role == RolePortal
}

// Membership is one row of the membros collection as read by the membership
// resolver. Only memberships with status "ativo" participate in resolution.
type Membership struct {
	ID            string    `json:"id"`
	OrganizacaoID string    `json:"organizacao_id"`
	UsuarioID     string    `json:"usuario_id"`
	Papel         string    `json:"papel"`
	Status        string    `json:"status"`
	CriadoEm      time.Time `json:"criado_em"`
}

// MembershipStatusActive is the status value of an active membership.
const MembershipStatusActive = "ativo"

// ClientLink associates a portal-role member with one client entity they may
// view. Links are created by tenant admins out of band; this layer only
// reads them.
type ClientLink struct {
	MemberID string `json:"membro_id"`
	TenantID string `json:"organizacao_id"`
	ClientID string `json:"cliente_id"`
}
