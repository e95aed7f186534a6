// Datagate - Tenant-Scoped Data Access Gateway
// Copyright 2026 AgenciaFlow
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agenciaflow/datagate

// Package policy holds the process-wide collection policy registry.
//
// The registry is a closed allow-list built at startup and never mutated:
// every collection the gateway will touch is classified here with a scoping
// class and, where applicable, the column names isolation is enforced on.
// An unknown collection name fails closed as a validation error — there is
// no unclassified pass-through.
package policy

import "github.com/agenciaflow/datagate/internal/models"

// ScopingClass classifies how isolation is enforced for a collection.
type ScopingClass int

const (
	// TenantScoped rows carry a tenant column; every executed query is
	// constrained to the actor's tenant id.
	TenantScoped ScopingClass = iota

	// TenantSelf is the tenant's own record table: only the single row
	// whose identity equals the actor's tenant id is ever visible.
	TenantSelf

	// UserScoped rows carry a user column; queries are constrained to the
	// actor's user id.
	UserScoped

	// Indirect rows are scoped through a parent row (attachment/comment
	// tables keyed by a scoped parent); no automatic predicate is added.
	Indirect
)

// String returns the class name for logging.
func (c ScopingClass) String() string {
	switch c {
	case TenantScoped:
		return "tenant_scoped"
	case TenantSelf:
		return "tenant_self"
	case UserScoped:
		return "user_scoped"
	case Indirect:
		return "indirect"
	default:
		return "unknown"
	}
}

// CollectionPolicy describes one collection's scoping classification.
// TenantColumn is the tenant id column for TenantScoped collections (or the
// row identity column for TenantSelf); UserColumn is set for UserScoped
// collections; ClientColumn, when non-empty, marks a client-scoped
// collection subject to the portal client-link overlay.
type CollectionPolicy struct {
	Name         string
	Class        ScopingClass
	TenantColumn string
	UserColumn   string
	ClientColumn string
}

// ClientScoped reports whether the collection participates in the portal
// client-link overlay.
func (p CollectionPolicy) ClientScoped() bool {
	return p.ClientColumn != ""
}

// AdminRule restricts a set of actions on a collection to elevated roles.
// RoleFieldAdminOnly additionally restricts mutations that touch the named
// role field to admins, regardless of the broader gate.
type AdminRule struct {
	Actions            map[models.Action]bool
	Roles              map[string]bool
	RoleFieldAdminOnly string
}

// Allows reports whether the rule's role gate admits the given role.
func (r AdminRule) Allows(role string) bool {
	return r.Roles[role]
}

// Covers reports whether the rule restricts the given action.
func (r AdminRule) Covers(action models.Action) bool {
	return r.Actions[action]
}

// Registry is the immutable collection policy table. Construct with
// NewRegistry at startup; lookups are read-only and safe for concurrent use.
type Registry struct {
	collections map[string]CollectionPolicy
	adminRules  map[string]AdminRule
}

// Lookup returns the policy for a collection name. The second return value
// is false for unknown collections, which callers must reject.
func (r *Registry) Lookup(name string) (CollectionPolicy, bool) {
	p, ok := r.collections[name]
	return p, ok
}

// AdminRule returns the admin-only rule referencing a collection, if any.
func (r *Registry) AdminRule(name string) (AdminRule, bool) {
	rule, ok := r.adminRules[name]
	return rule, ok
}

// Collections returns the names of all registered collections.
func (r *Registry) Collections() []string {
	names := make([]string, 0, len(r.collections))
	for name := range r.collections {
		names = append(names, name)
	}
	return names
}

// mutations is the action set shared by all admin-only rules.
func mutations() map[models.Action]bool {
	return map[models.Action]bool{
		models.ActionInsert: true,
		models.ActionUpdate: true,
		models.ActionUpsert: true,
		models.ActionDelete: true,
	}
}

// managerRoles is the elevated role gate for tenant administration tables.
func managerRoles() map[string]bool {
	return map[string]bool{
		models.RoleAdmin:  true,
		models.RoleGestor: true,
	}
}

// NewRegistry builds the gateway's collection policy table.
//
// Adding a collection here is the only way to make it reachable through the
// query endpoint; the switch in the authorizer and the translation in the
// store are exhaustive over the classes declared here.
func NewRegistry() *Registry {
	tenantScoped := func(name string) CollectionPolicy {
		return CollectionPolicy{Name: name, Class: TenantScoped, TenantColumn: "organizacao_id"}
	}
	clientScoped := func(name, clientColumn string) CollectionPolicy {
		p := tenantScoped(name)
		p.ClientColumn = clientColumn
		return p
	}

	collections := []CollectionPolicy{
		{Name: "organizacoes", Class: TenantSelf, TenantColumn: "id"},

		tenantScoped("membros"),
		tenantScoped("convites"),
		tenantScoped("webhook_configs"),
		tenantScoped("cliente_membros"),
		tenantScoped("tarefas"),

		// The clientes table is itself the client entity: its identity
		// column is the client column for portal scoping.
		clientScoped("clientes", "id"),
		clientScoped("conteudos", "empresa_id"),
		clientScoped("campanhas", "empresa_id"),
		clientScoped("aprovacoes", "empresa_id"),
		clientScoped("faturas", "empresa_id"),
		clientScoped("contas_sociais", "empresa_id"),

		{Name: "notificacoes", Class: UserScoped, UserColumn: "usuario_id"},

		{Name: "anexos", Class: Indirect},
		{Name: "comentarios", Class: Indirect},
	}

	byName := make(map[string]CollectionPolicy, len(collections))
	for _, p := range collections {
		byName[p.Name] = p
	}

	adminRules := map[string]AdminRule{
		"membros": {
			Actions:            mutations(),
			Roles:              managerRoles(),
			RoleFieldAdminOnly: "papel",
		},
		"convites": {
			Actions: mutations(),
			Roles:   managerRoles(),
		},
		"webhook_configs": {
			Actions: mutations(),
			Roles:   managerRoles(),
		},
		"cliente_membros": {
			Actions: mutations(),
			Roles:   managerRoles(),
		},
	}

	return &Registry{collections: byName, adminRules: adminRules}
}
