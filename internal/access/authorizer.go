// Datagate - Tenant-Scoped Data Access Gateway
// Copyright 2026 AgenciaFlow
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agenciaflow/datagate

package access

import (
	"regexp"
	"sort"
	"strings"

	"github.com/agenciaflow/datagate/internal/models"
	"github.com/agenciaflow/datagate/internal/policy"
)

// AuthorizedOp is an operation descriptor that passed authorization: its
// predicate set is fully scoped to the actor and its payload rows carry the
// forced tenant/user columns. Only values of this type reach the executor.
type AuthorizedOp struct {
	Action     models.Action
	Table      string
	Rows       []map[string]interface{}
	Filters    []models.Filter
	Order      []models.OrderBy
	Limit      int
	Single     bool
	Columns    []string
	OnConflict string

	// EmptyResult short-circuits execution: the caller answers with an
	// empty result set without touching the store. Set for portal selects
	// whose resolved client set is empty.
	EmptyResult bool
}

// identPattern is the shape every table/column identifier must match before
// it participates in SQL generation.
var identPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Authorizer is the decision core: it turns a caller descriptor plus the
// resolved actor (and client set, for portal actors) into an authorized
// operation or a typed rejection. It holds no store access.
type Authorizer struct {
	registry *policy.Registry
}

// NewAuthorizer creates an Authorizer over the given policy registry.
func NewAuthorizer(registry *policy.Registry) *Authorizer {
	return &Authorizer{registry: registry}
}

// NeedsClientScope reports whether the request requires client-link
// resolution before authorization: portal-role actor, client-scoped
// collection. Unknown collections return false; Authorize rejects them.
func (a *Authorizer) NeedsClientScope(actor models.Actor, table string) bool {
	p, ok := a.registry.Lookup(table)
	return ok && actor.IsPortal() && p.ClientScoped()
}

// Authorize validates and scopes one operation descriptor. clientIDs is the
// resolved client set and is only consulted for portal actors on
// client-scoped collections.
//
// The descriptor is treated as immutable: Authorize derives a scoped copy
// and never executes anything itself.
func (a *Authorizer) Authorize(actor models.Actor, clientIDs []string, d *models.OperationDescriptor) (AuthorizedOp, error) {
	if d.Action == "" {
		return AuthorizedOp{}, NewValidationError("action is required")
	}
	if !models.IsValidAction(d.Action) {
		return AuthorizedOp{}, NewValidationError("unsupported action %q", d.Action)
	}
	if d.Table == "" {
		return AuthorizedOp{}, NewValidationError("table is required")
	}

	pol, ok := a.registry.Lookup(d.Table)
	if !ok {
		return AuthorizedOp{}, NewValidationError("unsupported collection %q", d.Table)
	}

	if err := a.validateShape(d); err != nil {
		return AuthorizedOp{}, err
	}

	rows, err := d.Rows()
	if err != nil {
		return AuthorizedOp{}, NewValidationError("malformed payload: %v", err)
	}
	if err := validateRows(rows); err != nil {
		return AuthorizedOp{}, err
	}
	if (d.Action == models.ActionInsert || d.Action == models.ActionUpsert) && len(rows) == 0 {
		return AuthorizedOp{}, NewValidationError("%s requires a payload", d.Action)
	}
	if (d.Action == models.ActionUpdate) && len(rows) != 1 {
		return AuthorizedOp{}, NewValidationError("update requires exactly one payload object")
	}

	// The admin-only matrix runs before any scoping logic.
	if err := a.checkAdminMatrix(actor, pol.Name, d.Action, rows); err != nil {
		return AuthorizedOp{}, err
	}

	columns, err := parseProjection(d.Select)
	if err != nil {
		return AuthorizedOp{}, err
	}

	op := AuthorizedOp{
		Action:     d.Action,
		Table:      pol.Name,
		Rows:       copyRows(rows),
		Filters:    foldMatch(d.Match, d.Filters),
		Order:      append([]models.OrderBy(nil), d.Order...),
		Limit:      d.Limit,
		Single:     d.Single,
		Columns:    columns,
		OnConflict: d.OnConflict,
	}

	switch pol.Class {
	case policy.TenantScoped:
		err = a.scopeColumn(&op, pol, pol.TenantColumn, actor.TenantID)
	case policy.TenantSelf:
		err = a.scopeTenantSelf(&op, pol, actor)
	case policy.UserScoped:
		err = a.scopeColumn(&op, pol, pol.UserColumn, actor.UserID)
	case policy.Indirect:
		// Scoped through the parent row; membership and the admin
		// matrix above still gate access.
	}
	if err != nil {
		return AuthorizedOp{}, err
	}

	if actor.IsPortal() && pol.ClientScoped() {
		if err := a.overlayClientScope(&op, pol, clientIDs); err != nil {
			return AuthorizedOp{}, err
		}
	}

	return op, nil
}

// validateShape checks structural requirements that do not depend on the
// scoping class: identifier hygiene, match presence for mutations by
// identity, single-row semantics.
func (a *Authorizer) validateShape(d *models.OperationDescriptor) error {
	if d.Limit < 0 {
		return NewValidationError("limit must not be negative")
	}
	if d.Single && d.Action != models.ActionSelect {
		return NewValidationError("single is only valid for select")
	}
	if d.Action == models.ActionUpdate || d.Action == models.ActionDelete {
		if len(d.Match) == 0 {
			return NewValidationError("%s requires match criteria", d.Action)
		}
	}

	for column := range d.Match {
		if !identPattern.MatchString(column) {
			return NewValidationError("invalid match column %q", column)
		}
	}
	for _, f := range d.Filters {
		if !identPattern.MatchString(f.Column) {
			return NewValidationError("invalid filter column %q", f.Column)
		}
		if !models.IsValidOperator(f.Op) {
			return NewValidationError("unsupported filter operator %q", f.Op)
		}
		if f.Op == models.OpNot {
			if f.Negated == "" || f.Negated == models.OpNot || !models.IsValidOperator(f.Negated) {
				return NewValidationError("not filter requires a valid negated operator")
			}
		}
	}
	for _, o := range d.Order {
		if !identPattern.MatchString(o.Column) {
			return NewValidationError("invalid order column %q", o.Column)
		}
	}
	if d.OnConflict != "" && !identPattern.MatchString(d.OnConflict) {
		return NewValidationError("invalid on_conflict column %q", d.OnConflict)
	}
	return nil
}

// validateRows checks payload column identifiers.
func validateRows(rows []map[string]interface{}) error {
	for _, row := range rows {
		if len(row) == 0 {
			return NewValidationError("payload rows must not be empty")
		}
		for column := range row {
			if !identPattern.MatchString(column) {
				return NewValidationError("invalid payload column %q", column)
			}
		}
	}
	return nil
}

// checkAdminMatrix enforces the admin-only (collection, action) rules. The
// role-field restriction applies to mutations of existing rows: a gestor
// may update a membership but only an admin may change its role field.
func (a *Authorizer) checkAdminMatrix(actor models.Actor, collection string, action models.Action, rows []map[string]interface{}) error {
	rule, ok := a.registry.AdminRule(collection)
	if !ok || !rule.Covers(action) {
		return nil
	}
	if !rule.Allows(actor.Role) {
		return NewPermissionError("%s on %s requires an elevated role", action, collection)
	}
	if rule.RoleFieldAdminOnly == "" || actor.Role == models.RoleAdmin {
		return nil
	}
	if action == models.ActionUpdate || action == models.ActionUpsert {
		for _, row := range rows {
			if _, present := row[rule.RoleFieldAdminOnly]; present {
				return NewPermissionError("changing %s.%s requires the admin role", collection, rule.RoleFieldAdminOnly)
			}
		}
	}
	return nil
}

// scopeColumn applies tenant (or user) scoping to the working operation:
// selects and identity-matched mutations get the pinned equality conjoined,
// insert/upsert payload rows get the column forced. An explicit mismatching
// value anywhere is rejected, never rewritten.
func (a *Authorizer) scopeColumn(op *AuthorizedOp, pol policy.CollectionPolicy, column, expected string) error {
	switch op.Action {
	case models.ActionSelect, models.ActionUpdate, models.ActionDelete:
		return pinFilter(op, pol, column, expected)
	case models.ActionInsert, models.ActionUpsert:
		return forceRowColumn(op, pol, column, expected)
	}
	return nil
}

// scopeTenantSelf handles the tenant's own record table: one visible row,
// admin-gated updates, no inserts or deletes through this layer.
func (a *Authorizer) scopeTenantSelf(op *AuthorizedOp, pol policy.CollectionPolicy, actor models.Actor) error {
	switch op.Action {
	case models.ActionSelect:
		return pinFilter(op, pol, pol.TenantColumn, actor.TenantID)
	case models.ActionUpdate:
		if actor.Role != models.RoleAdmin {
			return NewPermissionError("updating %s requires the admin role", pol.Name)
		}
		if !filtersMention(op.Filters, pol.TenantColumn) {
			return NewValidationError("update on %s requires match on %s", pol.Name, pol.TenantColumn)
		}
		return pinFilter(op, pol, pol.TenantColumn, actor.TenantID)
	case models.ActionDelete:
		return NewPermissionError("%s records cannot be deleted through this layer", pol.Name)
	case models.ActionInsert, models.ActionUpsert:
		return NewValidationError("%s does not accept %s", pol.Name, op.Action)
	}
	return nil
}

// overlayClientScope appends the portal client-set restriction. Selects and
// identity-matched mutations get an IN predicate; payload writes must name
// a linked client. An empty resolved set short-circuits selects and rejects
// mutations.
func (a *Authorizer) overlayClientScope(op *AuthorizedOp, pol policy.CollectionPolicy, clientIDs []string) error {
	if len(clientIDs) == 0 {
		if op.Action == models.ActionSelect {
			op.EmptyResult = true
			return nil
		}
		return NewPermissionError("portal member has no client visibility for %s", pol.Name)
	}

	switch op.Action {
	case models.ActionSelect, models.ActionUpdate, models.ActionDelete:
		op.Filters = append(op.Filters, models.Filter{
			Column: pol.ClientColumn,
			Op:     models.OpIn,
			Value:  clientIDs,
		})
	case models.ActionInsert, models.ActionUpsert:
		allowed := make(map[string]bool, len(clientIDs))
		for _, id := range clientIDs {
			allowed[id] = true
		}
		for _, row := range op.Rows {
			v, present := row[pol.ClientColumn]
			s, isString := v.(string)
			if !present || !isString || !allowed[s] {
				return NewPermissionError("portal writes to %s must target a linked client", pol.Name)
			}
		}
	}
	return nil
}

// pinFilter conjoins column == expected onto the working predicate set. A
// caller-supplied predicate on the same column must be an equality on the
// expected value; anything else is a hostile or erroneous request.
func pinFilter(op *AuthorizedOp, pol policy.CollectionPolicy, column, expected string) error {
	found := false
	for _, f := range op.Filters {
		if f.Column != column {
			continue
		}
		s, isString := f.Value.(string)
		if f.Op != models.OpEq || !isString || s != expected {
			return &TenantMismatchError{Collection: pol.Name, Column: column}
		}
		found = true
	}
	if !found {
		op.Filters = append(op.Filters, models.Filter{Column: column, Op: models.OpEq, Value: expected})
	}
	return nil
}

// forceRowColumn overwrites the scoping column of every payload row with the
// actor's id. A row that explicitly names a different id is rejected so the
// caller never believes it wrote to one tenant while landing in another.
func forceRowColumn(op *AuthorizedOp, pol policy.CollectionPolicy, column, expected string) error {
	for _, row := range op.Rows {
		if v, present := row[column]; present {
			s, isString := v.(string)
			if !isString || s != expected {
				return &TenantMismatchError{Collection: pol.Name, Column: column}
			}
		}
		row[column] = expected
	}
	return nil
}

// foldMatch merges match criteria into the filter list as equality
// predicates, so scoping sees a single predicate set. Keys are sorted for
// deterministic SQL generation.
func foldMatch(match map[string]interface{}, filters []models.Filter) []models.Filter {
	out := append([]models.Filter(nil), filters...)
	if len(match) == 0 {
		return out
	}
	keys := make([]string, 0, len(match))
	for k := range match {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out = append(out, models.Filter{Column: k, Op: models.OpEq, Value: match[k]})
	}
	return out
}

// parseProjection splits a comma-separated select shape into validated
// column names. Empty input or "*" selects all columns.
func parseProjection(shape string) ([]string, error) {
	shape = strings.TrimSpace(shape)
	if shape == "" || shape == "*" {
		return nil, nil
	}
	parts := strings.Split(shape, ",")
	columns := make([]string, 0, len(parts))
	for _, part := range parts {
		column := strings.TrimSpace(part)
		if !identPattern.MatchString(column) {
			return nil, NewValidationError("invalid select column %q", column)
		}
		columns = append(columns, column)
	}
	return columns, nil
}

// filtersMention reports whether any predicate references the column.
func filtersMention(filters []models.Filter, column string) bool {
	for _, f := range filters {
		if f.Column == column {
			return true
		}
	}
	return false
}

// copyRows deep-copies the top level of payload rows so scoping never
// mutates the caller's descriptor.
func copyRows(rows []map[string]interface{}) []map[string]interface{} {
	if rows == nil {
		return nil
	}
	out := make([]map[string]interface{}, len(rows))
	for i, row := range rows {
		c := make(map[string]interface{}, len(row))
		for k, v := range row {
			c[k] = v
		}
		out[i] = c
	}
	return out
}
