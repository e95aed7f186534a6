// Datagate - Tenant-Scoped Data Access Gateway
// Copyright 2026 AgenciaFlow
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agenciaflow/datagate

package access

import (
	"errors"
	"fmt"
)

// Sentinel errors for authorization failures that carry no extra context.
var (
	// ErrUnauthenticated is returned when no valid session accompanies
	// the request.
	ErrUnauthenticated = errors.New("access: unauthenticated")

	// ErrNoMembership is returned when the authenticated user holds no
	// active tenant membership.
	ErrNoMembership = errors.New("access: no active membership")
)

// ValidationError rejects a malformed descriptor: missing action, table or
// match, unsupported collection, bad identifier, unknown operator.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "access: validation failed: " + e.Reason
}

// NewValidationError builds a ValidationError with a formatted reason.
func NewValidationError(format string, args ...interface{}) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// PermissionError rejects a request whose role gate failed: admin-only
// actions from insufficient roles, portal mutations outside the linked
// client set, organization deletes.
type PermissionError struct {
	Reason string
}

func (e *PermissionError) Error() string {
	return "access: permission denied: " + e.Reason
}

// NewPermissionError builds a PermissionError with a formatted reason.
func NewPermissionError(format string, args ...interface{}) error {
	return &PermissionError{Reason: fmt.Sprintf(format, args...)}
}

// TenantMismatchError rejects a request that names a tenant (or user) id
// different from the actor's. Explicit mismatches are never silently
// rewritten: they surface caller bugs or hostile requests.
type TenantMismatchError struct {
	Collection string
	Column     string
}

func (e *TenantMismatchError) Error() string {
	return fmt.Sprintf("access: tenant mismatch: %s on %s does not match the caller's scope", e.Column, e.Collection)
}

// IsValidation reports whether err is a descriptor validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsPermission reports whether err is a role-gate failure.
func IsPermission(err error) bool {
	var pe *PermissionError
	return errors.As(err, &pe)
}

// IsTenantMismatch reports whether err is an explicit scope mismatch.
func IsTenantMismatch(err error) bool {
	var te *TenantMismatchError
	return errors.As(err, &te)
}
