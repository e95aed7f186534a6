// Datagate - Tenant-Scoped Data Access Gateway
// Copyright 2026 AgenciaFlow
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agenciaflow/datagate

package models

// APIResponse is the response envelope for the query endpoint. Exactly one
// of Data and Error is populated.
//
// Example success:
//
//	{"data": [{"id": "…", "organizacao_id": "…"}]}
//
// Example rejection:
//
//	{"error": {"code": "TENANT_MISMATCH", "message": "…"}}
type APIResponse struct {
	Data  interface{} `json:"data,omitempty"`
	Error *APIError   `json:"error,omitempty"`
}

// Machine-readable rejection codes for APIError.Code.
const (
	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeUnauthenticated = "UNAUTHENTICATED"
	ErrCodeNoMembership    = "NO_MEMBERSHIP"
	ErrCodeTenantMismatch  = "TENANT_MISMATCH"
	ErrCodePermission      = "PERMISSION_DENIED"
	ErrCodeStore           = "STORE_ERROR"
)

// APIError carries a machine-readable rejection code and a human-readable
// message.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
