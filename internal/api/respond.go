// Datagate - Tenant-Scoped Data Access Gateway
// Copyright 2026 AgenciaFlow
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agenciaflow/datagate

package api

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/agenciaflow/datagate/internal/access"
	"github.com/agenciaflow/datagate/internal/logging"
	"github.com/agenciaflow/datagate/internal/models"
	"github.com/agenciaflow/datagate/internal/store"
)

// respondData writes a success envelope.
func respondData(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck // nothing actionable if the write fails
	json.NewEncoder(w).Encode(models.APIResponse{Data: data})
}

// respondError maps an error from the pipeline onto the status/code
// taxonomy and writes an error envelope. Store failures are logged with the
// cause but never leak internals to the caller.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, apiErr := mapError(err)

	if status >= http.StatusInternalServerError {
		logging.Ctx(r.Context()).Error().Err(err).Msg("request failed")
	} else {
		logging.Ctx(r.Context()).Debug().Err(err).Str("code", apiErr.Code).Msg("request rejected")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // nothing actionable if the write fails
	json.NewEncoder(w).Encode(models.APIResponse{Error: apiErr})
}

// mapError translates pipeline errors into the response taxonomy:
// authentication 401, policy rejections 403, malformed requests 400,
// execution failures 500.
func mapError(err error) (int, *models.APIError) {
	var tme *access.TenantMismatchError

	switch {
	case errors.Is(err, access.ErrUnauthenticated):
		return http.StatusUnauthorized, &models.APIError{
			Code:    models.ErrCodeUnauthenticated,
			Message: "authentication required",
		}
	case errors.Is(err, access.ErrNoMembership):
		return http.StatusForbidden, &models.APIError{
			Code:    models.ErrCodeNoMembership,
			Message: "no active membership",
		}
	case errors.As(err, &tme):
		return http.StatusForbidden, &models.APIError{
			Code:    models.ErrCodeTenantMismatch,
			Message: tme.Error(),
		}
	case access.IsPermission(err):
		return http.StatusForbidden, &models.APIError{
			Code:    models.ErrCodePermission,
			Message: err.Error(),
		}
	case access.IsValidation(err):
		return http.StatusBadRequest, &models.APIError{
			Code:    models.ErrCodeValidation,
			Message: err.Error(),
		}
	case store.IsStoreError(err):
		return http.StatusInternalServerError, &models.APIError{
			Code:    models.ErrCodeStore,
			Message: "store operation failed",
		}
	default:
		return http.StatusInternalServerError, &models.APIError{
			Code:    models.ErrCodeStore,
			Message: "internal error",
		}
	}
}
