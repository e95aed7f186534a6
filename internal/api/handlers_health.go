// Datagate - Tenant-Scoped Data Access Gateway
// Copyright 2026 AgenciaFlow
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agenciaflow/datagate

package api

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/agenciaflow/datagate/internal/logging"
)

// healthResponse is the body of the health probes.
type healthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// HandleLive reports process liveness. It never touches the store.
func (h *Handlers) HandleLive(w http.ResponseWriter, r *http.Request) {
	writeHealth(w, http.StatusOK, "ok")
}

// HandleReady reports readiness: the process is up and the store answers.
func (h *Handlers) HandleReady(w http.ResponseWriter, r *http.Request) {
	if err := h.pinger.Ping(r.Context()); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("readiness check failed")
		writeHealth(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	writeHealth(w, http.StatusOK, "ok")
}

func writeHealth(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // nothing actionable if the write fails
	json.NewEncoder(w).Encode(healthResponse{
		Status: message,
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}
