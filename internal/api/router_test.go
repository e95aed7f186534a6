// Datagate - Tenant-Scoped Data Access Gateway
// Copyright 2026 AgenciaFlow
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agenciaflow/datagate

package api

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/agenciaflow/datagate/internal/auth"
	"github.com/agenciaflow/datagate/internal/config"
	"github.com/agenciaflow/datagate/internal/models"
)

func newTestRouter(t *testing.T) (http.Handler, *auth.JWTManager) {
	t.Helper()
	cfg := &config.Config{
		Security: config.SecurityConfig{
			JWTSecret:         "router-test-secret-with-32-chars!!",
			SessionTimeout:    time.Hour,
			RateLimitDisabled: true,
			CORSOrigins:       []string{"*"},
		},
	}
	jwtManager, err := auth.NewJWTManager(cfg.Security)
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}

	fx := newFixture(activeMembership(models.RoleColaborador), nil, &fakeExecutor{rows: []map[string]interface{}{}})
	return NewRouter(cfg, fx.handlers, auth.NewMiddleware(jwtManager)), jwtManager
}

func TestRouter(t *testing.T) {
	router, jwtManager := newTestRouter(t)

	t.Run("health probe is open", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health/live", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})

	t.Run("metrics endpoint is open", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})

	t.Run("query endpoint requires a session", func(t *testing.T) {
		body := bytes.NewReader([]byte(`{"action":"select","table":"conteudos"}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/query", body))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("authenticated query flows through the pipeline", func(t *testing.T) {
		token, err := jwtManager.GenerateToken("user-1")
		if err != nil {
			t.Fatalf("GenerateToken() error = %v", err)
		}

		body := bytes.NewReader([]byte(`{"action":"select","table":"conteudos"}`))
		req := httptest.NewRequest(http.MethodPost, "/api/v1/query", body)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
		}
		if got := rec.Header().Get("X-Request-ID"); got == "" {
			t.Error("response lacks a request id")
		}
		var resp models.APIResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshal response: %v", err)
		}
		if resp.Error != nil {
			t.Errorf("unexpected error: %+v", resp.Error)
		}
	})

	t.Run("unknown route answers 404", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})
}
