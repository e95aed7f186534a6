// Datagate - Tenant-Scoped Data Access Gateway
// Copyright 2026 AgenciaFlow
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agenciaflow/datagate

package store

import (
	"reflect"
	"testing"

	"github.com/agenciaflow/datagate/internal/access"
	"github.com/agenciaflow/datagate/internal/models"
)

func TestTranslateFilterOperators(t *testing.T) {
	tests := []struct {
		name     string
		filter   models.Filter
		wantSQL  string
		wantArgs []interface{}
		wantErr  bool
	}{
		{
			name:     "eq",
			filter:   models.Filter{Column: "status", Op: models.OpEq, Value: "ativo"},
			wantSQL:  "status = $1",
			wantArgs: []interface{}{"ativo"},
		},
		{
			name:     "neq",
			filter:   models.Filter{Column: "status", Op: models.OpNeq, Value: "ativo"},
			wantSQL:  "status <> $1",
			wantArgs: []interface{}{"ativo"},
		},
		{
			name:     "gt",
			filter:   models.Filter{Column: "total", Op: models.OpGt, Value: 10},
			wantSQL:  "total > $1",
			wantArgs: []interface{}{10},
		},
		{
			name:     "gte",
			filter:   models.Filter{Column: "total", Op: models.OpGte, Value: 10},
			wantSQL:  "total >= $1",
			wantArgs: []interface{}{10},
		},
		{
			name:     "lt",
			filter:   models.Filter{Column: "total", Op: models.OpLt, Value: 10},
			wantSQL:  "total < $1",
			wantArgs: []interface{}{10},
		},
		{
			name:     "lte",
			filter:   models.Filter{Column: "total", Op: models.OpLte, Value: 10},
			wantSQL:  "total <= $1",
			wantArgs: []interface{}{10},
		},
		{
			name:     "like",
			filter:   models.Filter{Column: "titulo", Op: models.OpLike, Value: "%post%"},
			wantSQL:  "titulo LIKE $1",
			wantArgs: []interface{}{"%post%"},
		},
		{
			name:     "ilike",
			filter:   models.Filter{Column: "titulo", Op: models.OpILike, Value: "%post%"},
			wantSQL:  "titulo ILIKE $1",
			wantArgs: []interface{}{"%post%"},
		},
		{
			name:     "in with values",
			filter:   models.Filter{Column: "empresa_id", Op: models.OpIn, Value: []string{"a", "b"}},
			wantSQL:  "empresa_id IN ($1, $2)",
			wantArgs: []interface{}{"a", "b"},
		},
		{
			name:    "in with empty list matches nothing",
			filter:  models.Filter{Column: "empresa_id", Op: models.OpIn, Value: []interface{}{}},
			wantSQL: "FALSE",
		},
		{
			name:    "in with scalar value is an error",
			filter:  models.Filter{Column: "empresa_id", Op: models.OpIn, Value: "a"},
			wantErr: true,
		},
		{
			name:    "is null",
			filter:  models.Filter{Column: "apagado_em", Op: models.OpIs, Value: nil},
			wantSQL: "apagado_em IS NULL",
		},
		{
			name:    "is true",
			filter:  models.Filter{Column: "publicado", Op: models.OpIs, Value: true},
			wantSQL: "publicado IS TRUE",
		},
		{
			name:    "is false",
			filter:  models.Filter{Column: "publicado", Op: models.OpIs, Value: false},
			wantSQL: "publicado IS FALSE",
		},
		{
			name:    "is with string is an error",
			filter:  models.Filter{Column: "publicado", Op: models.OpIs, Value: "yes"},
			wantErr: true,
		},
		{
			name:     "not wraps the negated operator",
			filter:   models.Filter{Column: "status", Op: models.OpNot, Negated: models.OpEq, Value: "ativo"},
			wantSQL:  "NOT (status = $1)",
			wantArgs: []interface{}{"ativo"},
		},
		{
			name:    "not without negated operator is an error",
			filter:  models.Filter{Column: "status", Op: models.OpNot, Value: "ativo"},
			wantErr: true,
		},
		{
			name:    "unknown operator is an error",
			filter:  models.Filter{Column: "status", Op: "regex", Value: ".*"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &sqlBuilder{}
			got, err := b.translateFilter(tt.filter)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("translateFilter() = %q, want error", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("translateFilter() error = %v", err)
			}
			if got != tt.wantSQL {
				t.Errorf("sql = %q, want %q", got, tt.wantSQL)
			}
			if len(tt.wantArgs) != 0 && !reflect.DeepEqual(b.args, tt.wantArgs) {
				t.Errorf("args = %v, want %v", b.args, tt.wantArgs)
			}
		})
	}
}

func TestBuildSelect(t *testing.T) {
	t.Run("full statement", func(t *testing.T) {
		sql, args, err := buildSelect(access.AuthorizedOp{
			Action:  models.ActionSelect,
			Table:   "conteudos",
			Columns: []string{"id", "titulo"},
			Filters: []models.Filter{
				{Column: "organizacao_id", Op: models.OpEq, Value: "org-1"},
				{Column: "status", Op: models.OpEq, Value: "rascunho"},
			},
			Order: []models.OrderBy{{Column: "criado_em", Ascending: false}},
			Limit: 50,
		})
		if err != nil {
			t.Fatalf("buildSelect() error = %v", err)
		}
		want := "SELECT id, titulo FROM conteudos WHERE organizacao_id = $1 AND status = $2 ORDER BY criado_em DESC LIMIT 50"
		if sql != want {
			t.Errorf("sql = %q, want %q", sql, want)
		}
		if len(args) != 2 {
			t.Errorf("args = %v, want 2 values", args)
		}
	})

	t.Run("single caps the limit at two rows", func(t *testing.T) {
		sql, _, err := buildSelect(access.AuthorizedOp{
			Action:  models.ActionSelect,
			Table:   "organizacoes",
			Filters: []models.Filter{{Column: "id", Op: models.OpEq, Value: "org-1"}},
			Single:  true,
		})
		if err != nil {
			t.Fatalf("buildSelect() error = %v", err)
		}
		want := "SELECT * FROM organizacoes WHERE id = $1 LIMIT 2"
		if sql != want {
			t.Errorf("sql = %q, want %q", sql, want)
		}
	})
}

func TestBuildInsert(t *testing.T) {
	t.Run("multi-row insert with sorted columns", func(t *testing.T) {
		sql, args, err := buildInsert(access.AuthorizedOp{
			Action: models.ActionInsert,
			Table:  "conteudos",
			Rows: []map[string]interface{}{
				{"titulo": "a", "organizacao_id": "org-1"},
				{"titulo": "b", "organizacao_id": "org-1"},
			},
		})
		if err != nil {
			t.Fatalf("buildInsert() error = %v", err)
		}
		want := "INSERT INTO conteudos (organizacao_id, titulo) VALUES ($1, $2), ($3, $4) RETURNING *"
		if sql != want {
			t.Errorf("sql = %q, want %q", sql, want)
		}
		if len(args) != 4 {
			t.Errorf("args = %v, want 4 values", args)
		}
	})

	t.Run("rows with mismatched columns are rejected", func(t *testing.T) {
		_, _, err := buildInsert(access.AuthorizedOp{
			Action: models.ActionInsert,
			Table:  "conteudos",
			Rows: []map[string]interface{}{
				{"titulo": "a"},
				{"descricao": "b"},
			},
		})
		if err == nil {
			t.Fatal("expected an error for mismatched row columns")
		}
	})
}

func TestBuildUpsert(t *testing.T) {
	sql, _, err := buildUpsert(access.AuthorizedOp{
		Action:     models.ActionUpsert,
		Table:      "contas_sociais",
		OnConflict: "conta_id",
		Rows: []map[string]interface{}{
			{"conta_id": "x", "organizacao_id": "org-1", "token": "t"},
		},
	})
	if err != nil {
		t.Fatalf("buildUpsert() error = %v", err)
	}
	want := "INSERT INTO contas_sociais (conta_id, organizacao_id, token) VALUES ($1, $2, $3) " +
		"ON CONFLICT (conta_id) DO UPDATE SET organizacao_id = EXCLUDED.organizacao_id, token = EXCLUDED.token RETURNING *"
	if sql != want {
		t.Errorf("sql = %q, want %q", sql, want)
	}
}

func TestBuildUpdate(t *testing.T) {
	t.Run("assignments then predicates", func(t *testing.T) {
		sql, args, err := buildUpdate(access.AuthorizedOp{
			Action: models.ActionUpdate,
			Table:  "conteudos",
			Rows:   []map[string]interface{}{{"titulo": "Novo"}},
			Filters: []models.Filter{
				{Column: "id", Op: models.OpEq, Value: "c-1"},
				{Column: "organizacao_id", Op: models.OpEq, Value: "org-1"},
			},
		})
		if err != nil {
			t.Fatalf("buildUpdate() error = %v", err)
		}
		want := "UPDATE conteudos SET titulo = $1 WHERE id = $2 AND organizacao_id = $3 RETURNING *"
		if sql != want {
			t.Errorf("sql = %q, want %q", sql, want)
		}
		if len(args) != 3 {
			t.Errorf("args = %v, want 3 values", args)
		}
	})

	t.Run("update without predicates is refused", func(t *testing.T) {
		_, _, err := buildUpdate(access.AuthorizedOp{
			Action: models.ActionUpdate,
			Table:  "conteudos",
			Rows:   []map[string]interface{}{{"titulo": "Novo"}},
		})
		if err == nil {
			t.Fatal("expected an error for an unconstrained update")
		}
	})
}

func TestBuildDelete(t *testing.T) {
	t.Run("constrained delete", func(t *testing.T) {
		sql, _, err := buildDelete(access.AuthorizedOp{
			Action: models.ActionDelete,
			Table:  "conteudos",
			Filters: []models.Filter{
				{Column: "id", Op: models.OpEq, Value: "c-1"},
				{Column: "organizacao_id", Op: models.OpEq, Value: "org-1"},
			},
		})
		if err != nil {
			t.Fatalf("buildDelete() error = %v", err)
		}
		want := "DELETE FROM conteudos WHERE id = $1 AND organizacao_id = $2 RETURNING *"
		if sql != want {
			t.Errorf("sql = %q, want %q", sql, want)
		}
	})

	t.Run("delete without predicates is refused", func(t *testing.T) {
		_, _, err := buildDelete(access.AuthorizedOp{
			Action: models.ActionDelete,
			Table:  "conteudos",
		})
		if err == nil {
			t.Fatal("expected an error for an unconstrained delete")
		}
	})
}
