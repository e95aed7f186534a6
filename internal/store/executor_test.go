// Datagate - Tenant-Scoped Data Access Gateway
// Copyright 2026 AgenciaFlow
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agenciaflow/datagate

package store

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/agenciaflow/datagate/internal/access"
	"github.com/agenciaflow/datagate/internal/models"
)

// fakeRows is a minimal pgx.Rows over in-memory data.
type fakeRows struct {
	fields []pgconn.FieldDescription
	values [][]interface{}
	idx    int
	err    error
}

func newFakeRows(columns []string, values ...[]interface{}) *fakeRows {
	fields := make([]pgconn.FieldDescription, len(columns))
	for i, c := range columns {
		fields[i] = pgconn.FieldDescription{Name: c}
	}
	return &fakeRows{fields: fields, values: values, idx: -1}
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return r.err }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return r.fields }
func (r *fakeRows) Next() bool {
	r.idx++
	return r.idx < len(r.values)
}
func (r *fakeRows) Scan(dest ...interface{}) error { return errors.New("not implemented") }
func (r *fakeRows) Values() ([]interface{}, error) { return r.values[r.idx], nil }
func (r *fakeRows) RawValues() [][]byte            { return nil }
func (r *fakeRows) Conn() *pgx.Conn                { return nil }

// fakeQuerier records the statement it receives and serves canned rows.
type fakeQuerier struct {
	rows *fakeRows
	err  error

	gotSQL  string
	gotArgs []interface{}
}

func (q *fakeQuerier) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	q.gotSQL = sql
	q.gotArgs = args
	if q.err != nil {
		return nil, q.err
	}
	return q.rows, nil
}

func TestExecute(t *testing.T) {
	t.Run("select returns rows as maps", func(t *testing.T) {
		q := &fakeQuerier{rows: newFakeRows(
			[]string{"id", "titulo"},
			[]interface{}{"c-1", "Post"},
			[]interface{}{"c-2", "Outro"},
		)}
		s := &Store{db: q}

		result, err := s.Execute(context.Background(), access.AuthorizedOp{
			Action:  models.ActionSelect,
			Table:   "conteudos",
			Filters: []models.Filter{{Column: "organizacao_id", Op: models.OpEq, Value: "org-1"}},
		})
		if err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		if len(result) != 2 {
			t.Fatalf("rows = %d, want 2", len(result))
		}
		if result[0]["id"] != "c-1" || result[1]["titulo"] != "Outro" {
			t.Errorf("result = %v", result)
		}
		if q.gotSQL != "SELECT * FROM conteudos WHERE organizacao_id = $1" {
			t.Errorf("sql = %q", q.gotSQL)
		}
	})

	t.Run("single requires exactly one row", func(t *testing.T) {
		q := &fakeQuerier{rows: newFakeRows([]string{"id"})}
		s := &Store{db: q}

		_, err := s.Execute(context.Background(), access.AuthorizedOp{
			Action:  models.ActionSelect,
			Table:   "organizacoes",
			Filters: []models.Filter{{Column: "id", Op: models.OpEq, Value: "org-1"}},
			Single:  true,
		})
		if !IsStoreError(err) {
			t.Fatalf("expected a store error, got %v", err)
		}
	})

	t.Run("query failure is wrapped", func(t *testing.T) {
		q := &fakeQuerier{err: errors.New("connection reset")}
		s := &Store{db: q}

		_, err := s.Execute(context.Background(), access.AuthorizedOp{
			Action:  models.ActionSelect,
			Table:   "conteudos",
			Filters: []models.Filter{{Column: "organizacao_id", Op: models.OpEq, Value: "org-1"}},
		})
		if !IsStoreError(err) {
			t.Fatalf("expected a store error, got %v", err)
		}
	})

	t.Run("unsupported operator fails before touching the store", func(t *testing.T) {
		q := &fakeQuerier{}
		s := &Store{db: q}

		_, err := s.Execute(context.Background(), access.AuthorizedOp{
			Action:  models.ActionSelect,
			Table:   "conteudos",
			Filters: []models.Filter{{Column: "status", Op: "regex", Value: ".*"}},
		})
		if !IsStoreError(err) {
			t.Fatalf("expected a store error, got %v", err)
		}
		if q.gotSQL != "" {
			t.Error("no statement should reach the store for an untranslatable filter")
		}
	})

	t.Run("mutations render with returning", func(t *testing.T) {
		q := &fakeQuerier{rows: newFakeRows([]string{"id"}, []interface{}{"c-1"})}
		s := &Store{db: q}

		_, err := s.Execute(context.Background(), access.AuthorizedOp{
			Action: models.ActionInsert,
			Table:  "conteudos",
			Rows:   []map[string]interface{}{{"organizacao_id": "org-1", "titulo": "Post"}},
		})
		if err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		want := "INSERT INTO conteudos (organizacao_id, titulo) VALUES ($1, $2) RETURNING *"
		if q.gotSQL != want {
			t.Errorf("sql = %q, want %q", q.gotSQL, want)
		}
	})
}
