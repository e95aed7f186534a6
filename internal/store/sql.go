// Datagate - Tenant-Scoped Data Access Gateway
// Copyright 2026 AgenciaFlow
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agenciaflow/datagate

package store

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agenciaflow/datagate/internal/access"
	"github.com/agenciaflow/datagate/internal/models"
)

// sqlBuilder accumulates a parameterized statement with positional $N
// placeholders.
type sqlBuilder struct {
	args []interface{}
}

// placeholder appends an argument and returns its $N placeholder.
func (b *sqlBuilder) placeholder(value interface{}) string {
	b.args = append(b.args, value)
	return fmt.Sprintf("$%d", len(b.args))
}

// translateFilter renders one predicate. The operator switch is exhaustive
// over the closed models.Operator set; an operator outside it is an error,
// never a silently dropped predicate.
func (b *sqlBuilder) translateFilter(f models.Filter) (string, error) {
	return b.translateOp(f.Column, f.Op, f.Negated, f.Value)
}

func (b *sqlBuilder) translateOp(column string, op, negated models.Operator, value interface{}) (string, error) {
	switch op {
	case models.OpEq:
		return fmt.Sprintf("%s = %s", column, b.placeholder(value)), nil
	case models.OpNeq:
		return fmt.Sprintf("%s <> %s", column, b.placeholder(value)), nil
	case models.OpGt:
		return fmt.Sprintf("%s > %s", column, b.placeholder(value)), nil
	case models.OpGte:
		return fmt.Sprintf("%s >= %s", column, b.placeholder(value)), nil
	case models.OpLt:
		return fmt.Sprintf("%s < %s", column, b.placeholder(value)), nil
	case models.OpLte:
		return fmt.Sprintf("%s <= %s", column, b.placeholder(value)), nil
	case models.OpLike:
		return fmt.Sprintf("%s LIKE %s", column, b.placeholder(value)), nil
	case models.OpILike:
		return fmt.Sprintf("%s ILIKE %s", column, b.placeholder(value)), nil
	case models.OpIn:
		return b.translateIn(column, value)
	case models.OpIs:
		return translateIs(column, value)
	case models.OpNot:
		inner, err := b.translateOp(column, negated, "", value)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("NOT (%s)", inner), nil
	default:
		return "", fmt.Errorf("unsupported filter operator %q", op)
	}
}

// translateIn renders an IN list. An empty list matches nothing — it must
// not degenerate into an unconstrained predicate.
func (b *sqlBuilder) translateIn(column string, value interface{}) (string, error) {
	values, err := valueSlice(value)
	if err != nil {
		return "", fmt.Errorf("in filter on %s: %w", column, err)
	}
	if len(values) == 0 {
		return "FALSE", nil
	}
	placeholders := make([]string, len(values))
	for i, v := range values {
		placeholders[i] = b.placeholder(v)
	}
	return fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholders, ", ")), nil
}

// translateIs renders IS NULL / IS TRUE / IS FALSE. Postgres allows no
// placeholders on the right-hand side of IS, so the value set is closed.
func translateIs(column string, value interface{}) (string, error) {
	switch v := value.(type) {
	case nil:
		return fmt.Sprintf("%s IS NULL", column), nil
	case bool:
		if v {
			return fmt.Sprintf("%s IS TRUE", column), nil
		}
		return fmt.Sprintf("%s IS FALSE", column), nil
	default:
		return "", fmt.Errorf("is filter on %s accepts only null or boolean", column)
	}
}

// valueSlice normalizes IN-list values from the JSON decoder ([]interface{})
// or the client-scope overlay ([]string).
func valueSlice(value interface{}) ([]interface{}, error) {
	switch v := value.(type) {
	case []interface{}:
		return v, nil
	case []string:
		out := make([]interface{}, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out, nil
	default:
		return nil, fmt.Errorf("value must be a list")
	}
}

// whereClause renders the full predicate set joined with AND.
func (b *sqlBuilder) whereClause(filters []models.Filter) (string, error) {
	if len(filters) == 0 {
		return "", nil
	}
	clauses := make([]string, 0, len(filters))
	for _, f := range filters {
		clause, err := b.translateFilter(f)
		if err != nil {
			return "", err
		}
		clauses = append(clauses, clause)
	}
	return " WHERE " + strings.Join(clauses, " AND "), nil
}

// buildSelect renders a select statement for an authorized operation.
func buildSelect(op access.AuthorizedOp) (string, []interface{}, error) {
	b := &sqlBuilder{}

	projection := "*"
	if len(op.Columns) > 0 {
		projection = strings.Join(op.Columns, ", ")
	}

	where, err := b.whereClause(op.Filters)
	if err != nil {
		return "", nil, err
	}

	sql := fmt.Sprintf("SELECT %s FROM %s%s", projection, op.Table, where)

	if len(op.Order) > 0 {
		terms := make([]string, len(op.Order))
		for i, o := range op.Order {
			direction := "DESC"
			if o.Ascending {
				direction = "ASC"
			}
			terms[i] = fmt.Sprintf("%s %s", o.Column, direction)
		}
		sql += " ORDER BY " + strings.Join(terms, ", ")
	}

	limit := op.Limit
	if op.Single && (limit == 0 || limit > 2) {
		// Two rows are enough to detect a cardinality violation.
		limit = 2
	}
	if limit > 0 {
		sql += fmt.Sprintf(" LIMIT %d", limit)
	}

	return sql, b.args, nil
}

// rowColumns returns the sorted column set of the payload rows, verifying
// every row shares it: multi-row inserts map onto a single VALUES list.
func rowColumns(rows []map[string]interface{}) ([]string, error) {
	columns := make([]string, 0, len(rows[0]))
	for column := range rows[0] {
		columns = append(columns, column)
	}
	sort.Strings(columns)

	for _, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("payload rows must share the same columns")
		}
		for _, column := range columns {
			if _, ok := row[column]; !ok {
				return nil, fmt.Errorf("payload rows must share the same columns")
			}
		}
	}
	return columns, nil
}

// buildInsert renders a (possibly multi-row) insert returning the written
// rows.
func buildInsert(op access.AuthorizedOp) (string, []interface{}, error) {
	columns, err := rowColumns(op.Rows)
	if err != nil {
		return "", nil, err
	}

	b := &sqlBuilder{}
	valueLists := make([]string, len(op.Rows))
	for i, row := range op.Rows {
		placeholders := make([]string, len(columns))
		for j, column := range columns {
			placeholders[j] = b.placeholder(row[column])
		}
		valueLists[i] = "(" + strings.Join(placeholders, ", ") + ")"
	}

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s RETURNING *",
		op.Table, strings.Join(columns, ", "), strings.Join(valueLists, ", "))
	return sql, b.args, nil
}

// buildUpsert renders an insert with native conflict resolution. The
// conflict target defaults to the primary key column.
func buildUpsert(op access.AuthorizedOp) (string, []interface{}, error) {
	columns, err := rowColumns(op.Rows)
	if err != nil {
		return "", nil, err
	}

	conflict := op.OnConflict
	if conflict == "" {
		conflict = "id"
	}

	b := &sqlBuilder{}
	valueLists := make([]string, len(op.Rows))
	for i, row := range op.Rows {
		placeholders := make([]string, len(columns))
		for j, column := range columns {
			placeholders[j] = b.placeholder(row[column])
		}
		valueLists[i] = "(" + strings.Join(placeholders, ", ") + ")"
	}

	assignments := make([]string, 0, len(columns))
	for _, column := range columns {
		if column == conflict {
			continue
		}
		assignments = append(assignments, fmt.Sprintf("%s = EXCLUDED.%s", column, column))
	}
	if len(assignments) == 0 {
		// Every column is the conflict target; nothing to update.
		sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s ON CONFLICT (%s) DO NOTHING RETURNING *",
			op.Table, strings.Join(columns, ", "), strings.Join(valueLists, ", "), conflict)
		return sql, b.args, nil
	}

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s ON CONFLICT (%s) DO UPDATE SET %s RETURNING *",
		op.Table, strings.Join(columns, ", "), strings.Join(valueLists, ", "), conflict,
		strings.Join(assignments, ", "))
	return sql, b.args, nil
}

// buildUpdate renders an update constrained by the authorized predicate
// set, returning affected rows. A foreign-tenant target matches zero rows
// and returns an empty result, leaking nothing.
func buildUpdate(op access.AuthorizedOp) (string, []interface{}, error) {
	columns, err := rowColumns(op.Rows)
	if err != nil {
		return "", nil, err
	}

	b := &sqlBuilder{}
	assignments := make([]string, len(columns))
	for i, column := range columns {
		assignments[i] = fmt.Sprintf("%s = %s", column, b.placeholder(op.Rows[0][column]))
	}

	where, err := b.whereClause(op.Filters)
	if err != nil {
		return "", nil, err
	}
	if where == "" {
		return "", nil, fmt.Errorf("update without predicates")
	}

	sql := fmt.Sprintf("UPDATE %s SET %s%s RETURNING *",
		op.Table, strings.Join(assignments, ", "), where)
	return sql, b.args, nil
}

// buildDelete renders a delete constrained by the authorized predicate set.
func buildDelete(op access.AuthorizedOp) (string, []interface{}, error) {
	b := &sqlBuilder{}
	where, err := b.whereClause(op.Filters)
	if err != nil {
		return "", nil, err
	}
	if where == "" {
		return "", nil, fmt.Errorf("delete without predicates")
	}

	sql := fmt.Sprintf("DELETE FROM %s%s RETURNING *", op.Table, where)
	return sql, b.args, nil
}
