// Datagate - Tenant-Scoped Data Access Gateway
// Copyright 2026 AgenciaFlow
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agenciaflow/datagate

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/agenciaflow/datagate/internal/access"
	"github.com/agenciaflow/datagate/internal/logging"
	"github.com/agenciaflow/datagate/internal/metrics"
	"github.com/agenciaflow/datagate/internal/models"
)

// Execute runs an authorized operation against the store and returns the
// result rows as generic maps. This is the only path from a request to the
// privileged handle; the AuthorizedOp argument type guarantees the
// operation passed through the authorizer.
func (s *Store) Execute(ctx context.Context, op access.AuthorizedOp) ([]map[string]interface{}, error) {
	start := time.Now()

	sql, args, err := s.buildStatement(op)
	if err != nil {
		return nil, wrapStoreError("build statement", err)
	}

	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		metrics.RecordStoreQuery(string(op.Action), op.Table, time.Since(start), err)
		return nil, wrapStoreError(string(op.Action), err)
	}
	result, err := collectRows(rows)
	metrics.RecordStoreQuery(string(op.Action), op.Table, time.Since(start), err)
	if err != nil {
		return nil, wrapStoreError(string(op.Action), err)
	}

	if op.Single {
		if len(result) != 1 {
			return nil, wrapStoreError(string(op.Action),
				fmt.Errorf("expected exactly one row, got %d", len(result)))
		}
	}

	logging.Ctx(ctx).Debug().
		Str("action", string(op.Action)).
		Str("table", op.Table).
		Int("rows", len(result)).
		Dur("duration", time.Since(start)).
		Msg("operation executed")
	return result, nil
}

func (s *Store) buildStatement(op access.AuthorizedOp) (string, []interface{}, error) {
	switch op.Action {
	case models.ActionSelect:
		return buildSelect(op)
	case models.ActionInsert:
		return buildInsert(op)
	case models.ActionUpsert:
		return buildUpsert(op)
	case models.ActionUpdate:
		return buildUpdate(op)
	case models.ActionDelete:
		return buildDelete(op)
	default:
		return "", nil, fmt.Errorf("unsupported action %q", op.Action)
	}
}

// collectRows drains a result set into generic maps keyed by column name.
func collectRows(rows pgx.Rows) ([]map[string]interface{}, error) {
	defer rows.Close()

	fields := rows.FieldDescriptions()
	result := make([]map[string]interface{}, 0)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		row := make(map[string]interface{}, len(fields))
		for i, fd := range fields {
			row[fd.Name] = values[i]
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
