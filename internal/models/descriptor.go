// Datagate - Tenant-Scoped Data Access Gateway
// Copyright 2026 AgenciaFlow
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agenciaflow/datagate

package models

import (
	"github.com/goccy/go-json"
)

// Action identifies the store operation a descriptor requests.
type Action string

// Supported descriptor actions.
const (
	ActionSelect Action = "select"
	ActionInsert Action = "insert"
	ActionUpdate Action = "update"
	ActionUpsert Action = "upsert"
	ActionDelete Action = "delete"
)

// IsValidAction checks if an action is one of the supported values.
func IsValidAction(a Action) bool {
	switch a {
	case ActionSelect, ActionInsert, ActionUpdate, ActionUpsert, ActionDelete:
		return true
	}
	return false
}

// IsMutation reports whether the action writes to the store.
func (a Action) IsMutation() bool {
	return a != ActionSelect
}

// Operator is a closed set of filter comparison operators. The store layer
// translates each variant exhaustively; an operator outside this set is a
// validation error, never silently ignored.
type Operator string

// Supported filter operators.
const (
	OpEq    Operator = "eq"
	OpNeq   Operator = "neq"
	OpGt    Operator = "gt"
	OpGte   Operator = "gte"
	OpLt    Operator = "lt"
	OpLte   Operator = "lte"
	OpLike  Operator = "like"
	OpILike Operator = "ilike"
	OpIn    Operator = "in"
	OpIs    Operator = "is"
	OpNot   Operator = "not"
)

// IsValidOperator checks if an operator is one of the supported values.
func IsValidOperator(op Operator) bool {
	switch op {
	case OpEq, OpNeq, OpGt, OpGte, OpLt, OpLte, OpLike, OpILike, OpIn, OpIs, OpNot:
		return true
	}
	return false
}

// Filter is a single predicate on a descriptor. For the "not" operator,
// Negated carries the inner operator being negated (e.g. not+eq → "<>").
type Filter struct {
	Column  string      `json:"column"`
	Op      Operator    `json:"operator"`
	Value   interface{} `json:"value"`
	Negated Operator    `json:"negated_operator,omitempty"`
}

// OrderBy is one ordering term of a select descriptor.
type OrderBy struct {
	Column    string `json:"column"`
	Ascending bool   `json:"ascending"`
}

// OperationDescriptor is the caller-submitted unit of work: a generic store
// operation description. The authorizer never executes a descriptor
// as-given; it derives an authorized copy or rejects the request.
//
// Payload accepts either a single JSON object or an array of objects
// (multi-row insert); Rows() normalizes both shapes.
type OperationDescriptor struct {
	Action  Action                 `json:"action" validate:"required"`
	Table   string                 `json:"table" validate:"required"`
	Payload json.RawMessage        `json:"data,omitempty"`
	Match   map[string]interface{} `json:"match,omitempty"`
	Select  string                 `json:"select,omitempty"`
	Order   []OrderBy              `json:"order,omitempty"`
	Filters []Filter               `json:"filters,omitempty"`
	Limit   int                    `json:"limit,omitempty" validate:"min=0,max=1000"`
	Single  bool                   `json:"single,omitempty"`

	// OnConflict names the uniqueness column for upsert conflict
	// resolution. Empty means the schema's primary key.
	OnConflict string `json:"on_conflict,omitempty"`
}

// Rows normalizes the payload into a slice of row objects. A nil payload
// yields nil; a single object yields a one-element slice.
func (d *OperationDescriptor) Rows() ([]map[string]interface{}, error) {
	if len(d.Payload) == 0 {
		return nil, nil
	}

	var many []map[string]interface{}
	if err := json.Unmarshal(d.Payload, &many); err == nil {
		return many, nil
	}

	var one map[string]interface{}
	if err := json.Unmarshal(d.Payload, &one); err != nil {
		return nil, err
	}
	return []map[string]interface{}{one}, nil
}
