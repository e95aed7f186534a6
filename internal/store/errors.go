// Datagate - Tenant-Scoped Data Access Gateway
// Copyright 2026 AgenciaFlow
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agenciaflow/datagate

package store

import (
	"errors"
	"fmt"
)

// StoreError wraps a failure from the underlying store. Rejections never
// become StoreErrors: by the time a descriptor reaches this package it is
// authorized, so any failure here is an execution problem (500), not a
// policy decision.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// IsStoreError reports whether err is a store execution failure.
func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}

// wrapStoreError attaches the failed operation name.
func wrapStoreError(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}
