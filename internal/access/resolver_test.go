// Datagate - Tenant-Scoped Data Access Gateway
// Copyright 2026 AgenciaFlow
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agenciaflow/datagate

package access

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/agenciaflow/datagate/internal/models"
)

type fakeMembershipSource struct {
	memberships []models.Membership
	err         error
}

func (f *fakeMembershipSource) ActiveMemberships(ctx context.Context, userID string) ([]models.Membership, error) {
	return f.memberships, f.err
}

type fakeClientLinkSource struct {
	linked    []string
	all       []string
	linkedErr error
	allErr    error
}

func (f *fakeClientLinkSource) LinkedClientIDs(ctx context.Context, memberID, tenantID string) ([]string, error) {
	return f.linked, f.linkedErr
}

func (f *fakeClientLinkSource) TenantClientIDs(ctx context.Context, tenantID string) ([]string, error) {
	return f.all, f.allErr
}

func membership(id, tenant, user, role string, created time.Time) models.Membership {
	return models.Membership{
		ID:            id,
		OrganizacaoID: tenant,
		UsuarioID:     user,
		Papel:         role,
		Status:        models.MembershipStatusActive,
		CriadoEm:      created,
	}
}

func TestActorResolver(t *testing.T) {
	now := time.Now()

	t.Run("single membership builds the actor", func(t *testing.T) {
		source := &fakeMembershipSource{memberships: []models.Membership{
			membership("m-1", "org-1", "user-1", models.RoleGestor, now),
		}}
		actor, err := NewActorResolver(source).Resolve(context.Background(), "user-1")
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		want := models.Actor{UserID: "user-1", TenantID: "org-1", Role: models.RoleGestor, MemberID: "m-1"}
		if actor != want {
			t.Errorf("actor = %+v, want %+v", actor, want)
		}
	})

	t.Run("no membership fails closed", func(t *testing.T) {
		source := &fakeMembershipSource{}
		_, err := NewActorResolver(source).Resolve(context.Background(), "user-1")
		if !errors.Is(err, ErrNoMembership) {
			t.Fatalf("expected ErrNoMembership, got %v", err)
		}
	})

	t.Run("multiple memberships pick the oldest deterministically", func(t *testing.T) {
		source := &fakeMembershipSource{memberships: []models.Membership{
			membership("m-1", "org-1", "user-1", models.RoleAdmin, now.Add(-48*time.Hour)),
			membership("m-2", "org-2", "user-1", models.RolePortal, now),
		}}
		actor, err := NewActorResolver(source).Resolve(context.Background(), "user-1")
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if actor.TenantID != "org-1" || actor.MemberID != "m-1" {
			t.Errorf("actor = %+v, want the oldest membership", actor)
		}
	})

	t.Run("source failure propagates", func(t *testing.T) {
		source := &fakeMembershipSource{err: errors.New("connection reset")}
		_, err := NewActorResolver(source).Resolve(context.Background(), "user-1")
		if err == nil || errors.Is(err, ErrNoMembership) {
			t.Fatalf("expected the source error, got %v", err)
		}
	})
}

func TestClientLinkResolver(t *testing.T) {
	actor := models.Actor{UserID: "user-1", TenantID: "org-1", Role: models.RolePortal, MemberID: "m-1"}

	t.Run("explicit links are used verbatim", func(t *testing.T) {
		source := &fakeClientLinkSource{linked: []string{"cli-1"}, all: []string{"cli-1", "cli-2", "cli-3"}}
		got, err := NewClientLinkResolver(source, true).Resolve(context.Background(), actor)
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if len(got) != 1 || got[0] != "cli-1" {
			t.Errorf("clients = %v, want [cli-1]", got)
		}
	})

	t.Run("no links falls back to all tenant clients when enabled", func(t *testing.T) {
		source := &fakeClientLinkSource{all: []string{"cli-1", "cli-2"}}
		got, err := NewClientLinkResolver(source, true).Resolve(context.Background(), actor)
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if len(got) != 2 {
			t.Errorf("clients = %v, want all tenant clients", got)
		}
	})

	t.Run("fallback disabled yields no visibility", func(t *testing.T) {
		source := &fakeClientLinkSource{all: []string{"cli-1", "cli-2"}}
		got, err := NewClientLinkResolver(source, false).Resolve(context.Background(), actor)
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if len(got) != 0 {
			t.Errorf("clients = %v, want empty", got)
		}
	})

	t.Run("empty tenant roster yields no visibility", func(t *testing.T) {
		source := &fakeClientLinkSource{}
		got, err := NewClientLinkResolver(source, true).Resolve(context.Background(), actor)
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if len(got) != 0 {
			t.Errorf("clients = %v, want empty", got)
		}
	})

	t.Run("link source failure propagates", func(t *testing.T) {
		source := &fakeClientLinkSource{linkedErr: errors.New("timeout")}
		if _, err := NewClientLinkResolver(source, true).Resolve(context.Background(), actor); err == nil {
			t.Fatal("expected an error")
		}
	})
}
