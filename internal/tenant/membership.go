// Copyright 2026 The EdgeGate Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package tenant resolves and persists the current-tenant selection for a
// request: the membership model, the signed selection cookie, and the
// resolver that binds a principal to one of its tenants.
package tenant

import (
	"context"
	"errors"
	"time"
)

// Domain errors
var ErrMembershipNotFound = errors.New("membership not found")

// Role is a principal's role within one tenant.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// IsAdmin reports whether the role carries tenant administration rights.
func (r Role) IsAdmin() bool {
	return r == RoleOwner || r == RoleAdmin
}

// Membership is the relationship between a principal and a tenant. A
// soft-deleted row (DeletedAt set) must be excluded from every
// authorization and tenant-resolution decision.
type Membership struct {
	ID          string
	TenantID    string
	PrincipalID string
	Role        Role
	CreatedAt   time.Time
	DeletedAt   *time.Time
}

// IsDeleted reports whether the membership is soft-deleted.
func (m *Membership) IsDeleted() bool {
	return m.DeletedAt != nil
}

// Repository defines the interface for membership storage.
type Repository interface {
	// ListForPrincipal returns the principal's non-deleted memberships
	// ordered by creation time ascending.
	ListForPrincipal(ctx context.Context, principalID string) ([]*Membership, error)

	// Get returns the principal's non-deleted membership in one tenant.
	Get(ctx context.Context, principalID, tenantID string) (*Membership, error)
}
