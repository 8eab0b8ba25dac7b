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

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/edgegate/edgegate/internal/tenant"
)

// MembershipRepository implements tenant.Repository
type MembershipRepository struct {
	db *DB
}

// NewMembershipRepository creates a new membership repository
func NewMembershipRepository(db *DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

// ListForPrincipal returns the principal's non-deleted memberships ordered
// by creation time ascending. Soft-deleted rows are filtered in SQL so no
// caller can see them.
func (r *MembershipRepository) ListForPrincipal(ctx context.Context, principalID string) ([]*tenant.Membership, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT id, tenant_id, principal_id, role, created_at, deleted_at
		FROM memberships
		WHERE principal_id = $1 AND deleted_at IS NULL
		ORDER BY created_at ASC
	`, principalID)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	defer rows.Close()

	var memberships []*tenant.Membership
	for rows.Next() {
		var m tenant.Membership
		if err := rows.Scan(&m.ID, &m.TenantID, &m.PrincipalID, &m.Role, &m.CreatedAt, &m.DeletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		memberships = append(memberships, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read memberships: %w", err)
	}

	return memberships, nil
}

// Get returns the principal's non-deleted membership in one tenant.
func (r *MembershipRepository) Get(ctx context.Context, principalID, tenantID string) (*tenant.Membership, error) {
	var m tenant.Membership

	err := r.db.pool.QueryRow(ctx, `
		SELECT id, tenant_id, principal_id, role, created_at, deleted_at
		FROM memberships
		WHERE principal_id = $1 AND tenant_id = $2 AND deleted_at IS NULL
	`, principalID, tenantID).Scan(&m.ID, &m.TenantID, &m.PrincipalID, &m.Role, &m.CreatedAt, &m.DeletedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, tenant.ErrMembershipNotFound
		}
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}

	return &m, nil
}
