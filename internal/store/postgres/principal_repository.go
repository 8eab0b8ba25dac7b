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

	"github.com/edgegate/edgegate/internal/identity"
)

// PrincipalRepository implements identity.Repository
type PrincipalRepository struct {
	db *DB
}

// NewPrincipalRepository creates a new principal repository
func NewPrincipalRepository(db *DB) *PrincipalRepository {
	return &PrincipalRepository{db: db}
}

// Create creates a new principal
func (r *PrincipalRepository) Create(ctx context.Context, p *identity.Principal) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO principals (id, email, password_hash, is_operator, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, p.ID, p.Email, p.PasswordHash, p.IsOperator, p.CreatedAt, p.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create principal: %w", err)
	}

	return nil
}

// GetByID retrieves a principal by ID
func (r *PrincipalRepository) GetByID(ctx context.Context, id string) (*identity.Principal, error) {
	return r.get(ctx, "id", id)
}

// GetByEmail retrieves a principal by email
func (r *PrincipalRepository) GetByEmail(ctx context.Context, email string) (*identity.Principal, error) {
	return r.get(ctx, "email", email)
}

func (r *PrincipalRepository) get(ctx context.Context, column, value string) (*identity.Principal, error) {
	var p identity.Principal

	err := r.db.pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT id, email, password_hash, is_operator, created_at, updated_at
		FROM principals
		WHERE %s = $1
	`, column), value).Scan(&p.ID, &p.Email, &p.PasswordHash, &p.IsOperator, &p.CreatedAt, &p.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, identity.ErrPrincipalNotFound
		}
		return nil, fmt.Errorf("failed to get principal: %w", err)
	}

	return &p, nil
}
