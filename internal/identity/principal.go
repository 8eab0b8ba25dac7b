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

// Package identity owns the principal records behind the session
// resolver's login endpoints. The gate's per-request path never touches
// this package; it only runs at login time.
package identity

import (
	"context"
	"errors"
	"time"
)

// Domain errors
var (
	ErrPrincipalNotFound = errors.New("principal not found")
	ErrPrincipalExists   = errors.New("principal already exists")
	ErrInvalidCredential = errors.New("invalid credential")
)

// Principal is an account that can authenticate. IsOperator is the global
// flag granting ops-zone access, independent of tenant membership.
type Principal struct {
	ID           string
	Email        string
	PasswordHash string
	IsOperator   bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Repository defines the interface for principal storage.
type Repository interface {
	Create(ctx context.Context, p *Principal) error
	GetByID(ctx context.Context, id string) (*Principal, error)
	GetByEmail(ctx context.Context, email string) (*Principal, error)
}
