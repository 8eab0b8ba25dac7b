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

package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/edgegate/edgegate/internal/audit"
)

// Service authenticates and provisions principals.
type Service struct {
	repo        Repository
	hasher      *PasswordHasher
	auditLogger audit.Logger
}

// NewService creates a new identity service.
func NewService(repo Repository, hasher *PasswordHasher, auditLogger audit.Logger) *Service {
	return &Service{repo: repo, hasher: hasher, auditLogger: auditLogger}
}

// Authenticate verifies an email/password pair and returns the principal.
// Every failure mode returns ErrInvalidCredential so callers cannot
// distinguish a missing account from a wrong password.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Principal, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	p, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrPrincipalNotFound) {
			s.auditLogger.Log(ctx, audit.Event{
				Type:     audit.TypeLoginFailed,
				Resource: "principal",
				Metadata: map[string]any{"email": email},
			})
			return nil, ErrInvalidCredential
		}
		return nil, fmt.Errorf("failed to look up principal: %w", err)
	}

	ok, err := s.hasher.Verify(password, p.PasswordHash)
	if err != nil || !ok {
		s.auditLogger.Log(ctx, audit.Event{
			Type:     audit.TypeLoginFailed,
			ActorID:  p.ID,
			Resource: "principal",
		})
		return nil, ErrInvalidCredential
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeLoginSuccess,
		ActorID:  p.ID,
		Resource: "principal",
	})

	return p, nil
}

// Provision creates a principal with the given credential. Used by
// bootstrap tooling; the gate itself never provisions.
func (s *Service) Provision(ctx context.Context, email, password string, isOperator bool) (*Principal, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, ErrPrincipalExists
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	p := &Principal{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		IsOperator:   isOperator,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create principal: %w", err)
	}

	return p, nil
}
