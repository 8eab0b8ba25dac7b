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

package session

import (
	"context"
	"errors"
	"time"
)

// Domain errors
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
)

// Principal is the authenticated actor bound to a session, independent of
// any tenant membership. IsOperator is the global operator flag that gates
// the ops zone.
type Principal struct {
	ID         string `json:"id"`
	IsOperator bool   `json:"is_operator"`
}

// Session is one issued credential. The token is opaque to everything but
// the store.
type Session struct {
	Token       string    `json:"token"`
	PrincipalID string    `json:"principal_id"`
	IsOperator  bool      `json:"is_operator"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// IsExpired checks if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Principal returns the principal view of the session.
func (s *Session) Principal() *Principal {
	return &Principal{ID: s.PrincipalID, IsOperator: s.IsOperator}
}

// Store defines the interface for session persistence.
type Store interface {
	// Set stores a session under its token with the given TTL.
	Set(ctx context.Context, sess *Session, ttl time.Duration) error

	// Get retrieves a session by token.
	Get(ctx context.Context, token string) (*Session, error)

	// Expire shortens a session's remaining TTL, used to keep a rotated
	// token briefly valid for in-flight requests.
	Expire(ctx context.Context, token string, ttl time.Duration) error

	// Delete removes a session.
	Delete(ctx context.Context, token string) error
}
