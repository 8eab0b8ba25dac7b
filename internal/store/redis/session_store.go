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

// Package redis provides the Redis-backed session store used on the
// per-request fast path of the gate.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/edgegate/edgegate/internal/session"
)

const sessionKeyPrefix = "edgegate:session:"

// SessionStore implements session.Store on Redis. TTLs are owned by Redis
// so expired sessions vanish without a cleanup job.
type SessionStore struct {
	client *goredis.Client
}

// NewSessionStore creates a new session store.
func NewSessionStore(client *goredis.Client) *SessionStore {
	return &SessionStore{client: client}
}

// Set stores a session under its token with the given TTL.
func (s *SessionStore) Set(ctx context.Context, sess *session.Session, ttl time.Duration) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	if err := s.client.Set(ctx, sessionKeyPrefix+sess.Token, payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}

	return nil
}

// Get retrieves a session by token.
func (s *SessionStore) Get(ctx context.Context, token string) (*session.Session, error) {
	payload, err := s.client.Get(ctx, sessionKeyPrefix+token).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, session.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var sess session.Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}

	return &sess, nil
}

// Expire shortens a session's remaining TTL.
func (s *SessionStore) Expire(ctx context.Context, token string, ttl time.Duration) error {
	ok, err := s.client.Expire(ctx, sessionKeyPrefix+token, ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to expire session: %w", err)
	}
	if !ok {
		return session.ErrSessionNotFound
	}
	return nil
}

// Delete removes a session.
func (s *SessionStore) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, sessionKeyPrefix+token).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
