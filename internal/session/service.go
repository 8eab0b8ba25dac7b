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
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Config holds session issuance and cookie settings.
type Config struct {
	CookieName   string
	CookieDomain string
	CookiePath   string
	CookieSecure bool
	Lifetime     time.Duration
	// RotateWithin triggers token rotation when a resolved session is
	// this close to expiry.
	RotateWithin time.Duration
	// RotationGrace keeps the superseded token valid for in-flight
	// requests after rotation.
	RotationGrace time.Duration
}

// Service issues, resolves, and rotates sessions. The gate consumes it as
// its session resolver collaborator: any failure degrades to an
// unauthenticated principal, never to a hard error.
type Service struct {
	store Store
	cfg   Config
}

// NewService creates a new session service.
func NewService(store Store, cfg Config) *Service {
	if cfg.CookiePath == "" {
		cfg.CookiePath = "/"
	}
	return &Service{store: store, cfg: cfg}
}

// Resolve returns the principal for the request's session cookie, or nil
// when there is none. When the session is near expiry the token is rotated
// and the replacement cookie is returned for the caller to forward on its
// response untouched.
func (s *Service) Resolve(ctx context.Context, r *http.Request) (*Principal, []*http.Cookie, error) {
	cookie, err := r.Cookie(s.cfg.CookieName)
	if err != nil || cookie.Value == "" {
		return nil, nil, nil
	}

	sess, err := s.store.Get(ctx, cookie.Value)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) || errors.Is(err, ErrSessionExpired) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("failed to resolve session: %w", err)
	}

	if sess.IsExpired() {
		_ = s.store.Delete(ctx, sess.Token)
		return nil, nil, nil
	}

	if time.Until(sess.ExpiresAt) < s.cfg.RotateWithin {
		rotated, err := s.rotate(ctx, sess)
		if err != nil {
			// Rotation failure is not fatal; the current token still works.
			slog.WarnContext(ctx, "session rotation failed",
				slog.String("component", "session"), slog.String("error", err.Error()))
			return sess.Principal(), nil, nil
		}
		return rotated.Principal(), []*http.Cookie{s.cookie(rotated.Token, rotated.ExpiresAt)}, nil
	}

	return sess.Principal(), nil, nil
}

// Login mints a new session for an authenticated principal and returns the
// cookie to set.
func (s *Service) Login(ctx context.Context, principalID string, isOperator bool) (*Session, *http.Cookie, error) {
	now := time.Now()
	sess := &Session{
		Token:       uuid.NewString(),
		PrincipalID: principalID,
		IsOperator:  isOperator,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.cfg.Lifetime),
	}

	if err := s.store.Set(ctx, sess, s.cfg.Lifetime); err != nil {
		return nil, nil, fmt.Errorf("failed to create session: %w", err)
	}

	return sess, s.cookie(sess.Token, sess.ExpiresAt), nil
}

// Logout revokes the request's session, if any, and returns an expired
// cookie that clears the client's copy.
func (s *Service) Logout(ctx context.Context, r *http.Request) (*http.Cookie, error) {
	cleared := s.cookie("", time.Unix(0, 0))
	cleared.MaxAge = -1

	cookie, err := r.Cookie(s.cfg.CookieName)
	if err != nil || cookie.Value == "" {
		return cleared, nil
	}

	if err := s.store.Delete(ctx, cookie.Value); err != nil {
		return cleared, fmt.Errorf("failed to revoke session: %w", err)
	}

	return cleared, nil
}

// rotate issues a replacement token and keeps the old one valid for a
// short grace window so concurrent requests holding it do not fail.
func (s *Service) rotate(ctx context.Context, old *Session) (*Session, error) {
	now := time.Now()
	rotated := &Session{
		Token:       uuid.NewString(),
		PrincipalID: old.PrincipalID,
		IsOperator:  old.IsOperator,
		CreatedAt:   old.CreatedAt,
		ExpiresAt:   now.Add(s.cfg.Lifetime),
	}

	if err := s.store.Set(ctx, rotated, s.cfg.Lifetime); err != nil {
		return nil, err
	}

	if err := s.store.Expire(ctx, old.Token, s.cfg.RotationGrace); err != nil {
		slog.WarnContext(ctx, "failed to shorten superseded session",
			slog.String("component", "session"), slog.String("error", err.Error()))
	}

	return rotated, nil
}

func (s *Service) cookie(token string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    token,
		Domain:   s.cfg.CookieDomain,
		Path:     s.cfg.CookiePath,
		Expires:  expires,
		Secure:   s.cfg.CookieSecure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}
