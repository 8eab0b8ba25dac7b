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

package tenant

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CookieName is the tenant-selection cookie shared across all zones.
const CookieName = "current_organization_id"

var ErrInvalidCookie = errors.New("invalid tenant cookie")

// CookieCodec signs and verifies the tenant-selection cookie. The value is
// a compact HS256 JWT carrying only the tenant ID, scoped to the shared
// parent domain so every zone sees the same selection.
type CookieCodec struct {
	secret []byte
	domain string
	secure bool
}

// NewCookieCodec creates a codec. domain is the shared parent domain the
// cookie is scoped to.
func NewCookieCodec(secret []byte, domain string, secure bool) *CookieCodec {
	return &CookieCodec{secret: secret, domain: domain, secure: secure}
}

type cookieClaims struct {
	TenantID string `json:"org"`
	jwt.RegisteredClaims
}

// Encode returns the Set-Cookie value selecting tenantID. No Max-Age: the
// selection must not expire before the session does.
func (c *CookieCodec) Encode(tenantID string) (*http.Cookie, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, cookieClaims{
		TenantID: tenantID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	})

	signed, err := token.SignedString(c.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign tenant cookie: %w", err)
	}

	return &http.Cookie{
		Name:     CookieName,
		Value:    signed,
		Domain:   c.domain,
		Path:     "/",
		Secure:   c.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}, nil
}

// Decode extracts the tenant ID from the request's selection cookie.
// Returns ErrInvalidCookie for a missing, malformed, or tampered cookie.
func (c *CookieCodec) Decode(r *http.Request) (string, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return "", ErrInvalidCookie
	}

	var claims cookieClaims
	token, err := jwt.ParseWithClaims(cookie.Value, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return c.secret, nil
	})
	if err != nil || !token.Valid || claims.TenantID == "" {
		return "", ErrInvalidCookie
	}

	return claims.TenantID, nil
}
