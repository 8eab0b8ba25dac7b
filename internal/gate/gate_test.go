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

package gate_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgegate/edgegate/internal/audit"
	"github.com/edgegate/edgegate/internal/authz"
	"github.com/edgegate/edgegate/internal/gate"
	"github.com/edgegate/edgegate/internal/ipfilter"
	"github.com/edgegate/edgegate/internal/session"
	"github.com/edgegate/edgegate/internal/tenant"
	"github.com/edgegate/edgegate/internal/zone"
)

// stubSessions counts Resolve calls so tests can assert which requests
// consult the session store at all.
type stubSessions struct {
	principal *session.Principal
	cookies   []*http.Cookie
	err       error
	calls     int
}

func (s *stubSessions) Resolve(ctx context.Context, r *http.Request) (*session.Principal, []*http.Cookie, error) {
	s.calls++
	return s.principal, s.cookies, s.err
}

type stubRepo struct {
	memberships []*tenant.Membership
	err         error
}

func (s *stubRepo) ListForPrincipal(ctx context.Context, principalID string) ([]*tenant.Membership, error) {
	return s.memberships, s.err
}

func (s *stubRepo) Get(ctx context.Context, principalID, tenantID string) (*tenant.Membership, error) {
	for _, m := range s.memberships {
		if m.TenantID == tenantID {
			return m, nil
		}
	}
	return nil, tenant.ErrMembershipNotFound
}

func testZones(enforcement zone.Enforcement) *zone.Table {
	return zone.NewTable(
		zone.Config{
			Zone:        zone.Public,
			BaseURL:     "http://www.example.com",
			LoginPath:   "/login",
			ExemptPaths: []string{"/login", "/auth/callback"},
		},
		zone.Config{
			Zone:         zone.App,
			BaseURL:      "http://app.example.com",
			RequiresAuth: true,
			Enforcement:  enforcement,
			LoginPath:    "/login",
			ExemptPaths:  []string{"/auth/callback"},
		},
		zone.Config{
			Zone:         zone.Admin,
			BaseURL:      "http://admin.example.com",
			RequiresAuth: true,
			Enforcement:  enforcement,
			LoginPath:    "/login",
			ExemptPaths:  []string{"/auth/callback"},
		},
		zone.Config{
			Zone:         zone.Ops,
			BaseURL:      "http://ops.example.com",
			RequiresAuth: true,
			LoginPath:    "/login",
			ExemptPaths:  []string{"/login", "/auth/callback"},
		},
	)
}

type fixture struct {
	gate     *gate.Gate
	sessions *stubSessions
	repo     *stubRepo
}

func newFixture(t *testing.T, opts ...func(*fixture)) *fixture {
	t.Helper()
	return newFixtureWith(t, testZones(zone.EnforceImmediate), nil, opts...)
}

func newFixtureWith(t *testing.T, zones *zone.Table, allowlist []string, opts ...func(*fixture)) *fixture {
	t.Helper()

	f := &fixture{
		sessions: &stubSessions{},
		repo:     &stubRepo{},
	}
	for _, opt := range opts {
		opt(f)
	}

	codec := tenant.NewCookieCodec([]byte("0123456789abcdef0123456789abcdef"), "example.com", false)
	resolver := tenant.NewResolver(f.repo, codec)

	f.gate = gate.New(
		zones,
		ipfilter.New(allowlist),
		f.sessions,
		resolver,
		audit.NewSlogLogger(),
		nil,
		time.Second,
	)
	return f
}

// echo records what the gate hands downstream.
type echo struct {
	called    bool
	path      string
	principal *session.Principal
	tenantCtx tenant.Context
}

func (e *echo) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		e.called = true
		e.path = r.URL.Path
		e.principal = gate.PrincipalFromContext(r.Context())
		e.tenantCtx = gate.TenantFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func serve(t *testing.T, g *gate.Gate, r *http.Request) (*httptest.ResponseRecorder, *echo) {
	t.Helper()
	e := &echo{}
	w := httptest.NewRecorder()
	g.Middleware(e.handler()).ServeHTTP(w, r)
	return w, e
}

func location(t *testing.T, w *httptest.ResponseRecorder) (*url.URL, url.Values) {
	t.Helper()
	u, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	return u, u.Query()
}

func TestGate_UnknownHostIsNotFound(t *testing.T) {
	f := newFixture(t)

	r := httptest.NewRequest("GET", "http://unknown.example.com/anything", nil)
	w, e := serve(t, f.gate, r)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Not Found: Unknown subdomain", w.Body.String())
	assert.False(t, e.called)
	assert.Zero(t, f.sessions.calls)
}

func TestGate_OpsPerimeterDenial(t *testing.T) {
	f := newFixtureWith(t, testZones(zone.EnforceImmediate), []string{"10.0.0.1"})

	r := httptest.NewRequest("GET", "http://ops.example.com/runbooks", nil)
	r.Header.Set("X-Forwarded-For", "203.0.113.9")
	w, e := serve(t, f.gate, r)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Access Denied: IP not allowed", w.Body.String())
	assert.False(t, e.called)
	// Perimeter denial happens before any session work.
	assert.Zero(t, f.sessions.calls)

	r = httptest.NewRequest("GET", "http://ops.example.com/runbooks", nil)
	r.Header.Set("X-Forwarded-For", "10.0.0.1")
	w, _ = serve(t, f.gate, r)
	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
}

func TestGate_PublicProceedsWithoutSessionLookup(t *testing.T) {
	f := newFixture(t)

	r := httptest.NewRequest("GET", "http://www.example.com/pricing", nil)
	w, e := serve(t, f.gate, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, e.called)
	assert.Equal(t, "/public/pricing", e.path)
	assert.Equal(t, "public", w.Header().Get("x-domain"))
	assert.Equal(t, "/pricing", w.Header().Get("x-invoke-path"))
	assert.Zero(t, f.sessions.calls)
}

func TestGate_ExemptPathSkipsAuthorization(t *testing.T) {
	f := newFixture(t)

	r := httptest.NewRequest("GET", "http://app.example.com/auth/callback", nil)
	w, e := serve(t, f.gate, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, e.called)
	assert.Equal(t, "/app/auth/callback", e.path)
	assert.Zero(t, f.sessions.calls)
}

func TestGate_AppUnauthenticatedRedirectsToLogin(t *testing.T) {
	f := newFixture(t)

	r := httptest.NewRequest("GET", "http://app.example.com/dashboard/analytics", nil)
	w, e := serve(t, f.gate, r)

	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.False(t, e.called)

	u, q := location(t, w)
	assert.Equal(t, "www.example.com", u.Host)
	assert.Equal(t, "/login", u.Path)
	assert.Equal(t, "/dashboard/analytics", q.Get(authz.ParamReturnTo))
}

func TestGate_AppAuthenticatedProceeds(t *testing.T) {
	f := newFixture(t, func(f *fixture) {
		f.sessions.principal = &session.Principal{ID: "p1"}
		f.repo.memberships = []*tenant.Membership{
			{TenantID: "t1", PrincipalID: "p1", Role: tenant.RoleMember, CreatedAt: time.Now()},
		}
	})

	r := httptest.NewRequest("GET", "http://app.example.com/dashboard/analytics", nil)
	w, e := serve(t, f.gate, r)

	assert.Equal(t, http.StatusOK, w.Code)
	require.True(t, e.called)
	assert.Equal(t, "/app/dashboard/analytics", e.path)
	require.NotNil(t, e.principal)
	assert.Equal(t, "p1", e.principal.ID)
	assert.Equal(t, "t1", e.tenantCtx.TenantID)
}

// No tenant cookie yet: the fallback selection is persisted once, and a
// follow-up request carrying the issued cookie is not re-stamped.
func TestGate_TenantFallbackCookieSetOnce(t *testing.T) {
	f := newFixture(t, func(f *fixture) {
		f.sessions.principal = &session.Principal{ID: "p1"}
		f.repo.memberships = []*tenant.Membership{
			{TenantID: "t1", PrincipalID: "p1", Role: tenant.RoleMember, CreatedAt: time.Now()},
		}
	})

	r := httptest.NewRequest("GET", "http://app.example.com/dashboard", nil)
	w, _ := serve(t, f.gate, r)
	assert.Equal(t, http.StatusOK, w.Code)

	var issued *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == tenant.CookieName {
			issued = c
		}
	}
	require.NotNil(t, issued)

	r = httptest.NewRequest("GET", "http://app.example.com/dashboard", nil)
	r.AddCookie(issued)
	w, _ = serve(t, f.gate, r)
	assert.Equal(t, http.StatusOK, w.Code)

	for _, c := range w.Result().Cookies() {
		assert.NotEqual(t, tenant.CookieName, c.Name)
	}
}

func TestGate_AdminMemberRedirectedToApp(t *testing.T) {
	f := newFixture(t, func(f *fixture) {
		f.sessions.principal = &session.Principal{ID: "p1"}
		f.repo.memberships = []*tenant.Membership{
			{TenantID: "t1", PrincipalID: "p1", Role: tenant.RoleMember, CreatedAt: time.Now()},
		}
	})

	r := httptest.NewRequest("GET", "http://admin.example.com/settings", nil)
	w, e := serve(t, f.gate, r)

	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.False(t, e.called)

	u, q := location(t, w)
	assert.Equal(t, "app.example.com", u.Host)
	assert.Equal(t, authz.ReasonInsufficientAdmin, q.Get(authz.ParamError))
}

func TestGate_AdminOwnerProceeds(t *testing.T) {
	f := newFixture(t, func(f *fixture) {
		f.sessions.principal = &session.Principal{ID: "p1"}
		f.repo.memberships = []*tenant.Membership{
			{TenantID: "t1", PrincipalID: "p1", Role: tenant.RoleOwner, CreatedAt: time.Now()},
		}
	})

	r := httptest.NewRequest("GET", "http://admin.example.com/settings", nil)
	w, e := serve(t, f.gate, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, e.called)
	assert.Equal(t, "/admin/settings", e.path)
}

func TestGate_SessionFailureDegradesToUnauthenticated(t *testing.T) {
	f := newFixture(t, func(f *fixture) {
		f.sessions.err = errors.New("redis: connection refused")
	})

	r := httptest.NewRequest("GET", "http://app.example.com/dashboard", nil)
	w, e := serve(t, f.gate, r)

	// Never a 5xx: the failure costs one login round trip at most.
	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.False(t, e.called)

	u, _ := location(t, w)
	assert.Equal(t, "www.example.com", u.Host)
}

func TestGate_MembershipFailureFailsClosedOnAdmin(t *testing.T) {
	f := newFixture(t, func(f *fixture) {
		f.sessions.principal = &session.Principal{ID: "p1"}
		f.repo.err = errors.New("pg: connection refused")
	})

	r := httptest.NewRequest("GET", "http://admin.example.com/settings", nil)
	w, _ := serve(t, f.gate, r)

	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	u, q := location(t, w)
	assert.Equal(t, "app.example.com", u.Host)
	assert.Equal(t, authz.ReasonInsufficientAdmin, q.Get(authz.ParamError))
}

func TestGate_RotatedSessionCookiesForwardedOnRedirect(t *testing.T) {
	rotated := &http.Cookie{Name: "edgegate_session", Value: "fresh-token"}
	f := newFixture(t, func(f *fixture) {
		f.sessions.principal = &session.Principal{ID: "p1"}
		f.sessions.cookies = []*http.Cookie{rotated}
		f.repo.memberships = []*tenant.Membership{
			{TenantID: "t1", PrincipalID: "p1", Role: tenant.RoleMember, CreatedAt: time.Now()},
		}
	})

	r := httptest.NewRequest("GET", "http://admin.example.com/settings", nil)
	w, _ := serve(t, f.gate, r)

	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)

	var found bool
	for _, c := range w.Result().Cookies() {
		if c.Name == rotated.Name && c.Value == rotated.Value {
			found = true
		}
	}
	assert.True(t, found, "rotated credential must survive a deny")
}

func TestGate_DeferredEnforcementProceedsWithHeader(t *testing.T) {
	f := newFixtureWith(t, testZones(zone.EnforceDeferred), nil)

	r := httptest.NewRequest("GET", "http://app.example.com/dashboard", nil)
	w, e := serve(t, f.gate, r)

	assert.Equal(t, http.StatusOK, w.Code)
	require.True(t, e.called)
	assert.Equal(t, "/app/dashboard", e.path)

	redirect := w.Header().Get("x-auth-redirect")
	require.NotEmpty(t, redirect)
	u, err := url.Parse(redirect)
	require.NoError(t, err)
	assert.Equal(t, "www.example.com", u.Host)
	assert.Equal(t, "/dashboard", u.Query().Get(authz.ParamReturnTo))
}

// Handle is idempotent over its own rewrite: the host never changes, so a
// re-entrant pass classifies identically.
func TestGate_RewritePreservesClassification(t *testing.T) {
	f := newFixture(t, func(f *fixture) {
		f.sessions.principal = &session.Principal{ID: "p1"}
		f.repo.memberships = []*tenant.Membership{
			{TenantID: "t1", PrincipalID: "p1", Role: tenant.RoleMember, CreatedAt: time.Now()},
		}
	})

	r := httptest.NewRequest("GET", "http://app.example.com/dashboard", nil)
	first := f.gate.Handle(r)
	assert.Equal(t, gate.KindProceed, first.Kind)
	assert.Equal(t, "/app/dashboard", first.RewrittenPath)
	assert.Equal(t, "/dashboard", first.OriginalPath)

	r2 := r.Clone(r.Context())
	r2.URL.Path = first.RewrittenPath
	second := f.gate.Handle(r2)
	assert.Equal(t, first.Zone, second.Zone)
	assert.Equal(t, gate.KindProceed, second.Kind)
}
