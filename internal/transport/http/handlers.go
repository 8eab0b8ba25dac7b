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

package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/edgegate/edgegate/internal/audit"
	"github.com/edgegate/edgegate/internal/gate"
	"github.com/edgegate/edgegate/internal/identity"
	"github.com/edgegate/edgegate/internal/session"
	"github.com/edgegate/edgegate/internal/tenant"
)

// Handler holds the zone handler trees behind the gate. These stand in
// for the downstream rendering layers: real page content is out of scope,
// but the login, callback, and tenant-switch flows are owned here.
type Handler struct {
	identityService *identity.Service
	sessionService  *session.Service
	tenantResolver  *tenant.Resolver
	auditLogger     audit.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(
	identityService *identity.Service,
	sessionService *session.Service,
	tenantResolver *tenant.Resolver,
	auditLogger audit.Logger,
) *Handler {
	return &Handler{
		identityService: identityService,
		sessionService:  sessionService,
		tenantResolver:  tenantResolver,
		auditLogger:     auditLogger,
	}
}

// NewRouter creates the edge router: ambient middleware, then the gate,
// then the per-zone handler subtrees the gate rewrites into.
func NewRouter(h *Handler, g *gate.Gate, rateLimiter *RateLimiter) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RateLimitMiddleware(rateLimiter))
	r.Use(func(handler http.Handler) http.Handler {
		return otelhttp.NewHandler(handler, "http_request",
			otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	})
	r.Use(LoggingMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Liveness probe, host-agnostic, outside the gate.
	r.Get("/healthz", h.HealthCheck)

	r.Group(func(r chi.Router) {
		r.Use(g.Middleware)

		r.Route("/public", func(r chi.Router) {
			r.Get("/login", h.LoginPage)
			r.Post("/login", h.Login)
			r.Post("/logout", h.Logout)
			r.Get("/auth/callback", h.AuthCallback)
			r.NotFound(h.ZoneIndex)
		})

		r.Route("/app", func(r chi.Router) {
			r.Get("/auth/callback", h.AuthCallback)
			r.Post("/switch-tenant", h.SwitchTenant)
			r.NotFound(h.ZoneIndex)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Get("/auth/callback", h.AuthCallback)
			r.NotFound(h.ZoneIndex)
		})

		r.Route("/ops", func(r chi.Router) {
			r.Get("/login", h.LoginPage)
			r.Post("/login", h.Login)
			r.Get("/auth/callback", h.AuthCallback)
			r.NotFound(h.ZoneIndex)
		})
	})

	return r
}

// HealthCheck returns the health status
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "edgegate",
	})
}

// ZoneIndex is the placeholder hand-off to a zone's rendering layer. It
// honors the gate's deferred-enforcement annotation: when the gate left a
// redirect for the destination to apply, apply it here.
func (h *Handler) ZoneIndex(w http.ResponseWriter, r *http.Request) {
	if target := w.Header().Get(gate.HeaderDeferredRedirect); target != "" {
		http.Redirect(w, r, target, http.StatusTemporaryRedirect)
		return
	}

	body := map[string]string{
		"zone": w.Header().Get(gate.HeaderDomain),
		"path": w.Header().Get(gate.HeaderInvokePath),
	}
	if tc := gate.TenantFromContext(r.Context()); !tc.None() {
		body["tenant_id"] = tc.TenantID
	}
	respondJSON(w, http.StatusOK, body)
}
