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

// Package gate composes host classification, perimeter filtering, session
// resolution, authorization, and tenant resolution into one per-request
// decision pipeline, and rewrites permitted requests onto their zone's
// handler subtree.
package gate

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/edgegate/edgegate/internal/audit"
	"github.com/edgegate/edgegate/internal/authz"
	"github.com/edgegate/edgegate/internal/ipfilter"
	"github.com/edgegate/edgegate/internal/observability/metrics"
	"github.com/edgegate/edgegate/internal/session"
	"github.com/edgegate/edgegate/internal/tenant"
	"github.com/edgegate/edgegate/internal/zone"
)

// The only two non-2xx bodies the gate itself owns. Everything else it
// denies becomes a 307 redirect with a readable reason.
const (
	NotFoundBody  = "Not Found: Unknown subdomain"
	ForbiddenBody = "Access Denied: IP not allowed"
)

// Response headers the gate hands downstream.
const (
	HeaderDomain           = "x-domain"
	HeaderInvokePath       = "x-invoke-path"
	HeaderDeferredRedirect = "x-auth-redirect"
)

// Kind enumerates the terminal outcomes of the pipeline.
type Kind int

const (
	KindProceed Kind = iota
	KindNotFound
	KindForbidden
	KindRedirect
)

// Decision is the sole output of processing one request. It owns no state
// beyond the request's lifetime.
type Decision struct {
	Kind          Kind
	Zone          zone.Zone
	RedirectURL   string
	Reason        string
	OriginalPath  string
	RewrittenPath string
	Principal     *session.Principal
	Tenant        tenant.Context
	// SetTenantCookie signals that tenant resolution fell back and the
	// selection must be persisted on the response.
	SetTenantCookie bool
	// SessionCookies are rotated credentials from the session resolver,
	// forwarded untouched.
	SessionCookies []*http.Cookie
	// DeferredRedirect carries the deny redirect for zones configured
	// with deferred enforcement; the destination handler acts on it.
	DeferredRedirect string
}

// SessionResolver is the external collaborator that authenticates request
// credentials. A failure must behave exactly like an absent session.
type SessionResolver interface {
	Resolve(ctx context.Context, r *http.Request) (*session.Principal, []*http.Cookie, error)
}

// TenantResolver binds a principal to its current tenant.
type TenantResolver interface {
	Resolve(ctx context.Context, principal *session.Principal, r *http.Request) tenant.Context
	Cookie(tc tenant.Context) (*http.Cookie, error)
}

// Gate is the edge request pipeline. All fields are read-only after
// construction; requests share nothing mutable.
type Gate struct {
	zones     *zone.Table
	filter    *ipfilter.Filter
	sessions  SessionResolver
	tenants   TenantResolver
	evaluator *authz.Evaluator
	audit     audit.Logger
	metrics   *metrics.Gate
	// timeout bounds each collaborator call; on expiry the call degrades
	// to "no session" / "no tenant", never to a 5xx.
	timeout time.Duration
}

// New creates a gate over the given collaborators.
func New(
	zones *zone.Table,
	filter *ipfilter.Filter,
	sessions SessionResolver,
	tenants TenantResolver,
	auditLogger audit.Logger,
	gateMetrics *metrics.Gate,
	timeout time.Duration,
) *Gate {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Gate{
		zones:     zones,
		filter:    filter,
		sessions:  sessions,
		tenants:   tenants,
		evaluator: authz.NewEvaluator(zones),
		audit:     auditLogger,
		metrics:   gateMetrics,
		timeout:   timeout,
	}
}

// Handle runs the pipeline for one request, short-circuiting on the first
// terminal result. Sequencing: classify, perimeter-filter (ops only),
// exempt-path check, session resolution, tenant resolution, authorization,
// rewrite. Re-running it against the rewritten request classifies the same
// way (the rewrite never touches the host) and never re-sets a tenant
// cookie that is already valid.
func (g *Gate) Handle(r *http.Request) Decision {
	z := zone.Classify(r.Host)
	if z == zone.Unknown {
		// Expected traffic shape for misconfigured DNS and scanners;
		// not an application error.
		g.metrics.RecordDecision(r.Context(), "not_found", z.String())
		return Decision{Kind: KindNotFound, Zone: z}
	}

	cfg, ok := g.zones.Get(z)
	if !ok {
		g.metrics.RecordDecision(r.Context(), "not_found", z.String())
		return Decision{Kind: KindNotFound, Zone: z}
	}

	if z == zone.Ops && g.filter.Enabled() {
		if src := ipfilter.SourceIP(r); !g.filter.Allow(src) {
			g.audit.Log(r.Context(), audit.Event{
				Type:      audit.TypePerimeterDenied,
				Zone:      z.String(),
				Resource:  r.URL.Path,
				IPAddress: src,
				UserAgent: r.UserAgent(),
			})
			g.metrics.RecordPerimeterDenial(r.Context())
			g.metrics.RecordDecision(r.Context(), "forbidden", z.String())
			return Decision{Kind: KindForbidden, Zone: z}
		}
	}

	path := r.URL.Path
	d := Decision{
		Kind:          KindProceed,
		Zone:          z,
		OriginalPath:  path,
		RewrittenPath: rewrite(cfg.Segment(), path),
	}

	// Login pages and auth callbacks skip session resolution and
	// authorization entirely; otherwise viewing the login page would
	// itself require auth and loop.
	if cfg.IsExempt(path) {
		g.metrics.RecordDecision(r.Context(), "proceed", z.String())
		return d
	}

	// The public zone never consults the session resolver: no cost, no
	// auth side effects.
	if z == zone.Public {
		g.metrics.RecordDecision(r.Context(), "proceed", z.String())
		return d
	}

	ctx, cancel := context.WithTimeout(r.Context(), g.timeout)
	defer cancel()

	principal, rotated, err := g.sessions.Resolve(ctx, r)
	if err != nil {
		// Collaborator failure degrades to an unauthenticated request;
		// the worst case is an extra login redirect, never a 5xx.
		slog.WarnContext(r.Context(), "session resolution failed; treating as unauthenticated",
			slog.String("component", "gate"),
			slog.String("zone", z.String()),
			slog.String("error", err.Error()))
		principal = nil
	}
	d.Principal = principal
	d.SessionCookies = rotated
	if len(rotated) > 0 && principal != nil {
		g.metrics.RecordSessionRotation(r.Context())
		g.audit.Log(r.Context(), audit.Event{
			Type:    audit.TypeSessionRotated,
			Zone:    z.String(),
			ActorID: principal.ID,
		})
	}

	if principal != nil {
		d.Tenant = g.tenants.Resolve(ctx, principal, r)
		d.SetTenantCookie = d.Tenant.Source == tenant.SourceFallback
	}

	res := g.evaluator.Evaluate(z, path, principal, d.Tenant)
	if !res.Allowed {
		if principal != nil {
			g.audit.Log(r.Context(), audit.Event{
				Type:     audit.TypePrivilegeDenied,
				Zone:     z.String(),
				TenantID: d.Tenant.TenantID,
				ActorID:  principal.ID,
				Resource: path,
				Metadata: map[string]any{"reason": res.Reason},
			})
		}
		if cfg.Enforcement == zone.EnforceDeferred {
			// Policy choice, not an accident: app/admin may defer the
			// redirect to the destination's rendering layer to allow a
			// same-request session sync after cross-zone navigation.
			// Ops always enforces at the edge.
			d.DeferredRedirect = res.RedirectURL
			g.metrics.RecordDecision(r.Context(), "proceed_deferred", z.String())
			return d
		}
		g.metrics.RecordDecision(r.Context(), "redirect", z.String())
		return Decision{
			Kind:           KindRedirect,
			Zone:           z,
			RedirectURL:    res.RedirectURL,
			Reason:         res.Reason,
			SessionCookies: rotated,
		}
	}

	g.metrics.RecordDecision(r.Context(), "proceed", z.String())
	return d
}

// rewrite prefixes the original path with the zone segment. The original
// path travels alongside as metadata, never discarded.
func rewrite(segment, path string) string {
	if path == "" {
		path = "/"
	}
	return "/" + segment + path
}
