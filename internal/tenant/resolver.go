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
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/edgegate/edgegate/internal/session"
)

// Source records how the current tenant was chosen.
type Source int

const (
	// SourceNone means no tenant could be resolved.
	SourceNone Source = iota

	// SourceCookie means the selection cookie named a valid membership.
	SourceCookie

	// SourceFallback means the earliest-created membership was chosen
	// because the cookie was absent or invalid. The caller must persist
	// the selection back to the client.
	SourceFallback
)

// Context is the resolved current tenant for one request. Computed once
// and passed by value down the request call chain; never ambient state.
type Context struct {
	TenantID string
	Role     Role
	Source   Source
}

// None reports whether no tenant was resolved.
func (c Context) None() bool {
	return c.Source == SourceNone
}

// Resolver determines the current tenant for a principal.
type Resolver struct {
	memberships Repository
	codec       *CookieCodec
}

// NewResolver creates a tenant resolver.
func NewResolver(memberships Repository, codec *CookieCodec) *Resolver {
	return &Resolver{memberships: memberships, codec: codec}
}

// Resolve picks the request's current tenant. A selection cookie naming a
// non-deleted membership of the principal wins; otherwise the earliest
// membership is chosen and SourceFallback signals the cookie write. A
// membership lookup failure resolves to none — the admin zone then fails
// closed.
//
// The existing cookie is never overwritten while valid, so the selection
// cannot flip-flop between memberships across requests.
func (r *Resolver) Resolve(ctx context.Context, principal *session.Principal, req *http.Request) Context {
	if principal == nil {
		return Context{}
	}

	memberships, err := r.memberships.ListForPrincipal(ctx, principal.ID)
	if err != nil {
		slog.WarnContext(ctx, "membership lookup failed; no tenant resolved",
			slog.String("component", "tenant"),
			slog.String("principal_id", principal.ID),
			slog.String("error", err.Error()))
		return Context{}
	}

	if tenantID, err := r.codec.Decode(req); err == nil {
		for _, m := range memberships {
			if m.TenantID == tenantID && !m.IsDeleted() {
				return Context{TenantID: m.TenantID, Role: m.Role, Source: SourceCookie}
			}
		}
	}

	for _, m := range memberships {
		if m.IsDeleted() {
			continue
		}
		// Repository orders by creation time ascending.
		return Context{TenantID: m.TenantID, Role: m.Role, Source: SourceFallback}
	}

	return Context{}
}

// Switch validates an explicit tenant selection and returns the context to
// issue a fresh cookie for. This and the fallback path are the only cookie
// writers.
func (r *Resolver) Switch(ctx context.Context, principal *session.Principal, tenantID string) (Context, error) {
	if principal == nil {
		return Context{}, ErrMembershipNotFound
	}

	m, err := r.memberships.Get(ctx, principal.ID, tenantID)
	if err != nil {
		return Context{}, fmt.Errorf("failed to validate membership: %w", err)
	}
	if m.IsDeleted() {
		return Context{}, ErrMembershipNotFound
	}

	return Context{TenantID: m.TenantID, Role: m.Role, Source: SourceCookie}, nil
}

// Cookie returns the Set-Cookie value persisting the resolved selection.
func (r *Resolver) Cookie(tc Context) (*http.Cookie, error) {
	return r.codec.Encode(tc.TenantID)
}
