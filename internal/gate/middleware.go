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

package gate

import (
	"log/slog"
	"net/http"

	"github.com/edgegate/edgegate/internal/audit"
)

// Middleware applies the gate's decision to the response: terminal 404/403
// with their fixed bodies, 307 redirects, or a pass-through rewritten onto
// the zone's handler subtree with zone and original-path metadata headers.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d := g.Handle(r)

		// Rotated session credentials are forwarded on every outcome.
		for _, c := range d.SessionCookies {
			http.SetCookie(w, c)
		}

		switch d.Kind {
		case KindNotFound:
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(NotFoundBody))
			return

		case KindForbidden:
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(ForbiddenBody))
			return

		case KindRedirect:
			http.Redirect(w, r, d.RedirectURL, http.StatusTemporaryRedirect)
			return
		}

		w.Header().Set(HeaderDomain, d.Zone.String())
		w.Header().Set(HeaderInvokePath, d.OriginalPath)

		if d.DeferredRedirect != "" {
			w.Header().Set(HeaderDeferredRedirect, d.DeferredRedirect)
		}

		if d.SetTenantCookie {
			cookie, err := g.tenants.Cookie(d.Tenant)
			if err != nil {
				slog.ErrorContext(r.Context(), "failed to issue tenant cookie",
					slog.String("component", "gate"), slog.String("error", err.Error()))
			} else {
				http.SetCookie(w, cookie)
				g.audit.Log(r.Context(), audit.Event{
					Type:     audit.TypeTenantFallback,
					Zone:     d.Zone.String(),
					TenantID: d.Tenant.TenantID,
					ActorID:  d.Principal.ID,
				})
			}
		}

		ctx := r.Context()
		if d.Principal != nil {
			ctx = ContextWithPrincipal(ctx, d.Principal)
			ctx = ContextWithTenant(ctx, d.Tenant)
		}

		r2 := r.Clone(ctx)
		r2.URL.Path = d.RewrittenPath
		r2.URL.RawPath = ""

		next.ServeHTTP(w, r2)
	})
}
