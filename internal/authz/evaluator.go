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

// Package authz decides per zone whether a principal may pass, and where
// to send it when it may not.
package authz

import (
	"net/url"

	"github.com/edgegate/edgegate/internal/session"
	"github.com/edgegate/edgegate/internal/tenant"
	"github.com/edgegate/edgegate/internal/zone"
)

// Denial reasons surfaced to end users via redirect query parameters.
// Plain, non-technical strings only; collaborator errors never leak here.
const (
	ReasonAuthRequired      = "authentication required"
	ReasonInsufficientAdmin = "insufficient admin privileges"
	ReasonOperatorRequired  = "operator access required"
)

// Query parameter names carried on deny redirects.
const (
	ParamReturnTo = "returnTo"
	ParamError    = "error"
)

// Result is the outcome of one authorization decision.
type Result struct {
	Allowed     bool
	RedirectURL string
	Reason      string
}

func permit() Result {
	return Result{Allowed: true}
}

func deny(redirectURL, reason string) Result {
	return Result{RedirectURL: redirectURL, Reason: reason}
}

// Evaluator applies the per-zone access policy.
type Evaluator struct {
	zones *zone.Table
}

// NewEvaluator creates an evaluator over the zone table.
func NewEvaluator(zones *zone.Table) *Evaluator {
	return &Evaluator{zones: zones}
}

// Evaluate runs the zone's state machine. path is the originally requested
// path, preserved on login redirects as a return-path hint so the user
// lands back where they started.
//
// Admin access keys off the resolved tenant's membership role, never a
// caller-supplied tenant. Ops is a distinct trust boundary from tenant
// roles: an authenticated non-operator goes to the public login, not the
// ops login, while an unauthenticated ops request goes to the ops zone's
// own login because ops uses an independent credential UX.
func (e *Evaluator) Evaluate(z zone.Zone, path string, principal *session.Principal, tc tenant.Context) Result {
	switch z {
	case zone.Public:
		return permit()

	case zone.App:
		if principal == nil {
			return deny(e.loginURL(zone.Public, path, ""), ReasonAuthRequired)
		}
		return permit()

	case zone.Admin:
		if principal == nil {
			return deny(e.loginURL(zone.Public, path, ""), ReasonAuthRequired)
		}
		if tc.None() || !tc.Role.IsAdmin() {
			return deny(e.errorURL(zone.App, ReasonInsufficientAdmin), ReasonInsufficientAdmin)
		}
		return permit()

	case zone.Ops:
		if principal == nil {
			return deny(e.loginURL(zone.Ops, path, ""), ReasonAuthRequired)
		}
		if !principal.IsOperator {
			// Insufficiency, not absence: the reason rides along so the
			// login page can explain the bounce.
			return deny(e.loginURL(zone.Public, path, ReasonOperatorRequired), ReasonOperatorRequired)
		}
		return permit()
	}

	return deny(e.loginURL(zone.Public, path, ""), ReasonAuthRequired)
}

// loginURL builds the absolute login URL for a zone, carrying the original
// path as the return-path parameter and, for insufficiency denials, the
// reason as the error parameter.
func (e *Evaluator) loginURL(z zone.Zone, returnTo, reason string) string {
	cfg, _ := e.zones.Get(z)
	q := url.Values{}
	if returnTo != "" && returnTo != cfg.LoginPath {
		q.Set(ParamReturnTo, returnTo)
	}
	if reason != "" {
		q.Set(ParamError, reason)
	}
	target := cfg.BaseURL + cfg.LoginPath
	if len(q) > 0 {
		target += "?" + q.Encode()
	}
	return target
}

// errorURL builds a redirect to a safe zone's root with a human-readable
// reason attached for UI display.
func (e *Evaluator) errorURL(z zone.Zone, reason string) string {
	cfg, _ := e.zones.Get(z)
	q := url.Values{}
	q.Set(ParamError, reason)
	return cfg.BaseURL + "/?" + q.Encode()
}
