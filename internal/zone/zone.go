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

// Package zone classifies inbound hosts into logical application zones and
// carries the static per-zone routing and enforcement policy.
package zone

import (
	"strings"
)

// Zone identifies a logical application segment reachable via its own
// virtual host.
type Zone int

const (
	Unknown Zone = iota
	Public
	App
	Admin
	Ops
)

// String returns the zone's segment name.
func (z Zone) String() string {
	switch z {
	case Public:
		return "public"
	case App:
		return "app"
	case Admin:
		return "admin"
	case Ops:
		return "ops"
	default:
		return "unknown"
	}
}

// Enforcement controls where an authorization denial takes effect.
type Enforcement int

const (
	// EnforceImmediate denies at the edge with a redirect response.
	EnforceImmediate Enforcement = iota

	// EnforceDeferred lets the request proceed and annotates the computed
	// redirect for the destination zone's rendering layer. This exists for
	// the cross-zone session sync window; Ops must never use it.
	EnforceDeferred
)

// Config is the static policy for one zone. Loaded once at startup,
// immutable afterwards.
type Config struct {
	Zone         Zone
	BaseURL      string
	RequiresAuth bool
	Enforcement  Enforcement
	LoginPath    string
	// ExemptPaths bypass session resolution and authorization entirely
	// (login pages, auth callbacks). Prevents the login page from
	// requiring auth to view the login page.
	ExemptPaths []string
}

// Segment is the internal path prefix requests to this zone are
// rewritten under.
func (c Config) Segment() string {
	return c.Zone.String()
}

// IsExempt reports whether path is authorization-exempt for this zone.
func (c Config) IsExempt(path string) bool {
	for _, p := range c.ExemptPaths {
		if path == p {
			return true
		}
	}
	return false
}

// Table holds the full zone configuration.
type Table struct {
	zones map[Zone]Config
}

// NewTable builds a zone table from per-zone configs.
func NewTable(configs ...Config) *Table {
	t := &Table{zones: make(map[Zone]Config, len(configs))}
	for _, c := range configs {
		t.zones[c.Zone] = c
	}
	return t
}

// Get returns the config for a zone.
func (t *Table) Get(z Zone) (Config, bool) {
	c, ok := t.zones[z]
	return c, ok
}

// Classify maps a request host to a zone. Pure function: strips any port,
// then searches subdomain labels so that arbitrarily deep hosts still
// classify (app.staging.example.com -> App). A bare domain, www-prefixed
// domain, or empty host maps to Public; any other subdomain is Unknown.
func Classify(host string) Zone {
	host = stripPort(host)
	if host == "" {
		// Safe default for local development, not a security decision.
		return Public
	}

	labels := strings.Split(strings.ToLower(host), ".")
	for _, label := range labels {
		switch label {
		case "ops":
			return Ops
		case "admin":
			return Admin
		case "app":
			return App
		}
	}

	// Apex domain, localhost, or www-prefixed host.
	if len(labels) <= 2 || labels[0] == "www" {
		return Public
	}

	return Unknown
}

func stripPort(host string) string {
	if i := strings.LastIndex(host, ":"); i >= 0 && !strings.Contains(host[i:], "]") {
		// Avoid chopping a bare IPv6 literal.
		if strings.Count(host, ":") == 1 || strings.HasPrefix(host, "[") {
			return host[:i]
		}
	}
	return host
}
