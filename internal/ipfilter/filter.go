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

// Package ipfilter restricts the ops zone to an allowlisted set of source
// addresses. With no allowlist configured the filter is a no-op.
package ipfilter

import (
	"log/slog"
	"net/http"
	"net/netip"
	"strings"
)

// SourceUnknown is the sentinel used when no forwarding header carries a
// client address. It is allowed so local and dev environments without a
// proxy in front do not hard-lock themselves out; production must
// guarantee a trustworthy X-Forwarded-For upstream.
const SourceUnknown = "unknown"

// Filter is an immutable source-IP allowlist.
type Filter struct {
	allowed map[string]struct{}
}

// New builds a filter from allowlist entries. Entries are normalized
// through netip where they parse; unparseable entries are kept verbatim.
func New(allowlist []string) *Filter {
	f := &Filter{allowed: make(map[string]struct{}, len(allowlist))}
	for _, entry := range allowlist {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if addr, err := netip.ParseAddr(entry); err == nil {
			entry = addr.String()
		}
		f.allowed[entry] = struct{}{}
	}
	return f
}

// Enabled reports whether any allowlist entries are configured.
func (f *Filter) Enabled() bool {
	return len(f.allowed) > 0
}

// Allow reports whether sourceIP may pass. An empty allowlist allows
// everything; the unknown sentinel is allowed with a warning.
func (f *Filter) Allow(sourceIP string) bool {
	if !f.Enabled() {
		return true
	}
	if sourceIP == SourceUnknown {
		slog.Warn("allowing request with unknown source address; non-production posture",
			slog.String("component", "ipfilter"))
		return true
	}
	if addr, err := netip.ParseAddr(sourceIP); err == nil {
		sourceIP = addr.String()
	}
	_, ok := f.allowed[sourceIP]
	return ok
}

// SourceIP derives the client address from the first X-Forwarded-For
// value, falling back to X-Real-IP, falling back to SourceUnknown.
func SourceIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first := fwd
		if i := strings.Index(fwd, ","); i >= 0 {
			first = fwd[:i]
		}
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if real := strings.TrimSpace(r.Header.Get("X-Real-IP")); real != "" {
		return real
	}
	return SourceUnknown
}
