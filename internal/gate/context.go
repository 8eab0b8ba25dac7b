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
	"context"

	"github.com/edgegate/edgegate/internal/session"
	"github.com/edgegate/edgegate/internal/tenant"
)

type contextKey string

const (
	principalKey contextKey = "principal"
	tenantKey    contextKey = "tenant"
)

// ContextWithPrincipal attaches the resolved principal to the context.
func ContextWithPrincipal(ctx context.Context, p *session.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext retrieves the resolved principal, or nil.
func PrincipalFromContext(ctx context.Context) *session.Principal {
	if p, ok := ctx.Value(principalKey).(*session.Principal); ok {
		return p
	}
	return nil
}

// ContextWithTenant attaches the resolved tenant context.
func ContextWithTenant(ctx context.Context, tc tenant.Context) context.Context {
	return context.WithValue(ctx, tenantKey, tc)
}

// TenantFromContext retrieves the resolved tenant context. The zero value
// means no tenant was resolved.
func TenantFromContext(ctx context.Context) tenant.Context {
	if tc, ok := ctx.Value(tenantKey).(tenant.Context); ok {
		return tc
	}
	return tenant.Context{}
}
