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
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/edgegate/edgegate/internal/audit"
	"github.com/edgegate/edgegate/internal/gate"
	"github.com/edgegate/edgegate/internal/observability/logger"
	"github.com/edgegate/edgegate/internal/tenant"
)

// SwitchTenantRequest names the tenant to select
type SwitchTenantRequest struct {
	TenantID string `json:"tenant_id"`
}

// SwitchTenant is the explicit tenant-switch action: the only way an
// existing valid selection cookie gets overwritten. The requested tenant
// must be a live membership of the calling principal.
func (h *Handler) SwitchTenant(w http.ResponseWriter, r *http.Request) {
	principal := gate.PrincipalFromContext(r.Context())
	if principal == nil {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req SwitchTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TenantID == "" {
		respondError(w, http.StatusBadRequest, "tenant_id is required")
		return
	}

	tc, err := h.tenantResolver.Switch(r.Context(), principal, req.TenantID)
	if err != nil {
		if errors.Is(err, tenant.ErrMembershipNotFound) {
			respondError(w, http.StatusForbidden, "not a member of that organization")
			return
		}
		slog.ErrorContext(r.Context(), "tenant switch failed",
			logger.Component("tenant"), logger.PrincipalID(principal.ID), logger.Error(err))
		respondError(w, http.StatusServiceUnavailable, "tenant switch temporarily unavailable")
		return
	}

	cookie, err := h.tenantResolver.Cookie(tc)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to issue tenant cookie",
			logger.Component("tenant"), logger.Error(err))
		respondError(w, http.StatusServiceUnavailable, "tenant switch temporarily unavailable")
		return
	}

	http.SetCookie(w, cookie)

	h.auditLogger.Log(r.Context(), audit.Event{
		Type:     audit.TypeTenantSwitch,
		TenantID: tc.TenantID,
		ActorID:  principal.ID,
	})

	respondJSON(w, http.StatusOK, map[string]string{"tenant_id": tc.TenantID})
}
