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
	"strings"

	"github.com/edgegate/edgegate/internal/authz"
	"github.com/edgegate/edgegate/internal/gate"
	"github.com/edgegate/edgegate/internal/identity"
	"github.com/edgegate/edgegate/internal/observability/logger"
)

// LoginRequest carries a credential pair
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginPage renders the login form placeholder. Exempt from the gate so
// viewing it never requires auth.
func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"zone":      w.Header().Get(gate.HeaderDomain),
		"page":      "login",
		"return_to": safeReturnTo(r.URL.Query().Get(authz.ParamReturnTo)),
	})
}

// Login verifies a credential pair and mints a session. The session
// cookie is scoped so every zone sees it; the response carries the
// validated return path for the client to follow.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	principal, err := h.identityService.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredential) {
			respondError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		slog.ErrorContext(r.Context(), "authentication failed",
			logger.Component("auth"), logger.Error(err))
		respondError(w, http.StatusServiceUnavailable, "login temporarily unavailable")
		return
	}

	_, cookie, err := h.sessionService.Login(r.Context(), principal.ID, principal.IsOperator)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to create session",
			logger.Component("auth"), logger.PrincipalID(principal.ID), logger.Error(err))
		respondError(w, http.StatusServiceUnavailable, "login temporarily unavailable")
		return
	}

	http.SetCookie(w, cookie)
	respondJSON(w, http.StatusOK, map[string]string{
		"redirect": safeReturnTo(r.URL.Query().Get(authz.ParamReturnTo)),
	})
}

// Logout revokes the session and clears the cookie
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	cleared, err := h.sessionService.Logout(r.Context(), r)
	if err != nil {
		slog.WarnContext(r.Context(), "session revocation failed",
			logger.Component("auth"), logger.Error(err))
	}
	http.SetCookie(w, cleared)
	respondJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// AuthCallback finishes a cross-zone login hop: the session cookie is
// already set on the shared domain, so it only bounces the client back to
// where it started.
func (h *Handler) AuthCallback(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, safeReturnTo(r.URL.Query().Get(authz.ParamReturnTo)), http.StatusTemporaryRedirect)
}

// safeReturnTo confines the return path to a same-site relative path so
// the login flow cannot be used as an open redirect.
func safeReturnTo(returnTo string) string {
	if returnTo == "" ||
		!strings.HasPrefix(returnTo, "/") ||
		strings.HasPrefix(returnTo, "//") ||
		strings.HasPrefix(returnTo, "/\\") {
		return "/"
	}
	return returnTo
}
