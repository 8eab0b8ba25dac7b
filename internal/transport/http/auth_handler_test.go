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
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgegate/edgegate/internal/gate"
	"github.com/edgegate/edgegate/internal/session"
	redisstore "github.com/edgegate/edgegate/internal/store/redis"
)

func TestSafeReturnTo(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", "/"},
		{"relative path", "/dashboard/analytics", "/dashboard/analytics"},
		{"absolute url", "http://evil.example.com/", "/"},
		{"protocol relative", "//evil.example.com/", "/"},
		{"backslash variant", "/\\evil.example.com", "/"},
		{"bare word", "dashboard", "/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, safeReturnTo(tt.in))
		})
	}
}

func TestAuthCallback_RedirectsToValidatedTarget(t *testing.T) {
	h := &Handler{}

	r := httptest.NewRequest("GET", "http://app.example.com/auth/callback?returnTo=/dashboard", nil)
	w := httptest.NewRecorder()
	h.AuthCallback(w, r)

	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, "/dashboard", w.Header().Get("Location"))

	r = httptest.NewRequest("GET", "http://app.example.com/auth/callback?returnTo=//evil.example.com", nil)
	w = httptest.NewRecorder()
	h.AuthCallback(w, r)

	assert.Equal(t, "/", w.Header().Get("Location"))
}

func TestZoneIndex_AppliesDeferredRedirect(t *testing.T) {
	h := &Handler{}

	r := httptest.NewRequest("GET", "http://app.example.com/dashboard", nil)
	w := httptest.NewRecorder()
	w.Header().Set(gate.HeaderDeferredRedirect, "http://www.example.com/login?returnTo=/dashboard")
	h.ZoneIndex(w, r)

	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, "http://www.example.com/login?returnTo=/dashboard", w.Header().Get("Location"))
}

func TestZoneIndex_RendersZoneMetadata(t *testing.T) {
	h := &Handler{}

	r := httptest.NewRequest("GET", "http://app.example.com/dashboard", nil)
	w := httptest.NewRecorder()
	w.Header().Set(gate.HeaderDomain, "app")
	w.Header().Set(gate.HeaderInvokePath, "/dashboard")
	h.ZoneIndex(w, r)

	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "app", body["zone"])
	assert.Equal(t, "/dashboard", body["path"])
}

func TestLogout_ClearsCookieEvenWithoutSession(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	h := &Handler{
		sessionService: session.NewService(redisstore.NewSessionStore(client), session.Config{
			CookieName: "edgegate_session",
			Lifetime:   time.Hour,
		}),
	}

	r := httptest.NewRequest("POST", "http://www.example.com/logout", nil)
	w := httptest.NewRecorder()
	h.Logout(w, r)

	assert.Equal(t, http.StatusOK, w.Code)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "edgegate_session", cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.Equal(t, -1, cookies[0].MaxAge)
}
