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

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgegate/edgegate/internal/zone"
)

func validEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DB_PASSWORD", "postgres")
	t.Setenv("TENANT_COOKIE_SECRET", "0123456789abcdef0123456789abcdef")
}

func TestLoad_Defaults(t *testing.T) {
	validEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "http://app.example.test", cfg.Zones.AppURL)
	assert.Equal(t, "immediate", cfg.Zones.Enforcement)
	assert.Empty(t, cfg.Ops.IPAllowlist)
	assert.Equal(t, "edgegate_session", cfg.Session.CookieName)
	assert.Equal(t, 24*time.Hour, cfg.Session.Lifetime)
	assert.Equal(t, time.Hour, cfg.Session.RotateWithin)
	assert.Equal(t, 3*time.Second, cfg.Gate.CollaboratorTimeout)
}

func TestLoad_Overrides(t *testing.T) {
	validEnv(t)
	t.Setenv("ZONE_ENFORCEMENT", "deferred")
	t.Setenv("OPS_IP_ALLOWLIST", "10.0.0.1, 10.0.0.2 ,")
	t.Setenv("SESSION_LIFETIME", "2h")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "deferred", cfg.Zones.Enforcement)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, cfg.Ops.IPAllowlist)
	assert.Equal(t, 2*time.Hour, cfg.Session.Lifetime)
}

func TestLoad_RejectsBadEnforcement(t *testing.T) {
	validEnv(t)
	t.Setenv("ZONE_ENFORCEMENT", "sometimes")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_RejectsBadZoneURL(t *testing.T) {
	validEnv(t)
	t.Setenv("ZONE_APP_URL", "not a url")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate_RequiresSecrets(t *testing.T) {
	t.Setenv("TENANT_COOKIE_SECRET", "0123456789abcdef0123456789abcdef")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_PASSWORD")

	t.Setenv("DB_PASSWORD", "postgres")
	t.Setenv("TENANT_COOKIE_SECRET", "too-short")

	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TENANT_COOKIE_SECRET")
}

func TestZoneTable(t *testing.T) {
	validEnv(t)
	t.Setenv("ZONE_ENFORCEMENT", "deferred")

	cfg, err := Load()
	require.NoError(t, err)

	table := cfg.ZoneTable()

	app, ok := table.Get(zone.App)
	require.True(t, ok)
	assert.Equal(t, zone.EnforceDeferred, app.Enforcement)
	assert.True(t, app.RequiresAuth)
	assert.True(t, app.IsExempt("/auth/callback"))
	assert.False(t, app.IsExempt("/login"))

	// Ops never defers, whatever the app/admin setting says.
	ops, ok := table.Get(zone.Ops)
	require.True(t, ok)
	assert.Equal(t, zone.EnforceImmediate, ops.Enforcement)
	assert.True(t, ops.IsExempt("/login"))

	public, ok := table.Get(zone.Public)
	require.True(t, ok)
	assert.False(t, public.RequiresAuth)
	assert.True(t, public.IsExempt("/login"))
}
