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
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/edgegate/edgegate/internal/zone"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Zones         ZonesConfig
	Ops           OpsConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	Session       SessionConfig
	TenantCookie  TenantCookieConfig
	Gate          GateConfig
	Observability ObservabilityConfig
	RateLimit     RateLimitConfig
	Security      SecurityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// ZonesConfig holds the per-zone base URLs used to build absolute
// cross-zone redirect targets.
type ZonesConfig struct {
	PublicURL string `validate:"required,url"`
	AppURL    string `validate:"required,url"`
	AdminURL  string `validate:"required,url"`
	OpsURL    string `validate:"required,url"`
	// Enforcement selects where app/admin authorization denials take
	// effect: "immediate" (edge) or "deferred" (destination handler).
	// Ops always enforces at the edge.
	Enforcement string `validate:"oneof=immediate deferred"`
}

// OpsConfig holds the ops zone perimeter settings. An empty allowlist
// disables the network access filter.
type OpsConfig struct {
	IPAllowlist []string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig holds the session store connection settings
type RedisConfig struct {
	Addr     string `validate:"required"`
	Password string
	DB       int
}

// SessionConfig holds session cookie and rotation configuration
type SessionConfig struct {
	CookieName    string `validate:"required"`
	CookieDomain  string
	CookiePath    string
	CookieSecure  bool
	Lifetime      time.Duration
	RotateWithin  time.Duration
	RotationGrace time.Duration
}

// TenantCookieConfig holds the tenant-selection cookie settings. Domain is
// the shared parent domain so every zone sees the selection.
type TenantCookieConfig struct {
	Secret string `validate:"required"`
	Domain string
	Secure bool
}

// GateConfig holds pipeline settings
type GateConfig struct {
	// CollaboratorTimeout bounds session resolution and membership
	// lookups; on expiry the gate degrades to unauthenticated.
	CollaboratorTimeout time.Duration
}

// ObservabilityConfig holds logging and tracing configuration
type ObservabilityConfig struct {
	LogLevel       string
	LogFormat      string
	OTELEnabled    bool
	ServiceName    string
	ServiceVersion string
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// SecurityConfig holds password hashing parameters for the login endpoints
type SecurityConfig struct {
	Argon2Memory      uint32
	Argon2Iterations  uint32
	Argon2Parallelism uint8
	Argon2SaltLength  uint32
	Argon2KeyLength   uint32
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  parseDuration("SERVER_READ_TIMEOUT", "15s"),
			WriteTimeout: parseDuration("SERVER_WRITE_TIMEOUT", "15s"),
			IdleTimeout:  parseDuration("SERVER_IDLE_TIMEOUT", "60s"),
		},
		Zones: ZonesConfig{
			PublicURL:   getEnv("ZONE_PUBLIC_URL", "http://www.example.test"),
			AppURL:      getEnv("ZONE_APP_URL", "http://app.example.test"),
			AdminURL:    getEnv("ZONE_ADMIN_URL", "http://admin.example.test"),
			OpsURL:      getEnv("ZONE_OPS_URL", "http://ops.example.test"),
			Enforcement: getEnv("ZONE_ENFORCEMENT", "immediate"),
		},
		Ops: OpsConfig{
			IPAllowlist: parseList("OPS_IP_ALLOWLIST"),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "edgegate"),
			Password:        getEnv("DB_PASSWORD", ""),
			Database:        getEnv("DB_NAME", "edgegate"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    parseInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    parseInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: parseDuration("DB_CONN_MAX_LIFETIME", "5m"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       parseInt("REDIS_DB", 0),
		},
		Session: SessionConfig{
			CookieName:    getEnv("SESSION_COOKIE_NAME", "edgegate_session"),
			CookieDomain:  getEnv("SESSION_COOKIE_DOMAIN", ""),
			CookiePath:    getEnv("SESSION_COOKIE_PATH", "/"),
			CookieSecure:  parseBool("SESSION_COOKIE_SECURE", false),
			Lifetime:      parseDuration("SESSION_LIFETIME", "24h"),
			RotateWithin:  parseDuration("SESSION_ROTATE_WITHIN", "1h"),
			RotationGrace: parseDuration("SESSION_ROTATION_GRACE", "30s"),
		},
		TenantCookie: TenantCookieConfig{
			Secret: getEnv("TENANT_COOKIE_SECRET", ""),
			Domain: getEnv("TENANT_COOKIE_DOMAIN", ""),
			Secure: parseBool("TENANT_COOKIE_SECURE", false),
		},
		Gate: GateConfig{
			CollaboratorTimeout: parseDuration("GATE_COLLABORATOR_TIMEOUT", "3s"),
		},
		Observability: ObservabilityConfig{
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			LogFormat:      getEnv("LOG_FORMAT", "json"),
			OTELEnabled:    parseBool("OTEL_ENABLED", false),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "edgegate"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "0.1.0"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: float64(parseInt("RATELIMIT_RPS", 50)),
			Burst:             parseInt("RATELIMIT_BURST", 100),
		},
		Security: SecurityConfig{
			Argon2Memory:      uint32(parseInt("ARGON2_MEMORY", 65536)),
			Argon2Iterations:  uint32(parseInt("ARGON2_ITERATIONS", 3)),
			Argon2Parallelism: uint8(parseInt("ARGON2_PARALLELISM", 4)),
			Argon2SaltLength:  uint32(parseInt("ARGON2_SALT_LENGTH", 16)),
			Argon2KeyLength:   uint32(parseInt("ARGON2_KEY_LENGTH", 32)),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if len(c.TenantCookie.Secret) < 32 {
		return fmt.Errorf("TENANT_COOKIE_SECRET must be at least 32 bytes")
	}
	return nil
}

// ZoneTable assembles the static zone configuration. The exempt paths are
// the per-zone login pages and auth callbacks that must never require
// authorization to view.
func (c *Config) ZoneTable() *zone.Table {
	enforcement := zone.EnforceImmediate
	if c.Zones.Enforcement == "deferred" {
		enforcement = zone.EnforceDeferred
	}

	return zone.NewTable(
		zone.Config{
			Zone:        zone.Public,
			BaseURL:     c.Zones.PublicURL,
			LoginPath:   "/login",
			ExemptPaths: []string{"/login", "/auth/callback"},
		},
		zone.Config{
			Zone:         zone.App,
			BaseURL:      c.Zones.AppURL,
			RequiresAuth: true,
			Enforcement:  enforcement,
			LoginPath:    "/login",
			ExemptPaths:  []string{"/auth/callback"},
		},
		zone.Config{
			Zone:         zone.Admin,
			BaseURL:      c.Zones.AdminURL,
			RequiresAuth: true,
			Enforcement:  enforcement,
			LoginPath:    "/login",
			ExemptPaths:  []string{"/auth/callback"},
		},
		zone.Config{
			// Ops is perimeter-sensitive: enforcement stays immediate
			// regardless of the app/admin setting.
			Zone:         zone.Ops,
			BaseURL:      c.Zones.OpsURL,
			RequiresAuth: true,
			Enforcement:  zone.EnforceImmediate,
			LoginPath:    "/login",
			ExemptPaths:  []string{"/login", "/auth/callback"},
		},
	)
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func parseBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func parseDuration(key string, defaultValue string) time.Duration {
	value := getEnv(key, defaultValue)
	d, err := time.ParseDuration(value)
	if err != nil {
		d, _ = time.ParseDuration(defaultValue)
	}
	return d
}

func parseList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
