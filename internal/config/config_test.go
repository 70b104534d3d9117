package config

import (
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"
)

func TestLoad_RequiresJWTSecret(t *testing.T) {
	unsetEnvWithCleanup(t, "JWT_SECRET")

	_, err := Load()
	if !errors.Is(err, ErrMissingJWTSecret) {
		t.Fatalf("expected ErrMissingJWTSecret, got %v", err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	setEnvWithCleanup(t, "JWT_SECRET", "test-secret")
	unsetEnvWithCleanup(t, "PORT")
	unsetEnvWithCleanup(t, "STORE_DRIVER")
	unsetEnvWithCleanup(t, "JWT_TTL_HOURS")
	unsetEnvWithCleanup(t, "MONGO_DATABASE")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != 5000 {
		t.Fatalf("expected default port 5000, got %d", cfg.Port)
	}
	if cfg.StoreDriver != StoreMongo {
		t.Fatalf("expected mongo store by default, got %q", cfg.StoreDriver)
	}
	if cfg.TokenTTL() != 30*24*time.Hour {
		t.Fatalf("expected 30 day token ttl, got %s", cfg.TokenTTL())
	}
	if cfg.MongoDatabase != "rj_enterprise" {
		t.Fatalf("unexpected database name %q", cfg.MongoDatabase)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	setEnvWithCleanup(t, "JWT_SECRET", "  padded-secret  ")
	setEnvWithCleanup(t, "PORT", "8088")
	setEnvWithCleanup(t, "STORE_DRIVER", "MEMORY")
	setEnvWithCleanup(t, "ADMIN_EMAIL", " Admin@Example.COM ")
	setEnvWithCleanup(t, "CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test,,")
	setEnvWithCleanup(t, "LOG_LEVEL", "warn")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.JWTSecret != "padded-secret" {
		t.Fatalf("expected trimmed secret, got %q", cfg.JWTSecret)
	}
	if cfg.Port != 8088 {
		t.Fatalf("expected port 8088, got %d", cfg.Port)
	}
	if cfg.StoreDriver != StoreMemory {
		t.Fatalf("expected memory store, got %q", cfg.StoreDriver)
	}
	if cfg.AdminEmail != "admin@example.com" {
		t.Fatalf("expected normalised admin email, got %q", cfg.AdminEmail)
	}
	if got := cfg.CORSOrigins(); len(got) != 2 || got[1] != "http://b.test" {
		t.Fatalf("unexpected CORS origins %v", got)
	}
	if cfg.LogLevelValue() != slog.LevelWarn {
		t.Fatalf("expected warn level, got %v", cfg.LogLevelValue())
	}
}

func TestLocation_FallsBackToLocal(t *testing.T) {
	cfg := Config{DashboardTimezone: "Not/AZone"}
	if cfg.Location() != time.Local {
		t.Fatalf("expected time.Local fallback")
	}

	cfg.DashboardTimezone = "UTC"
	if cfg.Location().String() != "UTC" {
		t.Fatalf("expected UTC, got %s", cfg.Location())
	}
}

func setEnvWithCleanup(t *testing.T, key string, value string) {
	t.Helper()
	prev, hadPrev := os.LookupEnv(key)
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set env %s: %v", key, err)
	}
	t.Cleanup(func() {
		if hadPrev {
			_ = os.Setenv(key, prev)
			return
		}
		_ = os.Unsetenv(key)
	})
}

func unsetEnvWithCleanup(t *testing.T, key string) {
	t.Helper()
	prev, hadPrev := os.LookupEnv(key)
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("failed to unset env %s: %v", key, err)
	}
	t.Cleanup(func() {
		if hadPrev {
			_ = os.Setenv(key, prev)
			return
		}
		_ = os.Unsetenv(key)
	})
}
