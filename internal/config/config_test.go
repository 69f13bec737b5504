package config

import (
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		t.Setenv("PORT", "")
		t.Setenv("JWT_SECRET", "")
		t.Setenv("JWT_TTL", "")

		cfg := LoadConfig()

		if cfg.Port != "8080" {
			t.Errorf("expected port 8080, got %s", cfg.Port)
		}
		if cfg.DatabaseDriver != "sqlite" {
			t.Errorf("expected sqlite driver, got %s", cfg.DatabaseDriver)
		}
		if cfg.JWTTTL != 168*time.Hour {
			t.Errorf("expected 168h token lifetime, got %s", cfg.JWTTTL)
		}
		if cfg.JWTSecret != devJWTSecret {
			t.Errorf("expected development secret fallback, got %q", cfg.JWTSecret)
		}
	})

	t.Run("Environment", func(t *testing.T) {
		t.Setenv("PORT", "9090")
		t.Setenv("JWT_SECRET", "s3cret")
		t.Setenv("JWT_TTL", "2h")
		t.Setenv("ADMIN_EMAILS", "root@example.com,boss@example.com")
		t.Setenv("REDIS_ADDR", "127.0.0.1:6379")

		cfg := LoadConfig()

		if cfg.Port != "9090" {
			t.Errorf("expected port 9090, got %s", cfg.Port)
		}
		if cfg.JWTSecret != "s3cret" {
			t.Errorf("expected secret from env, got %q", cfg.JWTSecret)
		}
		if cfg.JWTTTL != 2*time.Hour {
			t.Errorf("expected 2h, got %s", cfg.JWTTTL)
		}
		if !cfg.IsAdminEmail("boss@example.com") {
			t.Errorf("expected boss@example.com to be an admin email, got %v", cfg.AdminEmails)
		}
		if cfg.IsAdminEmail("player@example.com") {
			t.Error("did not expect player@example.com to be an admin email")
		}
		if cfg.RedisAddr != "127.0.0.1:6379" {
			t.Errorf("expected redis addr from env, got %q", cfg.RedisAddr)
		}
	})

	t.Run("AdminEmailsNormalized", func(t *testing.T) {
		t.Setenv("ADMIN_EMAILS", "Root@Example.com, boss@example.com ,")

		cfg := LoadConfig()

		if len(cfg.AdminEmails) != 2 || cfg.AdminEmails[0] != "root@example.com" || cfg.AdminEmails[1] != "boss@example.com" {
			t.Errorf("expected normalized admin list, got %q", cfg.AdminEmails)
		}
		if !cfg.IsAdminEmail("root@example.com") || !cfg.IsAdminEmail(" BOSS@example.com") {
			t.Error("expected admin emails to match regardless of case and spaces")
		}
	})
}
