package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("JWT_TTL_MINUTES", "")
	t.Setenv("RATE_LIMIT_POST", "")
	t.Setenv("RATE_LIMIT_COMMENT", "")
	t.Setenv("DEFAULT_AVATAR_URL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.IsDevelopment() {
		t.Errorf("expected development env by default, got %q", cfg.AppEnv)
	}
	if cfg.JWTTTL != time.Hour {
		t.Errorf("JWTTTL = %v, want 1h", cfg.JWTTTL)
	}
	if cfg.RateLimitComment != 5*time.Second {
		t.Errorf("RateLimitComment = %v, want 5s", cfg.RateLimitComment)
	}
	if cfg.DefaultAvatarURL != "images/default_user_avatar.jpg" {
		t.Errorf("unexpected default avatar %q", cfg.DefaultAvatarURL)
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("RATE_LIMIT_POST", "soon")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid RATE_LIMIT_POST")
	}
}
