package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_DefaultsWithDevAuth(t *testing.T) {
	t.Setenv("AUTH_MODE", "dev")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load err=%v", err)
	}
	if cfg.Event.MaxCapacity != 150 {
		t.Fatalf("MaxCapacity=%d, want 150", cfg.Event.MaxCapacity)
	}
	if cfg.Storage.Backend != "memory" || cfg.Server.Port != 8080 || cfg.Server.ShutdownTimeout != 10*time.Second {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := strings.Join([]string{
		"auth:",
		"  mode: session",
		"  signing_key: 0123456789abcdef0123456789abcdef",
		"  admins:",
		"    - email: Planner@Example.com",
		"      password_hash: $2a$10$abcdefghijklmnopqrstuv",
		"event:",
		"  max_capacity: 120",
		"  couple_names: Ana & Luis",
		"  date: \"2026-09-12T17:00:00+02:00\"",
		"",
	}, "\n")
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("EVENT_MAX_CAPACITY", "90")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load err=%v", err)
	}
	if cfg.Event.MaxCapacity != 90 {
		t.Fatalf("MaxCapacity=%d, want env override 90", cfg.Event.MaxCapacity)
	}
	admins := cfg.Auth.AllAdmins()
	if len(admins) != 1 || admins[0].Email != "planner@example.com" {
		t.Fatalf("AllAdmins()=%+v", admins)
	}
	ev, err := cfg.Event.Domain()
	if err != nil {
		t.Fatalf("Domain err=%v", err)
	}
	if ev.CoupleNames != "Ana & Luis" || ev.Date.UTC().Hour() != 15 {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestValidate_Rejects(t *testing.T) {
	t.Parallel()

	base := Config{
		Storage:   StorageConfig{Backend: "memory"},
		Sessions:  SessionsConfig{Backend: "memory"},
		Events:    EventsConfig{Backend: "memory"},
		Auth:      AuthConfig{Mode: "dev"},
		Event:     EventConfig{MaxCapacity: 150},
		RateLimit: RateLimitConfig{Enabled: true, RPS: 1, Burst: 1},
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("base config err=%v", err)
	}

	cases := map[string]func(c *Config){
		"unknown storage":    func(c *Config) { c.Storage.Backend = "mysql" },
		"postgres needs dsn": func(c *Config) { c.Storage.Backend = "postgres" },
		"zero capacity":      func(c *Config) { c.Event.MaxCapacity = 0 },
		"bad date":           func(c *Config) { c.Event.Date = "next saturday" },
		"short signing key":  func(c *Config) { c.Auth = AuthConfig{Mode: "session", SigningKey: "short", SessionTTL: time.Hour} },
		"session needs admin": func(c *Config) {
			c.Auth = AuthConfig{Mode: "session", SigningKey: strings.Repeat("k", 32), SessionTTL: time.Hour}
		},
		"bad rate limit": func(c *Config) { c.RateLimit.Burst = 0 },
	}
	for name, mutate := range cases {
		c := base
		mutate(&c)
		if err := c.Validate(); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}
