package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DISTRIBUIDORA_DB_DSN", "postgres://localhost:5432/distribuidora?sslmode=disable")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.App.Port != "3000" {
		t.Fatalf("unexpected default port: %s", cfg.App.Port)
	}
	if !cfg.App.IsDev() {
		t.Fatal("default env should be dev")
	}
	if cfg.Bot.SessionTTL.Hours() != 24 {
		t.Fatalf("unexpected session ttl: %s", cfg.Bot.SessionTTL)
	}
	if cfg.DB.Driver != "postgres" {
		t.Fatalf("unexpected default driver: %s", cfg.DB.Driver)
	}
}

func TestLoadRequiresDSN(t *testing.T) {
	t.Setenv("DISTRIBUIDORA_DB_DSN", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when DSN is missing")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DISTRIBUIDORA_DB_DSN", "file::memory:?cache=shared")
	t.Setenv("DISTRIBUIDORA_DB_DRIVER", "sqlite")
	t.Setenv("DISTRIBUIDORA_BOT_SESSION_TTL", "30m")
	t.Setenv("DISTRIBUIDORA_COMPANY_NAME", "Bebidas do Zé")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.DB.Driver != "sqlite" {
		t.Fatalf("driver override not applied: %s", cfg.DB.Driver)
	}
	if cfg.Bot.SessionTTL.Minutes() != 30 {
		t.Fatalf("session ttl override not applied: %s", cfg.Bot.SessionTTL)
	}
	if cfg.Bot.CompanyName != "Bebidas do Zé" {
		t.Fatalf("company name override not applied: %s", cfg.Bot.CompanyName)
	}
}
