package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENV", "development")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.HorizonMonths != 6 || cfg.BatchSize != 400 {
		t.Errorf("unexpected horizon/batch %d/%d", cfg.HorizonMonths, cfg.BatchSize)
	}
	if cfg.Timezone != "America/Bogota" {
		t.Errorf("unexpected timezone %s", cfg.Timezone)
	}
	if cfg.AuthTokenTTL != 12*time.Hour {
		t.Errorf("unexpected ttl %v", cfg.AuthTokenTTL)
	}
	if cfg.KafkaTopic != "despachos.eventos" {
		t.Errorf("unexpected topic %s", cfg.KafkaTopic)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ENV", "development")
	t.Setenv("HORIZON_MONTHS", "3")
	t.Setenv("BATCH_SIZE", "50")
	t.Setenv("DB_DSN", "postgres://x")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HorizonMonths != 3 || cfg.BatchSize != 50 || cfg.DBDSN != "postgres://x" {
		t.Fatalf("env not applied: %+v", cfg)
	}
}

func TestLoad_File(t *testing.T) {
	t.Setenv("ENV", "development")
	path := filepath.Join(t.TempDir(), "app.env")
	if err := os.WriteFile(path, []byte("PORT=9090\nTIMEZONE=UTC\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9090" || cfg.Timezone != "UTC" {
		t.Fatalf("file not applied: %+v", cfg)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Fatal("expected error for missing explicit file")
	}
}

func TestValidate(t *testing.T) {
	base := Config{Env: "development", Timezone: "UTC", HorizonMonths: 6, BatchSize: 400, OTELSampleRate: 1}
	if err := base.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c := base
	c.Env = "production"
	if err := c.Validate(); err == nil {
		t.Error("expected signing key required outside dev")
	}

	c = base
	c.Timezone = "Nowhere/Land"
	if err := c.Validate(); err == nil {
		t.Error("expected invalid timezone error")
	}

	c = base
	c.BatchSize = 0
	if err := c.Validate(); err == nil {
		t.Error("expected batch size error")
	}
}
