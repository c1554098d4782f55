package config

import "testing"

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("RENOHAUS_APP_ENV", "dev")
	t.Setenv("RENOHAUS_DB_DSN", "postgres://localhost:5432/renohaus_test")
	t.Setenv("RENOHAUS_STORAGE_ROOT", t.TempDir())
}

func TestLoadDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.App.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.App.Port)
	}
	if !cfg.App.IsDev() || cfg.App.IsProd() {
		t.Fatal("expected dev environment")
	}
	if cfg.Uploads.MaxUploadBytes() != 20*1024*1024 {
		t.Fatalf("unexpected upload ceiling %d", cfg.Uploads.MaxUploadBytes())
	}
	if cfg.Redis.Enabled() {
		t.Fatal("redis should be disabled without endpoint config")
	}
}

func TestLoadRequiresDSN(t *testing.T) {
	t.Setenv("RENOHAUS_APP_ENV", "dev")
	t.Setenv("RENOHAUS_DB_DSN", "")
	t.Setenv("RENOHAUS_STORAGE_ROOT", t.TempDir())

	if _, err := Load(); err == nil {
		t.Fatal("expected error when DSN missing")
	}
}

func TestRedisEnabled(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("RENOHAUS_REDIS_URL", "redis://localhost:6379/0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if !cfg.Redis.Enabled() {
		t.Fatal("expected redis enabled")
	}
}
