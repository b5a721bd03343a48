package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	data := "database:\n  url: postgres://localhost/voltplan\nserver:\n  port: \"9000\"\naudit:\n  backend: sqlite\n  path: plans.db\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Database.URL != "postgres://localhost/voltplan" {
		t.Fatalf("bad database url %q", cfg.Database.URL)
	}
	if cfg.Server.Port != "9000" || cfg.Server.Addr() != ":9000" {
		t.Fatalf("bad server config %+v", cfg.Server)
	}
	if cfg.Audit.Backend != "sqlite" {
		t.Fatalf("bad audit config %+v", cfg.Audit)
	}
	if cfg.Provider.Name != "tesla" {
		t.Fatalf("provider default missing: %+v", cfg.Provider)
	}
}

func TestLoadJSONWithEnvOverride(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env/override")
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.json")
	if err := os.WriteFile(path, []byte(`{"database":{"url":"postgres://file/db"}}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Database.URL != "postgres://env/override" {
		t.Fatalf("DATABASE_URL must win, got %q", cfg.Database.URL)
	}
}

func TestLoadRejectsUnknownExtension(t *testing.T) {
	if _, err := Load("config.toml"); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestLoadRejectsMissingDatabase(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: \"9000\"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected missing database url error")
	}
}

func TestDatabaseDSN(t *testing.T) {
	c := DatabaseConfig{URL: "postgres://localhost/voltplan", SSL: false}
	if got := c.DSN(); got != "postgres://localhost/voltplan?sslmode=disable" {
		t.Fatalf("dsn: %s", got)
	}
	c.SSL = true
	if got := c.DSN(); got != "postgres://localhost/voltplan" {
		t.Fatalf("ssl dsn: %s", got)
	}
}
