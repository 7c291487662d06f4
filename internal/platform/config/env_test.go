package config

import (
	"os"
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"MARANZA_ADDR", "MARANZA_DB_DIALECT", "MARANZA_DB_PATH", "MARANZA_ALLOW_GUEST", "MARANZA_SEED"} {
		t.Setenv(key, "")
		_ = os.Unsetenv(key)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":8080" || cfg.DBDialect != "sqlite" || cfg.DBPath != "maranzalife.db" || !cfg.AllowGuest {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.DSN() != "maranzalife.db" {
		t.Fatalf("sqlite dsn should be the path, got %q", cfg.DSN())
	}
}

func TestLoadPostgresRequiresDSN(t *testing.T) {
	t.Setenv("MARANZA_DB_DIALECT", "Postgres")
	t.Setenv("MARANZA_DB_DSN", "")

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "requires MARANZA_DB_DSN") {
		t.Fatalf("expected dsn error, got %v", err)
	}

	t.Setenv("MARANZA_DB_DSN", "postgres://localhost/maranza")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DBDialect != "postgres" || cfg.DSN() != "postgres://localhost/maranza" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoadRejectsUnknownDialect(t *testing.T) {
	t.Setenv("MARANZA_DB_DIALECT", "mysql")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "unsupported MARANZA_DB_DIALECT") {
		t.Fatalf("expected unsupported dialect error, got %v", err)
	}
}

func TestParseEnvError(t *testing.T) {
	t.Setenv("MARANZA_SEED", "not-an-int")

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestResolveSeed(t *testing.T) {
	fixed := Server{Seed: 42}
	if seed, err := fixed.ResolveSeed(); err != nil || seed != 42 {
		t.Fatalf("expected fixed seed, got %d (%v)", seed, err)
	}
	if _, err := (Server{}).ResolveSeed(); err != nil {
		t.Fatalf("random seed: %v", err)
	}
}
