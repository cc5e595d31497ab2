package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("HTTPAddr=%q, want :8080", cfg.HTTPAddr)
	}
	if cfg.DB.Driver != "postgres" {
		t.Fatalf("Driver=%q, want postgres", cfg.DB.Driver)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Fatalf("ShutdownTimeout=%v, want 10s", cfg.ShutdownTimeout)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "*" {
		t.Fatalf("AllowedOrigins=%v", cfg.AllowedOrigins)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("WORKERS", "2")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test,http://b.test")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DB.Driver != "sqlite" || cfg.Workers != 2 {
		t.Fatalf("cfg=%+v", cfg)
	}
	if len(cfg.AllowedOrigins) != 2 {
		t.Fatalf("AllowedOrigins=%v", cfg.AllowedOrigins)
	}
}

func TestLoadDotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("REDIS_ADDR=localhost:6399\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("REDIS_ADDR", "")
	os.Unsetenv("REDIS_ADDR")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RedisAddr != "localhost:6399" {
		t.Fatalf("RedisAddr=%q, want localhost:6399", cfg.RedisAddr)
	}
}

func TestLoadMalformedDotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("BAD-KEY=1\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "load .env:") {
		t.Fatalf("err=%v, want load .env error", err)
	}
}

func TestLoadErrors(t *testing.T) {
	cases := map[string]map[string]string{
		"bad int":      {"WORKERS": "many"},
		"bad driver":   {"DB_DRIVER": "mysql"},
		"negative":     {"WORKERS": "-1"},
		"tls half set": {"TLS_CERT_FILE": "cert.pem"},
		"bad duration": {"SHUTDOWN_TIMEOUT": "soon"},
	}
	for name, vars := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range vars {
				t.Setenv(k, v)
			}
			if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoadParseErrorPrefix(t *testing.T) {
	t.Setenv("WORKERS", "not-an-int")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err == nil || !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("err=%v, want parse env prefix", err)
	}
}
