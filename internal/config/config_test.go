package config

import (
	"os"
	"path/filepath"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"GEOLINK_PORT", "GEOLINK_BASE_URL", "GEOLINK_STORE", "GEOLINK_DATA_PATH",
		"GEOLINK_GEOIP_PATH", "GEOLINK_GEO_CACHE_SIZE", "GEOLINK_LOG_LEVEL", "GEOLINK_LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}
	// Keep a stray .env in the package dir from leaking into tests.
	t.Chdir(t.TempDir())
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("port = %q, want %q", cfg.Port, "8080")
	}
	if cfg.BaseURL != "http://localhost:8080" {
		t.Errorf("base url = %q", cfg.BaseURL)
	}
	if cfg.StoreDriver != "json" {
		t.Errorf("store = %q, want json", cfg.StoreDriver)
	}
	if cfg.DataPath != "./data/db.json" {
		t.Errorf("data path = %q, want %q", cfg.DataPath, "./data/db.json")
	}
	if cfg.GeoCacheSize != 10000 {
		t.Errorf("geo cache size = %d, want 10000", cfg.GeoCacheSize)
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "console" {
		t.Errorf("log = %q/%q", cfg.LogLevel, cfg.LogFormat)
	}
}

func TestLoad_AllFieldsOverridden(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEOLINK_PORT", "9090")
	t.Setenv("GEOLINK_BASE_URL", "https://go.example.com/")
	t.Setenv("GEOLINK_STORE", "SQLite")
	t.Setenv("GEOLINK_DATA_PATH", "/tmp/test.db")
	t.Setenv("GEOLINK_GEOIP_PATH", "/data/geo.mmdb")
	t.Setenv("GEOLINK_GEO_CACHE_SIZE", "200")
	t.Setenv("GEOLINK_LOG_LEVEL", "debug")
	t.Setenv("GEOLINK_LOG_FORMAT", "json")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("port = %q", cfg.Port)
	}
	if cfg.BaseURL != "https://go.example.com" {
		t.Errorf("base url = %q, want trailing slash trimmed", cfg.BaseURL)
	}
	if cfg.StoreDriver != "sqlite" {
		t.Errorf("store = %q, want sqlite", cfg.StoreDriver)
	}
	if cfg.DataPath != "/tmp/test.db" {
		t.Errorf("data path = %q", cfg.DataPath)
	}
	if cfg.GeoIPPath != "/data/geo.mmdb" {
		t.Errorf("geoip = %q", cfg.GeoIPPath)
	}
	if cfg.GeoCacheSize != 200 {
		t.Errorf("geo cache size = %d", cfg.GeoCacheSize)
	}
	if cfg.LogLevel != "debug" || cfg.LogFormat != "json" {
		t.Errorf("log = %q/%q", cfg.LogLevel, cfg.LogFormat)
	}
}

func TestLoad_SQLiteDefaultPath(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEOLINK_STORE", "sqlite")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DataPath != "./data/geolink.db" {
		t.Errorf("data path = %q", cfg.DataPath)
	}
}

func TestLoad_UnknownStore(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEOLINK_STORE", "mongo")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown store")
	}
}

func TestLoad_NonPositiveCacheSize(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEOLINK_GEO_CACHE_SIZE", "0")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for zero cache size")
	}
}

func TestLoad_InvalidCacheSizeFallsBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEOLINK_GEO_CACHE_SIZE", "lots")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.GeoCacheSize != 10000 {
		t.Errorf("geo cache size = %d, want fallback 10000", cfg.GeoCacheSize)
	}
}

func TestLoad_BadLogFormat(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEOLINK_LOG_FORMAT", "xml")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown log format")
	}
}

func TestLoad_DotEnvFile(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("GEOLINK_PORT")
	dir, _ := os.Getwd()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("GEOLINK_PORT=7070\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != "7070" {
		t.Errorf("port = %q, want 7070 from .env", cfg.Port)
	}
}
