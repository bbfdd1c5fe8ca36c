package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port         string
	BaseURL      string
	StoreDriver  string
	DataPath     string
	GeoIPPath    string
	GeoCacheSize int
	LogLevel     string
	LogFormat    string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first if present; real environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:         envOrDefault("GEOLINK_PORT", "8080"),
		BaseURL:      strings.TrimRight(envOrDefault("GEOLINK_BASE_URL", "http://localhost:8080"), "/"),
		StoreDriver:  strings.ToLower(envOrDefault("GEOLINK_STORE", "json")),
		GeoIPPath:    os.Getenv("GEOLINK_GEOIP_PATH"),
		GeoCacheSize: parseInt("GEOLINK_GEO_CACHE_SIZE", 10000),
		LogLevel:     envOrDefault("GEOLINK_LOG_LEVEL", "info"),
		LogFormat:    envOrDefault("GEOLINK_LOG_FORMAT", "console"),
	}

	switch cfg.StoreDriver {
	case "json":
		cfg.DataPath = envOrDefault("GEOLINK_DATA_PATH", "./data/db.json")
	case "sqlite":
		cfg.DataPath = envOrDefault("GEOLINK_DATA_PATH", "./data/geolink.db")
	default:
		return nil, fmt.Errorf("GEOLINK_STORE must be json or sqlite, got %q", cfg.StoreDriver)
	}

	if cfg.GeoCacheSize <= 0 {
		return nil, fmt.Errorf("GEOLINK_GEO_CACHE_SIZE must be positive")
	}
	if cfg.LogFormat != "console" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("GEOLINK_LOG_FORMAT must be console or json, got %q", cfg.LogFormat)
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
