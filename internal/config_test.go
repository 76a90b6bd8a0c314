package internal

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

var configEnvKeys = []string{
	"RIOT_API_KEY", "RIOT_REGION", "RIOT_PLATFORM_URL", "RIOT_REGIONAL_URL",
	"POSTGRES_HOST", "POSTGRES_PORT", "POSTGRES_USER", "POSTGRES_PASSWORD", "POSTGRES_DB", "POSTGRES_SSL_MODE",
	"REDIS_HOST", "REDIS_PORT", "REDIS_PASSWORD", "REDIS_DB",
	"NATS_URL", "NATS_CLIENT_ID", "RATE_LIMIT_REDIS_PREFIX",
	"APP_PORT", "APP_ENV", "LOG_LEVEL",
	"CACHE_ENABLED", "DATABASE_ENABLED", "NATS_ENABLED", "ENABLE_PROFILING",
	"SNAPSHOT_TTL", "MATCH_FETCH_CONCURRENCY",
}

// clearConfigEnv blanks every variable LoadConfig reads; blank values are
// treated as unset.
func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range configEnvKeys {
		t.Setenv(key, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("RIOT_API_KEY", testAPIKey)

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.RiotAPIKey != testAPIKey {
		t.Errorf("expected RiotAPIKey %q, got %s", testAPIKey, cfg.RiotAPIKey)
	}
	if cfg.RiotRegion != "NA1" {
		t.Errorf("expected default RiotRegion 'NA1', got %s", cfg.RiotRegion)
	}
	if cfg.PostgresHost != "localhost" || cfg.PostgresPort != "5432" {
		t.Errorf("unexpected postgres defaults %s:%s", cfg.PostgresHost, cfg.PostgresPort)
	}
	if cfg.RedisAddr() != "localhost:6379" {
		t.Errorf("expected default redis addr, got %s", cfg.RedisAddr())
	}
	if !cfg.CacheEnabled || !cfg.DatabaseEnabled || !cfg.NATSEnabled {
		t.Error("expected cache, database and nats to be enabled by default")
	}
	if cfg.ProfilingEnabled {
		t.Error("expected profiling to be off by default")
	}
	if cfg.SnapshotTTL != 24*time.Hour {
		t.Errorf("expected default snapshot ttl 24h, got %s", cfg.SnapshotTTL)
	}
	if cfg.MatchFetchConcurrency != maxMatchDetails {
		t.Errorf("expected default concurrency %d, got %d", maxMatchDetails, cfg.MatchFetchConcurrency)
	}
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("RIOT_API_KEY", testAPIKey)
	t.Setenv("RIOT_REGION", "EUW1")
	t.Setenv("POSTGRES_HOST", "db")
	t.Setenv("POSTGRES_SSL_MODE", "require")
	t.Setenv("REDIS_DB", "5")
	t.Setenv("NATS_URL", "nats://custom:4223")
	t.Setenv("APP_PORT", "8080")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CACHE_ENABLED", "false")
	t.Setenv("DATABASE_ENABLED", "false")
	t.Setenv("ENABLE_PROFILING", "true")
	t.Setenv("SNAPSHOT_TTL", "90m")
	t.Setenv("MATCH_FETCH_CONCURRENCY", "3")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.RiotRegion != "EUW1" {
		t.Errorf("expected RiotRegion 'EUW1', got %s", cfg.RiotRegion)
	}
	if cfg.RedisDB != 5 {
		t.Errorf("expected RedisDB 5, got %d", cfg.RedisDB)
	}
	if cfg.NATSUrl != "nats://custom:4223" || cfg.AppPort != "8080" || cfg.LogLevel != "debug" {
		t.Errorf("unexpected overrides: %+v", cfg)
	}
	if cfg.CacheEnabled || cfg.DatabaseEnabled {
		t.Error("expected cache and database to be disabled")
	}
	if !cfg.ProfilingEnabled {
		t.Error("expected profiling to be enabled")
	}
	if cfg.SnapshotTTL != 90*time.Minute {
		t.Errorf("expected 90m ttl, got %s", cfg.SnapshotTTL)
	}
	if cfg.MatchFetchConcurrency != 3 {
		t.Errorf("expected concurrency 3, got %d", cfg.MatchFetchConcurrency)
	}
}

func TestLoadConfig_YAMLFileThenEnvironment(t *testing.T) {
	clearConfigEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := []byte(`
riot_api_key: RGAPI-from-file
riot_region: KR
app_port: "9000"
nats_enabled: false
snapshot_ttl: 2h
`)
	if err := os.WriteFile(path, yaml, 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("APP_PORT", "9100")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.RiotAPIKey != "RGAPI-from-file" || cfg.RiotRegion != "KR" {
		t.Errorf("expected values from file, got %s / %s", cfg.RiotAPIKey, cfg.RiotRegion)
	}
	if cfg.AppPort != "9100" {
		t.Errorf("expected environment to win over file, got %s", cfg.AppPort)
	}
	if cfg.NATSEnabled {
		t.Error("expected nats disabled from file")
	}
	if cfg.SnapshotTTL != 2*time.Hour {
		t.Errorf("expected 2h ttl from file, got %s", cfg.SnapshotTTL)
	}
	if cfg.PostgresHost != "localhost" {
		t.Errorf("expected defaults to survive, got %s", cfg.PostgresHost)
	}
}

func TestLoadConfig_MissingFileIsNotAnError(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("RIOT_API_KEY", testAPIKey)

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestLoadConfig_APIKeyValidation(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{"missing", ""},
		{"wrong prefix", "test-api-key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearConfigEnv(t)
			t.Setenv("RIOT_API_KEY", tt.key)

			_, err := LoadConfig("")
			if !errors.Is(err, ErrConfig) {
				t.Fatalf("expected config error, got %v", err)
			}
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) || cfgErr.Field != "RIOT_API_KEY" {
				t.Errorf("expected RIOT_API_KEY field, got %v", err)
			}
		})
	}
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"REDIS_DB", "invalid"},
		{"SNAPSHOT_TTL", "tomorrow"},
		{"MATCH_FETCH_CONCURRENCY", "0"},
		{"MATCH_FETCH_CONCURRENCY", "many"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearConfigEnv(t)
			t.Setenv("RIOT_API_KEY", testAPIKey)
			t.Setenv(tt.key, tt.value)

			_, err := LoadConfig("")
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) || cfgErr.Field != tt.key {
				t.Errorf("expected ConfigError for %s, got %v", tt.key, err)
			}
		})
	}
}

func TestConfig_PostgresDSN(t *testing.T) {
	cfg := &Config{
		PostgresHost:     "db",
		PostgresPort:     "5433",
		PostgresUser:     "ezlfp",
		PostgresPassword: "secret",
		PostgresDb:       "ezlfp",
		PostgresSSLMode:  "disable",
	}
	expected := "host=db port=5433 user=ezlfp password=secret dbname=ezlfp sslmode=disable"
	if got := cfg.PostgresDSN(); got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
}

func TestSetBool(t *testing.T) {
	tests := []struct {
		value    string
		initial  bool
		expected bool
	}{
		{"true", false, true},
		{"false", true, false},
		{"yes", true, false},
		{"", true, true},
	}

	for _, tt := range tests {
		t.Setenv("EZLFP_TEST_BOOL", tt.value)
		got := tt.initial
		setBool(&got, "EZLFP_TEST_BOOL")
		if got != tt.expected {
			t.Errorf("setBool(%q) from %v: expected %v, got %v", tt.value, tt.initial, tt.expected, got)
		}
	}
}
