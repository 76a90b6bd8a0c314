package internal

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const riotAPIKeyPrefix = "RGAPI-"

type Config struct {
	RiotAPIKey      string `yaml:"riot_api_key"`
	RiotRegion      string `yaml:"riot_region"`
	RiotPlatformURL string `yaml:"riot_platform_url"`
	RiotRegionalURL string `yaml:"riot_regional_url"`

	PostgresHost     string `yaml:"postgres_host"`
	PostgresPort     string `yaml:"postgres_port"`
	PostgresUser     string `yaml:"postgres_user"`
	PostgresPassword string `yaml:"postgres_password"`
	PostgresDb       string `yaml:"postgres_db"`
	PostgresSSLMode  string `yaml:"postgres_ssl_mode"`

	RedisHost     string `yaml:"redis_host"`
	RedisPort     string `yaml:"redis_port"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`

	NATSUrl      string `yaml:"nats_url"`
	NATSClientID string `yaml:"nats_client_id"`

	RateLimitRedisPrefix string `yaml:"rate_limit_redis_prefix"`

	AppPort  string `yaml:"app_port"`
	AppEnv   string `yaml:"app_env"`
	LogLevel string `yaml:"log_level"`

	CacheEnabled     bool `yaml:"cache_enabled"`
	DatabaseEnabled  bool `yaml:"database_enabled"`
	NATSEnabled      bool `yaml:"nats_enabled"`
	ProfilingEnabled bool `yaml:"profiling_enabled"`

	SnapshotTTL           time.Duration `yaml:"snapshot_ttl"`
	MatchFetchConcurrency int           `yaml:"match_fetch_concurrency"`
}

func defaultConfig() *Config {
	return &Config{
		RiotRegion:            "NA1",
		PostgresHost:          "localhost",
		PostgresPort:          "5432",
		PostgresSSLMode:       "disable",
		RedisHost:             "localhost",
		RedisPort:             "6379",
		NATSUrl:               "nats://localhost:4222",
		NATSClientID:          "ezlfp-core",
		RateLimitRedisPrefix:  "ezlfp:ratelimit",
		AppPort:               "8000",
		AppEnv:                "development",
		LogLevel:              "info",
		CacheEnabled:          true,
		DatabaseEnabled:       true,
		NATSEnabled:           true,
		SnapshotTTL:           24 * time.Hour,
		MatchFetchConcurrency: maxMatchDetails,
	}
}

// LoadConfig layers defaults, an optional YAML file and the environment, in
// that order. A missing .env or YAML file is not an error.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to unmarshal config: %w", err)
			}
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.RiotAPIKey, "RIOT_API_KEY")
	setString(&c.RiotRegion, "RIOT_REGION")
	setString(&c.RiotPlatformURL, "RIOT_PLATFORM_URL")
	setString(&c.RiotRegionalURL, "RIOT_REGIONAL_URL")

	setString(&c.PostgresHost, "POSTGRES_HOST")
	setString(&c.PostgresPort, "POSTGRES_PORT")
	setString(&c.PostgresUser, "POSTGRES_USER")
	setString(&c.PostgresPassword, "POSTGRES_PASSWORD")
	setString(&c.PostgresDb, "POSTGRES_DB")
	setString(&c.PostgresSSLMode, "POSTGRES_SSL_MODE")

	setString(&c.RedisHost, "REDIS_HOST")
	setString(&c.RedisPort, "REDIS_PORT")
	setString(&c.RedisPassword, "REDIS_PASSWORD")
	if v := os.Getenv("REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return &ConfigError{Field: "REDIS_DB", Reason: "must be an integer"}
		}
		c.RedisDB = db
	}

	setString(&c.NATSUrl, "NATS_URL")
	setString(&c.NATSClientID, "NATS_CLIENT_ID")
	setString(&c.RateLimitRedisPrefix, "RATE_LIMIT_REDIS_PREFIX")

	setString(&c.AppPort, "APP_PORT")
	setString(&c.AppEnv, "APP_ENV")
	setString(&c.LogLevel, "LOG_LEVEL")

	setBool(&c.CacheEnabled, "CACHE_ENABLED")
	setBool(&c.DatabaseEnabled, "DATABASE_ENABLED")
	setBool(&c.NATSEnabled, "NATS_ENABLED")
	setBool(&c.ProfilingEnabled, "ENABLE_PROFILING")

	if v := os.Getenv("SNAPSHOT_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return &ConfigError{Field: "SNAPSHOT_TTL", Reason: "must be a duration"}
		}
		c.SnapshotTTL = ttl
	}
	if v := os.Getenv("MATCH_FETCH_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return &ConfigError{Field: "MATCH_FETCH_CONCURRENCY", Reason: "must be a positive integer"}
		}
		c.MatchFetchConcurrency = n
	}
	return nil
}

// Validate checks the settings the pipeline cannot run without.
func (c *Config) Validate() error {
	return validateAPIKey(c.RiotAPIKey)
}

func validateAPIKey(key string) error {
	if key == "" {
		return &ConfigError{Field: "RIOT_API_KEY", Reason: "is required"}
	}
	if !strings.HasPrefix(key, riotAPIKeyPrefix) {
		return &ConfigError{Field: "RIOT_API_KEY", Reason: "must start with " + riotAPIKeyPrefix}
	}
	return nil
}

func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost,
		c.PostgresPort,
		c.PostgresUser,
		c.PostgresPassword,
		c.PostgresDb,
		c.PostgresSSLMode,
	)
}

func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v == "true"
	}
}
