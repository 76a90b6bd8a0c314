package internal

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "ezlfp"

// CacheManager persists resolved results on behalf of callers. The
// resolution pipeline never reads from it.
type CacheManager struct {
	client  redis.Cmdable
	enabled bool
	logger  *Logger
	metrics *MetricsCollector
}

func NewCacheManager(cfg *Config, logger *Logger, metrics *MetricsCollector) *CacheManager {
	if logger == nil {
		logger = NopLogger()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	return &CacheManager{
		client:  client,
		enabled: cfg.CacheEnabled,
		logger:  logger,
		metrics: metrics,
	}
}

func (cm *CacheManager) Enabled() bool {
	return cm.enabled
}

func (cm *CacheManager) Ping(ctx context.Context) error {
	if !cm.enabled {
		return nil
	}
	return cm.client.Ping(ctx).Err()
}

func (cm *CacheManager) Get(ctx context.Context, key string, result interface{}) error {
	if !cm.enabled {
		return redis.Nil
	}

	data, err := cm.client.Get(ctx, key).Result()
	if err != nil {
		return err
	}

	return json.Unmarshal([]byte(data), result)
}

func (cm *CacheManager) Set(ctx context.Context, key string, data interface{}, ttl time.Duration) error {
	if !cm.enabled {
		return nil
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	return cm.client.Set(ctx, key, jsonData, ttl).Err()
}

// Key joins parts under the service prefix. Riot IDs are case-insensitive,
// so parts are lower-cased.
func (cm *CacheManager) Key(parts ...string) string {
	key := cacheKeyPrefix
	for _, part := range parts {
		key = key + ":" + strings.ToLower(part)
	}
	return key
}

func (cm *CacheManager) snapshotKey(gameName, tagLine string) string {
	return cm.Key("snapshot", gameName, tagLine)
}

func (cm *CacheManager) SaveSnapshot(ctx context.Context, result *PlayerStatsResult, ttl time.Duration) error {
	key := cm.snapshotKey(result.Account.GameName, result.Account.TagLine)
	if err := cm.Set(ctx, key, result, ttl); err != nil {
		cm.logger.Warn("snapshot_save_failed").
			Component("cache").
			Operation("save_snapshot").
			Cache(false, key).
			Err(err).
			Log()
		return err
	}
	return nil
}

// LoadSnapshot returns redis.Nil when there is no snapshot or the cache is
// disabled.
func (cm *CacheManager) LoadSnapshot(ctx context.Context, gameName, tagLine string) (*PlayerStatsResult, error) {
	key := cm.snapshotKey(gameName, tagLine)

	var result PlayerStatsResult
	err := cm.Get(ctx, key, &result)
	switch {
	case errors.Is(err, redis.Nil):
		cm.metrics.RecordCacheMiss()
		return nil, err
	case err != nil:
		return nil, err
	}

	cm.metrics.RecordCacheHit()
	cm.logger.Debug("snapshot_loaded").
		Component("cache").
		Operation("load_snapshot").
		Cache(true, key).
		Log()
	return &result, nil
}

func (cm *CacheManager) Close() error {
	if closer, ok := cm.client.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
