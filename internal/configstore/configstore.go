package configstore

import (
  "context"
  "fmt"
  "strconv"
  "strings"
  "sync"
  "time"

  "github.com/redis/go-redis/v9"

  "github.com/yungbote/lessonforge-backend/internal/logger"
  "github.com/yungbote/lessonforge-backend/internal/utils"
)

// ConfigStore is the runtime-mutable key-value configuration capability. The
// provider gateway reads flags from it at call time, so toggles take effect
// without a restart. Reads are best-effort: a backend failure falls back to the
// caller's default rather than failing the request.
type ConfigStore interface {
  GetBool(ctx context.Context, key string, def bool) bool
  GetString(ctx context.Context, key string, def string) string
  Set(ctx context.Context, key, value string) error
}

const keyPrefix = "config:"

type redisConfigStore struct {
  log *logger.Logger
  rdb *redis.Client
}

func NewRedisConfigStore(log *logger.Logger) (ConfigStore, error) {
  addr := strings.TrimSpace(utils.GetEnv("REDIS_ADDR", "", log))
  if addr == "" {
    return nil, fmt.Errorf("missing REDIS_ADDR")
  }

  rdb := redis.NewClient(&redis.Options{
    Addr:        addr,
    Password:    utils.GetEnv("REDIS_PASSWORD", "", log),
    DialTimeout: 5 * time.Second,
  })

  ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
  defer cancel()
  if err := rdb.Ping(ctx).Err(); err != nil {
    return nil, fmt.Errorf("redis ping: %w", err)
  }

  return &redisConfigStore{
    log: log.With("service", "RedisConfigStore"),
    rdb: rdb,
  }, nil
}

func (s *redisConfigStore) GetBool(ctx context.Context, key string, def bool) bool {
  raw, err := s.rdb.Get(ctx, keyPrefix+key).Result()
  if err != nil {
    if err != redis.Nil {
      s.log.Warn("Config read failed, using default", "key", key, "error", err)
    }
    return def
  }
  b, err := strconv.ParseBool(strings.TrimSpace(raw))
  if err != nil {
    s.log.Warn("Config value is not a bool, using default", "key", key, "value", raw)
    return def
  }
  return b
}

func (s *redisConfigStore) GetString(ctx context.Context, key string, def string) string {
  raw, err := s.rdb.Get(ctx, keyPrefix+key).Result()
  if err != nil {
    if err != redis.Nil {
      s.log.Warn("Config read failed, using default", "key", key, "error", err)
    }
    return def
  }
  return raw
}

func (s *redisConfigStore) Set(ctx context.Context, key, value string) error {
  return s.rdb.Set(ctx, keyPrefix+key, value, 0).Err()
}

// MemoryConfigStore backs tests and single-node deployments without Redis.
type MemoryConfigStore struct {
  mu     sync.RWMutex
  values map[string]string
}

func NewMemoryConfigStore() *MemoryConfigStore {
  return &MemoryConfigStore{values: map[string]string{}}
}

func (s *MemoryConfigStore) GetBool(ctx context.Context, key string, def bool) bool {
  s.mu.RLock()
  raw, ok := s.values[key]
  s.mu.RUnlock()
  if !ok {
    return def
  }
  b, err := strconv.ParseBool(raw)
  if err != nil {
    return def
  }
  return b
}

func (s *MemoryConfigStore) GetString(ctx context.Context, key string, def string) string {
  s.mu.RLock()
  defer s.mu.RUnlock()
  if raw, ok := s.values[key]; ok {
    return raw
  }
  return def
}

func (s *MemoryConfigStore) Set(ctx context.Context, key, value string) error {
  s.mu.Lock()
  s.values[key] = value
  s.mu.Unlock()
  return nil
}
