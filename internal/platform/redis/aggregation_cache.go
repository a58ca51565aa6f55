package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	aggdomain "github.com/yungbote/collection-listing/internal/domain/aggregation"
	"github.com/yungbote/collection-listing/internal/platform/logger"
)

const defaultKeyPrefix = "collection-listing:aggregation:v1"

type Config struct {
	Addr      string        `yaml:"addr"`
	Password  string        `yaml:"password"`
	DB        int           `yaml:"db"`
	KeyPrefix string        `yaml:"key_prefix"`
	TTL       time.Duration `yaml:"ttl"`
}

// AggregationCache stores resolved aggregation results keyed by collection
// URL and caller visibility.
type AggregationCache interface {
	Get(ctx context.Context, key string) (aggdomain.Result, bool, error)
	Set(ctx context.Context, key string, res aggdomain.Result) error
	Delete(ctx context.Context, keys ...string) error
	Key(collectionURL string, visibility string) string
	Close() error
}

type aggregationCache struct {
	log    *logger.Logger
	rdb    *goredis.Client
	prefix string
	ttl    time.Duration
}

// NewAggregationCache connects and pings Redis. An empty Addr returns a nil
// cache and no error.
func NewAggregationCache(cfg Config, log *logger.Logger) (AggregationCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, nil
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return newAggregationCache(rdb, cfg, log), nil
}

func newAggregationCache(rdb *goredis.Client, cfg Config, log *logger.Logger) *aggregationCache {
	prefix := strings.TrimSpace(cfg.KeyPrefix)
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &aggregationCache{
		log:    log.With("client", "RedisAggregationCache"),
		rdb:    rdb,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (c *aggregationCache) Key(collectionURL string, visibility string) string {
	return c.prefix + ":" + visibility + ":" + collectionURL
}

func (c *aggregationCache) Get(ctx context.Context, key string) (aggdomain.Result, bool, error) {
	if c == nil || c.rdb == nil {
		return aggdomain.Result{}, false, fmt.Errorf("redis aggregation cache not initialized")
	}
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return aggdomain.Result{}, false, nil
	}
	if err != nil {
		return aggdomain.Result{}, false, err
	}
	var res aggdomain.Result
	if err := json.Unmarshal(raw, &res); err != nil {
		c.log.Warn("Dropping undecodable cached aggregation", "key", key, "error", err)
		_ = c.rdb.Del(ctx, key).Err()
		return aggdomain.Result{}, false, nil
	}
	return res, true, nil
}

func (c *aggregationCache) Set(ctx context.Context, key string, res aggdomain.Result) error {
	if c == nil || c.rdb == nil {
		return fmt.Errorf("redis aggregation cache not initialized")
	}
	raw, err := json.Marshal(res)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, raw, c.ttl).Err()
}

func (c *aggregationCache) Delete(ctx context.Context, keys ...string) error {
	if c == nil || c.rdb == nil {
		return fmt.Errorf("redis aggregation cache not initialized")
	}
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

func (c *aggregationCache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
