package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/member-registry/pkg/helpers"
)

const DefaultFilterOptionsKey = "registrants:filter-options"

// FilterOptions caches the filter options listing in Redis as one JSON value.
// Writes to registrants invalidate it; the TTL bounds staleness from writers
// that bypass the service.
type FilterOptions struct {
	rdb *redis.Client
	key string
	ttl time.Duration
}

func NewFilterOptions(rdb *redis.Client, ttl time.Duration) *FilterOptions {
	return &FilterOptions{rdb: rdb, key: DefaultFilterOptionsKey, ttl: ttl}
}

func (c *FilterOptions) Get(ctx context.Context) (map[string][]string, bool, error) {
	var v map[string][]string
	ok, err := helpers.RedisGetJSON(ctx, c.rdb, c.key, &v)
	if err != nil || !ok {
		return nil, false, err
	}
	return v, true, nil
}

func (c *FilterOptions) Set(ctx context.Context, v map[string][]string) error {
	return helpers.RedisSetJSON(ctx, c.rdb, c.key, v, c.ttl)
}

func (c *FilterOptions) Invalidate(ctx context.Context) error {
	return helpers.RedisDel(ctx, c.rdb, c.key)
}
