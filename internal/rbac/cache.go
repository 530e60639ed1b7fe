package rbac

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// MatrixCache caches computed permission matrices keyed by account id.
// Implementations must treat every miss or backend error as a miss; the
// resolver always recomputes on a miss, so the cache can never widen access.
type MatrixCache interface {
	Get(ctx context.Context, accountID string) (Matrix, bool)
	Set(ctx context.Context, accountID string, matrix Matrix)
	Invalidate(ctx context.Context, accountIDs ...string)
	// InvalidateAll drops every cached matrix. Called after role or
	// permission mutations, which can affect any number of accounts.
	InvalidateAll(ctx context.Context)
}

const (
	defaultCachePrefix = "storekeeper:matrix:"
	defaultCacheTTL    = 5 * time.Minute
)

// RedisMatrixCache stores serialized matrices in Redis with a TTL.
type RedisMatrixCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// CacheOption configures RedisMatrixCache.
type CacheOption func(*RedisMatrixCache)

// WithCacheTTL overrides the default entry lifetime.
func WithCacheTTL(ttl time.Duration) CacheOption {
	return func(c *RedisMatrixCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithCachePrefix overrides the default key prefix.
func WithCachePrefix(prefix string) CacheOption {
	return func(c *RedisMatrixCache) {
		if prefix != "" {
			c.prefix = prefix
		}
	}
}

// NewRedisMatrixCache wraps an existing Redis client.
func NewRedisMatrixCache(client *redis.Client, opts ...CacheOption) *RedisMatrixCache {
	c := &RedisMatrixCache{
		client: client,
		prefix: defaultCachePrefix,
		ttl:    defaultCacheTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *RedisMatrixCache) key(accountID string) string {
	return c.prefix + accountID
}

// Get returns the cached matrix for the account, if present and decodable.
func (c *RedisMatrixCache) Get(ctx context.Context, accountID string) (Matrix, bool) {
	data, err := c.client.Get(ctx, c.key(accountID)).Bytes()
	if err != nil {
		return nil, false
	}
	var raw map[string][]Operation
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, false
	}
	matrix := make(Matrix, len(raw))
	for module, ops := range raw {
		set := make(OperationSet, len(ops))
		for _, op := range ops {
			set[op] = struct{}{}
		}
		matrix[module] = set
	}
	return matrix, true
}

// Set stores the matrix; marshal or backend errors drop the entry silently.
func (c *RedisMatrixCache) Set(ctx context.Context, accountID string, matrix Matrix) {
	data, err := json.Marshal(matrix)
	if err != nil {
		return
	}
	c.client.Set(ctx, c.key(accountID), data, c.ttl)
}

// Invalidate drops the cached matrices for the given accounts.
func (c *RedisMatrixCache) Invalidate(ctx context.Context, accountIDs ...string) {
	if len(accountIDs) == 0 {
		return
	}
	keys := make([]string, 0, len(accountIDs))
	for _, id := range accountIDs {
		keys = append(keys, c.key(id))
	}
	c.client.Del(ctx, keys...)
}

// InvalidateAll scans and deletes every key under the cache prefix.
func (c *RedisMatrixCache) InvalidateAll(ctx context.Context) {
	iter := c.client.Scan(ctx, 0, c.prefix+"*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if len(keys) > 0 {
		c.client.Del(ctx, keys...)
	}
}
