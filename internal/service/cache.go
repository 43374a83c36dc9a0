package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"cruce-web/internal/models"

	"github.com/redis/go-redis/v9"
)

// ErrNotImported means no imported table is cached for the requested instance and date range.
var ErrNotImported = errors.New("no imported data for this instance and date range, run an import first")

// TableCache keeps imported tables between requests.
type TableCache interface {
	Load(ctx context.Context, key string) (models.ResultTable, error)
	Store(ctx context.Context, key string, table models.ResultTable, ttl time.Duration) error
}

// ImportKey identifies the cached import of one instance and date option.
func ImportKey(instance string, option models.DateOption) string {
	return fmt.Sprintf("cruce:import:%s:%d", instance, option)
}

type RedisTableCache struct {
	client *redis.Client
}

func NewRedisTableCache(client *redis.Client) *RedisTableCache {
	return &RedisTableCache{client: client}
}

func (c *RedisTableCache) Load(ctx context.Context, key string) (models.ResultTable, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotImported
	}
	if err != nil {
		return nil, fmt.Errorf("cache get %s: %w", key, err)
	}

	var table models.ResultTable
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("cache decode %s: %w", key, err)
	}
	return table, nil
}

func (c *RedisTableCache) Store(ctx context.Context, key string, table models.ResultTable, ttl time.Duration) error {
	data, err := json.Marshal(table)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	return c.client.Set(ctx, key, data, ttl).Err()
}

type memoryEntry struct {
	table   models.ResultTable
	expires time.Time
}

// MemoryTableCache is the in-process fallback used when Redis is not reachable.
type MemoryTableCache struct {
	mu    sync.RWMutex
	items map[string]memoryEntry
}

func NewMemoryTableCache() *MemoryTableCache {
	return &MemoryTableCache{items: make(map[string]memoryEntry)}
}

func (c *MemoryTableCache) Load(ctx context.Context, key string) (models.ResultTable, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.items[key]
	if !ok || (!entry.expires.IsZero() && time.Now().After(entry.expires)) {
		return nil, ErrNotImported
	}
	return entry.table.Clone(), nil
}

func (c *MemoryTableCache) Store(ctx context.Context, key string, table models.ResultTable, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := memoryEntry{table: table.Clone()}
	if ttl > 0 {
		entry.expires = time.Now().Add(ttl)
	}
	c.items[key] = entry
	return nil
}
