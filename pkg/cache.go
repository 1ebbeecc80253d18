package pkg

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/redis/go-redis/v9"
)

// Cache is a byte-oriented key/value cache.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// MemoryCache is an in-process cache backed by ristretto.
type MemoryCache struct {
	c *ristretto.Cache[string, []byte]
}

// NewMemoryCache creates a cache holding at most maxCostBytes of values.
func NewMemoryCache(maxCostBytes int64) (*MemoryCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: maxCostBytes / 100 * 10,
		MaxCost:     maxCostBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &MemoryCache{c: c}, nil
}

func (slf *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	val, found := slf.c.Get(key)
	if !found {
		return nil, false, nil
	}
	return val, true, nil
}

func (slf *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	slf.c.SetWithTTL(key, value, int64(len(value)), ttl)
	return nil
}

func (slf *MemoryCache) Delete(_ context.Context, key string) error {
	slf.c.Del(key)
	return nil
}

// Wait blocks until pending writes are visible to Get.
func (slf *MemoryCache) Wait() {
	slf.c.Wait()
}

func (slf *MemoryCache) Close() {
	slf.c.Close()
}

// TieredCache checks l1 then l2, backfilling l1 on an l2 hit. Writes and
// deletes go to both levels.
type TieredCache struct {
	l1       Cache
	l2       Cache
	l1Expire time.Duration
}

func NewTieredCache(l1, l2 Cache, l1Expire time.Duration) *TieredCache {
	return &TieredCache{l1: l1, l2: l2, l1Expire: l1Expire}
}

func (slf *TieredCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, found, err := slf.l1.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if found {
		return val, true, nil
	}

	val, found, err = slf.l2.Get(ctx, key)
	if err != nil || !found {
		return nil, false, err
	}
	_ = slf.l1.Set(ctx, key, val, slf.l1Expire)
	return val, true, nil
}

func (slf *TieredCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := slf.l1.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	return slf.l2.Set(ctx, key, value, ttl)
}

func (slf *TieredCache) Delete(ctx context.Context, key string) error {
	if err := slf.l1.Delete(ctx, key); err != nil {
		return err
	}
	return slf.l2.Delete(ctx, key)
}

// NewCache builds the process cache: ristretto alone, or ristretto in front
// of redis when a client is given.
func NewCache(client *redis.Client, maxCostBytes int64, l1Expire time.Duration) (Cache, error) {
	l1, err := NewMemoryCache(maxCostBytes)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return l1, nil
	}
	return NewTieredCache(l1, NewRedisCache(client), l1Expire), nil
}

// CacheGetJSON decodes the cached value for key into dest. It reports false
// when the key is absent.
func CacheGetJSON(ctx context.Context, c Cache, key string, dest any) (bool, error) {
	data, found, err := c.Get(ctx, key)
	if err != nil || !found {
		return false, err
	}
	if err = json.Unmarshal(data, dest); err != nil {
		return false, err
	}
	return true, nil
}

func CacheSetJSON(ctx context.Context, c Cache, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, data, ttl)
}
