// Package cache provides a Redis read-through cache in front of the catalog.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"storefront/internal/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ErrCacheMiss is returned by Get when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

// ProductSource loads a product from the system of record.
type ProductSource interface {
	GetByID(ctx context.Context, id string) (*models.Product, error)
}

// CatalogCache serves product lookups from Redis and falls back to source
// on a miss or a Redis error. A nil client disables caching.
type CatalogCache struct {
	client  *redis.Client
	source  ProductSource
	baseTTL time.Duration
	sfg     singleflight.Group
	logger  *zap.Logger

	// generations counts invalidations per key; a load only writes back
	// when no invalidation happened while it was reading the source.
	mu          sync.Mutex
	generations map[string]uint64
}

func NewCatalogCache(client *redis.Client, source ProductSource, logger *zap.Logger) *CatalogCache {
	return &CatalogCache{
		client:      client,
		source:      source,
		baseTTL:     5 * time.Minute,
		logger:      logger,
		generations: make(map[string]uint64),
	}
}

// GetByID returns the product with id, loading it from the source at most
// once per key across concurrent callers.
func (c *CatalogCache) GetByID(ctx context.Context, id string) (*models.Product, error) {
	if c.client == nil {
		return c.source.GetByID(ctx, id)
	}

	v, err, _ := c.sfg.Do(id, func() (interface{}, error) {
		// The flight is shared, so one caller's cancellation must not fail the others.
		ctx := context.WithoutCancel(ctx)

		product, err := c.Get(ctx, id)
		if err == nil {
			return product, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			c.logger.Warn("product cache read failed", zap.String("product_id", id), zap.Error(err))
		}

		gen := c.generation(id)
		product, err = c.source.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := c.setIfCurrent(ctx, product, gen); err != nil {
			c.logger.Warn("product cache write failed", zap.String("product_id", id), zap.Error(err))
		}
		return product, nil
	})
	if err != nil {
		return nil, err
	}

	// Callers sharing a flight must not share the struct.
	product := *v.(*models.Product)
	return &product, nil
}

func (c *CatalogCache) Get(ctx context.Context, id string) (*models.Product, error) {
	data, err := c.client.Get(ctx, cacheKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var product models.Product
	if err := json.Unmarshal(data, &product); err != nil {
		return nil, fmt.Errorf("unmarshal product failed: %w", err)
	}
	return &product, nil
}

func (c *CatalogCache) Set(ctx context.Context, product *models.Product) error {
	data, err := json.Marshal(product)
	if err != nil {
		return fmt.Errorf("marshal product failed: %w", err)
	}

	jitter := time.Duration(rand.Intn(60)) * time.Second
	if err := c.client.Set(ctx, cacheKey(product.ID), data, c.baseTTL+jitter).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// setIfCurrent writes product back unless id was invalidated after gen was read.
// A load that races an invalidation could otherwise restore the stale entry.
func (c *CatalogCache) setIfCurrent(ctx context.Context, product *models.Product, gen uint64) error {
	if c.generation(product.ID) != gen {
		return nil
	}
	if err := c.Set(ctx, product); err != nil {
		return err
	}
	if c.generation(product.ID) != gen {
		return c.client.Del(ctx, cacheKey(product.ID)).Err()
	}
	return nil
}

func (c *CatalogCache) generation(id string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[id]
}

// Invalidate drops the cached entry for id. It is a no-op when caching is disabled.
func (c *CatalogCache) Invalidate(ctx context.Context, id string) error {
	if c.client == nil {
		return nil
	}
	c.mu.Lock()
	c.generations[id]++
	c.mu.Unlock()
	// New callers must not join a flight that started before the write.
	c.sfg.Forget(id)

	if err := c.client.Del(ctx, cacheKey(id)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func cacheKey(id string) string {
	return fmt.Sprintf("product:%s", id)
}
