// Package core defines the ports between the service layer and its adapters,
// plus small services that only depend on those ports.
package core

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/target/llmlab/internal/domain/model"
)

// CacheRepository defines the interface for caching operations.
// This follows the hexagonal architecture pattern where the core defines interfaces
// and the data layer provides implementations.
type CacheRepository interface {
	// Set stores a value in the cache with the given key and TTL.
	// If TTL is 0, the key will not expire.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Get retrieves a value from the cache by key.
	// Returns nil if the key doesn't exist or has expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes a key from the cache.
	// Returns true if the key was deleted, false if it didn't exist.
	Delete(ctx context.Context, key string) (bool, error)

	// Health checks the health of the cache connection.
	Health(ctx context.Context) error
}

// ExperimentViewCache caches status views of experiments that reached a
// terminal state. A nil *ExperimentViewCache is a valid, disabled cache.
type ExperimentViewCache struct {
	cache  CacheRepository
	ttl    time.Duration
	prefix string
}

// ExperimentViewCacheOptions bundles dependencies for NewExperimentViewCache.
type ExperimentViewCacheOptions struct {
	Cache     CacheRepository
	TTL       time.Duration
	KeyPrefix string
}

// NewExperimentViewCache creates a new ExperimentViewCache. It returns nil when
// no cache repository is configured.
func NewExperimentViewCache(opts ExperimentViewCacheOptions) *ExperimentViewCache {
	if opts.Cache == nil {
		return nil
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &ExperimentViewCache{
		cache:  opts.Cache,
		ttl:    ttl,
		prefix: opts.KeyPrefix,
	}
}

// Get returns the cached view, or nil on a miss.
func (c *ExperimentViewCache) Get(ctx context.Context, experimentID string) (*model.ExperimentView, error) {
	if c == nil || experimentID == "" {
		return nil, nil
	}
	raw, err := c.cache.Get(ctx, c.key(experimentID))
	if err != nil || len(raw) == 0 {
		return nil, err
	}
	var view model.ExperimentView
	if err := json.Unmarshal(raw, &view); err != nil {
		return nil, fmt.Errorf("decode cached experiment view: %w", err)
	}
	return &view, nil
}

// Put caches a view. Non-terminal views are ignored since they still change.
func (c *ExperimentViewCache) Put(ctx context.Context, view *model.ExperimentView) error {
	if c == nil || view == nil || !view.Status.Terminal() {
		return nil
	}
	raw, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("encode experiment view: %w", err)
	}
	return c.cache.Set(ctx, c.key(view.ID), raw, c.ttl)
}

// Invalidate removes a cached view.
func (c *ExperimentViewCache) Invalidate(ctx context.Context, experimentID string) error {
	if c == nil || experimentID == "" {
		return nil
	}
	_, err := c.cache.Delete(ctx, c.key(experimentID))
	return err
}

func (c *ExperimentViewCache) key(experimentID string) string {
	if c.prefix == "" {
		return "experiment:view:" + experimentID
	}
	return c.prefix + ":experiment:view:" + experimentID
}
