package run

import (
	"context"
	"sync"

	"github.com/tabweave/tabweave/pkg/domain"
)

// Cache remembers the newest completed run so that prediction calls do
// not rescan the store. It is explicitly invalidatable: wire it to a
// filesystem watch (pkg/utils/filewatch) or call Invalidate whenever a
// training run finishes.
type Cache struct {
	registry Interface

	mu     sync.RWMutex
	latest *domain.Run
}

func NewCache(registry Interface) *Cache {
	return &Cache{registry: registry}
}

// LatestDone returns the cached newest completed run, loading it from
// the registry on a cold or invalidated cache.
func (c *Cache) LatestDone(ctx context.Context) (*domain.Run, error) {
	c.mu.RLock()
	cached := c.latest
	c.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	loaded, err := c.registry.LatestDone(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.latest = loaded
	c.mu.Unlock()
	return loaded, nil
}

// Invalidate drops the cached run. The next LatestDone reloads.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.latest = nil
	c.mu.Unlock()
}
