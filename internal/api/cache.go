package api

import (
	"sync"
	"time"

	"github.com/mtlprog/bienes/internal/index"
)

const registryTTL = 30 * time.Second

// registryCache holds the last index registry built from the store. Writes made
// outside the API, such as the file import worker, become visible after registryTTL.
type registryCache struct {
	mu        sync.RWMutex
	reg       *index.Registry
	expiresAt time.Time
	now       func() time.Time
}

func newRegistryCache() *registryCache {
	return &registryCache{now: time.Now}
}

func (c *registryCache) get() (*index.Registry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.reg == nil || c.now().After(c.expiresAt) {
		return nil, false
	}
	return c.reg, true
}

func (c *registryCache) set(reg *index.Registry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.reg = reg
	c.expiresAt = c.now().Add(registryTTL)
}

func (c *registryCache) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.reg = nil
}
