package llmgateway

import (
	"sync"
	"time"
)

// keyTTL is the short time-to-live the spec requires for the cached
// provider key; ForceRefresh is invoked on any 401 rather than waiting for
// this to elapse.
const keyTTL = 5 * time.Minute

// KeyCache caches a resolved provider API key with a TTL and supports a
// forced refresh, grounded on the teacher's RWMutex snapshot-read pattern
// for process-wide mutable state (the registry uses the same shape).
type KeyCache struct {
	mu        sync.RWMutex
	key       string
	resolved  time.Time
	resolveFn func() (string, error)
}

// NewKeyCache builds a cache that calls resolveFn to (re-)resolve the key.
// resolveFn typically just reads an env-sourced config value, but is a
// function so a future key table or secrets-manager lookup can replace it
// without touching callers.
func NewKeyCache(resolveFn func() (string, error)) *KeyCache {
	return &KeyCache{resolveFn: resolveFn}
}

// Key returns the cached key, resolving it if absent or expired.
func (c *KeyCache) Key() (string, error) {
	c.mu.RLock()
	if c.key != "" && time.Since(c.resolved) < keyTTL {
		k := c.key
		c.mu.RUnlock()
		return k, nil
	}
	c.mu.RUnlock()
	return c.refresh()
}

// ForceRefresh re-resolves the key unconditionally, called by a backend
// after it observes a 401 from the provider.
func (c *KeyCache) ForceRefresh() (string, error) {
	return c.refresh()
}

func (c *KeyCache) refresh() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	k, err := c.resolveFn()
	if err != nil {
		return "", err
	}
	c.key = k
	c.resolved = time.Now()
	return k, nil
}
