package worktree

import (
	"sync"
	"time"
)

// Cache memoizes WorktreeRoot lookups for a short TTL so a
// busy pane's output-handling path isn't shelling out to git on every
// chunk just to re-derive a cwd that hasn't changed.
type Cache struct {
	ttl time.Duration

	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	root    string
	ok      bool
	expires time.Time
}

// NewCache builds a cache with the given TTL. A non-positive ttl disables
// caching: every lookup always shells out.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{ttl: ttl, entries: make(map[string]cacheEntry)}
}

// WorktreeRoot is a cached wrapper around the package-level WorktreeRoot.
func (c *Cache) WorktreeRoot(dir string) (string, bool) {
	if c.ttl <= 0 {
		return WorktreeRoot(dir)
	}

	c.mu.Lock()
	if e, ok := c.entries[dir]; ok && time.Now().Before(e.expires) {
		c.mu.Unlock()
		return e.root, e.ok
	}
	c.mu.Unlock()

	root, ok := WorktreeRoot(dir)
	c.mu.Lock()
	c.entries[dir] = cacheEntry{root: root, ok: ok, expires: time.Now().Add(c.ttl)}
	c.mu.Unlock()
	return root, ok
}

// Invalidate drops any cached entry for dir, used when a pane's cwd is
// known to have changed out from under the cache.
func (c *Cache) Invalidate(dir string) {
	c.mu.Lock()
	delete(c.entries, dir)
	c.mu.Unlock()
}
