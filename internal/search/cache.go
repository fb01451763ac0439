package search

import "sync"

// PageCache holds fetched pages for one query context. There is no eviction:
// the whole cache is dropped whenever the context changes, and a session only
// ever visits a few dozen pages.
type PageCache struct {
	mu      sync.RWMutex
	entries map[string]Page
}

func NewPageCache() *PageCache {
	return &PageCache{entries: make(map[string]Page)}
}

// Get returns the cached page for the fingerprint and page number.
func (c *PageCache) Get(fp string, page int) (Page, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.entries[PageKey(fp, page)]
	return p, ok
}

// Put stores a page. The results slice is copied so later edits by the
// caller cannot leak into the cache.
func (c *PageCache) Put(fp string, page int, results []Result, pagination Pagination) {
	cp := make([]Result, len(results))
	copy(cp, results)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[PageKey(fp, page)] = Page{Results: cp, Pagination: pagination}
}

// InvalidateAll drops every entry.
func (c *PageCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]Page)
}

func (c *PageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
