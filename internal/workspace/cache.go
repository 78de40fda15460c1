package workspace

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/morozRed/notegraph/internal/pathutil"
)

// CachedReader memoizes file contents in a bounded LRU. Callers invalidate
// entries after writes, renames and deletes.
type CachedReader struct {
	next  Reader
	cache *lru.Cache[string, string]
}

// NewCachedReader wraps next with an LRU holding up to size entries.
func NewCachedReader(next Reader, size int) (*CachedReader, error) {
	if size <= 0 {
		return nil, fmt.Errorf("cache size must be positive, got %d", size)
	}
	cache, err := lru.New[string, string](size)
	if err != nil {
		return nil, err
	}
	return &CachedReader{next: next, cache: cache}, nil
}

func (c *CachedReader) Read(ctx context.Context, path string) (string, error) {
	key := pathutil.Normalize(path)
	if content, ok := c.cache.Get(key); ok {
		return content, nil
	}
	content, err := c.next.Read(ctx, path)
	if err != nil {
		return "", err
	}
	c.cache.Add(key, content)
	return content, nil
}

// Invalidate drops path and everything beneath it.
func (c *CachedReader) Invalidate(path string) {
	prefix := pathutil.Normalize(path)
	for _, key := range c.cache.Keys() {
		if pathutil.Within(key, prefix) {
			c.cache.Remove(key)
		}
	}
}

// Purge drops every cached entry.
func (c *CachedReader) Purge() {
	c.cache.Purge()
}

// Len returns the number of cached entries.
func (c *CachedReader) Len() int {
	return c.cache.Len()
}
