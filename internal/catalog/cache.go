package catalog

import (
	"context"
	"errors"
	"sync"

	"github.com/Anilparajuli4/eatery-go/internal/api"
)

// PageCache stores catalog pages keyed by their query. Read-through only:
// there is no invalidation beyond an explicit refresh.
type PageCache interface {
	Get(ctx context.Context, key string) (*api.ProductPage, error)
	Set(ctx context.Context, key string, page *api.ProductPage) error
	Delete(ctx context.Context, key string) error
}

var ErrCacheMiss = errors.New("cache miss")

// MemoryCache is the in-process PageCache used when no redis is configured.
type MemoryCache struct {
	mu    sync.RWMutex
	pages map[string]*api.ProductPage
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{pages: make(map[string]*api.ProductPage)}
}

func (c *MemoryCache) Get(_ context.Context, key string) (*api.ProductPage, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	page, ok := c.pages[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	return page, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, page *api.ProductPage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pages[key] = page
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pages, key)
	return nil
}
