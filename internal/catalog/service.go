package catalog

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/Anilparajuli4/eatery-go/internal/api"
	"github.com/Anilparajuli4/eatery-go/internal/domain"
	"golang.org/x/sync/singleflight"
)

// Fetcher is the slice of the REST client the catalog needs.
type Fetcher interface {
	ListProducts(ctx context.Context, q api.ProductQuery) (*api.ProductPage, error)
	Categories(ctx context.Context) ([]domain.CategoryCount, error)
}

// Service is the read-through catalog: cache first, backend on miss,
// singleflight so concurrent misses for the same page fetch once.
type Service struct {
	fetcher Fetcher
	cache   PageCache
	sfg     singleflight.Group

	mu         sync.RWMutex
	categories []domain.CategoryCount
}

func NewService(fetcher Fetcher, cache PageCache) *Service {
	return &Service{fetcher: fetcher, cache: cache}
}

// Products returns the catalog page for the query, from cache when present.
func (s *Service) Products(ctx context.Context, q api.ProductQuery) (*api.ProductPage, error) {
	key := queryKey(q)
	v, err, _ := s.sfg.Do(key, func() (interface{}, error) {
		page, err := s.cache.Get(ctx, key)
		if err == nil {
			return page, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			log.Printf("catalog cache get error: %v", err)
		}

		page, errFetch := s.fetcher.ListProducts(ctx, q)
		if errFetch != nil {
			return nil, errFetch
		}

		go func() {
			if errSet := s.cache.Set(context.Background(), key, page); errSet != nil {
				log.Printf("catalog cache set error: %v", errSet)
			}
		}()

		return page, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*api.ProductPage), nil
}

// Refresh drops the cached page and refetches it.
func (s *Service) Refresh(ctx context.Context, q api.ProductQuery) (*api.ProductPage, error) {
	key := queryKey(q)
	if err := s.cache.Delete(ctx, key); err != nil {
		log.Printf("catalog cache delete error: %v", err)
	}
	return s.Products(ctx, q)
}

// Categories returns the category summary, fetched once and then served
// from memory until Refresh-style refetch via ReloadCategories.
func (s *Service) Categories(ctx context.Context) ([]domain.CategoryCount, error) {
	s.mu.RLock()
	cached := s.categories
	s.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}
	return s.ReloadCategories(ctx)
}

// ReloadCategories refetches the category summary unconditionally.
func (s *Service) ReloadCategories(ctx context.Context) ([]domain.CategoryCount, error) {
	counts, err := s.fetcher.Categories(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.categories = counts
	s.mu.Unlock()
	return counts, nil
}

func queryKey(q api.ProductQuery) string {
	return fmt.Sprintf("p=%d:c=%s:q=%s:s=%s:%s", q.Page, q.Category, q.Search, q.SortBy, q.SortOrder)
}
