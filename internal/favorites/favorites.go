package favorites

import (
	"context"
	"errors"
	"log"
	"sort"
	"sync"

	"github.com/Anilparajuli4/eatery-go/internal/localstore"
)

// Set is the shopper's favorite product ids. Purely local; the backend
// never sees it.
type Set struct {
	mu    sync.Mutex
	ids   map[string]bool
	local localstore.Store
}

func NewSet(local localstore.Store) *Set {
	s := &Set{ids: make(map[string]bool), local: local}
	var stored []string
	err := localstore.LoadJSON(context.Background(), local, localstore.KeyFavorites, &stored)
	if err != nil && !errors.Is(err, localstore.ErrNotFound) {
		log.Printf("favorites load error: %v", err)
	}
	for _, id := range stored {
		s.ids[id] = true
	}
	return s
}

// Toggle flips membership for the product id and returns the new state.
func (s *Set) Toggle(productID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ids[productID] {
		delete(s.ids, productID)
	} else {
		s.ids[productID] = true
	}
	s.persist()
	return s.ids[productID]
}

func (s *Set) Contains(productID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ids[productID]
}

// IDs returns the favorites sorted for stable display.
func (s *Set) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedLocked()
}

func (s *Set) persist() {
	if err := localstore.SaveJSON(context.Background(), s.local, localstore.KeyFavorites, s.sortedLocked()); err != nil {
		log.Printf("favorites persist error: %v", err)
	}
}

func (s *Set) sortedLocked() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
