package cart

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"

	"github.com/Anilparajuli4/eatery-go/internal/domain"
	"github.com/Anilparajuli4/eatery-go/internal/localstore"
	"github.com/Anilparajuli4/eatery-go/internal/notify"
)

const (
	defaultPrepMinutes = 15
	readyBufferMinutes = 5
)

// Store holds the shopper's cart: at most one line per product id. All
// operations are synchronous; nothing here touches the network. Every
// mutation is written through to the local store so a restart reproduces
// the same cart.
type Store struct {
	mu       sync.Mutex
	lines    []domain.CartLine
	local    localstore.Store
	notifier notify.Notifier
}

func NewStore(local localstore.Store, notifier notify.Notifier) *Store {
	s := &Store{local: local, notifier: notifier}
	s.load()
	return s
}

func (s *Store) load() {
	var lines []domain.CartLine
	err := localstore.LoadJSON(context.Background(), s.local, localstore.KeyCart, &lines)
	if err != nil && !errors.Is(err, localstore.ErrNotFound) {
		log.Printf("cart load error: %v", err)
		return
	}
	s.lines = lines
}

func (s *Store) persist() {
	if err := localstore.SaveJSON(context.Background(), s.local, localstore.KeyCart, s.lines); err != nil {
		log.Printf("cart persist error: %v", err)
	}
}

// Add inserts a new line with quantity 1, or increments an existing line,
// and signals a transient confirmation.
func (s *Store) Add(item domain.MenuItem) {
	s.mu.Lock()
	found := false
	for i := range s.lines {
		if s.lines[i].Item.ID == item.ID {
			s.lines[i].Quantity++
			found = true
			break
		}
	}
	if !found {
		s.lines = append(s.lines, domain.CartLine{Item: item, Quantity: 1})
	}
	s.persist()
	s.mu.Unlock()

	s.notifier.Success(fmt.Sprintf("%s added to cart", item.Name))
}

// UpdateQuantity applies delta to the line's quantity, clamping at 0.
// A line that reaches 0 is removed.
func (s *Store) UpdateQuantity(productID string, delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.lines {
		if s.lines[i].Item.ID != productID {
			continue
		}
		q := s.lines[i].Quantity + delta
		if q <= 0 {
			s.lines = append(s.lines[:i], s.lines[i+1:]...)
		} else {
			s.lines[i].Quantity = q
		}
		s.persist()
		return
	}
}

// Remove deletes the line unconditionally.
func (s *Store) Remove(productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.lines {
		if s.lines[i].Item.ID == productID {
			s.lines = append(s.lines[:i], s.lines[i+1:]...)
			s.persist()
			return
		}
	}
}

// SetInstructions attaches per-line special instructions.
func (s *Store) SetInstructions(productID, instructions string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.lines {
		if s.lines[i].Item.ID == productID {
			s.lines[i].Instructions = instructions
			s.persist()
			return
		}
	}
}

// Clear empties the cart, typically on successful order placement.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = nil
	s.persist()
}

// Lines returns a copy of the cart lines in insertion order.
func (s *Store) Lines() []domain.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.CartLine, len(s.lines))
	copy(out, s.lines)
	return out
}

// Total is the sum of price×quantity, rounded to 2 decimals.
func (s *Store) Total() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total float64
	for _, l := range s.lines {
		total += l.Subtotal()
	}
	return math.Round(total*100) / 100
}

// TotalDisplay is Total formatted for the UI, e.g. "25.50".
func (s *Store) TotalDisplay() string {
	return fmt.Sprintf("%.2f", s.Total())
}

// ItemCount is the sum of quantities across all lines.
func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, l := range s.lines {
		count += l.Quantity
	}
	return count
}

// EstimatedReadyTime is minutes until pickup: the slowest line's prep time
// (default 15 when items carry none) plus a fixed buffer. 0 for an empty
// cart.
func (s *Store) EstimatedReadyTime() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.lines) == 0 {
		return 0
	}
	maxPrep := defaultPrepMinutes
	for _, l := range s.lines {
		if l.Item.PrepTime > maxPrep {
			maxPrep = l.Item.PrepTime
		}
	}
	return maxPrep + readyBufferMinutes
}
