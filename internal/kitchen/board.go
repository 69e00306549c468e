package kitchen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/Anilparajuli4/eatery-go/internal/domain"
	"github.com/Anilparajuli4/eatery-go/internal/push"
)

var ErrNoNextStatus = errors.New("order has no forward status")

// API is the slice of the REST client the board needs. Status mutation is
// staff-only; the backend enforces authorization.
type API interface {
	ListOrders(ctx context.Context, ids []string) ([]domain.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) (*domain.Order, error)
}

// Pusher is the slice of the push channel the board needs.
type Pusher interface {
	Connect(ctx context.Context) error
	On(event string, h push.Handler) int
	Off(event string, id int)
}

// Board is the kitchen's live view: every open order, fed by new_order and
// status events, advanced by staff one status at a time. The same id-keyed
// upsert rule as the shopper's history applies.
type Board struct {
	api    API
	pusher Pusher

	mu     sync.Mutex
	orders []domain.Order
	subs   map[string]int
}

func NewBoard(api API, pusher Pusher) *Board {
	return &Board{api: api, pusher: pusher}
}

// Open loads the current orders and starts listening for kitchen events.
func (b *Board) Open(ctx context.Context) error {
	if err := b.pusher.Connect(ctx); err != nil {
		return err
	}

	orders, err := b.api.ListOrders(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to load kitchen orders: %w", err)
	}

	b.mu.Lock()
	b.orders = orders
	if b.subs == nil {
		b.subs = map[string]int{
			push.EventNewOrder:          b.pusher.On(push.EventNewOrder, b.handleEvent),
			push.EventOrderStatusUpdate: b.pusher.On(push.EventOrderStatusUpdate, b.handleEvent),
			push.EventOrderUpdated:      b.pusher.On(push.EventOrderUpdated, b.handleEvent),
		}
	}
	b.mu.Unlock()
	return nil
}

// Close detaches the board's handlers.
func (b *Board) Close() {
	b.mu.Lock()
	subs := b.subs
	b.subs = nil
	b.mu.Unlock()
	for event, id := range subs {
		b.pusher.Off(event, id)
	}
}

func (b *Board) handleEvent(data json.RawMessage) {
	var order domain.Order
	if err := json.Unmarshal(data, &order); err != nil {
		log.Printf("kitchen event decode error: %v", err)
		return
	}
	if order.ID == "" {
		return
	}
	b.upsert(order)
}

func (b *Board) upsert(order domain.Order) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.orders {
		if b.orders[i].ID == order.ID {
			b.orders[i] = order
			return
		}
	}
	b.orders = append([]domain.Order{order}, b.orders...)
}

// Advance moves the order to its next status via the staff endpoint and
// upserts the confirmed result. The transition table decides what "next"
// means; terminal orders have none.
func (b *Board) Advance(ctx context.Context, orderID string) (*domain.Order, error) {
	b.mu.Lock()
	found := false
	var next domain.OrderStatus
	for i := range b.orders {
		if b.orders[i].ID == orderID {
			found = true
			next = domain.NextStatus(b.orders[i].Status)
			break
		}
	}
	b.mu.Unlock()
	if !found {
		return nil, fmt.Errorf("order %s not on the board", orderID)
	}

	if next == "" {
		return nil, ErrNoNextStatus
	}

	updated, err := b.api.UpdateOrderStatus(ctx, orderID, next)
	if err != nil {
		return nil, err
	}
	b.upsert(*updated)
	return updated, nil
}

// Cancel cancels an order that the transition table still allows to cancel.
func (b *Board) Cancel(ctx context.Context, orderID string) (*domain.Order, error) {
	b.mu.Lock()
	var status domain.OrderStatus
	for i := range b.orders {
		if b.orders[i].ID == orderID {
			status = b.orders[i].Status
			break
		}
	}
	b.mu.Unlock()

	if !domain.CanTransitionTo(status, domain.OrderStatusCancelled) {
		return nil, fmt.Errorf("order %s cannot be cancelled from %s", orderID, status)
	}

	updated, err := b.api.UpdateOrderStatus(ctx, orderID, domain.OrderStatusCancelled)
	if err != nil {
		return nil, err
	}
	b.upsert(*updated)
	return updated, nil
}

// Orders returns a copy of the board.
func (b *Board) Orders() []domain.Order {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]domain.Order, len(b.orders))
	copy(out, b.orders)
	return out
}
