package ordersync

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/Anilparajuli4/eatery-go/internal/domain"
	"github.com/Anilparajuli4/eatery-go/internal/push"
)

// Lister is the slice of the REST client the feed needs.
type Lister interface {
	ListOrders(ctx context.Context, ids []string) ([]domain.Order, error)
}

// Session tells the feed whether an account is signed in.
type Session interface {
	Authenticated() bool
	UserID() string
}

// Pusher is the slice of the push channel the feed needs.
type Pusher interface {
	Connect(ctx context.Context) error
	Emit(event string, data interface{}) error
	On(event string, h push.Handler) int
	Off(event string, id int)
}

// Feed is the live order history: an HTTP snapshot reconciled against push
// events by id-keyed upsert. The local list never holds two entries with
// the same id, and a later event for an id always wins — ordering is by
// arrival, not by timestamp.
type Feed struct {
	lister  Lister
	session Session
	pusher  Pusher
	known   *KnownOrders

	mu     sync.Mutex
	orders []domain.Order
	subs   map[string]int
}

func NewFeed(lister Lister, session Session, pusher Pusher, known *KnownOrders) *Feed {
	return &Feed{
		lister:  lister,
		session: session,
		pusher:  pusher,
		known:   known,
	}
}

// Enter is called when the orders view opens: assert the connection, fetch
// the current history once, join the rooms for everything loaded, attach
// the update handlers. A guest with no known ids gets an empty history and
// no fetch.
func (f *Feed) Enter(ctx context.Context) error {
	if err := f.pusher.Connect(ctx); err != nil {
		return err
	}

	var (
		orders []domain.Order
		err    error
	)
	switch {
	case f.session.Authenticated():
		orders, err = f.lister.ListOrders(ctx, nil)
	case len(f.known.IDs()) > 0:
		orders, err = f.lister.ListOrders(ctx, f.known.IDs())
	default:
		orders = nil
	}
	if err != nil {
		return fmt.Errorf("failed to fetch order history: %w", err)
	}

	f.mu.Lock()
	f.orders = orders
	f.mu.Unlock()

	for _, o := range orders {
		if errJoin := f.pusher.Emit(push.EventJoinOrderRoom, o.ID); errJoin != nil {
			log.Printf("join order room %s error: %v", o.ID, errJoin)
		}
	}
	if f.session.Authenticated() {
		if errJoin := f.pusher.Emit(push.EventJoinUserRoom, f.session.UserID()); errJoin != nil {
			log.Printf("join user room error: %v", errJoin)
		}
	}

	f.subscribe()
	return nil
}

// Leave detaches the update handlers. The channel connection stays up so
// other views keep receiving notifications.
func (f *Feed) Leave() {
	f.mu.Lock()
	subs := f.subs
	f.subs = nil
	f.mu.Unlock()
	for event, id := range subs {
		f.pusher.Off(event, id)
	}
}

func (f *Feed) subscribe() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subs != nil {
		return
	}
	f.subs = make(map[string]int)
	for _, event := range []string{push.EventOrderStatusUpdate, push.EventNewOrder, push.EventOrderUpdated} {
		f.subs[event] = f.pusher.On(event, f.handleUpdate)
	}
}

func (f *Feed) handleUpdate(data json.RawMessage) {
	var order domain.Order
	if err := json.Unmarshal(data, &order); err != nil {
		log.Printf("order update decode error: %v", err)
		return
	}
	if order.ID == "" {
		return
	}
	f.Upsert(order)
}

// Upsert applies the one true synchronization rule: replace in place when
// the id exists, otherwise prepend as the newest entry. Full-object
// replace, never a field-level merge.
func (f *Feed) Upsert(order domain.Order) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.orders {
		if f.orders[i].ID == order.ID {
			f.orders[i] = order
			return
		}
	}
	f.orders = append([]domain.Order{order}, f.orders...)
}

// Orders returns a copy of the current history.
func (f *Feed) Orders() []domain.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Order, len(f.orders))
	copy(out, f.orders)
	return out
}

// Order returns the entry for id, if present.
func (f *Feed) Order(id string) (domain.Order, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.ID == id {
			return o, true
		}
	}
	return domain.Order{}, false
}
