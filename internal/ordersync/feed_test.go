package ordersync

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/Anilparajuli4/eatery-go/internal/domain"
	"github.com/Anilparajuli4/eatery-go/internal/localstore"
	"github.com/Anilparajuli4/eatery-go/internal/push"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockLister struct {
	mu     sync.Mutex
	orders []domain.Order
	err    error
	calls  int
	gotIDs []string
}

func (m *mockLister) ListOrders(_ context.Context, ids []string) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.gotIDs = ids
	return m.orders, m.err
}

type mockSession struct {
	authed bool
	userID string
}

func (m *mockSession) Authenticated() bool { return m.authed }
func (m *mockSession) UserID() string      { return m.userID }

type emitted struct {
	event string
	data  interface{}
}

type mockPusher struct {
	mu       sync.Mutex
	emits    []emitted
	handlers map[string]map[int]push.Handler
	nextID   int
	connects int
}

func newMockPusher() *mockPusher {
	return &mockPusher{handlers: make(map[string]map[int]push.Handler)}
}

func (m *mockPusher) Connect(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connects++
	return nil
}

func (m *mockPusher) Emit(event string, data interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emits = append(m.emits, emitted{event, data})
	return nil
}

func (m *mockPusher) On(event string, h push.Handler) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	if m.handlers[event] == nil {
		m.handlers[event] = make(map[int]push.Handler)
	}
	m.handlers[event][m.nextID] = h
	return m.nextID
}

func (m *mockPusher) Off(event string, id int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.handlers[event], id)
}

// deliver fakes an inbound push event.
func (m *mockPusher) deliver(t *testing.T, event string, order domain.Order) {
	t.Helper()
	data, err := json.Marshal(order)
	require.NoError(t, err)
	m.mu.Lock()
	hs := make([]push.Handler, 0, len(m.handlers[event]))
	for _, h := range m.handlers[event] {
		hs = append(hs, h)
	}
	m.mu.Unlock()
	for _, h := range hs {
		h(data)
	}
}

func (m *mockPusher) emittedEvents() []emitted {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]emitted, len(m.emits))
	copy(out, m.emits)
	return out
}

func (m *mockPusher) handlerCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, hs := range m.handlers {
		n += len(hs)
	}
	return n
}

func TestUpsertReplacesInPlace(t *testing.T) {
	f := NewFeed(&mockLister{}, &mockSession{}, newMockPusher(), NewKnownOrders(localstore.NewMemoryStore()))
	f.Upsert(domain.Order{ID: "a", Status: domain.OrderStatusPending})
	f.Upsert(domain.Order{ID: "b", Status: domain.OrderStatusPending})

	f.Upsert(domain.Order{ID: "a", Status: domain.OrderStatusPreparing})

	orders := f.Orders()
	require.Len(t, orders, 2, "list length unchanged on replace")
	// "a" keeps its position, full object replaced
	assert.Equal(t, "b", orders[0].ID)
	assert.Equal(t, "a", orders[1].ID)
	assert.Equal(t, domain.OrderStatusPreparing, orders[1].Status)
}

func TestUpsertPrependsUnseenID(t *testing.T) {
	f := NewFeed(&mockLister{}, &mockSession{}, newMockPusher(), NewKnownOrders(localstore.NewMemoryStore()))
	f.Upsert(domain.Order{ID: "a"})

	f.Upsert(domain.Order{ID: "c", Status: domain.OrderStatusReady})

	orders := f.Orders()
	require.Len(t, orders, 2, "list grows by exactly one")
	assert.Equal(t, "c", orders[0].ID, "new entry is first")
	assert.Equal(t, domain.OrderStatusReady, orders[0].Status)
}

func TestUpsertLaterUpdateWins(t *testing.T) {
	f := NewFeed(&mockLister{}, &mockSession{}, newMockPusher(), NewKnownOrders(localstore.NewMemoryStore()))
	// arrival order decides, even when the payload looks "older"
	f.Upsert(domain.Order{ID: "a", Status: domain.OrderStatusReady})
	f.Upsert(domain.Order{ID: "a", Status: domain.OrderStatusPreparing})

	o, ok := f.Order("a")
	require.True(t, ok)
	assert.Equal(t, domain.OrderStatusPreparing, o.Status)
	assert.Len(t, f.Orders(), 1)
}

func TestEnterAuthenticatedFetchesByAccount(t *testing.T) {
	lister := &mockLister{orders: []domain.Order{{ID: "a"}, {ID: "b"}}}
	pusher := newMockPusher()
	f := NewFeed(lister, &mockSession{authed: true, userID: "u-1"}, pusher, NewKnownOrders(localstore.NewMemoryStore()))

	require.NoError(t, f.Enter(context.Background()))
	assert.Nil(t, lister.gotIDs, "account fetch passes no ids")
	assert.Len(t, f.Orders(), 2)

	events := pusher.emittedEvents()
	require.Len(t, events, 3)
	assert.Equal(t, emitted{push.EventJoinOrderRoom, "a"}, events[0])
	assert.Equal(t, emitted{push.EventJoinOrderRoom, "b"}, events[1])
	assert.Equal(t, emitted{push.EventJoinUserRoom, "u-1"}, events[2])
}

func TestEnterGuestFetchesByKnownIDs(t *testing.T) {
	local := localstore.NewMemoryStore()
	known := NewKnownOrders(local)
	known.RecordOrderID("old")
	known.RecordOrderID("new")

	lister := &mockLister{orders: []domain.Order{{ID: "new"}, {ID: "old"}}}
	pusher := newMockPusher()
	f := NewFeed(lister, &mockSession{}, pusher, known)

	require.NoError(t, f.Enter(context.Background()))
	assert.Equal(t, []string{"new", "old"}, lister.gotIDs)

	events := pusher.emittedEvents()
	require.Len(t, events, 2)
	assert.Equal(t, push.EventJoinOrderRoom, events[0].event)
}

func TestEnterGuestWithNothingKnownSkipsFetch(t *testing.T) {
	lister := &mockLister{}
	f := NewFeed(lister, &mockSession{}, newMockPusher(), NewKnownOrders(localstore.NewMemoryStore()))

	require.NoError(t, f.Enter(context.Background()))
	assert.Equal(t, 0, lister.calls, "no session and no ids means no fetch")
	assert.Empty(t, f.Orders())
}

func TestPushEventForUnseenOrderPrepends(t *testing.T) {
	lister := &mockLister{orders: []domain.Order{{ID: "a"}}}
	pusher := newMockPusher()
	f := NewFeed(lister, &mockSession{authed: true}, pusher, NewKnownOrders(localstore.NewMemoryStore()))
	require.NoError(t, f.Enter(context.Background()))

	pusher.deliver(t, push.EventOrderStatusUpdate, domain.Order{ID: "z", Status: domain.OrderStatusPending})

	orders := f.Orders()
	require.Len(t, orders, 2)
	assert.Equal(t, "z", orders[0].ID)
	assert.Equal(t, domain.OrderStatusPending, orders[0].Status)
}

func TestPushEventReplacesExistingOrder(t *testing.T) {
	lister := &mockLister{orders: []domain.Order{{ID: "a", Status: domain.OrderStatusPending}}}
	pusher := newMockPusher()
	f := NewFeed(lister, &mockSession{authed: true}, pusher, NewKnownOrders(localstore.NewMemoryStore()))
	require.NoError(t, f.Enter(context.Background()))

	pusher.deliver(t, push.EventOrderUpdated, domain.Order{ID: "a", Status: domain.OrderStatusReady})

	orders := f.Orders()
	require.Len(t, orders, 1)
	assert.Equal(t, domain.OrderStatusReady, orders[0].Status)
}

func TestLeaveDetachesHandlersOnly(t *testing.T) {
	lister := &mockLister{}
	pusher := newMockPusher()
	f := NewFeed(lister, &mockSession{authed: true}, pusher, NewKnownOrders(localstore.NewMemoryStore()))
	require.NoError(t, f.Enter(context.Background()))
	require.Equal(t, 3, pusher.handlerCount())

	f.Leave()
	assert.Equal(t, 0, pusher.handlerCount())

	// re-entering resubscribes
	require.NoError(t, f.Enter(context.Background()))
	assert.Equal(t, 3, pusher.handlerCount())
	assert.Equal(t, 2, pusher.connects, "connect is asserted on every entry")
}

func TestKnownOrdersDedupAndOrder(t *testing.T) {
	local := localstore.NewMemoryStore()
	k := NewKnownOrders(local)
	k.RecordOrderID("a")
	k.RecordOrderID("b")
	k.RecordOrderID("a") // duplicate, ignored
	k.RecordOrderID("")  // empty, ignored
	k.RecordOrderID("c")

	assert.Equal(t, []string{"c", "b", "a"}, k.IDs())

	// round-trip through the local store
	reloaded := NewKnownOrders(local)
	assert.Equal(t, []string{"c", "b", "a"}, reloaded.IDs())
}
