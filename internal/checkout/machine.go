package checkout

import (
	"context"
	"errors"
	"sync"

	"github.com/Anilparajuli4/eatery-go/internal/api"
	"github.com/Anilparajuli4/eatery-go/internal/cart"
	"github.com/Anilparajuli4/eatery-go/internal/domain"
	"github.com/Anilparajuli4/eatery-go/internal/notify"
	"github.com/google/uuid"
)

type State string

const (
	StateReviewing State = "REVIEWING"
	StateDetails   State = "DETAILS"
	StatePayment   State = "PAYMENT"
	// StateAwaitingPayment means the order exists server-side and the
	// external payment flow holds the client secret.
	StateAwaitingPayment State = "AWAITING_EXTERNAL_PAYMENT"
	StatePlaced          State = "PLACED"
)

var (
	ErrEmptyCart         = errors.New("cart is empty, nothing to checkout")
	ErrDetailsIncomplete = errors.New("name and a 10-digit phone are required")
	ErrSubmitInFlight    = errors.New("an order submission is already in flight")
	ErrNotAtPayment      = errors.New("not at the payment step")
	ErrNoPendingPayment  = errors.New("no external payment pending")
)

// OrderCreator is the slice of the REST client the machine needs.
type OrderCreator interface {
	CreateOrder(ctx context.Context, sub api.OrderSubmission, idempotencyKey string) (*api.CreateOrderResponse, error)
}

// PlacementRecorder learns about every successfully placed order id, so
// guest tracking can find it later.
type PlacementRecorder interface {
	RecordOrderID(orderID string)
}

// Machine drives the three checkout steps and the submission handoff.
// Reviewing → Details → Payment, then Placed for cash or AwaitingPayment
// for card. The busy flag is the one at-most-once guarantee in the system:
// a second Submit while one is in flight is rejected without a request.
type Machine struct {
	mu    sync.Mutex
	state State
	draft domain.OrderDraft
	busy  bool

	pendingOrderID string
	clientSecret   string

	cart     *cart.Store
	orders   OrderCreator
	recorder PlacementRecorder
	notifier notify.Notifier
}

func NewMachine(cartStore *cart.Store, orders OrderCreator, recorder PlacementRecorder, notifier notify.Notifier) *Machine {
	m := &Machine{
		cart:     cartStore,
		orders:   orders,
		recorder: recorder,
		notifier: notifier,
	}
	m.reset()
	return m
}

func (m *Machine) reset() {
	m.state = StateReviewing
	m.draft.Reset()
	m.pendingOrderID = ""
	m.clientSecret = ""
}

// Start returns the machine to a fresh Reviewing state with an empty draft.
func (m *Machine) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reset()
}

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Step is the 1-based step number for the progress indicator, 0 once the
// flow has left the three editable steps.
func (m *Machine) Step() int {
	switch m.State() {
	case StateReviewing:
		return 1
	case StateDetails:
		return 2
	case StatePayment:
		return 3
	}
	return 0
}

// Draft returns a copy of the current draft for rendering.
func (m *Machine) Draft() domain.OrderDraft {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.draft
}

// UpdateDraft applies an edit to the draft. Guards are recomputed by the
// next CanAdvance call; edits themselves are never rejected.
func (m *Machine) UpdateDraft(edit func(*domain.OrderDraft)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	edit(&m.draft)
}

// CanAdvance is the disable flag for the forward control: pure predicate,
// no side effects.
func (m *Machine) CanAdvance() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.state {
	case StateReviewing:
		return m.cart.ItemCount() > 0
	case StateDetails:
		return m.draft.DetailsComplete()
	}
	return false
}

// Advance moves Reviewing→Details→Payment. Leaving Details is blocked while
// the draft fails validation.
func (m *Machine) Advance() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.state {
	case StateReviewing:
		if m.cart.ItemCount() == 0 {
			return ErrEmptyCart
		}
		m.state = StateDetails
		return nil
	case StateDetails:
		if !m.draft.DetailsComplete() {
			return ErrDetailsIncomplete
		}
		m.state = StatePayment
		return nil
	}
	return ErrNotAtPayment
}

// Back moves one step toward Reviewing.
func (m *Machine) Back() {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.state {
	case StateDetails:
		m.state = StateReviewing
	case StatePayment:
		m.state = StateDetails
	}
}

// Submit fires the order-creation request exactly once. A cash response
// places the order immediately; a card response parks the machine in
// AwaitingPayment holding the client secret for the payment bridge. Any
// error keeps the machine at Payment so the shopper can correct and retry
// manually.
func (m *Machine) Submit(ctx context.Context) (*domain.Order, error) {
	m.mu.Lock()
	if m.state != StatePayment {
		m.mu.Unlock()
		return nil, ErrNotAtPayment
	}
	if m.busy {
		m.mu.Unlock()
		return nil, ErrSubmitInFlight
	}
	m.busy = true
	sub := m.buildSubmission()
	m.mu.Unlock()

	resp, err := m.orders.CreateOrder(ctx, sub, uuid.NewString())

	m.mu.Lock()
	defer m.mu.Unlock()
	m.busy = false

	if err != nil {
		m.notifier.Error(api.UserMessage(err))
		return nil, err
	}

	order := resp.Order
	if resp.ClientSecret != "" {
		m.state = StateAwaitingPayment
		m.pendingOrderID = order.ID
		m.clientSecret = resp.ClientSecret
		return &order, nil
	}

	m.placeLocked(order.ID)
	return &order, nil
}

func (m *Machine) buildSubmission() api.OrderSubmission {
	lines := m.cart.Lines()
	items := make([]api.SubmissionItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, api.SubmissionItem{ProductID: l.Item.ID, Quantity: l.Quantity})
	}
	return api.OrderSubmission{
		Items:              items,
		CustomerName:       m.draft.CustomerName,
		CustomerPhone:      m.draft.CustomerPhone,
		SpecialInstruction: m.draft.SpecialInstruction,
		PaymentMethod:      m.draft.PaymentMethod,
		CustomerAddress:    m.draft.CustomerAddress,
	}
}

// placeLocked finishes a placement: cart cleared, order id recorded for
// guest tracking, draft consumed. Caller holds the lock.
func (m *Machine) placeLocked(orderID string) {
	m.state = StatePlaced
	m.clientSecret = ""
	m.pendingOrderID = orderID
	m.cart.Clear()
	m.recorder.RecordOrderID(orderID)
	m.draft.Reset()
	m.notifier.Success("order placed")
}

// PendingPayment exposes the handoff for the payment bridge.
func (m *Machine) PendingPayment() (orderID, clientSecret string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateAwaitingPayment || m.clientSecret == "" {
		return "", "", ErrNoPendingPayment
	}
	return m.pendingOrderID, m.clientSecret, nil
}

// ConfirmExternalPayment is called by the bridge once the external flow
// reports success and the backend confirmed the order. Only now does the
// cart empty for a card order.
func (m *Machine) ConfirmExternalPayment() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateAwaitingPayment {
		return ErrNoPendingPayment
	}
	m.placeLocked(m.pendingOrderID)
	return nil
}

// CancelExternalPayment returns the shopper to the payment step. The order
// already exists server-side in a pending-payment state; reconciling it is
// the backend's problem.
func (m *Machine) CancelExternalPayment() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateAwaitingPayment {
		return
	}
	m.state = StatePayment
	m.clientSecret = ""
	m.pendingOrderID = ""
}

// PlacedOrderID is the id of the last placed order, for the success view.
func (m *Machine) PlacedOrderID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StatePlaced {
		return ""
	}
	return m.pendingOrderID
}
