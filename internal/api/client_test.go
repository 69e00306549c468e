package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Anilparajuli4/eatery-go/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend stands in for the external eatery API.
type fakeBackend struct {
	t *testing.T

	lastQuery       string
	lastAuth        string
	lastIdemKey     string
	lastSubmission  OrderSubmission
	createResponse  CreateOrderResponse
	createStatus    int
	listOrders      []domain.Order
	patchedStatuses map[string]domain.OrderStatus
}

func newFakeBackend(t *testing.T) (*fakeBackend, *httptest.Server) {
	b := &fakeBackend{t: t, createStatus: http.StatusCreated, patchedStatuses: map[string]domain.OrderStatus{}}

	r := chi.NewRouter()
	r.Get("/products", func(w http.ResponseWriter, req *http.Request) {
		b.lastQuery = req.URL.RawQuery
		json.NewEncoder(w).Encode(ProductPage{
			Items: []domain.MenuItem{{ID: "1", Name: "Margherita", Price: 10}},
			Meta:  &PageMeta{CurrentPage: 2, TotalPages: 5},
		})
	})
	r.Get("/products/categories", func(w http.ResponseWriter, req *http.Request) {
		json.NewEncoder(w).Encode([]domain.CategoryCount{{Key: "PIZZA", Count: 7}})
	})
	r.Post("/orders", func(w http.ResponseWriter, req *http.Request) {
		b.lastAuth = req.Header.Get("Authorization")
		b.lastIdemKey = req.Header.Get("Idempotency-Key")
		require.NoError(t, json.NewDecoder(req.Body).Decode(&b.lastSubmission))
		if b.createStatus >= 400 {
			w.WriteHeader(b.createStatus)
			json.NewEncoder(w).Encode(map[string]string{"error": "item out of stock"})
			return
		}
		w.WriteHeader(b.createStatus)
		json.NewEncoder(w).Encode(b.createResponse)
	})
	r.Get("/orders", func(w http.ResponseWriter, req *http.Request) {
		b.lastAuth = req.Header.Get("Authorization")
		b.lastQuery = req.URL.RawQuery
		json.NewEncoder(w).Encode(b.listOrders)
	})
	r.Patch("/orders/{id}/status", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Status domain.OrderStatus `json:"status"`
		}
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		id := chi.URLParam(req, "id")
		b.patchedStatuses[id] = body.Status
		json.NewEncoder(w).Encode(domain.Order{ID: id, Status: body.Status})
	})

	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return b, ts
}

func TestListProductsBuildsQuery(t *testing.T) {
	backend, ts := newFakeBackend(t)
	c := NewClient(ts.URL, nil)

	page, err := c.ListProducts(context.Background(), ProductQuery{
		Page:      2,
		Category:  domain.CategoryPizza,
		Search:    "margherita",
		SortBy:    "price",
		SortOrder: "asc",
	})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Margherita", page.Items[0].Name)
	require.NotNil(t, page.Meta)
	assert.Equal(t, 5, page.Meta.TotalPages)

	assert.Contains(t, backend.lastQuery, "page=2")
	assert.Contains(t, backend.lastQuery, "category=PIZZA")
	assert.Contains(t, backend.lastQuery, "search=margherita")
	assert.Contains(t, backend.lastQuery, "sortBy=price")
	assert.Contains(t, backend.lastQuery, "order=asc")
}

func TestCategories(t *testing.T) {
	_, ts := newFakeBackend(t)
	c := NewClient(ts.URL, nil)

	counts, err := c.Categories(context.Background())
	require.NoError(t, err)
	require.Len(t, counts, 1)
	assert.Equal(t, "PIZZA", counts[0].Key)
	assert.Equal(t, 7, counts[0].Count)
}

func TestCreateOrderSendsPayloadAndHeaders(t *testing.T) {
	backend, ts := newFakeBackend(t)
	backend.createResponse = CreateOrderResponse{
		Order:        domain.Order{ID: "ord-1"},
		ClientSecret: "cs_123",
	}
	c := NewClient(ts.URL, func() string { return "tok-1" })

	resp, err := c.CreateOrder(context.Background(), OrderSubmission{
		Items:         []SubmissionItem{{ProductID: "1", Quantity: 2}},
		CustomerName:  "Ada",
		CustomerPhone: "0123456789",
		PaymentMethod: domain.PaymentMethodCard,
	}, "key-1")
	require.NoError(t, err)
	assert.Equal(t, "ord-1", resp.Order.ID)
	assert.Equal(t, "cs_123", resp.ClientSecret)

	assert.Equal(t, "Bearer tok-1", backend.lastAuth)
	assert.Equal(t, "key-1", backend.lastIdemKey)
	assert.Equal(t, "Ada", backend.lastSubmission.CustomerName)
	assert.Equal(t, []SubmissionItem{{ProductID: "1", Quantity: 2}}, backend.lastSubmission.Items)
}

func TestCreateOrderTrimsAddress(t *testing.T) {
	backend, ts := newFakeBackend(t)
	c := NewClient(ts.URL, nil)

	_, err := c.CreateOrder(context.Background(), OrderSubmission{
		Items:           []SubmissionItem{{ProductID: "1", Quantity: 1}},
		CustomerName:    "Ada",
		CustomerPhone:   "0123456789",
		PaymentMethod:   domain.PaymentMethodCash,
		CustomerAddress: "   ",
	}, "key-2")
	require.NoError(t, err)
	assert.Empty(t, backend.lastSubmission.CustomerAddress, "whitespace address is dropped")
}

func TestCreateOrderServerError(t *testing.T) {
	backend, ts := newFakeBackend(t)
	backend.createStatus = http.StatusConflict
	c := NewClient(ts.URL, nil)

	_, err := c.CreateOrder(context.Background(), OrderSubmission{}, "key-3")
	require.Error(t, err)

	var srvErr *ServerError
	require.ErrorAs(t, err, &srvErr)
	assert.Equal(t, http.StatusConflict, srvErr.StatusCode)
	assert.Equal(t, "item out of stock", srvErr.Message)
	assert.Equal(t, "item out of stock", UserMessage(err))
}

func TestListOrdersByIDs(t *testing.T) {
	backend, ts := newFakeBackend(t)
	backend.listOrders = []domain.Order{{ID: "a"}, {ID: "b"}}
	c := NewClient(ts.URL, nil)

	orders, err := c.ListOrders(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, orders, 2)
	assert.Contains(t, backend.lastQuery, "ids=a%2Cb")

	// account fetch has no query at all
	_, err = c.ListOrders(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, backend.lastQuery)
}

func TestUpdateOrderStatus(t *testing.T) {
	backend, ts := newFakeBackend(t)
	c := NewClient(ts.URL, nil)

	order, err := c.UpdateOrderStatus(context.Background(), "ord-7", domain.OrderStatusPreparing)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPreparing, order.Status)
	assert.Equal(t, domain.OrderStatusPreparing, backend.patchedStatuses["ord-7"])
}

func TestUnauthorizedMapsToSentinel(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(ts.Close)
	c := NewClient(ts.URL, nil)

	_, err := c.ListOrders(context.Background(), nil)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, ErrUnauthorized.Error(), UserMessage(err))
}

func TestNetworkFailureMapsToSentinel(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", nil)

	_, err := c.Categories(context.Background())
	assert.ErrorIs(t, err, ErrNetwork)
	assert.Equal(t, ErrNetwork.Error(), UserMessage(err))
}
