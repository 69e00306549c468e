package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Anilparajuli4/eatery-go/internal/domain"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// TokenProvider supplies the current session token, or "" for guests.
type TokenProvider func() string

// Client is the REST client for the external eatery backend. It owns no
// state beyond connection plumbing; every call is a one-shot request.
type Client struct {
	baseURL string
	http    *http.Client
	token   TokenProvider
}

func NewClient(baseURL string, token TokenProvider) *Client {
	if token == nil {
		token = func() string { return "" }
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		token: token,
	}
}

// ProductQuery narrows the catalog listing.
type ProductQuery struct {
	Page      int
	Category  domain.Category
	Search    string
	SortBy    string
	SortOrder string
}

type PageMeta struct {
	CurrentPage int `json:"currentPage"`
	TotalPages  int `json:"totalPages"`
}

type ProductPage struct {
	Items []domain.MenuItem `json:"items"`
	Meta  *PageMeta         `json:"meta,omitempty"`
}

func (c *Client) ListProducts(ctx context.Context, q ProductQuery) (*ProductPage, error) {
	params := url.Values{}
	if q.Page > 0 {
		params.Set("page", strconv.Itoa(q.Page))
	}
	if q.Category != "" {
		params.Set("category", q.Category.APIValue())
	}
	if q.Search != "" {
		params.Set("search", q.Search)
	}
	if q.SortBy != "" {
		params.Set("sortBy", q.SortBy)
		if q.SortOrder != "" {
			params.Set("order", q.SortOrder)
		}
	}

	endpoint := c.baseURL + "/products"
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var page ProductPage
	if err := c.do(ctx, http.MethodGet, endpoint, nil, "", &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) Categories(ctx context.Context) ([]domain.CategoryCount, error) {
	var counts []domain.CategoryCount
	if err := c.do(ctx, http.MethodGet, c.baseURL+"/products/categories", nil, "", &counts); err != nil {
		return nil, err
	}
	return counts, nil
}

// SubmissionItem is one {productId, quantity} pair of the order payload.
type SubmissionItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// OrderSubmission is the POST /orders payload. CustomerAddress is included
// only when non-empty after trimming.
type OrderSubmission struct {
	Items              []SubmissionItem     `json:"items"`
	CustomerName       string               `json:"customerName"`
	CustomerPhone      string               `json:"customerPhone"`
	SpecialInstruction string               `json:"specialInstruction"`
	PaymentMethod      domain.PaymentMethod `json:"paymentMethod"`
	CustomerAddress    string               `json:"customerAddress,omitempty"`
}

// CreateOrderResponse carries the confirmed order plus, for card payments,
// the secret that hands off to the external payment flow.
type CreateOrderResponse struct {
	Order        domain.Order `json:"order"`
	ClientSecret string       `json:"clientSecret,omitempty"`
}

// CreateOrder submits the order exactly once per idempotency key.
func (c *Client) CreateOrder(ctx context.Context, sub OrderSubmission, idempotencyKey string) (*CreateOrderResponse, error) {
	sub.CustomerAddress = strings.TrimSpace(sub.CustomerAddress)

	var resp CreateOrderResponse
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/orders", sub, idempotencyKey, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListOrders fetches the account's order history. With ids it fetches those
// orders instead, which is how guests track past placements.
func (c *Client) ListOrders(ctx context.Context, ids []string) ([]domain.Order, error) {
	endpoint := c.baseURL + "/orders"
	if len(ids) > 0 {
		endpoint += "?ids=" + url.QueryEscape(strings.Join(ids, ","))
	}

	var orders []domain.Order
	if err := c.do(ctx, http.MethodGet, endpoint, nil, "", &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateOrderStatus is the staff-only status mutation.
func (c *Client) UpdateOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) (*domain.Order, error) {
	endpoint := c.baseURL + "/orders/" + url.PathEscape(orderID) + "/status"
	body := map[string]string{"status": string(status)}

	var order domain.Order
	if err := c.do(ctx, http.MethodPatch, endpoint, body, "", &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body interface{}, idempotencyKey string, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errBody struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		return &ServerError{StatusCode: resp.StatusCode, Message: errBody.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
