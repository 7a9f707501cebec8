package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"yeshivashop_server/lib"
	"yeshivashop_server/structs"

	"github.com/google/uuid"
)

// CartAPI is the server side of the hybrid cart.
type CartAPI interface {
	GetCart(ctx context.Context) (*structs.CartView, error)
	AddItem(ctx context.Context, productID uuid.UUID, quantity int) (*structs.CartView, error)
	UpdateItem(ctx context.Context, productID uuid.UUID, delta int) (*structs.CartView, error)
	RemoveItem(ctx context.Context, productID uuid.UUID) (*structs.CartView, error)
	ClearCart(ctx context.Context) (*structs.CartView, error)
	Checkout(ctx context.Context, lines []structs.CheckoutLine) (*structs.CheckoutResponse, error)
}

// APIError is a non-2xx response. A 401 unwraps to lib.ErrAuthRequired.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	if e.Status == http.StatusUnauthorized {
		return lib.ErrAuthRequired
	}
	return nil
}

// APIClient talks to the cart and checkout endpoints with the session's bearer token.
type APIClient struct {
	baseURL    string
	httpClient *http.Client
	session    *SessionContext
}

func NewAPIClient(baseURL string, session *SessionContext, httpClient *http.Client) *APIClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &APIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		session:    session,
	}
}

// envelope covers both the wrapped handler responses ({"data": ...}) and
// error bodies, which carry either "error" or "message".
type envelope struct {
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

func (c *APIClient) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.session.AccessToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var env envelope
		if json.Unmarshal(raw, &env) == nil {
			if env.Error != "" {
				apiErr.Message = env.Error
			} else if env.Message != "" {
				apiErr.Message = env.Message
			}
		}
		return nil, apiErr
	}

	return raw, nil
}

func (c *APIClient) cartCall(ctx context.Context, method, path string, body any) (*structs.CartView, error) {
	if !c.session.SignedIn() {
		return nil, lib.ErrAuthRequired
	}

	raw, err := c.do(ctx, method, path, body)
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode cart response: %w", err)
	}
	var view structs.CartView
	if err := json.Unmarshal(env.Data, &view); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	return &view, nil
}

func (c *APIClient) GetCart(ctx context.Context) (*structs.CartView, error) {
	return c.cartCall(ctx, http.MethodGet, "/api/cart/", nil)
}

func (c *APIClient) AddItem(ctx context.Context, productID uuid.UUID, quantity int) (*structs.CartView, error) {
	return c.cartCall(ctx, http.MethodPost, "/api/cart/items", structs.AddCartItemRequest{ProductID: productID, Quantity: quantity})
}

func (c *APIClient) UpdateItem(ctx context.Context, productID uuid.UUID, delta int) (*structs.CartView, error) {
	return c.cartCall(ctx, http.MethodPatch, "/api/cart/items/"+url.PathEscape(productID.String()), structs.UpdateCartItemRequest{Delta: delta})
}

func (c *APIClient) RemoveItem(ctx context.Context, productID uuid.UUID) (*structs.CartView, error) {
	return c.cartCall(ctx, http.MethodDelete, "/api/cart/items/"+url.PathEscape(productID.String()), nil)
}

func (c *APIClient) ClearCart(ctx context.Context) (*structs.CartView, error) {
	return c.cartCall(ctx, http.MethodDelete, "/api/cart/", nil)
}

// Checkout places the order. The checkout response is not enveloped.
func (c *APIClient) Checkout(ctx context.Context, lines []structs.CheckoutLine) (*structs.CheckoutResponse, error) {
	if !c.session.SignedIn() {
		return nil, lib.ErrAuthRequired
	}

	raw, err := c.do(ctx, http.MethodPost, "/api/orders/checkout", structs.CheckoutRequest{Cart: lines})
	if err != nil {
		return nil, err
	}

	var out structs.CheckoutResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode checkout response: %w", err)
	}
	return &out, nil
}
