package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync"
	"testing"
	"yeshivashop_server/lib"
	"yeshivashop_server/structs"

	"github.com/MonkyMars/gecho"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errOffline = errors.New("network down")

// fakeCartAPI keeps a server cart in memory; fail makes the next call error.
type fakeCartAPI struct {
	mu       sync.Mutex
	lines    []structs.CartLine
	products map[uuid.UUID]structs.CartLine
	fail     error
	calls    []string
	checkout []structs.CheckoutLine
}

func newFakeCartAPI(products ...structs.CartLine) *fakeCartAPI {
	f := &fakeCartAPI{products: map[uuid.UUID]structs.CartLine{}}
	for _, p := range products {
		f.products[p.ProductID] = p
	}
	return f
}

func (f *fakeCartAPI) result(call string) (*structs.CartView, error) {
	f.calls = append(f.calls, call)
	if f.fail != nil {
		err := f.fail
		f.fail = nil
		return nil, err
	}
	return structs.NewCartView(uuid.Nil, slices.Clone(f.lines)), nil
}

func (f *fakeCartAPI) GetCart(context.Context) (*structs.CartView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.result("get")
}

func (f *fakeCartAPI) AddItem(_ context.Context, productID uuid.UUID, quantity int) (*structs.CartView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail == nil {
		found := false
		for i := range f.lines {
			if f.lines[i].ProductID == productID {
				f.lines[i].Quantity += quantity
				found = true
			}
		}
		if !found {
			line := f.products[productID]
			line.Quantity = quantity
			f.lines = append(f.lines, line)
		}
	}
	return f.result("add")
}

func (f *fakeCartAPI) UpdateItem(_ context.Context, productID uuid.UUID, delta int) (*structs.CartView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail == nil {
		for i := range f.lines {
			if f.lines[i].ProductID == productID {
				f.lines[i].Quantity += delta
			}
		}
		f.lines = slices.DeleteFunc(f.lines, func(l structs.CartLine) bool { return l.Quantity < 1 })
	}
	return f.result("update")
}

func (f *fakeCartAPI) RemoveItem(_ context.Context, productID uuid.UUID) (*structs.CartView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail == nil {
		f.lines = slices.DeleteFunc(f.lines, func(l structs.CartLine) bool { return l.ProductID == productID })
	}
	return f.result("remove")
}

func (f *fakeCartAPI) ClearCart(context.Context) (*structs.CartView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail == nil {
		f.lines = nil
	}
	return f.result("clear")
}

func (f *fakeCartAPI) Checkout(_ context.Context, lines []structs.CheckoutLine) (*structs.CheckoutResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "checkout")
	if f.fail != nil {
		err := f.fail
		f.fail = nil
		return nil, err
	}
	f.checkout = lines
	f.lines = nil
	return &structs.CheckoutResponse{Ok: true, OrderID: uuid.NewString(), Total: 60}, nil
}

func line(name, price string) structs.CartLine {
	return structs.CartLine{ProductID: uuid.New(), Name: name, Price: decimal.RequireFromString(price)}
}

func signedIn(sc *SessionContext) *structs.Session {
	s := &structs.Session{UserID: uuid.New(), AccessToken: "token-1"}
	sc.Apply(structs.AuthEventSignedIn, s)
	return s
}

func TestPendingRollsBack(t *testing.T) {
	p := NewPending([]int{1, 2}, func(s []int) []int { return slices.Clone(s) })

	err := p.Do(context.Background(),
		func(s []int) []int { return append(s, 3) },
		func(context.Context) (*[]int, error) { return nil, errOffline },
	)
	assert.ErrorIs(t, err, errOffline)
	assert.Equal(t, []int{1, 2}, p.State())

	err = p.Do(context.Background(),
		func(s []int) []int { return append(s, 3) },
		func(context.Context) (*[]int, error) { return nil, nil },
	)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, p.State())

	err = p.Do(context.Background(),
		func(s []int) []int { return append(s, 4) },
		func(context.Context) (*[]int, error) { return &[]int{9}, nil },
	)
	require.NoError(t, err)
	assert.Equal(t, []int{9}, p.State())
}

func TestPendingShowsOptimisticState(t *testing.T) {
	p := NewPending(0, func(n int) int { return n })

	var during int
	err := p.Do(context.Background(),
		func(n int) int { return n + 1 },
		func(context.Context) (*int, error) {
			during = p.State()
			return nil, errOffline
		},
	)
	assert.Error(t, err)
	assert.Equal(t, 1, during)
	assert.Equal(t, 0, p.State())
}

func TestPendingSetWinsOverInFlightDo(t *testing.T) {
	for _, remoteErr := range []error{errOffline, nil} {
		p := NewPending([]int{1, 2}, func(s []int) []int { return slices.Clone(s) })

		err := p.Do(context.Background(),
			func(s []int) []int { return append(s, 3) },
			func(context.Context) (*[]int, error) {
				p.Set([]int{})
				if remoteErr != nil {
					return nil, remoteErr
				}
				return &[]int{1, 2, 3}, nil
			},
		)
		assert.ErrorIs(t, err, remoteErr)
		assert.Empty(t, p.State())
	}
}

// blockingCartAPI holds AddItem until release is closed.
type blockingCartAPI struct {
	*fakeCartAPI
	started chan struct{}
	release chan struct{}
}

func (b *blockingCartAPI) AddItem(ctx context.Context, productID uuid.UUID, quantity int) (*structs.CartView, error) {
	close(b.started)
	<-b.release
	return b.fakeCartAPI.AddItem(ctx, productID, quantity)
}

func TestHybridCartSignOutDuringPendingAdd(t *testing.T) {
	for _, name := range []string{"remote fails", "remote succeeds"} {
		t.Run(name, func(t *testing.T) {
			siddur := line("Siddur", "30")
			api := &blockingCartAPI{
				fakeCartAPI: newFakeCartAPI(siddur),
				started:     make(chan struct{}),
				release:     make(chan struct{}),
			}
			api.lines = []structs.CartLine{{ProductID: siddur.ProductID, Name: siddur.Name, Price: siddur.Price, Quantity: 2}}

			session := NewSessionContext()
			cart := NewHybridCart(gecho.NewDefaultLogger(), session, api)
			defer cart.Close()
			signedIn(session)
			require.Equal(t, 2, cart.Count())

			if name == "remote fails" {
				api.fail = errOffline
			}

			done := make(chan error, 1)
			go func() { done <- cart.Add(context.Background(), siddur, 1) }()

			<-api.started
			assert.Equal(t, 3, cart.Count())
			session.Apply(structs.AuthEventSignedOut, nil)
			assert.Equal(t, 0, cart.Count())

			close(api.release)
			err := <-done
			if name == "remote fails" {
				assert.ErrorIs(t, err, errOffline)
			} else {
				assert.NoError(t, err)
			}
			assert.False(t, session.SignedIn())
			assert.Equal(t, 0, cart.Count())
			assert.Empty(t, cart.Lines())
		})
	}
}

func TestSessionContext(t *testing.T) {
	sc := NewSessionContext()
	assert.False(t, sc.SignedIn())
	assert.Empty(t, sc.AccessToken())

	var events []string
	unsubscribe := sc.Subscribe(func(event string, _ *structs.Session) {
		events = append(events, event)
	})

	s := signedIn(sc)
	assert.Equal(t, s, sc.Session())
	assert.Equal(t, "token-1", sc.AccessToken())

	sc.Apply("USER_UPDATED", nil)
	assert.True(t, sc.SignedIn())

	sc.Apply(structs.AuthEventSignedOut, nil)
	assert.False(t, sc.SignedIn())

	unsubscribe()
	sc.Apply(structs.AuthEventSignedIn, s)

	assert.Equal(t, []string{structs.AuthEventSignedIn, "USER_UPDATED", structs.AuthEventSignedOut}, events)
}

func TestHybridCartGuest(t *testing.T) {
	api := newFakeCartAPI()
	cart := NewHybridCart(gecho.NewDefaultLogger(), NewSessionContext(), api)
	defer cart.Close()
	ctx := context.Background()

	assert.ErrorIs(t, cart.Add(ctx, line("Siddur", "30"), 1), lib.ErrAuthRequired)
	assert.NoError(t, cart.Increment(ctx, uuid.New()))
	assert.NoError(t, cart.Remove(ctx, uuid.New()))
	assert.NoError(t, cart.Clear(ctx))
	assert.NoError(t, cart.Reload(ctx))

	_, err := cart.Checkout(ctx)
	assert.ErrorIs(t, err, lib.ErrAuthRequired)

	assert.Equal(t, 0, cart.Count())
	assert.Empty(t, api.calls)
}

func TestHybridCartSignedIn(t *testing.T) {
	siddur := line("Siddur", "30")
	chumash := line("Chumash", "45")
	api := newFakeCartAPI(siddur, chumash)
	session := NewSessionContext()
	cart := NewHybridCart(gecho.NewDefaultLogger(), session, api)
	defer cart.Close()
	ctx := context.Background()

	signedIn(session)
	assert.Equal(t, []string{"get"}, api.calls)

	require.NoError(t, cart.Add(ctx, siddur, 1))
	require.NoError(t, cart.Add(ctx, siddur, 1))
	require.NoError(t, cart.Add(ctx, chumash, 1))
	assert.Equal(t, 3, cart.Count())
	assert.Equal(t, "105", cart.Total().String())

	require.NoError(t, cart.Decrement(ctx, chumash.ProductID))
	assert.Len(t, cart.Lines(), 1)

	t.Run("failed mutation rolls back", func(t *testing.T) {
		api.fail = errOffline
		err := cart.Increment(ctx, siddur.ProductID)
		assert.ErrorIs(t, err, errOffline)
		assert.Equal(t, 2, cart.Count())

		api.fail = errOffline
		assert.Error(t, cart.Clear(ctx))
		assert.Equal(t, 2, cart.Count())
	})

	t.Run("failed checkout keeps the cart", func(t *testing.T) {
		api.fail = errOffline
		_, err := cart.Checkout(ctx)
		assert.ErrorIs(t, err, errOffline)
		assert.Equal(t, 2, cart.Count())
	})

	t.Run("checkout sends lines and empties the view", func(t *testing.T) {
		res, err := cart.Checkout(ctx)
		require.NoError(t, err)
		assert.True(t, res.Ok)
		assert.Equal(t, []structs.CheckoutLine{{ID: siddur.ProductID.String(), Quantity: 2}}, api.checkout)
		assert.Equal(t, 0, cart.Count())

		_, err = cart.Checkout(ctx)
		assert.ErrorIs(t, err, lib.ErrEmptyCart)
	})

	t.Run("sign out empties the view", func(t *testing.T) {
		require.NoError(t, cart.Add(ctx, chumash, 1))
		session.Apply(structs.AuthEventSignedOut, nil)
		assert.Equal(t, 0, cart.Count())
	})
}

func TestLocalCart(t *testing.T) {
	storage := NewMemoryStorage()
	lc := NewLocalCart(storage)

	items, err := lc.Items()
	require.NoError(t, err)
	assert.Empty(t, items)

	require.NoError(t, lc.Add(LocalCartItem{ID: "a", Name: "Siddur", Price: 30, Quantity: 1}))
	require.NoError(t, lc.Add(LocalCartItem{ID: "a", Name: "Siddur", Price: 30}))
	require.NoError(t, lc.Add(LocalCartItem{ID: "b", Name: "Chumash", Price: 45, Quantity: 1}))
	assert.Equal(t, 3, lc.Count())
	assert.InDelta(t, 105.0, lc.Total(), 0.001)

	raw, ok := storage.Get("cart")
	require.True(t, ok)
	var stored []map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &stored))
	assert.Equal(t, "a", stored[0]["id"])
	assert.Contains(t, stored[0], "image_url")

	require.NoError(t, lc.Remove("a"))
	assert.Equal(t, 1, lc.Count())

	require.NoError(t, lc.Clear())
	_, ok = storage.Get("cart")
	assert.False(t, ok)

	require.NoError(t, storage.Set("cart", "{not json"))
	items, err = lc.Items()
	assert.Error(t, err)
	assert.Empty(t, items)
	assert.Equal(t, 0, lc.Count())
}

func TestAPIClient(t *testing.T) {
	productID := uuid.New()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer token-1" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
			return
		}

		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/cart/items":
			var body structs.AddCartItemRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			view := structs.NewCartView(uuid.New(), []structs.CartLine{{
				ProductID: body.ProductID, Name: "Siddur", Price: decimal.NewFromInt(30), Quantity: body.Quantity,
			}})
			_ = json.NewEncoder(w).Encode(map[string]any{"message": "ok", "data": view})

		case r.Method == http.MethodPost && r.URL.Path == "/api/orders/checkout":
			var body structs.CheckoutRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			if len(body.Cart) == 0 {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":"cart is empty"}`))
				return
			}
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"ok":true,"orderId":"3f2504e0-4f89-11d3-9a0c-0305e82c3301","total":60}`))

		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"Not Found"}`))
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	session := NewSessionContext()
	api := NewAPIClient(srv.URL+"/", session, srv.Client())

	_, err := api.AddItem(ctx, productID, 2)
	assert.ErrorIs(t, err, lib.ErrAuthRequired)

	signedIn(session)

	view, err := api.AddItem(ctx, productID, 2)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, productID, view.Items[0].ProductID)
	assert.Equal(t, 2, view.Count)

	res, err := api.Checkout(ctx, []structs.CheckoutLine{{ID: productID.String(), Quantity: 2}})
	require.NoError(t, err)
	assert.Equal(t, &structs.CheckoutResponse{Ok: true, OrderID: "3f2504e0-4f89-11d3-9a0c-0305e82c3301", Total: 60}, res)

	_, err = api.Checkout(ctx, nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "cart is empty", apiErr.Message)

	_, err = api.GetCart(ctx)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "Not Found", apiErr.Message)

	session.Apply(structs.AuthEventTokenRefreshed, &structs.Session{UserID: uuid.New(), AccessToken: "stale"})
	_, err = api.ClearCart(ctx)
	assert.ErrorIs(t, err, lib.ErrAuthRequired)
}
