package services

import (
	"context"
	"errors"
	"io"
	"path"
	"sort"
	"strconv"
	"sync"
	"time"
	"yeshivashop_server/lib"
	"yeshivashop_server/structs"
	"yeshivashop_server/structs/tables"

	"github.com/MonkyMars/gecho"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func testLogger() *gecho.Logger {
	return gecho.NewDefaultLogger()
}

// memoryCache is an in-process Cache with TTLs driven by a settable clock.
type memoryCache struct {
	mu      sync.Mutex
	values  map[string]string
	expires map[string]time.Time
	now     func() time.Time
	failGet error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{
		values:  map[string]string{},
		expires: map[string]time.Time{},
		now:     time.Now,
	}
}

func (c *memoryCache) expired(key string) bool {
	exp, ok := c.expires[key]
	return ok && !c.now().Before(exp)
}

func (c *memoryCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failGet != nil {
		return "", c.failGet
	}
	if c.expired(key) {
		delete(c.values, key)
		delete(c.expires, key)
	}
	return c.values[key], nil
}

func (c *memoryCache) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch v := value.(type) {
	case string:
		c.values[key] = v
	case []byte:
		c.values[key] = string(v)
	case int:
		c.values[key] = strconv.Itoa(v)
	default:
		return errors.New("memoryCache: unsupported value type")
	}
	if ttl > 0 {
		c.expires[key] = c.now().Add(ttl)
	} else {
		delete(c.expires, key)
	}
	return nil
}

func (c *memoryCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.values, k)
		delete(c.expires, k)
	}
	return nil
}

func (c *memoryCache) DeletePattern(_ context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.values {
		if ok, _ := path.Match(pattern, k); ok {
			delete(c.values, k)
			delete(c.expires, k)
		}
	}
	return nil
}

func (c *memoryCache) Increment(ctx context.Context, key string, ttl time.Duration) (int, error) {
	val, _ := c.Get(ctx, key)
	n, _ := strconv.Atoi(val)
	n++
	c.mu.Lock()
	c.values[key] = strconv.Itoa(n)
	if n == 1 {
		c.expires[key] = c.now().Add(ttl)
	}
	c.mu.Unlock()
	return n, nil
}

func (c *memoryCache) TTL(_ context.Context, key string) (time.Duration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	exp, ok := c.expires[key]
	if !ok {
		return 0, nil
	}
	return exp.Sub(c.now()), nil
}

// memoryCartStore mimics the unique constraints of carts and cart_items.
type memoryCartStore struct {
	mu       sync.Mutex
	carts    map[uuid.UUID]uuid.UUID // user -> cart
	items    map[uuid.UUID]map[uuid.UUID]int
	products map[uuid.UUID]tables.Product
	failList error
}

func newMemoryCartStore(products ...tables.Product) *memoryCartStore {
	s := &memoryCartStore{
		carts:    map[uuid.UUID]uuid.UUID{},
		items:    map[uuid.UUID]map[uuid.UUID]int{},
		products: map[uuid.UUID]tables.Product{},
	}
	for _, p := range products {
		s.products[p.ID] = p
	}
	return s
}

func (s *memoryCartStore) UpsertCart(_ context.Context, userID uuid.UUID) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.carts[userID]; ok {
		return id, nil
	}
	id := uuid.New()
	s.carts[userID] = id
	s.items[id] = map[uuid.UUID]int{}
	return id, nil
}

func (s *memoryCartStore) FindCart(_ context.Context, userID uuid.UUID) (uuid.UUID, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.carts[userID]
	return id, ok, nil
}

func (s *memoryCartStore) UpsertItem(_ context.Context, cartID, productID uuid.UUID, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[productID]; !ok {
		return lib.ErrProductNotFound
	}
	s.items[cartID][productID] += quantity
	return nil
}

func (s *memoryCartStore) AdjustItem(_ context.Context, cartID, productID uuid.UUID, delta int) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[productID]; !ok {
		return 0, false, lib.ErrProductNotFound
	}
	qty, removed := applyDelta(s.items[cartID][productID], delta)
	if removed {
		delete(s.items[cartID], productID)
	} else {
		s.items[cartID][productID] = qty
	}
	return qty, removed, nil
}

func (s *memoryCartStore) DeleteItem(_ context.Context, cartID, productID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items[cartID], productID)
	return nil
}

func (s *memoryCartStore) DeleteAll(_ context.Context, cartID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[cartID] = map[uuid.UUID]int{}
	return nil
}

func (s *memoryCartStore) ListItems(_ context.Context, cartID uuid.UUID) ([]structs.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failList != nil {
		return nil, s.failList
	}
	lines := []structs.CartLine{}
	for productID, qty := range s.items[cartID] {
		p := s.products[productID]
		lines = append(lines, structs.CartLine{ProductID: productID, Name: p.Name, Price: p.Price, Quantity: qty})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].Name < lines[j].Name })
	return lines, nil
}

func product(name string, price int64, supplierID uuid.UUID) tables.Product {
	return tables.Product{ID: uuid.New(), Name: name, Price: decimal.NewFromInt(price), SupplierID: supplierID}
}

// fakeCheckoutStore records calls and returns a canned result or error.
type fakeCheckoutStore struct {
	calls     int
	lines     []structs.OrderLineInput
	clearCart bool
	result    *structs.CheckoutResult
	err       error
}

func (s *fakeCheckoutStore) PlaceOrder(_ context.Context, _ uuid.UUID, lines []structs.OrderLineInput, clearCart bool) (*structs.CheckoutResult, error) {
	s.calls++
	s.lines = lines
	s.clearCart = clearCart
	return s.result, s.err
}

type fakeNotificationStore struct {
	lines     []structs.NotificationLine
	suppliers map[uuid.UUID]*tables.Supplier
}

func (s *fakeNotificationStore) OrderLinesForNotification(context.Context, uuid.UUID) ([]structs.NotificationLine, error) {
	return s.lines, nil
}

func (s *fakeNotificationStore) SuppliersByID(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*tables.Supplier, error) {
	out := map[uuid.UUID]*tables.Supplier{}
	for _, id := range ids {
		if sup, ok := s.suppliers[id]; ok {
			out[id] = sup
		}
	}
	return out, nil
}

type sentEmail struct {
	To      []string
	Subject string
	HTML    string
}

// fakeSender fails for any recipient listed in failFor.
type fakeSender struct {
	mu       sync.Mutex
	disabled bool
	failFor  map[string]bool
	sent     []sentEmail
}

func (f *fakeSender) Enabled() bool { return !f.disabled }

func (f *fakeSender) Send(_ context.Context, to []string, subject, html string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[to[0]] {
		return errors.New("provider rejected message")
	}
	f.sent = append(f.sent, sentEmail{To: to, Subject: subject, HTML: html})
	return nil
}

type fakeObjectStore struct {
	keys []string
	err  error
}

func (f *fakeObjectStore) Put(_ context.Context, key string, body io.Reader, _ int64, _ string) error {
	if f.err != nil {
		return f.err
	}
	if _, err := io.ReadAll(body); err != nil {
		return err
	}
	f.keys = append(f.keys, key)
	return nil
}

func (f *fakeObjectStore) Delete(context.Context, string) error { return nil }

func (f *fakeObjectStore) URL(key string) string { return "https://cdn.example/" + key }

func strPtr(s string) *string { return &s }
