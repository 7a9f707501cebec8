package client

import (
	"encoding/json"
	"fmt"
	"slices"
	"sync"
)

const localCartKey = "cart"

// Storage is a string key/value store such as browser local storage.
type Storage interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Remove(key string) error
}

// MemoryStorage is an in-process Storage.
type MemoryStorage struct {
	mu   sync.Mutex
	data map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: make(map[string]string)}
}

func (m *MemoryStorage) Get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok
}

func (m *MemoryStorage) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MemoryStorage) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

type LocalCartItem struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	ImageURL *string `json:"image_url"`
}

// LocalCart is a device-local cart kept when no server cart is available. It
// is a convenience only and never feeds checkout.
type LocalCart struct {
	storage Storage
}

func NewLocalCart(storage Storage) *LocalCart {
	return &LocalCart{storage: storage}
}

// Items returns the stored lines. Unreadable data is treated as an empty cart
// and reported alongside it.
func (lc *LocalCart) Items() ([]LocalCartItem, error) {
	raw, ok := lc.storage.Get(localCartKey)
	if !ok || raw == "" {
		return []LocalCartItem{}, nil
	}

	var items []LocalCartItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return []LocalCartItem{}, fmt.Errorf("local cart is corrupt: %w", err)
	}
	if items == nil {
		items = []LocalCartItem{}
	}
	return items, nil
}

func (lc *LocalCart) save(items []LocalCartItem) error {
	if len(items) == 0 {
		return lc.storage.Remove(localCartKey)
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return lc.storage.Set(localCartKey, string(raw))
}

// Add merges by id, summing quantities.
func (lc *LocalCart) Add(item LocalCartItem) error {
	if item.Quantity < 1 {
		item.Quantity = 1
	}

	items, _ := lc.Items()
	for i := range items {
		if items[i].ID == item.ID {
			items[i].Quantity += item.Quantity
			return lc.save(items)
		}
	}
	return lc.save(append(items, item))
}

func (lc *LocalCart) Remove(id string) error {
	items, _ := lc.Items()
	return lc.save(slices.DeleteFunc(items, func(i LocalCartItem) bool { return i.ID == id }))
}

func (lc *LocalCart) Clear() error {
	return lc.storage.Remove(localCartKey)
}

func (lc *LocalCart) Count() int {
	items, _ := lc.Items()
	n := 0
	for _, i := range items {
		n += i.Quantity
	}
	return n
}

func (lc *LocalCart) Total() float64 {
	items, _ := lc.Items()
	total := 0.0
	for _, i := range items {
		total += i.Price * float64(i.Quantity)
	}
	return total
}
