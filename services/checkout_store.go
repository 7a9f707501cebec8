package services

import (
	"context"
	"encoding/json"
	"fmt"
	"yeshivashop_server/database"
	"yeshivashop_server/lib"
	"yeshivashop_server/structs"
	"yeshivashop_server/structs/tables"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// CheckoutStore turns lines (or, when lines is empty, the caller's persisted
// cart) into an order in one atomic store call.
type CheckoutStore interface {
	PlaceOrder(ctx context.Context, userID uuid.UUID, lines []structs.OrderLineInput, clearCart bool) (*structs.CheckoutResult, error)
}

// NotificationStore reads what the supplier fan-out needs for a committed order.
type NotificationStore interface {
	OrderLinesForNotification(ctx context.Context, orderID uuid.UUID) ([]structs.NotificationLine, error)
	SuppliersByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*tables.Supplier, error)
}

type OrderStore struct {
	db bun.IDB
}

// NewOrderStore returns the bun-backed CheckoutStore and NotificationStore.
func NewOrderStore(db bun.IDB) *OrderStore {
	return &OrderStore{db: db}
}

const placeOrderQuery = `SELECT order_id, total FROM checkout_order(?, ?::jsonb, ?)`

func (s *OrderStore) PlaceOrder(ctx context.Context, userID uuid.UUID, lines []structs.OrderLineInput, clearCart bool) (*structs.CheckoutResult, error) {
	if lines == nil {
		lines = []structs.OrderLineInput{}
	}
	items, err := json.Marshal(lines)
	if err != nil {
		return nil, fmt.Errorf("encode checkout lines: %w", err)
	}

	result := new(structs.CheckoutResult)
	err = database.WithRetry(ctx, func() error {
		return s.db.NewRaw(placeOrderQuery, userID, string(items), clearCart).Scan(ctx, result)
	})
	if err != nil {
		return nil, lib.MapPgError(err)
	}

	return result, nil
}

const notificationLinesQuery = `
SELECT p.name AS product_name, p.supplier_id, oi.quantity, oi.unit_price
FROM order_items AS oi
JOIN products AS p ON p.id = oi.product_id
WHERE oi.order_id = ?
ORDER BY p.name`

func (s *OrderStore) OrderLinesForNotification(ctx context.Context, orderID uuid.UUID) ([]structs.NotificationLine, error) {
	return database.RawQuery[structs.NotificationLine](s.db, ctx, notificationLinesQuery, orderID)
}

func (s *OrderStore) SuppliersByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*tables.Supplier, error) {
	out := make(map[uuid.UUID]*tables.Supplier, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	suppliers, err := database.Query[tables.Supplier](s.db).WhereIn("s.id", ids).All(ctx)
	if err != nil {
		return nil, err
	}

	for i := range suppliers {
		out[suppliers[i].ID] = &suppliers[i]
	}
	return out, nil
}
