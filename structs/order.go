package structs

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CheckoutLine is one {id, quantity} pair posted by the storefront.
type CheckoutLine struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

type CheckoutRequest struct {
	Cart []CheckoutLine `json:"cart"`
}

// OrderLineInput is a validated checkout line passed to the store.
type OrderLineInput struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

type CheckoutResult struct {
	OrderID uuid.UUID       `bun:"order_id"`
	Total   decimal.Decimal `bun:"total"`
}

type CheckoutResponse struct {
	Ok      bool    `json:"ok"`
	OrderID string  `json:"orderId"`
	Total   float64 `json:"total"`
}

// NotificationLine is an order item joined to its product's supplier.
type NotificationLine struct {
	ProductName string          `bun:"product_name"`
	SupplierID  *uuid.UUID      `bun:"supplier_id"`
	Quantity    int             `bun:"quantity"`
	UnitPrice   decimal.Decimal `bun:"unit_price"`
}

type NotificationReport struct {
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}
