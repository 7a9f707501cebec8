package structs

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartLine is a cart item joined with the product fields the storefront shows.
type CartLine struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	ImageURL  *string         `json:"image_url"`
}

type CartView struct {
	CartID uuid.UUID       `json:"cart_id"`
	Items  []CartLine      `json:"items"`
	Count  int             `json:"count"`
	Total  decimal.Decimal `json:"total"`
}

// NewCartView derives count and total from the lines.
func NewCartView(cartID uuid.UUID, lines []CartLine) *CartView {
	view := &CartView{CartID: cartID, Items: lines, Total: decimal.Zero}
	if view.Items == nil {
		view.Items = []CartLine{}
	}
	for _, l := range view.Items {
		view.Count += l.Quantity
		view.Total = view.Total.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return view
}

type AddCartItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"omitempty,gte=1,lte=999"`
}

type UpdateCartItemRequest struct {
	Delta int `json:"delta" validate:"required,ne=0"`
}
