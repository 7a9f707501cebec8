package tables

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order rows are written only by the checkout_order function and never updated.
type Order struct {
	tableName struct{}        `bun:"table:orders,alias:o"`
	ID        uuid.UUID       `bun:"id,pk,type:uuid,default:gen_random_uuid()" json:"id"`
	UserID    uuid.UUID       `bun:"user_id,type:uuid,notnull" json:"user_id"`
	Total     decimal.Decimal `bun:"total,type:numeric(12,2),notnull" json:"total"`
	CreatedAt time.Time       `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`

	Items   []*OrderItem `bun:"rel:has-many,join:id=order_id" json:"items,omitempty"`
	Profile *Profile     `bun:"rel:belongs-to,join:user_id=id" json:"profile,omitempty"`
}

type OrderItem struct {
	tableName struct{}        `bun:"table:order_items,alias:oi"`
	ID        uuid.UUID       `bun:"id,pk,type:uuid,default:gen_random_uuid()" json:"id"`
	OrderID   uuid.UUID       `bun:"order_id,type:uuid,notnull" json:"order_id"`
	ProductID uuid.UUID       `bun:"product_id,type:uuid,notnull" json:"product_id"`
	Quantity  int             `bun:"quantity,notnull" json:"quantity"`
	UnitPrice decimal.Decimal `bun:"unit_price,type:numeric(10,2),notnull" json:"unit_price"` // price at checkout time

	Product *Product `bun:"rel:belongs-to,join:product_id=id" json:"product,omitempty"`
}
