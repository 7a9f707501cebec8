package tables

import (
	"time"

	"github.com/google/uuid"
)

// Cart is unique per user; the constraint on user_id is what makes get-or-create idempotent.
type Cart struct {
	tableName struct{}  `bun:"table:carts,alias:ct"`
	ID        uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()" json:"id"`
	UserID    uuid.UUID `bun:"user_id,type:uuid,notnull,unique" json:"user_id"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}

type CartItem struct {
	tableName struct{}  `bun:"table:cart_items,alias:ci"`
	ID        uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()" json:"id"`
	CartID    uuid.UUID `bun:"cart_id,type:uuid,notnull" json:"cart_id"`
	ProductID uuid.UUID `bun:"product_id,type:uuid,notnull" json:"product_id"`
	Quantity  int       `bun:"quantity,notnull" json:"quantity"`

	Product *Product `bun:"rel:belongs-to,join:product_id=id" json:"product,omitempty"`
}
