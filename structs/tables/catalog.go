package tables

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Supplier struct {
	tableName struct{}  `bun:"table:suppliers,alias:s"`
	ID        uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()" json:"id"`
	Name      string    `bun:"name,notnull" json:"name"`
	Email     *string   `bun:"email" json:"email"` // nil means no notification
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

// HasEmail reports whether notifications can be delivered to the supplier.
func (s *Supplier) HasEmail() bool {
	return s != nil && s.Email != nil && *s.Email != ""
}

type Category struct {
	tableName struct{}   `bun:"table:categories,alias:c"`
	ID        uuid.UUID  `bun:"id,pk,type:uuid,default:gen_random_uuid()" json:"id"`
	Name      string     `bun:"name,notnull" json:"name"`
	ParentID  *uuid.UUID `bun:"parent_id,type:uuid" json:"parent_id"`
	Slug      *string    `bun:"slug" json:"slug"`
	CreatedAt time.Time  `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

type Product struct {
	tableName  struct{}        `bun:"table:products,alias:p"`
	ID         uuid.UUID       `bun:"id,pk,type:uuid,default:gen_random_uuid()" json:"id"`
	Name       string          `bun:"name,notnull" json:"name"`
	Price      decimal.Decimal `bun:"price,type:numeric(10,2),notnull" json:"price"`
	CategoryID *uuid.UUID      `bun:"category_id,type:uuid" json:"category_id"`
	SupplierID uuid.UUID       `bun:"supplier_id,type:uuid,notnull" json:"supplier_id"`
	ImageURL   *string         `bun:"image_url" json:"image_url"`
	CreatedAt  time.Time       `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt  time.Time       `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`

	Category *Category `bun:"rel:belongs-to,join:category_id=id" json:"category,omitempty"`
	Supplier *Supplier `bun:"rel:belongs-to,join:supplier_id=id" json:"supplier,omitempty"`
}
