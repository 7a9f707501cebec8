package tables

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
	RoleGabai    Role = "gabai"
	RoleSupplier Role = "supplier"
)

// Profile is keyed by the identity provider's user id and is the source of truth for roles.
// InstitutionAddress and ResponsiblePhone are stored encrypted.
type Profile struct {
	tableName          struct{}  `bun:"table:profiles,alias:pr"`
	ID                 uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	Email              string    `bun:"email" json:"email"`
	Role               Role      `bun:"role,notnull,default:'customer'" json:"role"`
	FullName           string    `bun:"full_name" json:"full_name"`
	InstitutionName    string    `bun:"institution_name" json:"institution_name"`
	InstitutionAddress string    `bun:"institution_address" json:"institution_address"`
	ResponsibleName    string    `bun:"responsible_name" json:"responsible_name"`
	ResponsiblePhone   string    `bun:"responsible_phone" json:"responsible_phone"`
	CreatedAt          time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt          time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}

func (p *Profile) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}
