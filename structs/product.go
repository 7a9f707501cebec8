package structs

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ProductRequest struct {
	Name       string          `json:"name" validate:"required,min=1,max=200"`
	Price      decimal.Decimal `json:"price"`
	CategoryID *uuid.UUID      `json:"category_id"`
	SupplierID uuid.UUID       `json:"supplier_id" validate:"required"`
	ImageURL   *string         `json:"image_url" validate:"omitempty,url"`
}

type SupplierRequest struct {
	Name  string  `json:"name" validate:"required,min=1,max=200"`
	Email *string `json:"email" validate:"omitempty,email"`
}

type CategoryRequest struct {
	Name     string     `json:"name" validate:"required,min=1,max=120"`
	ParentID *uuid.UUID `json:"parent_id"`
	Slug     *string    `json:"slug" validate:"omitempty,max=120"`
}

// CatalogFilter narrows the public product listing.
type CatalogFilter struct {
	Category   string     `json:"category,omitempty"` // slug or id
	SupplierID *uuid.UUID `json:"supplier_id,omitempty"`
	Search     string     `json:"search,omitempty"`
}

type CategoryNode struct {
	ID       uuid.UUID       `json:"id"`
	Name     string          `json:"name"`
	Slug     *string         `json:"slug"`
	ParentID *uuid.UUID      `json:"parent_id"`
	Children []*CategoryNode `json:"children"`
}

type AdminSummary struct {
	Products   int `json:"products"`
	Suppliers  int `json:"suppliers"`
	Categories int `json:"categories"`
	Orders     int `json:"orders"`
	Users      int `json:"users"`
}

// CategoryListing is the public category payload: the flat rows plus the tree built from them.
type CategoryListing struct {
	Categories []CategoryFlat  `json:"categories"`
	Tree       []*CategoryNode `json:"tree"`
}

type CategoryFlat struct {
	ID       uuid.UUID  `json:"id"`
	Name     string     `json:"name"`
	Slug     *string    `json:"slug"`
	ParentID *uuid.UUID `json:"parent_id"`
}
