package services

import (
	"context"
	"database/sql"
	"errors"
	"time"
	"yeshivashop_server/database"
	"yeshivashop_server/lib"
	"yeshivashop_server/structs"
	"yeshivashop_server/structs/tables"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// CartStore persists carts. Every operation is scoped to a cart id that the
// service resolved from the session user id.
type CartStore interface {
	UpsertCart(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)
	FindCart(ctx context.Context, userID uuid.UUID) (uuid.UUID, bool, error)
	UpsertItem(ctx context.Context, cartID, productID uuid.UUID, quantity int) error
	AdjustItem(ctx context.Context, cartID, productID uuid.UUID, delta int) (int, bool, error)
	DeleteItem(ctx context.Context, cartID, productID uuid.UUID) error
	DeleteAll(ctx context.Context, cartID uuid.UUID) error
	ListItems(ctx context.Context, cartID uuid.UUID) ([]structs.CartLine, error)
}

// applyDelta returns the quantity after adding delta to current, and whether
// the line should be removed because it would drop below one.
func applyDelta(current, delta int) (int, bool) {
	next := current + delta
	if next < 1 {
		return 0, true
	}
	return next, false
}

type bunCartStore struct {
	db bun.IDB
}

func NewCartStore(db bun.IDB) CartStore {
	return &bunCartStore{db: db}
}

// UpsertCart relies on the unique user_id constraint, so concurrent callers
// always converge on one row.
func (s *bunCartStore) UpsertCart(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	cart := &tables.Cart{UserID: userID, UpdatedAt: time.Now()}

	err := database.WithRetry(ctx, func() error {
		_, err := s.db.NewInsert().
			Model(cart).
			Column("user_id", "updated_at").
			On("CONFLICT (user_id) DO UPDATE").
			Set("updated_at = EXCLUDED.updated_at").
			Returning("id").
			Exec(ctx)
		return err
	})
	if err != nil {
		return uuid.Nil, lib.MapPgError(err)
	}

	return cart.ID, nil
}

func (s *bunCartStore) FindCart(ctx context.Context, userID uuid.UUID) (uuid.UUID, bool, error) {
	cart, err := database.Query[tables.Cart](s.db).Where("ct.user_id", userID).First(ctx)
	if err != nil {
		return uuid.Nil, false, err
	}
	if cart == nil {
		return uuid.Nil, false, nil
	}
	return cart.ID, true, nil
}

// UpsertItem adds quantity to an existing line or inserts it.
func (s *bunCartStore) UpsertItem(ctx context.Context, cartID, productID uuid.UUID, quantity int) error {
	item := &tables.CartItem{CartID: cartID, ProductID: productID, Quantity: quantity}

	err := database.WithRetry(ctx, func() error {
		_, err := s.db.NewInsert().
			Model(item).
			Column("cart_id", "product_id", "quantity").
			On("CONFLICT (cart_id, product_id) DO UPDATE").
			Set("quantity = ci.quantity + EXCLUDED.quantity").
			Exec(ctx)
		return err
	})
	if err != nil {
		if lib.SQLState(err) == "23503" {
			return lib.ErrProductNotFound
		}
		return lib.MapPgError(err)
	}

	return nil
}

// AdjustItem locks the line, applies delta and deletes the line when it
// drops below one. A missing line with a positive delta is inserted.
func (s *bunCartStore) AdjustItem(ctx context.Context, cartID, productID uuid.UUID, delta int) (int, bool, error) {
	var (
		quantity int
		removed  bool
	)

	err := database.WithRetry(ctx, func() error {
		return database.Transaction(ctx, s.db, nil, func(ctx context.Context, tx bun.Tx) error {
			item := new(tables.CartItem)
			err := tx.NewSelect().
				Model(item).
				Where("ci.cart_id = ?", cartID).
				Where("ci.product_id = ?", productID).
				For("UPDATE").
				Scan(ctx)

			current := 0
			switch {
			case errors.Is(err, sql.ErrNoRows):
			case err != nil:
				return err
			default:
				current = item.Quantity
			}

			quantity, removed = applyDelta(current, delta)

			switch {
			case removed && current == 0:
				return nil
			case removed:
				_, err = tx.NewDelete().Model((*tables.CartItem)(nil)).Where("id = ?", item.ID).Exec(ctx)
			case current == 0:
				// a concurrent insert of the same line adds to it
				err = tx.NewInsert().
					Model(&tables.CartItem{CartID: cartID, ProductID: productID, Quantity: quantity}).
					Column("cart_id", "product_id", "quantity").
					On("CONFLICT (cart_id, product_id) DO UPDATE").
					Set("quantity = ci.quantity + EXCLUDED.quantity").
					Returning("quantity").
					Scan(ctx, &quantity)
			default:
				_, err = tx.NewUpdate().
					Model((*tables.CartItem)(nil)).
					Set("quantity = ?", quantity).
					Where("id = ?", item.ID).
					Exec(ctx)
			}
			return err
		})
	})
	if err != nil {
		if lib.SQLState(err) == "23503" {
			return 0, false, lib.ErrProductNotFound
		}
		return 0, false, lib.MapPgError(err)
	}

	return quantity, removed, nil
}

func (s *bunCartStore) DeleteItem(ctx context.Context, cartID, productID uuid.UUID) error {
	_, err := s.db.NewDelete().
		Model((*tables.CartItem)(nil)).
		Where("cart_id = ?", cartID).
		Where("product_id = ?", productID).
		Exec(ctx)
	return err
}

func (s *bunCartStore) DeleteAll(ctx context.Context, cartID uuid.UUID) error {
	_, err := s.db.NewDelete().
		Model((*tables.CartItem)(nil)).
		Where("cart_id = ?", cartID).
		Exec(ctx)
	return err
}

func (s *bunCartStore) ListItems(ctx context.Context, cartID uuid.UUID) ([]structs.CartLine, error) {
	items, err := database.Query[tables.CartItem](s.db).
		Where("ci.cart_id", cartID).
		With("Product").
		OrderBy("product.name", database.ASC).
		All(ctx)
	if err != nil {
		return nil, err
	}

	return cartLinesFromItems(items), nil
}

// cartLinesFromItems flattens the product relation into typed lines.
// Items whose product row vanished are dropped.
func cartLinesFromItems(items []tables.CartItem) []structs.CartLine {
	lines := make([]structs.CartLine, 0, len(items))
	for _, item := range items {
		if item.Product == nil {
			continue
		}
		lines = append(lines, structs.CartLine{
			ProductID: item.ProductID,
			Name:      item.Product.Name,
			Price:     item.Product.Price,
			Quantity:  item.Quantity,
			ImageURL:  item.Product.ImageURL,
		})
	}
	return lines
}
