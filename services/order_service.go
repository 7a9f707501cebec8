package services

import (
	"context"
	"yeshivashop_server/database"
	"yeshivashop_server/lib"
	"yeshivashop_server/structs/tables"

	"github.com/MonkyMars/gecho"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// OrderService serves a customer's own order history. Every query is scoped
// by the session user id.
type OrderService struct {
	logger *gecho.Logger
	db     bun.IDB
}

func NewOrderService(logger *gecho.Logger, db bun.IDB) *OrderService {
	return &OrderService{
		logger: logger,
		db:     db,
	}
}

func (os *OrderService) ListOrders(ctx context.Context, userID uuid.UUID) ([]tables.Order, error) {
	orders, err := database.Query[tables.Order](os.db).
		Where("o.user_id", userID).
		With("Items.Product").
		OrderBy("o.created_at", database.DESC).
		All(ctx)
	if err != nil {
		os.logger.Error("Failed to list orders", gecho.Field("user_id", userID), gecho.Field("error", err))
		return nil, err
	}
	return orders, nil
}

// GetOrder returns ErrNotFound for orders owned by someone else.
func (os *OrderService) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*tables.Order, error) {
	order, err := database.Query[tables.Order](os.db).
		Where("o.id", orderID).
		Where("o.user_id", userID).
		With("Items.Product").
		First(ctx)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, lib.ErrNotFound
	}
	return order, nil
}
