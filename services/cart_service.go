package services

import (
	"context"
	"fmt"
	"yeshivashop_server/lib"
	"yeshivashop_server/structs"

	"github.com/MonkyMars/gecho"
	"github.com/google/uuid"
)

// CartService resolves the caller's cart from the session user id and
// returns a fresh CartView after every mutation.
type CartService struct {
	logger *gecho.Logger
	store  CartStore
}

func NewCartService(logger *gecho.Logger, store CartStore) *CartService {
	return &CartService{
		logger: logger,
		store:  store,
	}
}

// GetOrCreateCart is idempotent per user.
func (cs *CartService) GetOrCreateCart(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	if userID == uuid.Nil {
		return uuid.Nil, lib.ErrUnauthorized
	}
	cartID, err := cs.store.UpsertCart(ctx, userID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("get or create cart: %w", err)
	}
	return cartID, nil
}

// GetCart returns the caller's cart, empty when no cart row exists yet.
func (cs *CartService) GetCart(ctx context.Context, userID uuid.UUID) (*structs.CartView, error) {
	if userID == uuid.Nil {
		return nil, lib.ErrUnauthorized
	}

	cartID, found, err := cs.store.FindCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find cart: %w", err)
	}
	if !found {
		return structs.NewCartView(uuid.Nil, nil), nil
	}

	return cs.view(ctx, cartID)
}

func (cs *CartService) AddItem(ctx context.Context, userID uuid.UUID, req *structs.AddCartItemRequest) (*structs.CartView, error) {
	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 1 {
		return nil, lib.NewValidationError("quantity", "must be at least 1")
	}
	if req.ProductID == uuid.Nil {
		return nil, lib.NewValidationError("product_id", "is required")
	}

	cartID, err := cs.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := cs.store.UpsertItem(ctx, cartID, req.ProductID, quantity); err != nil {
		return nil, fmt.Errorf("add item: %w", err)
	}

	cs.logger.Debug("Cart item added",
		gecho.Field("user_id", userID),
		gecho.Field("product_id", req.ProductID),
		gecho.Field("quantity", quantity),
	)

	return cs.view(ctx, cartID)
}

func (cs *CartService) UpdateQuantity(ctx context.Context, userID, productID uuid.UUID, delta int) (*structs.CartView, error) {
	if delta == 0 {
		return nil, lib.NewValidationError("delta", "must not be 0")
	}

	cartID, err := cs.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	quantity, removed, err := cs.store.AdjustItem(ctx, cartID, productID, delta)
	if err != nil {
		return nil, fmt.Errorf("update quantity: %w", err)
	}

	cs.logger.Debug("Cart item adjusted",
		gecho.Field("user_id", userID),
		gecho.Field("product_id", productID),
		gecho.Field("quantity", quantity),
		gecho.Field("removed", removed),
	)

	return cs.view(ctx, cartID)
}

func (cs *CartService) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*structs.CartView, error) {
	cartID, err := cs.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := cs.store.DeleteItem(ctx, cartID, productID); err != nil {
		return nil, fmt.Errorf("remove item: %w", err)
	}

	return cs.view(ctx, cartID)
}

func (cs *CartService) ClearCart(ctx context.Context, userID uuid.UUID) (*structs.CartView, error) {
	cartID, err := cs.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := cs.store.DeleteAll(ctx, cartID); err != nil {
		return nil, fmt.Errorf("clear cart: %w", err)
	}

	return structs.NewCartView(cartID, nil), nil
}

func (cs *CartService) view(ctx context.Context, cartID uuid.UUID) (*structs.CartView, error) {
	lines, err := cs.store.ListItems(ctx, cartID)
	if err != nil {
		return nil, fmt.Errorf("list cart items: %w", err)
	}
	return structs.NewCartView(cartID, lines), nil
}
