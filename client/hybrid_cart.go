package client

import (
	"context"
	"slices"
	"time"
	"yeshivashop_server/lib"
	"yeshivashop_server/structs"

	"github.com/MonkyMars/gecho"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const reloadTimeout = 10 * time.Second

func cloneLines(lines []structs.CartLine) []structs.CartLine {
	return slices.Clone(lines)
}

// HybridCart is the storefront's view of the cart. Signed in, it mirrors the
// server cart and applies every change optimistically. As a guest it is empty
// and read-only.
type HybridCart struct {
	logger      *gecho.Logger
	session     *SessionContext
	api         CartAPI
	lines       *Pending[[]structs.CartLine]
	unsubscribe func()
}

// NewHybridCart subscribes to session changes: signing out empties the view
// immediately and signing in reloads it from the server.
func NewHybridCart(logger *gecho.Logger, session *SessionContext, api CartAPI) *HybridCart {
	hc := &HybridCart{
		logger:  logger,
		session: session,
		api:     api,
		lines:   NewPending([]structs.CartLine{}, cloneLines),
	}

	hc.unsubscribe = session.Subscribe(func(event string, _ *structs.Session) {
		switch event {
		case structs.AuthEventSignedOut:
			hc.lines.Set([]structs.CartLine{})
		case structs.AuthEventSignedIn:
			ctx, cancel := context.WithTimeout(context.Background(), reloadTimeout)
			defer cancel()
			if err := hc.Reload(ctx); err != nil {
				hc.logger.Warn("Failed to load cart after sign in", gecho.Field("error", err))
			}
		}
	})

	return hc
}

// Close stops following the session.
func (hc *HybridCart) Close() {
	hc.unsubscribe()
}

func (hc *HybridCart) Lines() []structs.CartLine {
	return hc.lines.State()
}

func (hc *HybridCart) Count() int {
	return structs.NewCartView(uuid.Nil, hc.Lines()).Count
}

func (hc *HybridCart) Total() decimal.Decimal {
	return structs.NewCartView(uuid.Nil, hc.Lines()).Total
}

// Reload replaces the view with the server cart. Guests get an empty view.
func (hc *HybridCart) Reload(ctx context.Context) error {
	if !hc.session.SignedIn() {
		hc.lines.Set([]structs.CartLine{})
		return nil
	}

	view, err := hc.api.GetCart(ctx)
	if err != nil {
		return err
	}
	hc.lines.Set(cloneLines(view.Items))
	return nil
}

func confirmed(view *structs.CartView, err error) (*[]structs.CartLine, error) {
	if err != nil {
		return nil, err
	}
	if view == nil {
		return nil, nil
	}
	lines := cloneLines(view.Items)
	return &lines, nil
}

// Add puts quantity of product into the cart. Guests get lib.ErrAuthRequired.
func (hc *HybridCart) Add(ctx context.Context, product structs.CartLine, quantity int) error {
	if !hc.session.SignedIn() {
		return lib.ErrAuthRequired
	}
	if quantity < 1 {
		quantity = 1
	}

	return hc.lines.Do(ctx,
		func(lines []structs.CartLine) []structs.CartLine {
			for i := range lines {
				if lines[i].ProductID == product.ProductID {
					lines[i].Quantity += quantity
					return lines
				}
			}
			product.Quantity = quantity
			return append(lines, product)
		},
		func(ctx context.Context) (*[]structs.CartLine, error) {
			return confirmed(hc.api.AddItem(ctx, product.ProductID, quantity))
		},
	)
}

func (hc *HybridCart) Increment(ctx context.Context, productID uuid.UUID) error {
	return hc.adjust(ctx, productID, 1)
}

// Decrement removes the line when its quantity would drop below one.
func (hc *HybridCart) Decrement(ctx context.Context, productID uuid.UUID) error {
	return hc.adjust(ctx, productID, -1)
}

func (hc *HybridCart) adjust(ctx context.Context, productID uuid.UUID, delta int) error {
	if !hc.session.SignedIn() {
		return nil
	}

	return hc.lines.Do(ctx,
		func(lines []structs.CartLine) []structs.CartLine {
			for i := range lines {
				if lines[i].ProductID != productID {
					continue
				}
				lines[i].Quantity += delta
				if lines[i].Quantity < 1 {
					return slices.Delete(lines, i, i+1)
				}
				return lines
			}
			return lines
		},
		func(ctx context.Context) (*[]structs.CartLine, error) {
			return confirmed(hc.api.UpdateItem(ctx, productID, delta))
		},
	)
}

func (hc *HybridCart) Remove(ctx context.Context, productID uuid.UUID) error {
	if !hc.session.SignedIn() {
		return nil
	}

	return hc.lines.Do(ctx,
		func(lines []structs.CartLine) []structs.CartLine {
			return slices.DeleteFunc(lines, func(l structs.CartLine) bool { return l.ProductID == productID })
		},
		func(ctx context.Context) (*[]structs.CartLine, error) {
			return confirmed(hc.api.RemoveItem(ctx, productID))
		},
	)
}

func (hc *HybridCart) Clear(ctx context.Context) error {
	if !hc.session.SignedIn() {
		return nil
	}

	return hc.lines.Do(ctx,
		func([]structs.CartLine) []structs.CartLine { return []structs.CartLine{} },
		func(ctx context.Context) (*[]structs.CartLine, error) {
			return confirmed(hc.api.ClearCart(ctx))
		},
	)
}

// Checkout submits the current lines. The view is only emptied once the
// server has created the order.
func (hc *HybridCart) Checkout(ctx context.Context) (*structs.CheckoutResponse, error) {
	if !hc.session.SignedIn() {
		return nil, lib.ErrAuthRequired
	}

	current := hc.Lines()
	if len(current) == 0 {
		return nil, lib.ErrEmptyCart
	}

	lines := make([]structs.CheckoutLine, 0, len(current))
	for _, l := range current {
		lines = append(lines, structs.CheckoutLine{ID: l.ProductID.String(), Quantity: l.Quantity})
	}

	res, err := hc.api.Checkout(ctx, lines)
	if err != nil {
		return nil, err
	}

	hc.lines.Set([]structs.CartLine{})
	return res, nil
}
