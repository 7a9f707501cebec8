package services

import (
	"context"
	"errors"
	"fmt"
	"yeshivashop_server/lib"
	"yeshivashop_server/structs"

	"github.com/MonkyMars/gecho"
	"github.com/google/uuid"
)

// Notifier delivers supplier notifications for a committed order.
type Notifier interface {
	NotifyOrder(ctx context.Context, orderID uuid.UUID) structs.NotificationReport
}

type CheckoutService struct {
	logger   *gecho.Logger
	cfg      *structs.Config
	store    CheckoutStore
	notifier Notifier
}

func NewCheckoutService(logger *gecho.Logger, cfg *structs.Config, store CheckoutStore, notifier Notifier) *CheckoutService {
	return &CheckoutService{
		logger:   logger,
		cfg:      cfg,
		store:    store,
		notifier: notifier,
	}
}

// MaxLineQuantity caps a single order line, matching the cart's limit.
const MaxLineQuantity = 999

// normalizeCheckoutLines validates client lines and merges duplicate ids,
// keeping first-seen order.
func normalizeCheckoutLines(lines []structs.CheckoutLine) ([]structs.OrderLineInput, error) {
	ve := &lib.ValidationError{}
	index := make(map[uuid.UUID]int, len(lines))
	out := make([]structs.OrderLineInput, 0, len(lines))

	for i, line := range lines {
		id, err := uuid.Parse(line.ID)
		if err != nil {
			ve.Add(fmt.Sprintf("cart[%d].id", i), "must be a valid product id")
			continue
		}
		if line.Quantity < 1 {
			ve.Add(fmt.Sprintf("cart[%d].quantity", i), "must be at least 1")
			continue
		}
		if line.Quantity > MaxLineQuantity {
			ve.Add(fmt.Sprintf("cart[%d].quantity", i), fmt.Sprintf("must be at most %d", MaxLineQuantity))
			continue
		}

		if at, ok := index[id]; ok {
			if out[at].Quantity+line.Quantity > MaxLineQuantity {
				ve.Add(fmt.Sprintf("cart[%d].quantity", i), fmt.Sprintf("combined quantity for %s must be at most %d", id, MaxLineQuantity))
				continue
			}
			out[at].Quantity += line.Quantity
			continue
		}
		index[id] = len(out)
		out = append(out, structs.OrderLineInput{ProductID: id, Quantity: line.Quantity})
	}

	if err := ve.OrNil(); err != nil {
		return nil, err
	}
	return out, nil
}

// Checkout places an order for userID. Explicit lines win; when none are
// given the caller's persisted cart is used. The order and its items are
// written atomically or not at all.
func (cs *CheckoutService) Checkout(ctx context.Context, userID uuid.UUID, lines []structs.CheckoutLine) (*structs.CheckoutResult, error) {
	if userID == uuid.Nil {
		CheckoutTotal.WithLabelValues(ResultRejected).Inc()
		return nil, lib.ErrUnauthorized
	}

	inputs, err := normalizeCheckoutLines(lines)
	if err != nil {
		CheckoutTotal.WithLabelValues(ResultRejected).Inc()
		return nil, err
	}

	fromCart := len(lines) == 0
	clearCart := cs.cfg.Checkout.ClearCart || fromCart

	result, err := cs.store.PlaceOrder(ctx, userID, inputs, clearCart)
	if err != nil {
		if errors.Is(err, lib.ErrEmptyCart) || errors.Is(err, lib.ErrProductNotFound) {
			CheckoutTotal.WithLabelValues(ResultRejected).Inc()
			cs.logger.Info("Checkout rejected",
				gecho.Field("user_id", userID),
				gecho.Field("reason", err.Error()),
			)
			return nil, err
		}

		CheckoutTotal.WithLabelValues(ResultFailed).Inc()
		cs.logger.Error("Checkout transaction failed",
			gecho.Field("user_id", userID),
			gecho.Field("error", err),
		)
		return nil, fmt.Errorf("%w: %v", lib.ErrCheckoutFailed, err)
	}

	CheckoutTotal.WithLabelValues(ResultSuccess).Inc()
	cs.logger.Info("Order created",
		gecho.Field("order_id", result.OrderID),
		gecho.Field("user_id", userID),
		gecho.Field("total", result.Total.StringFixed(2)),
		gecho.Field("from_cart", fromCart),
	)

	return result, nil
}

// NotifyInBackground starts the supplier fan-out detached from the request.
// The returned channel yields the report once and is then closed.
func (cs *CheckoutService) NotifyInBackground(parent context.Context, orderID uuid.UUID) <-chan structs.NotificationReport {
	done := make(chan structs.NotificationReport, 1)
	if cs.notifier == nil {
		close(done)
		return done
	}

	ctx := context.WithoutCancel(parent)
	timeout := cs.cfg.Notification.Timeout

	go func() {
		defer close(done)

		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		report := cs.notifier.NotifyOrder(ctx, orderID)
		cs.logger.Info("Supplier notifications finished",
			gecho.Field("order_id", orderID),
			gecho.Field("sent", report.Sent),
			gecho.Field("failed", report.Failed),
			gecho.Field("skipped", report.Skipped),
		)
		done <- report
	}()

	return done
}
