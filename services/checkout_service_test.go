package services

import (
	"context"
	"errors"
	"testing"
	"time"
	"yeshivashop_server/config"
	"yeshivashop_server/lib"
	"yeshivashop_server/structs"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type notifierFunc func(ctx context.Context, orderID uuid.UUID) structs.NotificationReport

func (f notifierFunc) NotifyOrder(ctx context.Context, orderID uuid.UUID) structs.NotificationReport {
	return f(ctx, orderID)
}

func TestNormalizeCheckoutLines(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	lines, err := normalizeCheckoutLines([]structs.CheckoutLine{
		{ID: a.String(), Quantity: 1},
		{ID: b.String(), Quantity: 2},
		{ID: a.String(), Quantity: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, []structs.OrderLineInput{
		{ProductID: a, Quantity: 4},
		{ProductID: b, Quantity: 2},
	}, lines)

	_, err = normalizeCheckoutLines([]structs.CheckoutLine{
		{ID: "nope", Quantity: 1},
		{ID: b.String(), Quantity: 0},
	})
	var ve *lib.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, err.Error(), "cart[0].id")
	assert.Contains(t, err.Error(), "cart[1].quantity")

	lines, err = normalizeCheckoutLines(nil)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestNormalizeCheckoutLinesCapsQuantity(t *testing.T) {
	a := uuid.New()

	_, err := normalizeCheckoutLines([]structs.CheckoutLine{{ID: a.String(), Quantity: 3_000_000_000}})
	var ve *lib.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, err.Error(), "cart[0].quantity must be at most 999")

	_, err = normalizeCheckoutLines([]structs.CheckoutLine{
		{ID: a.String(), Quantity: 600},
		{ID: a.String(), Quantity: 400},
	})
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, err.Error(), "cart[1].quantity")

	lines, err := normalizeCheckoutLines([]structs.CheckoutLine{
		{ID: a.String(), Quantity: 600},
		{ID: a.String(), Quantity: 399},
	})
	require.NoError(t, err)
	assert.Equal(t, []structs.OrderLineInput{{ProductID: a, Quantity: MaxLineQuantity}}, lines)
}

func TestCheckoutRejectsOversizedQuantity(t *testing.T) {
	store := &fakeCheckoutStore{}
	cs := NewCheckoutService(testLogger(), config.Load(), store, nil)

	_, err := cs.Checkout(context.Background(), uuid.New(), []structs.CheckoutLine{{ID: uuid.NewString(), Quantity: MaxLineQuantity + 1}})
	var ve *lib.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Zero(t, store.calls)
}

func TestCheckout(t *testing.T) {
	ctx := context.Background()
	user := uuid.New()
	product := uuid.New()

	newService := func(store *fakeCheckoutStore, clearCart bool) *CheckoutService {
		cfg := config.Load()
		cfg.Checkout.ClearCart = clearCart
		return NewCheckoutService(testLogger(), cfg, store, nil)
	}

	t.Run("success", func(t *testing.T) {
		orderID := uuid.New()
		store := &fakeCheckoutStore{result: &structs.CheckoutResult{OrderID: orderID, Total: decimal.NewFromInt(45)}}
		cs := newService(store, false)

		result, err := cs.Checkout(ctx, user, []structs.CheckoutLine{{ID: product.String(), Quantity: 1}})
		require.NoError(t, err)
		assert.Equal(t, orderID, result.OrderID)
		assert.False(t, store.clearCart, "explicit lines leave the cart alone when clearing is off")
		assert.Equal(t, []structs.OrderLineInput{{ProductID: product, Quantity: 1}}, store.lines)
	})

	t.Run("empty body falls back to the cart and clears it", func(t *testing.T) {
		store := &fakeCheckoutStore{result: &structs.CheckoutResult{OrderID: uuid.New()}}
		cs := newService(store, false)

		_, err := cs.Checkout(ctx, user, nil)
		require.NoError(t, err)
		assert.Empty(t, store.lines)
		assert.True(t, store.clearCart)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		store := &fakeCheckoutStore{}
		_, err := newService(store, true).Checkout(ctx, uuid.Nil, nil)
		assert.ErrorIs(t, err, lib.ErrUnauthorized)
		assert.Zero(t, store.calls)
	})

	t.Run("invalid lines never reach the store", func(t *testing.T) {
		store := &fakeCheckoutStore{}
		_, err := newService(store, true).Checkout(ctx, user, []structs.CheckoutLine{{ID: product.String(), Quantity: -1}})
		var ve *lib.ValidationError
		assert.ErrorAs(t, err, &ve)
		assert.Zero(t, store.calls)
	})

	t.Run("rejections pass through", func(t *testing.T) {
		for _, want := range []error{lib.ErrEmptyCart, lib.ErrProductNotFound} {
			_, err := newService(&fakeCheckoutStore{err: want}, true).Checkout(ctx, user, nil)
			assert.ErrorIs(t, err, want)
			assert.NotErrorIs(t, err, lib.ErrCheckoutFailed)
		}
	})

	t.Run("store failure is wrapped", func(t *testing.T) {
		_, err := newService(&fakeCheckoutStore{err: errors.New("connection reset")}, true).Checkout(ctx, user, nil)
		assert.ErrorIs(t, err, lib.ErrCheckoutFailed)
		assert.Contains(t, err.Error(), "connection reset")
	})
}

func TestNotifyInBackground(t *testing.T) {
	cfg := config.Load()
	cfg.Notification.Timeout = time.Second
	orderID := uuid.New()

	notifier := notifierFunc(func(ctx context.Context, id uuid.UUID) structs.NotificationReport {
		assert.Equal(t, orderID, id)
		assert.NoError(t, ctx.Err(), "notification context must outlive the request")
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		return structs.NotificationReport{Sent: 2, Skipped: 1}
	})
	cs := NewCheckoutService(testLogger(), cfg, &fakeCheckoutStore{}, notifier)

	reqCtx, cancel := context.WithCancel(context.Background())
	done := cs.NotifyInBackground(reqCtx, orderID)
	cancel()

	select {
	case report := <-done:
		assert.Equal(t, structs.NotificationReport{Sent: 2, Skipped: 1}, report)
	case <-time.After(2 * time.Second):
		t.Fatal("notification did not finish")
	}

	_, open := <-done
	assert.False(t, open)
}

func TestNotifyInBackgroundWithoutNotifier(t *testing.T) {
	cs := NewCheckoutService(testLogger(), config.Load(), &fakeCheckoutStore{}, nil)
	_, open := <-cs.NotifyInBackground(context.Background(), uuid.New())
	assert.False(t, open)
}
