package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"yeshivashop_server/config"
	"yeshivashop_server/structs"
	"yeshivashop_server/structs/tables"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type notificationFixture struct {
	orderID uuid.UUID
	a, b, c uuid.UUID
	store   *fakeNotificationStore
}

// Three suppliers: a and b have email, c does not.
func newNotificationFixture() *notificationFixture {
	f := &notificationFixture{orderID: uuid.New(), a: uuid.New(), b: uuid.New(), c: uuid.New()}
	f.store = &fakeNotificationStore{
		lines: []structs.NotificationLine{
			{ProductName: "Siddur", SupplierID: &f.a, Quantity: 2, UnitPrice: decimal.NewFromInt(30)},
			{ProductName: "Chumash", SupplierID: &f.b, Quantity: 1, UnitPrice: decimal.NewFromInt(45)},
			{ProductName: "Tehillim", SupplierID: &f.a, Quantity: 1, UnitPrice: decimal.RequireFromString("12.5")},
			{ProductName: "Mezuzah", SupplierID: &f.c, Quantity: 4, UnitPrice: decimal.NewFromInt(80)},
			{ProductName: "Orphan", SupplierID: nil, Quantity: 1, UnitPrice: decimal.NewFromInt(1)},
		},
		suppliers: map[uuid.UUID]*tables.Supplier{
			f.a: {ID: f.a, Name: "Seforim Direct", Email: strPtr("a@suppliers.example")},
			f.b: {ID: f.b, Name: "Kesher Books", Email: strPtr("b@suppliers.example")},
			f.c: {ID: f.c, Name: "Sofer Stam", Email: strPtr("")},
		},
	}
	return f
}

func notificationConfig(mode string) *structs.NotificationConfig {
	return &structs.NotificationConfig{Mode: mode, SendDelay: 600 * time.Millisecond, Timeout: time.Minute}
}

func TestGroupBySupplier(t *testing.T) {
	f := newNotificationFixture()
	groups := groupBySupplier(f.store.lines)

	require.Len(t, groups, 3)
	assert.Equal(t, f.a, groups[0].SupplierID)
	assert.Len(t, groups[0].Lines, 2)
	assert.Equal(t, f.b, groups[1].SupplierID)
	assert.Equal(t, f.c, groups[2].SupplierID)
}

func TestRenderSupplierEmail(t *testing.T) {
	orderID := uuid.MustParse("3f2504e0-4f89-11d3-9a0c-0305e82c3301")
	supplier := &tables.Supplier{Name: "Seforim <Direct>"}

	subject, body := renderSupplierEmail(orderID, supplier, []structs.NotificationLine{
		{ProductName: "Siddur", Quantity: 2, UnitPrice: decimal.NewFromInt(30)},
		{ProductName: "", Quantity: 1, UnitPrice: decimal.RequireFromString("12.5")},
	})

	assert.Equal(t, "New order 3f2504e0 – 3 items", subject)
	assert.Contains(t, body, "<h2>Order 3f2504e0</h2>")
	assert.Contains(t, body, "Hello Seforim &lt;Direct&gt;")
	assert.Contains(t, body, "₪30.00")
	assert.Contains(t, body, "₪12.50")
	assert.Contains(t, body, "<td>Product</td>")

	_, body = renderSupplierEmail(orderID, &tables.Supplier{Name: " "}, nil)
	assert.Contains(t, body, "Hello Supplier,")
}

func TestNotifyOrderSerial(t *testing.T) {
	f := newNotificationFixture()
	sender := &fakeSender{}
	ns := NewNotificationService(testLogger(), notificationConfig(config.NotifyModeSerial), f.store, sender)

	var delays []time.Duration
	ns.sleep = func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}

	report := ns.NotifyOrder(context.Background(), f.orderID)

	assert.Equal(t, structs.NotificationReport{Sent: 2, Failed: 0, Skipped: 1}, report)
	require.Len(t, sender.sent, 2)
	assert.Equal(t, []string{"a@suppliers.example"}, sender.sent[0].To)
	assert.Contains(t, sender.sent[0].HTML, "Siddur")
	assert.Contains(t, sender.sent[0].HTML, "Tehillim")
	assert.NotContains(t, sender.sent[0].HTML, "Chumash")
	assert.True(t, strings.HasSuffix(sender.sent[0].Subject, "– 3 items"))
	assert.Equal(t, []time.Duration{600 * time.Millisecond}, delays, "one gap between two sends")
}

func TestNotifyOrderFailureIsIsolated(t *testing.T) {
	for _, mode := range []string{config.NotifyModeSerial, config.NotifyModeConcurrent} {
		t.Run(mode, func(t *testing.T) {
			f := newNotificationFixture()
			sender := &fakeSender{failFor: map[string]bool{"a@suppliers.example": true}}
			ns := NewNotificationService(testLogger(), notificationConfig(mode), f.store, sender)
			ns.sleep = func(context.Context, time.Duration) error { return nil }

			report := ns.NotifyOrder(context.Background(), f.orderID)

			assert.Equal(t, structs.NotificationReport{Sent: 1, Failed: 1, Skipped: 1}, report)
			require.Len(t, sender.sent, 1)
			assert.Equal(t, []string{"b@suppliers.example"}, sender.sent[0].To)
		})
	}
}

func TestNotifyOrderSerialStopsWhenCancelled(t *testing.T) {
	f := newNotificationFixture()
	sender := &fakeSender{}
	ns := NewNotificationService(testLogger(), notificationConfig(config.NotifyModeSerial), f.store, sender)
	ns.sleep = func(context.Context, time.Duration) error { return context.DeadlineExceeded }

	report := ns.NotifyOrder(context.Background(), f.orderID)

	assert.Equal(t, structs.NotificationReport{Sent: 1, Failed: 1, Skipped: 1}, report)
}

func TestNotifyOrderDisabledSender(t *testing.T) {
	f := newNotificationFixture()
	sender := &fakeSender{disabled: true}
	ns := NewNotificationService(testLogger(), notificationConfig(config.NotifyModeSerial), f.store, sender)

	report := ns.NotifyOrder(context.Background(), f.orderID)

	assert.Zero(t, report)
	assert.Empty(t, sender.sent)
}

func TestSleepContext(t *testing.T) {
	assert.NoError(t, sleepContext(context.Background(), 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := sleepContext(ctx, time.Hour)
	assert.True(t, errors.Is(err, context.Canceled))
}
