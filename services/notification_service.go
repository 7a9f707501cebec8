package services

import (
	"context"
	"fmt"
	"html"
	"strings"
	"sync/atomic"
	"time"
	"yeshivashop_server/config"
	"yeshivashop_server/lib"
	"yeshivashop_server/structs"
	"yeshivashop_server/structs/tables"

	"github.com/MonkyMars/gecho"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const maxConcurrentSends = 4

// supplierGroup is the set of order lines belonging to one supplier.
type supplierGroup struct {
	SupplierID uuid.UUID
	Lines      []structs.NotificationLine
}

type supplierEmail struct {
	SupplierID uuid.UUID
	To         string
	Subject    string
	HTML       string
}

// NotificationService sends one itemised email per supplier in an order.
// Failures are logged and counted, never returned.
type NotificationService struct {
	logger *gecho.Logger
	cfg    *structs.NotificationConfig
	store  NotificationStore
	sender EmailSender
	sleep  func(ctx context.Context, d time.Duration) error
}

func NewNotificationService(logger *gecho.Logger, cfg *structs.NotificationConfig, store NotificationStore, sender EmailSender) *NotificationService {
	return &NotificationService{
		logger: logger,
		cfg:    cfg,
		store:  store,
		sender: sender,
		sleep:  sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// NotifyOrder runs the fan-out for a committed order.
func (ns *NotificationService) NotifyOrder(ctx context.Context, orderID uuid.UUID) structs.NotificationReport {
	var report structs.NotificationReport

	if ns.sender == nil || !ns.sender.Enabled() {
		ns.logger.Warn("Email delivery not configured, skipping supplier notifications",
			gecho.Field("order_id", orderID),
		)
		return report
	}

	lines, err := ns.store.OrderLinesForNotification(ctx, orderID)
	if err != nil {
		ns.logger.Error("Failed to load order lines for notification",
			gecho.Field("order_id", orderID),
			gecho.Field("error", err),
		)
		return report
	}

	groups := groupBySupplier(lines)
	if len(groups) == 0 {
		return report
	}

	ids := make([]uuid.UUID, 0, len(groups))
	for _, g := range groups {
		ids = append(ids, g.SupplierID)
	}

	suppliers, err := ns.store.SuppliersByID(ctx, ids)
	if err != nil {
		ns.logger.Error("Failed to load suppliers for notification",
			gecho.Field("order_id", orderID),
			gecho.Field("error", err),
		)
		return report
	}

	emails := make([]supplierEmail, 0, len(groups))
	for _, g := range groups {
		supplier := suppliers[g.SupplierID]
		if !supplier.HasEmail() {
			report.Skipped++
			NotificationsTotal.WithLabelValues(ResultSkipped).Inc()
			ns.logger.Debug("Supplier has no email, skipping",
				gecho.Field("order_id", orderID),
				gecho.Field("supplier_id", g.SupplierID),
			)
			continue
		}

		subject, body := renderSupplierEmail(orderID, supplier, g.Lines)
		emails = append(emails, supplierEmail{
			SupplierID: g.SupplierID,
			To:         *supplier.Email,
			Subject:    subject,
			HTML:       body,
		})
	}

	var sent, failed int
	if ns.cfg.Mode == config.NotifyModeConcurrent {
		sent, failed = ns.sendConcurrent(ctx, orderID, emails)
	} else {
		sent, failed = ns.sendSerial(ctx, orderID, emails)
	}
	report.Sent = sent
	report.Failed = failed

	return report
}

// sendSerial spaces sends by the configured delay to stay under the provider's rate limit.
func (ns *NotificationService) sendSerial(ctx context.Context, orderID uuid.UUID, emails []supplierEmail) (int, int) {
	sent, failed := 0, 0

	for i, email := range emails {
		if i > 0 {
			if err := ns.sleep(ctx, ns.cfg.SendDelay); err != nil {
				for _, rest := range emails[i:] {
					ns.recordFailure(orderID, rest.SupplierID, err)
				}
				failed += len(emails) - i
				return sent, failed
			}
		}

		if err := ns.sender.Send(ctx, []string{email.To}, email.Subject, email.HTML); err != nil {
			ns.recordFailure(orderID, email.SupplierID, err)
			failed++
			continue
		}
		ns.recordSuccess(orderID, email.SupplierID)
		sent++
	}

	return sent, failed
}

func (ns *NotificationService) sendConcurrent(ctx context.Context, orderID uuid.UUID, emails []supplierEmail) (int, int) {
	var sent, failed atomic.Int64

	var g errgroup.Group
	g.SetLimit(maxConcurrentSends)

	for _, email := range emails {
		g.Go(func() error {
			if err := ns.sender.Send(ctx, []string{email.To}, email.Subject, email.HTML); err != nil {
				ns.recordFailure(orderID, email.SupplierID, err)
				failed.Add(1)
				return nil
			}
			ns.recordSuccess(orderID, email.SupplierID)
			sent.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	return int(sent.Load()), int(failed.Load())
}

func (ns *NotificationService) recordFailure(orderID, supplierID uuid.UUID, err error) {
	NotificationsTotal.WithLabelValues(ResultFailed).Inc()
	ns.logger.Error("Supplier notification failed",
		gecho.Field("order_id", orderID),
		gecho.Field("supplier_id", supplierID),
		gecho.Field("error", err),
	)
}

func (ns *NotificationService) recordSuccess(orderID, supplierID uuid.UUID) {
	NotificationsTotal.WithLabelValues(ResultSent).Inc()
	ns.logger.Debug("Supplier notification sent",
		gecho.Field("order_id", orderID),
		gecho.Field("supplier_id", supplierID),
	)
}

// groupBySupplier keeps the first-seen supplier order and drops lines without a supplier.
func groupBySupplier(lines []structs.NotificationLine) []supplierGroup {
	index := make(map[uuid.UUID]int)
	var groups []supplierGroup

	for _, line := range lines {
		if line.SupplierID == nil || *line.SupplierID == uuid.Nil {
			continue
		}
		id := *line.SupplierID
		at, ok := index[id]
		if !ok {
			at = len(groups)
			index[id] = at
			groups = append(groups, supplierGroup{SupplierID: id})
		}
		groups[at].Lines = append(groups[at].Lines, line)
	}

	return groups
}

// renderSupplierEmail builds the subject and HTML body for one supplier.
func renderSupplierEmail(orderID uuid.UUID, supplier *tables.Supplier, lines []structs.NotificationLine) (string, string) {
	short := lib.ShortOrderID(orderID)

	totalQty := 0
	for _, l := range lines {
		totalQty += l.Quantity
	}

	name := "Supplier"
	if supplier != nil && strings.TrimSpace(supplier.Name) != "" {
		name = supplier.Name
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<h2>Order %s</h2>", short)
	fmt.Fprintf(&b, "<p>Hello %s, a new order contains your items:</p>", html.EscapeString(name))
	b.WriteString(`<table cellpadding="6" cellspacing="0" border="1" style="border-collapse:collapse">`)
	b.WriteString("<thead><tr><th align=\"left\">Product</th><th>Qty</th><th>Unit Price</th></tr></thead><tbody>")
	for _, l := range lines {
		product := l.ProductName
		if strings.TrimSpace(product) == "" {
			product = "Product"
		}
		fmt.Fprintf(&b, "<tr><td>%s</td><td align=\"center\">%d</td><td align=\"right\">₪%s</td></tr>",
			html.EscapeString(product), l.Quantity, l.UnitPrice.StringFixed(2))
	}
	b.WriteString("</tbody></table>")
	b.WriteString("<p style=\"color:#666;font-size:12px\">Sent automatically from yeshivashop.co.uk.</p>")

	subject := fmt.Sprintf("New order %s – %d items", short, totalQty)
	return subject, b.String()
}
