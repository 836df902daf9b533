package feed

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/akhatri/ledger-alerts/internal/accounting"
	"github.com/akhatri/ledger-alerts/internal/model"
)

// Per-signal fetch limits, matching what the feed can usefully show.
const (
	overdueInvoiceLimit = 5
	recentPaymentLimit  = 3
	partialPaymentLimit = 3
	highValueLimit      = 3

	customerPageSize = 50

	// partialDueWindow is how far ahead a partially-paid invoice's due
	// date may be and still raise a "due soon" notification.
	partialDueWindow = 3 * 24 * time.Hour
)

// overdueInvoices produces a single warning summarizing the oldest
// overdue invoices (top 5 by due date ascending).
func (a *Aggregator) overdueInvoices(ctx context.Context) ([]model.Notification, error) {
	now := a.clock()
	sales, err := a.client.ListSales(ctx, accounting.SaleFilter{
		Status:    accounting.SaleStatusUnpaid,
		DueBefore: now,
		SortBy:    "due_date",
		Limit:     overdueInvoiceLimit,
	})
	if err != nil {
		return nil, err
	}
	if len(sales) == 0 {
		return nil, nil
	}

	var total float64
	for _, s := range sales {
		total += s.OutstandingAmount
	}

	return []model.Notification{{
		ID:        model.IDOverdueInvoices,
		Type:      model.TypeWarning,
		Title:     "Overdue Invoices",
		Message:   fmt.Sprintf("%d overdue invoice(s) with %s outstanding", len(sales), formatAmount(total)),
		Timestamp: now,
		ActionURL: "/sales?status=overdue",
		ActionText: "View Invoices",
		Metadata: map[string]any{
			"count":             len(sales),
			"total_outstanding": total,
		},
	}}, nil
}

// recentPayments produces one success record per recent payment.
func (a *Aggregator) recentPayments(ctx context.Context) ([]model.Notification, error) {
	payments, err := a.client.ListRecentPayments(ctx, recentPaymentLimit)
	if err != nil {
		return nil, err
	}

	items := make([]model.Notification, 0, len(payments))
	for _, p := range payments {
		items = append(items, model.Notification{
			ID:        model.PrefixPayment + p.ID,
			Type:      model.TypeSuccess,
			Title:     "Payment Received",
			Message:   fmt.Sprintf("Received %s for invoice %s", formatAmount(p.Amount), p.InvoiceNumber),
			Timestamp: p.CreatedAt,
			ActionURL: "/sales/" + p.SaleID,
			ActionText: "View Sale",
			Metadata: map[string]any{
				"amount":         p.Amount,
				"sale_id":        p.SaleID,
				"invoice_number": p.InvoiceNumber,
			},
		})
	}
	return items, nil
}

// todaySales produces a single info record summarizing sales created
// within the current calendar day.
func (a *Aggregator) todaySales(ctx context.Context) ([]model.Notification, error) {
	now := a.clock()
	sales, err := a.client.ListSales(ctx, accounting.SaleFilter{
		CreatedFrom: startOfDay(now),
		CreatedTo:   now,
	})
	if err != nil {
		return nil, err
	}
	if len(sales) == 0 {
		return nil, nil
	}

	var total float64
	for _, s := range sales {
		total += s.TotalAmount
	}

	return []model.Notification{{
		ID:        model.IDTodaySales,
		Type:      model.TypeInfo,
		Title:     "Today's Sales",
		Message:   fmt.Sprintf("%d sale(s) recorded today totaling %s", len(sales), formatAmount(total)),
		Timestamp: now,
		ActionURL: "/sales?range=today",
		ActionText: "View Sales",
		Metadata: map[string]any{
			"count": len(sales),
			"total": total,
		},
	}}, nil
}

// todayCustomers produces a single info record counting customers
// created today. The backend's customer listing has no creation-date
// filter, so the first page is filtered here.
func (a *Aggregator) todayCustomers(ctx context.Context) ([]model.Notification, error) {
	now := a.clock()
	customers, err := a.client.ListCustomers(ctx, 1, customerPageSize)
	if err != nil {
		return nil, err
	}

	dayStart := startOfDay(now)
	count := 0
	for _, c := range customers {
		if !c.CreatedAt.Before(dayStart) && !c.CreatedAt.After(now) {
			count++
		}
	}
	if count == 0 {
		return nil, nil
	}

	return []model.Notification{{
		ID:        model.IDTodayCustomers,
		Type:      model.TypeInfo,
		Title:     "New Customers Today",
		Message:   fmt.Sprintf("%d new customer(s) added today", count),
		Timestamp: now,
		ActionURL: "/customers?range=today",
		ActionText: "View Customers",
		Metadata: map[string]any{
			"customer_count": count,
		},
	}}, nil
}

// partialPayments produces one record per partially-paid invoice with a
// near or past due date. Overdue invoices and invoices due within the
// next three days are distinct sub-categories with distinct IDs, so a
// single invoice crossing its due date moves between them rather than
// merging.
func (a *Aggregator) partialPayments(ctx context.Context) ([]model.Notification, error) {
	now := a.clock()
	sales, err := a.client.ListSales(ctx, accounting.SaleFilter{
		Status: accounting.SaleStatusPartial,
		SortBy: "due_date",
		Limit:  partialPaymentLimit,
	})
	if err != nil {
		return nil, err
	}

	var items []model.Notification
	for _, s := range sales {
		switch {
		case s.DueDate.Before(now):
			days := daysBetween(s.DueDate, now)
			items = append(items, model.Notification{
				ID:        model.PrefixPartialPaymentOverdue + s.ID,
				Type:      model.TypeError,
				Title:     "Partial Payment Overdue",
				Message:   fmt.Sprintf("Invoice %s is %d day(s) past due with %s outstanding", s.InvoiceNumber, days, formatAmount(s.OutstandingAmount)),
				Timestamp: now,
				ActionURL: "/sales/" + s.ID,
				ActionText: "View Invoice",
				Metadata: map[string]any{
					"amount":         s.OutstandingAmount,
					"sale_id":        s.ID,
					"invoice_number": s.InvoiceNumber,
				},
			})
		case s.DueDate.Sub(now) <= partialDueWindow:
			days := daysBetween(now, s.DueDate)
			items = append(items, model.Notification{
				ID:        model.PrefixPartialPayment + s.ID,
				Type:      model.TypeWarning,
				Title:     "Partial Payment Due",
				Message:   fmt.Sprintf("Invoice %s has %s outstanding, due in %d day(s)", s.InvoiceNumber, formatAmount(s.OutstandingAmount), days),
				Timestamp: now,
				ActionURL: "/sales/" + s.ID,
				ActionText: "View Invoice",
				Metadata: map[string]any{
					"amount":         s.OutstandingAmount,
					"sale_id":        s.ID,
					"invoice_number": s.InvoiceNumber,
				},
			})
		}
	}
	return items, nil
}

// highValueOutstanding produces one warning per unpaid invoice whose
// outstanding amount meets the configured threshold.
func (a *Aggregator) highValueOutstanding(ctx context.Context) ([]model.Notification, error) {
	now := a.clock()
	sales, err := a.client.ListSales(ctx, accounting.SaleFilter{
		Status:         accounting.SaleStatusUnpaid,
		MinOutstanding: a.threshold,
		SortBy:         "outstanding_amount",
		SortDesc:       true,
		Limit:          highValueLimit,
	})
	if err != nil {
		return nil, err
	}

	items := make([]model.Notification, 0, len(sales))
	for _, s := range sales {
		items = append(items, model.Notification{
			ID:        model.PrefixHighValue + s.ID,
			Type:      model.TypeWarning,
			Title:     "High Outstanding Balance",
			Message:   fmt.Sprintf("Invoice %s for %s has %s outstanding", s.InvoiceNumber, s.CustomerName, formatAmount(s.OutstandingAmount)),
			Timestamp: now,
			ActionURL: "/sales/" + s.ID,
			ActionText: "View Invoice",
			Metadata: map[string]any{
				"amount":         s.OutstandingAmount,
				"customer_id":    s.CustomerID,
				"invoice_number": s.InvoiceNumber,
			},
		})
	}
	return items, nil
}

// startOfDay returns midnight of t's calendar day in t's location.
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// daysBetween returns the number of days from a to b, rounded up so a
// partial day counts as one.
func daysBetween(a, b time.Time) int {
	return int(math.Ceil(b.Sub(a).Hours() / 24))
}
