package feed_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/akhatri/ledger-alerts/internal/accounting"
	"github.com/akhatri/ledger-alerts/internal/model"
)

func TestSingleOverdueInvoiceScenario(t *testing.T) {
	client := &fakeClient{
		sales: func(f accounting.SaleFilter) ([]accounting.Sale, error) {
			// Only the overdue query (unpaid + due-before) yields data.
			if f.Status == accounting.SaleStatusUnpaid && !f.DueBefore.IsZero() {
				return []accounting.Sale{{
					ID:                "s1",
					InvoiceNumber:     "INV-001",
					OutstandingAmount: 5000,
					Status:            accounting.SaleStatusUnpaid,
					DueDate:           testNow.Add(-5 * 24 * time.Hour),
				}}, nil
			}
			return nil, nil
		},
	}
	a := newTestAggregator(t, client)

	generated := a.Generate(context.Background())
	if len(generated) != 1 {
		t.Fatalf("expected exactly 1 notification, got %d: %v", len(generated), generated)
	}

	n := generated[0]
	if n.ID != model.IDOverdueInvoices {
		t.Errorf("id = %q, want %q", n.ID, model.IDOverdueInvoices)
	}
	if n.Type != model.TypeWarning {
		t.Errorf("type = %q, want warning", n.Type)
	}
	if !strings.Contains(n.Message, "5,000") {
		t.Errorf("message %q does not contain formatted total \"5,000\"", n.Message)
	}
	if n.Read {
		t.Error("generated notification should be unread")
	}
}

func TestPartialPaymentDueOverdueSplit(t *testing.T) {
	client := &fakeClient{
		sales: func(f accounting.SaleFilter) ([]accounting.Sale, error) {
			if f.Status == accounting.SaleStatusPartial {
				return []accounting.Sale{
					{
						ID:                "s1",
						InvoiceNumber:     "INV-001",
						OutstandingAmount: 800,
						DueDate:           testNow.Add(-2 * 24 * time.Hour),
					},
					{
						ID:                "s2",
						InvoiceNumber:     "INV-002",
						OutstandingAmount: 950,
						DueDate:           testNow.Add(2 * 24 * time.Hour),
					},
				}, nil
			}
			return nil, nil
		},
	}
	a := newTestAggregator(t, client)

	generated := a.Generate(context.Background())
	if len(generated) != 2 {
		t.Fatalf("expected 2 notifications, got %d: %v", len(generated), generated)
	}

	byID := make(map[string]model.Notification, len(generated))
	for _, n := range generated {
		byID[n.ID] = n
	}

	overdue, ok := byID[model.PrefixPartialPaymentOverdue+"s1"]
	if !ok {
		t.Fatalf("missing overdue record, got IDs %v", ids(generated))
	}
	if overdue.Type != model.TypeError {
		t.Errorf("overdue type = %q, want error", overdue.Type)
	}

	due, ok := byID[model.PrefixPartialPayment+"s2"]
	if !ok {
		t.Fatalf("missing due-soon record, got IDs %v", ids(generated))
	}
	if due.Type != model.TypeWarning {
		t.Errorf("due-soon type = %q, want warning", due.Type)
	}
}

func TestPartialPaymentOutsideWindowSkipped(t *testing.T) {
	client := &fakeClient{
		sales: func(f accounting.SaleFilter) ([]accounting.Sale, error) {
			if f.Status == accounting.SaleStatusPartial {
				return []accounting.Sale{{
					ID:            "s1",
					InvoiceNumber: "INV-001",
					DueDate:       testNow.Add(10 * 24 * time.Hour),
				}}, nil
			}
			return nil, nil
		},
	}
	a := newTestAggregator(t, client)

	if generated := a.Generate(context.Background()); len(generated) != 0 {
		t.Fatalf("invoice due in 10 days should be skipped, got %v", generated)
	}
}

func TestHighValueOutstanding(t *testing.T) {
	var gotFilter accounting.SaleFilter
	client := &fakeClient{
		sales: func(f accounting.SaleFilter) ([]accounting.Sale, error) {
			if f.MinOutstanding > 0 {
				gotFilter = f
				return []accounting.Sale{{
					ID:                "s9",
					InvoiceNumber:     "INV-009",
					CustomerID:        "c1",
					CustomerName:      "Acme Traders",
					OutstandingAmount: 18500.50,
					Status:            accounting.SaleStatusUnpaid,
				}}, nil
			}
			return nil, nil
		},
	}
	a := newTestAggregator(t, client)

	generated := a.Generate(context.Background())
	if len(generated) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(generated))
	}

	if gotFilter.MinOutstanding != 10000 {
		t.Errorf("threshold = %v, want default 10000", gotFilter.MinOutstanding)
	}

	n := generated[0]
	if n.ID != model.PrefixHighValue+"s9" {
		t.Errorf("id = %q, want %q", n.ID, model.PrefixHighValue+"s9")
	}
	if n.Type != model.TypeWarning {
		t.Errorf("type = %q, want warning", n.Type)
	}
	if !strings.Contains(n.Message, "18,500.50") {
		t.Errorf("message %q missing formatted amount", n.Message)
	}
	if !strings.Contains(n.Message, "Acme Traders") {
		t.Errorf("message %q missing customer name", n.Message)
	}
}

func TestTodayCustomersFilteredClientSide(t *testing.T) {
	client := &fakeClient{
		customers: func(page, pageSize int) ([]accounting.Customer, error) {
			return []accounting.Customer{
				{ID: "c1", Name: "New Today", CreatedAt: testNow.Add(-2 * time.Hour)},
				{ID: "c2", Name: "Also Today", CreatedAt: testNow.Add(-10 * time.Hour)},
				{ID: "c3", Name: "Yesterday", CreatedAt: testNow.Add(-26 * time.Hour)},
			}, nil
		},
	}
	a := newTestAggregator(t, client)

	generated := a.Generate(context.Background())
	if len(generated) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(generated))
	}

	n := generated[0]
	if n.ID != model.IDTodayCustomers {
		t.Errorf("id = %q, want %q", n.ID, model.IDTodayCustomers)
	}
	if got := n.Metadata["customer_count"]; got != 2 {
		t.Errorf("customer_count = %v, want 2", got)
	}
}

func TestRecentPaymentsCarryMetadata(t *testing.T) {
	client := paymentsClient(accounting.Payment{
		ID:            "p7",
		SaleID:        "s7",
		InvoiceNumber: "INV-007",
		Amount:        2500,
		CreatedAt:     testNow.Add(-30 * time.Minute),
	})
	a := newTestAggregator(t, client)

	generated := a.Generate(context.Background())
	if len(generated) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(generated))
	}

	n := generated[0]
	if n.ID != model.PrefixPayment+"p7" {
		t.Errorf("id = %q, want payment-p7", n.ID)
	}
	if n.Type != model.TypeSuccess {
		t.Errorf("type = %q, want success", n.Type)
	}
	if n.Metadata["sale_id"] != "s7" || n.Metadata["invoice_number"] != "INV-007" {
		t.Errorf("metadata = %v", n.Metadata)
	}
	if !n.Timestamp.Equal(testNow.Add(-30 * time.Minute)) {
		t.Errorf("timestamp = %v, want payment time", n.Timestamp)
	}
}

func TestGenerateSortsByTimestampDescending(t *testing.T) {
	client := paymentsClient(
		accounting.Payment{ID: "old", SaleID: "s1", InvoiceNumber: "I1", Amount: 1, CreatedAt: testNow.Add(-3 * time.Hour)},
		accounting.Payment{ID: "new", SaleID: "s2", InvoiceNumber: "I2", Amount: 1, CreatedAt: testNow.Add(-time.Hour)},
	)
	a := newTestAggregator(t, client)

	generated := a.Generate(context.Background())
	if len(generated) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(generated))
	}
	if generated[0].ID != "payment-new" || generated[1].ID != "payment-old" {
		t.Fatalf("wrong order: %v", ids(generated))
	}
}

func ids(items []model.Notification) []string {
	out := make([]string, len(items))
	for i, n := range items {
		out[i] = n.ID
	}
	return out
}
