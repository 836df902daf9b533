package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/akhatri/ledger-alerts/internal/model"
	"github.com/akhatri/ledger-alerts/tests/testutil"
)

func TestReadMarksRoundTrip(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	ids, err := s.GetReadIDs(ctx)
	if err != nil {
		t.Fatalf("getting read ids: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("expected empty read set, got %v", ids)
	}

	if err := s.AddReadMarks(ctx, "overdue-invoices", "payment-p1"); err != nil {
		t.Fatalf("adding read marks: %v", err)
	}
	// Re-marking an existing ID must not fail.
	if err := s.AddReadMarks(ctx, "payment-p1"); err != nil {
		t.Fatalf("re-adding read mark: %v", err)
	}

	ids, err = s.GetReadIDs(ctx)
	if err != nil {
		t.Fatalf("getting read ids: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 read ids, got %d: %v", len(ids), ids)
	}
}

func TestPruneReadMarks(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	if err := s.AddReadMarks(ctx, "payment-old", "payment-new"); err != nil {
		t.Fatalf("adding read marks: %v", err)
	}

	// Everything was just written, so a cutoff in the past prunes nothing.
	pruned, err := s.PruneReadMarks(ctx, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("pruning: %v", err)
	}
	if pruned != 0 {
		t.Fatalf("expected 0 pruned, got %d", pruned)
	}

	// A cutoff in the future prunes everything.
	pruned, err = s.PruneReadMarks(ctx, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("pruning: %v", err)
	}
	if pruned != 2 {
		t.Fatalf("expected 2 pruned, got %d", pruned)
	}

	ids, err := s.GetReadIDs(ctx)
	if err != nil {
		t.Fatalf("getting read ids: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("expected empty read set after prune, got %v", ids)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	now := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	items := []model.Notification{
		{
			ID:        "manual-abc",
			Type:      model.TypeInfo,
			Title:     "Reminder",
			Message:   "Close the quarter",
			Timestamp: now,
		},
		{
			ID:         "overdue-invoices",
			Type:       model.TypeWarning,
			Title:      "Overdue Invoices",
			Message:    "2 overdue invoice(s) with 7,500 outstanding",
			Timestamp:  now.Add(-time.Hour),
			Read:       true,
			ActionURL:  "/sales?status=overdue",
			ActionText: "View Invoices",
			Metadata:   map[string]any{"count": float64(2), "total_outstanding": 7500.0},
		},
	}

	if err := s.SaveSnapshot(ctx, items); err != nil {
		t.Fatalf("saving snapshot: %v", err)
	}

	loaded, err := s.LoadSnapshot(ctx)
	if err != nil {
		t.Fatalf("loading snapshot: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(loaded))
	}

	// Order is by saved position, not timestamp.
	if loaded[0].ID != "manual-abc" || loaded[1].ID != "overdue-invoices" {
		t.Fatalf("wrong order: %s, %s", loaded[0].ID, loaded[1].ID)
	}
	if !loaded[1].Read {
		t.Error("read flag lost in round trip")
	}
	if loaded[1].ActionURL != "/sales?status=overdue" {
		t.Errorf("action url lost: %q", loaded[1].ActionURL)
	}
	if got := loaded[1].Metadata["total_outstanding"]; got != 7500.0 {
		t.Errorf("metadata total_outstanding = %v, want 7500", got)
	}
	if !loaded[0].Timestamp.Equal(now) {
		t.Errorf("timestamp = %v, want %v", loaded[0].Timestamp, now)
	}
}

func TestSaveSnapshotReplacesPrevious(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	first := []model.Notification{
		{ID: "a", Type: model.TypeInfo, Title: "t", Message: "m", Timestamp: time.Now()},
		{ID: "b", Type: model.TypeInfo, Title: "t", Message: "m", Timestamp: time.Now()},
	}
	if err := s.SaveSnapshot(ctx, first); err != nil {
		t.Fatalf("saving first snapshot: %v", err)
	}

	second := []model.Notification{
		{ID: "c", Type: model.TypeError, Title: "t", Message: "m", Timestamp: time.Now()},
	}
	if err := s.SaveSnapshot(ctx, second); err != nil {
		t.Fatalf("saving second snapshot: %v", err)
	}

	loaded, err := s.LoadSnapshot(ctx)
	if err != nil {
		t.Fatalf("loading snapshot: %v", err)
	}
	if len(loaded) != 1 || loaded[0].ID != "c" {
		t.Fatalf("expected only entry c, got %v", loaded)
	}
}
