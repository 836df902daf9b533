package store

import (
	"context"
	"time"

	"github.com/akhatri/ledger-alerts/internal/model"
)

// Store defines the persistence interface for the notification feed:
// the read-ID set that survives restarts, and a snapshot of the current
// feed so a restart resumes with the previous list.
type Store interface {
	// === Read marks ===

	// GetReadIDs returns every notification ID the user has marked read
	// (or removed).
	GetReadIDs(ctx context.Context) ([]string, error)

	// AddReadMarks records the given IDs as read. Already-marked IDs
	// keep their original mark time.
	AddReadMarks(ctx context.Context, ids ...string) error

	// PruneReadMarks deletes marks older than the cutoff and reports
	// how many were removed.
	PruneReadMarks(ctx context.Context, olderThan time.Time) (int64, error)

	// === Feed snapshot ===

	// SaveSnapshot replaces the stored feed with the given list,
	// preserving order.
	SaveSnapshot(ctx context.Context, items []model.Notification) error

	// LoadSnapshot returns the stored feed in its saved order.
	LoadSnapshot(ctx context.Context) ([]model.Notification, error)

	Close() error
}
