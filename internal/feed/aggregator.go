package feed

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/akhatri/ledger-alerts/internal/accounting"
	"github.com/akhatri/ledger-alerts/internal/model"
	"github.com/akhatri/ledger-alerts/internal/store"
)

// MaxFeedSize caps the in-memory feed. Merging drops entries past the
// cap by list position; insertion order is authoritative, not timestamps.
const MaxFeedSize = 50

// defaultHighValueThreshold is the minimum outstanding amount for an
// unpaid invoice to raise a high-value alert when no threshold is
// configured.
const defaultHighValueThreshold = 10000

var (
	// ErrRefreshInFlight is returned when a refresh is requested while
	// a generation cycle is already running.
	ErrRefreshInFlight = errors.New("generation cycle already in progress")

	// ErrNotFound is returned when a notification ID is not in the feed.
	ErrNotFound = errors.New("notification not found")
)

// Client is the subset of the accounting API the aggregator consumes.
type Client interface {
	ListSales(ctx context.Context, f accounting.SaleFilter) ([]accounting.Sale, error)
	ListRecentPayments(ctx context.Context, limit int) ([]accounting.Payment, error)
	ListCustomers(ctx context.Context, page, pageSize int) ([]accounting.Customer, error)
}

// Options configures an Aggregator.
type Options struct {
	// HighValueThreshold overrides the default outstanding-amount
	// threshold for high-value alerts.
	HighValueThreshold float64

	// Clock supplies the current time; defaults to time.Now.
	// Injected so tests can pin "today".
	Clock func() time.Time

	Logger zerolog.Logger

	// OnUpdate is invoked with a copy of the feed after every change
	// (merge, add, mark read, remove). Used to push live updates.
	OnUpdate func(items []model.Notification)
}

// Aggregator produces a de-duplicated, freshness-ordered, read-state
// consistent notification feed from the accounting backend's signals.
// All methods are safe for concurrent use.
type Aggregator struct {
	client    Client
	store     store.Store
	clock     func() time.Time
	log       zerolog.Logger
	threshold float64
	onUpdate  func(items []model.Notification)

	mu         sync.Mutex
	items      []model.Notification
	readIDs    map[string]bool
	generating bool
}

// New creates an Aggregator over the given backend client and store.
func New(client Client, st store.Store, opts Options) *Aggregator {
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	threshold := opts.HighValueThreshold
	if threshold <= 0 {
		threshold = defaultHighValueThreshold
	}
	return &Aggregator{
		client:    client,
		store:     st,
		clock:     clock,
		log:       opts.Logger,
		threshold: threshold,
		onUpdate:  opts.OnUpdate,
		readIDs:   make(map[string]bool),
	}
}

// Init loads the persisted read-ID set and the previous feed snapshot.
// Corrupt or missing persisted state degrades to an empty set and an
// empty feed; it is never fatal.
func (a *Aggregator) Init(ctx context.Context) {
	readIDs := make(map[string]bool)
	ids, err := a.store.GetReadIDs(ctx)
	if err != nil {
		a.log.Warn().Err(err).Msg("loading read marks failed, starting with empty set")
	} else {
		for _, id := range ids {
			readIDs[id] = true
		}
	}

	items, err := a.store.LoadSnapshot(ctx)
	if err != nil {
		a.log.Warn().Err(err).Msg("loading feed snapshot failed, starting empty")
		items = nil
	}
	for i := range items {
		items[i].Read = items[i].Read || readIDs[items[i].ID]
	}

	a.mu.Lock()
	a.readIDs = readIDs
	a.items = items
	a.mu.Unlock()
}

// Refresh runs one generation cycle: fetch all signal sources, build
// records, reconcile against the existing feed and read-ID set, and
// truncate to the cap. A second refresh while a cycle is in flight
// returns ErrRefreshInFlight; the next scheduled tick is the only
// retry mechanism.
func (a *Aggregator) Refresh(ctx context.Context) error {
	a.mu.Lock()
	if a.generating {
		a.mu.Unlock()
		return ErrRefreshInFlight
	}
	a.generating = true
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		a.generating = false
		a.mu.Unlock()
	}()

	generated := a.Generate(ctx)

	a.mu.Lock()
	a.items = mergeFeeds(a.items, generated, a.readIDs)
	items := a.snapshotLocked()
	a.mu.Unlock()

	a.persist(ctx, items)
	a.notify(items)
	return nil
}

// Generate fetches each signal source independently and returns the
// produced records sorted by timestamp descending. A failing source is
// logged and contributes nothing this cycle; it never aborts the others.
func (a *Aggregator) Generate(ctx context.Context) []model.Notification {
	type signal struct {
		name string
		fn   func(context.Context) ([]model.Notification, error)
	}

	signals := []signal{
		{"overdue-invoices", a.overdueInvoices},
		{"recent-payments", a.recentPayments},
		{"today-sales", a.todaySales},
		{"today-customers", a.todayCustomers},
		{"partial-payments", a.partialPayments},
		{"high-value", a.highValueOutstanding},
	}

	var generated []model.Notification
	for _, s := range signals {
		items, err := s.fn(ctx)
		if err != nil {
			a.log.Warn().Err(err).Str("signal", s.name).Msg("signal fetch failed, skipping this cycle")
			continue
		}
		generated = append(generated, items...)
	}

	sort.SliceStable(generated, func(i, j int) bool {
		return generated[i].Timestamp.After(generated[j].Timestamp)
	})

	return generated
}

// mergeFeeds prepends generated records whose IDs are not already in
// existing, ORs every record's read flag with membership in the
// persisted read-ID set, and truncates to MaxFeedSize by list position.
func mergeFeeds(
	existing, generated []model.Notification,
	readIDs map[string]bool,
) []model.Notification {
	seen := make(map[string]bool, len(existing))
	for _, n := range existing {
		seen[n.ID] = true
	}

	merged := make([]model.Notification, 0, len(existing)+len(generated))
	for _, n := range generated {
		if seen[n.ID] {
			continue
		}
		n.Read = n.Read || readIDs[n.ID]
		merged = append(merged, n)
	}
	for _, n := range existing {
		n.Read = n.Read || readIDs[n.ID]
		merged = append(merged, n)
	}

	if len(merged) > MaxFeedSize {
		merged = merged[:MaxFeedSize]
	}
	return merged
}

// Notifications returns a copy of the current feed.
func (a *Aggregator) Notifications() []model.Notification {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshotLocked()
}

// UnreadCount returns the number of unread entries in the feed.
func (a *Aggregator) UnreadCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	count := 0
	for _, n := range a.items {
		if !n.Read {
			count++
		}
	}
	return count
}

// MarkAsRead marks a single notification as read and persists its ID so
// the read state survives regeneration.
func (a *Aggregator) MarkAsRead(ctx context.Context, id string) error {
	a.mu.Lock()
	idx := a.indexOfLocked(id)
	if idx < 0 {
		a.mu.Unlock()
		return ErrNotFound
	}
	a.items[idx].Read = true
	a.readIDs[id] = true
	items := a.snapshotLocked()
	a.mu.Unlock()

	a.persistReadMarks(ctx, id)
	a.persist(ctx, items)
	a.notify(items)
	return nil
}

// MarkAllAsRead marks every entry in the feed as read and persists all
// of their IDs.
func (a *Aggregator) MarkAllAsRead(ctx context.Context) {
	a.mu.Lock()
	ids := make([]string, 0, len(a.items))
	for i := range a.items {
		a.items[i].Read = true
		a.readIDs[a.items[i].ID] = true
		ids = append(ids, a.items[i].ID)
	}
	items := a.snapshotLocked()
	a.mu.Unlock()

	a.persistReadMarks(ctx, ids...)
	a.persist(ctx, items)
	a.notify(items)
}

// Remove deletes a notification from the feed. Its ID is also marked
// read so a later generation cycle cannot resurface it as unread.
func (a *Aggregator) Remove(ctx context.Context, id string) error {
	a.mu.Lock()
	idx := a.indexOfLocked(id)
	if idx < 0 {
		a.mu.Unlock()
		return ErrNotFound
	}
	a.items = append(a.items[:idx], a.items[idx+1:]...)
	a.readIDs[id] = true
	items := a.snapshotLocked()
	a.mu.Unlock()

	a.persistReadMarks(ctx, id)
	a.persist(ctx, items)
	a.notify(items)
	return nil
}

// Add inserts a manually constructed notification at the head of the
// feed with a fresh unique ID, unread by default. Manual entries are
// one-shot: they bypass the deterministic-ID reconciliation and the
// feed is not re-sorted, so a manual entry stays at the head even when
// its timestamp predates generated entries.
func (a *Aggregator) Add(ctx context.Context, n model.Notification) model.Notification {
	n.ID = model.PrefixManual + uuid.New().String()
	n.Read = false
	if n.Timestamp.IsZero() {
		n.Timestamp = a.clock()
	}

	a.mu.Lock()
	a.items = append([]model.Notification{n}, a.items...)
	if len(a.items) > MaxFeedSize {
		a.items = a.items[:MaxFeedSize]
	}
	items := a.snapshotLocked()
	a.mu.Unlock()

	a.persist(ctx, items)
	a.notify(items)
	return n
}

// indexOfLocked returns the position of id in the feed, or -1.
// Caller must hold a.mu.
func (a *Aggregator) indexOfLocked(id string) int {
	for i := range a.items {
		if a.items[i].ID == id {
			return i
		}
	}
	return -1
}

// snapshotLocked copies the feed. Caller must hold a.mu.
func (a *Aggregator) snapshotLocked() []model.Notification {
	items := make([]model.Notification, len(a.items))
	copy(items, a.items)
	return items
}

// persistReadMarks writes read marks to the store. Failures only cost
// durability across restarts, so they are logged and swallowed.
func (a *Aggregator) persistReadMarks(ctx context.Context, ids ...string) {
	if err := a.store.AddReadMarks(ctx, ids...); err != nil {
		a.log.Warn().Err(err).Msg("persisting read marks failed")
	}
}

// persist writes the feed snapshot to the store. Failures are logged
// and swallowed for the same reason as read marks.
func (a *Aggregator) persist(ctx context.Context, items []model.Notification) {
	if err := a.store.SaveSnapshot(ctx, items); err != nil {
		a.log.Warn().Err(err).Msg("persisting feed snapshot failed")
	}
}

func (a *Aggregator) notify(items []model.Notification) {
	if a.onUpdate != nil {
		a.onUpdate(items)
	}
}
