package sync

import (
	"context"
	"errors"
	gosync "sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/akhatri/ledger-alerts/internal/feed"
)

// cycleTimeout bounds a single generation cycle across all sources.
const cycleTimeout = 45 * time.Second

// Refresher runs one generation cycle of the notification feed.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Status reports the poller's last cycle outcome.
type Status struct {
	LastRun time.Time
	LastErr error
}

// Poller drives the aggregator on a fixed interval plus on-demand
// triggers. A failed cycle is not retried; the next tick is the only
// retry mechanism.
type Poller struct {
	feed     Refresher
	interval time.Duration
	log      zerolog.Logger

	triggerCh chan struct{}
	stopCh    chan struct{}

	mu      gosync.Mutex
	running bool
	status  Status
}

// New creates a Poller that refreshes the feed every interval.
func New(f Refresher, interval time.Duration, log zerolog.Logger) *Poller {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Poller{
		feed:      f,
		interval:  interval,
		log:       log,
		triggerCh: make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
	}
}

// Start launches the polling loop. The first cycle runs immediately.
func (p *Poller) Start() {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.mu.Unlock()

	go p.loop()
}

// Stop halts the polling loop.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}
	close(p.stopCh)
	p.running = false
}

// Trigger requests an immediate cycle without blocking. A trigger while
// one is already queued is dropped.
func (p *Poller) Trigger() {
	select {
	case p.triggerCh <- struct{}{}:
	default:
	}
}

// Status returns the outcome of the most recent cycle.
func (p *Poller) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

func (p *Poller) loop() {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.runCycle()

	for {
		select {
		case <-p.stopCh:
			p.log.Info().Msg("poller stopped")
			return
		case <-ticker.C:
			p.runCycle()
		case <-p.triggerCh:
			p.runCycle()
		}
	}
}

func (p *Poller) runCycle() {
	ctx, cancel := context.WithTimeout(context.Background(), cycleTimeout)
	defer cancel()

	err := p.feed.Refresh(ctx)
	if errors.Is(err, feed.ErrRefreshInFlight) {
		// A manual refresh is already running; this tick simply skips.
		p.log.Debug().Msg("cycle skipped, refresh already in flight")
		return
	}
	if err != nil {
		p.log.Error().Err(err).Msg("generation cycle failed")
	}

	p.mu.Lock()
	p.status = Status{LastRun: time.Now(), LastErr: err}
	p.mu.Unlock()
}
