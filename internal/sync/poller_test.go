package sync_test

import (
	"context"
	"errors"
	gosync "sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/akhatri/ledger-alerts/internal/feed"
	appsync "github.com/akhatri/ledger-alerts/internal/sync"
)

type countingRefresher struct {
	mu    gosync.Mutex
	calls int
	err   error
}

func (r *countingRefresher) Refresh(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return r.err
}

func (r *countingRefresher) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestStartRunsImmediateCycle(t *testing.T) {
	r := &countingRefresher{}
	p := appsync.New(r, time.Hour, zerolog.Nop())
	p.Start()
	defer p.Stop()

	waitFor(t, time.Second, func() bool { return !p.Status().LastRun.IsZero() })

	if got := r.callCount(); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
	if err := p.Status().LastErr; err != nil {
		t.Errorf("LastErr = %v", err)
	}
}

func TestTriggerRunsExtraCycle(t *testing.T) {
	r := &countingRefresher{}
	p := appsync.New(r, time.Hour, zerolog.Nop())
	p.Start()
	defer p.Stop()

	waitFor(t, time.Second, func() bool { return r.callCount() == 1 })

	p.Trigger()
	waitFor(t, time.Second, func() bool { return r.callCount() == 2 })
}

func TestStopHaltsLoop(t *testing.T) {
	r := &countingRefresher{}
	p := appsync.New(r, 20*time.Millisecond, zerolog.Nop())
	p.Start()

	waitFor(t, time.Second, func() bool { return r.callCount() >= 2 })
	p.Stop()

	settled := r.callCount()
	time.Sleep(100 * time.Millisecond)
	if got := r.callCount(); got > settled+1 {
		t.Errorf("cycles kept running after Stop: %d -> %d", settled, got)
	}
}

func TestFailedCycleRecordsError(t *testing.T) {
	wantErr := errors.New("backend down")
	r := &countingRefresher{err: wantErr}
	p := appsync.New(r, time.Hour, zerolog.Nop())
	p.Start()
	defer p.Stop()

	waitFor(t, time.Second, func() bool { return r.callCount() == 1 })
	waitFor(t, time.Second, func() bool { return p.Status().LastErr != nil })

	if got := p.Status().LastErr; !errors.Is(got, wantErr) {
		t.Errorf("LastErr = %v, want %v", got, wantErr)
	}
}

func TestInFlightRefreshSkipsQuietly(t *testing.T) {
	r := &countingRefresher{err: feed.ErrRefreshInFlight}
	p := appsync.New(r, time.Hour, zerolog.Nop())
	p.Start()
	defer p.Stop()

	waitFor(t, time.Second, func() bool { return r.callCount() == 1 })

	// A skipped cycle leaves the previous status in place.
	if status := p.Status(); status.LastErr != nil || !status.LastRun.IsZero() {
		t.Errorf("status after skipped cycle = %+v, want zero value", status)
	}
}
