package scheduler

import (
	"context"
	"testing"
	"time"

	"job-dashboard/core/models"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

const (
	waitFor = time.Second
	tick    = 5 * time.Millisecond
)

type harness struct {
	t        *testing.T
	clock    clockwork.FakeClock
	sched    *Scheduler
	refreshN atomic.Int32
	pollN    atomic.Int32
	cancel   context.CancelFunc
}

func startHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{t: t, clock: clockwork.NewFakeClock()}
	h.sched = NewScheduler(h.clock, DefaultIntervals(),
		func(ctx context.Context) { h.refreshN.Inc() },
		func(ctx context.Context) { h.pollN.Inc() },
		nil,
	)

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go h.sched.Start(ctx)
	t.Cleanup(func() {
		cancel()
		<-h.sched.Done()
	})

	h.clock.BlockUntil(1)
	h.waitRefreshes(1)
	return h
}

// advance moves the clock forward one second at a time so that no tick is
// coalesced in a ticker's buffer
func (h *harness) advance(d time.Duration) {
	for step := time.Duration(0); step < d; step += time.Second {
		h.clock.Advance(time.Second)
		time.Sleep(time.Millisecond)
	}
}

func (h *harness) waitRefreshes(n int32) {
	h.t.Helper()
	require.Eventually(h.t, func() bool { return h.refreshN.Load() == n }, waitFor, tick)
}

func (h *harness) waitPolls(n int32) {
	h.t.Helper()
	require.Eventually(h.t, func() bool { return h.pollN.Load() == n }, waitFor, tick)
}

func TestBaselineFiresImmediatelyAndPeriodically(t *testing.T) {
	h := startHarness(t)

	h.clock.Advance(9 * time.Second)
	require.Never(t, func() bool { return h.refreshN.Load() != 1 }, 50*time.Millisecond, tick)

	h.clock.Advance(time.Second)
	h.waitRefreshes(2)

	h.clock.Advance(10 * time.Second)
	h.waitRefreshes(3)
	require.Zero(t, h.pollN.Load())
}

func TestLogsOnlyPollDuringSession(t *testing.T) {
	h := startHarness(t)

	h.clock.Advance(2 * time.Second)
	require.Never(t, func() bool { return h.pollN.Load() > 0 }, 50*time.Millisecond, tick)

	require.NoError(t, h.sched.StartSession(context.Background()))
	require.True(t, h.sched.SessionActive())

	h.clock.Advance(2 * time.Second)
	h.waitPolls(1)
	h.clock.Advance(2 * time.Second)
	h.waitPolls(2)

	require.NoError(t, h.sched.StopSession(context.Background()))
	require.False(t, h.sched.SessionActive())

	h.clock.Advance(4 * time.Second)
	require.Never(t, func() bool { return h.pollN.Load() != 2 }, 50*time.Millisecond, tick)
}

func TestSessionEndsAtCeiling(t *testing.T) {
	h := startHarness(t)
	ends := testutil.ToFloat64(sessionEnds.WithLabelValues(endCeiling))

	require.NoError(t, h.sched.StartSession(context.Background()))
	h.advance(59 * time.Second)
	require.True(t, h.sched.SessionActive())

	h.clock.Advance(time.Second)
	require.Eventually(t, func() bool { return !h.sched.SessionActive() }, waitFor, tick)
	require.Equal(t, ends+1, testutil.ToFloat64(sessionEnds.WithLabelValues(endCeiling)))

	// let a fetch fired alongside the ceiling finish
	time.Sleep(20 * time.Millisecond)
	polls := h.pollN.Load()
	require.NotZero(t, polls)
	h.advance(10 * time.Second)
	require.Never(t, func() bool { return h.pollN.Load() != polls }, 50*time.Millisecond, tick)
}

func TestRestartingSessionRestartsCeiling(t *testing.T) {
	h := startHarness(t)

	// Start at 0s, restart at 40s: the session must still be active at 70s
	// and end at 100s.
	require.NoError(t, h.sched.StartSession(context.Background()))
	h.advance(40 * time.Second)
	require.NoError(t, h.sched.StartSession(context.Background()))

	h.advance(30 * time.Second)
	require.Never(t, func() bool { return !h.sched.SessionActive() }, 50*time.Millisecond, tick)

	h.advance(30 * time.Second)
	require.Eventually(t, func() bool { return !h.sched.SessionActive() }, waitFor, tick)
}

func TestRestartKeepsSingleLogTicker(t *testing.T) {
	h := startHarness(t)

	require.NoError(t, h.sched.StartSession(context.Background()))
	require.NoError(t, h.sched.StartSession(context.Background()))
	require.NoError(t, h.sched.StartSession(context.Background()))

	// baseline ticker, log ticker and one ceiling timer
	h.clock.BlockUntil(3)

	h.clock.Advance(2 * time.Second)
	h.waitPolls(1)
	require.Never(t, func() bool { return h.pollN.Load() != 1 }, 50*time.Millisecond, tick)
}

func TestStopClosesScheduler(t *testing.T) {
	h := startHarness(t)
	require.NoError(t, h.sched.StartSession(context.Background()))

	h.sched.Stop()
	h.sched.Stop()
	<-h.sched.Done()

	require.False(t, h.sched.SessionActive())
	require.ErrorIs(t, h.sched.StartSession(context.Background()), models.ErrSessionClosed)
	require.ErrorIs(t, h.sched.StopSession(context.Background()), models.ErrSessionClosed)
}

func TestCancelledContextReachesInflightFetch(t *testing.T) {
	fc := clockwork.NewFakeClock()
	cancelled := make(chan struct{})
	s := NewScheduler(fc, DefaultIntervals(), func(ctx context.Context) {
		<-ctx.Done()
		close(cancelled)
	}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go s.Start(ctx)
	fc.BlockUntil(1)

	cancel()
	<-s.Done()
	select {
	case <-cancelled:
	case <-time.After(waitFor):
		t.Fatal("in-flight fetch was not cancelled")
	}
}

func TestSessionMetrics(t *testing.T) {
	h := startHarness(t)
	starts := testutil.ToFloat64(sessionStarts)

	require.NoError(t, h.sched.StartSession(context.Background()))
	require.Equal(t, float64(1), testutil.ToFloat64(sessionActive))
	require.Equal(t, starts+1, testutil.ToFloat64(sessionStarts))

	require.NoError(t, h.sched.StopSession(context.Background()))
	require.Equal(t, float64(0), testutil.ToFloat64(sessionActive))
}

func TestSessionBeforeStartIsRejected(t *testing.T) {
	s := NewScheduler(clockwork.NewFakeClock(), DefaultIntervals(), nil, nil, nil)

	require.ErrorIs(t, s.StartSession(context.Background()), models.ErrNotRunning)
	require.ErrorIs(t, s.StopSession(context.Background()), models.ErrNotRunning)
	require.False(t, s.SessionActive())
}

func TestEndSessionOnlyEndsItsGeneration(t *testing.T) {
	h := startHarness(t)
	ctx := context.Background()

	first, fresh, err := h.sched.OpenSession(ctx)
	require.NoError(t, err)
	require.True(t, fresh)

	second, fresh, err := h.sched.OpenSession(ctx)
	require.NoError(t, err)
	require.False(t, fresh)
	require.NotEqual(t, first, second)

	require.NoError(t, h.sched.EndSession(ctx, first))
	require.True(t, h.sched.SessionActive())

	require.NoError(t, h.sched.EndSession(ctx, second))
	require.False(t, h.sched.SessionActive())
}
