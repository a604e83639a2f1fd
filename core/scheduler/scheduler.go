package scheduler

import (
	"context"
	"sync"
	"time"

	"job-dashboard/core/models"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"
)

// Intervals configures the polling cadences and the active-session ceiling
type Intervals struct {
	Baseline time.Duration // job-list refresh, always running
	Logs     time.Duration // log polling, only while a session is active
	Ceiling  time.Duration // maximum lifetime of an active session
}

// DefaultIntervals returns the dashboard's standard cadences
func DefaultIntervals() Intervals {
	return Intervals{
		Baseline: 10 * time.Second,
		Logs:     2 * time.Second,
		Ceiling:  60 * time.Second,
	}
}

// FetchFunc issues one fetch. It is run in its own goroutine per tick so a
// slow response never delays the next tick.
type FetchFunc func(ctx context.Context)

// Scheduler drives the baseline job-list cycle and the active-session log
// cycle from a single event loop
type Scheduler struct {
	clock       clockwork.Clock
	intervals   Intervals
	refreshJobs FetchFunc
	pollLogs    FetchFunc
	log         *logrus.Entry

	commands chan command
	stopChan chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	running  atomic.Bool
	active   atomic.Bool
}

// Session identifies one start of the active session. Each StartSession call
// opens a new generation, including restarts of a session already running.
type Session uint64

type command struct {
	start bool
	// only ends the session if it is still the given generation; zero means any
	only Session
	ack  chan reply
}

type reply struct {
	gen   Session
	fresh bool
}

// NewScheduler creates a new scheduler
func NewScheduler(
	clock clockwork.Clock,
	intervals Intervals,
	refreshJobs FetchFunc,
	pollLogs FetchFunc,
	log *logrus.Entry,
) *Scheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Scheduler{
		clock:       clock,
		intervals:   intervals,
		refreshJobs: refreshJobs,
		pollLogs:    pollLogs,
		log:         log.WithField("component", "scheduler"),
		commands:    make(chan command),
		stopChan:    make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// Start runs the event loop until ctx is cancelled or Stop is called. The
// job list is fetched once immediately. Fetches still in flight when the loop
// exits have their context cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	if !s.running.CompareAndSwap(false, true) {
		return
	}
	defer close(s.done)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	baseline := s.clock.NewTicker(s.intervals.Baseline)
	defer baseline.Stop()

	s.fire(runCtx, cycleBaseline, s.refreshJobs)

	var (
		logTicker clockwork.Ticker
		logC      <-chan time.Time
		ceiling   clockwork.Timer
		ceilingC  <-chan time.Time
		current   Session
	)

	endSession := func(reason string) {
		if logTicker != nil {
			logTicker.Stop()
			logTicker, logC = nil, nil
		}
		if ceiling != nil {
			ceiling.Stop()
			ceiling, ceilingC = nil, nil
		}
		if s.active.CompareAndSwap(true, false) {
			sessionActive.Set(0)
			sessionEnds.WithLabelValues(reason).Inc()
			s.log.WithField("reason", reason).Info("Active session ended")
		}
	}
	defer func() { endSession(endShutdown) }()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopChan:
			return
		case <-baseline.Chan():
			s.fire(runCtx, cycleBaseline, s.refreshJobs)
		case <-logC:
			s.fire(runCtx, cycleLogs, s.pollLogs)
		case <-ceilingC:
			endSession(endCeiling)
		case cmd := <-s.commands:
			r := reply{}
			switch {
			case cmd.start:
				r.fresh = !s.active.Load()
				// Exactly one expiration timer is live at a time.
				if ceiling != nil {
					ceiling.Stop()
				}
				ceiling = s.clock.NewTimer(s.intervals.Ceiling)
				ceilingC = ceiling.Chan()
				if logTicker == nil {
					logTicker = s.clock.NewTicker(s.intervals.Logs)
					logC = logTicker.Chan()
				}
				s.active.Store(true)
				if r.fresh {
					s.log.WithField("ceiling", s.intervals.Ceiling).Info("Active session started")
				}
				sessionActive.Set(1)
				sessionStarts.Inc()
				current++
			case cmd.only == 0 || cmd.only == current:
				endSession(endExplicit)
			}
			r.gen = current
			cmd.ack <- r
		}
	}
}

func (s *Scheduler) fire(ctx context.Context, cycle string, fn FetchFunc) {
	if fn == nil {
		return
	}
	pollTicks.WithLabelValues(cycle).Inc()
	go fn(ctx)
}

// StartSession enters the active session, or restarts its ceiling when one is
// already active. The session is active when StartSession returns.
func (s *Scheduler) StartSession(ctx context.Context) error {
	_, err := s.send(ctx, command{start: true})
	return err
}

// OpenSession is StartSession returning the generation it opened, for use
// with EndSession. fresh is false when a session was already active.
func (s *Scheduler) OpenSession(ctx context.Context) (gen Session, fresh bool, err error) {
	r, err := s.send(ctx, command{start: true})
	return r.gen, r.fresh, err
}

// StopSession ends the active session, if any
func (s *Scheduler) StopSession(ctx context.Context) error {
	_, err := s.send(ctx, command{})
	return err
}

// EndSession ends the active session only while it is still generation gen.
// A session restarted since gen was opened is left running.
func (s *Scheduler) EndSession(ctx context.Context, gen Session) error {
	if gen == 0 {
		return nil
	}
	_, err := s.send(ctx, command{only: gen})
	return err
}

func (s *Scheduler) send(ctx context.Context, cmd command) (reply, error) {
	if !s.running.Load() {
		return reply{}, models.ErrNotRunning
	}
	cmd.ack = make(chan reply, 1)
	select {
	case s.commands <- cmd:
	case <-s.stopChan:
		return reply{}, models.ErrSessionClosed
	case <-s.done:
		return reply{}, models.ErrSessionClosed
	case <-ctx.Done():
		return reply{}, ctx.Err()
	}
	select {
	case r := <-cmd.ack:
		return r, nil
	case <-s.done:
		return reply{}, models.ErrSessionClosed
	}
}

// SessionActive reports whether log polling is currently enabled
func (s *Scheduler) SessionActive() bool {
	return s.active.Load()
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
}

// Done is closed once the event loop has exited
func (s *Scheduler) Done() <-chan struct{} {
	return s.done
}
