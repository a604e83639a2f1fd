package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"job-dashboard/core/logstream"
	"job-dashboard/core/models"
	"job-dashboard/core/registry"
	"job-dashboard/core/repository"
	"job-dashboard/core/scheduler"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"
)

// ErrJobNotFound is returned when a job is neither visible nor known to the backend
var ErrJobNotFound = errors.New("job not found")

// Options configures a Dashboard
type Options struct {
	Intervals      scheduler.Intervals
	LogBufferLimit int
	Clock          clockwork.Clock
	Notifier       Notifier
	Logger         *logrus.Entry
}

// JobRow is a job together with its client-side display state
type JobRow[S models.Stage, R comparable] struct {
	Job          models.Job[S, R]
	CoarseStatus models.OverallStatus
	StageLabel   string
	Pending      bool
	Actionable   bool
}

// Dashboard owns all client-side state: the job registry, the log stream and
// the polling scheduler. State is only mutated through its methods.
type Dashboard[S models.Stage, R comparable] struct {
	backend   repository.Backend[S, R]
	registry  *registry.Registry[S, R]
	logs      *logstream.Stream
	scheduler *scheduler.Scheduler
	notifier  Notifier
	log       *logrus.Entry

	closed  atomic.Bool
	loading atomic.Int32

	warnedMu sync.Mutex
	warned   map[string]string
}

// New creates a dashboard polling backend
func New[S models.Stage, R comparable](backend repository.Backend[S, R], opts Options) *Dashboard[S, R] {
	if opts.Logger == nil {
		opts.Logger = logrus.NewEntry(logrus.StandardLogger())
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Intervals == (scheduler.Intervals{}) {
		opts.Intervals = scheduler.DefaultIntervals()
	}
	if opts.Notifier == nil {
		opts.Notifier = NewInbox(0, opts.Logger)
	}

	d := &Dashboard[S, R]{
		backend:  backend,
		registry: registry.New[S, R](backend, opts.Logger),
		logs:     logstream.New(opts.LogBufferLimit, opts.Clock.Now),
		notifier: opts.Notifier,
		log:      opts.Logger.WithField("component", "dashboard"),
		warned:   make(map[string]string),
	}
	d.registry.OnInconsistency(d.flagInconsistency)
	d.registry.OnReconcile(d.pruneWarned)
	d.scheduler = scheduler.NewScheduler(opts.Clock, opts.Intervals, d.baselineTick, d.logTick, opts.Logger)
	return d
}

// Run starts polling and blocks until ctx is cancelled or Close is called
func (d *Dashboard[S, R]) Run(ctx context.Context) {
	d.scheduler.Start(ctx)
}

// Close stops all timers. Responses still in flight are discarded.
func (d *Dashboard[S, R]) Close() {
	if !d.closed.CompareAndSwap(false, true) {
		return
	}
	d.registry.Dispose()
	d.logs.Dispose()
	d.scheduler.Stop()
}

func (d *Dashboard[S, R]) baselineTick(ctx context.Context) {
	if err := d.RefreshJobs(ctx); err != nil {
		d.notifyError("Error", "Failed to fetch jobs", err)
	}
}

func (d *Dashboard[S, R]) logTick(ctx context.Context) {
	if err := d.PollLogs(ctx); err != nil {
		// Log polling failures are not surfaced; the next tick retries.
		d.log.WithError(err).Debug("Log poll failed")
	}
}

// RefreshJobs fetches the job list and reconciles it into the registry
func (d *Dashboard[S, R]) RefreshJobs(ctx context.Context) error {
	d.loading.Inc()
	defer d.loading.Dec()

	if err := d.registry.Refresh(ctx); err != nil {
		fetchFailures.WithLabelValues(opListJobs).Inc()
		return err
	}
	return nil
}

// PollLogs fetches the log feed and hands it to the log stream
func (d *Dashboard[S, R]) PollLogs(ctx context.Context) error {
	entries, err := d.backend.GetLogs(ctx)
	if err != nil {
		fetchFailures.WithLabelValues(opGetLogs).Inc()
		return err
	}
	d.logs.Append(entries)
	return nil
}

func (d *Dashboard[S, R]) flagInconsistency(err error) {
	var jobID string
	var derr *models.Error
	if errors.As(err, &derr) {
		jobID = derr.JobID
	}

	d.warnedMu.Lock()
	if d.warned[jobID] == err.Error() {
		d.warnedMu.Unlock()
		return
	}
	d.warned[jobID] = err.Error()
	d.warnedMu.Unlock()

	inconsistencies.Inc()
	d.log.WithError(err).WithField("job_id", jobID).Warn("Server sent an inconsistent job state")
	d.logs.Warn(err.Error(), jobID)
}

// pruneWarned forgets warnings for jobs that are no longer visible so a job id
// reused by the backend is warned about again
func (d *Dashboard[S, R]) pruneWarned(visible map[string]struct{}) {
	d.warnedMu.Lock()
	defer d.warnedMu.Unlock()

	for id := range d.warned {
		if _, ok := visible[id]; !ok {
			delete(d.warned, id)
		}
	}
}

// StartSession enters the active session or restarts its ceiling
func (d *Dashboard[S, R]) StartSession(ctx context.Context) error {
	if d.closed.Load() {
		return models.ErrSessionClosed
	}
	return d.scheduler.StartSession(ctx)
}

// StopSession ends the active session early
func (d *Dashboard[S, R]) StopSession(ctx context.Context) error {
	if d.closed.Load() {
		return models.ErrSessionClosed
	}
	return d.scheduler.StopSession(ctx)
}

// CreateJob validates req, enters the active session and asks the backend to
// start the jobs. On failure the session is returned to its prior state.
func (d *Dashboard[S, R]) CreateJob(ctx context.Context, req models.CreateRequest) (*models.CreateResult, error) {
	if err := req.Validate(); err != nil {
		d.notifyError("Validation Error", err.Error(), nil)
		return nil, err
	}

	if d.closed.Load() {
		return nil, models.ErrSessionClosed
	}
	gen, fresh, err := d.scheduler.OpenSession(ctx)
	if err != nil {
		return nil, err
	}

	res, err := d.backend.CreateJobs(ctx, req)
	if err != nil {
		// Only a session this call opened is ended, and only if nothing has
		// restarted it since.
		if fresh {
			if stopErr := d.scheduler.EndSession(context.WithoutCancel(ctx), gen); stopErr != nil {
				d.log.WithError(stopErr).Debug("Could not revert session after failed create")
			}
		}
		d.notifyError("Error", fmt.Sprintf("Failed to start %s processing", req.Kind()), err)
		return nil, err
	}

	d.notify(Notification{Title: "Jobs Started", Description: res.Message, Severity: SeverityInfo})
	if err := d.RefreshJobs(ctx); err != nil {
		d.notifyError("Error", "Failed to fetch jobs", err)
	}
	return res, nil
}

// DeleteJob deletes one job. The job stays visible if the backend call fails.
func (d *Dashboard[S, R]) DeleteJob(ctx context.Context, id string) error {
	msg, err := d.registry.DeleteOne(ctx, id)
	if errors.Is(err, models.ErrPendingOperation) {
		return err
	}
	if err != nil {
		d.notifyError("Error", "Failed to delete job", err)
		return err
	}
	d.notify(Notification{Title: "Job Deleted", Description: msg, Severity: SeverityInfo})
	return nil
}

// ClearAll deletes every job
func (d *Dashboard[S, R]) ClearAll(ctx context.Context) error {
	msg, err := d.registry.ClearAll(ctx)
	if errors.Is(err, models.ErrPendingOperation) {
		return err
	}
	if err != nil {
		d.notifyError("Error", "Failed to clear all jobs", err)
		return err
	}
	d.notify(Notification{Title: "All Jobs Cleared", Description: msg, Severity: SeverityInfo})
	return nil
}

// ClearLogs empties the local log buffer without contacting the backend
func (d *Dashboard[S, R]) ClearLogs() {
	d.logs.Clear()
	d.warnedMu.Lock()
	d.warned = make(map[string]string)
	d.warnedMu.Unlock()
}

// JobDetail returns the detail view of a job, asking the backend when it
// exposes one
func (d *Dashboard[S, R]) JobDetail(ctx context.Context, id string) (models.Job[S, R], error) {
	if fetcher, ok := d.backend.(repository.DetailFetcher[S, R]); ok {
		job, err := fetcher.JobDetail(ctx, id)
		if err != nil {
			d.notifyError("Error", "Failed to fetch job details", err)
			return job, err
		}
		if visible, ok := d.registry.Get(id); ok {
			job = mergeDetail(visible, job)
		}
		return job, nil
	}
	job, ok := d.registry.Get(id)
	if !ok {
		return job, ErrJobNotFound
	}
	return job, nil
}

// mergeDetail overlays the detail response onto the list copy. The detail
// endpoint carries subsystem statuses but no result fields or timestamps.
func mergeDetail[S models.Stage, R comparable](visible, detail models.Job[S, R]) models.Job[S, R] {
	visible.Stage = detail.Stage
	visible.OverallStatus = detail.OverallStatus
	visible.ProgressPercentage = models.ClampProgress(detail.ProgressPercentage)
	visible.SubsystemStatuses = detail.SubsystemStatuses
	return visible
}

// Jobs returns the current job snapshot with display state
func (d *Dashboard[S, R]) Jobs() []JobRow[S, R] {
	jobs := d.registry.Snapshot()
	rows := make([]JobRow[S, R], 0, len(jobs))
	for _, job := range jobs {
		pending := d.registry.IsPending(job.ID)
		rows = append(rows, JobRow[S, R]{
			Job:          job,
			CoarseStatus: models.CoarseStatus(job),
			StageLabel:   models.StageLabel(job),
			Pending:      pending,
			Actionable:   models.IsActionable(job, pending),
		})
	}
	return rows
}

// Logs returns the current log snapshot in arrival order
func (d *Dashboard[S, R]) Logs() []models.LogEntry {
	return d.logs.Snapshot()
}

// SessionActive reports whether the active log-polling session is running
func (d *Dashboard[S, R]) SessionActive() bool {
	return d.scheduler.SessionActive()
}

// Loading reports whether a job-list fetch is in flight
func (d *Dashboard[S, R]) Loading() bool {
	return d.loading.Load() > 0
}

// Clearing reports whether a clear-all is in flight
func (d *Dashboard[S, R]) Clearing() bool {
	return d.registry.IsClearing()
}

func (d *Dashboard[S, R]) notifyError(title, description string, err error) {
	if d.closed.Load() {
		return
	}
	if err != nil {
		d.log.WithError(err).Debug(description)
	}
	d.notify(Notification{Title: title, Description: description, Severity: SeverityError})
}

func (d *Dashboard[S, R]) notify(n Notification) {
	d.notifier.Notify(n)
}
