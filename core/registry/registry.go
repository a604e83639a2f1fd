package registry

import (
	"context"
	"sync"

	"job-dashboard/core/models"
	"job-dashboard/core/repository"

	"github.com/sirupsen/logrus"
)

// Registry is the client's view of all known jobs plus the set of jobs with
// an in-flight client-initiated delete
type Registry[S models.Stage, R comparable] struct {
	store repository.JobStore[S, R]
	log   *logrus.Entry

	mu       sync.RWMutex
	jobs     []models.Job[S, R]
	byID     map[string]models.Job[S, R]
	pending  map[string]struct{}
	clearing bool
	disposed bool

	onInconsistency func(error)
	onReconcile     func(visible map[string]struct{})
}

// New creates a registry backed by store
func New[S models.Stage, R comparable](store repository.JobStore[S, R], log *logrus.Entry) *Registry[S, R] {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Registry[S, R]{
		store:   store,
		log:     log.WithField("component", "registry"),
		byID:    make(map[string]models.Job[S, R]),
		pending: make(map[string]struct{}),
	}
}

// OnInconsistency registers a callback invoked for every stage/status pair
// outside the fixed mapping found during reconciliation
func (r *Registry[S, R]) OnInconsistency(fn func(error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onInconsistency = fn
}

// OnReconcile registers a callback invoked with the visible id set after every
// applied reconciliation
func (r *Registry[S, R]) OnReconcile(fn func(visible map[string]struct{})) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onReconcile = fn
}

// Reconcile replaces the visible collection wholesale with fetched. Progress
// is clamped and kept non-decreasing, UpdatedAt never moves backwards for a
// changed job, and populated result fields are not overwritten while empty
// ones are filled in.
func (r *Registry[S, R]) Reconcile(fetched []models.Job[S, R]) []error {
	r.mu.Lock()

	if r.disposed {
		r.mu.Unlock()
		return nil
	}

	var inconsistencies []error
	jobs := make([]models.Job[S, R], 0, len(fetched))
	byID := make(map[string]models.Job[S, R], len(fetched))
	for _, job := range fetched {
		job = r.normalize(job, r.byID[job.ID])
		if err := models.CheckConsistency(job); err != nil {
			inconsistencies = append(inconsistencies, err)
		}
		jobs = append(jobs, job)
		byID[job.ID] = job
	}
	r.jobs = jobs
	r.byID = byID
	notify, reconciled := r.onInconsistency, r.onReconcile
	r.mu.Unlock()

	if reconciled != nil {
		visible := make(map[string]struct{}, len(byID))
		for id := range byID {
			visible[id] = struct{}{}
		}
		reconciled(visible)
	}
	if notify != nil {
		for _, err := range inconsistencies {
			notify(err)
		}
	}
	return inconsistencies
}

func (r *Registry[S, R]) normalize(job, prev models.Job[S, R]) models.Job[S, R] {
	job.ProgressPercentage = models.ClampProgress(job.ProgressPercentage)
	if job.UpdatedAt.Before(job.CreatedAt) {
		job.UpdatedAt = job.CreatedAt
	}
	if prev.ID == "" {
		return job
	}

	merged, conflict := models.MergeResult(prev.Result, job.Result)
	if conflict {
		r.log.WithField("job_id", job.ID).Warn("Ignoring change to populated result fields")
	}
	job.Result = merged
	if job.OverallStatus != models.StatusFailed && job.ProgressPercentage < prev.ProgressPercentage {
		job.ProgressPercentage = prev.ProgressPercentage
	}
	if !models.SameState(job, prev) && job.UpdatedAt.Before(prev.UpdatedAt) {
		job.UpdatedAt = prev.UpdatedAt
	}
	return job
}

// Refresh fetches a full snapshot from the backend and reconciles it
func (r *Registry[S, R]) Refresh(ctx context.Context) error {
	jobs, err := r.store.ListJobs(ctx)
	if err != nil {
		return err
	}
	r.Reconcile(jobs)
	return nil
}

// Snapshot returns a copy of the visible jobs in server order
func (r *Registry[S, R]) Snapshot() []models.Job[S, R] {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Job[S, R], len(r.jobs))
	copy(out, r.jobs)
	return out
}

// Get returns the visible job with the given id
func (r *Registry[S, R]) Get(id string) (models.Job[S, R], bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.byID[id]
	return job, ok
}

// MarkPending flags id as undergoing a client-initiated delete. It returns
// false when the id is already pending.
func (r *Registry[S, R]) MarkPending(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.pending[id]; ok {
		return false
	}
	r.pending[id] = struct{}{}
	return true
}

// ClearPending removes the pending marker for id
func (r *Registry[S, R]) ClearPending(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.pending, id)
}

// IsPending reports whether a delete for id is in flight
func (r *Registry[S, R]) IsPending(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.pending[id]
	return ok
}

// IsClearing reports whether a clear-all is in flight
func (r *Registry[S, R]) IsClearing() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.clearing
}

// IsActionable reports whether per-row actions are available for id
func (r *Registry[S, R]) IsActionable(id string) bool {
	job, ok := r.Get(id)
	if !ok {
		return false
	}
	return models.IsActionable(job, r.IsPending(id))
}

// DeleteOne deletes a job through the backend. The pending marker is held for
// the duration of the call and released on every exit path. Visible state is
// only refreshed after a successful delete.
func (r *Registry[S, R]) DeleteOne(ctx context.Context, id string) (string, error) {
	if !r.MarkPending(id) {
		return "", models.ErrPendingOperation
	}
	defer r.ClearPending(id)

	msg, err := r.store.DeleteJob(ctx, id)
	if err != nil {
		return "", err
	}

	r.refreshAfterWrite(ctx, "delete")
	return msg, nil
}

// ClearAll deletes every job through the backend with the same cleanup
// discipline as DeleteOne
func (r *Registry[S, R]) ClearAll(ctx context.Context) (string, error) {
	if !r.beginClearing() {
		return "", models.ErrPendingOperation
	}
	defer r.endClearing()

	msg, err := r.store.ClearAllJobs(ctx)
	if err != nil {
		return "", err
	}

	r.refreshAfterWrite(ctx, "clear_all")
	return msg, nil
}

// refreshAfterWrite resyncs after a successful write. A failure is left to the
// next baseline tick.
func (r *Registry[S, R]) refreshAfterWrite(ctx context.Context, op string) {
	if err := r.Refresh(ctx); err != nil {
		r.log.WithError(err).WithField("op", op).Warn("Refresh after write failed")
	}
}

func (r *Registry[S, R]) beginClearing() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.clearing {
		return false
	}
	r.clearing = true
	return true
}

func (r *Registry[S, R]) endClearing() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.clearing = false
}

// Dispose stops the registry from applying further reconciliations
func (r *Registry[S, R]) Dispose() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.disposed = true
}
