// Package repositorytest provides an in-memory backend for tests
package repositorytest

import (
	"context"
	"sync"

	"job-dashboard/core/models"
)

// Backend is an in-memory repository.Backend. Errors and hooks are read under
// the lock, so tests may change them while the dashboard is running.
type Backend[S models.Stage, R comparable] struct {
	mu      sync.Mutex
	jobs    []models.Job[S, R]
	logs    []models.LogEntry
	errs    map[string]error
	calls   map[string]int
	created []models.CreateRequest

	// ListHook runs before ListJobs returns and may block
	ListHook func(ctx context.Context)
	// DeleteHook runs before DeleteJob returns and may block
	DeleteHook func(ctx context.Context, id string)
	// CreateHook runs before CreateJobs returns and may block
	CreateHook func(ctx context.Context, req models.CreateRequest)
	// CreateIDs are returned from a successful CreateJobs
	CreateIDs []string
}

// Operation names accepted by SetError and Calls
const (
	OpList   = "list"
	OpLogs   = "logs"
	OpCreate = "create"
	OpDelete = "delete"
	OpClear  = "clear"
)

// NewBackend creates a backend holding jobs
func NewBackend[S models.Stage, R comparable](jobs ...models.Job[S, R]) *Backend[S, R] {
	return &Backend[S, R]{
		jobs:  jobs,
		errs:  make(map[string]error),
		calls: make(map[string]int),
	}
}

// SetJobs replaces the backend's jobs
func (b *Backend[S, R]) SetJobs(jobs ...models.Job[S, R]) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.jobs = jobs
}

// SetLogs replaces the backend's log history
func (b *Backend[S, R]) SetLogs(logs ...models.LogEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.logs = logs
}

// SetError makes op fail with err; a nil err clears the failure
func (b *Backend[S, R]) SetError(op string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		delete(b.errs, op)
		return
	}
	b.errs[op] = err
}

// Calls returns how many times op was invoked
func (b *Backend[S, R]) Calls(op string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[op]
}

// Created returns the create requests received so far
func (b *Backend[S, R]) Created() []models.CreateRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.CreateRequest(nil), b.created...)
}

func (b *Backend[S, R]) begin(op string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls[op]++
	return b.errs[op]
}

func (b *Backend[S, R]) ListJobs(ctx context.Context) ([]models.Job[S, R], error) {
	err := b.begin(OpList)

	b.mu.Lock()
	hook := b.ListHook
	jobs := append([]models.Job[S, R](nil), b.jobs...)
	b.mu.Unlock()

	if hook != nil {
		hook(ctx)
	}
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

func (b *Backend[S, R]) GetLogs(ctx context.Context) ([]models.LogEntry, error) {
	if err := b.begin(OpLogs); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.LogEntry(nil), b.logs...), nil
}

func (b *Backend[S, R]) CreateJobs(ctx context.Context, req models.CreateRequest) (*models.CreateResult, error) {
	err := b.begin(OpCreate)

	b.mu.Lock()
	hook := b.CreateHook
	b.mu.Unlock()
	if hook != nil {
		hook(ctx, req)
	}
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.created = append(b.created, req)
	return &models.CreateResult{Message: "started " + req.Kind(), IDs: b.CreateIDs}, nil
}

func (b *Backend[S, R]) DeleteJob(ctx context.Context, id string) (string, error) {
	err := b.begin(OpDelete)

	b.mu.Lock()
	hook := b.DeleteHook
	b.mu.Unlock()
	if hook != nil {
		hook(ctx, id)
	}
	if err != nil {
		return "", err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	kept := b.jobs[:0:0]
	for _, job := range b.jobs {
		if job.ID != id {
			kept = append(kept, job)
		}
	}
	b.jobs = kept
	return "deleted " + id, nil
}

func (b *Backend[S, R]) ClearAllJobs(ctx context.Context) (string, error) {
	if err := b.begin(OpClear); err != nil {
		return "", err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.jobs = nil
	return "cleared", nil
}
