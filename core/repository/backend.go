package repository

import (
	"context"

	"job-dashboard/core/models"
)

// JobSource lists the backend's current jobs as a full snapshot
type JobSource[S models.Stage, R comparable] interface {
	ListJobs(ctx context.Context) ([]models.Job[S, R], error)
}

// JobStore is the subset of the backend the job registry needs
type JobStore[S models.Stage, R comparable] interface {
	JobSource[S, R]
	DeleteJob(ctx context.Context, id string) (string, error)
	ClearAllJobs(ctx context.Context) (string, error)
}

// LogSource returns the backend's log history so far
type LogSource interface {
	GetLogs(ctx context.Context) ([]models.LogEntry, error)
}

// Backend is the external job-processing service the dashboard polls.
// Every method fails with a TransportError on timeout or a non-success response.
type Backend[S models.Stage, R comparable] interface {
	JobStore[S, R]
	LogSource
	CreateJobs(ctx context.Context, req models.CreateRequest) (*models.CreateResult, error)
}

// DetailFetcher is implemented by backends that expose a per-job detail view
type DetailFetcher[S models.Stage, R comparable] interface {
	JobDetail(ctx context.Context, id string) (models.Job[S, R], error)
}

// HealthChecker is implemented by backends with a liveness endpoint
type HealthChecker interface {
	Ping(ctx context.Context) (string, error)
}
