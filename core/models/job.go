package models

import (
	"fmt"
	"maps"
	"time"
)

// Stage is a fine-grained pipeline position. Each job variant defines its own
// stage set and maps every stage to exactly one coarse status.
type Stage interface {
	~string
	// Status returns the coarse status for the stage, or false when the stage
	// is not part of the variant's stage set.
	Status() (OverallStatus, bool)
	// Label returns the human-readable name of the stage.
	Label() string
}

// Job represents a tracked unit of long-running work as seen by the dashboard
type Job[S Stage, R comparable] struct {
	ID                 string
	Stage              S
	OverallStatus      OverallStatus
	ProgressPercentage int
	SubsystemStatuses  map[Subsystem]string
	CreatedAt          time.Time
	UpdatedAt          time.Time
	Result             R
}

// OverallStatus represents the coarse status of a job
type OverallStatus string

const (
	StatusPending    OverallStatus = "pending"
	StatusInProgress OverallStatus = "in_progress"
	StatusCompleted  OverallStatus = "completed"
	StatusFailed     OverallStatus = "failed"
)

// Valid reports whether s is one of the four coarse statuses
func (s OverallStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Label returns the badge text for the status
func (s OverallStatus) Label() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusInProgress:
		return "Processing"
	case StatusCompleted:
		return "Completed"
	case StatusFailed:
		return "Failed"
	}
	return "Unknown"
}

// Subsystem names an external collaborator that reports its own status per job
type Subsystem string

const (
	SubsystemOutlook Subsystem = "outlook"
	SubsystemIMSS    Subsystem = "imss"
	SubsystemEmail   Subsystem = "email"
	SubsystemPDF     Subsystem = "pdf"
)

// Subsystems lists the subsystems in pipeline order
var Subsystems = []Subsystem{SubsystemOutlook, SubsystemIMSS, SubsystemEmail, SubsystemPDF}

// IsTerminal reports whether the job has finished, successfully or not
func IsTerminal[S Stage, R comparable](job Job[S, R]) bool {
	return job.OverallStatus == StatusCompleted || job.OverallStatus == StatusFailed
}

// IsActionable reports whether per-row actions should be offered for the job
func IsActionable[S Stage, R comparable](job Job[S, R], pendingDelete bool) bool {
	return !IsTerminal(job) && !pendingDelete
}

// ClampProgress clamps a server-supplied percentage into [0, 100]
func ClampProgress(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// CheckConsistency verifies the stage/status pair against the fixed mapping.
// It returns a StateInconsistency error when the stage is unknown or maps to a
// different coarse status than the one the server sent.
func CheckConsistency[S Stage, R comparable](job Job[S, R]) error {
	expected, ok := job.Stage.Status()
	if !ok {
		return NewStateInconsistency(job.ID, fmt.Sprintf("unknown stage %q", string(job.Stage)))
	}
	if expected != job.OverallStatus {
		return NewStateInconsistency(job.ID, fmt.Sprintf("stage %q maps to %q but server reported %q",
			string(job.Stage), expected, job.OverallStatus))
	}
	return nil
}

// CoarseStatus returns the status to display in list views. Pairs outside the
// stage mapping display as failed.
func CoarseStatus[S Stage, R comparable](job Job[S, R]) OverallStatus {
	if CheckConsistency(job) != nil {
		return StatusFailed
	}
	return job.OverallStatus
}

// StageLabel returns the label for the detail view; unknown stages render as errors
func StageLabel[S Stage, R comparable](job Job[S, R]) string {
	if _, ok := job.Stage.Status(); !ok {
		return "Error"
	}
	return job.Stage.Label()
}

// ResultMerger is implemented by result types whose fields are filled in over
// the life of a job
type ResultMerger[R any] interface {
	MergeResult(prev R) (merged R, conflict bool)
}

// MergeResult combines a previously seen result with a newly fetched one.
// Fields already populated never change. Result types that do not implement
// ResultMerger are treated as a single field.
func MergeResult[R comparable](prev, next R) (R, bool) {
	var zero R
	if prev == zero {
		return next, false
	}
	if m, ok := any(next).(ResultMerger[R]); ok {
		return m.MergeResult(prev)
	}
	return prev, next != zero && next != prev
}

// SameState reports whether two observations of a job carry the same server state
func SameState[S Stage, R comparable](a, b Job[S, R]) bool {
	return a.ID == b.ID &&
		a.Stage == b.Stage &&
		a.OverallStatus == b.OverallStatus &&
		a.ProgressPercentage == b.ProgressPercentage &&
		a.Result == b.Result &&
		maps.Equal(a.SubsystemStatuses, b.SubsystemStatuses)
}
