package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"job-dashboard/core/dashboard"
	"job-dashboard/core/logstream"
	"job-dashboard/core/models"
	"job-dashboard/core/spec"

	"github.com/gorilla/mux"
)

const maxRequestBody = 64 << 10

// DashboardHandler exposes the dashboard's state and actions over HTTP
type DashboardHandler[S models.Stage, R comparable] struct {
	dash    *dashboard.Dashboard[S, R]
	inbox   *dashboard.Inbox
	variant spec.Variant
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler[S models.Stage, R comparable](
	dash *dashboard.Dashboard[S, R],
	inbox *dashboard.Inbox,
	variant spec.Variant,
) *DashboardHandler[S, R] {
	return &DashboardHandler[S, R]{
		dash:    dash,
		inbox:   inbox,
		variant: variant,
	}
}

type jobView[R comparable] struct {
	ID                 string               `json:"id"`
	Stage              string               `json:"stage"`
	StageLabel         string               `json:"stage_label"`
	OverallStatus      models.OverallStatus `json:"overall_status"`
	DisplayStatus      models.OverallStatus `json:"display_status"`
	ProgressPercentage int                  `json:"progress_percentage"`
	SubsystemStatuses  map[string]string    `json:"subsystem_statuses,omitempty"`
	CreatedAt          time.Time            `json:"created_at"`
	UpdatedAt          time.Time            `json:"updated_at"`
	Result             R                    `json:"result"`
	Pending            bool                 `json:"pending"`
	Actionable         bool                 `json:"actionable"`
}

func newJobView[S models.Stage, R comparable](row dashboard.JobRow[S, R]) jobView[R] {
	view := jobView[R]{
		ID:                 row.Job.ID,
		Stage:              string(row.Job.Stage),
		StageLabel:         row.StageLabel,
		OverallStatus:      row.Job.OverallStatus,
		DisplayStatus:      row.CoarseStatus,
		ProgressPercentage: row.Job.ProgressPercentage,
		CreatedAt:          row.Job.CreatedAt,
		UpdatedAt:          row.Job.UpdatedAt,
		Result:             row.Job.Result,
		Pending:            row.Pending,
		Actionable:         row.Actionable,
	}
	if len(row.Job.SubsystemStatuses) > 0 {
		view.SubsystemStatuses = make(map[string]string, len(row.Job.SubsystemStatuses))
		for subsystem, status := range row.Job.SubsystemStatuses {
			view.SubsystemStatuses[string(subsystem)] = status
		}
	}
	return view
}

// ListJobs handles GET /v1/jobs
func (h *DashboardHandler[S, R]) ListJobs(w http.ResponseWriter, r *http.Request) {
	rows := h.dash.Jobs()
	items := make([]jobView[R], 0, len(rows))
	for _, row := range rows {
		items = append(items, newJobView(row))
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items":    items,
		"loading":  h.dash.Loading(),
		"clearing": h.dash.Clearing(),
	})
}

// GetJob handles GET /v1/jobs/{id}
func (h *DashboardHandler[S, R]) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["id"]

	job, err := h.dash.JobDetail(r.Context(), jobID)
	if err != nil {
		writeError(w, err)
		return
	}

	pending := false
	for _, row := range h.dash.Jobs() {
		if row.Job.ID == jobID {
			pending = row.Pending
			break
		}
	}
	writeJSON(w, http.StatusOK, newJobView(dashboard.JobRow[S, R]{
		Job:          job,
		CoarseStatus: models.CoarseStatus(job),
		StageLabel:   models.StageLabel(job),
		Pending:      pending,
		Actionable:   models.IsActionable(job, pending),
	}))
}

// CreateJob handles POST /v1/jobs
func (h *DashboardHandler[S, R]) CreateJob(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req, err := spec.ParseCreateRequest(string(body), h.variant)
	if err != nil {
		writeError(w, err)
		return
	}

	res, err := h.dash.CreateJob(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": res.Message,
		"ids":     res.IDs,
		"session": h.dash.SessionActive(),
	})
}

// DeleteJob handles DELETE /v1/jobs/{id}
func (h *DashboardHandler[S, R]) DeleteJob(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["id"]

	if err := h.dash.DeleteJob(r.Context(), jobID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":     jobID,
		"status": "deleted",
	})
}

// ClearJobs handles DELETE /v1/jobs
func (h *DashboardHandler[S, R]) ClearJobs(w http.ResponseWriter, r *http.Request) {
	if err := h.dash.ClearAll(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "cleared"})
}

type logView struct {
	Message       string      `json:"message"`
	Timestamp     time.Time   `json:"timestamp"`
	CorrelationID string      `json:"correlation_id,omitempty"`
	Tier          models.Tier `json:"tier"`
}

// GetLogs handles GET /v1/logs
func (h *DashboardHandler[S, R]) GetLogs(w http.ResponseWriter, r *http.Request) {
	entries := h.dash.Logs()
	items := make([]logView, len(entries))
	for i, entry := range entries {
		items[i] = logView{
			Message:       entry.Message,
			Timestamp:     entry.Timestamp,
			CorrelationID: entry.CorrelationID,
			Tier:          logstream.Classify(entry),
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items": items,
		"count": len(items),
	})
}

// ClearLogs handles DELETE /v1/logs
func (h *DashboardHandler[S, R]) ClearLogs(w http.ResponseWriter, r *http.Request) {
	h.dash.ClearLogs()
	w.WriteHeader(http.StatusNoContent)
}

// GetSession handles GET /v1/session
func (h *DashboardHandler[S, R]) GetSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"active": h.dash.SessionActive()})
}

// StartSession handles POST /v1/session
func (h *DashboardHandler[S, R]) StartSession(w http.ResponseWriter, r *http.Request) {
	if err := h.dash.StartSession(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"active": h.dash.SessionActive()})
}

// StopSession handles DELETE /v1/session
func (h *DashboardHandler[S, R]) StopSession(w http.ResponseWriter, r *http.Request) {
	if err := h.dash.StopSession(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"active": h.dash.SessionActive()})
}

// ListNotifications handles GET /v1/notifications
func (h *DashboardHandler[S, R]) ListNotifications(w http.ResponseWriter, r *http.Request) {
	items := []dashboard.Notification{}
	if h.inbox != nil {
		items = h.inbox.Recent()
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case models.IsValidation(err), errors.Is(err, models.ErrUnsupported):
		status = http.StatusBadRequest
	case errors.Is(err, dashboard.ErrJobNotFound):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrPendingOperation):
		status = http.StatusConflict
	case models.IsTransport(err):
		status = http.StatusBadGateway
	case errors.Is(err, models.ErrSessionClosed), errors.Is(err, models.ErrNotRunning):
		status = http.StatusServiceUnavailable
	}
	http.Error(w, err.Error(), status)
}
