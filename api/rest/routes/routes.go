package routes

import (
	"net/http"

	"job-dashboard/api/rest/handlers"
	"job-dashboard/core/dashboard"
	"job-dashboard/core/models"
	"job-dashboard/core/spec"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes configures all API routes
func SetupRoutes[S models.Stage, R comparable](
	r *mux.Router,
	dash *dashboard.Dashboard[S, R],
	inbox *dashboard.Inbox,
	variant spec.Variant,
) {
	h := handlers.NewDashboardHandler(dash, inbox, variant)

	api := r.PathPrefix("/v1").Subrouter()

	// Job endpoints
	api.HandleFunc("/jobs", h.ListJobs).Methods("GET")
	api.HandleFunc("/jobs", h.CreateJob).Methods("POST")
	api.HandleFunc("/jobs", h.ClearJobs).Methods("DELETE")
	api.HandleFunc("/jobs/{id}", h.GetJob).Methods("GET")
	api.HandleFunc("/jobs/{id}", h.DeleteJob).Methods("DELETE")

	// Log stream
	api.HandleFunc("/logs", h.GetLogs).Methods("GET")
	api.HandleFunc("/logs", h.ClearLogs).Methods("DELETE")

	// Active session
	api.HandleFunc("/session", h.GetSession).Methods("GET")
	api.HandleFunc("/session", h.StartSession).Methods("POST")
	api.HandleFunc("/session", h.StopSession).Methods("DELETE")

	api.HandleFunc("/notifications", h.ListNotifications).Methods("GET")

	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")
}
