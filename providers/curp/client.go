package curp

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"job-dashboard/core/models"
	"job-dashboard/providers/httpapi"

	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

// DefaultDetailTTL is how long a job detail response is reused
const DefaultDetailTTL = 2 * time.Second

// Client is the CURP document-processing backend client
type Client struct {
	api     *httpapi.Client
	details *cache.Cache
}

// NewClient creates a new CURP backend client. Detail responses are cached for
// detailTTL; a non-positive TTL disables caching.
func NewClient(baseURL string, timeout, detailTTL time.Duration, log *logrus.Entry) *Client {
	c := &Client{api: httpapi.NewClient(baseURL, timeout, log)}
	if detailTTL > 0 {
		c.details = cache.New(detailTTL, 2*detailTTL)
	}
	return c
}

type processResponse struct {
	ProcessID          string  `json:"process_id"`
	CURPID             string  `json:"curp_id"`
	FirstName          string  `json:"first_name"`
	LastName           string  `json:"last_name"`
	DateOfBirth        string  `json:"date_of_birth"`
	Email              *string `json:"email"`
	OverallStatus      string  `json:"overall_status"`
	ProgressPercentage int     `json:"progress_percentage"`
	CurrentStage       string  `json:"current_stage"`
	CreatedAt          string  `json:"created_at"`
	UpdatedAt          string  `json:"updated_at"`
}

type processStatusResponse struct {
	ProcessID          string  `json:"process_id"`
	OverallStatus      string  `json:"overall_status"`
	ProgressPercentage int     `json:"progress_percentage"`
	CurrentStage       string  `json:"current_stage"`
	OutlookStatus      *string `json:"outlook_status"`
	IMSSStatus         *string `json:"imss_status"`
	EmailStatus        *string `json:"email_status"`
	PDFStatus          *string `json:"pdf_status"`
	PDFFilename        *string `json:"pdf_filename"`
}

// ListJobs fetches GET /processes
func (c *Client) ListJobs(ctx context.Context) ([]models.ProcessJob, error) {
	var rows []processResponse
	if err := c.api.GetJSON(ctx, "list_processes", "/processes", &rows); err != nil {
		return nil, err
	}

	jobs := make([]models.ProcessJob, 0, len(rows))
	for _, row := range rows {
		job := models.ProcessJob{
			ID:                 row.ProcessID,
			Stage:              models.ProcessStage(row.CurrentStage),
			OverallStatus:      models.OverallStatus(row.OverallStatus),
			ProgressPercentage: row.ProgressPercentage,
			CreatedAt:          httpapi.ParseTimestamp(row.CreatedAt),
			UpdatedAt:          httpapi.ParseTimestamp(row.UpdatedAt),
			Result: models.CURPResult{
				CURPID:      row.CURPID,
				FirstName:   row.FirstName,
				LastName:    row.LastName,
				DateOfBirth: row.DateOfBirth,
			},
		}
		if row.Email != nil {
			job.Result.Email = *row.Email
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// JobDetail fetches GET /process/{id}, including subsystem statuses
func (c *Client) JobDetail(ctx context.Context, id string) (models.ProcessJob, error) {
	if c.details != nil {
		if cached, ok := c.details.Get(id); ok {
			return cached.(models.ProcessJob), nil
		}
	}

	var row processStatusResponse
	if err := c.api.GetJSON(ctx, "get_process", "/process/"+url.PathEscape(id), &row); err != nil {
		return models.ProcessJob{}, err
	}

	job := models.ProcessJob{
		ID:                 id,
		Stage:              models.ProcessStage(row.CurrentStage),
		OverallStatus:      models.OverallStatus(row.OverallStatus),
		ProgressPercentage: row.ProgressPercentage,
		SubsystemStatuses:  make(map[models.Subsystem]string),
	}
	setStatus(job.SubsystemStatuses, models.SubsystemOutlook, row.OutlookStatus)
	setStatus(job.SubsystemStatuses, models.SubsystemIMSS, row.IMSSStatus)
	setStatus(job.SubsystemStatuses, models.SubsystemEmail, row.EmailStatus)
	if row.PDFStatus != nil {
		setStatus(job.SubsystemStatuses, models.SubsystemPDF, row.PDFStatus)
	} else if row.PDFFilename != nil && *row.PDFFilename != "" {
		job.SubsystemStatuses[models.SubsystemPDF] = "completed"
	}

	if c.details != nil {
		c.details.SetDefault(id, job)
	}
	return job, nil
}

func setStatus(statuses map[models.Subsystem]string, subsystem models.Subsystem, value *string) {
	if value != nil && *value != "" {
		statuses[subsystem] = *value
	}
}

// GetLogs fetches GET /logs
func (c *Client) GetLogs(ctx context.Context) ([]models.LogEntry, error) {
	body, err := c.api.Do(ctx, "get_logs", http.MethodGet, "/logs", nil)
	if err != nil {
		return nil, err
	}
	return httpapi.DecodeLogs(body, "process_id"), nil
}

// CreateJobs starts processing of a real CURP or a batch of demo CURPs
func (c *Client) CreateJobs(ctx context.Context, req models.CreateRequest) (*models.CreateResult, error) {
	var (
		body []byte
		err  error
	)
	switch r := req.(type) {
	case models.CURPRequest:
		body, err = c.api.Do(ctx, "process_curp", http.MethodPost, "/process-curp", map[string]string{
			"curp_id":       r.CURPID,
			"first_name":    r.FirstName,
			"last_name":     r.LastName,
			"date_of_birth": r.DateOfBirth,
		})
	case models.DemoCURPBatch:
		body, err = c.api.Do(ctx, "demo_curp", http.MethodPost, "/demo-curp", map[string]int{"count": r.Count})
	default:
		return nil, fmt.Errorf("%w: %s on the CURP backend", models.ErrUnsupported, req.Kind())
	}
	if err != nil {
		return nil, err
	}

	return &models.CreateResult{
		Message: httpapi.Message(body),
		IDs:     httpapi.ExtractIDs(body, "process_ids", "process_id"),
	}, nil
}

// DeleteJob deletes one process and its related records
func (c *Client) DeleteJob(ctx context.Context, id string) (string, error) {
	body, err := c.api.Do(ctx, "delete_process", http.MethodDelete, "/process/"+url.PathEscape(id), nil)
	if err != nil {
		return "", err
	}
	if c.details != nil {
		c.details.Delete(id)
	}
	return httpapi.Message(body), nil
}

// ClearAllJobs deletes every process
func (c *Client) ClearAllJobs(ctx context.Context) (string, error) {
	body, err := c.api.Do(ctx, "clear_processes", http.MethodDelete, "/processes", nil)
	if err != nil {
		return "", err
	}
	if c.details != nil {
		c.details.Flush()
	}
	return httpapi.Message(body), nil
}

// Ping calls the backend's root health endpoint
func (c *Client) Ping(ctx context.Context) (string, error) {
	body, err := c.api.Do(ctx, "health", http.MethodGet, "/", nil)
	if err != nil {
		return "", err
	}
	return httpapi.Message(body), nil
}
