package accounts

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"job-dashboard/core/models"
	"job-dashboard/providers/httpapi"

	"github.com/sirupsen/logrus"
)

// Client is the account-creation backend client
type Client struct {
	api *httpapi.Client
}

// NewClient creates a new account backend client
func NewClient(baseURL string, timeout time.Duration, log *logrus.Entry) *Client {
	return &Client{api: httpapi.NewClient(baseURL, timeout, log)}
}

type accountResponse struct {
	ID         int64  `json:"id"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	BirthMonth string `json:"birth_month"`
	BirthDay   string `json:"birth_day"`
	BirthYear  string `json:"birth_year"`
	Status     string `json:"status"`
	CreatedAt  string `json:"created_at"`
}

// ListJobs fetches GET /accounts
func (c *Client) ListJobs(ctx context.Context) ([]models.AccountJob, error) {
	var rows []accountResponse
	if err := c.api.GetJSON(ctx, "list_accounts", "/accounts", &rows); err != nil {
		return nil, err
	}

	jobs := make([]models.AccountJob, 0, len(rows))
	for _, row := range rows {
		jobs = append(jobs, toJob(row))
	}
	return jobs, nil
}

func toJob(row accountResponse) models.AccountJob {
	stage := models.AccountStage(row.Status)
	status, _ := stage.Status()
	progress := 0
	if status == models.StatusCompleted {
		progress = 100
	}
	created := httpapi.ParseTimestamp(row.CreatedAt)
	return models.AccountJob{
		ID:                 strconv.FormatInt(row.ID, 10),
		Stage:              stage,
		OverallStatus:      status,
		ProgressPercentage: progress,
		CreatedAt:          created,
		UpdatedAt:          created,
		Result: models.AccountResult{
			FirstName:  row.FirstName,
			LastName:   row.LastName,
			Email:      row.Email,
			Password:   row.Password,
			BirthMonth: row.BirthMonth,
			BirthDay:   row.BirthDay,
			BirthYear:  row.BirthYear,
		},
	}
}

// GetLogs fetches GET /logs
func (c *Client) GetLogs(ctx context.Context) ([]models.LogEntry, error) {
	body, err := c.api.Do(ctx, "get_logs", http.MethodGet, "/logs", nil)
	if err != nil {
		return nil, err
	}
	return httpapi.DecodeLogs(body, "account_id"), nil
}

// CreateJobs starts a batch of accounts or a single demo account
func (c *Client) CreateJobs(ctx context.Context, req models.CreateRequest) (*models.CreateResult, error) {
	var (
		body []byte
		err  error
	)
	switch r := req.(type) {
	case models.AccountBatch:
		body, err = c.api.Do(ctx, "create_accounts", http.MethodPost, "/create-accounts", map[string]int{"count": r.Count})
	case models.DemoAccount:
		body, err = c.api.Do(ctx, "create_demo", http.MethodPost, "/demo", nil)
	default:
		return nil, fmt.Errorf("%w: %s on the account backend", models.ErrUnsupported, req.Kind())
	}
	if err != nil {
		return nil, err
	}

	return &models.CreateResult{
		Message: httpapi.Message(body),
		IDs:     httpapi.ExtractIDs(body, "account_ids", "account_id"),
	}, nil
}

// DeleteJob deletes one account
func (c *Client) DeleteJob(ctx context.Context, id string) (string, error) {
	body, err := c.api.Do(ctx, "delete_account", http.MethodDelete, "/accounts/"+url.PathEscape(id), nil)
	if err != nil {
		return "", err
	}
	return httpapi.Message(body), nil
}

// ClearAllJobs deletes every account
func (c *Client) ClearAllJobs(ctx context.Context) (string, error) {
	body, err := c.api.Do(ctx, "clear_accounts", http.MethodDelete, "/accounts", nil)
	if err != nil {
		return "", err
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
