package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"job-dashboard/core/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// DefaultTimeout bounds every backend call
const DefaultTimeout = 30 * time.Second

// Client is a small JSON client for the job-processing backend
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *logrus.Entry
}

// NewClient creates a new backend client
func NewClient(baseURL string, timeout time.Duration, log *logrus.Entry) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        log.WithField("component", "backend"),
	}
}

// Do issues a request and returns the response body. Any failure, including
// a timeout or a non-2xx status, is returned as a TransportError.
func (c *Client) Do(ctx context.Context, op, method, path string, body interface{}) ([]byte, error) {
	start := time.Now()
	data, err := c.do(ctx, method, path, body)
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	requestDuration.WithLabelValues(op, outcome).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, models.NewTransportError(op, err)
	}
	return data, nil
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     method,
			"path":       path,
			"status":     resp.StatusCode,
		}).Debug("Backend returned an error status")
		if detail := gjson.GetBytes(data, "detail"); detail.Exists() {
			return nil, fmt.Errorf("status %d: %s", resp.StatusCode, detail.String())
		}
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return data, nil
}

// GetJSON issues a GET and decodes the body into out
func (c *Client) GetJSON(ctx context.Context, op, path string, out interface{}) error {
	data, err := c.Do(ctx, op, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return models.NewTransportError(op, fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}

// Message extracts the "message" field of a response body
func Message(body []byte) string {
	return gjson.GetBytes(body, "message").String()
}

// ExtractIDs collects job ids from the first of keys present in body. Array
// values yield every element; scalar values yield one id.
func ExtractIDs(body []byte, keys ...string) []string {
	for _, key := range keys {
		res := gjson.GetBytes(body, key)
		if !res.Exists() || res.Type == gjson.Null {
			continue
		}
		if !res.IsArray() {
			return []string{res.String()}
		}
		var ids []string
		res.ForEach(func(_, value gjson.Result) bool {
			ids = append(ids, value.String())
			return true
		})
		return ids
	}
	return nil
}

// DecodeLogs decodes a {"logs": [...]} body. correlationKey names the field
// that carries the job id, which may be numeric, a string or null.
func DecodeLogs(body []byte, correlationKey string) []models.LogEntry {
	var entries []models.LogEntry
	gjson.GetBytes(body, "logs").ForEach(func(_, value gjson.Result) bool {
		entry := models.LogEntry{
			Message:   value.Get("message").String(),
			Timestamp: ParseTimestamp(value.Get("timestamp").String()),
		}
		if corr := value.Get(correlationKey); corr.Exists() && corr.Type != gjson.Null {
			entry.CorrelationID = corr.String()
		}
		entries = append(entries, entry)
		return true
	})
	return entries
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseTimestamp parses the backend's timestamp formats. Timestamps without a
// zone are read as UTC; unparseable values yield the zero time.
func ParseTimestamp(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
