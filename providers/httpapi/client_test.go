package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"job-dashboard/core/models"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestDoReturnsBody(t *testing.T) {
	var requestID, contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID = r.Header.Get("X-Request-ID")
		contentType = r.Header.Get("Content-Type")
		w.Write([]byte(`{"message":"ok"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", time.Second, nil)
	body, err := c.Do(context.Background(), "test_ok", http.MethodPost, "/create", map[string]int{"count": 1})
	require.NoError(t, err)
	require.Equal(t, "ok", Message(body))
	require.NotEmpty(t, requestID)
	require.Equal(t, "application/json", contentType)
	require.Positive(t, testutil.CollectAndCount(requestDuration))
}

func TestDoWrapsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"detail":"database is locked"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, nil)
	_, err := c.Do(context.Background(), "test_500", http.MethodGet, "/", nil)
	require.True(t, models.IsTransport(err))
	require.Contains(t, err.Error(), "status 500: database is locked")
}

func TestDoTimesOut(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient(srv.URL, 50*time.Millisecond, nil)
	_, err := c.Do(context.Background(), "test_timeout", http.MethodGet, "/", nil)
	require.True(t, models.IsTransport(err))
}

func TestGetJSONRejectsMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	var out []map[string]interface{}
	err := NewClient(srv.URL, time.Second, nil).GetJSON(context.Background(), "test_decode", "/", &out)
	require.True(t, models.IsTransport(err))
}

func TestExtractIDs(t *testing.T) {
	require.Equal(t, []string{"1", "2", "3"}, ExtractIDs([]byte(`{"account_ids":[1,2,3]}`), "account_ids", "account_id"))
	require.Equal(t, []string{"42"}, ExtractIDs([]byte(`{"account_id":42}`), "account_ids", "account_id"))
	require.Equal(t, []string{"a-1"}, ExtractIDs([]byte(`{"process_ids":null,"process_id":"a-1"}`), "process_ids", "process_id"))
	require.Nil(t, ExtractIDs([]byte(`{"message":"ok"}`), "process_ids"))
}

func TestDecodeLogs(t *testing.T) {
	body := []byte(`{"logs":[
		{"message":"Starting","timestamp":"2024-05-01T10:00:00","account_id":7},
		{"message":"System ready","timestamp":"2024-05-01 10:00:01.250","account_id":null},
		{"message":"Broken clock","timestamp":"yesterday"}
	]}`)

	logs := DecodeLogs(body, "account_id")
	require.Len(t, logs, 3)
	require.Equal(t, "7", logs[0].CorrelationID)
	require.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), logs[0].Timestamp)
	require.Empty(t, logs[1].CorrelationID)
	require.Equal(t, 250*time.Millisecond, time.Duration(logs[1].Timestamp.Nanosecond()))
	require.True(t, logs[2].Timestamp.IsZero())
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	require.True(t, want.Equal(ParseTimestamp("2024-05-01T10:00:00Z")))
	require.True(t, want.Equal(ParseTimestamp("2024-05-01T12:00:00+02:00")))
	require.True(t, want.Equal(ParseTimestamp("2024-05-01 10:00:00")))
	require.True(t, ParseTimestamp("").IsZero())
}
