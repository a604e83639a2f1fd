package logstream

import (
	"fmt"
	"testing"
	"time"

	"job-dashboard/core/models"

	"github.com/stretchr/testify/require"
)

func entry(msg string) models.LogEntry {
	return models.LogEntry{Message: msg, Timestamp: time.Unix(0, 0)}
}

func TestClassify(t *testing.T) {
	cases := map[string]models.Tier{
		"Error: failed to create account": models.TierError,
		"Account created successfully":    models.TierSuccess,
		"Starting IMSS processing":        models.TierWarning,
		"Processing failed for CURP":      models.TierError,
		"Created account, starting email": models.TierSuccess,
		"Polling mailbox":                 models.TierInfo,
		"SUCCESS":                         models.TierSuccess,
	}
	for msg, want := range cases {
		require.Equal(t, want, Classify(entry(msg)), msg)
	}
}

func TestAppendReplacesFeed(t *testing.T) {
	s := New(0, nil)
	s.Append([]models.LogEntry{entry("a"), entry("b")})
	s.Append([]models.LogEntry{entry("a"), entry("b"), entry("c")})

	got := s.Snapshot()
	require.Len(t, got, 3)
	require.Equal(t, "c", got[2].Message)
}

func TestArrivalOrderIsKept(t *testing.T) {
	s := New(0, nil)
	late := models.LogEntry{Message: "late", Timestamp: time.Unix(200, 0)}
	early := models.LogEntry{Message: "early", Timestamp: time.Unix(100, 0)}
	s.Append([]models.LogEntry{late, early})

	got := s.Snapshot()
	require.Equal(t, "late", got[0].Message)
	require.Equal(t, "early", got[1].Message)
}

func TestBufferIsBounded(t *testing.T) {
	s := New(3, nil)
	var feed []models.LogEntry
	for i := 0; i < 5; i++ {
		feed = append(feed, entry(fmt.Sprintf("line %d", i)))
	}
	s.Append(feed)

	got := s.Snapshot()
	require.Len(t, got, 3)
	require.Equal(t, "line 2", got[0].Message)
	require.Equal(t, 3, s.Len())
}

func TestWarningsSurviveReplacement(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	s := New(0, func() time.Time { return now })
	s.Append([]models.LogEntry{entry("a")})
	s.Warn("stage mismatch", "p1")
	s.Append([]models.LogEntry{entry("a"), entry("b")})

	got := s.Snapshot()
	require.Len(t, got, 3)
	require.Equal(t, "Warning: stage mismatch", got[2].Message)
	require.Equal(t, "p1", got[2].CorrelationID)
	require.Equal(t, now, got[2].Timestamp)
}

func TestClear(t *testing.T) {
	s := New(0, nil)
	s.Append([]models.LogEntry{entry("a")})
	s.Warn("w", "")
	s.Clear()
	require.Empty(t, s.Snapshot())
	require.Zero(t, s.Len())
}

func TestDisposedStreamIgnoresEntries(t *testing.T) {
	s := New(0, nil)
	s.Append([]models.LogEntry{entry("a")})
	s.Dispose()
	s.Append([]models.LogEntry{entry("a"), entry("b")})
	s.Warn("late", "")

	got := s.Snapshot()
	require.Len(t, got, 1)
	require.Equal(t, "a", got[0].Message)
}

func TestSnapshotIsACopy(t *testing.T) {
	s := New(0, nil)
	s.Append([]models.LogEntry{entry("a")})
	got := s.Snapshot()
	got[0].Message = "mutated"
	require.Equal(t, "a", s.Snapshot()[0].Message)
}

func TestWarningsClassifyAsWarning(t *testing.T) {
	s := New(0, nil)
	err := models.NewStateInconsistency("p1", `stage "error" maps to "failed" but server reported "in_progress"`)
	s.Warn(err.Error(), "p1")

	got := s.Snapshot()
	require.Len(t, got, 1)
	require.Equal(t, models.TierWarning, Classify(got[0]))
	require.Equal(t, models.TierError, Classify(entry(got[0].Message)))
}
