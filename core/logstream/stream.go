package logstream

import (
	"strings"
	"sync"
	"time"

	"job-dashboard/core/models"
)

// DefaultLimit is the default number of entries kept in the buffer
const DefaultLimit = 500

// Stream is the client-side log buffer. Entries are kept in arrival order and
// never re-sorted by timestamp.
type Stream struct {
	mu       sync.RWMutex
	entries  []models.LogEntry
	warnings []models.LogEntry
	limit    int
	disposed bool
	now      func() time.Time
}

// New creates a log stream holding at most limit entries
func New(limit int, now func() time.Time) *Stream {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if now == nil {
		now = time.Now
	}
	return &Stream{limit: limit, now: now}
}

// Append delivers one poll cycle's feed. Each cycle carries the full history
// so far, so the buffer is replaced rather than merged.
func (s *Stream) Append(entries []models.LogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed {
		return
	}
	if len(entries) > s.limit {
		entries = entries[len(entries)-s.limit:]
	}
	s.entries = append(make([]models.LogEntry, 0, len(entries)), entries...)
}

// Warn records a client-raised warning. Warnings survive feed replacement
// until the next Clear.
func (s *Stream) Warn(message, correlationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed {
		return
	}
	s.warnings = append(s.warnings, models.LogEntry{
		Message:       "Warning: " + message,
		Timestamp:     s.now(),
		CorrelationID: correlationID,
		Tier:          models.TierWarning,
	})
	if len(s.warnings) > s.limit {
		s.warnings = s.warnings[len(s.warnings)-s.limit:]
	}
}

// Clear empties the buffer. It is a purely local action.
func (s *Stream) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = nil
	s.warnings = nil
}

// Dispose stops the stream from accepting further entries
func (s *Stream) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.disposed = true
}

// Snapshot returns a copy of the buffer: the server feed followed by local
// warnings, trimmed to the limit
func (s *Stream) Snapshot() []models.LogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.LogEntry, 0, len(s.entries)+len(s.warnings))
	out = append(out, s.entries...)
	out = append(out, s.warnings...)
	if len(out) > s.limit {
		out = out[len(out)-s.limit:]
	}
	return out
}

// Len returns the number of entries a snapshot would contain
func (s *Stream) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.entries) + len(s.warnings)
	if n > s.limit {
		return s.limit
	}
	return n
}

// Classify maps an entry to its display tier. An explicit tier is kept as is.
// Otherwise the first matching tier in priority order wins: error/failed,
// success/created, starting/processing.
func Classify(entry models.LogEntry) models.Tier {
	if entry.Tier != "" {
		return entry.Tier
	}
	msg := strings.ToLower(entry.Message)
	switch {
	case strings.Contains(msg, "error") || strings.Contains(msg, "failed"):
		return models.TierError
	case strings.Contains(msg, "success") || strings.Contains(msg, "created"):
		return models.TierSuccess
	case strings.Contains(msg, "starting") || strings.Contains(msg, "processing"):
		return models.TierWarning
	}
	return models.TierInfo
}
