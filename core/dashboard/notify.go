package dashboard

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Severity of a user-visible notification
type Severity string

const (
	SeverityInfo  Severity = "info"
	SeverityError Severity = "error"
)

// Notification is a user-visible message, the equivalent of a toast
type Notification struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Severity    Severity  `json:"severity"`
	At          time.Time `json:"at"`
}

// Notifier delivers notifications to the presentation layer
type Notifier interface {
	Notify(n Notification)
}

// Inbox keeps the most recent notifications in memory
type Inbox struct {
	mu    sync.RWMutex
	items []Notification
	limit int
	log   *logrus.Entry
}

// NewInbox creates an inbox holding at most limit notifications
func NewInbox(limit int, log *logrus.Entry) *Inbox {
	if limit <= 0 {
		limit = 50
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Inbox{limit: limit, log: log.WithField("component", "notifications")}
}

// Notify implements Notifier
func (in *Inbox) Notify(n Notification) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.At.IsZero() {
		n.At = time.Now()
	}

	entry := in.log.WithFields(logrus.Fields{"title": n.Title, "id": n.ID})
	if n.Severity == SeverityError {
		entry.Warn(n.Description)
	} else {
		entry.Info(n.Description)
	}

	in.mu.Lock()
	defer in.mu.Unlock()
	in.items = append(in.items, n)
	if len(in.items) > in.limit {
		in.items = in.items[len(in.items)-in.limit:]
	}
}

// Recent returns the kept notifications, oldest first
func (in *Inbox) Recent() []Notification {
	in.mu.RLock()
	defer in.mu.RUnlock()

	out := make([]Notification, len(in.items))
	copy(out, in.items)
	return out
}
