package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit int       // max results (0 = unlimited)
	After int64     // id > After
	From  time.Time // timestamp >= From
}

// NotificationType classifies a notification.
type NotificationType string

const (
	NotifyInfo   NotificationType = "info"
	NotifyGrade  NotificationType = "grade"
	NotifySystem NotificationType = "system"
)

// Notification is a message shown to a user.
type Notification struct {
	ID        int64
	UserID    string
	Type      NotificationType
	Message   string
	Read      bool
	CreatedAt time.Time
}

// NotificationRepo stores user notifications.
type NotificationRepo interface {
	// Append stores n and returns it with its id and timestamp set.
	Append(ctx context.Context, n Notification) (Notification, error)

	// ListByUser returns a user's notifications, newest first.
	ListByUser(ctx context.Context, userID string, unreadOnly bool) ([]Notification, error)

	// MarkRead flags a notification as read.
	MarkRead(ctx context.Context, id int64) error
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
}

// LLMRequestEvent is a stored LLM request event.
type LLMRequestEvent struct {
	ID        int64
	Timestamp time.Time
	LLMRequestEventData
}

// EventRepo provides append and query access to the LLM request log.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns events newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEvent, error)
}

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
