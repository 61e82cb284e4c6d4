package queue

import (
	"fmt"
	"strings"
	"time"
)

// Status represents the lifecycle of a ledger item.
type Status string

const (
	StatusPending   Status = "pending"
	StatusEncoding  Status = "encoding"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

var allStatuses = []Status{StatusPending, StatusEncoding, StatusCompleted, StatusFailed}

// Statuses returns every status in lifecycle order.
func Statuses() []Status {
	return append([]Status(nil), allStatuses...)
}

// ParseStatus converts a user-supplied name into a Status.
func ParseStatus(name string) (Status, error) {
	normalized := Status(strings.ToLower(strings.TrimSpace(name)))
	for _, s := range allStatuses {
		if s == normalized {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown status %q", name)
}

// Item is one source file tracked by the batch ledger.
type Item struct {
	ID             int64
	SourcePath     string
	OutputPath     string
	JobID          string
	Status         Status
	Stage          string
	ErrorKind      string
	ErrorMessage   string
	FailedSegments []string
	Frames         int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
	StartedAt      *time.Time
	FinishedAt     *time.Time
}

// Duration returns how long the item's last run took, or zero while it is
// unfinished.
func (i *Item) Duration() time.Duration {
	if i == nil || i.StartedAt == nil || i.FinishedAt == nil {
		return 0
	}
	return i.FinishedAt.Sub(*i.StartedAt)
}

// Failure describes why an item failed.
type Failure struct {
	Stage          string
	Kind           string
	Message        string
	FailedSegments []string
}
