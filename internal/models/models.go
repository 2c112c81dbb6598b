package models

import "time"

// ItemStatus classifies a work-pool item relative to its expiry time.
type ItemStatus string

const (
	ItemStatusActive  ItemStatus = "active"
	ItemStatusWarning ItemStatus = "warning"
	ItemStatusExpired ItemStatus = "expired"
)

// QueueStats holds the counters fetched for a single SQS queue in one cycle.
type QueueStats struct {
	Name              string    `json:"name"`
	URL               string    `json:"url"`
	MessagesAvailable int64     `json:"messagesAvailable"`
	MessagesInFlight  int64     `json:"messagesInFlight"`
	MessagesDelayed   int64     `json:"messagesDelayed"`
	TotalMessages     int64     `json:"totalMessages"`
	CreatedAt         time.Time `json:"createdAt,omitempty"`
	LastModified      time.Time `json:"lastModified,omitempty"`
}

// WorkPoolItem is one classified row of the DynamoDB work-pool table.
type WorkPoolItem struct {
	EntityName         string     `json:"entityName"`
	UID                string     `json:"uid"`
	ExpiresAt          int64      `json:"expiresAt"`
	ExpiresAtFormatted string     `json:"expiresAtFormatted"`
	TimeRemaining      int64      `json:"timeRemaining"`
	Status             ItemStatus `json:"status"`
}

// QueueSnapshot is the complete queue dataset published by one poll cycle.
// It is replaced wholesale, never mutated in place.
type QueueSnapshot struct {
	Queues     []QueueStats `json:"queues"`
	CapturedAt time.Time    `json:"capturedAt"`
}

// Clone returns a deep copy safe to hand to readers.
func (s QueueSnapshot) Clone() QueueSnapshot {
	return QueueSnapshot{
		Queues:     append([]QueueStats{}, s.Queues...),
		CapturedAt: s.CapturedAt,
	}
}

// WorkPoolSnapshot is the complete work-pool dataset published by one poll
// cycle, sorted ascending by ExpiresAt (soonest-expiring first).
type WorkPoolSnapshot struct {
	Items      []WorkPoolItem `json:"items"`
	CapturedAt time.Time      `json:"capturedAt"`
}

// Clone returns a deep copy safe to hand to readers.
func (s WorkPoolSnapshot) Clone() WorkPoolSnapshot {
	return WorkPoolSnapshot{
		Items:      append([]WorkPoolItem{}, s.Items...),
		CapturedAt: s.CapturedAt,
	}
}
