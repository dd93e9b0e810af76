package domain

import "time"

// WebhookEvent is the journal row for one received provider callback. The
// unique index on EventID is what suppresses duplicate deliveries.
type WebhookEvent struct {
	ID         int64     `gorm:"primaryKey" json:"id"`
	EventID    string    `gorm:"uniqueIndex;not null" json:"event_id"`
	SessionID  string    `gorm:"index" json:"session_id"`
	Outcome    string    `gorm:"type:varchar(20)" json:"outcome"`
	RawBody    string    `gorm:"type:text" json:"raw_body"`
	ReceivedAt time.Time `json:"received_at"`
}

func (WebhookEvent) TableName() string { return "webhook_events" }
