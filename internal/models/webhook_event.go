package models

import "time"

// WebhookEvent is the delivery ledger for provider notifications. It keeps
// only identifiers and outcome, never the payload.
type WebhookEvent struct {
	BaseModel

	Provider        string     `json:"provider" gorm:"not null;size:20;uniqueIndex:ux_webhook_events_provider_event,priority:1"`
	ProviderEventID string     `json:"provider_event_id" gorm:"not null;size:255;uniqueIndex:ux_webhook_events_provider_event,priority:2"`
	EventType       string     `json:"event_type" gorm:"not null;size:100;index"`
	Attempts        int        `json:"attempts" gorm:"not null;default:1"`
	LastError       string     `json:"last_error" gorm:"type:text"`
	ProcessedAt     *time.Time `json:"processed_at,omitempty"`
}

// TableName 指定表名
func (WebhookEvent) TableName() string {
	return "webhook_events"
}

const ProviderStripe = "stripe"
