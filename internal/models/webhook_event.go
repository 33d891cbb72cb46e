package models

import "time"

// WebhookEvent records every accepted provider notification. The unique
// (provider, provider_event_id) index is what makes duplicate deliveries a
// no-op: providers retry webhooks and each retry carries the same event id.
type WebhookEvent struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Provider        string    `gorm:"not null;uniqueIndex:ux_webhook_events_provider_event,priority:1" json:"provider"`
	ProviderEventID string    `gorm:"not null;uniqueIndex:ux_webhook_events_provider_event,priority:2" json:"provider_event_id"`
	EventType       string    `gorm:"index" json:"event_type"`
	TxnID           string    `gorm:"index" json:"txn_id"`
	Payload         string    `gorm:"type:text" json:"-"`
	CreatedAt       time.Time `json:"created_at"`
}

func (WebhookEvent) TableName() string {
	return "webhook_events"
}
