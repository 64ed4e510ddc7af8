package domain

import "time"

// WebhookClaimTTL bounds how long an unfinished attempt blocks redeliveries of
// the same event. A worker that died mid-attempt loses its claim after this.
const WebhookClaimTTL = 5 * time.Minute

// WebhookEvent records provider deliveries so that redeliveries are not reprocessed.
type WebhookEvent struct {
	ID              int64           `gorm:"primaryKey;column:id" json:"id"`
	Provider        PaymentProvider `gorm:"column:provider;size:20;not null;uniqueIndex:ux_webhook_events_provider_event,priority:1" json:"provider"`
	ProviderEventID string          `gorm:"column:provider_event_id;size:191;not null;uniqueIndex:ux_webhook_events_provider_event,priority:2" json:"providerEventId"`
	EventType       string          `gorm:"column:event_type;size:100;not null;index" json:"eventType"`
	Payload         string          `gorm:"column:payload;type:text;not null" json:"-"`
	ProcessedAt     *time.Time      `gorm:"column:processed_at" json:"processedAt,omitempty"`
	ProcessingError *string         `gorm:"column:processing_error;type:text" json:"processingError,omitempty"`
	ClaimedAt       *time.Time      `gorm:"column:claimed_at" json:"-"` // NULL once a failed attempt released the event
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime;index" json:"createdAt"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

// TableName returns the table name for GORM
func (WebhookEvent) TableName() string {
	return "webhook_events"
}
