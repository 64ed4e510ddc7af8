package domain

import "time"

// Notification types emitted by the subscription lifecycle.
const (
	NotificationSubscriptionActivated = "subscription_activated"
	NotificationSubscriptionUpdated   = "subscription_updated"
	NotificationSubscriptionCanceled  = "subscription_canceled"
	NotificationPaymentReceived       = "payment_received"
	NotificationPaymentFailed         = "payment_failed"
)

// Notification is an append-only message to a user.
type Notification struct {
	ID        int64     `gorm:"primaryKey;column:id" json:"id"`
	UserID    int64     `gorm:"column:user_id;not null;index" json:"userId"`
	Type      string    `gorm:"column:type;size:50;not null" json:"type"`
	Title     string    `gorm:"column:title;size:200;not null" json:"title"`
	Message   string    `gorm:"column:message;type:text;not null" json:"message"`
	IsRead    bool      `gorm:"column:is_read;not null;default:false" json:"read"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime;index" json:"createdAt"`
}

// TableName returns the table name for GORM
func (Notification) TableName() string {
	return "notifications"
}
