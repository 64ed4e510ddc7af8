package domain

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// SubscriptionStatus is the internal subscription state shared by all payment providers.
type SubscriptionStatus string

const (
	SubscriptionStatusActive   SubscriptionStatus = "ACTIVE"
	SubscriptionStatusPending  SubscriptionStatus = "PENDING"
	SubscriptionStatusPastDue  SubscriptionStatus = "PAST_DUE"
	SubscriptionStatusCanceled SubscriptionStatus = "CANCELED"
	SubscriptionStatusUnpaid   SubscriptionStatus = "UNPAID"
	SubscriptionStatusUnknown  SubscriptionStatus = "UNKNOWN"
)

// PaymentProvider identifies where a subscription or invoice originated.
type PaymentProvider string

const (
	ProviderStripe PaymentProvider = "stripe"
	ProviderPayPal PaymentProvider = "paypal"
	ProviderCrypto PaymentProvider = "crypto"
	ProviderManual PaymentProvider = "manual"
)

// DefaultMaxLinks applies to users without a subscription row.
const DefaultMaxLinks = 5

// Subscription is the single subscription row of a user.
type Subscription struct {
	ID                   int64              `gorm:"primaryKey;column:id" json:"id"`
	UserID               int64              `gorm:"column:user_id;uniqueIndex;not null" json:"userId"`
	PlanID               *int64             `gorm:"column:plan_id" json:"planId,omitempty"`
	Plan                 string             `gorm:"column:plan;size:50;not null" json:"plan"`
	Status               SubscriptionStatus `gorm:"column:status;size:20;not null;index" json:"status"`
	MaxLinks             int                `gorm:"column:max_links;not null;default:5" json:"maxLinks"`
	Features             datatypes.JSON     `gorm:"column:features;type:jsonb" json:"features"`
	CurrentPeriodEnd     *time.Time         `gorm:"column:current_period_end" json:"currentPeriodEnd,omitempty"`
	CancelAtPeriodEnd    bool               `gorm:"column:cancel_at_period_end;not null;default:false" json:"cancelAtPeriodEnd"`
	CanceledAt           *time.Time         `gorm:"column:canceled_at" json:"canceledAt,omitempty"`
	CancelReason         *string            `gorm:"column:cancel_reason;size:500" json:"cancelReason,omitempty"`
	Provider             PaymentProvider    `gorm:"column:provider;size:20;not null;default:'manual'" json:"provider"`
	StripeCustomerID     *string            `gorm:"column:stripe_customer_id;size:100" json:"stripeCustomerId,omitempty"`
	StripeSubscriptionID *string            `gorm:"column:stripe_subscription_id;size:100;index" json:"stripeSubscriptionId,omitempty"`
	PayPalSubscriptionID *string            `gorm:"column:paypal_subscription_id;size:100;index" json:"paypalSubscriptionId,omitempty"`
	CreatedAt            time.Time          `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt            time.Time          `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

// TableName returns the table name for GORM
func (Subscription) TableName() string {
	return "subscriptions"
}

// FeatureList decodes the features column.
func (s *Subscription) FeatureList() []string {
	return decodeFeatures(s.Features)
}

// HasFeature reports whether the subscription grants the named feature.
func (s *Subscription) HasFeature(feature string) bool {
	for _, f := range s.FeatureList() {
		if f == feature {
			return true
		}
	}
	return false
}

// EncodeFeatures turns a feature list into a JSON column value.
func EncodeFeatures(features []string) datatypes.JSON {
	if features == nil {
		features = []string{}
	}
	raw, _ := json.Marshal(features)
	return datatypes.JSON(raw)
}

func decodeFeatures(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return nil
	}
	var features []string
	if err := json.Unmarshal(raw, &features); err != nil {
		return nil
	}
	return features
}
