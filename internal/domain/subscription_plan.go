package domain

import (
	"time"

	"gorm.io/datatypes"
)

// PlanInterval is the billing period of a plan.
type PlanInterval string

const (
	IntervalMonth PlanInterval = "month"
	IntervalYear  PlanInterval = "year"
)

// SubscriptionPlan is read-mostly catalog data.
type SubscriptionPlan struct {
	ID            int64          `gorm:"primaryKey;column:id" json:"id"`
	Name          string         `gorm:"column:name;size:50;uniqueIndex;not null" json:"name"`
	Price         float64        `gorm:"column:price;type:decimal(10,2);not null;default:0.00" json:"price"`
	Currency      string         `gorm:"column:currency;size:3;not null;default:'USD'" json:"currency"`
	Interval      PlanInterval   `gorm:"column:interval;size:10;not null;default:'month'" json:"interval"`
	MaxLinks      int            `gorm:"column:max_links;not null" json:"maxLinks"`
	Features      datatypes.JSON `gorm:"column:features;type:jsonb" json:"features"`
	StripePriceID *string        `gorm:"column:stripe_price_id;size:100" json:"stripePriceId,omitempty"`
	PayPalPlanID  *string        `gorm:"column:paypal_plan_id;size:100;index" json:"paypalPlanId,omitempty"`
	IsActive      bool           `gorm:"column:is_active;not null" json:"isActive"`
	CreatedAt     time.Time      `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt     time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

// TableName returns the table name for GORM
func (SubscriptionPlan) TableName() string {
	return "subscription_plans"
}

// FeatureList decodes the features column.
func (p *SubscriptionPlan) FeatureList() []string {
	return decodeFeatures(p.Features)
}

// PeriodEnd returns the end of one billing interval starting at from.
func (p *SubscriptionPlan) PeriodEnd(from time.Time) time.Time {
	if p.Interval == IntervalYear {
		return from.AddDate(1, 0, 0)
	}
	return from.AddDate(0, 1, 0)
}
