package domain

import "time"

// AddonWhiteLabel hides platform branding on the public page.
const AddonWhiteLabel = "white_label"

// Addon is an optional paid extra on top of a plan.
type Addon struct {
	ID        int64     `gorm:"primaryKey;column:id" json:"id"`
	Key       string    `gorm:"column:key;size:50;uniqueIndex;not null" json:"key"`
	Name      string    `gorm:"column:name;size:100;not null" json:"name"`
	Price     float64   `gorm:"column:price;type:decimal(10,2);not null;default:0.00" json:"price"`
	IsActive  bool      `gorm:"column:is_active;not null" json:"isActive"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}

// TableName returns the table name for GORM
func (Addon) TableName() string {
	return "addons"
}

// UserAddon links a purchased addon to a user.
type UserAddon struct {
	ID        int64     `gorm:"primaryKey;column:id" json:"id"`
	UserID    int64     `gorm:"column:user_id;not null;index" json:"userId"`
	AddonID   int64     `gorm:"column:addon_id;not null" json:"addonId"`
	IsActive  bool      `gorm:"column:is_active;not null" json:"isActive"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`

	// Relationships
	Addon *Addon `gorm:"foreignKey:AddonID" json:"addon,omitempty"`
}

// TableName returns the table name for GORM
func (UserAddon) TableName() string {
	return "user_addons"
}
