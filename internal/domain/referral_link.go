package domain

import "time"

// ReferralLink представляет реферальную ссылку пользователя
type ReferralLink struct {
	ID              int64     `gorm:"primaryKey;column:id" json:"id"`
	UserID          int64     `gorm:"column:user_id;not null;index" json:"userId"`
	Name            string    `gorm:"column:name;size:100;not null" json:"name"`
	URL             string    `gorm:"column:url;type:text;not null" json:"url"`
	ShortCode       string    `gorm:"column:short_code;size:16;uniqueIndex;not null" json:"shortCode"`
	CustomSlug      *string   `gorm:"column:custom_slug;size:64;uniqueIndex" json:"customSlug,omitempty"` // NULL не участвует в уникальности
	Description     *string   `gorm:"column:description;type:text" json:"description,omitempty"`
	CustomColor     *string   `gorm:"column:custom_color;size:20" json:"customColor,omitempty"`
	CustomLogo      *string   `gorm:"column:custom_logo;size:500" json:"customLogo,omitempty"`
	IsActive        bool      `gorm:"column:is_active;not null;index" json:"active"`
	IsPublic        bool      `gorm:"column:is_public;not null" json:"isPublic"`
	DisplayOrder    int       `gorm:"column:display_order;not null;default:0" json:"displayOrder"`
	ClickCount      int64     `gorm:"column:click_count;not null;default:0" json:"clickCount"`
	ConversionCount int64     `gorm:"column:conversion_count;not null;default:0" json:"conversionCount"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime;index" json:"createdAt"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

// TableName возвращает название таблицы для GORM
func (ReferralLink) TableName() string {
	return "referral_links"
}

// Slug возвращает кастомный slug или пустую строку
func (l *ReferralLink) Slug() string {
	if l.CustomSlug != nil {
		return *l.CustomSlug
	}
	return ""
}
