package domain

import (
	"time"

	"gorm.io/datatypes"
)

// User представляет владельца реферального стека.
type User struct {
	ID           int64          `gorm:"primaryKey;column:id" json:"id"`
	Email        string         `gorm:"column:email;size:255;uniqueIndex;not null" json:"email"`
	Username     string         `gorm:"column:username;size:50;uniqueIndex;not null" json:"username"`
	PasswordHash string         `gorm:"column:password_hash;not null" json:"-"` // скрываем пароль в JSON
	DisplayName  *string        `gorm:"column:display_name;size:100" json:"display_name,omitempty"`
	Bio          *string        `gorm:"column:bio;type:text" json:"bio,omitempty"`
	AvatarURL    *string        `gorm:"column:avatar_url;size:500" json:"avatar_url,omitempty"`
	Socials      datatypes.JSON `gorm:"column:socials;type:jsonb" json:"socials,omitempty"`   // {"twitter": "...", "youtube": "..."}
	Theme        datatypes.JSON `gorm:"column:theme;type:jsonb" json:"theme,omitempty"`       // кастомная тема публичной страницы
	Branding     datatypes.JSON `gorm:"column:branding;type:jsonb" json:"branding,omitempty"` // логотип, цвета, подпись
	LastLoginAt  *time.Time     `gorm:"column:last_login_at" json:"last_login_at,omitempty"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	// Relationships
	Subscription *Subscription  `gorm:"foreignKey:UserID" json:"subscription,omitempty"`
	Links        []ReferralLink `gorm:"foreignKey:UserID" json:"links,omitempty"`
	Addons       []UserAddon    `gorm:"foreignKey:UserID" json:"addons,omitempty"`
}

// TableName возвращает название таблицы для GORM
func (User) TableName() string {
	return "users"
}

// PublicName возвращает отображаемое имя, либо username если оно не задано
func (u *User) PublicName() string {
	if u.DisplayName != nil && *u.DisplayName != "" {
		return *u.DisplayName
	}
	return u.Username
}
