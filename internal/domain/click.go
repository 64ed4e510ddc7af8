package domain

import "time"

// UnknownIP is stored when no proxy header carries the client address.
const UnknownIP = "unknown"

// Column limits of client-supplied click fields.
const (
	MaxClickIPLength      = 64
	MaxClickRefererLength = 500
)

// Click представляет переход по реферальной ссылке.
// Записи неизменяемы и не удаляются вместе со ссылкой.
type Click struct {
	ID        int64     `gorm:"primaryKey;column:id" json:"id"`
	LinkID    int64     `gorm:"column:link_id;not null;index" json:"linkId"` // без внешнего ключа: клики переживают удаление ссылки
	IP        string    `gorm:"column:ip;size:64;not null" json:"ip"`
	UserAgent string    `gorm:"column:user_agent;type:text" json:"userAgent"`
	Browser   string    `gorm:"column:browser;size:20;not null" json:"browser"`
	OS        string    `gorm:"column:os;size:20;not null" json:"os"`
	Device    string    `gorm:"column:device;size:20;not null" json:"device"`
	Referer   *string   `gorm:"column:referer;size:500" json:"referer,omitempty"`
	IsBot     bool      `gorm:"column:is_bot;not null;default:false" json:"isBot"`
	ClickedAt time.Time `gorm:"column:clicked_at;autoCreateTime;index" json:"clickedAt"`
}

// TableName возвращает название таблицы для GORM
func (Click) TableName() string {
	return "clicks"
}
