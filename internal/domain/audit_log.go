package domain

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Audit actions.
const (
	AuditActionCreate   = "CREATE"
	AuditActionUpdate   = "UPDATE"
	AuditActionDelete   = "DELETE"
	AuditActionClick    = "CLICK"
	AuditActionWebhook  = "WEBHOOK"
	AuditActionCancel   = "CANCEL"
	AuditActionActivate = "ACTIVATE"
)

// AuditLog is an append-only trail of state-changing operations.
type AuditLog struct {
	ID        int64          `gorm:"primaryKey;column:id" json:"id"`
	UserID    *int64         `gorm:"column:user_id;index" json:"userId,omitempty"`
	Action    string         `gorm:"column:action;size:30;not null" json:"action"`
	Entity    string         `gorm:"column:entity;size:50;not null;index:idx_audit_entity,priority:1" json:"entity"`
	EntityID  string         `gorm:"column:entity_id;size:100;not null;index:idx_audit_entity,priority:2" json:"entityId"`
	Metadata  datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
	IPAddress *string        `gorm:"column:ip_address;size:64" json:"ipAddress,omitempty"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime;index" json:"createdAt"`
}

// TableName returns the table name for GORM
func (AuditLog) TableName() string {
	return "audit_logs"
}

// NewMetadata encodes a small metadata payload for an audit row.
func NewMetadata(values map[string]any) datatypes.JSON {
	if len(values) == 0 {
		return nil
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}
