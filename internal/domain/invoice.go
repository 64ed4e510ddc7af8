package domain

import (
	"time"

	"gorm.io/datatypes"
)

// InvoiceStatus represents the payment state of an invoice
type InvoiceStatus string

const (
	InvoiceStatusPaid   InvoiceStatus = "paid"
	InvoiceStatusFailed InvoiceStatus = "failed"
)

// Invoice is an append-only record of a confirmed payment.
type Invoice struct {
	ID                    int64           `gorm:"primaryKey;column:id" json:"id"`
	UserID                int64           `gorm:"column:user_id;not null;index" json:"userId"`
	Number                string          `gorm:"column:number;size:64;uniqueIndex;not null" json:"number"`
	Amount                float64         `gorm:"column:amount;type:decimal(12,2);not null" json:"amount"`
	Currency              string          `gorm:"column:currency;size:10;not null" json:"currency"`
	Status                InvoiceStatus   `gorm:"column:status;size:20;not null" json:"status"`
	Provider              PaymentProvider `gorm:"column:provider;size:20;not null;uniqueIndex:ux_invoices_provider_txn,priority:1" json:"provider"`
	ProviderTransactionID string          `gorm:"column:provider_transaction_id;size:191;not null;uniqueIndex:ux_invoices_provider_txn,priority:2" json:"providerTransactionId"`
	Metadata              datatypes.JSON  `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
	PaidAt                time.Time       `gorm:"column:paid_at;not null" json:"paidAt"`
	CreatedAt             time.Time       `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}

// TableName returns the table name for GORM
func (Invoice) TableName() string {
	return "invoices"
}
