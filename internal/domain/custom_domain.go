package domain

import "time"

// CustomDomainStatus is the provisioning state of a custom domain.
type CustomDomainStatus string

const (
	CustomDomainPending CustomDomainStatus = "pending"
	CustomDomainActive  CustomDomainStatus = "active"
	CustomDomainError   CustomDomainStatus = "error"
)

// CustomDomain is a user-owned hostname serving the public page.
type CustomDomain struct {
	ID                int64              `gorm:"primaryKey;column:id" json:"id"`
	UserID            int64              `gorm:"column:user_id;not null;index" json:"userId"`
	Domain            string             `gorm:"column:domain;size:253;uniqueIndex;not null" json:"domain"`
	Status            CustomDomainStatus `gorm:"column:status;size:10;not null;default:'pending'" json:"status"`
	DNSVerified       bool               `gorm:"column:dns_verified;not null;default:false" json:"dnsVerified"`
	SSLProvisioned    bool               `gorm:"column:ssl_provisioned;not null;default:false" json:"sslProvisioned"`
	VerificationToken string             `gorm:"column:verification_token;size:64;not null" json:"verificationToken"`
	LastError         *string            `gorm:"column:last_error;type:text" json:"lastError,omitempty"`
	CreatedAt         time.Time          `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt         time.Time          `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

// TableName returns the table name for GORM
func (CustomDomain) TableName() string {
	return "custom_domains"
}

// RefreshStatus derives the status from the verification flags.
// A domain in error stays there until verification succeeds again.
func (d *CustomDomain) RefreshStatus() {
	switch {
	case d.DNSVerified && d.SSLProvisioned:
		d.Status = CustomDomainActive
		d.LastError = nil
	case d.Status == CustomDomainError && !d.DNSVerified:
		// keep error
	default:
		d.Status = CustomDomainPending
	}
}
