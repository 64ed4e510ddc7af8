package repository

import (
	"RefStack-Backend/internal/domain"
	"context"
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrUserExists      = errors.New("user already exists")
	ErrShortCodeExists = errors.New("short code already exists")
	ErrSlugTaken       = errors.New("slug already taken")
	ErrDomainExists    = errors.New("domain already registered")
	ErrDuplicate       = errors.New("duplicate record")
)

// QuotaExceededError is returned when an owner already has the maximum number of active links.
type QuotaExceededError struct {
	CurrentCount int64
	MaxLinks     int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("link limit reached: %d of %d active links", e.CurrentCount, e.MaxLinks)
}

// ClickBreakdown aggregates the clicks of one link.
type ClickBreakdown struct {
	Total     int64            `json:"total"`
	Bots      int64            `json:"bots"`
	ByBrowser map[string]int64 `json:"byBrowser"`
	ByOS      map[string]int64 `json:"byOs"`
	ByDevice  map[string]int64 `json:"byDevice"`
}

type Storage interface {
	Ping(ctx context.Context) error

	// User methods
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) error

	// Referral link methods
	ListUserLinks(ctx context.Context, userID int64) ([]*domain.ReferralLink, error)
	GetLinkByID(ctx context.Context, id int64) (*domain.ReferralLink, error)
	ResolveActiveLink(ctx context.Context, code string) (*domain.ReferralLink, error)
	ShortCodeExists(ctx context.Context, code string) (bool, error)
	CustomSlugTaken(ctx context.Context, slug string, excludeID int64) (bool, error)
	CountActiveLinks(ctx context.Context, userID int64) (int64, error)
	// CreateLink checks the quota and inserts in one atomic step.
	CreateLink(ctx context.Context, link *domain.ReferralLink, maxLinks int) error
	// UpdateLink re-checks the quota when an inactive link is switched back on.
	UpdateLink(ctx context.Context, link *domain.ReferralLink, maxLinks int) error
	DeleteLink(ctx context.Context, id int64) error
	IncrementClickCount(ctx context.Context, linkID int64) error

	// Click methods
	CreateClick(ctx context.Context, click *domain.Click) error
	GetClickBreakdown(ctx context.Context, linkID int64) (*ClickBreakdown, error)

	// Subscription methods
	GetSubscriptionByUserID(ctx context.Context, userID int64) (*domain.Subscription, error)
	GetSubscriptionByStripeID(ctx context.Context, stripeSubscriptionID string) (*domain.Subscription, error)
	GetSubscriptionByPayPalID(ctx context.Context, paypalSubscriptionID string) (*domain.Subscription, error)
	UpsertSubscription(ctx context.Context, sub *domain.Subscription) error
	ListPlans(ctx context.Context) ([]*domain.SubscriptionPlan, error)
	GetPlanByID(ctx context.Context, id int64) (*domain.SubscriptionPlan, error)
	GetPlanByPayPalPlanID(ctx context.Context, paypalPlanID string) (*domain.SubscriptionPlan, error)
	ListAddons(ctx context.Context) ([]*domain.Addon, error)
	ListUserAddons(ctx context.Context, userID int64) ([]*domain.UserAddon, error)
	CreateUserAddon(ctx context.Context, ua *domain.UserAddon) error

	// Billing and bookkeeping
	CreateInvoice(ctx context.Context, invoice *domain.Invoice) error
	ListInvoices(ctx context.Context, userID int64) ([]*domain.Invoice, error)
	CreateNotification(ctx context.Context, n *domain.Notification) error
	ListNotifications(ctx context.Context, userID int64, limit int) ([]*domain.Notification, error)
	CreateAuditLog(ctx context.Context, entry *domain.AuditLog) error
	ListAuditLogs(ctx context.Context, entity, entityID string) ([]*domain.AuditLog, error)

	// Webhook delivery log. BeginWebhookEvent claims the event and reports whether
	// it must be skipped: already processed or claimed by an attempt in flight.
	BeginWebhookEvent(ctx context.Context, event *domain.WebhookEvent) (bool, error)
	FinishWebhookEvent(ctx context.Context, id int64, processingErr error) error

	// Custom domain methods
	CreateCustomDomain(ctx context.Context, d *domain.CustomDomain) error
	GetCustomDomain(ctx context.Context, id int64) (*domain.CustomDomain, error)
	ListCustomDomains(ctx context.Context, userID int64) ([]*domain.CustomDomain, error)
	UpdateCustomDomain(ctx context.Context, d *domain.CustomDomain) error
	DeleteCustomDomain(ctx context.Context, id int64) error
}
