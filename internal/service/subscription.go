package service

import (
	"RefStack-Backend/internal/domain"
	"RefStack-Backend/internal/notify"
	"RefStack-Backend/internal/repository"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	entitySubscription = "subscription"
	entityAddon        = "addon"
)

// CurrentSubscription is the subscription view of a user.
type CurrentSubscription struct {
	Subscription *domain.Subscription       `json:"subscription"`
	Plans        []*domain.SubscriptionPlan `json:"plans"`
	Addons       []*domain.Addon            `json:"addons"`
	UserAddons   []*domain.UserAddon        `json:"userAddons"`
}

// Activation describes a subscription state pushed by a payment provider.
// Nil fields keep the stored value.
type Activation struct {
	UserID               int64
	PlanID               *int64
	Status               domain.SubscriptionStatus
	Provider             domain.PaymentProvider
	CurrentPeriodEnd     *time.Time
	StripeCustomerID     *string
	StripeSubscriptionID *string
	PayPalSubscriptionID *string
}

// SubscriptionService owns the subscription state machine shared by the API and the webhooks.
type SubscriptionService struct {
	storage  repository.Storage
	notifier *notify.Notifier
	audit    auditor
	log      *zap.Logger
	now      func() time.Time
}

func NewSubscriptionService(storage repository.Storage, notifier *notify.Notifier, log *zap.Logger) *SubscriptionService {
	return &SubscriptionService{
		storage:  storage,
		notifier: notifier,
		audit:    auditor{storage: storage, log: log},
		log:      log,
		now:      time.Now,
	}
}

// Current returns the subscription (nil if none) with the plan and addon catalog.
func (s *SubscriptionService) Current(ctx context.Context, userID int64) (*CurrentSubscription, error) {
	sub, err := s.storage.GetSubscriptionByUserID(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	plans, err := s.storage.ListPlans(ctx)
	if err != nil {
		return nil, err
	}
	addons, err := s.storage.ListAddons(ctx)
	if err != nil {
		return nil, err
	}
	userAddons, err := s.storage.ListUserAddons(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &CurrentSubscription{
		Subscription: sub,
		Plans:        plans,
		Addons:       addons,
		UserAddons:   userAddons,
	}, nil
}

// Plans lists the active plan catalog.
func (s *SubscriptionService) Plans(ctx context.Context) ([]*domain.SubscriptionPlan, error) {
	return s.storage.ListPlans(ctx)
}

// ChangePlan switches the user to a plan and activates it for one billing interval.
func (s *SubscriptionService) ChangePlan(ctx context.Context, userID, planID int64) (*domain.Subscription, error) {
	plan, err := s.storage.GetPlanByID(ctx, planID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && !plan.IsActive) {
		return nil, invalid("planId", "unknown plan")
	}
	if err != nil {
		return nil, err
	}

	sub, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	previous := sub.Plan

	now := s.now()
	periodEnd := plan.PeriodEnd(now)
	applyPlan(sub, plan)
	sub.Status = domain.SubscriptionStatusActive
	sub.CurrentPeriodEnd = &periodEnd
	sub.CancelAtPeriodEnd = false
	sub.CanceledAt = nil
	sub.CancelReason = nil
	if sub.Provider == "" {
		sub.Provider = domain.ProviderManual
	}

	if err := s.storage.UpsertSubscription(ctx, sub); err != nil {
		return nil, err
	}

	s.audit.record(ctx, int64Ptr(userID), domain.AuditActionUpdate, entitySubscription, strconv.FormatInt(sub.ID, 10), map[string]any{
		"from": previous,
		"to":   plan.Name,
	})
	s.notify(ctx, userID, domain.NotificationSubscriptionUpdated, "Plan changed",
		fmt.Sprintf("Your subscription is now on the %s plan.", plan.Name))

	return sub, nil
}

// Cancel marks the subscription canceled at the end of the current period.
func (s *SubscriptionService) Cancel(ctx context.Context, userID int64, reason string) (*domain.Subscription, error) {
	sub, err := s.storage.GetSubscriptionByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	sub.Status = domain.SubscriptionStatusCanceled
	sub.CancelAtPeriodEnd = true
	sub.CanceledAt = &now
	if reason = strings.TrimSpace(reason); reason != "" {
		sub.CancelReason = &reason
	} else {
		sub.CancelReason = nil
	}

	if err := s.storage.UpsertSubscription(ctx, sub); err != nil {
		return nil, err
	}

	s.audit.record(ctx, int64Ptr(userID), domain.AuditActionCancel, entitySubscription, strconv.FormatInt(sub.ID, 10), map[string]any{
		"plan":   sub.Plan,
		"reason": reason,
	})
	s.notify(ctx, userID, domain.NotificationSubscriptionCanceled, "Subscription canceled",
		"Your subscription has been canceled and will end with the current billing period.")

	return sub, nil
}

// Activate upserts the user's subscription from a provider event.
func (s *SubscriptionService) Activate(ctx context.Context, a Activation) (*domain.Subscription, error) {
	sub, err := s.load(ctx, a.UserID)
	if err != nil {
		return nil, err
	}

	if a.PlanID != nil {
		plan, err := s.storage.GetPlanByID(ctx, *a.PlanID)
		if err != nil {
			return nil, fmt.Errorf("failed to load plan %d: %w", *a.PlanID, err)
		}
		applyPlan(sub, plan)
	} else if sub.Plan == "" {
		sub.Plan = domain.PlanFree
		sub.MaxLinks = domain.DefaultMaxLinks
	}

	sub.Status = a.Status
	if a.Provider != "" {
		sub.Provider = a.Provider
	}
	if a.CurrentPeriodEnd != nil {
		sub.CurrentPeriodEnd = a.CurrentPeriodEnd
	}
	if a.StripeCustomerID != nil {
		sub.StripeCustomerID = a.StripeCustomerID
	}
	if a.StripeSubscriptionID != nil {
		sub.StripeSubscriptionID = a.StripeSubscriptionID
	}
	if a.PayPalSubscriptionID != nil {
		sub.PayPalSubscriptionID = a.PayPalSubscriptionID
	}
	if a.Status == domain.SubscriptionStatusActive {
		sub.CancelAtPeriodEnd = false
		sub.CanceledAt = nil
		sub.CancelReason = nil
	}

	if err := s.storage.UpsertSubscription(ctx, sub); err != nil {
		return nil, err
	}

	s.audit.record(ctx, int64Ptr(a.UserID), domain.AuditActionActivate, entitySubscription, strconv.FormatInt(sub.ID, 10), map[string]any{
		"plan":     sub.Plan,
		"status":   string(sub.Status),
		"provider": string(sub.Provider),
	})

	return sub, nil
}

// Save persists a subscription changed by a provider event.
func (s *SubscriptionService) Save(ctx context.Context, sub *domain.Subscription, action string) error {
	if err := s.storage.UpsertSubscription(ctx, sub); err != nil {
		return err
	}
	s.audit.record(ctx, int64Ptr(sub.UserID), action, entitySubscription, strconv.FormatInt(sub.ID, 10), map[string]any{
		"status":            string(sub.Status),
		"cancelAtPeriodEnd": sub.CancelAtPeriodEnd,
	})
	return nil
}

// ActivateAddon grants the addon with the given key. Granting an addon the user
// already holds returns the existing row.
func (s *SubscriptionService) ActivateAddon(ctx context.Context, userID int64, key string) (*domain.UserAddon, error) {
	owned, err := s.storage.ListUserAddons(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, ua := range owned {
		if ua.IsActive && ua.Addon != nil && ua.Addon.Key == key {
			return ua, nil
		}
	}

	addons, err := s.storage.ListAddons(ctx)
	if err != nil {
		return nil, err
	}
	var addon *domain.Addon
	for _, a := range addons {
		if a.Key == key && a.IsActive {
			addon = a
			break
		}
	}
	if addon == nil {
		return nil, invalid("addon", "unknown addon")
	}

	ua := &domain.UserAddon{UserID: userID, AddonID: addon.ID, IsActive: true}
	if err := s.storage.CreateUserAddon(ctx, ua); err != nil {
		return nil, err
	}
	ua.Addon = addon

	s.audit.record(ctx, int64Ptr(userID), domain.AuditActionActivate, entityAddon, strconv.FormatInt(ua.ID, 10), map[string]any{
		"addon": addon.Key,
	})
	return ua, nil
}

// load returns the stored subscription or a fresh one for the user.
func (s *SubscriptionService) load(ctx context.Context, userID int64) (*domain.Subscription, error) {
	sub, err := s.storage.GetSubscriptionByUserID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return &domain.Subscription{UserID: userID}, nil
	}
	return sub, err
}

func (s *SubscriptionService) notify(ctx context.Context, userID int64, kind, title, message string) {
	if err := s.notifier.Notify(ctx, userID, kind, title, message); err != nil {
		s.log.Warn("failed to notify user", zap.Int64("user_id", userID), zap.String("type", kind), zap.Error(err))
	}
}

func applyPlan(sub *domain.Subscription, plan *domain.SubscriptionPlan) {
	planID := plan.ID
	sub.PlanID = &planID
	sub.Plan = plan.Name
	sub.MaxLinks = plan.MaxLinks
	sub.Features = plan.Features
}
