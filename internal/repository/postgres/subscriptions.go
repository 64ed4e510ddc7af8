package postgres

import (
	"RefStack-Backend/internal/domain"
	"RefStack-Backend/internal/repository"
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var subscriptionUpsertColumns = []string{
	"plan_id", "plan", "status", "max_links", "features",
	"current_period_end", "cancel_at_period_end", "canceled_at", "cancel_reason",
	"provider", "stripe_customer_id", "stripe_subscription_id", "paypal_subscription_id",
	"updated_at",
}

func (s *PostgresStorage) GetSubscriptionByUserID(ctx context.Context, userID int64) (*domain.Subscription, error) {
	return s.findSubscription(ctx, "user_id = ?", userID)
}

func (s *PostgresStorage) GetSubscriptionByStripeID(ctx context.Context, stripeSubscriptionID string) (*domain.Subscription, error) {
	return s.findSubscription(ctx, "stripe_subscription_id = ?", stripeSubscriptionID)
}

func (s *PostgresStorage) GetSubscriptionByPayPalID(ctx context.Context, paypalSubscriptionID string) (*domain.Subscription, error) {
	return s.findSubscription(ctx, "paypal_subscription_id = ?", paypalSubscriptionID)
}

func (s *PostgresStorage) findSubscription(ctx context.Context, query string, arg any) (*domain.Subscription, error) {
	var sub domain.Subscription

	err := s.db.WithContext(ctx).Where(query, arg).First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		s.log.Error("failed to get subscription", zap.String("query", query), zap.Error(err))
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	return &sub, nil
}

// UpsertSubscription inserts or replaces the single subscription row of a user.
// Rows loaded from storage are saved by id, new rows conflict on user_id.
func (s *PostgresStorage) UpsertSubscription(ctx context.Context, sub *domain.Subscription) error {
	var err error
	if sub.ID != 0 {
		err = s.db.WithContext(ctx).Save(sub).Error
	} else {
		err = s.db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}},
				DoUpdates: clause.AssignmentColumns(subscriptionUpsertColumns),
			}).
			Create(sub).Error
	}
	if err != nil {
		s.log.Error("failed to upsert subscription", zap.Int64("user_id", sub.UserID), zap.Error(err))
		return fmt.Errorf("failed to upsert subscription: %w", err)
	}

	s.log.Info("subscription saved",
		zap.Int64("user_id", sub.UserID),
		zap.String("plan", sub.Plan),
		zap.String("status", string(sub.Status)))
	return nil
}

// ListPlans returns active plans ordered by price.
func (s *PostgresStorage) ListPlans(ctx context.Context) ([]*domain.SubscriptionPlan, error) {
	var plans []*domain.SubscriptionPlan
	err := s.db.WithContext(ctx).Where("is_active = ?", true).Order("price ASC, id ASC").Find(&plans).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	return plans, nil
}

func (s *PostgresStorage) GetPlanByID(ctx context.Context, id int64) (*domain.SubscriptionPlan, error) {
	return s.findPlan(ctx, "id = ?", id)
}

func (s *PostgresStorage) GetPlanByPayPalPlanID(ctx context.Context, paypalPlanID string) (*domain.SubscriptionPlan, error) {
	return s.findPlan(ctx, "paypal_plan_id = ?", paypalPlanID)
}

func (s *PostgresStorage) findPlan(ctx context.Context, query string, arg any) (*domain.SubscriptionPlan, error) {
	var plan domain.SubscriptionPlan

	err := s.db.WithContext(ctx).Where(query, arg).First(&plan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	return &plan, nil
}

func (s *PostgresStorage) ListAddons(ctx context.Context) ([]*domain.Addon, error) {
	var addons []*domain.Addon
	if err := s.db.WithContext(ctx).Where("is_active = ?", true).Order("id ASC").Find(&addons).Error; err != nil {
		return nil, fmt.Errorf("failed to list addons: %w", err)
	}
	return addons, nil
}

// ListUserAddons returns the active addons of a user with the addon preloaded.
func (s *PostgresStorage) ListUserAddons(ctx context.Context, userID int64) ([]*domain.UserAddon, error) {
	var addons []*domain.UserAddon
	err := s.db.WithContext(ctx).
		Preload("Addon").
		Where("user_id = ? AND is_active = ?", userID, true).
		Find(&addons).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list user addons: %w", err)
	}
	return addons, nil
}

func (s *PostgresStorage) CreateUserAddon(ctx context.Context, ua *domain.UserAddon) error {
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(ua).Error; err != nil {
		return fmt.Errorf("failed to create user addon: %w", err)
	}
	return nil
}
