package memory

import (
	"RefStack-Backend/internal/domain"
	"RefStack-Backend/internal/repository"
	"context"
	"sort"
	"time"
)

func (s *MemStorage) GetSubscriptionByUserID(_ context.Context, userID int64) (*domain.Subscription, error) {
	return s.findSubscription(func(sub *domain.Subscription) bool { return sub.UserID == userID })
}

func (s *MemStorage) GetSubscriptionByStripeID(_ context.Context, stripeSubscriptionID string) (*domain.Subscription, error) {
	return s.findSubscription(func(sub *domain.Subscription) bool {
		return sub.StripeSubscriptionID != nil && *sub.StripeSubscriptionID == stripeSubscriptionID
	})
}

func (s *MemStorage) GetSubscriptionByPayPalID(_ context.Context, paypalSubscriptionID string) (*domain.Subscription, error) {
	return s.findSubscription(func(sub *domain.Subscription) bool {
		return sub.PayPalSubscriptionID != nil && *sub.PayPalSubscriptionID == paypalSubscriptionID
	})
}

func (s *MemStorage) findSubscription(match func(*domain.Subscription) bool) (*domain.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sub := range s.subscriptions {
		if match(sub) {
			c := *sub
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *MemStorage) UpsertSubscription(_ context.Context, sub *domain.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if existing, ok := s.subscriptions[sub.UserID]; ok {
		sub.ID = existing.ID
		sub.CreatedAt = existing.CreatedAt
	} else {
		sub.ID = s.nextID("subscriptions")
		sub.CreatedAt = now
	}
	sub.UpdatedAt = now

	c := *sub
	s.subscriptions[sub.UserID] = &c
	return nil
}

// SubscriptionCount returns the number of stored subscription rows.
func (s *MemStorage) SubscriptionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subscriptions)
}

func (s *MemStorage) ListPlans(_ context.Context) ([]*domain.SubscriptionPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var plans []*domain.SubscriptionPlan
	for _, p := range s.plans {
		if p.IsActive {
			c := *p
			plans = append(plans, &c)
		}
	}
	sort.SliceStable(plans, func(i, j int) bool { return plans[i].Price < plans[j].Price })
	return plans, nil
}

func (s *MemStorage) GetPlanByID(_ context.Context, id int64) (*domain.SubscriptionPlan, error) {
	return s.findPlan(func(p *domain.SubscriptionPlan) bool { return p.ID == id })
}

func (s *MemStorage) GetPlanByPayPalPlanID(_ context.Context, paypalPlanID string) (*domain.SubscriptionPlan, error) {
	return s.findPlan(func(p *domain.SubscriptionPlan) bool {
		return p.PayPalPlanID != nil && *p.PayPalPlanID == paypalPlanID
	})
}

func (s *MemStorage) findPlan(match func(*domain.SubscriptionPlan) bool) (*domain.SubscriptionPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.plans {
		if match(p) {
			c := *p
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *MemStorage) ListAddons(_ context.Context) ([]*domain.Addon, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var addons []*domain.Addon
	for _, a := range s.addons {
		if a.IsActive {
			c := *a
			addons = append(addons, &c)
		}
	}
	return addons, nil
}

func (s *MemStorage) ListUserAddons(_ context.Context, userID int64) ([]*domain.UserAddon, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.UserAddon
	for _, ua := range s.userAddons {
		if ua.UserID != userID || !ua.IsActive {
			continue
		}
		c := *ua
		for _, a := range s.addons {
			if a.ID == ua.AddonID {
				addon := *a
				c.Addon = &addon
			}
		}
		out = append(out, &c)
	}
	return out, nil
}

func (s *MemStorage) CreateUserAddon(_ context.Context, ua *domain.UserAddon) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ua.ID = s.nextID("user_addons")
	ua.CreatedAt = time.Now()
	c := *ua
	c.Addon = nil
	s.userAddons = append(s.userAddons, &c)
	return nil
}
