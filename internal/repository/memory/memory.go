package memory

import (
	"RefStack-Backend/internal/domain"
	"RefStack-Backend/internal/repository"
	"context"
	"sync"
	"time"
)

// MemStorage is an in-process Storage used by tests and local runs.
// Values are copied on the way in and out so callers never share state with the store.
type MemStorage struct {
	mu sync.RWMutex

	users         map[int64]*domain.User
	links         map[int64]*domain.ReferralLink
	clicks        []*domain.Click
	subscriptions map[int64]*domain.Subscription // keyed by user id
	plans         []*domain.SubscriptionPlan
	addons        []*domain.Addon
	userAddons    []*domain.UserAddon
	invoices      []*domain.Invoice
	notifications []*domain.Notification
	auditLogs     []*domain.AuditLog
	webhookEvents map[webhookKey]*domain.WebhookEvent
	domains       map[int64]*domain.CustomDomain

	ids map[string]int64
}

type webhookKey struct {
	provider domain.PaymentProvider
	eventID  string
}

// New returns a store seeded with the default plan and addon catalog.
func New() *MemStorage {
	s := &MemStorage{
		users:         make(map[int64]*domain.User),
		links:         make(map[int64]*domain.ReferralLink),
		subscriptions: make(map[int64]*domain.Subscription),
		webhookEvents: make(map[webhookKey]*domain.WebhookEvent),
		domains:       make(map[int64]*domain.CustomDomain),
		ids:           make(map[string]int64),
	}

	now := time.Now()
	for _, p := range domain.DefaultPlans() {
		plan := p
		plan.ID = s.nextID("plans")
		plan.CreatedAt, plan.UpdatedAt = now, now
		s.plans = append(s.plans, &plan)
	}
	for _, a := range domain.DefaultAddons() {
		addon := a
		addon.ID = s.nextID("addons")
		addon.CreatedAt = now
		s.addons = append(s.addons, &addon)
	}

	return s
}

func (s *MemStorage) nextID(table string) int64 {
	s.ids[table]++
	return s.ids[table]
}

func (s *MemStorage) Ping(_ context.Context) error {
	return nil
}

// SetPlanPayPalID attaches a PayPal plan id to a catalog plan.
func (s *MemStorage) SetPlanPayPalID(planID int64, paypalPlanID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.plans {
		if p.ID == planID {
			id := paypalPlanID
			p.PayPalPlanID = &id
		}
	}
}

// --- User Methods ---

func (s *MemStorage) CreateUser(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == user.Email || u.Username == user.Username {
			return repository.ErrUserExists
		}
	}

	now := time.Now()
	user.ID = s.nextID("users")
	user.CreatedAt, user.UpdatedAt = now, now
	s.users[user.ID] = copyUser(user)
	return nil
}

func (s *MemStorage) GetUserByID(_ context.Context, id int64) (*domain.User, error) {
	return s.findUser(func(u *domain.User) bool { return u.ID == id })
}

func (s *MemStorage) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	return s.findUser(func(u *domain.User) bool { return u.Email == email })
}

func (s *MemStorage) GetUserByUsername(_ context.Context, username string) (*domain.User, error) {
	return s.findUser(func(u *domain.User) bool { return u.Username == username })
}

func (s *MemStorage) findUser(match func(*domain.User) bool) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if match(u) {
			return copyUser(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *MemStorage) UpdateUser(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	for id, u := range s.users {
		if id != user.ID && (u.Email == user.Email || u.Username == user.Username) {
			return repository.ErrUserExists
		}
	}

	user.UpdatedAt = time.Now()
	s.users[user.ID] = copyUser(user)
	return nil
}

func copyUser(u *domain.User) *domain.User {
	c := *u
	c.Subscription = nil
	c.Links = nil
	c.Addons = nil
	return &c
}

var _ repository.Storage = (*MemStorage)(nil)
