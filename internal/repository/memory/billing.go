package memory

import (
	"RefStack-Backend/internal/domain"
	"RefStack-Backend/internal/repository"
	"context"
	"sort"
	"time"
)

func (s *MemStorage) CreateInvoice(_ context.Context, invoice *domain.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, inv := range s.invoices {
		if inv.Provider == invoice.Provider && inv.ProviderTransactionID == invoice.ProviderTransactionID {
			return repository.ErrDuplicate
		}
		if inv.Number == invoice.Number {
			return repository.ErrDuplicate
		}
	}

	invoice.ID = s.nextID("invoices")
	invoice.CreatedAt = time.Now()
	c := *invoice
	s.invoices = append(s.invoices, &c)
	return nil
}

func (s *MemStorage) ListInvoices(_ context.Context, userID int64) ([]*domain.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Invoice
	for i := len(s.invoices) - 1; i >= 0; i-- {
		if s.invoices[i].UserID == userID {
			c := *s.invoices[i]
			out = append(out, &c)
		}
	}
	return out, nil
}

func (s *MemStorage) CreateNotification(_ context.Context, n *domain.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n.ID = s.nextID("notifications")
	n.CreatedAt = time.Now()
	c := *n
	s.notifications = append(s.notifications, &c)
	return nil
}

func (s *MemStorage) ListNotifications(_ context.Context, userID int64, limit int) ([]*domain.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Notification
	for i := len(s.notifications) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		if s.notifications[i].UserID == userID {
			c := *s.notifications[i]
			out = append(out, &c)
		}
	}
	return out, nil
}

func (s *MemStorage) CreateAuditLog(_ context.Context, entry *domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry.ID = s.nextID("audit_logs")
	entry.CreatedAt = time.Now()
	c := *entry
	s.auditLogs = append(s.auditLogs, &c)
	return nil
}

func (s *MemStorage) ListAuditLogs(_ context.Context, entity, entityID string) ([]*domain.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.AuditLog
	for _, e := range s.auditLogs {
		if e.Entity == entity && e.EntityID == entityID {
			c := *e
			out = append(out, &c)
		}
	}
	return out, nil
}

// AuditLogCount returns the total number of audit rows.
func (s *MemStorage) AuditLogCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.auditLogs)
}

func (s *MemStorage) BeginWebhookEvent(_ context.Context, event *domain.WebhookEvent) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	key := webhookKey{provider: event.Provider, eventID: event.ProviderEventID}
	if existing, ok := s.webhookEvents[key]; ok {
		event.ID = existing.ID
		event.ProcessedAt = existing.ProcessedAt
		claimed := existing.ClaimedAt != nil && existing.ClaimedAt.After(now.Add(-domain.WebhookClaimTTL))
		if existing.ProcessedAt != nil || claimed {
			event.ClaimedAt = existing.ClaimedAt
			return true, nil
		}
		existing.ClaimedAt = &now
		existing.UpdatedAt = now
		event.ClaimedAt = &now
		return false, nil
	}

	event.ID = s.nextID("webhook_events")
	event.CreatedAt, event.UpdatedAt = now, now
	event.ClaimedAt = &now
	c := *event
	s.webhookEvents[key] = &c
	return false, nil
}

func (s *MemStorage) FinishWebhookEvent(_ context.Context, id int64, processingErr error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.webhookEvents {
		if e.ID != id {
			continue
		}
		now := time.Now()
		e.UpdatedAt = now
		if processingErr != nil {
			msg := processingErr.Error()
			e.ProcessingError = &msg
			e.ClaimedAt = nil
		} else {
			e.ProcessedAt = &now
			e.ProcessingError = nil
		}
		return nil
	}
	return repository.ErrNotFound
}

// WebhookEvents returns the recorded deliveries ordered by id.
func (s *MemStorage) WebhookEvents() []domain.WebhookEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.WebhookEvent, 0, len(s.webhookEvents))
	for _, e := range s.webhookEvents {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// --- Custom Domains ---

func (s *MemStorage) CreateCustomDomain(_ context.Context, d *domain.CustomDomain) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.domains {
		if existing.Domain == d.Domain {
			return repository.ErrDomainExists
		}
	}

	now := time.Now()
	d.ID = s.nextID("custom_domains")
	d.CreatedAt, d.UpdatedAt = now, now
	c := *d
	s.domains[d.ID] = &c
	return nil
}

func (s *MemStorage) GetCustomDomain(_ context.Context, id int64) (*domain.CustomDomain, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.domains[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *d
	return &c, nil
}

func (s *MemStorage) ListCustomDomains(_ context.Context, userID int64) ([]*domain.CustomDomain, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.CustomDomain
	for _, d := range s.domains {
		if d.UserID == userID {
			c := *d
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemStorage) UpdateCustomDomain(_ context.Context, d *domain.CustomDomain) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.domains[d.ID]; !ok {
		return repository.ErrNotFound
	}
	d.UpdatedAt = time.Now()
	c := *d
	s.domains[d.ID] = &c
	return nil
}

func (s *MemStorage) DeleteCustomDomain(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.domains[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.domains, id)
	return nil
}
