package postgres

import (
	"RefStack-Backend/internal/domain"
	"RefStack-Backend/internal/repository"
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateInvoice stores a paid or failed invoice. A second invoice for the same
// provider transaction is rejected with ErrDuplicate.
func (s *PostgresStorage) CreateInvoice(ctx context.Context, invoice *domain.Invoice) error {
	if err := s.db.WithContext(ctx).Create(invoice).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return repository.ErrDuplicate
		}
		s.log.Error("failed to create invoice", zap.Int64("user_id", invoice.UserID), zap.Error(err))
		return fmt.Errorf("failed to create invoice: %w", err)
	}
	return nil
}

func (s *PostgresStorage) ListInvoices(ctx context.Context, userID int64) ([]*domain.Invoice, error) {
	var invoices []*domain.Invoice
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("paid_at DESC, id DESC").Find(&invoices).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	return invoices, nil
}

func (s *PostgresStorage) CreateNotification(ctx context.Context, n *domain.Notification) error {
	if err := s.db.WithContext(ctx).Create(n).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// ListNotifications returns the newest notifications of a user.
func (s *PostgresStorage) ListNotifications(ctx context.Context, userID int64, limit int) ([]*domain.Notification, error) {
	var notifications []*domain.Notification
	q := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&notifications).Error; err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

func (s *PostgresStorage) CreateAuditLog(ctx context.Context, entry *domain.AuditLog) error {
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	return nil
}

func (s *PostgresStorage) ListAuditLogs(ctx context.Context, entity, entityID string) ([]*domain.AuditLog, error) {
	var entries []*domain.AuditLog
	err := s.db.WithContext(ctx).
		Where("entity = ? AND entity_id = ?", entity, entityID).
		Order("created_at ASC, id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return entries, nil
}

// BeginWebhookEvent records a delivery and claims it for the caller. It reports
// true when the event must be skipped: it was already processed, or another
// attempt holds a claim younger than domain.WebhookClaimTTL. Claiming an
// existing row is a single conditional UPDATE, so two concurrent redeliveries
// cannot both win it.
func (s *PostgresStorage) BeginWebhookEvent(ctx context.Context, event *domain.WebhookEvent) (bool, error) {
	now := time.Now()
	event.ClaimedAt = &now

	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(event)
	if result.Error != nil {
		s.log.Error("failed to record webhook event",
			zap.String("provider", string(event.Provider)),
			zap.String("event_id", event.ProviderEventID),
			zap.Error(result.Error))
		return false, fmt.Errorf("failed to record webhook event: %w", result.Error)
	}
	if result.RowsAffected == 1 {
		return false, nil
	}

	claim := s.db.WithContext(ctx).Model(&domain.WebhookEvent{}).
		Where("provider = ? AND provider_event_id = ?", event.Provider, event.ProviderEventID).
		Where("processed_at IS NULL AND (claimed_at IS NULL OR claimed_at < ?)", now.Add(-domain.WebhookClaimTTL)).
		Update("claimed_at", now)
	if claim.Error != nil {
		return false, fmt.Errorf("failed to claim webhook event: %w", claim.Error)
	}

	var existing domain.WebhookEvent
	err := s.db.WithContext(ctx).
		Where("provider = ? AND provider_event_id = ?", event.Provider, event.ProviderEventID).
		First(&existing).Error
	if err != nil {
		return false, fmt.Errorf("failed to load webhook event: %w", err)
	}

	event.ID = existing.ID
	event.ProcessedAt = existing.ProcessedAt
	if claim.RowsAffected == 0 {
		event.ClaimedAt = existing.ClaimedAt
		return true, nil
	}
	return false, nil
}

func (s *PostgresStorage) FinishWebhookEvent(ctx context.Context, id int64, processingErr error) error {
	updates := map[string]any{}
	if processingErr != nil {
		// снимаем захват, чтобы повторная доставка могла выполнить событие
		updates["processing_error"] = processingErr.Error()
		updates["claimed_at"] = nil
	} else {
		updates["processed_at"] = time.Now()
		updates["processing_error"] = nil
	}

	err := s.db.WithContext(ctx).Model(&domain.WebhookEvent{}).Where("id = ?", id).Updates(updates).Error
	if err != nil {
		return fmt.Errorf("failed to finish webhook event: %w", err)
	}
	return nil
}
