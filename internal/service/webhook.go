package service

import (
	"RefStack-Backend/internal/domain"
	"RefStack-Backend/internal/repository"
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Provider status strings map onto the internal enum through these tables.
var (
	stripeStatuses = map[string]domain.SubscriptionStatus{
		"active":             domain.SubscriptionStatusActive,
		"trialing":           domain.SubscriptionStatusActive,
		"past_due":           domain.SubscriptionStatusPastDue,
		"canceled":           domain.SubscriptionStatusCanceled,
		"incomplete_expired": domain.SubscriptionStatusCanceled,
		"unpaid":             domain.SubscriptionStatusUnpaid,
		"incomplete":         domain.SubscriptionStatusPending,
	}
	paypalStatuses = map[string]domain.SubscriptionStatus{
		"APPROVAL_PENDING": domain.SubscriptionStatusPending,
		"APPROVED":         domain.SubscriptionStatusPending,
		"ACTIVE":           domain.SubscriptionStatusActive,
		"SUSPENDED":        domain.SubscriptionStatusPastDue,
		"CANCELLED":        domain.SubscriptionStatusCanceled,
		"EXPIRED":          domain.SubscriptionStatusCanceled,
	}
)

func translateStatus(table map[string]domain.SubscriptionStatus, status string) domain.SubscriptionStatus {
	if s, ok := table[status]; ok {
		return s
	}
	return domain.SubscriptionStatusUnknown
}

// webhookLog records deliveries and skips those already processed.
type webhookLog struct {
	storage repository.Storage
	log     *zap.Logger
}

// process runs handle once per (provider, event id). A failed attempt releases
// its claim, so a provider redelivery runs it again; a redelivery that arrives
// while an attempt is still running is skipped.
func (w webhookLog) process(ctx context.Context, provider domain.PaymentProvider, eventID, eventType string, payload []byte, handle func(context.Context) error) error {
	event := &domain.WebhookEvent{
		Provider:        provider,
		ProviderEventID: eventID,
		EventType:       eventType,
		Payload:         string(payload),
	}

	processed, err := w.storage.BeginWebhookEvent(ctx, event)
	if err != nil {
		return fmt.Errorf("failed to record webhook event: %w", err)
	}
	if processed {
		w.log.Info("webhook redelivery skipped",
			zap.String("provider", string(provider)),
			zap.String("event_id", eventID),
			zap.String("event_type", eventType))
		return nil
	}

	handleErr := handle(ctx)
	if err := w.storage.FinishWebhookEvent(ctx, event.ID, handleErr); err != nil {
		w.log.Error("failed to finish webhook event", zap.Int64("webhook_event_id", event.ID), zap.Error(err))
	}
	return handleErr
}
