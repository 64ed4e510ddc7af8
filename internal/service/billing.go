package service

import (
	"RefStack-Backend/internal/domain"
	"RefStack-Backend/internal/notify"
	"RefStack-Backend/internal/repository"
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// billing holds the side effects shared by the payment webhooks.
type billing struct {
	storage  repository.Storage
	subs     *SubscriptionService
	notifier *notify.Notifier
	log      *zap.Logger
	now      func() time.Time
}

func newBilling(storage repository.Storage, subs *SubscriptionService, notifier *notify.Notifier, log *zap.Logger) billing {
	return billing{
		storage:  storage,
		subs:     subs,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

type invoiceInput struct {
	userID        int64
	provider      domain.PaymentProvider
	transactionID string
	amount        float64
	currency      string
	metadata      datatypes.JSON
}

// recordInvoice stores a paid invoice. An invoice already stored for the same
// provider transaction is not an error.
func (b billing) recordInvoice(ctx context.Context, in invoiceInput) error {
	invoice := &domain.Invoice{
		UserID:                in.userID,
		Number:                "INV-" + uuid.NewString(),
		Amount:                in.amount,
		Currency:              in.currency,
		Status:                domain.InvoiceStatusPaid,
		Provider:              in.provider,
		ProviderTransactionID: in.transactionID,
		Metadata:              in.metadata,
		PaidAt:                b.now(),
	}

	err := b.storage.CreateInvoice(ctx, invoice)
	if errors.Is(err, repository.ErrDuplicate) {
		b.log.Info("invoice already recorded",
			zap.String("provider", string(in.provider)),
			zap.String("transaction_id", in.transactionID))
		return nil
	}
	return err
}

func (b billing) notify(ctx context.Context, userID int64, kind, title, message string) {
	if err := b.notifier.Notify(ctx, userID, kind, title, message); err != nil {
		b.log.Warn("failed to notify user", zap.Int64("user_id", userID), zap.String("type", kind), zap.Error(err))
	}
}

func (b billing) defaultPeriodEnd() time.Time {
	return b.now().AddDate(0, 0, 30)
}
