// Package notify stores user notifications and optionally mails a copy.
package notify

import (
	"RefStack-Backend/internal/domain"
	"RefStack-Backend/internal/repository"
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Mailer delivers a plain-text e-mail.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Notifier writes notification rows and forwards them to a Mailer.
type Notifier struct {
	storage repository.Storage
	mailer  Mailer
	log     *zap.Logger
}

// NewNotifier creates a notifier. A nil mailer disables e-mail copies.
func NewNotifier(storage repository.Storage, mailer Mailer, log *zap.Logger) *Notifier {
	if mailer == nil {
		mailer = NopMailer{}
	}
	return &Notifier{
		storage: storage,
		mailer:  mailer,
		log:     log,
	}
}

// Notify persists a notification for the user. Mail failures are logged, never returned.
func (n *Notifier) Notify(ctx context.Context, userID int64, kind, title, message string) error {
	notification := &domain.Notification{
		UserID:  userID,
		Type:    kind,
		Title:   title,
		Message: message,
	}
	if err := n.storage.CreateNotification(ctx, notification); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	if _, ok := n.mailer.(NopMailer); ok {
		return nil
	}

	user, err := n.storage.GetUserByID(ctx, userID)
	if err != nil {
		n.log.Warn("notification mail skipped: user lookup failed", zap.Int64("user_id", userID), zap.Error(err))
		return nil
	}
	if err := n.mailer.Send(ctx, user.Email, title, message); err != nil {
		n.log.Warn("failed to mail notification",
			zap.Int64("user_id", userID),
			zap.String("type", kind),
			zap.Error(err))
	}
	return nil
}
