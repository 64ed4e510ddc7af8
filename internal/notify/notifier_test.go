package notify

import (
	"RefStack-Backend/internal/config"
	"RefStack-Backend/internal/domain"
	"RefStack-Backend/internal/repository/memory"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, to, subject, body string) error {
	args := m.Called(ctx, to, subject, body)
	return args.Error(0)
}

func TestNotify_StoresRowAndMailsCopy(t *testing.T) {
	ctx := context.Background()
	storage := memory.New()
	user := &domain.User{Email: "ann@example.com", Username: "ann"}
	require.NoError(t, storage.CreateUser(ctx, user))

	mailer := new(MockMailer)
	mailer.On("Send", mock.Anything, "ann@example.com", "Payment received", "Thanks").Return(nil)

	n := NewNotifier(storage, mailer, zap.NewNop())
	require.NoError(t, n.Notify(ctx, user.ID, domain.NotificationPaymentReceived, "Payment received", "Thanks"))

	list, err := storage.ListNotifications(ctx, user.ID, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.NotificationPaymentReceived, list[0].Type)
	mailer.AssertExpectations(t)
}

func TestNotify_MailFailureIsNotReturned(t *testing.T) {
	ctx := context.Background()
	storage := memory.New()
	user := &domain.User{Email: "bob@example.com", Username: "bob"}
	require.NoError(t, storage.CreateUser(ctx, user))

	mailer := new(MockMailer)
	mailer.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("smtp down"))

	n := NewNotifier(storage, mailer, zap.NewNop())
	assert.NoError(t, n.Notify(ctx, user.ID, domain.NotificationPaymentFailed, "Payment failed", "Retry"))

	list, err := storage.ListNotifications(ctx, user.ID, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestNewMailer_WithoutHostIsNop(t *testing.T) {
	_, ok := NewMailer(config.SMTP{}).(NopMailer)
	assert.True(t, ok)

	_, ok = NewMailer(config.SMTP{Host: "smtp.example.com", Port: 587}).(*SMTPMailer)
	assert.True(t, ok)
}
