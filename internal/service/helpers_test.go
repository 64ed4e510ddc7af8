package service

import (
	"RefStack-Backend/internal/domain"
	"RefStack-Backend/internal/notify"
	"RefStack-Backend/internal/repository/memory"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEnv struct {
	storage  *memory.MemStorage
	notifier *notify.Notifier
	subs     *SubscriptionService
	log      *zap.Logger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	storage := memory.New()
	log := zap.NewNop()
	notifier := notify.NewNotifier(storage, nil, log)

	return &testEnv{
		storage:  storage,
		notifier: notifier,
		subs:     NewSubscriptionService(storage, notifier, log),
		log:      log,
	}
}

func (e *testEnv) createUser(t *testing.T, email, username string) *domain.User {
	t.Helper()

	user := &domain.User{Email: email, Username: username, PasswordHash: "x"}
	require.NoError(t, e.storage.CreateUser(context.Background(), user))
	return user
}

func (e *testEnv) notifications(t *testing.T, userID int64) []*domain.Notification {
	t.Helper()

	list, err := e.storage.ListNotifications(context.Background(), userID, 0)
	require.NoError(t, err)
	return list
}

func (e *testEnv) invoices(t *testing.T, userID int64) []*domain.Invoice {
	t.Helper()

	list, err := e.storage.ListInvoices(context.Background(), userID)
	require.NoError(t, err)
	return list
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func intPtr(i int) *int { return &i }
