package service

import (
	"RefStack-Backend/internal/config"
	"RefStack-Backend/internal/domain"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPayPalAPI struct {
	mock.Mock
}

func (m *MockPayPalAPI) GetSubscription(ctx context.Context, id string) (*PayPalSubscription, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*PayPalSubscription), args.Error(1)
}

var paypalTestConfig = config.PayPal{WebhookSecret: "pp_secret", WebhookID: "WH-1"}

func signPayPal(cfg config.PayPal, body []byte) PayPalHeaders {
	h := PayPalHeaders{TransmissionID: "tx-1", TransmissionTime: "2024-03-10T12:00:00Z"}
	h.Signature = PayPalSignature(cfg.WebhookSecret, h.TransmissionID, h.TransmissionTime, cfg.WebhookID, body)
	return h
}

func paypalPayload(id, eventType, resource string) []byte {
	return []byte(fmt.Sprintf(`{"id":%q,"event_type":%q,"resource":%s}`, id, eventType, resource))
}

type paypalFixture struct {
	env  *testEnv
	api  *MockPayPalAPI
	svc  *PayPalWebhookService
	user *domain.User
}

func newPayPalFixture(t *testing.T) *paypalFixture {
	env := newTestEnv(t)
	env.storage.SetPlanPayPalID(2, "P-PRO")
	api := new(MockPayPalAPI)
	return &paypalFixture{
		env:  env,
		api:  api,
		svc:  NewPayPalWebhookService(paypalTestConfig, api, env.storage, env.subs, env.notifier, env.log),
		user: env.createUser(t, "ann@example.com", "ann"),
	}
}

func (f *paypalFixture) deliver(t *testing.T, body []byte) {
	t.Helper()
	require.NoError(t, f.svc.Handle(context.Background(), body, signPayPal(paypalTestConfig, body)))
}

func (f *paypalFixture) subscription(t *testing.T) *domain.Subscription {
	t.Helper()
	sub, err := f.env.storage.GetSubscriptionByUserID(context.Background(), f.user.ID)
	require.NoError(t, err)
	return sub
}

const paypalCreatedResource = `{"id":"I-SUB1","status":"APPROVAL_PENDING","plan_id":"P-PRO","subscriber":{"email_address":"ann@example.com"}}`

func TestPayPalWebhook_CreatedThenActivated(t *testing.T) {
	f := newPayPalFixture(t)
	next := time.Date(2024, 4, 10, 12, 0, 0, 0, time.UTC)
	details := &PayPalSubscription{ID: "I-SUB1", Status: "ACTIVE"}
	details.BillingInfo.NextBillingTime = &next
	f.api.On("GetSubscription", mock.Anything, "I-SUB1").Return(details, nil)

	f.deliver(t, paypalPayload("WH-EV-1", "BILLING.SUBSCRIPTION.CREATED", paypalCreatedResource))

	sub := f.subscription(t)
	assert.Equal(t, domain.SubscriptionStatusPending, sub.Status)
	assert.Equal(t, domain.PlanPro, sub.Plan)
	assert.Equal(t, domain.ProviderPayPal, sub.Provider)
	require.NotNil(t, sub.PayPalSubscriptionID)
	assert.Equal(t, "I-SUB1", *sub.PayPalSubscriptionID)

	f.deliver(t, paypalPayload("WH-EV-2", "BILLING.SUBSCRIPTION.ACTIVATED", `{"id":"I-SUB1","status":"ACTIVE"}`))

	sub = f.subscription(t)
	assert.Equal(t, domain.SubscriptionStatusActive, sub.Status)
	require.NotNil(t, sub.CurrentPeriodEnd)
	assert.True(t, next.Equal(*sub.CurrentPeriodEnd))

	list := f.env.notifications(t, f.user.ID)
	require.Len(t, list, 1)
	assert.Equal(t, domain.NotificationSubscriptionActivated, list[0].Type)
	f.api.AssertExpectations(t)
}

func TestPayPalWebhook_ActivatedWithoutAPIUsesEvent(t *testing.T) {
	f := newPayPalFixture(t)
	f.api.On("GetSubscription", mock.Anything, "I-SUB1").Return(nil, ErrPayPalNotConfigured)

	f.deliver(t, paypalPayload("WH-EV-1", "BILLING.SUBSCRIPTION.CREATED", paypalCreatedResource))
	f.deliver(t, paypalPayload("WH-EV-2", "BILLING.SUBSCRIPTION.ACTIVATED",
		`{"id":"I-SUB1","status":"ACTIVE","billing_info":{"next_billing_time":"2024-05-01T00:00:00Z"}}`))

	sub := f.subscription(t)
	assert.Equal(t, domain.SubscriptionStatusActive, sub.Status)
	require.NotNil(t, sub.CurrentPeriodEnd)
	assert.True(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC).Equal(*sub.CurrentPeriodEnd))
}

func TestPayPalWebhook_ActivatedAPIErrorLeavesEventOpen(t *testing.T) {
	f := newPayPalFixture(t)
	f.api.On("GetSubscription", mock.Anything, "I-SUB1").Return(nil, errors.New("paypal down"))

	f.deliver(t, paypalPayload("WH-EV-1", "BILLING.SUBSCRIPTION.CREATED", paypalCreatedResource))
	f.deliver(t, paypalPayload("WH-EV-2", "BILLING.SUBSCRIPTION.ACTIVATED", `{"id":"I-SUB1","status":"ACTIVE"}`))

	assert.Equal(t, domain.SubscriptionStatusPending, f.subscription(t).Status)
	events := f.env.storage.WebhookEvents()
	require.Len(t, events, 2)
	assert.Nil(t, events[1].ProcessedAt)
}

func TestPayPalWebhook_UpdatedAndCancelled(t *testing.T) {
	f := newPayPalFixture(t)
	f.deliver(t, paypalPayload("WH-EV-1", "BILLING.SUBSCRIPTION.CREATED", paypalCreatedResource))

	f.deliver(t, paypalPayload("WH-EV-2", "BILLING.SUBSCRIPTION.UPDATED", `{"id":"I-SUB1","status":"SUSPENDED"}`))
	assert.Equal(t, domain.SubscriptionStatusPastDue, f.subscription(t).Status)

	f.deliver(t, paypalPayload("WH-EV-3", "BILLING.SUBSCRIPTION.CANCELLED", `{"id":"I-SUB1","status":"CANCELLED"}`))
	sub := f.subscription(t)
	assert.Equal(t, domain.SubscriptionStatusCanceled, sub.Status)
	assert.NotNil(t, sub.CanceledAt)

	list := f.env.notifications(t, f.user.ID)
	require.Len(t, list, 1)
	assert.Equal(t, domain.NotificationSubscriptionCanceled, list[0].Type)
}

func TestPayPalWebhook_SaleCompleted(t *testing.T) {
	f := newPayPalFixture(t)
	f.deliver(t, paypalPayload("WH-EV-1", "BILLING.SUBSCRIPTION.CREATED", paypalCreatedResource))

	sale := paypalPayload("WH-EV-2", "PAYMENT.SALE.COMPLETED",
		`{"id":"SALE-1","billing_agreement_id":"I-SUB1","amount":{"total":"9.99","currency":"usd"}}`)
	f.deliver(t, sale)
	// the same sale under a new event id must not add a second invoice
	f.deliver(t, paypalPayload("WH-EV-3", "PAYMENT.SALE.COMPLETED",
		`{"id":"SALE-1","billing_agreement_id":"I-SUB1","amount":{"total":"9.99","currency":"usd"}}`))

	invoices := f.env.invoices(t, f.user.ID)
	require.Len(t, invoices, 1)
	assert.Equal(t, "SALE-1", invoices[0].ProviderTransactionID)
	assert.Equal(t, 9.99, invoices[0].Amount)
	assert.Equal(t, "USD", invoices[0].Currency)
	assert.Equal(t, domain.ProviderPayPal, invoices[0].Provider)

	assert.Equal(t, domain.SubscriptionStatusActive, f.subscription(t).Status)
}

func TestPayPalWebhook_Verify(t *testing.T) {
	body := paypalPayload("WH-EV-1", "BILLING.SUBSCRIPTION.CREATED", paypalCreatedResource)
	good := signPayPal(paypalTestConfig, body)

	tests := []struct {
		name    string
		cfg     config.PayPal
		headers PayPalHeaders
		want    error
	}{
		{"valid", paypalTestConfig, good, nil},
		{"missing signature", paypalTestConfig, PayPalHeaders{TransmissionID: "tx-1", TransmissionTime: "t"}, ErrMissingSignature},
		{"wrong signature", paypalTestConfig, PayPalHeaders{TransmissionID: good.TransmissionID, TransmissionTime: good.TransmissionTime, Signature: "00ff"}, ErrInvalidSignature},
		{"other webhook id", config.PayPal{WebhookSecret: "pp_secret", WebhookID: "WH-2"}, good, ErrInvalidSignature},
		{"no secret", config.PayPal{WebhookID: "WH-1"}, good, ErrWebhookNotConfigured},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			svc := NewPayPalWebhookService(tt.cfg, new(MockPayPalAPI), env.storage, env.subs, env.notifier, env.log)
			err := svc.Verify(body, tt.headers)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestPayPalWebhook_RejectedDeliveryWritesNothing(t *testing.T) {
	f := newPayPalFixture(t)
	body := paypalPayload("WH-EV-1", "BILLING.SUBSCRIPTION.CREATED", paypalCreatedResource)
	h := signPayPal(paypalTestConfig, body)
	h.Signature = PayPalSignature("wrong", h.TransmissionID, h.TransmissionTime, paypalTestConfig.WebhookID, body)

	err := f.svc.Handle(context.Background(), body, h)
	assert.ErrorIs(t, err, ErrInvalidSignature)
	assert.Equal(t, 0, f.env.storage.SubscriptionCount())
	assert.Empty(t, f.env.storage.WebhookEvents())
}
