package service

import (
	"RefStack-Backend/internal/domain"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const coinbaseTestSecret = "cb_secret"

func coinbasePayload(eventID, eventType, charge string) []byte {
	return []byte(fmt.Sprintf(`{"id":"delivery-1","event":{"id":%q,"type":%q,"data":%s}}`, eventID, eventType, charge))
}

func confirmedCharge(userID int64, months int) string {
	return fmt.Sprintf(`{
		"id":"c0ffee00-0000-0000-0000-000000000001",
		"code":"CHG12345",
		"metadata":{"userId":"%d","planId":"3","months":"%d"},
		"pricing":{"local":{"amount":"89.97","currency":"usd"}},
		"payments":[{"network":"ethereum","transaction_id":"0xabc","value":{"local":{"amount":"89.97","currency":"USD"},"crypto":{"amount":"0.031","currency":"ETH"}}}]
	}`, userID, months)
}

func newCoinbaseService(env *testEnv, secret string) *CoinbaseWebhookService {
	return NewCoinbaseWebhookService(secret, env.storage, env.subs, env.notifier, env.log)
}

func TestCoinbaseWebhook_ChargeConfirmed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "ann@example.com", "ann")
	svc := newCoinbaseService(env, coinbaseTestSecret)
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	body := coinbasePayload("evt-cb-1", "charge:confirmed", confirmedCharge(user.ID, 3))
	require.NoError(t, svc.Handle(ctx, body, CoinbaseSignature(coinbaseTestSecret, body)))

	sub, err := env.storage.GetSubscriptionByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionStatusActive, sub.Status)
	assert.Equal(t, domain.PlanBusiness, sub.Plan)
	assert.Equal(t, domain.ProviderCrypto, sub.Provider)
	require.NotNil(t, sub.CurrentPeriodEnd)
	assert.True(t, now.AddDate(0, 3, 0).Equal(*sub.CurrentPeriodEnd))

	invoices := env.invoices(t, user.ID)
	require.Len(t, invoices, 1)
	assert.Equal(t, "CHG12345", invoices[0].ProviderTransactionID)
	assert.Equal(t, 89.97, invoices[0].Amount)
	assert.Equal(t, "USD", invoices[0].Currency)

	var meta map[string]any
	require.NoError(t, json.Unmarshal(invoices[0].Metadata, &meta))
	assert.Equal(t, "ethereum", meta["network"])
	assert.Equal(t, "0.031", meta["cryptoAmount"])
	assert.Equal(t, "ETH", meta["cryptoCurrency"])

	list := env.notifications(t, user.ID)
	require.Len(t, list, 1)
	assert.Equal(t, domain.NotificationPaymentReceived, list[0].Type)
}

func TestCoinbaseWebhook_Redelivery(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "ann@example.com", "ann")
	svc := newCoinbaseService(env, coinbaseTestSecret)

	body := coinbasePayload("evt-cb-1", "charge:confirmed", confirmedCharge(user.ID, 1))
	for i := 0; i < 3; i++ {
		require.NoError(t, svc.Handle(context.Background(), body, CoinbaseSignature(coinbaseTestSecret, body)))
	}

	assert.Len(t, env.invoices(t, user.ID), 1)
	assert.Len(t, env.notifications(t, user.ID), 1)
	assert.Equal(t, 1, env.storage.SubscriptionCount())
}

func TestCoinbaseWebhook_ChargeFailed(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "ann@example.com", "ann")
	svc := newCoinbaseService(env, coinbaseTestSecret)

	body := coinbasePayload("evt-cb-2", "charge:failed", fmt.Sprintf(`{"id":"c1","code":"CHGFAIL","metadata":{"userId":"%d"}}`, user.ID))
	require.NoError(t, svc.Handle(context.Background(), body, CoinbaseSignature(coinbaseTestSecret, body)))

	assert.Equal(t, 0, env.storage.SubscriptionCount())
	assert.Empty(t, env.invoices(t, user.ID))
	list := env.notifications(t, user.ID)
	require.Len(t, list, 1)
	assert.Equal(t, domain.NotificationPaymentFailed, list[0].Type)
}

func TestCoinbaseWebhook_BadMetadata(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "ann@example.com", "ann")
	svc := newCoinbaseService(env, coinbaseTestSecret)

	charge := strings.Replace(confirmedCharge(user.ID, 1), `"months":"1"`, `"months":"0"`, 1)
	body := coinbasePayload("evt-cb-3", "charge:confirmed", charge)
	require.NoError(t, svc.Handle(context.Background(), body, CoinbaseSignature(coinbaseTestSecret, body)))

	assert.Equal(t, 0, env.storage.SubscriptionCount())
	events := env.storage.WebhookEvents()
	require.Len(t, events, 1)
	assert.Nil(t, events[0].ProcessedAt)
}

func TestCoinbaseWebhook_Verify(t *testing.T) {
	env := newTestEnv(t)
	body := coinbasePayload("evt-cb-1", "charge:confirmed", confirmedCharge(1, 1))

	assert.NoError(t, newCoinbaseService(env, coinbaseTestSecret).Verify(body, CoinbaseSignature(coinbaseTestSecret, body)))
	assert.NoError(t, newCoinbaseService(env, coinbaseTestSecret).Verify(body, strings.ToUpper(CoinbaseSignature(coinbaseTestSecret, body))))
	assert.ErrorIs(t, newCoinbaseService(env, coinbaseTestSecret).Verify(body, ""), ErrMissingSignature)
	assert.ErrorIs(t, newCoinbaseService(env, coinbaseTestSecret).Verify(body, CoinbaseSignature("other", body)), ErrInvalidSignature)
	assert.ErrorIs(t, newCoinbaseService(env, "").Verify(body, CoinbaseSignature(coinbaseTestSecret, body)), ErrWebhookNotConfigured)

	err := newCoinbaseService(env, coinbaseTestSecret).Handle(context.Background(), body, CoinbaseSignature("other", body))
	assert.ErrorIs(t, err, ErrInvalidSignature)
	assert.Empty(t, env.storage.WebhookEvents())
}

func TestCoinbaseWebhook_UnhandledEvent(t *testing.T) {
	env := newTestEnv(t)
	svc := newCoinbaseService(env, coinbaseTestSecret)

	body := coinbasePayload("evt-cb-4", "charge:created", `{"id":"c1","code":"CHG"}`)
	require.NoError(t, svc.Handle(context.Background(), body, CoinbaseSignature(coinbaseTestSecret, body)))
	assert.Empty(t, env.storage.WebhookEvents())
}

func TestCoinbaseWebhook_AddonCharge(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "ann@example.com", "ann")
	svc := newCoinbaseService(env, coinbaseTestSecret)

	charge := fmt.Sprintf(`{"id":"c2","code":"CHGADDON","metadata":{"userId":"%d","addon":"white_label"},"pricing":{"local":{"amount":"4.99","currency":"USD"}}}`, user.ID)
	body := coinbasePayload("evt-cb-addon", "charge:confirmed", charge)
	require.NoError(t, svc.Handle(ctx, body, CoinbaseSignature(coinbaseTestSecret, body)))

	assert.Equal(t, 0, env.storage.SubscriptionCount())
	owned, err := env.storage.ListUserAddons(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, owned, 1)
	require.NotNil(t, owned[0].Addon)
	assert.Equal(t, domain.AddonWhiteLabel, owned[0].Addon.Key)

	invoices := env.invoices(t, user.ID)
	require.Len(t, invoices, 1)
	assert.Equal(t, 4.99, invoices[0].Amount)

	list := env.notifications(t, user.ID)
	require.Len(t, list, 1)
	assert.Equal(t, "Addon activated", list[0].Title)

	profile, err := NewProfileService(env.storage, "http://localhost:8080", env.log).PublicProfile(ctx, "ann")
	require.NoError(t, err)
	assert.False(t, profile.ShowPlatformBranding)
}
