package service

import (
	"RefStack-Backend/internal/config"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newPayPalAPIServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "client" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok-1","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("GET /v1/billing/subscriptions/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.PathValue("id") != "I-SUB1" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"name":"RESOURCE_NOT_FOUND"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"I-SUB1","status":"ACTIVE","plan_id":"P-PRO","billing_info":{"next_billing_time":"2024-04-10T12:00:00Z"},"subscriber":{"email_address":"ann@example.com"}}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestPayPalClient_GetSubscription(t *testing.T) {
	srv := newPayPalAPIServer(t)
	client := NewPayPalClient(config.PayPal{ClientID: "client", ClientSecret: "secret", APIURL: srv.URL + "/"}, zap.NewNop())

	sub, err := client.GetSubscription(context.Background(), "I-SUB1")
	require.NoError(t, err)
	assert.Equal(t, "ACTIVE", sub.Status)
	assert.Equal(t, "P-PRO", sub.PlanID)
	assert.Equal(t, "ann@example.com", sub.Subscriber.EmailAddress)
	require.NotNil(t, sub.BillingInfo.NextBillingTime)
	assert.True(t, time.Date(2024, 4, 10, 12, 0, 0, 0, time.UTC).Equal(*sub.BillingInfo.NextBillingTime))
}

func TestPayPalClient_APIError(t *testing.T) {
	srv := newPayPalAPIServer(t)
	client := NewPayPalClient(config.PayPal{ClientID: "client", ClientSecret: "secret", APIURL: srv.URL}, zap.NewNop())

	_, err := client.GetSubscription(context.Background(), "I-MISSING")
	assert.ErrorContains(t, err, "404")
}

func TestPayPalClient_NotConfigured(t *testing.T) {
	client := NewPayPalClient(config.PayPal{APIURL: "https://api-m.sandbox.paypal.com"}, zap.NewNop())

	_, err := client.GetSubscription(context.Background(), "I-SUB1")
	assert.ErrorIs(t, err, ErrPayPalNotConfigured)
}
