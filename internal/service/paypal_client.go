package service

import (
	"RefStack-Backend/internal/config"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// PayPalSubscription is the part of a PayPal billing subscription we read.
type PayPalSubscription struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	PlanID      string `json:"plan_id"`
	BillingInfo struct {
		NextBillingTime *time.Time `json:"next_billing_time"`
	} `json:"billing_info"`
	Subscriber struct {
		EmailAddress string `json:"email_address"`
	} `json:"subscriber"`
}

// PayPalAPI fetches subscription details from PayPal.
type PayPalAPI interface {
	GetSubscription(ctx context.Context, id string) (*PayPalSubscription, error)
}

// PayPalClient calls the PayPal REST API with an OAuth2 client-credentials token.
type PayPalClient struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
}

// NewPayPalClient returns a client; without credentials every call fails with ErrPayPalNotConfigured.
func NewPayPalClient(cfg config.PayPal, log *zap.Logger) *PayPalClient {
	baseURL := strings.TrimRight(cfg.APIURL, "/")
	c := &PayPalClient{baseURL: baseURL, log: log}
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return c
	}

	creds := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     baseURL + "/v1/oauth2/token",
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	c.httpClient = oauth2.NewClient(context.Background(), creds.TokenSource(context.Background()))
	c.httpClient.Timeout = 15 * time.Second
	return c
}

func (c *PayPalClient) GetSubscription(ctx context.Context, id string) (*PayPalSubscription, error) {
	if c.httpClient == nil {
		return nil, ErrPayPalNotConfigured
	}

	endpoint := c.baseURL + "/v1/billing/subscriptions/" + url.PathEscape(id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Error("PayPal API error",
			zap.Int("status_code", resp.StatusCode),
			zap.String("response", string(body)))
		return nil, fmt.Errorf("PayPal API error: %d", resp.StatusCode)
	}

	var sub PayPalSubscription
	if err := json.Unmarshal(body, &sub); err != nil {
		return nil, fmt.Errorf("failed to parse PayPal response: %w", err)
	}
	return &sub, nil
}
