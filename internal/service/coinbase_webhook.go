package service

import (
	"RefStack-Backend/internal/domain"
	"RefStack-Backend/internal/notify"
	"RefStack-Backend/internal/repository"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

type coinbaseDelivery struct {
	ID    string        `json:"id"`
	Event coinbaseEvent `json:"event"`
}

type coinbaseEvent struct {
	ID   string          `json:"id"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type coinbaseMoney struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

type coinbaseCharge struct {
	ID       string            `json:"id"`
	Code     string            `json:"code"`
	Metadata map[string]string `json:"metadata"`
	Pricing  struct {
		Local coinbaseMoney `json:"local"`
	} `json:"pricing"`
	Payments []struct {
		Network       string `json:"network"`
		TransactionID string `json:"transaction_id"`
		Value         struct {
			Local  coinbaseMoney `json:"local"`
			Crypto coinbaseMoney `json:"crypto"`
		} `json:"value"`
	} `json:"payments"`
}

// chargeTerms is the purchase encoded in charge metadata: either a plan for
// a number of months or a one-off addon.
type chargeTerms struct {
	userID int64
	planID int64
	months int
	addon  string
}

// cryptoChargeEvent is one decoded Coinbase Commerce event we act on.
type cryptoChargeEvent interface {
	isCryptoChargeEvent()
}

type coinbaseChargeConfirmed struct{ charge coinbaseCharge }
type coinbaseChargeFailed struct{ charge coinbaseCharge }

func (coinbaseChargeConfirmed) isCryptoChargeEvent() {}
func (coinbaseChargeFailed) isCryptoChargeEvent()    {}

func decodeCoinbaseEvent(e coinbaseEvent) (cryptoChargeEvent, error) {
	var (
		decoded cryptoChargeEvent
		target  *coinbaseCharge
	)
	switch e.Type {
	case "charge:confirmed":
		c := &coinbaseChargeConfirmed{}
		decoded, target = c, &c.charge
	case "charge:failed":
		c := &coinbaseChargeFailed{}
		decoded, target = c, &c.charge
	default:
		return nil, nil
	}

	if err := json.Unmarshal(e.Data, target); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return decoded, nil
}

// CoinbaseWebhookService verifies and applies Coinbase Commerce charge events.
type CoinbaseWebhookService struct {
	secret string
	billing
	events webhookLog
}

func NewCoinbaseWebhookService(secret string, storage repository.Storage, subs *SubscriptionService, notifier *notify.Notifier, log *zap.Logger) *CoinbaseWebhookService {
	log = log.With(zap.String("provider", string(domain.ProviderCrypto)))
	return &CoinbaseWebhookService{
		secret:  secret,
		billing: newBilling(storage, subs, notifier, log),
		events:  webhookLog{storage: storage, log: log},
	}
}

// CoinbaseSignature computes hex(HMAC-SHA256(secret, body)).
func CoinbaseSignature(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *CoinbaseWebhookService) Verify(body []byte, signature string) error {
	if signature == "" {
		return ErrMissingSignature
	}
	if s.secret == "" {
		return ErrWebhookNotConfigured
	}
	expected := CoinbaseSignature(s.secret, body)
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(signature))) {
		return ErrInvalidSignature
	}
	return nil
}

// Handle verifies the delivery and processes it. Only verification errors are returned.
func (s *CoinbaseWebhookService) Handle(ctx context.Context, body []byte, signature string) error {
	if err := s.Verify(body, signature); err != nil {
		return err
	}

	var delivery coinbaseDelivery
	if err := json.Unmarshal(body, &delivery); err != nil || delivery.Event.ID == "" {
		s.log.Error("failed to parse coinbase event", zap.Error(err))
		return nil
	}
	log := s.log.With(zap.String("event_id", delivery.Event.ID), zap.String("event_type", delivery.Event.Type))

	decoded, err := decodeCoinbaseEvent(delivery.Event)
	if err != nil {
		log.Error("failed to decode coinbase event", zap.Error(err))
		return nil
	}
	if decoded == nil {
		log.Info("ignoring unhandled coinbase event")
		return nil
	}

	err = s.events.process(ctx, domain.ProviderCrypto, delivery.Event.ID, delivery.Event.Type, body, func(ctx context.Context) error {
		return s.apply(ctx, decoded)
	})
	if err != nil {
		log.Error("failed to process coinbase event", zap.Error(err))
	}
	return nil
}

func (s *CoinbaseWebhookService) apply(ctx context.Context, event cryptoChargeEvent) error {
	switch e := event.(type) {
	case *coinbaseChargeConfirmed:
		return s.chargeConfirmed(ctx, &e.charge)
	case *coinbaseChargeFailed:
		return s.chargeFailed(ctx, &e.charge)
	default:
		return fmt.Errorf("unexpected coinbase event %T", event)
	}
}

func (s *CoinbaseWebhookService) chargeConfirmed(ctx context.Context, charge *coinbaseCharge) error {
	terms, err := parseChargeTerms(charge.Metadata)
	if err != nil {
		return fmt.Errorf("charge %s: %w", charge.Code, err)
	}

	var title, message string
	meta := map[string]any{"chargeId": charge.ID}
	if terms.addon != "" {
		ua, err := s.subs.ActivateAddon(ctx, terms.userID, terms.addon)
		if err != nil {
			return err
		}
		meta["addon"] = terms.addon
		title = "Addon activated"
		message = fmt.Sprintf("%s is now enabled on your account.", ua.Addon.Name)
	} else {
		periodEnd := s.now().AddDate(0, terms.months, 0)
		planID := terms.planID
		sub, err := s.subs.Activate(ctx, Activation{
			UserID:           terms.userID,
			PlanID:           &planID,
			Status:           domain.SubscriptionStatusActive,
			Provider:         domain.ProviderCrypto,
			CurrentPeriodEnd: &periodEnd,
		})
		if err != nil {
			return err
		}
		meta["months"] = terms.months
		title = "Crypto payment confirmed"
		message = fmt.Sprintf("Your %s plan is active for %d month(s).", sub.Plan, terms.months)
	}

	amount, currency := charge.Pricing.Local.Amount, charge.Pricing.Local.Currency
	if len(charge.Payments) > 0 {
		p := charge.Payments[0]
		meta["network"] = p.Network
		meta["transactionId"] = p.TransactionID
		if p.Value.Crypto.Amount != "" {
			meta["cryptoAmount"] = p.Value.Crypto.Amount
			meta["cryptoCurrency"] = p.Value.Crypto.Currency
		}
		if p.Value.Local.Amount != "" {
			amount, currency = p.Value.Local.Amount, p.Value.Local.Currency
		}
	}

	value, err := strconv.ParseFloat(amount, 64)
	if err != nil {
		return fmt.Errorf("%w: charge %s amount %q", ErrMalformedPayload, charge.Code, amount)
	}

	txnID := charge.Code
	if txnID == "" {
		txnID = charge.ID
	}
	err = s.recordInvoice(ctx, invoiceInput{
		userID:        terms.userID,
		provider:      domain.ProviderCrypto,
		transactionID: txnID,
		amount:        value,
		currency:      strings.ToUpper(currency),
		metadata:      domain.NewMetadata(meta),
	})
	if err != nil {
		return err
	}

	s.notify(ctx, terms.userID, domain.NotificationPaymentReceived, title, message)
	return nil
}

func (s *CoinbaseWebhookService) chargeFailed(ctx context.Context, charge *coinbaseCharge) error {
	userID, err := strconv.ParseInt(charge.Metadata["userId"], 10, 64)
	if err != nil {
		return fmt.Errorf("%w: charge %s has no userId", ErrMalformedPayload, charge.Code)
	}

	s.notify(ctx, userID, domain.NotificationPaymentFailed, "Crypto payment failed",
		"Your crypto payment could not be confirmed. No charge was applied.")
	return nil
}

// parseChargeTerms reads the userId metadata plus either addon or planId and months.
func parseChargeTerms(meta map[string]string) (chargeTerms, error) {
	var t chargeTerms
	var err error

	if t.userID, err = strconv.ParseInt(meta["userId"], 10, 64); err != nil || t.userID <= 0 {
		return t, fmt.Errorf("%w: invalid userId metadata", ErrMalformedPayload)
	}
	if t.addon = strings.TrimSpace(meta["addon"]); t.addon != "" {
		return t, nil
	}
	if t.planID, err = strconv.ParseInt(meta["planId"], 10, 64); err != nil || t.planID <= 0 {
		return t, fmt.Errorf("%w: invalid planId metadata", ErrMalformedPayload)
	}
	if t.months, err = strconv.Atoi(meta["months"]); err != nil || t.months <= 0 {
		return t, fmt.Errorf("%w: invalid months metadata", ErrMalformedPayload)
	}
	return t, nil
}
