package service

import (
	"RefStack-Backend/internal/config"
	"RefStack-Backend/internal/domain"
	"RefStack-Backend/internal/notify"
	"RefStack-Backend/internal/repository"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// PayPalHeaders are the transmission headers of a PayPal delivery.
type PayPalHeaders struct {
	TransmissionID   string
	TransmissionTime string
	Signature        string
}

type paypalEnvelope struct {
	ID        string          `json:"id"`
	EventType string          `json:"event_type"`
	Resource  json.RawMessage `json:"resource"`
}

type paypalSubscriptionResource struct {
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

type paypalSaleResource struct {
	ID                 string `json:"id"`
	BillingAgreementID string `json:"billing_agreement_id"`
	Amount             struct {
		Total    string `json:"total"`
		Currency string `json:"currency"`
	} `json:"amount"`
}

// paypalEvent is one decoded PayPal event we act on.
type paypalEvent interface {
	isPayPalEvent()
}

type paypalSubscriptionCreated struct{ resource paypalSubscriptionResource }
type paypalSubscriptionActivated struct{ resource paypalSubscriptionResource }
type paypalSubscriptionUpdated struct{ resource paypalSubscriptionResource }
type paypalSubscriptionCancelled struct{ resource paypalSubscriptionResource }
type paypalSaleCompleted struct{ resource paypalSaleResource }

func (paypalSubscriptionCreated) isPayPalEvent()   {}
func (paypalSubscriptionActivated) isPayPalEvent() {}
func (paypalSubscriptionUpdated) isPayPalEvent()   {}
func (paypalSubscriptionCancelled) isPayPalEvent() {}
func (paypalSaleCompleted) isPayPalEvent()         {}

// decodePayPalEvent returns nil for event types that are not handled.
func decodePayPalEvent(env paypalEnvelope) (paypalEvent, error) {
	var (
		decoded paypalEvent
		target  any
	)
	switch env.EventType {
	case "BILLING.SUBSCRIPTION.CREATED":
		e := &paypalSubscriptionCreated{}
		decoded, target = e, &e.resource
	case "BILLING.SUBSCRIPTION.ACTIVATED":
		e := &paypalSubscriptionActivated{}
		decoded, target = e, &e.resource
	case "BILLING.SUBSCRIPTION.UPDATED":
		e := &paypalSubscriptionUpdated{}
		decoded, target = e, &e.resource
	case "BILLING.SUBSCRIPTION.CANCELLED":
		e := &paypalSubscriptionCancelled{}
		decoded, target = e, &e.resource
	case "PAYMENT.SALE.COMPLETED":
		e := &paypalSaleCompleted{}
		decoded, target = e, &e.resource
	default:
		return nil, nil
	}

	if err := json.Unmarshal(env.Resource, target); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return decoded, nil
}

// PayPalWebhookService verifies and applies PayPal events.
type PayPalWebhookService struct {
	secret    string
	webhookID string
	api       PayPalAPI
	billing
	events webhookLog
}

func NewPayPalWebhookService(cfg config.PayPal, api PayPalAPI, storage repository.Storage, subs *SubscriptionService, notifier *notify.Notifier, log *zap.Logger) *PayPalWebhookService {
	log = log.With(zap.String("provider", string(domain.ProviderPayPal)))
	return &PayPalWebhookService{
		secret:    cfg.WebhookSecret,
		webhookID: cfg.WebhookID,
		api:       api,
		billing:   newBilling(storage, subs, notifier, log),
		events:    webhookLog{storage: storage, log: log},
	}
}

// PayPalSignature computes hex(HMAC-SHA256(secret, "id|time|webhookID|hex(sha256(body))")).
func PayPalSignature(secret, transmissionID, transmissionTime, webhookID string, body []byte) string {
	bodyHash := sha256.Sum256(body)
	message := strings.Join([]string{transmissionID, transmissionTime, webhookID, hex.EncodeToString(bodyHash[:])}, "|")

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks the transmission signature in constant time.
func (s *PayPalWebhookService) Verify(body []byte, h PayPalHeaders) error {
	if h.TransmissionID == "" || h.TransmissionTime == "" || h.Signature == "" {
		return ErrMissingSignature
	}
	if s.secret == "" || s.webhookID == "" {
		return ErrWebhookNotConfigured
	}

	expected := PayPalSignature(s.secret, h.TransmissionID, h.TransmissionTime, s.webhookID, body)
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(h.Signature))) {
		return ErrInvalidSignature
	}
	return nil
}

// Handle verifies the delivery and processes it. Only verification errors are returned.
func (s *PayPalWebhookService) Handle(ctx context.Context, body []byte, h PayPalHeaders) error {
	if err := s.Verify(body, h); err != nil {
		return err
	}

	var env paypalEnvelope
	if err := json.Unmarshal(body, &env); err != nil || env.ID == "" {
		s.log.Error("failed to parse paypal event", zap.Error(err))
		return nil
	}
	log := s.log.With(zap.String("event_id", env.ID), zap.String("event_type", env.EventType))

	decoded, err := decodePayPalEvent(env)
	if err != nil {
		log.Error("failed to decode paypal event", zap.Error(err))
		return nil
	}
	if decoded == nil {
		log.Info("ignoring unhandled paypal event")
		return nil
	}

	err = s.events.process(ctx, domain.ProviderPayPal, env.ID, env.EventType, body, func(ctx context.Context) error {
		return s.apply(ctx, decoded)
	})
	if err != nil {
		log.Error("failed to process paypal event", zap.Error(err))
	}
	return nil
}

func (s *PayPalWebhookService) apply(ctx context.Context, event paypalEvent) error {
	switch e := event.(type) {
	case *paypalSubscriptionCreated:
		return s.subscriptionCreated(ctx, &e.resource)
	case *paypalSubscriptionActivated:
		return s.subscriptionActivated(ctx, &e.resource)
	case *paypalSubscriptionUpdated:
		return s.subscriptionUpdated(ctx, &e.resource)
	case *paypalSubscriptionCancelled:
		return s.subscriptionCancelled(ctx, &e.resource)
	case *paypalSaleCompleted:
		return s.saleCompleted(ctx, &e.resource)
	default:
		return fmt.Errorf("unexpected paypal event %T", event)
	}
}

func (s *PayPalWebhookService) subscriptionCreated(ctx context.Context, res *paypalSubscriptionResource) error {
	if res.Subscriber.EmailAddress == "" {
		return fmt.Errorf("%w: subscription %s has no subscriber email", ErrMalformedPayload, res.ID)
	}
	user, err := s.storage.GetUserByEmail(ctx, strings.ToLower(res.Subscriber.EmailAddress))
	if err != nil {
		return fmt.Errorf("failed to find subscriber %s: %w", res.Subscriber.EmailAddress, err)
	}
	plan, err := s.storage.GetPlanByPayPalPlanID(ctx, res.PlanID)
	if err != nil {
		return fmt.Errorf("failed to find plan for paypal plan %s: %w", res.PlanID, err)
	}

	subID := res.ID
	_, err = s.subs.Activate(ctx, Activation{
		UserID:               user.ID,
		PlanID:               &plan.ID,
		Status:               domain.SubscriptionStatusPending,
		Provider:             domain.ProviderPayPal,
		PayPalSubscriptionID: &subID,
	})
	return err
}

func (s *PayPalWebhookService) subscriptionActivated(ctx context.Context, res *paypalSubscriptionResource) error {
	sub, err := s.storage.GetSubscriptionByPayPalID(ctx, res.ID)
	if err != nil {
		return fmt.Errorf("failed to find subscription %s: %w", res.ID, err)
	}

	nextBilling := res.BillingInfo.NextBillingTime
	details, err := s.api.GetSubscription(ctx, res.ID)
	switch {
	case err == nil:
		if details.BillingInfo.NextBillingTime != nil {
			nextBilling = details.BillingInfo.NextBillingTime
		}
	case errors.Is(err, ErrPayPalNotConfigured):
		s.log.Warn("paypal api not configured, using event billing info", zap.String("subscription_id", res.ID))
	default:
		return fmt.Errorf("failed to fetch paypal subscription %s: %w", res.ID, err)
	}

	sub.Status = domain.SubscriptionStatusActive
	sub.CancelAtPeriodEnd = false
	sub.CanceledAt = nil
	if nextBilling != nil {
		end := nextBilling.UTC()
		sub.CurrentPeriodEnd = &end
	} else {
		end := s.defaultPeriodEnd()
		sub.CurrentPeriodEnd = &end
	}

	if err := s.subs.Save(ctx, sub, domain.AuditActionActivate); err != nil {
		return err
	}

	s.notify(ctx, sub.UserID, domain.NotificationSubscriptionActivated, "Subscription activated",
		fmt.Sprintf("Your %s plan is now active.", sub.Plan))
	return nil
}

func (s *PayPalWebhookService) subscriptionUpdated(ctx context.Context, res *paypalSubscriptionResource) error {
	sub, err := s.storage.GetSubscriptionByPayPalID(ctx, res.ID)
	if err != nil {
		return fmt.Errorf("failed to find subscription %s: %w", res.ID, err)
	}

	sub.Status = translateStatus(paypalStatuses, res.Status)
	if res.PlanID != "" {
		if plan, err := s.storage.GetPlanByPayPalPlanID(ctx, res.PlanID); err == nil {
			applyPlan(sub, plan)
		} else {
			s.log.Warn("unknown paypal plan on update", zap.String("plan_id", res.PlanID), zap.Error(err))
		}
	}
	if res.BillingInfo.NextBillingTime != nil {
		end := res.BillingInfo.NextBillingTime.UTC()
		sub.CurrentPeriodEnd = &end
	}

	return s.subs.Save(ctx, sub, domain.AuditActionWebhook)
}

func (s *PayPalWebhookService) subscriptionCancelled(ctx context.Context, res *paypalSubscriptionResource) error {
	sub, err := s.storage.GetSubscriptionByPayPalID(ctx, res.ID)
	if err != nil {
		return fmt.Errorf("failed to find subscription %s: %w", res.ID, err)
	}

	now := s.now()
	sub.Status = domain.SubscriptionStatusCanceled
	sub.CanceledAt = &now

	if err := s.subs.Save(ctx, sub, domain.AuditActionCancel); err != nil {
		return err
	}

	s.notify(ctx, sub.UserID, domain.NotificationSubscriptionCanceled, "Subscription canceled",
		"Your PayPal subscription has been canceled.")
	return nil
}

func (s *PayPalWebhookService) saleCompleted(ctx context.Context, res *paypalSaleResource) error {
	if res.BillingAgreementID == "" {
		return fmt.Errorf("%w: sale %s has no billing agreement", ErrMalformedPayload, res.ID)
	}
	sub, err := s.storage.GetSubscriptionByPayPalID(ctx, res.BillingAgreementID)
	if err != nil {
		return fmt.Errorf("failed to find subscription %s: %w", res.BillingAgreementID, err)
	}

	amount, err := strconv.ParseFloat(res.Amount.Total, 64)
	if err != nil {
		return fmt.Errorf("%w: sale %s amount %q", ErrMalformedPayload, res.ID, res.Amount.Total)
	}

	err = s.recordInvoice(ctx, invoiceInput{
		userID:        sub.UserID,
		provider:      domain.ProviderPayPal,
		transactionID: res.ID,
		amount:        amount,
		currency:      strings.ToUpper(res.Amount.Currency),
	})
	if err != nil {
		return err
	}

	if sub.Status != domain.SubscriptionStatusActive {
		sub.Status = domain.SubscriptionStatusActive
		if err := s.subs.Save(ctx, sub, domain.AuditActionWebhook); err != nil {
			return err
		}
	}

	s.notify(ctx, sub.UserID, domain.NotificationPaymentReceived, "Payment received",
		fmt.Sprintf("We received your payment of %s %s.", res.Amount.Total, strings.ToUpper(res.Amount.Currency)))
	return nil
}
