package service

import (
	"RefStack-Backend/internal/domain"
	"RefStack-Backend/internal/notify"
	"RefStack-Backend/internal/repository"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"
)

// stripeEvent is one decoded Stripe event we act on.
type stripeEvent interface {
	isStripeEvent()
}

type stripeCheckoutCompleted struct{ session stripe.CheckoutSession }
type stripeInvoicePaid struct{ invoice stripe.Invoice }
type stripeSubscriptionUpdated struct{ subscription stripe.Subscription }
type stripeSubscriptionDeleted struct{ subscription stripe.Subscription }

func (stripeCheckoutCompleted) isStripeEvent()   {}
func (stripeInvoicePaid) isStripeEvent()         {}
func (stripeSubscriptionUpdated) isStripeEvent() {}
func (stripeSubscriptionDeleted) isStripeEvent() {}

// decodeStripeEvent returns nil for event types that are not handled.
func decodeStripeEvent(event stripe.Event) (stripeEvent, error) {
	if event.Data == nil {
		return nil, ErrMalformedPayload
	}

	var (
		decoded stripeEvent
		target  any
	)
	switch string(event.Type) {
	case "checkout.session.completed":
		e := &stripeCheckoutCompleted{}
		decoded, target = e, &e.session
	case "invoice.payment_succeeded":
		e := &stripeInvoicePaid{}
		decoded, target = e, &e.invoice
	case "customer.subscription.updated":
		e := &stripeSubscriptionUpdated{}
		decoded, target = e, &e.subscription
	case "customer.subscription.deleted":
		e := &stripeSubscriptionDeleted{}
		decoded, target = e, &e.subscription
	default:
		return nil, nil
	}

	if err := json.Unmarshal(event.Data.Raw, target); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return decoded, nil
}

// StripeWebhookService verifies and applies Stripe events.
type StripeWebhookService struct {
	secret string
	billing
	events webhookLog
}

func NewStripeWebhookService(secret string, storage repository.Storage, subs *SubscriptionService, notifier *notify.Notifier, log *zap.Logger) *StripeWebhookService {
	log = log.With(zap.String("provider", string(domain.ProviderStripe)))
	return &StripeWebhookService{
		secret:  secret,
		billing: newBilling(storage, subs, notifier, log),
		events:  webhookLog{storage: storage, log: log},
	}
}

// Verify checks the Stripe-Signature header and parses the event.
func (s *StripeWebhookService) Verify(payload []byte, signature string) (stripe.Event, error) {
	if signature == "" {
		return stripe.Event{}, ErrMissingSignature
	}
	if s.secret == "" {
		return stripe.Event{}, ErrWebhookNotConfigured
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, s.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return stripe.Event{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return event, nil
}

// Handle verifies the delivery and processes it. Only verification errors are
// returned; processing failures are logged.
func (s *StripeWebhookService) Handle(ctx context.Context, payload []byte, signature string) error {
	event, err := s.Verify(payload, signature)
	if err != nil {
		return err
	}

	log := s.log.With(zap.String("event_id", event.ID), zap.String("event_type", string(event.Type)))

	decoded, err := decodeStripeEvent(event)
	if err != nil {
		log.Error("failed to decode stripe event", zap.Error(err))
		return nil
	}
	if decoded == nil {
		log.Info("ignoring unhandled stripe event")
		return nil
	}

	err = s.events.process(ctx, domain.ProviderStripe, event.ID, string(event.Type), payload, func(ctx context.Context) error {
		return s.apply(ctx, decoded)
	})
	if err != nil {
		log.Error("failed to process stripe event", zap.Error(err))
	}
	return nil
}

func (s *StripeWebhookService) apply(ctx context.Context, event stripeEvent) error {
	switch e := event.(type) {
	case *stripeCheckoutCompleted:
		return s.checkoutCompleted(ctx, &e.session)
	case *stripeInvoicePaid:
		return s.invoicePaid(ctx, &e.invoice)
	case *stripeSubscriptionUpdated:
		return s.subscriptionUpdated(ctx, &e.subscription)
	case *stripeSubscriptionDeleted:
		return s.subscriptionDeleted(ctx, &e.subscription)
	default:
		return fmt.Errorf("unexpected stripe event %T", event)
	}
}

func (s *StripeWebhookService) checkoutCompleted(ctx context.Context, session *stripe.CheckoutSession) error {
	userRef := session.Metadata["userId"]
	if userRef == "" {
		userRef = session.ClientReferenceID
	}
	userID, err := strconv.ParseInt(userRef, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: checkout session %s has no userId", ErrMalformedPayload, session.ID)
	}
	planID, err := strconv.ParseInt(session.Metadata["planId"], 10, 64)
	if err != nil {
		return fmt.Errorf("%w: checkout session %s has no planId", ErrMalformedPayload, session.ID)
	}

	periodEnd := s.defaultPeriodEnd()
	activation := Activation{
		UserID:           userID,
		PlanID:           &planID,
		Status:           domain.SubscriptionStatusActive,
		Provider:         domain.ProviderStripe,
		CurrentPeriodEnd: &periodEnd,
	}
	if session.Customer != nil && session.Customer.ID != "" {
		activation.StripeCustomerID = &session.Customer.ID
	}
	if session.Subscription != nil && session.Subscription.ID != "" {
		activation.StripeSubscriptionID = &session.Subscription.ID
	}

	sub, err := s.subs.Activate(ctx, activation)
	if err != nil {
		return err
	}

	s.notify(ctx, userID, domain.NotificationSubscriptionActivated, "Subscription activated",
		fmt.Sprintf("Your %s plan is now active.", sub.Plan))
	return nil
}

func (s *StripeWebhookService) invoicePaid(ctx context.Context, inv *stripe.Invoice) error {
	if inv.Subscription == nil || inv.Subscription.ID == "" {
		return fmt.Errorf("%w: invoice %s has no subscription", ErrMalformedPayload, inv.ID)
	}

	sub, err := s.storage.GetSubscriptionByStripeID(ctx, inv.Subscription.ID)
	if err != nil {
		return fmt.Errorf("failed to find subscription %s: %w", inv.Subscription.ID, err)
	}

	periodEnd := s.defaultPeriodEnd()
	if inv.Lines != nil && len(inv.Lines.Data) > 0 && inv.Lines.Data[0].Period != nil && inv.Lines.Data[0].Period.End > 0 {
		periodEnd = time.Unix(inv.Lines.Data[0].Period.End, 0)
	}
	sub.CurrentPeriodEnd = &periodEnd
	sub.Status = domain.SubscriptionStatusActive
	if err := s.subs.Save(ctx, sub, domain.AuditActionWebhook); err != nil {
		return err
	}

	err = s.recordInvoice(ctx, invoiceInput{
		userID:        sub.UserID,
		provider:      domain.ProviderStripe,
		transactionID: inv.ID,
		amount:        float64(inv.AmountPaid) / 100,
		currency:      strings.ToUpper(string(inv.Currency)),
	})
	if err != nil {
		return err
	}

	s.notify(ctx, sub.UserID, domain.NotificationPaymentReceived, "Payment received",
		fmt.Sprintf("We received your payment of %.2f %s.", float64(inv.AmountPaid)/100, strings.ToUpper(string(inv.Currency))))
	return nil
}

func (s *StripeWebhookService) subscriptionUpdated(ctx context.Context, ss *stripe.Subscription) error {
	sub, err := s.storage.GetSubscriptionByStripeID(ctx, ss.ID)
	if err != nil {
		return fmt.Errorf("failed to find subscription %s: %w", ss.ID, err)
	}

	sub.Status = translateStatus(stripeStatuses, string(ss.Status))
	sub.CancelAtPeriodEnd = ss.CancelAtPeriodEnd
	if ss.CurrentPeriodEnd > 0 {
		end := time.Unix(ss.CurrentPeriodEnd, 0)
		sub.CurrentPeriodEnd = &end
	}

	return s.subs.Save(ctx, sub, domain.AuditActionWebhook)
}

func (s *StripeWebhookService) subscriptionDeleted(ctx context.Context, ss *stripe.Subscription) error {
	sub, err := s.storage.GetSubscriptionByStripeID(ctx, ss.ID)
	if err != nil {
		return fmt.Errorf("failed to find subscription %s: %w", ss.ID, err)
	}

	canceledAt := s.now()
	if ss.CanceledAt > 0 {
		canceledAt = time.Unix(ss.CanceledAt, 0)
	}
	sub.Status = domain.SubscriptionStatusCanceled
	sub.CanceledAt = &canceledAt

	if err := s.subs.Save(ctx, sub, domain.AuditActionCancel); err != nil {
		return err
	}

	s.notify(ctx, sub.UserID, domain.NotificationSubscriptionCanceled, "Subscription canceled",
		"Your subscription has been canceled.")
	return nil
}
