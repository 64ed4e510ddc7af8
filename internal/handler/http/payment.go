package http

import (
	"RefStack-Backend/internal/domain"
	"RefStack-Backend/internal/repository"
	"RefStack-Backend/internal/service"
	"context"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"
)

// Provider signature headers
const (
	StripeSignatureHeader   = "Stripe-Signature"
	PayPalTransmissionID    = "Paypal-Transmission-Id"
	PayPalTransmissionTime  = "Paypal-Transmission-Time"
	PayPalTransmissionSig   = "Paypal-Transmission-Sig"
	CoinbaseSignatureHeader = "X-Cc-Webhook-Signature"
)

// PaymentHandler handles provider webhooks and the billing history
type PaymentHandler struct {
	stripe   *service.StripeWebhookService
	paypal   *service.PayPalWebhookService
	coinbase *service.CoinbaseWebhookService
	storage  repository.Storage
	log      *zap.Logger
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(
	stripe *service.StripeWebhookService,
	paypal *service.PayPalWebhookService,
	coinbase *service.CoinbaseWebhookService,
	storage repository.Storage,
	log *zap.Logger,
) *PaymentHandler {
	return &PaymentHandler{
		stripe:   stripe,
		paypal:   paypal,
		coinbase: coinbase,
		storage:  storage,
		log:      log,
	}
}

// WebhookResponse is the acknowledgement sent to providers
type WebhookResponse struct {
	Received bool `json:"received"`
}

// StripeWebhook handles POST /api/payments/stripe/webhook
//
//	@Summary		Stripe webhook
//	@Tags			Payments
//	@Accept			json
//	@Produce		json
//	@Param			Stripe-Signature	header		string	true	"Stripe signature"
//	@Success		200					{object}	WebhookResponse
//	@Failure		400					{object}	ErrorResponse	"Missing signature"
//	@Failure		401					{object}	ErrorResponse	"Invalid signature"
//	@Router			/api/payments/stripe/webhook [post]
func (h *PaymentHandler) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	h.serveWebhook(w, r, "stripe", func(ctx context.Context, body []byte) error {
		return h.stripe.Handle(ctx, body, r.Header.Get(StripeSignatureHeader))
	})
}

// PayPalWebhook handles POST /api/payments/paypal/webhook
//
//	@Summary		PayPal webhook
//	@Tags			Payments
//	@Accept			json
//	@Produce		json
//	@Success		200	{object}	WebhookResponse
//	@Failure		400	{object}	ErrorResponse	"Missing signature"
//	@Failure		401	{object}	ErrorResponse	"Invalid signature"
//	@Router			/api/payments/paypal/webhook [post]
func (h *PaymentHandler) PayPalWebhook(w http.ResponseWriter, r *http.Request) {
	headers := service.PayPalHeaders{
		TransmissionID:   r.Header.Get(PayPalTransmissionID),
		TransmissionTime: r.Header.Get(PayPalTransmissionTime),
		Signature:        r.Header.Get(PayPalTransmissionSig),
	}
	h.serveWebhook(w, r, "paypal", func(ctx context.Context, body []byte) error {
		return h.paypal.Handle(ctx, body, headers)
	})
}

// CryptoWebhook handles POST /api/payments/crypto/webhook
//
//	@Summary		Coinbase Commerce webhook
//	@Tags			Payments
//	@Accept			json
//	@Produce		json
//	@Param			X-CC-Webhook-Signature	header		string	true	"Coinbase Commerce signature"
//	@Success		200						{object}	WebhookResponse
//	@Failure		400						{object}	ErrorResponse	"Missing signature"
//	@Failure		401						{object}	ErrorResponse	"Invalid signature"
//	@Router			/api/payments/crypto/webhook [post]
func (h *PaymentHandler) CryptoWebhook(w http.ResponseWriter, r *http.Request) {
	h.serveWebhook(w, r, "crypto", func(ctx context.Context, body []byte) error {
		return h.coinbase.Handle(ctx, body, r.Header.Get(CoinbaseSignatureHeader))
	})
}

// serveWebhook reads the raw body and maps verification errors.
// Processing errors are logged by the services and still acknowledged.
func (h *PaymentHandler) serveWebhook(w http.ResponseWriter, r *http.Request, provider string, handle func(context.Context, []byte) error) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, "Invalid payload", http.StatusBadRequest)
		return
	}

	err = handle(r.Context(), body)
	switch {
	case err == nil:
		writeJSON(w, WebhookResponse{Received: true}, http.StatusOK)
	case errors.Is(err, service.ErrMissingSignature):
		h.log.Warn("webhook without signature", zap.String("provider", provider))
		writeError(w, "Missing signature", http.StatusBadRequest)
	case errors.Is(err, service.ErrInvalidSignature), errors.Is(err, service.ErrWebhookNotConfigured):
		h.log.Warn("webhook signature rejected", zap.String("provider", provider), zap.Error(err))
		writeError(w, "Invalid signature", http.StatusUnauthorized)
	default:
		h.log.Error("webhook failed", zap.String("provider", provider), zap.Error(err))
		writeError(w, "Internal server error", http.StatusInternalServerError)
	}
}

// ListInvoices handles GET /api/invoices
//
//	@Summary		Billing history
//	@Tags			Payments
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{array}	domain.Invoice
//	@Router			/api/invoices [get]
func (h *PaymentHandler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	invoices, err := h.storage.ListInvoices(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	if invoices == nil {
		invoices = []*domain.Invoice{}
	}

	writeJSON(w, invoices, http.StatusOK)
}
