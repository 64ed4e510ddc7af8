package http

import (
	"RefStack-Backend/internal/service"
	"net/http"

	"go.uber.org/zap"
)

// SubscriptionHandler handles subscription-related HTTP requests
type SubscriptionHandler struct {
	subs *service.SubscriptionService
	log  *zap.Logger
}

// NewSubscriptionHandler creates a new subscription handler
func NewSubscriptionHandler(subs *service.SubscriptionService, log *zap.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{
		subs: subs,
		log:  log,
	}
}

// ChangePlanRequest represents a plan change request
type ChangePlanRequest struct {
	PlanID int64 `json:"planId"`
}

// CancelSubscriptionRequest represents a cancellation request
type CancelSubscriptionRequest struct {
	Reason string `json:"reason"`
}

// ServeHTTP dispatches /api/subscriptions by method
func (h *SubscriptionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.GetCurrentSubscription(w, r)
	case http.MethodPost:
		h.ChangePlan(w, r)
	case http.MethodDelete:
		h.CancelSubscription(w, r)
	default:
		methodNotAllowed(w, "GET, POST, DELETE")
	}
}

// ListSubscriptionPlans handles GET /api/subscriptions/plans
//
//	@Summary		List subscription plans
//	@Tags			Subscriptions
//	@Produce		json
//	@Success		200	{array}	domain.SubscriptionPlan
//	@Router			/api/subscriptions/plans [get]
func (h *SubscriptionHandler) ListSubscriptionPlans(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	plans, err := h.subs.Plans(r.Context())
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeJSON(w, plans, http.StatusOK)
}

// GetCurrentSubscription handles GET /api/subscriptions
//
//	@Summary		Current subscription
//	@Description	Subscription (null when none) with the plan and addon catalog
//	@Tags			Subscriptions
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	service.CurrentSubscription
//	@Router			/api/subscriptions [get]
func (h *SubscriptionHandler) GetCurrentSubscription(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	current, err := h.subs.Current(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeJSON(w, current, http.StatusOK)
}

// ChangePlan handles POST /api/subscriptions
//
//	@Summary		Change plan
//	@Tags			Subscriptions
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		ChangePlanRequest	true	"Target plan"
//	@Success		200		{object}	domain.Subscription
//	@Failure		400		{object}	ErrorResponse	"Unknown plan"
//	@Router			/api/subscriptions [post]
func (h *SubscriptionHandler) ChangePlan(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req ChangePlanRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.PlanID <= 0 {
		writeError(w, "planId is required", http.StatusBadRequest)
		return
	}

	sub, err := h.subs.ChangePlan(r.Context(), userID, req.PlanID)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	h.log.Info("subscription plan changed", zap.Int64("user_id", userID), zap.String("plan", sub.Plan))
	writeJSON(w, sub, http.StatusOK)
}

// CancelSubscription handles DELETE /api/subscriptions
//
//	@Summary		Cancel subscription
//	@Tags			Subscriptions
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		CancelSubscriptionRequest	false	"Cancellation reason"
//	@Success		200		{object}	domain.Subscription
//	@Failure		404		{object}	ErrorResponse	"No subscription"
//	@Router			/api/subscriptions [delete]
func (h *SubscriptionHandler) CancelSubscription(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req CancelSubscriptionRequest
	if !decodeOptionalJSON(w, r, &req) {
		return
	}

	sub, err := h.subs.Cancel(r.Context(), userID, req.Reason)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	h.log.Info("subscription canceled", zap.Int64("user_id", userID))
	writeJSON(w, sub, http.StatusOK)
}
