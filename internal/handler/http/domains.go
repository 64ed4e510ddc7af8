package http

import (
	"RefStack-Backend/internal/domain"
	"RefStack-Backend/internal/service"
	"context"
	"net/http"

	"go.uber.org/zap"
)

// DomainsHandler обработчик кастомных доменов
type DomainsHandler struct {
	domains *service.DomainService
	log     *zap.Logger
}

func NewDomainsHandler(domains *service.DomainService, log *zap.Logger) *DomainsHandler {
	return &DomainsHandler{
		domains: domains,
		log:     log,
	}
}

// AddDomainRequest структура запроса добавления домена
type AddDomainRequest struct {
	Domain string `json:"domain"`
}

// ServeHTTP диспетчеризует /api/custom-domains по методу
func (h *DomainsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.ListDomains(w, r)
	case http.MethodPost:
		h.AddDomain(w, r)
	case http.MethodDelete:
		h.DeleteDomain(w, r)
	default:
		methodNotAllowed(w, "GET, POST, DELETE")
	}
}

// ListDomains возвращает домены пользователя
//
//	@Summary		List custom domains
//	@Tags			Custom domains
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{array}	domain.CustomDomain
//	@Router			/api/custom-domains [get]
func (h *DomainsHandler) ListDomains(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	domains, err := h.domains.List(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	if domains == nil {
		domains = []*domain.CustomDomain{}
	}

	writeJSON(w, domains, http.StatusOK)
}

// AddDomain регистрирует домен в статусе pending
//
//	@Summary		Add a custom domain
//	@Description	The response carries the token to publish as TXT record _refstack.<domain>
//	@Tags			Custom domains
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		AddDomainRequest	true	"Domain"
//	@Success		201		{object}	domain.CustomDomain
//	@Failure		400		{object}	ErrorResponse	"Invalid hostname"
//	@Failure		409		{object}	ErrorResponse	"Domain already registered"
//	@Router			/api/custom-domains [post]
func (h *DomainsHandler) AddDomain(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req AddDomainRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	d, err := h.domains.Add(r.Context(), userID, req.Domain)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeJSON(w, d, http.StatusCreated)
}

// DeleteDomain удаляет домен
//
//	@Summary		Delete a custom domain
//	@Tags			Custom domains
//	@Security		BearerAuth
//	@Param			id	query	int	true	"Domain ID"
//	@Success		204	"Domain deleted"
//	@Failure		404	{object}	ErrorResponse	"Domain not found"
//	@Router			/api/custom-domains [delete]
func (h *DomainsHandler) DeleteDomain(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := queryID(w, r)
	if !ok {
		return
	}

	if err := h.domains.Delete(r.Context(), userID, id); err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// VerifyDomain проверяет TXT запись домена
//
//	@Summary		Verify a custom domain
//	@Tags			Custom domains
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	query		int	true	"Domain ID"
//	@Success		200	{object}	domain.CustomDomain
//	@Failure		404	{object}	ErrorResponse	"Domain not found"
//	@Router			/api/custom-domains/verify [post]
func (h *DomainsHandler) VerifyDomain(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.domains.Verify)
}

// MarkSSL отмечает выпущенный сертификат
//
//	@Summary		Mark SSL provisioned
//	@Tags			Custom domains
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	query		int	true	"Domain ID"
//	@Success		200	{object}	domain.CustomDomain
//	@Failure		404	{object}	ErrorResponse	"Domain not found"
//	@Router			/api/custom-domains/ssl [post]
func (h *DomainsHandler) MarkSSL(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.domains.MarkSSLProvisioned)
}

func (h *DomainsHandler) transition(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, userID, id int64) (*domain.CustomDomain, error)) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := queryID(w, r)
	if !ok {
		return
	}

	d, err := apply(r.Context(), userID, id)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeJSON(w, d, http.StatusOK)
}
