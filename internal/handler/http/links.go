package http

import (
	"RefStack-Backend/internal/domain"
	"RefStack-Backend/internal/service"
	"net/http"

	"go.uber.org/zap"
)

// LinksHandler обработчик реферальных ссылок
type LinksHandler struct {
	links *service.LinkService
	log   *zap.Logger
}

// NewLinksHandler создает новый обработчик ссылок
func NewLinksHandler(links *service.LinkService, log *zap.Logger) *LinksHandler {
	return &LinksHandler{
		links: links,
		log:   log,
	}
}

// CreateLinkRequest структура запроса создания ссылки
type CreateLinkRequest struct {
	Name         string  `json:"name"`
	URL          string  `json:"url"`
	CustomSlug   *string `json:"customSlug,omitempty"`
	Description  *string `json:"description,omitempty"`
	CustomColor  *string `json:"customColor,omitempty"`
	CustomLogo   *string `json:"customLogo,omitempty"`
	IsPublic     *bool   `json:"isPublic,omitempty"`
	DisplayOrder *int    `json:"displayOrder,omitempty"`
}

// UpdateLinkRequest структура запроса изменения ссылки; отсутствующие поля не меняются
type UpdateLinkRequest struct {
	ID           int64   `json:"id"`
	Name         *string `json:"name,omitempty"`
	URL          *string `json:"url,omitempty"`
	CustomSlug   *string `json:"customSlug,omitempty"`
	Description  *string `json:"description,omitempty"`
	CustomColor  *string `json:"customColor,omitempty"`
	CustomLogo   *string `json:"customLogo,omitempty"`
	IsActive     *bool   `json:"active,omitempty"`
	IsPublic     *bool   `json:"isPublic,omitempty"`
	DisplayOrder *int    `json:"displayOrder,omitempty"`
}

// ListLinksResponse структура ответа списка ссылок
type ListLinksResponse struct {
	Links     []*domain.ReferralLink `json:"links"`
	LimitInfo service.LimitInfo      `json:"limitInfo"`
}

// ServeHTTP диспетчеризует /api/referral-links по методу
func (h *LinksHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.ListLinks(w, r)
	case http.MethodPost:
		h.CreateLink(w, r)
	case http.MethodPatch:
		h.UpdateLink(w, r)
	case http.MethodDelete:
		h.DeleteLink(w, r)
	default:
		methodNotAllowed(w, "GET, POST, PATCH, DELETE")
	}
}

// ListLinks возвращает ссылки пользователя и состояние лимита
//
//	@Summary		List referral links
//	@Tags			Referral links
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	ListLinksResponse
//	@Failure		401	{object}	ErrorResponse	"Authentication required"
//	@Router			/api/referral-links [get]
func (h *LinksHandler) ListLinks(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	links, limit, err := h.links.List(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	if links == nil {
		links = []*domain.ReferralLink{}
	}

	writeJSON(w, ListLinksResponse{Links: links, LimitInfo: limit}, http.StatusOK)
}

// CreateLink создает реферальную ссылку
//
//	@Summary		Create a referral link
//	@Tags			Referral links
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		CreateLinkRequest	true	"Link creation request"
//	@Success		201		{object}	domain.ReferralLink
//	@Failure		400		{object}	ErrorResponse		"Missing fields, invalid or taken slug"
//	@Failure		403		{object}	QuotaErrorResponse	"Link limit reached"
//	@Router			/api/referral-links [post]
func (h *LinksHandler) CreateLink(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req CreateLinkRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	link, err := h.links.Create(r.Context(), userID, service.LinkInput{
		Name:         req.Name,
		URL:          req.URL,
		CustomSlug:   req.CustomSlug,
		Description:  req.Description,
		CustomColor:  req.CustomColor,
		CustomLogo:   req.CustomLogo,
		IsPublic:     req.IsPublic,
		DisplayOrder: req.DisplayOrder,
	})
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeJSON(w, link, http.StatusCreated)
}

// UpdateLink изменяет ссылку
//
//	@Summary		Update a referral link
//	@Tags			Referral links
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		UpdateLinkRequest	true	"Link ID and fields to change"
//	@Success		200		{object}	domain.ReferralLink
//	@Failure		400		{object}	ErrorResponse	"Missing id or invalid fields"
//	@Failure		404		{object}	ErrorResponse	"Link not found"
//	@Router			/api/referral-links [patch]
func (h *LinksHandler) UpdateLink(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req UpdateLinkRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	// id приходит в теле; ?id= оставлен для старых клиентов
	id := req.ID
	if id == 0 && r.URL.Query().Has("id") {
		if id, ok = queryID(w, r); !ok {
			return
		}
	}
	if id <= 0 {
		writeError(w, "Field id is required", http.StatusBadRequest)
		return
	}

	link, err := h.links.Update(r.Context(), userID, id, service.LinkPatch{
		Name:         req.Name,
		URL:          req.URL,
		CustomSlug:   req.CustomSlug,
		Description:  req.Description,
		CustomColor:  req.CustomColor,
		CustomLogo:   req.CustomLogo,
		IsActive:     req.IsActive,
		IsPublic:     req.IsPublic,
		DisplayOrder: req.DisplayOrder,
	})
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeJSON(w, link, http.StatusOK)
}

// DeleteLink удаляет ссылку; клики сохраняются
//
//	@Summary		Delete a referral link
//	@Tags			Referral links
//	@Security		BearerAuth
//	@Param			id	query	int	true	"Link ID"
//	@Success		204	"Link deleted"
//	@Failure		404	{object}	ErrorResponse	"Link not found"
//	@Router			/api/referral-links [delete]
func (h *LinksHandler) DeleteLink(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := queryID(w, r)
	if !ok {
		return
	}

	if err := h.links.Delete(r.Context(), userID, id); err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetStats возвращает разбивку кликов по браузерам, ОС и устройствам
//
//	@Summary		Referral link statistics
//	@Tags			Referral links
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	query		int	true	"Link ID"
//	@Success		200	{object}	service.LinkStats
//	@Failure		404	{object}	ErrorResponse	"Link not found"
//	@Router			/api/referral-links/stats [get]
func (h *LinksHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
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

	stats, err := h.links.Stats(r.Context(), userID, id)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeJSON(w, stats, http.StatusOK)
}
