package http

import (
	"RefStack-Backend/internal/domain"
	"RefStack-Backend/internal/service"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// ReferralOwnerHeader несет username владельца ссылки
const ReferralOwnerHeader = "X-Referral-Owner"

// RedirectHandler обработчик редиректов
type RedirectHandler struct {
	clicks *service.ClickService
	log    *zap.Logger
}

// NewRedirectHandler создает новый обработчик редиректов
func NewRedirectHandler(clicks *service.ClickService, log *zap.Logger) *RedirectHandler {
	return &RedirectHandler{
		clicks: clicks,
		log:    log,
	}
}

// HandleRedirect обрабатывает GET /r/{code}
//
//	@Summary		Follow a referral link
//	@Tags			Redirect
//	@Param			code	path	string	true	"Short code or custom slug"
//	@Success		302		"Redirect to the target URL"
//	@Failure		404		{object}	ErrorResponse	"Link not found or inactive"
//	@Router			/r/{code} [get]
func (h *RedirectHandler) HandleRedirect(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(r.PathValue("code"))
	if code == "" {
		writeError(w, "Link not found", http.StatusNotFound)
		return
	}

	info := service.ClickInfo{
		IP:        ClientIP(r),
		UserAgent: r.UserAgent(),
	}
	if ref := r.Referer(); ref != "" {
		info.Referer = &ref
	}

	target, err := h.clicks.Redirect(r.Context(), code, info)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			h.log.Debug("code not found", zap.String("code", code))
			writeError(w, "Link not found", http.StatusNotFound)
			return
		}
		h.log.Error("failed to resolve code", zap.String("code", code), zap.Error(err))
		writeError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if target.OwnerUsername != "" {
		w.Header().Set(ReferralOwnerHeader, target.OwnerUsername)
	}

	h.log.Info("successful redirect",
		zap.String("code", code),
		zap.Int64("link_id", target.LinkID),
		zap.String("ip", info.IP))

	// URL отдается как есть, без нормализации
	w.Header().Set("Location", target.URL)
	w.WriteHeader(http.StatusFound)
}

// ClientIP извлекает IP клиента: первый X-Forwarded-For, затем X-Real-IP
func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}

	return domain.UnknownIP
}
