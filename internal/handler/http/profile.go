package http

import (
	"RefStack-Backend/internal/service"
	"net/http"

	"go.uber.org/zap"
)

// ProfileHandler анонимные публичные страницы
type ProfileHandler struct {
	profiles *service.ProfileService
	log      *zap.Logger
}

func NewProfileHandler(profiles *service.ProfileService, log *zap.Logger) *ProfileHandler {
	return &ProfileHandler{
		profiles: profiles,
		log:      log,
	}
}

// GetPublicProfile обрабатывает GET /api/public-profile/{username}
//
//	@Summary		Public profile
//	@Tags			Public
//	@Produce		json
//	@Param			username	path		string	true	"Username"
//	@Success		200			{object}	service.PublicProfile
//	@Failure		404			{object}	ErrorResponse	"Unknown username"
//	@Router			/api/public-profile/{username} [get]
func (h *ProfileHandler) GetPublicProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.profiles.PublicProfile(r.Context(), r.PathValue("username"))
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, profile, http.StatusOK)
}

// GetPublicReferrals обрабатывает GET /api/public-referrals/{username}
//
//	@Summary		Public referral links
//	@Tags			Public
//	@Produce		json
//	@Param			username	path		string	true	"Username"
//	@Success		200			{object}	service.PublicReferrals
//	@Failure		404			{object}	ErrorResponse	"Unknown username"
//	@Router			/api/public-referrals/{username} [get]
func (h *ProfileHandler) GetPublicReferrals(w http.ResponseWriter, r *http.Request) {
	referrals, err := h.profiles.PublicReferrals(r.Context(), r.PathValue("username"))
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, referrals, http.StatusOK)
}
