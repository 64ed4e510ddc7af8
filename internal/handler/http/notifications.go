package http

import (
	"RefStack-Backend/internal/domain"
	"RefStack-Backend/internal/repository"
	"net/http"
	"strconv"

	"go.uber.org/zap"
)

const (
	defaultNotificationsLimit = 50
	maxNotificationsLimit     = 200
)

// NotificationsHandler отдает уведомления пользователя
type NotificationsHandler struct {
	storage repository.Storage
	log     *zap.Logger
}

func NewNotificationsHandler(storage repository.Storage, log *zap.Logger) *NotificationsHandler {
	return &NotificationsHandler{
		storage: storage,
		log:     log,
	}
}

// ListNotifications обрабатывает GET /api/notifications?limit=
//
//	@Summary		Notifications
//	@Description	Latest notifications, newest first
//	@Tags			Notifications
//	@Produce		json
//	@Security		BearerAuth
//	@Param			limit	query	int	false	"Maximum number of rows (default 50)"
//	@Success		200		{array}	domain.Notification
//	@Router			/api/notifications [get]
func (h *NotificationsHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	limit := defaultNotificationsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(n, maxNotificationsLimit)
	}

	notifications, err := h.storage.ListNotifications(r.Context(), userID, limit)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	if notifications == nil {
		notifications = []*domain.Notification{}
	}

	writeJSON(w, notifications, http.StatusOK)
}
