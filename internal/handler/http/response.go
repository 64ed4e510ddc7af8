package http

import (
	"RefStack-Backend/internal/auth"
	"RefStack-Backend/internal/repository"
	"RefStack-Backend/internal/service"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// ErrorResponse структура ошибки
type ErrorResponse struct {
	Error string `json:"error"`
}

// QuotaErrorResponse ответ при превышении лимита ссылок
type QuotaErrorResponse struct {
	Error        string `json:"error"`
	CurrentCount int64  `json:"currentCount"`
	MaxLinks     int    `json:"maxLinks"`
}

func writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, statusCode int) {
	writeJSON(w, ErrorResponse{Error: message}, statusCode)
}

// writeServiceError переводит ошибку сервиса в HTTP ответ
func writeServiceError(w http.ResponseWriter, log *zap.Logger, err error) {
	var validation *service.ValidationError
	var quota *repository.QuotaExceededError

	switch {
	case errors.As(err, &validation):
		writeError(w, validation.Error(), http.StatusBadRequest)
	case errors.As(err, &quota):
		writeJSON(w, QuotaErrorResponse{
			Error:        "Link limit reached. Upgrade your plan to create more links.",
			CurrentCount: quota.CurrentCount,
			MaxLinks:     quota.MaxLinks,
		}, http.StatusForbidden)
	case errors.Is(err, service.ErrSlugTaken):
		writeError(w, "Custom slug is already taken", http.StatusBadRequest)
	case errors.Is(err, service.ErrDomainExists):
		writeError(w, "Domain is already registered", http.StatusConflict)
	case errors.Is(err, service.ErrNotFound):
		writeError(w, "Not found", http.StatusNotFound)
	default:
		log.Error("request failed", zap.Error(err))
		writeError(w, "Internal server error", http.StatusInternalServerError)
	}
}

// decodeJSON читает тело запроса с ограничением размера
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, "Invalid request format", http.StatusBadRequest)
		return false
	}
	return true
}

// decodeOptionalJSON как decodeJSON, но пустое тело допустимо
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, "Invalid request format", http.StatusBadRequest)
		return false
	}
	return true
}

// requireUser достает ID пользователя, установленный JWT middleware
func requireUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, "Authorization required", http.StatusUnauthorized)
		return 0, false
	}
	return userID, true
}

// queryID читает обязательный параметр ?id=
func queryID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, "Query parameter id is required", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func methodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
}
