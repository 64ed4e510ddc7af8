package http

import (
	"RefStack-Backend/internal/repository"
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// HealthHandler обработчик health checks
type HealthHandler struct {
	storage repository.Storage
	version string
	started time.Time
	log     *zap.Logger
}

// NewHealthHandler создает новый health handler
func NewHealthHandler(storage repository.Storage, version string, log *zap.Logger) *HealthHandler {
	return &HealthHandler{
		storage: storage,
		version: version,
		started: time.Now(),
		log:     log,
	}
}

// HealthResponse структура ответа health check
type HealthResponse struct {
	Status         string    `json:"status"`
	Timestamp      time.Time `json:"timestamp"`
	Version        string    `json:"version"`
	DatabaseStatus string    `json:"database_status"`
	Uptime         string    `json:"uptime,omitempty"`
}

// Health основной health check endpoint
//
//	@Summary	Liveness and database check
//	@Tags		Health
//	@Produce	json
//	@Success	200	{object}	HealthResponse
//	@Failure	503	{object}	HealthResponse
//	@Router		/health [get]
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status, dbStatus, code := "healthy", "healthy", http.StatusOK
	if err := h.storage.Ping(ctx); err != nil {
		h.log.Error("database health check failed", zap.Error(err))
		status, dbStatus, code = "unhealthy", "unhealthy", http.StatusServiceUnavailable
	}

	writeJSON(w, HealthResponse{
		Status:         status,
		Timestamp:      time.Now(),
		Version:        h.version,
		DatabaseStatus: dbStatus,
		Uptime:         time.Since(h.started).Round(time.Second).String(),
	}, code)
}

// Ready readiness probe endpoint
//
//	@Summary	Readiness probe
//	@Tags		Health
//	@Produce	json
//	@Success	200	{object}	map[string]interface{}
//	@Router		/ready [get]
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"status":    "ready",
		"timestamp": time.Now(),
	}, http.StatusOK)
}
