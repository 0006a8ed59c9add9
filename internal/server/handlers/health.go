package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Spkap/GATIS/pkg/api"
)

// ModelReadiness сообщает, загружены ли артефакты моделей
type ModelReadiness interface {
	Ready() bool
}

// HealthHandler обрабатывает health check запросы
type HealthHandler struct {
	logger *slog.Logger
	models ModelReadiness
}

// NewHealthHandler создает новый handler для health check
func NewHealthHandler(logger *slog.Logger, models ModelReadiness) *HealthHandler {
	return &HealthHandler{
		logger: logger,
		models: models,
	}
}

// Health обрабатывает GET /healthz
// 503 пока модели не загружены — readiness для оркестратора
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := api.HealthResponse{
		Status:       "ok",
		ModelsLoaded: h.models.Ready(),
	}

	statusCode := http.StatusOK
	if !resp.ModelsLoaded {
		resp.Status = "starting"
		statusCode = http.StatusServiceUnavailable
	}

	sendJSON(h.logger, w, resp, statusCode)
}

// Welcome обрабатывает GET /
func (h *HealthHandler) Welcome(w http.ResponseWriter, r *http.Request) {
	sendJSON(h.logger, w, api.WelcomeResponse{Message: "Welcome to GATIS Text-to-Image API"}, http.StatusOK)
}
