package http

import (
	"encoding/json"
	"net/http"

	"github.com/MKhiriev/go-workout-sync/internal/logger"
	"github.com/MKhiriev/go-workout-sync/internal/service"
)

// Handler is the local control API exposed to the application shell: sync
// status, on-demand runs, the enable flag and the conflict review log.
type Handler struct {
	services *service.Services

	logger *logger.Logger
}

func NewHandler(services *service.Services, logger *logger.Logger) *Handler {
	logger.Info().Msg("http handler created")
	return &Handler{
		services: services,
		logger:   logger,
	}
}

func writeJSON(w http.ResponseWriter, payload any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
