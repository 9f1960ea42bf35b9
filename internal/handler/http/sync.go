package http

import (
	"encoding/json"
	"net/http"

	"github.com/MKhiriev/go-workout-sync/internal/logger"
)

func (h *Handler) getSyncMetadata(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	meta, err := h.services.GetSyncMetadata(ctx)
	if err != nil {
		log.Err(err).Str("func", "*Handler.getSyncMetadata").Msg("error getting sync metadata")
		http.Error(w, "error getting sync metadata", http.StatusInternalServerError)
		return
	}

	writeJSON(w, meta, http.StatusOK)
}

func (h *Handler) runFullSync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	result := h.services.RunFullSync(ctx)

	response := struct {
		Status        string `json:"status"`
		PushedCount   int    `json:"pushed_count"`
		PulledCount   int    `json:"pulled_count"`
		ConflictCount int    `json:"conflict_count"`
		Error         string `json:"error,omitempty"`
	}{
		Status:        string(result.Status),
		PushedCount:   result.PushedCount,
		PulledCount:   result.PulledCount,
		ConflictCount: result.ConflictCount,
	}
	if result.Err != nil {
		response.Error = result.Err.Error()
	}

	log.Info().
		Str("func", "*Handler.runFullSync").
		Str("status", response.Status).
		Msg("on-demand sync requested")

	writeJSON(w, response, http.StatusOK)
}

func (h *Handler) setSyncEnabled(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	var request struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		log.Err(err).Str("func", "*Handler.setSyncEnabled").Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	if err := h.services.SetSyncEnabled(ctx, request.Enabled); err != nil {
		log.Err(err).Str("func", "*Handler.setSyncEnabled").Msg("error updating sync flag")
		http.Error(w, "error updating sync flag", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getAllConflicts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	conflicts, err := h.services.GetAllConflicts(ctx)
	if err != nil {
		log.Err(err).Str("func", "*Handler.getAllConflicts").Msg("error getting conflicts")
		http.Error(w, "error getting conflicts", http.StatusInternalServerError)
		return
	}

	writeJSON(w, conflicts, http.StatusOK)
}

func (h *Handler) getDeadLetters(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	items, err := h.services.GetDeadLetters(ctx)
	if err != nil {
		log.Err(err).Str("func", "*Handler.getDeadLetters").Msg("error getting dead letters")
		http.Error(w, "error getting dead letters", http.StatusInternalServerError)
		return
	}

	writeJSON(w, items, http.StatusOK)
}
