package handlers

import (
	"net/http"

	"github.com/duongtruongbinh/life-os/internal/models"
)

// GetSettings returns the user's settings; data is null until first saved
func (h *TrackerHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	user := currentUser(w, r)
	if user == nil {
		return
	}

	settings, err := h.svc.Settings(r.Context(), user.ID)
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to retrieve settings")
		return
	}
	respondJSON(w, http.StatusOK, settings)
}

// PutSettings upserts the user's settings
func (h *TrackerHandler) PutSettings(w http.ResponseWriter, r *http.Request) {
	user := currentUser(w, r)
	if user == nil {
		return
	}

	var in models.SettingsInput
	if err := decodeAndValidate(r, &in); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	if err := h.svc.UpsertSettings(r.Context(), user.ID, in); err != nil {
		h.respondServiceError(w, r, err, "Failed to save settings")
		return
	}
	respondJSON(w, http.StatusOK, in)
}
