package handlers

import (
	"net/http"

	"github.com/duongtruongbinh/life-os/internal/models"
	"github.com/duongtruongbinh/life-os/internal/request"
)

// ListTasks returns the user's tasks, newest first
func (h *TrackerHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	user := currentUser(w, r)
	if user == nil {
		return
	}

	tasks, err := h.svc.Tasks(r.Context(), user.ID)
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to retrieve tasks")
		return
	}
	respondJSON(w, http.StatusOK, tasks)
}

// SyncTasks applies a delete/insert/update batch and returns the inserted rows
// in submission order
func (h *TrackerHandler) SyncTasks(w http.ResponseWriter, r *http.Request) {
	user := currentUser(w, r)
	if user == nil {
		return
	}

	var req models.TaskSyncRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	inserted, err := h.svc.SyncTasks(r.Context(), user.ID, req)
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to sync tasks")
		return
	}
	if inserted == nil {
		inserted = []models.Task{}
	}
	respondJSON(w, http.StatusOK, inserted)
}

// ListHabits returns habit definitions in creation order
func (h *TrackerHandler) ListHabits(w http.ResponseWriter, r *http.Request) {
	user := currentUser(w, r)
	if user == nil {
		return
	}

	habits, err := h.svc.Habits(r.Context(), user.ID)
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to retrieve habits")
		return
	}
	respondJSON(w, http.StatusOK, habits)
}

// SyncHabits applies a delete/insert/update batch of habit definitions
func (h *TrackerHandler) SyncHabits(w http.ResponseWriter, r *http.Request) {
	user := currentUser(w, r)
	if user == nil {
		return
	}

	var req models.HabitSyncRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	asOf := request.ClientDate(r, h.svc.Today())
	inserted, err := h.svc.SyncHabits(r.Context(), user.ID, req, asOf)
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to sync habits")
		return
	}
	if inserted == nil {
		inserted = []models.HabitDefinition{}
	}
	respondJSON(w, http.StatusOK, inserted)
}
