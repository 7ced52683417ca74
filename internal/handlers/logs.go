package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/duongtruongbinh/life-os/internal/models"
	"github.com/duongtruongbinh/life-os/internal/request"
)

// DefaultRecentDays is used when /logs/recent has no days parameter.
const DefaultRecentDays = 7

// GetLog returns the log for one date; data is null when nothing was logged.
func (h *TrackerHandler) GetLog(w http.ResponseWriter, r *http.Request) {
	user := currentUser(w, r)
	if user == nil {
		return
	}

	log, err := h.svc.LogForDate(r.Context(), user.ID, mux.Vars(r)["date"])
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to load daily log")
		return
	}
	respondJSON(w, http.StatusOK, log)
}

// GetLogsInRange returns logs in [start, end]
func (h *TrackerHandler) GetLogsInRange(w http.ResponseWriter, r *http.Request) {
	user := currentUser(w, r)
	if user == nil {
		return
	}

	q := r.URL.Query()
	start, end := q.Get("start"), q.Get("end")
	if start == "" || end == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "start and end are required")
		return
	}

	logs, err := h.svc.LogsInRange(r.Context(), user.ID, start, end)
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to load daily logs")
		return
	}
	respondJSON(w, http.StatusOK, logs)
}

// GetRecentLogs returns logs for the last ?days= days ending at ?as_of=
func (h *TrackerHandler) GetRecentLogs(w http.ResponseWriter, r *http.Request) {
	user := currentUser(w, r)
	if user == nil {
		return
	}

	q := r.URL.Query()
	days := DefaultRecentDays
	if d := q.Get("days"); d != "" {
		parsed, err := strconv.Atoi(d)
		if err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "days must be an integer")
			return
		}
		days = parsed
	}

	asOf := q.Get("as_of")
	if asOf == "" {
		asOf = request.ClientDate(r, h.svc.Today())
	}

	logs, err := h.svc.LogsLastNDays(r.Context(), user.ID, days, asOf)
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to load daily logs")
		return
	}
	respondJSON(w, http.StatusOK, logs)
}

// SaveLogs upserts a batch of logs keyed by date
func (h *TrackerHandler) SaveLogs(w http.ResponseWriter, r *http.Request) {
	user := currentUser(w, r)
	if user == nil {
		return
	}

	var req models.LogsBulkRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	asOf := request.ClientDate(r, h.svc.Today())
	if err := h.svc.SaveLogs(r.Context(), user.ID, req.Logs, asOf); err != nil {
		h.respondServiceError(w, r, err, "Failed to save daily logs")
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"saved": len(req.Logs)})
}
