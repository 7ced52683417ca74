package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/duongtruongbinh/life-os/internal/database"
	"github.com/duongtruongbinh/life-os/internal/logger"
	"github.com/duongtruongbinh/life-os/internal/models"
	"github.com/duongtruongbinh/life-os/internal/request"
	"github.com/duongtruongbinh/life-os/internal/services/tracker"
)

// TrackerService is the per-user tracker API the handlers expose.
type TrackerService interface {
	Today() string
	Dashboard(ctx context.Context, userID uuid.UUID, date string) (*models.DashboardData, error)
	LogForDate(ctx context.Context, userID uuid.UUID, date string) (*models.DailyLog, error)
	LogsInRange(ctx context.Context, userID uuid.UUID, start, end string) ([]models.DailyLog, error)
	LogsLastNDays(ctx context.Context, userID uuid.UUID, days int, asOf string) ([]models.DailyLog, error)
	SaveLogs(ctx context.Context, userID uuid.UUID, logs []models.DailyLog, asOf string) error
	Tasks(ctx context.Context, userID uuid.UUID) ([]models.Task, error)
	SyncTasks(ctx context.Context, userID uuid.UUID, req models.TaskSyncRequest) ([]models.Task, error)
	Habits(ctx context.Context, userID uuid.UUID) ([]models.HabitDefinition, error)
	SyncHabits(ctx context.Context, userID uuid.UUID, req models.HabitSyncRequest, asOf string) ([]models.HabitDefinition, error)
	Settings(ctx context.Context, userID uuid.UUID) (*models.UserSettings, error)
	UpsertSettings(ctx context.Context, userID uuid.UUID, in models.SettingsInput) error
	Streaks(ctx context.Context, userID uuid.UUID) ([]models.HabitStreak, error)
}

var _ TrackerService = (*tracker.Service)(nil)

// TrackerHandler handles the tracker routes
type TrackerHandler struct {
	svc    TrackerService
	logger *zap.Logger
}

// NewTrackerHandler creates a new tracker handler
func NewTrackerHandler(svc TrackerService, log *zap.Logger) *TrackerHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &TrackerHandler{svc: svc, logger: log}
}

// RegisterRoutes registers tracker routes on the /api/v1 router
func (h *TrackerHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/dashboard", h.GetDashboard).Methods("GET")

	// /logs/recent must be registered before /logs/{date}
	r.HandleFunc("/logs/recent", h.GetRecentLogs).Methods("GET")
	r.HandleFunc("/logs/{date}", h.GetLog).Methods("GET")
	r.HandleFunc("/logs", h.GetLogsInRange).Methods("GET")
	r.HandleFunc("/logs", h.SaveLogs).Methods("PUT")

	r.HandleFunc("/tasks", h.ListTasks).Methods("GET")
	r.HandleFunc("/tasks/sync", h.SyncTasks).Methods("POST")

	r.HandleFunc("/habits", h.ListHabits).Methods("GET")
	r.HandleFunc("/habits/sync", h.SyncHabits).Methods("POST")

	r.HandleFunc("/settings", h.GetSettings).Methods("GET")
	r.HandleFunc("/settings", h.PutSettings).Methods("PUT")

	r.HandleFunc("/stats/streaks", h.GetStreaks).Methods("GET")
}

// currentUser writes a 401 and returns nil when the request carries no user.
func currentUser(w http.ResponseWriter, r *http.Request) *models.User {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
	}
	return user
}

// respondServiceError maps service errors onto HTTP statuses. Internal errors
// are logged and hidden from the caller.
func (h *TrackerHandler) respondServiceError(w http.ResponseWriter, r *http.Request, err error, message string) {
	switch {
	case errors.Is(err, tracker.ErrInvalidInput):
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
	case errors.Is(err, database.ErrConflict):
		respondJSONError(w, http.StatusConflict, "Conflict", conflictMessage(err))
	case errors.Is(err, database.ErrNotFound):
		respondJSONError(w, http.StatusNotFound, "Not Found", message)
	default:
		h.logger.Error("tracker_request_failed",
			zap.String("method", r.Method),
			zap.String("path", logger.SanitizePath(r.URL.Path)),
			zap.Error(err),
		)
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", message)
	}
}

// conflictMessage keeps the user-facing part of a wrapped ErrConflict.
func conflictMessage(err error) string {
	msg := err.Error()
	if i := strings.LastIndex(msg, database.ErrConflict.Error()+": "); i >= 0 {
		return msg[i+len(database.ErrConflict.Error())+2:]
	}
	return msg
}

// PartialDashboardWarning accompanies a dashboard where some reads failed.
const PartialDashboardWarning = "Some dashboard data could not be loaded"

// GetDashboard returns the aggregated hydration payload for ?date=. Reads
// that succeeded are returned even when others failed.
func (h *TrackerHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	user := currentUser(w, r)
	if user == nil {
		return
	}

	date := r.URL.Query().Get("date")
	if date == "" {
		date = request.ClientDate(r, h.svc.Today())
	}

	data, err := h.svc.Dashboard(r.Context(), user.ID, date)
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, data)
	case data != nil && !errors.Is(err, tracker.ErrInvalidInput):
		h.logger.Warn("dashboard_partial",
			zap.String("date", date),
			zap.Error(err),
		)
		respondPartialJSON(w, data, PartialDashboardWarning)
	default:
		h.respondServiceError(w, r, err, "Failed to load dashboard")
	}
}

// GetStreaks returns the last streak rollup for the user
func (h *TrackerHandler) GetStreaks(w http.ResponseWriter, r *http.Request) {
	user := currentUser(w, r)
	if user == nil {
		return
	}

	streaks, err := h.svc.Streaks(r.Context(), user.ID)
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to load streaks")
		return
	}
	respondJSON(w, http.StatusOK, streaks)
}
