package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

// AuthHandler exposes the account behind the bearer token.
type AuthHandler struct{}

func NewAuthHandler() *AuthHandler {
	return &AuthHandler{}
}

// RegisterRoutes expects a router already mounted at /api/v1/auth.
func (h *AuthHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/me", h.GetMe).Methods(http.MethodGet)
}

// GetMe echoes the user the auth middleware upserted for this request.
func (h *AuthHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	if user := currentUser(w, r); user != nil {
		w.Header().Set("Cache-Control", "no-store")
		respondJSON(w, http.StatusOK, user)
	}
}
