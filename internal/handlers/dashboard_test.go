package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"

	"github.com/duongtruongbinh/life-os/internal/client"
	"github.com/duongtruongbinh/life-os/internal/request"
	"github.com/duongtruongbinh/life-os/internal/store"
)

// A dashboard with one failed read still hydrates the client store, and the
// failure is recorded as the store error.
func TestDashboard_PartialDataReachesStore(t *testing.T) {
	t.Parallel()

	r := mux.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(request.WithUser(req.Context(), testUser)))
		})
	})
	NewTrackerHandler(&fakeTracker{dashErr: errors.New("settings query failed")}, nil).
		RegisterRoutes(r.PathPrefix("/api/v1").Subrouter())
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	c, err := client.New(srv.URL, "secret")
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	s := store.New(c, store.WithSavePolicy(store.NeverPolicy()))
	t.Cleanup(s.Close)

	s.LoadInitialData(context.Background())

	st := s.State()
	if len(st.Tasks) != 1 || st.Tasks[0].ID != "t1" {
		t.Errorf("Expected the task that loaded, got %+v", st.Tasks)
	}
	if st.Error != PartialDashboardWarning {
		t.Errorf("Expected error %q, got %q", PartialDashboardWarning, st.Error)
	}
	if !st.IsInitialized || st.Loading {
		t.Errorf("Expected an initialized store, got initialized=%v loading=%v", st.IsInitialized, st.Loading)
	}
}
