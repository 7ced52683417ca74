package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/duongtruongbinh/life-os/internal/models"
	"github.com/duongtruongbinh/life-os/internal/request"
)

func TestRateLimitWithStore_InvalidRate(t *testing.T) {
	t.Parallel()

	if _, err := RateLimitWithStore(memory.NewStore(), "lots"); err == nil {
		t.Error("Expected error for malformed rate")
	}
}

func TestRateLimitWithStore(t *testing.T) {
	t.Parallel()

	mw, err := RateLimitWithStore(memory.NewStore(), "2-M")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(ip string, user *models.User) int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/tasks", nil)
		req.RemoteAddr = ip
		if user != nil {
			req = req.WithContext(request.WithUser(req.Context(), user))
		}
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	for i := 0; i < 2; i++ {
		if code := send("10.0.0.1", nil); code != http.StatusOK {
			t.Fatalf("Expected request %d to pass, got %d", i+1, code)
		}
	}
	if code := send("10.0.0.1", nil); code != http.StatusTooManyRequests {
		t.Errorf("Expected 429 after limit, got %d", code)
	}
	if code := send("10.0.0.1:51234", nil); code != http.StatusTooManyRequests {
		t.Errorf("Expected a new connection from the same IP to share the bucket, got %d", code)
	}
	if code := send("10.0.0.2", nil); code != http.StatusOK {
		t.Errorf("Expected other IP to pass, got %d", code)
	}

	user := &models.User{ID: uuid.New()}
	if code := send("10.0.0.1", user); code != http.StatusOK {
		t.Errorf("Expected authenticated user to have its own bucket, got %d", code)
	}
}
