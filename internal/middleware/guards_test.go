package middleware

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestContentType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		method      string
		contentType string
		wantStatus  int
	}{
		{name: "GET without header", method: http.MethodGet, wantStatus: http.StatusOK},
		{name: "PUT json", method: http.MethodPut, contentType: "application/json", wantStatus: http.StatusOK},
		{name: "POST json with charset", method: http.MethodPost, contentType: "application/json; charset=utf-8", wantStatus: http.StatusOK},
		{name: "POST missing header", method: http.MethodPost, wantStatus: http.StatusBadRequest},
		{name: "PUT form", method: http.MethodPut, contentType: "application/x-www-form-urlencoded", wantStatus: http.StatusUnsupportedMediaType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(tt.method, "/api/v1/logs", strings.NewReader("{}"))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			w := httptest.NewRecorder()
			ContentType(okHandler()).ServeHTTP(w, req)
			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
		})
	}
}

func TestMaxRequestSize(t *testing.T) {
	t.Parallel()

	readAll := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 64)
		for {
			_, err := r.Body.Read(buf)
			if err != nil {
				if errors.Is(err, io.EOF) {
					w.WriteHeader(http.StatusOK)
					return
				}
				w.WriteHeader(http.StatusRequestEntityTooLarge)
				return
			}
		}
	})

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{name: "under limit", body: strings.Repeat("a", 8), wantStatus: http.StatusOK},
		{name: "over limit", body: strings.Repeat("a", 32), wantStatus: http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodPut, "/api/v1/logs", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			MaxRequestSize(16)(readAll).ServeHTTP(w, req)
			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
		})
	}
}

func TestSecurityHeaders(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tasks", nil)
	w := httptest.NewRecorder()
	SecurityHeaders(true)(okHandler()).ServeHTTP(w, req)

	for _, h := range []string{"X-Content-Type-Options", "X-Frame-Options", "Content-Security-Policy", "Cache-Control"} {
		if w.Header().Get(h) == "" {
			t.Errorf("Expected header %s to be set", h)
		}
	}
	if got := w.Header().Get("Strict-Transport-Security"); got != "" {
		t.Errorf("Expected no HSTS over plain HTTP, got %q", got)
	}
}

func TestTimeout(t *testing.T) {
	t.Parallel()

	slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard", nil)
	w := httptest.NewRecorder()
	Timeout(20*time.Millisecond)(slow).ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Request timed out") {
		t.Errorf("Expected timeout body, got %q", w.Body.String())
	}
}
