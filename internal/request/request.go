// Package request holds per-request values shared by middleware and handlers.
package request

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/duongtruongbinh/life-os/internal/models"
	"github.com/duongtruongbinh/life-os/internal/reconcile"
)

type userKey struct{}

// ClientDateHeader carries the caller's local calendar date (YYYY-MM-DD).
const ClientDateHeader = "X-Client-Date"

// ClientIP returns the caller's address without a port. The first
// X-Forwarded-For hop wins over X-Real-IP, which wins over RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// WithUser attaches the authenticated user to ctx.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// UserFromContext returns the authenticated user, or nil on public routes.
func UserFromContext(r *http.Request) *models.User {
	u, _ := r.Context().Value(userKey{}).(*models.User)
	return u
}

// ClientDate returns the caller's local date from ClientDateHeader. When the
// header is missing or malformed it falls back to fallback.
func ClientDate(r *http.Request, fallback string) string {
	v := strings.TrimSpace(r.Header.Get(ClientDateHeader))
	if v == "" {
		return fallback
	}
	if _, err := reconcile.ParseDateKey(v); err != nil {
		return fallback
	}
	return v
}
