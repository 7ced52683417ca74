package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/duongtruongbinh/life-os/internal/models"
	"github.com/duongtruongbinh/life-os/internal/request"
	"github.com/duongtruongbinh/life-os/internal/services/oidc"
)

// UserUpserter resolves verified claims to a stored user.
type UserUpserter interface {
	UpsertFromClaims(ctx context.Context, claims *models.Claims) (*models.User, error)
}

type holderKey struct{}

// userHolder lets an outer middleware see who Auth resolved further down.
type userHolder struct {
	userID string
}

func withUserHolder(ctx context.Context, h *userHolder) context.Context {
	return context.WithValue(ctx, holderKey{}, h)
}

// Auth verifies the bearer token, upserts the user, and attaches it to the
// request context.
func Auth(verifier oidc.TokenVerifier, users UserUpserter, logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				writeError(w, http.StatusUnauthorized, "Unauthorized", "Missing or malformed Authorization header")
				return
			}

			ctx := r.Context()
			claims, err := verifier.Verify(ctx, token)
			if err != nil {
				if errors.Is(err, oidc.ErrInvalidToken) {
					writeError(w, http.StatusUnauthorized, "Unauthorized", "Invalid or expired token")
					return
				}
				logger.Error("token_verification_unavailable", zap.Error(err))
				writeError(w, http.StatusServiceUnavailable, "Service Unavailable", "Unable to verify token")
				return
			}

			user, err := users.UpsertFromClaims(ctx, claims)
			if err != nil {
				logger.Error("user_upsert_failed", zap.Error(err))
				writeError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to resolve user")
				return
			}

			if h, ok := ctx.Value(holderKey{}).(*userHolder); ok {
				h.userID = user.ID.String()
			}
			next.ServeHTTP(w, r.WithContext(request.WithUser(ctx, user)))
		})
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
