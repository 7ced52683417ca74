package oidc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/duongtruongbinh/life-os/internal/models"
)

// ErrInvalidToken is returned for any token that fails verification.
var ErrInvalidToken = errors.New("invalid token")

// TokenVerifier is what the auth middleware depends on.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*models.Claims, error)
}

// Verifier verifies JWT tokens against one issuer's key set
type Verifier struct {
	jwksManager *JWKSManager
	jwksURL     string
	issuer      string
	audience    string
	skew        time.Duration
}

// NewVerifier creates a new JWT verifier. An empty audience skips the aud check.
func NewVerifier(jwksManager *JWKSManager, issuer, jwksURL, audience string) *Verifier {
	if jwksURL == "" {
		jwksURL = DefaultJWKSURL(issuer)
	}
	return &Verifier{
		jwksManager: jwksManager,
		jwksURL:     jwksURL,
		issuer:      issuer,
		audience:    audience,
		skew:        30 * time.Second,
	}
}

// DefaultJWKSURL returns the conventional JWKS location for issuer.
func DefaultJWKSURL(issuer string) string {
	return strings.TrimSuffix(issuer, "/") + "/.well-known/jwks.json"
}

// Verify verifies a JWT token and extracts claims
func (v *Verifier) Verify(ctx context.Context, tokenString string) (*models.Claims, error) {
	keys, cached, err := v.jwksManager.GetJWKS(ctx, v.jwksURL)
	if err != nil {
		return nil, fmt.Errorf("failed to get JWKS: %w", err)
	}

	token, err := v.parse(tokenString, keys)
	if err != nil && cached {
		// The issuer may have rotated keys since the set was cached
		v.jwksManager.Invalidate(v.jwksURL)
		fresh, _, fetchErr := v.jwksManager.GetJWKS(ctx, v.jwksURL)
		if fetchErr != nil {
			return nil, fmt.Errorf("failed to refresh JWKS: %w", fetchErr)
		}
		token, err = v.parse(tokenString, fresh)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims := &models.Claims{
		Subject:  token.Subject(),
		Issuer:   token.Issuer(),
		Audience: token.Audience(),
		Expiry:   token.Expiration(),
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: token missing subject claim", ErrInvalidToken)
	}

	if email, ok := token.Get("email"); ok {
		if emailStr, ok := email.(string); ok {
			claims.Email = emailStr
		}
	}
	if name, ok := token.Get("name"); ok {
		if nameStr, ok := name.(string); ok {
			claims.Name = nameStr
		}
	}

	return claims, nil
}

func (v *Verifier) parse(tokenString string, keys jwk.Set) (jwt.Token, error) {
	opts := []jwt.ParseOption{
		jwt.WithKeySet(keys),
		jwt.WithValidate(true),
		jwt.WithIssuer(v.issuer),
		jwt.WithAcceptableSkew(v.skew),
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}
	return jwt.Parse([]byte(tokenString), opts...)
}
