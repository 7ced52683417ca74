package commands

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/duongtruongbinh/life-os/internal/config"
	"github.com/duongtruongbinh/life-os/internal/services/oidc"
)

// NewOIDCCmd creates the oidc command
func NewOIDCCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "oidc",
		Short: "Identity provider checks",
	}

	var token string
	check := &cobra.Command{
		Use:   "check",
		Short: "Fetch the signing keys and optionally verify a token",
		Long:  "Fetch the JWKS the server will use. With --token, verify it the way the API does.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if err := cfg.RequireIssuer(); err != nil {
				return err
			}
			return checkOIDC(cmd, cfg, token)
		},
	}
	check.Flags().StringVar(&token, "token", "", "Access token to verify")
	cmd.AddCommand(check)
	return cmd
}

func checkOIDC(cmd *cobra.Command, cfg *config.Config, token string) error {
	out := cmd.OutOrStdout()
	jwksURL := cfg.OIDCJWKSURL
	if jwksURL == "" {
		jwksURL = oidc.DefaultJWKSURL(cfg.OIDCIssuer)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
	defer cancel()

	manager := oidc.NewJWKSManager(&http.Client{Timeout: 10 * time.Second})
	keys, _, err := manager.GetJWKS(ctx, jwksURL)
	if err != nil {
		return fmt.Errorf("failed to fetch JWKS from %s: %w", jwksURL, err)
	}
	fmt.Fprintf(out, "Issuer:   %s\nJWKS URL: %s\nKeys:     %d\n", cfg.OIDCIssuer, jwksURL, keys.Len())

	if token == "" {
		return nil
	}
	claims, err := oidc.NewVerifier(manager, cfg.OIDCIssuer, jwksURL, cfg.OIDCAudience).Verify(ctx, token)
	if err != nil {
		return fmt.Errorf("token rejected: %w", err)
	}
	fmt.Fprintf(out, "Token OK: subject=%s email=%s expires=%s\n",
		claims.Subject, claims.Email, claims.Expiry.Format(time.RFC3339))
	return nil
}
