package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/cors"
)

// ParseOrigins splits a comma-separated origin list, dropping blanks and
// trailing slashes.
func ParseOrigins(raw string) []string {
	var out []string
	for _, o := range strings.Split(raw, ",") {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o != "" {
			out = append(out, o)
		}
	}
	return out
}

// CORS allows browser clients from origins. An empty list allows none.
func CORS(origins []string) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "Accept", "X-Client-Date"},
		AllowCredentials: true,
		MaxAge:           3600,
	})
	return c.Handler
}
