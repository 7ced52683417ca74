package main

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"

	"github.com/duongtruongbinh/life-os/internal/handlers"
	"github.com/duongtruongbinh/life-os/internal/middleware"
	"github.com/duongtruongbinh/life-os/internal/services/oidc"
	"github.com/duongtruongbinh/life-os/internal/telemetry"
)

type routerDeps struct {
	tracker    *handlers.TrackerHandler
	auth       *handlers.AuthHandler
	health     *handlers.HealthChecker
	verifier   oidc.TokenVerifier
	users      middleware.UserUpserter
	rateLimit  func(http.Handler) http.Handler
	origins    []string
	enableHSTS bool
	tracing    bool
	logger     *zap.Logger
}

// newRouter wires the middleware chain. gorilla/mux runs router middleware in
// registration order, outermost first, and only for matched routes; CORS wraps
// the whole router so preflights never reach route matching.
func newRouter(d routerDeps) http.Handler {
	r := mux.NewRouter()

	if d.tracing {
		r.Use(otelmux.Middleware(serviceName, otelmux.WithSpanNameFormatter(telemetry.SpanName)))
	}
	r.Use(middleware.SecurityHeaders(d.enableHSTS))
	r.Use(middleware.Logging(d.logger))
	r.Use(middleware.ErrorHandler(d.logger))
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize))
	r.Use(middleware.ContentType)
	r.Use(middleware.Timeout(middleware.DefaultRequestTimeout))

	r.HandleFunc("/healthz", d.health.HealthCheck).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Auth(d.verifier, d.users, d.logger))
	if d.rateLimit != nil {
		api.Use(d.rateLimit)
	}
	d.tracker.RegisterRoutes(api)
	d.auth.RegisterRoutes(api.PathPrefix("/auth").Subrouter())

	return middleware.CORS(d.origins)(r)
}
