package telemetry

import "net/http"

// SpanName names a server span by method and route template, so
// /api/v1/logs/2026-03-10 and /api/v1/logs/2026-03-11 share one name.
func SpanName(route string, r *http.Request) string {
	if route == "" {
		return r.Method
	}
	return r.Method + " " + route
}
