// Package middleware provides HTTP middleware for metrics collection and
// request correlation.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/nadmax/taskpulse/internal/metrics"
)

var recordHTTPRequest = metrics.RecordHTTPRequest

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start)
		endpoint := normalizeEndpoint(r.URL.Path)
		status := strconv.Itoa(wrapped.statusCode)

		recordHTTPRequest(r.Method, endpoint, status, duration)
	})
}

var knownEndpoints = map[string]bool{
	"/api/agent/schedule":           true,
	"/api/agent/productivity-score": true,
	"/api/agent/burnout-score":      true,
	"/api/agent/estimate":           true,
	"/api/agent/coach":              true,
	"/health":                       true,
	"/metrics":                      true,
}

// normalizeEndpoint keeps the label set bounded: unrouted paths share one
// label per prefix.
func normalizeEndpoint(path string) string {
	path = strings.TrimSuffix(path, "/")
	switch {
	case knownEndpoints[path]:
		return path
	case strings.HasPrefix(path, "/api/agent/"):
		return "/api/agent/:unknown"
	default:
		return "other"
	}
}
