package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"hr-insights-go/internal/metrics"
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

		status := strconv.Itoa(wrapped.statusCode)
		recordHTTPRequest(r.Method, normalizeEndpoint(r.URL.Path), status, time.Since(start))
	})
}

// normalizeEndpoint folds dataset names out of the path to keep label cardinality fixed.
func normalizeEndpoint(path string) string {
	for _, prefix := range []string{"/api/chat/", "/api/stats/", "/api/context/"} {
		if strings.HasPrefix(path, prefix) && !strings.Contains(path[len(prefix):], "/") {
			return prefix + ":dataset"
		}
	}
	switch path {
	case "/api/chat", "/api/datasets", "/healthz", "/metrics":
		return path
	}
	return "other"
}
