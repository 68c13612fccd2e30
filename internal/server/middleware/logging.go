package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"talentgrid/backend/internal/audit"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// RequestLog logs one line per request with portal, action, status, and
// duration.
func RequestLog(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			pa := audit.ParsePath(r.URL.Path)
			log.InfoContext(r.Context(), "request",
				"method", r.Method,
				"path", r.URL.Path,
				"portal", pa.Portal,
				"action", pa.Action,
				"status", rec.status,
				"duration", time.Since(start),
				"ip", ClientIP(r.Context()),
			)
		})
	}
}
