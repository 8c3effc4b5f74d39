package middleware

import (
	"net/http"
	"quota-api/internal/logger"
	"quota-api/internal/services"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// responseWriter is a wrapper around http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(status int) {
	rw.status = status
	rw.ResponseWriter.WriteHeader(status)
}

// RequestLogger emits one structured log line per request with a generated
// request id, the resolved user (when present), status, and latency.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{
			ResponseWriter: w,
			status:         http.StatusOK,
		}

		next.ServeHTTP(rw, r)

		fields := logrus.Fields{
			"request_id":  uuid.NewString(),
			"method":      r.Method,
			"path":        r.URL.Path,
			"status_code": rw.status,
			"duration_ms": time.Since(start).Milliseconds(),
			"ip":          r.RemoteAddr,
		}
		if user, ok := services.UserFromContext(r.Context()); ok {
			fields["user_id"] = user.ID
		}

		level := logrus.InfoLevel
		if rw.status >= 500 {
			level = logrus.ErrorLevel
		}
		logger.LogEvent(level, "request handled", fields)
	})
}
