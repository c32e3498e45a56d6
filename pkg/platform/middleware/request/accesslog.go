package request

import (
	"log/slog"
	"net/http"
	"time"

	"stewardship/pkg/platform/clientinfo"
	"stewardship/pkg/requestcontext"
)

// statusRecorder remembers the status a handler wrote.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func record(w http.ResponseWriter, r *http.Request, next http.Handler) (int, time.Duration) {
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	start := time.Now()
	next.ServeHTTP(rec, r)
	return rec.status, time.Since(start)
}

// Logger writes an access log line per request. Successful health probes
// are skipped.
func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			status, took := record(w, r, next)
			if r.URL.Path == "/health" && status < http.StatusInternalServerError {
				return
			}
			ctx := r.Context()
			logger.InfoContext(ctx, "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"duration_ms", took.Milliseconds(),
				"request_id", requestcontext.RequestID(ctx),
				"remote_addr_prefix", clientinfo.AnonymizeIP(requestcontext.ClientIP(ctx)),
			)
		})
	}
}

// Latency observes request durations into m, labelled by route pattern when
// route is given. A nil m disables observation.
func Latency(m *Metrics, route func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			status, took := record(w, r, next)
			name := r.URL.Path
			if route != nil {
				name = route(r)
			}
			m.ObserveRequest(r.Method, name, status, took.Seconds())
		})
	}
}
