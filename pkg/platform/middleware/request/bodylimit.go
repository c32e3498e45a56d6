package request

import (
	"net/http"

	"stewardship/pkg/platform/httputil"
)

// BodyLimit rejects a declared Content-Length above maxBytes outright and
// caps undeclared bodies with http.MaxBytesReader.
func BodyLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				httputil.WriteJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "payload_too_large"})
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
