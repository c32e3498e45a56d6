// Package admin guards routes reserved for administrators, such as audit-log
// retention purges.
package admin

import (
	"context"
	"log/slog"
	"net/http"

	id "stewardship/pkg/domain"
	"stewardship/pkg/requestcontext"
)

// Checker reports whether an actor is an administrator.
type Checker interface {
	IsAdmin(ctx context.Context, actorID id.ActorID) (bool, error)
}

// RequireAdmin must be mounted after auth.RequireAuth.
func RequireAdmin(checker Checker, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			actorID := requestcontext.ActorID(ctx)
			requestID := requestcontext.RequestID(ctx)

			ok, err := checker.IsAdmin(ctx, actorID)
			if err != nil {
				logger.ErrorContext(ctx, "admin check failed",
					"error", err,
					"request_id", requestID,
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"error":"internal_error"}`)) //nolint:errcheck // headers already sent
				return
			}
			if !ok {
				logger.WarnContext(ctx, "admin route denied",
					"actor_id", actorID.String(),
					"request_id", requestID,
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"forbidden","error_description":"administrator role required"}`)) //nolint:errcheck // headers already sent
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
