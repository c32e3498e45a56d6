// Package auth resolves the acting principal from a bearer token.
package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	id "stewardship/pkg/domain"
	"stewardship/pkg/platform/httputil"
	"stewardship/pkg/requestcontext"
)

type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

type JWTClaims struct {
	ActorID string
	JTI     string
}

var errMissingToken = errors.New("missing bearer token")

// RequireAuth answers 401 unless the request carries a valid token whose
// subject parses as an actor ID. The actor is stored on the context.
func RequireAuth(validator JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			actorID, err := authenticate(validator, r.Header.Get("Authorization"))
			if err != nil {
				logger.WarnContext(ctx, "request not authenticated",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				desc := "Invalid or expired token"
				if errors.Is(err, errMissingToken) {
					desc = "Missing or invalid Authorization header"
				}
				httputil.WriteJSON(w, http.StatusUnauthorized, map[string]string{
					"error":             "unauthorized",
					"error_description": desc,
				})
				return
			}
			next.ServeHTTP(w, r.WithContext(requestcontext.WithActorID(ctx, actorID)))
		})
	}
}

func authenticate(validator JWTValidator, header string) (id.ActorID, error) {
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return id.ActorID{}, errMissingToken
	}
	claims, err := validator.ValidateToken(token)
	if err != nil {
		return id.ActorID{}, err
	}
	return id.ParseActorID(claims.ActorID)
}
