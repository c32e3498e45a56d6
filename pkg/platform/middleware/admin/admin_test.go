package admin

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	id "stewardship/pkg/domain"
	"stewardship/pkg/requestcontext"
)

type stubChecker struct {
	admins map[id.ActorID]bool
	err    error
}

func (s stubChecker) IsAdmin(_ context.Context, actorID id.ActorID) (bool, error) {
	return s.admins[actorID], s.err
}

func TestRequireAdmin(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	admin := id.ActorID(uuid.New())
	member := id.ActorID(uuid.New())
	checker := stubChecker{admins: map[id.ActorID]bool{admin: true}}

	serve := func(c Checker, actor id.ActorID) int {
		h := RequireAdmin(c, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))
		req := httptest.NewRequest(http.MethodPost, "/audit/purge", nil)
		req = req.WithContext(requestcontext.WithActorID(req.Context(), actor))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusNoContent, serve(checker, admin))
	assert.Equal(t, http.StatusForbidden, serve(checker, member))
	assert.Equal(t, http.StatusInternalServerError, serve(stubChecker{err: errors.New("down")}, admin))
}
