package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service,Records

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"stewardship/internal/record/models"
	"stewardship/internal/responsibility/handler/mocks"
	responsibilityservice "stewardship/internal/responsibility/service"
	id "stewardship/pkg/domain"
	dErrors "stewardship/pkg/domain-errors"
	"stewardship/pkg/requestcontext"
	"stewardship/pkg/testutil"
)

type ResponsibilityHandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	records *mocks.MockRecords
	router  chi.Router
	record  *models.Record
}

func TestResponsibilityHandlerSuite(t *testing.T) {
	suite.Run(t, new(ResponsibilityHandlerSuite))
}

func (s *ResponsibilityHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)
	s.records = mocks.NewMockRecords(ctrl)
	h := New(s.service, s.records, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.router = chi.NewRouter()
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := requestcontext.WithActorID(r.Context(), testutil.TestIDs.ActorID3)
			ctx = requestcontext.WithTime(ctx, testutil.FixedNow)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})
	h.Register(s.router)
	s.record = testutil.NewRecordBuilder().
		ResponsibleActors([]id.ActorID{testutil.TestIDs.ActorID2}, []id.ActorID{testutil.TestIDs.ActorID3}).
		ResponsibleUntil(testutil.FixedNow.Add(-time.Hour)).
		Build()
}

func (s *ResponsibilityHandlerSuite) do(method, target string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *ResponsibilityHandlerSuite) path(suffix string) string {
	return "/records/" + s.record.ID.String() + "/responsibility" + suffix
}

func (s *ResponsibilityHandlerSuite) errorCode(w *httptest.ResponseRecorder) string {
	var body map[string]string
	s.Require().NoError(json.NewDecoder(w.Body).Decode(&body))
	return body["error"]
}

func (s *ResponsibilityHandlerSuite) TestGet() {
	s.records.EXPECT().Get(gomock.Any(), s.record.ID).Return(s.record, nil)
	s.service.EXPECT().CanDelegate(gomock.Any(), s.record, testutil.TestIDs.ActorID3).Return(true, nil)

	w := s.do(http.MethodGet, s.path("/"), nil)

	s.Require().Equal(http.StatusOK, w.Code)
	var res ResponsibilityResponse
	s.Require().NoError(json.NewDecoder(w.Body).Decode(&res))
	s.Equal([]id.ActorID{testutil.TestIDs.ActorID2}, res.Primary)
	s.Equal(1, res.SecondaryCount)
	s.True(res.IsExpired)
	s.False(res.IsActive)
	s.True(res.ResponsibleMe)
	s.True(*res.CanDelegate)
}

func (s *ResponsibilityHandlerSuite) TestAssign() {
	actor := id.ActorID(uuid.New())
	end := testutil.FixedNow.Add(24 * time.Hour)
	s.service.EXPECT().Assign(gomock.Any(), s.record.ID, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ id.RecordID, cmd responsibilityservice.AssignCommand) (*models.Record, error) {
			s.Equal([]id.ActorID{actor}, cmd.Actors)
			s.Require().NotNil(cmd.End)
			s.True(end.Equal(*cmd.End))
			s.Equal("on call", cmd.Description)
			return s.record, nil
		})

	w := s.do(http.MethodPost, s.path("/assign"), AssignRequest{Actors: []string{actor.String()}, End: &end, Description: "on call"})

	s.Equal(http.StatusOK, w.Code)
}

func (s *ResponsibilityHandlerSuite) TestReplaceRoutes() {
	actor := id.ActorID(uuid.New())
	actors := []id.ActorID{actor}

	s.service.EXPECT().AssignSecondary(gomock.Any(), s.record.ID, actors, "backup").Return(s.record, nil)
	s.Equal(http.StatusOK, s.do(http.MethodPost, s.path("/assign-secondary"), ChangeRequest{Actors: []string{actor.String()}, Reason: "backup"}).Code)

	s.service.EXPECT().Delegate(gomock.Any(), s.record.ID, models.TierPrimary, actors, "").Return(s.record, nil)
	s.Equal(http.StatusOK, s.do(http.MethodPost, s.path("/delegate"), ChangeRequest{Actors: []string{actor.String()}}).Code)

	s.service.EXPECT().Transfer(gomock.Any(), s.record.ID, models.TierSecondary, actors, "").Return(s.record, nil)
	s.Equal(http.StatusOK, s.do(http.MethodPost, s.path("/transfer"), ChangeRequest{Actors: []string{actor.String()}, Tier: "Secondary"}).Code)

	w := s.do(http.MethodPost, s.path("/delegate"), ChangeRequest{Actors: []string{actor.String()}, Tier: "tertiary"})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("validation_error", s.errorCode(w))
}

func (s *ResponsibilityHandlerSuite) TestEscalate() {
	target := id.ActorID(uuid.New())
	s.service.EXPECT().Escalate(gomock.Any(), s.record.ID, []id.ActorID{target}, "blocked").Return(s.record, nil)

	w := s.do(http.MethodPost, s.path("/escalate"), EscalateRequest{Targets: []string{target.String()}, Reason: "blocked"})
	s.Equal(http.StatusOK, w.Code)

	s.service.EXPECT().Escalate(gomock.Any(), s.record.ID, []id.ActorID{}, "").
		Return(nil, dErrors.New(dErrors.CodeInvalidState, "escalation requires exactly one target"))
	w = s.do(http.MethodPost, s.path("/escalate"), EscalateRequest{Targets: []string{}})
	s.Equal(http.StatusConflict, w.Code)
	s.Equal("invalid_state", s.errorCode(w))
}

func (s *ResponsibilityHandlerSuite) TestRevokeAllForbidden() {
	s.service.EXPECT().RevokeAll(gomock.Any(), s.record.ID, "").
		Return(nil, dErrors.New(dErrors.CodeForbidden, "you do not have permission to change responsibility for this record"))

	w := s.do(http.MethodPost, s.path("/revoke-all"), nil)

	s.Equal(http.StatusForbidden, w.Code)
}

func (s *ResponsibilityHandlerSuite) TestPerActorRoutes() {
	actor := id.ActorID(uuid.New())

	s.service.EXPECT().AddResponsible(gomock.Any(), s.record.ID, models.TierPrimary, actor, "").Return(s.record, nil)
	s.Equal(http.StatusOK, s.do(http.MethodPost, s.path("/responsibles/"+actor.String()), nil).Code)

	s.service.EXPECT().RemoveResponsible(gomock.Any(), s.record.ID, models.TierSecondary, actor, "rotated").Return(s.record, nil)
	s.Equal(http.StatusOK, s.do(http.MethodDelete, s.path("/responsibles/"+actor.String()+"?tier=secondary&reason=rotated"), nil).Code)

	w := s.do(http.MethodPost, s.path("/responsibles/"+actor.String()+"?tier=backup"), nil)
	s.Equal(http.StatusBadRequest, w.Code)
}
