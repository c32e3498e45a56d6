package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service,Records

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"stewardship/internal/ownership/handler/mocks"
	"stewardship/internal/record/models"
	id "stewardship/pkg/domain"
	dErrors "stewardship/pkg/domain-errors"
	"stewardship/pkg/testutil"
)

type OwnershipHandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	records *mocks.MockRecords
	router  chi.Router
	record  *models.Record
}

func TestOwnershipHandlerSuite(t *testing.T) {
	suite.Run(t, new(OwnershipHandlerSuite))
}

func (s *OwnershipHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)
	s.records = mocks.NewMockRecords(ctrl)
	h := New(s.service, s.records, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.router = chi.NewRouter()
	h.Register(s.router)
	s.record = testutil.NewRecordBuilder().Build()
}

func (s *OwnershipHandlerSuite) do(method, target string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *OwnershipHandlerSuite) path(suffix string) string {
	return "/records/" + s.record.ID.String() + "/ownership" + suffix
}

func (s *OwnershipHandlerSuite) errorCode(w *httptest.ResponseRecorder) string {
	var body map[string]string
	s.Require().NoError(json.NewDecoder(w.Body).Decode(&body))
	return body["error"]
}

func (s *OwnershipHandlerSuite) TestGet() {
	s.records.EXPECT().Get(gomock.Any(), s.record.ID).Return(s.record, nil)

	w := s.do(http.MethodGet, s.path("/"), nil)

	s.Require().Equal(http.StatusOK, w.Code)
	var res OwnershipResponse
	s.Require().NoError(json.NewDecoder(w.Body).Decode(&res))
	s.True(res.IsOwned)
	s.Equal(testutil.TestIDs.ActorID1, *res.Owner)
}

func (s *OwnershipHandlerSuite) TestTransfer() {
	newOwner := testutil.TestIDs.ActorID2
	s.service.EXPECT().Transfer(gomock.Any(), s.record.ID, newOwner, "handover").Return(s.record, nil)

	w := s.do(http.MethodPost, s.path("/transfer"), TransferRequest{NewOwner: newOwner.String(), Reason: " handover "})

	s.Equal(http.StatusOK, w.Code)
}

func (s *OwnershipHandlerSuite) TestTransferValidation() {
	w := s.do(http.MethodPost, s.path("/transfer"), TransferRequest{NewOwner: "someone"})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("validation_error", s.errorCode(w))
}

func (s *OwnershipHandlerSuite) TestClaimWithoutBody() {
	s.service.EXPECT().Claim(gomock.Any(), s.record.ID, "").
		Return(nil, dErrors.New(dErrors.CodeInvalidState, "record already has an owner"))

	w := s.do(http.MethodPost, s.path("/claim"), nil)

	s.Equal(http.StatusConflict, w.Code)
	s.Equal("invalid_state", s.errorCode(w))
}

func (s *OwnershipHandlerSuite) TestReleaseForbidden() {
	s.service.EXPECT().Release(gomock.Any(), s.record.ID, "done").
		Return(nil, dErrors.New(dErrors.CodeForbidden, "only the owner or an administrator can release ownership"))

	w := s.do(http.MethodPost, s.path("/release"), ReasonRequest{Reason: "done"})

	s.Equal(http.StatusForbidden, w.Code)
}

func (s *OwnershipHandlerSuite) TestAddCoOwnersRoutesBySize() {
	one := id.ActorID(uuid.New())
	two := id.ActorID(uuid.New())

	s.service.EXPECT().AddCoOwner(gomock.Any(), s.record.ID, one, "").Return(s.record, nil)
	w := s.do(http.MethodPost, s.path("/co-owners"), CoOwnersRequest{Actors: []string{one.String()}})
	s.Equal(http.StatusOK, w.Code)

	s.service.EXPECT().AddCoOwners(gomock.Any(), s.record.ID, []id.ActorID{one, two}, "").Return(s.record, nil)
	w = s.do(http.MethodPost, s.path("/co-owners"), CoOwnersRequest{Actors: []string{one.String(), two.String()}})
	s.Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodPost, s.path("/co-owners"), CoOwnersRequest{})
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *OwnershipHandlerSuite) TestRemoveCoOwner() {
	actor := id.ActorID(uuid.New())
	s.service.EXPECT().RemoveCoOwner(gomock.Any(), s.record.ID, actor, "left").Return(s.record, nil)

	w := s.do(http.MethodDelete, s.path("/co-owners/"+actor.String()+"?reason=left"), nil)
	s.Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodDelete, s.path("/co-owners/nope"), nil)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *OwnershipHandlerSuite) TestRemoveAllCoOwners() {
	s.service.EXPECT().RemoveAllCoOwners(gomock.Any(), s.record.ID, "").Return(s.record, nil)

	w := s.do(http.MethodDelete, s.path("/co-owners"), nil)

	s.Equal(http.StatusOK, w.Code)
}
