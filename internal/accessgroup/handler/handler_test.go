package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

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

	"stewardship/internal/accessgroup/handler/mocks"
	"stewardship/internal/accessgroup/models"
	"stewardship/internal/accessgroup/service"
	id "stewardship/pkg/domain"
	dErrors "stewardship/pkg/domain-errors"
	"stewardship/pkg/testutil"
)

type AccessGroupHandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	router  chi.Router
	group   *models.Group
}

func TestAccessGroupHandlerSuite(t *testing.T) {
	suite.Run(t, new(AccessGroupHandlerSuite))
}

func (s *AccessGroupHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)
	h := New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.router = chi.NewRouter()
	h.Register(s.router)
	s.group = &models.Group{
		ID:        testutil.TestIDs.CustomGroupID1,
		Name:      "Release crew",
		Type:      models.TypeGeneral,
		Members:   []id.ActorID{testutil.TestIDs.ActorID1, testutil.TestIDs.ActorID2},
		Managers:  []id.ActorID{testutil.TestIDs.ActorID1},
		Active:    true,
		CreatedBy: testutil.TestIDs.ActorID1,
	}
}

func (s *AccessGroupHandlerSuite) do(method, target string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *AccessGroupHandlerSuite) path(suffix string) string {
	return "/access-groups/" + s.group.ID.String() + suffix
}

func (s *AccessGroupHandlerSuite) assertError(w *httptest.ResponseRecorder, status int, code string) {
	s.T().Helper()
	s.Equal(status, w.Code)
	var body map[string]string
	s.Require().NoError(json.NewDecoder(w.Body).Decode(&body))
	s.Equal(code, body["error"])
}

func (s *AccessGroupHandlerSuite) TestCreate() {
	s.service.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ any, cmd service.CreateCommand) (*models.Group, error) {
			s.Equal("Release crew", cmd.Name)
			s.Equal(models.TypeTemporary, cmd.Type)
			s.Equal([]id.ActorID{testutil.TestIDs.ActorID2}, cmd.Members)
			return s.group, nil
		})

	w := s.do(http.MethodPost, "/access-groups", CreateRequest{
		Name:    " Release crew ",
		Type:    "Temporary",
		Members: []string{testutil.TestIDs.ActorID2.String()},
	})

	s.Require().Equal(http.StatusCreated, w.Code)
	var res map[string]any
	s.Require().NoError(json.NewDecoder(w.Body).Decode(&res))
	s.Equal("Release crew (2 users)", res["display_name"])
	s.Equal("Release crew", res["name"])
	s.EqualValues(2, res["member_count"])
}

func (s *AccessGroupHandlerSuite) TestCreateValidation() {
	w := s.do(http.MethodPost, "/access-groups", CreateRequest{Name: "Crew", Type: "club"})
	s.assertError(w, http.StatusBadRequest, "validation_error")

	w = s.do(http.MethodPost, "/access-groups", CreateRequest{Name: "Crew", Members: []string{"x"}})
	s.assertError(w, http.StatusBadRequest, "validation_error")
}

func (s *AccessGroupHandlerSuite) TestCreateConflict() {
	s.service.EXPECT().Create(gomock.Any(), gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeConflict, "an access group named Crew already exists"))

	w := s.do(http.MethodPost, "/access-groups", CreateRequest{Name: "Crew", Members: []string{uuid.NewString()}})
	s.assertError(w, http.StatusConflict, "conflict")
}

func (s *AccessGroupHandlerSuite) TestTemplates() {
	s.service.EXPECT().CreateProjectTeam(gomock.Any(), "Apollo", []id.ActorID{testutil.TestIDs.ActorID1}).Return(s.group, nil)
	w := s.do(http.MethodPost, "/access-groups/templates/project", TemplateRequest{Name: "Apollo", Members: []string{testutil.TestIDs.ActorID1.String()}})
	s.Equal(http.StatusCreated, w.Code)

	s.service.EXPECT().CreateDepartment(gomock.Any(), "Finance", []id.ActorID{testutil.TestIDs.ActorID1}).Return(s.group, nil)
	w = s.do(http.MethodPost, "/access-groups/templates/department", TemplateRequest{Name: "Finance", Members: []string{testutil.TestIDs.ActorID1.String()}})
	s.Equal(http.StatusCreated, w.Code)

	w = s.do(http.MethodPost, "/access-groups/templates/guild", TemplateRequest{Name: "x", Members: []string{testutil.TestIDs.ActorID1.String()}})
	s.assertError(w, http.StatusNotFound, "not_found")
}

func (s *AccessGroupHandlerSuite) TestListParsesFilter() {
	member := testutil.TestIDs.ActorID2
	s.service.EXPECT().List(gomock.Any(), models.Filter{ActiveOnly: true, Type: models.TypeProject, Member: &member}).
		Return([]*models.Group{s.group}, nil)

	w := s.do(http.MethodGet, "/access-groups?active=true&type=project&member="+member.String(), nil)

	s.Require().Equal(http.StatusOK, w.Code)
	var res ListResponse
	s.Require().NoError(json.NewDecoder(w.Body).Decode(&res))
	s.Equal(1, res.Count)

	w = s.do(http.MethodGet, "/access-groups?active=maybe", nil)
	s.assertError(w, http.StatusBadRequest, "bad_request")
}

func (s *AccessGroupHandlerSuite) TestGetUnknownGroup() {
	s.service.EXPECT().Get(gomock.Any(), s.group.ID).
		Return(nil, dErrors.New(dErrors.CodeInvalidReference, "custom group does not exist"))

	w := s.do(http.MethodGet, s.path(""), nil)
	s.assertError(w, http.StatusNotFound, "invalid_reference")
}

func (s *AccessGroupHandlerSuite) TestMembers() {
	actor := id.ActorID(uuid.New())
	s.service.EXPECT().AddMembers(gomock.Any(), s.group.ID, []id.ActorID{actor}, "joining").Return(s.group, nil)
	w := s.do(http.MethodPost, s.path("/members"), ActorsRequest{Actors: []string{actor.String()}, Reason: "joining"})
	s.Equal(http.StatusOK, w.Code)

	s.service.EXPECT().RemoveMembers(gomock.Any(), s.group.ID, []id.ActorID{actor}, "left").
		Return(nil, dErrors.New(dErrors.CodeInvalidState, "cannot remove every member of an active group"))
	w = s.do(http.MethodDelete, s.path("/members/"+actor.String()+"?reason=left"), nil)
	s.assertError(w, http.StatusConflict, "invalid_state")

	w = s.do(http.MethodPost, s.path("/members/remove"), ActorsRequest{})
	s.assertError(w, http.StatusBadRequest, "validation_error")
}

func (s *AccessGroupHandlerSuite) TestManagers() {
	actor := id.ActorID(uuid.New())
	s.service.EXPECT().AddManagers(gomock.Any(), s.group.ID, []id.ActorID{actor}).Return(s.group, nil)
	w := s.do(http.MethodPost, s.path("/managers"), ActorsRequest{Actors: []string{actor.String()}})
	s.Equal(http.StatusOK, w.Code)

	s.service.EXPECT().RemoveManagers(gomock.Any(), s.group.ID, []id.ActorID{actor}).
		Return(nil, dErrors.New(dErrors.CodeForbidden, "only the group's managers or an administrator can change it"))
	w = s.do(http.MethodDelete, s.path("/managers/"+actor.String()), nil)
	s.Equal(http.StatusForbidden, w.Code)
}

func (s *AccessGroupHandlerSuite) TestUpdateRejectsContradictoryExpiry() {
	now := testutil.FixedNow
	w := s.do(http.MethodPatch, s.path(""), UpdateRequest{ExpiresAt: &now, ClearExpiry: true})
	s.assertError(w, http.StatusBadRequest, "validation_error")
}

func (s *AccessGroupHandlerSuite) TestDuplicateArchiveReactivate() {
	s.service.EXPECT().Duplicate(gomock.Any(), s.group.ID, "Crew 2", true).Return(s.group, nil)
	w := s.do(http.MethodPost, s.path("/duplicate"), DuplicateRequest{Name: "Crew 2", WithMembers: true})
	s.Equal(http.StatusCreated, w.Code)

	s.service.EXPECT().Archive(gomock.Any(), s.group.ID, "").Return(s.group, nil)
	w = s.do(http.MethodPost, s.path("/archive"), nil)
	s.Equal(http.StatusOK, w.Code)

	s.service.EXPECT().Reactivate(gomock.Any(), s.group.ID).Return(s.group, nil)
	w = s.do(http.MethodPost, s.path("/reactivate"), nil)
	s.Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodPost, "/access-groups/not-a-uuid/archive", nil)
	s.assertError(w, http.StatusBadRequest, "bad_request")
}
