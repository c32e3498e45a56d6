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
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"stewardship/internal/auditlog/handler/mocks"
	"stewardship/internal/auditlog/models"
	id "stewardship/pkg/domain"
	dErrors "stewardship/pkg/domain-errors"
)

type AuditHandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	router  chi.Router
}

func TestAuditHandlerSuite(t *testing.T) {
	suite.Run(t, new(AuditHandlerSuite))
}

func (s *AuditHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)
	h := New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.router = chi.NewRouter()
	h.Register(s.router)
	h.RegisterAdmin(s.router)
}

func (s *AuditHandlerSuite) do(method, target string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *AuditHandlerSuite) assertError(w *httptest.ResponseRecorder, status int, code string) {
	s.Equal(status, w.Code)
	var body map[string]string
	s.Require().NoError(json.NewDecoder(w.Body).Decode(&body))
	s.Equal(code, body["error"])
}

func entry() *models.Entry {
	return &models.Entry{
		ID:          id.EntryID(uuid.New()),
		Kind:        models.KindOwnership,
		TargetModel: "project.task",
		TargetID:    id.RecordID(uuid.New()),
		Action:      models.ActionTransfer,
		Timestamp:   time.Date(2025, 3, 14, 9, 26, 0, 0, time.UTC),
	}
}

func (s *AuditHandlerSuite) TestListParsesFilter() {
	e := entry()
	actor := id.ActorID(uuid.New())
	s.service.EXPECT().List(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ any, f models.Filter) ([]*models.Entry, error) {
			s.Equal([]models.Kind{models.KindOwnership, models.KindAccess}, f.Kinds)
			s.Require().NotNil(f.Actor)
			s.Equal(actor, *f.Actor)
			s.Require().NotNil(f.From)
			s.Equal(25, f.Limit)
			return []*models.Entry{e}, nil
		})
	s.service.EXPECT().Reference(gomock.Any(), e).Return("Fix login", nil)

	w := s.do(http.MethodGet, "/audit?kind=ownership,access&actor="+actor.String()+"&from=2025-01-01&limit=25", nil)

	s.Require().Equal(http.StatusOK, w.Code)
	var res ListResponse
	s.Require().NoError(json.NewDecoder(w.Body).Decode(&res))
	s.Require().Equal(1, res.Count)
	s.Equal("Fix login", res.Entries[0].Reference)
	s.Equal("project.task "+e.TargetID.String()+" - Transfer (2025-03-14 09:26)", res.Entries[0].Label)
}

func (s *AuditHandlerSuite) TestListRejectsBadFilters() {
	for _, target := range []string{
		"/audit?kind=billing",
		"/audit?record=not-a-uuid",
		"/audit?from=yesterday",
		"/audit?limit=0",
	} {
		w := s.do(http.MethodGet, target, nil)
		s.assertError(w, http.StatusBadRequest, "bad_request")
	}
}

func (s *AuditHandlerSuite) TestGetUnknownEntry() {
	s.service.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, dErrors.New(dErrors.CodeNotFound, "log entry not found"))
	w := s.do(http.MethodGet, "/audit/"+uuid.NewString(), nil)
	s.assertError(w, http.StatusNotFound, "not_found")
}

func (s *AuditHandlerSuite) TestOpenDeletedRecord() {
	e := entry()
	s.service.EXPECT().Get(gomock.Any(), e.ID).Return(e, nil)
	s.service.EXPECT().OpenRecord(gomock.Any(), e).Return(nil, false)

	w := s.do(http.MethodGet, "/audit/"+e.ID.String()+"/open", nil)
	s.assertError(w, http.StatusNotFound, "not_found")
}

func (s *AuditHandlerSuite) TestPurge() {
	s.service.EXPECT().Purge(gomock.Any(), 30*24*time.Hour, models.KindAccess).Return(int64(7), nil)

	w := s.do(http.MethodPost, "/audit/purge", PurgeRequest{OlderThanDays: 30, Kinds: []string{" Access "}})

	s.Require().Equal(http.StatusOK, w.Code)
	var res PurgeResponse
	s.Require().NoError(json.NewDecoder(w.Body).Decode(&res))
	s.Equal(int64(7), res.Deleted)
}

func (s *AuditHandlerSuite) TestPurgeValidation() {
	w := s.do(http.MethodPost, "/audit/purge", PurgeRequest{OlderThanDays: 0})
	s.assertError(w, http.StatusBadRequest, "validation_error")

	w = s.do(http.MethodPost, "/audit/purge", PurgeRequest{OlderThanDays: 5, Kinds: []string{"billing"}})
	s.assertError(w, http.StatusBadRequest, "validation_error")
}
