package auth

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	id "stewardship/pkg/domain"
	"stewardship/pkg/requestcontext"
)

type MockJWTValidator struct {
	mock.Mock
}

func (m *MockJWTValidator) ValidateToken(tokenString string) (*JWTClaims, error) {
	args := m.Called(tokenString)
	if claims := args.Get(0); claims != nil {
		return claims.(*JWTClaims), args.Error(1)
	}
	return nil, args.Error(1)
}

type RequireAuthSuite struct {
	suite.Suite
	validator *MockJWTValidator
	logger    *slog.Logger
}

func (s *RequireAuthSuite) SetupTest() {
	s.validator = new(MockJWTValidator)
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRequireAuthSuite(t *testing.T) {
	suite.Run(t, new(RequireAuthSuite))
}

func (s *RequireAuthSuite) serve(header string) (*httptest.ResponseRecorder, id.ActorID, bool) {
	var actor id.ActorID
	called := false
	handler := RequireAuth(s.validator, s.logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		actor = requestcontext.ActorID(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/records", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w, actor, called
}

func (s *RequireAuthSuite) TestValidTokenSetsActor() {
	actor := uuid.New()
	s.validator.On("ValidateToken", "good").Return(&JWTClaims{ActorID: actor.String()}, nil)

	w, got, called := s.serve("Bearer good")

	s.True(called)
	s.Equal(http.StatusOK, w.Code)
	s.Equal(id.ActorID(actor), got)
}

func (s *RequireAuthSuite) TestMissingHeader() {
	w, _, called := s.serve("")
	s.False(called)
	s.Equal(http.StatusUnauthorized, w.Code)
	s.validator.AssertNotCalled(s.T(), "ValidateToken", mock.Anything)
}

func (s *RequireAuthSuite) TestWrongScheme() {
	w, _, called := s.serve("Basic abc")
	s.False(called)
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *RequireAuthSuite) TestInvalidToken() {
	s.validator.On("ValidateToken", "bad").Return(nil, errors.New("invalid token"))
	w, _, called := s.serve("Bearer bad")
	s.False(called)
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *RequireAuthSuite) TestMalformedActorClaim() {
	s.validator.On("ValidateToken", "odd").Return(&JWTClaims{ActorID: "not-a-uuid"}, nil)
	w, _, called := s.serve("Bearer odd")
	s.False(called)
	s.Equal(http.StatusUnauthorized, w.Code)
}
