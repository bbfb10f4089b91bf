package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/globely/globely-api/internal/core/service"
	"github.com/globely/globely-api/internal/infrastructure/db/memory"
	"github.com/globely/globely-api/internal/infrastructure/http/handlers"
	"github.com/globely/globely-api/internal/infrastructure/token"
)

type routerSuite struct {
	suite.Suite
	e *echo.Echo
}

func TestRouter(t *testing.T) {
	suite.Run(t, new(routerSuite))
}

func (s *routerSuite) SetupTest() {
	s.e = newTestRouter(s.T(), 0)
}

func newTestRouter(t *testing.T, authRateLimit int) *echo.Echo {
	t.Helper()

	repo := memory.NewUserRepository()
	codec, err := token.NewCodec("test-secret", time.Hour)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	e, err := NewRouter(Deps{
		Accounts:      service.NewAccountService(repo, codec, zerolog.Nop()),
		Favorites:     service.NewFavoriteService(repo, zerolog.Nop()),
		Tokens:        codec,
		Readiness:     map[string]handlers.CheckFunc{"store": repo.Ping},
		Registerer:    reg,
		Gatherer:      reg,
		CORSOrigins:   []string{"http://localhost:5173"},
		AuthRateLimit: authRateLimit,
		Log:           zerolog.Nop(),
	})
	require.NoError(t, err)
	return e
}

func (s *routerSuite) do(method, path, body, bearer string) (*httptest.ResponseRecorder, map[string]any) {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	var out map[string]any
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func (s *routerSuite) register(username, email, password string) string {
	rec, body := s.do(http.MethodPost, "/api/users/register",
		`{"username":"`+username+`","email":"`+email+`","password":"`+password+`"}`, "")
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	tok, _ := body["token"].(string)
	s.Require().NotEmpty(tok)
	return tok
}

func (s *routerSuite) TestGreeting() {
	rec, _ := s.do(http.MethodGet, "/", "", "")
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "Globely")
}

func (s *routerSuite) TestRegisterAndProfile() {
	tok := s.register("alice", "alice@example.com", "secret1")

	rec, body := s.do(http.MethodGet, "/api/users/me", "", tok)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal("alice", body["username"])
	s.Equal("alice@example.com", body["email"])
	s.NotContains(body, "passwordHash")
	s.NotContains(body, "password")
	s.Equal([]any{}, body["favorites"])

	rec, body = s.do(http.MethodGet, "/api/users/me", "", "")
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Equal(false, body["success"])
	s.Equal("no token provided", body["message"])

	rec, body = s.do(http.MethodGet, "/api/users/me", "", "forged.token.value")
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Equal("invalid token", body["message"])
}

func (s *routerSuite) TestRegisterResponseShape() {
	rec, body := s.do(http.MethodPost, "/api/users/register",
		`{"username":"alice","email":"alice@example.com","password":"secret1"}`, "")
	s.Require().Equal(http.StatusCreated, rec.Code)
	s.Equal(true, body["success"])

	user, ok := body["user"].(map[string]any)
	s.Require().True(ok)
	s.Len(user["id"], 24)
	s.Equal("alice", user["username"])
	s.Equal("alice@example.com", user["email"])
	s.Len(user, 3)
}

func (s *routerSuite) TestRegisterTwice() {
	s.register("alice", "alice@example.com", "secret1")

	rec, body := s.do(http.MethodPost, "/api/users/register",
		`{"username":"alice2","email":"ALICE@example.com","password":"other"}`, "")
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal(false, body["success"])
	s.Equal("user already exists", body["message"])
}

func (s *routerSuite) TestRegisterValidation() {
	rec, body := s.do(http.MethodPost, "/api/users/register", `{"username":"alice"}`, "")
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal(false, body["success"])
	s.Contains(body["message"], "email is required")

	rec, body = s.do(http.MethodPost, "/api/users/register", `not json`, "")
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("invalid payload", body["message"])
}

func (s *routerSuite) TestRegisterPasswordTooLong() {
	long := strings.Repeat("p", 73)
	rec, body := s.do(http.MethodPost, "/api/users/register",
		`{"username":"alice","email":"alice@example.com","password":"`+long+`"}`, "")
	s.Equal(http.StatusBadRequest, rec.Code, rec.Body.String())
	s.Equal(false, body["success"])
	s.Equal("password must be at most 72 bytes", body["message"])

	rec, _ = s.do(http.MethodPost, "/api/users/register",
		`{"username":"alice","email":"alice@example.com","password":"`+long[:72]+`"}`, "")
	s.Equal(http.StatusCreated, rec.Code, rec.Body.String())
}

func (s *routerSuite) TestRegisterBlankUsername() {
	rec, body := s.do(http.MethodPost, "/api/users/register",
		`{"username":"   ","email":"alice@example.com","password":"secret1"}`, "")
	s.Equal(http.StatusBadRequest, rec.Code, rec.Body.String())
	s.Equal(false, body["success"])
}

func (s *routerSuite) TestLoginFailuresLookTheSame() {
	s.register("alice", "alice@example.com", "secret1")

	recWrong, wrong := s.do(http.MethodPost, "/api/users/login", `{"email":"alice@example.com","password":"nope"}`, "")
	recGhost, ghost := s.do(http.MethodPost, "/api/users/login", `{"email":"ghost@example.com","password":"secret1"}`, "")

	s.Equal(http.StatusBadRequest, recWrong.Code)
	s.Equal(recWrong.Code, recGhost.Code)
	s.Equal(wrong, ghost)
	s.Equal("invalid credentials", wrong["message"])
}

func (s *routerSuite) TestLoginIssuesUsableToken() {
	s.register("alice", "alice@example.com", "secret1")

	rec, body := s.do(http.MethodPost, "/api/users/login", `{"email":"alice@example.com","password":"secret1"}`, "")
	s.Require().Equal(http.StatusOK, rec.Code)
	tok, _ := body["token"].(string)

	rec, _ = s.do(http.MethodGet, "/api/users/me", "", tok)
	s.Equal(http.StatusOK, rec.Code)
}

func (s *routerSuite) TestFavoritesLifecycle() {
	tok := s.register("alice", "alice@example.com", "secret1")

	rec, body := s.do(http.MethodPost, "/api/users/favorites", `{"cca3":"JPN","name":"Japan","flag":"jp.svg"}`, tok)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.Equal(true, body["success"])
	s.Equal("Country added to favorites", body["message"])

	rec, body = s.do(http.MethodGet, "/api/users/favorites", "", tok)
	s.Require().Equal(http.StatusOK, rec.Code)
	favs, _ := body["favorites"].([]any)
	s.Require().Len(favs, 1)
	s.Equal(map[string]any{"cca3": "JPN", "name": "Japan", "flag": "jp.svg"}, favs[0])

	rec, body = s.do(http.MethodPost, "/api/users/favorites", `{"cca3":"JPN","name":"Japan","flag":"jp.svg"}`, tok)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("country already in favorites", body["message"])

	rec, _ = s.do(http.MethodGet, "/api/users/favorites", "", tok)
	s.Equal(http.StatusOK, rec.Code)

	rec, body = s.do(http.MethodDelete, "/api/users/favorites/JPN", "", tok)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal("Country removed from favorites", body["message"])

	rec, body = s.do(http.MethodGet, "/api/users/favorites", "", tok)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal([]any{}, body["favorites"])

	rec, body = s.do(http.MethodDelete, "/api/users/favorites/JPN", "", tok)
	s.Equal(http.StatusNotFound, rec.Code)
	s.Equal("country not found in favorites", body["message"])
}

func (s *routerSuite) TestFavoritesInsertionOrder() {
	tok := s.register("alice", "alice@example.com", "secret1")

	for _, code := range []string{"PER", "FRA", "JPN"} {
		rec, _ := s.do(http.MethodPost, "/api/users/favorites", `{"cca3":"`+code+`","name":"n","flag":"f"}`, tok)
		s.Require().Equal(http.StatusOK, rec.Code)
	}

	_, body := s.do(http.MethodGet, "/api/users/favorites", "", tok)
	favs, _ := body["favorites"].([]any)
	s.Require().Len(favs, 3)
	for i, code := range []string{"PER", "FRA", "JPN"} {
		s.Equal(code, favs[i].(map[string]any)["cca3"])
	}
}

func (s *routerSuite) TestFavoritesRequireAuth() {
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/users/favorites"},
		{http.MethodPost, "/api/users/favorites"},
		{http.MethodDelete, "/api/users/favorites/JPN"},
	} {
		rec, body := s.do(tc.method, tc.path, "", "")
		s.Equal(http.StatusUnauthorized, rec.Code, tc.path)
		s.Equal(false, body["success"])
	}
}

func (s *routerSuite) TestFavoritesValidation() {
	tok := s.register("alice", "alice@example.com", "secret1")

	rec, body := s.do(http.MethodPost, "/api/users/favorites", `{"name":"Japan","flag":"jp.svg"}`, tok)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Contains(body["message"], "cca3 is required")

	for _, payload := range []string{
		`{"cca3":"JPN","name":"  ","flag":"jp.svg"}`,
		`{"cca3":"JPN","name":"Japan","flag":"   "}`,
	} {
		rec, body = s.do(http.MethodPost, "/api/users/favorites", payload, tok)
		s.Equal(http.StatusBadRequest, rec.Code, payload)
		s.Equal(false, body["success"])
	}

	rec, body = s.do(http.MethodGet, "/api/users/favorites", "", tok)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal([]any{}, body["favorites"])
}

func (s *routerSuite) TestTokenForDeletedAccount() {
	codec, err := token.NewCodec("test-secret", time.Hour)
	s.Require().NoError(err)
	tok, err := codec.Issue("665f1c2e9b1e8a0012345678", "gone@example.com")
	s.Require().NoError(err)

	rec, body := s.do(http.MethodGet, "/api/users/me", "", tok)
	s.Equal(http.StatusNotFound, rec.Code)
	s.Equal("user not found", body["message"])

	rec, _ = s.do(http.MethodGet, "/api/users/favorites", "", tok)
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *routerSuite) TestUnknownRoute() {
	rec, body := s.do(http.MethodGet, "/api/nope", "", "")
	s.Equal(http.StatusNotFound, rec.Code)
	s.Equal(false, body["success"])
}

func (s *routerSuite) TestHealthAndMetrics() {
	rec, _ := s.do(http.MethodGet, "/health", "", "")
	s.Equal(http.StatusOK, rec.Code)

	rec, body := s.do(http.MethodGet, "/health/ready", "", "")
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("ok", body["status"])

	s.register("alice", "alice@example.com", "secret1")
	rec, _ = s.do(http.MethodGet, "/metrics", "", "")
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "globely_users_registered_total")
	s.Contains(rec.Body.String(), "globely_requests_total")
}

func (s *routerSuite) TestCORSPreflight() {
	req := httptest.NewRequest(http.MethodOptions, "/api/users/login", nil)
	req.Header.Set(echo.HeaderOrigin, "http://localhost:5173")
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodPost)
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	s.Equal(http.StatusNoContent, rec.Code)
	s.Equal("http://localhost:5173", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	s.Equal("true", rec.Header().Get(echo.HeaderAccessControlAllowCredentials))
}

func TestAuthRateLimit(t *testing.T) {
	e := newTestRouter(t, 2)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/users/login", strings.NewReader(`{"email":"a@example.com","password":"x"}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusBadRequest, http.StatusBadRequest, http.StatusTooManyRequests}, codes)
}

func TestNewRouter_WithoutMetrics(t *testing.T) {
	repo := memory.NewUserRepository()
	codec, err := token.NewCodec("secret", time.Hour)
	require.NoError(t, err)

	e, err := NewRouter(Deps{
		Accounts:  service.NewAccountService(repo, codec, zerolog.Nop()),
		Favorites: service.NewFavoriteService(repo, zerolog.Nop()),
		Tokens:    codec,
		Log:       zerolog.Nop(),
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReadinessReportsStoreFailure(t *testing.T) {
	repo := memory.NewUserRepository()
	codec, _ := token.NewCodec("secret", time.Hour)

	e, err := NewRouter(Deps{
		Accounts:  service.NewAccountService(repo, codec, zerolog.Nop()),
		Favorites: service.NewFavoriteService(repo, zerolog.Nop()),
		Tokens:    codec,
		Readiness: map[string]handlers.CheckFunc{
			"store": func(context.Context) error { return errors.New("down") },
		},
		Log: zerolog.Nop(),
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
