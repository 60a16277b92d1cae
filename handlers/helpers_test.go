package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/campuslink/campuslink-server/internal/catalog"
	"github.com/campuslink/campuslink-server/internal/config"
	"github.com/campuslink/campuslink-server/internal/forum"
	"github.com/campuslink/campuslink-server/internal/models"
	"github.com/campuslink/campuslink-server/internal/response"
	"github.com/campuslink/campuslink-server/internal/tokens"
	"github.com/campuslink/campuslink-server/internal/users"
	"github.com/campuslink/campuslink-server/pkg/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testServer wires the full route tree against in-memory repositories.
type testServer struct {
	router *gin.Engine
	issuer *tokens.Issuer
	users  *users.MemoryRepository
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := &config.Config{}
	cfg.Auth.TokenSecret = "test-secret"
	cfg.Auth.TokenTTL = time.Hour

	issuer := tokens.NewIssuer(cfg.Auth.TokenSecret, cfg.Auth.TokenTTL)
	userRepo := users.NewMemoryRepository()
	uniRepo := catalog.NewMemoryUniversityRepository()
	majorRepo := catalog.NewMemoryMajorRepository()
	postRepo := forum.NewMemoryRepository()

	userSvc := users.NewService(userRepo)
	catalogSvc := catalog.NewService(uniRepo, majorRepo)
	forumSvc := forum.NewService(postRepo, userRepo, uniRepo)

	authed := middleware.Auth(issuer, userRepo)
	optional := middleware.OptionalAuth(issuer, userRepo)
	admin := middleware.RequireAdmin()

	r := gin.New()
	api := r.Group("/api")
	NewAuthHandler(cfg, userSvc, issuer).Register(api, authed)
	NewUsersHandler(userSvc).Register(api, authed, optional, admin)
	NewPostsHandler(forumSvc).Register(api, authed, optional)
	NewUniversitiesHandler(catalogSvc).Register(api, authed, admin)
	NewMajorsHandler(catalogSvc).Register(api, authed, admin)

	return &testServer{router: r, issuer: issuer, users: userRepo}
}

// do performs a JSON request, optionally authenticated, and decodes the
// envelope.
func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (int, response.Envelope) {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), "body: %s", w.Body.String())
	return w.Code, env
}

// register creates an account through the API and returns its token.
func (s *testServer) register(t *testing.T, username, email, password string) string {
	t.Helper()
	code, env := s.do(t, "POST", "/api/auth/register", "", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	})
	require.Equal(t, 201, code, env.Message)
	data := env.Data.(map[string]interface{})
	return data["token"].(string)
}

// registerAdmin creates an account and promotes it directly in the store.
func (s *testServer) registerAdmin(t *testing.T, username, email string) string {
	t.Helper()
	tok := s.register(t, username, email, "password123")
	u, err := s.users.GetByUsername(context.Background(), username)
	require.NoError(t, err)
	_, err = s.users.SetRole(context.Background(), u.ID, models.RoleAdmin)
	require.NoError(t, err)
	return tok
}

func dataField(t *testing.T, env response.Envelope, key string) interface{} {
	t.Helper()
	data, ok := env.Data.(map[string]interface{})
	require.True(t, ok, "data is not an object: %#v", env.Data)
	return data[key]
}
