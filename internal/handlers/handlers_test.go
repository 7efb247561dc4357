package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/viewtube/viewtube-backend/internal/handlers"
	"github.com/viewtube/viewtube-backend/internal/models"
	"github.com/viewtube/viewtube-backend/internal/repository"
	"github.com/viewtube/viewtube-backend/internal/routes"
	"github.com/viewtube/viewtube-backend/internal/services"
	"github.com/viewtube/viewtube-backend/pkg/utils"
)

var errNotImplemented = errors.New("not implemented in stub")

// stubUsers holds a single user, enough for the auth round trips.
type stubUsers struct {
	user *models.User
}

func (s *stubUsers) Create(context.Context, *models.User) (primitive.ObjectID, error) {
	return primitive.NilObjectID, errNotImplemented
}

func (s *stubUsers) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	if s.user != nil && s.user.ID == id {
		copied := *s.user
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (s *stubUsers) FindByUsernameOrEmail(_ context.Context, username, email string) (*models.User, error) {
	if s.user != nil && (s.user.Username == username || s.user.Email == email) {
		copied := *s.user
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (s *stubUsers) ExistsByUsernameOrEmail(context.Context, string, string) (bool, error) {
	return s.user != nil, nil
}

func (s *stubUsers) SetRefreshToken(_ context.Context, id primitive.ObjectID, token string) error {
	if s.user == nil || s.user.ID != id {
		return repository.ErrNotFound
	}
	s.user.RefreshToken = token
	return nil
}

func (s *stubUsers) ClearRefreshToken(_ context.Context, id primitive.ObjectID) error {
	if s.user != nil && s.user.ID == id {
		s.user.RefreshToken = ""
	}
	return nil
}

func (s *stubUsers) RotateRefreshToken(_ context.Context, id primitive.ObjectID, presented, next string) (bool, error) {
	if s.user == nil || s.user.ID != id || s.user.RefreshToken != presented {
		return false, nil
	}
	s.user.RefreshToken = next
	return true, nil
}

func (s *stubUsers) UpdatePassword(context.Context, primitive.ObjectID, string) error {
	return errNotImplemented
}

func (s *stubUsers) UpdateAccountDetails(context.Context, primitive.ObjectID, string, string, string) (*models.User, error) {
	return nil, errNotImplemented
}

func (s *stubUsers) UpdateAvatar(context.Context, primitive.ObjectID, string) (*models.User, error) {
	return nil, errNotImplemented
}

func (s *stubUsers) UpdateCoverImage(context.Context, primitive.ObjectID, string) (*models.User, error) {
	return nil, errNotImplemented
}

func (s *stubUsers) AddToWatchHistory(context.Context, primitive.ObjectID, primitive.ObjectID) error {
	return errNotImplemented
}

func (s *stubUsers) ChannelProfile(context.Context, string, primitive.ObjectID) (*models.ChannelProfile, error) {
	return nil, repository.ErrNotFound
}

func (s *stubUsers) WatchHistory(context.Context, primitive.ObjectID) ([]models.WatchVideo, error) {
	return nil, repository.ErrNotFound
}

func newRouter(t *testing.T) (*chi.Mux, *stubUsers) {
	t.Helper()

	digest, err := utils.HashPassword("Valid1Pass!")
	require.NoError(t, err)

	repo := &stubUsers{user: &models.User{
		ID:       primitive.NewObjectID(),
		Username: "ada_l",
		Email:    "ada@example.com",
		Fullname: "Ada Lovelace",
		Password: digest,
		Avatar:   "https://cdn.example.com/avatar.png",
	}}

	tokens := services.NewTokenService("test-access", "test-refresh", time.Hour, 240*time.Hour)
	handlers.InitUserService(services.NewUserService(repo, tokens, nil))

	r := chi.NewRouter()
	routes.SetupRoutes(r, tokens, repo)
	return r, repo
}

func doJSON(t *testing.T, r http.Handler, method, path, body string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) handlers.Envelope {
	t.Helper()
	var env handlers.Envelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&env))
	return env
}

func cookieByName(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestLoginSetsHttpOnlyCookies(t *testing.T) {
	r, repo := newRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/users/login",
		`{"username":"ada_l","password":"Valid1Pass!"}`, nil)

	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	assert.True(t, env.Success)

	cookies := w.Result().Cookies()
	access := cookieByName(cookies, "accessToken")
	refresh := cookieByName(cookies, "refreshToken")
	require.NotNil(t, access)
	require.NotNil(t, refresh)
	assert.True(t, access.HttpOnly)
	assert.True(t, access.Secure)
	assert.True(t, refresh.HttpOnly)
	assert.True(t, refresh.Secure)

	// The stored refresh token matches the cookie.
	assert.Equal(t, refresh.Value, repo.user.RefreshToken)
}

func TestLoginWrongPassword(t *testing.T) {
	r, _ := newRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/users/login",
		`{"username":"ada_l","password":"Wrong1Pass!"}`, nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	env := decodeEnvelope(t, w)
	assert.False(t, env.Success)
	assert.Equal(t, http.StatusUnauthorized, env.StatusCode)
}

func TestRefreshRotatesCookie(t *testing.T) {
	r, repo := newRouter(t)

	login := doJSON(t, r, http.MethodPost, "/api/v1/users/login",
		`{"username":"ada_l","password":"Valid1Pass!"}`, nil)
	require.Equal(t, http.StatusOK, login.Code)
	oldRefresh := cookieByName(login.Result().Cookies(), "refreshToken")
	require.NotNil(t, oldRefresh)

	w := doJSON(t, r, http.MethodPost, "/api/v1/users/refresh-token", "", []*http.Cookie{oldRefresh})
	require.Equal(t, http.StatusOK, w.Code)

	newRefresh := cookieByName(w.Result().Cookies(), "refreshToken")
	require.NotNil(t, newRefresh)
	assert.NotEqual(t, oldRefresh.Value, newRefresh.Value)
	assert.Equal(t, newRefresh.Value, repo.user.RefreshToken)

	// Reusing the rotated-out token fails.
	reuse := doJSON(t, r, http.MethodPost, "/api/v1/users/refresh-token", "", []*http.Cookie{oldRefresh})
	assert.Equal(t, http.StatusUnauthorized, reuse.Code)
}

func TestCurrentUserRequiresAuth(t *testing.T) {
	r, _ := newRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/v1/users/current-user", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCurrentUserWithAccessCookie(t *testing.T) {
	r, _ := newRouter(t)

	login := doJSON(t, r, http.MethodPost, "/api/v1/users/login",
		`{"username":"ada_l","password":"Valid1Pass!"}`, nil)
	require.Equal(t, http.StatusOK, login.Code)
	access := cookieByName(login.Result().Cookies(), "accessToken")
	require.NotNil(t, access)

	w := doJSON(t, r, http.MethodGet, "/api/v1/users/current-user", "", []*http.Cookie{access})
	require.Equal(t, http.StatusOK, w.Code)

	env := decodeEnvelope(t, w)
	require.True(t, env.Success)
	data, err := json.Marshal(env.Data)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "ada_l"))
}

func TestLogoutClearsCookies(t *testing.T) {
	r, repo := newRouter(t)

	login := doJSON(t, r, http.MethodPost, "/api/v1/users/login",
		`{"username":"ada_l","password":"Valid1Pass!"}`, nil)
	access := cookieByName(login.Result().Cookies(), "accessToken")
	require.NotNil(t, access)

	w := doJSON(t, r, http.MethodPost, "/api/v1/users/logout", "", []*http.Cookie{access})
	require.Equal(t, http.StatusOK, w.Code)

	assert.Empty(t, repo.user.RefreshToken)
	cleared := cookieByName(w.Result().Cookies(), "refreshToken")
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	assert.Negative(t, cleared.MaxAge)
}
