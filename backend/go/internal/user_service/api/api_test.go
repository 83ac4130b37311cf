package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"DocChat/backend/go/internal/identity"
	"DocChat/backend/go/internal/models"
	"DocChat/backend/go/internal/user_service/service"
	"DocChat/backend/go/internal/user_service/store"
	"DocChat/backend/go/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu    sync.Mutex
	users []*models.User
}

func (f *fakeStore) CreateUser(_ context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u.ID = uint(len(f.users) + 1)
	f.users = append(f.users, u)
	return nil
}

func (f *fakeStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (f *fakeStore) ExistsByEmailOrUsername(_ context.Context, email, username string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email || u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func newTestRouter(svc *service.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r.Group("/api/v1"), NewHandler(svc, logger.Nop()))
	protected := r.Group("/api/v1/me", AuthMiddleware(svc))
	protected.GET("", func(c *gin.Context) {
		id, err := identity.FromContext(c.Request.Context())
		if err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id.ID, "email": id.Email})
	})
	return r
}

func postJSON(t *testing.T, r http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterLoginAndAuthenticatedRequest(t *testing.T) {
	svc := service.NewService(&fakeStore{}, "secret", time.Hour)
	r := newTestRouter(svc)

	w := postJSON(t, r, "/api/v1/auth/register", gin.H{"email": "bob@example.com", "username": "bob", "password": "correct-horse"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = postJSON(t, r, "/api/v1/auth/register", gin.H{"email": "bob@example.com", "username": "bob2", "password": "correct-horse"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = postJSON(t, r, "/api/v1/auth/login", gin.H{"email": "bob@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = postJSON(t, r, "/api/v1/auth/login", gin.H{"email": "bob@example.com", "password": "correct-horse"})
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header.Set("Authorization", "Bearer "+resp.Token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"1","email":"bob@example.com"}`, w.Body.String())
}

func TestRegisterValidation(t *testing.T) {
	r := newTestRouter(service.NewService(&fakeStore{}, "secret", time.Hour))
	w := postJSON(t, r, "/api/v1/auth/register", gin.H{"email": "not-an-email", "username": "x", "password": "longenough"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = postJSON(t, r, "/api/v1/auth/register", gin.H{"email": "x@example.com", "username": "x", "password": "short"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthMiddlewareRejects(t *testing.T) {
	r := newTestRouter(service.NewService(&fakeStore{}, "secret", time.Hour))
	for _, header := range []string{"", "Token abc", "Bearer ", "Bearer not.a.jwt"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "header %q", header)
	}
}
