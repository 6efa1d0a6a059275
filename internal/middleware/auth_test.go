package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/societyvoice/backend/internal/auth"
	"github.com/societyvoice/backend/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func fakeLoader(users map[uuid.UUID]*models.User) UserLoader {
	return func(_ context.Context, id uuid.UUID) (*models.User, error) {
		if u, ok := users[id]; ok {
			return u, nil
		}
		return nil, gorm.ErrRecordNotFound
	}
}

func newRouter(tokens *auth.TokenManager, load UserLoader, roles ...models.Role) *gin.Engine {
	r := gin.New()
	group := r.Group("/", AuthMiddleware(tokens, load))
	if len(roles) > 0 {
		group.Use(RequireRoles(roles...))
	}
	group.GET("/whoami", func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.Status(http.StatusTeapot)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": user.ID, "role": user.Role})
	})
	return r
}

func doRequest(r http.Handler, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", "/whoami", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	resident := &models.User{ID: uuid.New(), Role: models.RoleResident}
	users := map[uuid.UUID]*models.User{resident.ID: resident}
	r := newRouter(tokens, fakeLoader(users))

	valid, err := tokens.Generate(resident.ID, string(resident.Role))
	require.NoError(t, err)
	ghost, err := tokens.Generate(uuid.New(), "admin")
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"empty bearer", "Bearer ", http.StatusUnauthorized},
		{"garbage token", "Bearer nope", http.StatusUnauthorized},
		{"deleted user", "Bearer " + ghost, http.StatusUnauthorized},
		{"valid", "Bearer " + valid, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(r, tt.header)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
		})
	}
}

func TestAuthMiddlewareUsesCurrentRole(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	user := &models.User{ID: uuid.New(), Role: models.RoleAdmin}
	r := newRouter(tokens, fakeLoader(map[uuid.UUID]*models.User{user.ID: user}), models.RoleAdmin)

	token, err := tokens.Generate(user.ID, string(models.RoleAdmin))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, doRequest(r, "Bearer "+token).Code)

	// Demoted after the token was issued.
	user.Role = models.RoleResident
	assert.Equal(t, http.StatusForbidden, doRequest(r, "Bearer "+token).Code)
}

func TestAuthMiddlewareLoaderFailure(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	failing := func(context.Context, uuid.UUID) (*models.User, error) {
		return nil, errors.New("connection reset")
	}
	r := newRouter(tokens, failing)

	token, err := tokens.Generate(uuid.New(), "resident")
	require.NoError(t, err)

	w := doRequest(r, "Bearer "+token)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection reset")
}

func TestRequireRoles(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	users := map[uuid.UUID]*models.User{}
	for _, role := range []models.Role{models.RoleAdmin, models.RoleWorker, models.RoleResident} {
		u := &models.User{ID: uuid.New(), Role: role}
		users[u.ID] = u
	}
	r := newRouter(tokens, fakeLoader(users), models.RoleAdmin, models.RoleWorker)

	for _, u := range users {
		token, err := tokens.Generate(u.ID, string(u.Role))
		require.NoError(t, err)

		want := http.StatusOK
		if u.Role == models.RoleResident {
			want = http.StatusForbidden
		}
		assert.Equal(t, want, doRequest(r, "Bearer "+token).Code, string(u.Role))
	}
}
