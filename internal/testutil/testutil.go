// Package testutil starts a throwaway PostgreSQL container and builds the
// real router on top of it for handler tests.
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"gorm.io/gorm"

	"github.com/societyvoice/backend/internal/auth"
	"github.com/societyvoice/backend/internal/config"
	"github.com/societyvoice/backend/internal/database"
	"github.com/societyvoice/backend/internal/models"
	"github.com/societyvoice/backend/internal/server"
)

const TestJWTSecret = "test-secret"

var (
	containerOnce sync.Once
	containerDSN  string
	containerErr  error
)

func init() {
	gin.SetMode(gin.TestMode)
}

func startPostgres() (string, error) {
	ctx := context.Background()
	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("societyvoice_test"),
		postgres.WithUsername("society"),
		postgres.WithPassword("society"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		return "", err
	}
	return ctr.ConnectionString(ctx, "sslmode=disable")
}

// SetupTestDB returns a migrated database with every table emptied. One
// container is shared by all tests in the binary, so tests using it must not
// run in parallel.
func SetupTestDB(t *testing.T) database.Service {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping database test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	containerOnce.Do(func() {
		containerDSN, containerErr = startPostgres()
	})
	require.NoError(t, containerErr, "starting postgres container")

	svc, err := database.New(containerDSN)
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })

	err = svc.GetDB().Exec(`TRUNCATE users, registration_requests, complaints, complaint_likes,
		polls, poll_votes, alerts, house_change_requests`).Error
	require.NoError(t, err)

	return svc
}

// Env is a running router backed by a fresh database.
type Env struct {
	Router    http.Handler
	DB        *gorm.DB
	Service   database.Service
	Tokens    *auth.TokenManager
	UploadDir string
}

func NewEnv(t *testing.T) *Env {
	t.Helper()

	svc := SetupTestDB(t)
	cfg := config.Config{
		Port:           "0",
		DatabaseURL:    "unused",
		JWTSecret:      TestJWTSecret,
		TokenTTL:       time.Hour,
		UploadDir:      t.TempDir(),
		MaxUploadBytes: 1 << 20,
		CORSOrigins:    []string{"*"},
		LogLevel:       "error",
		GinMode:        gin.TestMode,
	}

	srv, err := server.New(cfg, svc)
	require.NoError(t, err)

	return &Env{
		Router:    srv.RegisterRoutes(),
		DB:        svc.GetDB(),
		Service:   svc,
		Tokens:    auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL),
		UploadDir: cfg.UploadDir,
	}
}

// CreateUser inserts a user directly and returns it along with a bearer token.
func (e *Env) CreateUser(t *testing.T, name, email string, role models.Role, house string) (*models.User, string) {
	t.Helper()

	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)

	user := &models.User{Name: name, Email: email, Password: hash, Role: role}
	if house != "" {
		user.HouseNumber = &house
	}
	require.NoError(t, e.DB.Create(user).Error)

	token, err := e.Tokens.Generate(user.ID, string(user.Role))
	require.NoError(t, err)

	return user, token
}

// JSON sends body as JSON with an optional bearer token.
func (e *Env) JSON(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)
	return w
}

// Multipart sends fields and an optional file part named "image".
func (e *Env) Multipart(t *testing.T, path, token string, fields map[string]string, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		part, err := mw.CreateFormFile("image", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)
	return w
}

// Decode unmarshals a recorded JSON response body.
func Decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}
