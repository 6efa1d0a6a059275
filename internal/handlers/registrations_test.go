package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/societyvoice/backend/internal/auth"
	"github.com/societyvoice/backend/internal/models"
	"github.com/societyvoice/backend/internal/testutil"
)

func submitRegistration(t *testing.T, env *testutil.Env, email string) models.RegistrationRequest {
	t.Helper()

	w := env.JSON(t, "POST", "/api/register", "", map[string]string{
		"name":         "Applicant",
		"email":        email,
		"password":     "secret1",
		"house_number": "D-4",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var request models.RegistrationRequest
	require.NoError(t, env.DB.First(&request, "email = ?", email).Error)
	return request
}

func TestListRegistrationRequests(t *testing.T) {
	env := testutil.NewEnv(t)
	_, adminToken := env.CreateUser(t, "Admin", "admin@example.com", models.RoleAdmin, "")
	_, residentToken := env.CreateUser(t, "Res", "res@example.com", models.RoleResident, "1")

	submitRegistration(t, env, "first@example.com")
	submitRegistration(t, env, "second@example.com")

	assert.Equal(t, http.StatusForbidden, env.JSON(t, "GET", "/api/get_registration_requests", residentToken, nil).Code)

	for _, path := range []string{"/api/get_registration_requests", "/api/admin/requests"} {
		w := env.JSON(t, "GET", path, adminToken, nil)
		require.Equal(t, http.StatusOK, w.Code)

		list := testutil.Decode[[]map[string]any](t, w)
		require.Len(t, list, 2)
		assert.Equal(t, "second@example.com", list[0]["email"])
		assert.NotContains(t, list[0], "password")
	}
}

func TestApproveRegistration(t *testing.T) {
	env := testutil.NewEnv(t)
	_, adminToken := env.CreateUser(t, "Admin", "admin@example.com", models.RoleAdmin, "")
	request := submitRegistration(t, env, "new@example.com")

	w := env.JSON(t, "POST", "/api/process_registration_request", adminToken, map[string]any{
		"request_id": request.ID,
		"action":     "approve",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var user models.User
	require.NoError(t, env.DB.First(&user, "email = ?", "new@example.com").Error)
	assert.Equal(t, models.RoleResident, user.Role)
	require.NotNil(t, user.HouseNumber)
	assert.Equal(t, "D-4", *user.HouseNumber)
	assert.NoError(t, auth.CheckPassword("secret1", user.Password))

	var remaining int64
	env.DB.Model(&models.RegistrationRequest{}).Count(&remaining)
	assert.Zero(t, remaining)

	login := env.JSON(t, "POST", "/api/login", "", map[string]string{"email": "new@example.com", "password": "secret1"})
	assert.Equal(t, http.StatusOK, login.Code)

	again := env.JSON(t, "POST", "/api/admin/approve_request", adminToken, map[string]any{"request_id": request.ID})
	assert.Equal(t, http.StatusNotFound, again.Code)
}

func TestApproveRegistrationEmailConflict(t *testing.T) {
	env := testutil.NewEnv(t)
	_, adminToken := env.CreateUser(t, "Admin", "admin@example.com", models.RoleAdmin, "")
	request := submitRegistration(t, env, "race@example.com")

	// Admin added the same email directly while the request was pending.
	env.CreateUser(t, "Direct", "race@example.com", models.RoleWorker, "")

	w := env.JSON(t, "POST", "/api/admin/approve_request", adminToken, map[string]any{"request_id": request.ID})
	assert.Equal(t, http.StatusConflict, w.Code)

	var remaining int64
	env.DB.Model(&models.RegistrationRequest{}).Count(&remaining)
	assert.Zero(t, remaining, "conflicting request is discarded")

	var users int64
	env.DB.Model(&models.User{}).Where("email = ?", "race@example.com").Count(&users)
	assert.Equal(t, int64(1), users)
}

func TestRejectRegistration(t *testing.T) {
	env := testutil.NewEnv(t)
	_, adminToken := env.CreateUser(t, "Admin", "admin@example.com", models.RoleAdmin, "")
	first := submitRegistration(t, env, "nope@example.com")
	second := submitRegistration(t, env, "also-nope@example.com")

	w := env.JSON(t, "POST", "/api/admin/reject_request", adminToken, map[string]any{"request_id": first.ID})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.JSON(t, "POST", "/api/process_registration_request", adminToken, map[string]any{
		"request_id": second.ID,
		"action":     "reject",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var users int64
	env.DB.Model(&models.User{}).Where("email IN ?", []string{"nope@example.com", "also-nope@example.com"}).Count(&users)
	assert.Zero(t, users)

	w = env.JSON(t, "POST", "/api/admin/reject_request", adminToken, map[string]any{"request_id": first.ID})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProcessRegistrationValidation(t *testing.T) {
	env := testutil.NewEnv(t)
	_, adminToken := env.CreateUser(t, "Admin", "admin@example.com", models.RoleAdmin, "")
	request := submitRegistration(t, env, "x@example.com")

	tests := []struct {
		name string
		body map[string]any
	}{
		{"bad id", map[string]any{"request_id": "not-a-uuid", "action": "approve"}},
		{"missing id", map[string]any{"action": "approve"}},
		{"bad action", map[string]any{"request_id": request.ID, "action": "maybe"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.JSON(t, "POST", "/api/process_registration_request", adminToken, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}
