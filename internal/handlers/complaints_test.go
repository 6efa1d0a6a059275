package handlers_test

import (
	"bytes"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/societyvoice/backend/internal/models"
	"github.com/societyvoice/backend/internal/testutil"
)

type submitResponse struct {
	Message   string           `json:"message"`
	ID        uuid.UUID        `json:"id"`
	Complaint models.Complaint `json:"complaint"`
}

func submitComplaint(t *testing.T, env *testutil.Env, token, title string) submitResponse {
	t.Helper()

	w := env.Multipart(t, "/api/submit_complaint", token, map[string]string{
		"title":       title,
		"description": "Water dripping from the ceiling",
		"category":    "plumbing",
	}, "", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return testutil.Decode[submitResponse](t, w)
}

func listComplaints(t *testing.T, env *testutil.Env, token, query string) []models.ComplaintView {
	t.Helper()

	w := env.JSON(t, "GET", "/api/get_complaints"+query, token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return testutil.Decode[[]models.ComplaintView](t, w)
}

func setStatus(t *testing.T, env *testutil.Env, token string, id uuid.UUID, status models.ComplaintStatus) int {
	t.Helper()

	w := env.JSON(t, "POST", "/api/update_complaint_status", token, map[string]any{
		"complaint_id": id,
		"status":       status,
	})
	return w.Code
}

func TestComplaintLifecycle(t *testing.T) {
	env := testutil.NewEnv(t)
	_, residentToken := env.CreateUser(t, "Asha", "asha@example.com", models.RoleResident, "A-1")
	_, adminToken := env.CreateUser(t, "Admin", "admin@example.com", models.RoleAdmin, "")

	created := submitComplaint(t, env, residentToken, "Leak")
	assert.Equal(t, models.StatusOpen, created.Complaint.Status)
	assert.Equal(t, "plumbing", created.Complaint.Category)
	assert.Nil(t, created.Complaint.ImageURL)

	assert.Equal(t, http.StatusOK, setStatus(t, env, adminToken, created.ID, models.StatusResolved))
	assert.Equal(t, http.StatusOK, setStatus(t, env, residentToken, created.ID, models.StatusOpen))

	list := listComplaints(t, env, adminToken, "")
	require.Len(t, list, 1)
	assert.Equal(t, models.StatusOpen, list[0].Status)
	assert.Equal(t, "Asha", list[0].UserName)

	require.Equal(t, http.StatusOK, env.JSON(t, "POST", "/api/like_complaint", residentToken, map[string]any{"complaint_id": created.ID}).Code)

	w := env.JSON(t, "POST", "/api/delete_complaint", adminToken, map[string]any{"complaint_id": created.ID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.Empty(t, listComplaints(t, env, adminToken, ""))

	var likes int64
	env.DB.Model(&models.ComplaintLike{}).Where("complaint_id = ?", created.ID).Count(&likes)
	assert.Zero(t, likes)

	w = env.JSON(t, "POST", "/api/delete_complaint", adminToken, map[string]any{"complaint_id": created.ID})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubmitComplaintValidation(t *testing.T) {
	env := testutil.NewEnv(t)
	_, token := env.CreateUser(t, "Asha", "asha@example.com", models.RoleResident, "A-1")

	w := env.Multipart(t, "/api/submit_complaint", token, map[string]string{
		"title":    "Leak",
		"category": "plumbing",
	}, "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.Multipart(t, "/api/submit_complaint", token, map[string]string{
		"title":       "Leak",
		"description": "desc",
		"category":    "plumbing",
	}, "notes.txt", []byte("hello"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.Multipart(t, "/api/submit_complaint", token, map[string]string{
		"title":       "   ",
		"description": " \t ",
		"category":    "  ",
	}, "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var count int64
	env.DB.Model(&models.Complaint{}).Count(&count)
	assert.Zero(t, count)

	entries, err := os.ReadDir(env.UploadDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSubmitComplaintWithImage(t *testing.T) {
	env := testutil.NewEnv(t)
	_, token := env.CreateUser(t, "Asha", "asha@example.com", models.RoleResident, "A-1")
	_, adminToken := env.CreateUser(t, "Admin", "admin@example.com", models.RoleAdmin, "")

	content := []byte("\x89PNG\r\n\x1a\nfake")
	w := env.Multipart(t, "/api/submit_complaint", token, map[string]string{
		"title":       "Broken light",
		"description": "Stairwell light out",
		"category":    "electrical",
	}, "Photo.PNG", content)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	resp := testutil.Decode[submitResponse](t, w)
	require.NotNil(t, resp.Complaint.ImageURL)
	name := *resp.Complaint.ImageURL
	assert.Regexp(t, `^[0-9a-f]{32}\.png$`, name)

	stored, err := os.ReadFile(filepath.Join(env.UploadDir, name))
	require.NoError(t, err)
	assert.Equal(t, content, stored)

	served := env.JSON(t, "GET", "/api/uploads/"+name, "", nil)
	assert.Equal(t, http.StatusOK, served.Code)
	assert.Equal(t, content, served.Body.Bytes())

	assert.Equal(t, http.StatusNotFound, env.JSON(t, "GET", "/api/uploads/missing.png", "", nil).Code)

	require.Equal(t, http.StatusOK, env.JSON(t, "POST", "/api/delete_complaint", adminToken, map[string]any{"complaint_id": resp.ID}).Code)
	_, err = os.Stat(filepath.Join(env.UploadDir, name))
	assert.True(t, os.IsNotExist(err))
}

func TestSubmitComplaintRejectsOversizedBody(t *testing.T) {
	env := testutil.NewEnv(t)
	_, token := env.CreateUser(t, "Asha", "asha@example.com", models.RoleResident, "A-1")

	huge := bytes.Repeat([]byte{0xff}, 3<<20)
	w := env.Multipart(t, "/api/submit_complaint", token, map[string]string{
		"title":       "Leak",
		"description": "desc",
		"category":    "plumbing",
	}, "huge.png", huge)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	var count int64
	env.DB.Model(&models.Complaint{}).Count(&count)
	assert.Zero(t, count)

	entries, err := os.ReadDir(env.UploadDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestComplaintStatusTransitions(t *testing.T) {
	env := testutil.NewEnv(t)
	_, ownerToken := env.CreateUser(t, "Owner", "owner@example.com", models.RoleResident, "A-1")
	_, otherToken := env.CreateUser(t, "Other", "other@example.com", models.RoleResident, "A-2")
	_, workerToken := env.CreateUser(t, "Worker", "worker@example.com", models.RoleWorker, "")

	id := submitComplaint(t, env, ownerToken, "Leak").ID

	assert.Equal(t, http.StatusForbidden, setStatus(t, env, ownerToken, id, models.StatusResolved), "resident cannot resolve")
	assert.Equal(t, http.StatusForbidden, setStatus(t, env, ownerToken, id, models.StatusOpen), "reopen requires resolved")
	assert.Equal(t, http.StatusOK, setStatus(t, env, workerToken, id, models.StatusInProgress))
	assert.Equal(t, http.StatusOK, setStatus(t, env, workerToken, id, models.StatusResolved))
	assert.Equal(t, http.StatusForbidden, setStatus(t, env, otherToken, id, models.StatusOpen), "only the owner may reopen")
	assert.Equal(t, http.StatusForbidden, setStatus(t, env, ownerToken, id, models.StatusInProgress))
	assert.Equal(t, http.StatusOK, setStatus(t, env, ownerToken, id, models.StatusOpen))

	assert.Equal(t, http.StatusBadRequest, setStatus(t, env, workerToken, id, "closed"))
	assert.Equal(t, http.StatusNotFound, setStatus(t, env, workerToken, uuid.New(), models.StatusResolved))

	var complaint models.Complaint
	require.NoError(t, env.DB.First(&complaint, "id = ?", id).Error)
	assert.Equal(t, models.StatusOpen, complaint.Status)
	assert.True(t, complaint.UpdatedAt.After(complaint.CreatedAt) || complaint.UpdatedAt.Equal(complaint.CreatedAt))
}

func TestDeleteComplaintRequiresAdmin(t *testing.T) {
	env := testutil.NewEnv(t)
	_, ownerToken := env.CreateUser(t, "Owner", "owner@example.com", models.RoleResident, "A-1")
	_, workerToken := env.CreateUser(t, "Worker", "worker@example.com", models.RoleWorker, "")

	id := submitComplaint(t, env, ownerToken, "Leak").ID

	for _, token := range []string{ownerToken, workerToken} {
		w := env.JSON(t, "POST", "/api/delete_complaint", token, map[string]any{"complaint_id": id})
		assert.Equal(t, http.StatusForbidden, w.Code)
	}
	assert.Len(t, listComplaints(t, env, ownerToken, ""), 1)
}

func TestLikeComplaintToggles(t *testing.T) {
	env := testutil.NewEnv(t)
	_, ownerToken := env.CreateUser(t, "Owner", "owner@example.com", models.RoleResident, "A-1")
	liker, likerToken := env.CreateUser(t, "Liker", "liker@example.com", models.RoleResident, "A-2")

	id := submitComplaint(t, env, ownerToken, "Leak").ID

	for n := 1; n <= 5; n++ {
		w := env.JSON(t, "POST", "/api/like_complaint", likerToken, map[string]any{"complaint_id": id})
		require.Equal(t, http.StatusOK, w.Code)

		resp := testutil.Decode[map[string]any](t, w)
		wantCount := float64(n % 2)
		assert.Equal(t, wantCount, resp["like_count"], "after %d toggles", n)
		if n%2 == 1 {
			assert.Equal(t, "liked", resp["action"])
		} else {
			assert.Equal(t, "unliked", resp["action"])
		}
	}

	list := listComplaints(t, env, likerToken, "")
	require.Len(t, list, 1)
	assert.Equal(t, 1, list[0].LikeCount)
	assert.Equal(t, []uuid.UUID{liker.ID}, list[0].LikingUsers)
	assert.True(t, list[0].UserHasLiked)

	ownerView := listComplaints(t, env, ownerToken, "")
	require.Len(t, ownerView, 1)
	assert.False(t, ownerView[0].UserHasLiked)

	w := env.JSON(t, "POST", "/api/like_complaint", likerToken, map[string]any{"complaint_id": uuid.New()})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetComplaintsFilters(t *testing.T) {
	env := testutil.NewEnv(t)
	asha, ashaToken := env.CreateUser(t, "Asha", "asha@example.com", models.RoleResident, "A-1")
	_, raviToken := env.CreateUser(t, "Ravi", "ravi@example.com", models.RoleResident, "A-2")
	_, workerToken := env.CreateUser(t, "Worker", "worker@example.com", models.RoleWorker, "")

	submitComplaint(t, env, ashaToken, "Leak")
	submitComplaint(t, env, raviToken, "Noise")
	latest := submitComplaint(t, env, ashaToken, "Lift")

	all := listComplaints(t, env, raviToken, "")
	require.Len(t, all, 3)
	assert.Equal(t, latest.ID, all[0].ID, "most recently updated first")
	assert.Empty(t, all[0].LikingUsers)

	mine := listComplaints(t, env, raviToken, "?view_type=my")
	require.Len(t, mine, 1)
	assert.Equal(t, "Noise", mine[0].Title)

	byUser := listComplaints(t, env, workerToken, "?user_id="+asha.ID.String())
	assert.Len(t, byUser, 2)

	// Residents cannot filter by another user.
	assert.Len(t, listComplaints(t, env, raviToken, "?user_id="+asha.ID.String()), 3)

	w := env.JSON(t, "GET", "/api/get_complaints?user_id=bogus", workerToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
