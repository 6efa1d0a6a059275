package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/societyvoice/backend/internal/auth"
	"github.com/societyvoice/backend/internal/models"
	"github.com/societyvoice/backend/internal/storage"
)

// UserHandler covers admin user management.
type UserHandler struct {
	db      *gorm.DB
	uploads *storage.Store
}

func NewUserHandler(db *gorm.DB, uploads *storage.Store) *UserHandler {
	return &UserHandler{db: db, uploads: uploads}
}

// GetUsers lists users sorted by name. Admins are left out unless
// include_admins=true.
func (h *UserHandler) GetUsers(c *gin.Context) {
	query := h.db.WithContext(c.Request.Context()).Order("name asc")
	if c.Query("include_admins") != "true" {
		query = query.Where("role <> ?", models.RoleAdmin)
	}

	users := []models.User{}
	if err := query.Find(&users).Error; err != nil {
		respondError(c, err, "Get users error")
		return
	}

	c.JSON(http.StatusOK, users)
}

// AddUser creates an account directly, bypassing the registration queue.
func (h *UserHandler) AddUser(c *gin.Context) {
	var input models.AddUserRequest
	if !bindJSON(c, &input) {
		return
	}

	if !input.Role.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role specified"})
		return
	}

	houseNumber := strings.TrimSpace(input.HouseNumber)
	if input.Role == models.RoleResident && houseNumber == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "House number is required for residents"})
		return
	}

	email := normalizeEmail(input.Email)
	db := h.db.WithContext(c.Request.Context())

	taken, err := emailTaken(db, email)
	if err != nil {
		respondError(c, err, "Add user error")
		return
	}
	if taken {
		c.JSON(http.StatusConflict, gin.H{"error": "Email already exists as a user or a pending request"})
		return
	}

	hashedPassword, err := auth.HashPassword(input.Password)
	if err != nil {
		respondError(c, err, "Failed to hash password")
		return
	}

	user := models.User{
		Name:     strings.TrimSpace(input.Name),
		Email:    email,
		Password: hashedPassword,
		Role:     input.Role,
	}
	if houseNumber != "" {
		user.HouseNumber = &houseNumber
	}

	if err := db.Create(&user).Error; err != nil {
		respondError(c, err, "Add user error")
		return
	}

	log.Printf("✅ User %s added as %s", user.Email, user.Role)
	c.JSON(http.StatusCreated, gin.H{
		"message": "User added successfully",
		"user":    user,
	})
}

// ChangeUserRole sets a user's role to resident, worker or admin.
func (h *UserHandler) ChangeUserRole(c *gin.Context) {
	var input models.ChangeRoleRequest
	if !bindJSON(c, &input) {
		return
	}

	if !input.NewRole.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role specified"})
		return
	}

	result := h.db.WithContext(c.Request.Context()).
		Model(&models.User{}).
		Where("id = ?", input.UserID).
		Update("role", input.NewRole)
	if result.Error != nil {
		respondError(c, result.Error, "Change role error")
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	log.Printf("✅ User ID %s role changed to %s by admin", input.UserID, input.NewRole)
	c.JSON(http.StatusOK, gin.H{"message": "User role updated to " + string(input.NewRole)})
}

// DeleteUser removes a user together with their complaints, the likes on
// those complaints, their own likes, poll votes and house-change requests.
func (h *UserHandler) DeleteUser(c *gin.Context) {
	admin, ok := currentUser(c)
	if !ok {
		return
	}

	var input models.UserIDRequest
	if !bindJSON(c, &input) {
		return
	}

	if input.UserID == admin.ID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot delete your own account"})
		return
	}

	var images []string
	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, "id = ?", input.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("User not found")
			}
			return err
		}

		var complaints []models.Complaint
		if err := tx.Select("id", "image_url").Where("user_id = ?", user.ID).Find(&complaints).Error; err != nil {
			return err
		}

		complaintIDs := make([]any, 0, len(complaints))
		for _, complaint := range complaints {
			complaintIDs = append(complaintIDs, complaint.ID)
			if complaint.ImageURL != nil {
				images = append(images, *complaint.ImageURL)
			}
		}

		if len(complaintIDs) > 0 {
			if err := tx.Where("complaint_id IN ?", complaintIDs).Delete(&models.ComplaintLike{}).Error; err != nil {
				return err
			}
		}

		steps := []struct {
			model any
			where string
		}{
			{&models.ComplaintLike{}, "user_id = ?"},
			{&models.Complaint{}, "user_id = ?"},
			{&models.PollVote{}, "user_id = ?"},
			{&models.HouseChangeRequest{}, "user_id = ?"},
			{&models.User{}, "id = ?"},
		}
		for _, step := range steps {
			if err := tx.Where(step.where, user.ID).Delete(step.model).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		respondError(c, err, "Delete user error")
		return
	}

	for _, name := range images {
		if err := h.uploads.Remove(name); err != nil {
			log.WithError(err).WithField("file", name).Warn("⚠️ Failed to remove complaint image")
		}
	}

	log.Printf("✅ User ID %s and related records deleted by admin", input.UserID)
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}
