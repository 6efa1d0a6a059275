package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/societyvoice/backend/internal/models"
	"github.com/societyvoice/backend/internal/storage"
)

type ComplaintHandler struct {
	db      *gorm.DB
	uploads *storage.Store
}

func NewComplaintHandler(db *gorm.DB, uploads *storage.Store) *ComplaintHandler {
	return &ComplaintHandler{db: db, uploads: uploads}
}

// SubmitComplaint creates an Open complaint from a multipart form with an
// optional image part.
func (h *ComplaintHandler) SubmitComplaint(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var input models.SubmitComplaintRequest
	if err := c.ShouldBind(&input); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Request body too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return
	}

	var imageURL *string
	fileHeader, err := c.FormFile("image")
	switch {
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	case err != nil:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid image upload"})
		return
	case fileHeader.Filename != "":
		filename, err := h.uploads.SaveImage(fileHeader)
		switch {
		case errors.Is(err, storage.ErrInvalidFileType):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid file type"})
			return
		case errors.Is(err, storage.ErrFileTooLarge):
			c.JSON(http.StatusBadRequest, gin.H{"error": "File too large"})
			return
		case err != nil:
			respondError(c, err, "Failed to store complaint image")
			return
		}
		log.Printf("✅ File uploaded: %s", filename)
		imageURL = &filename
	}

	complaint := models.Complaint{
		UserID:      user.ID,
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Category:    strings.TrimSpace(input.Category),
		Status:      models.StatusOpen,
		ImageURL:    imageURL,
	}

	if err := h.db.WithContext(c.Request.Context()).Create(&complaint).Error; err != nil {
		if imageURL != nil {
			h.removeImage(*imageURL)
		}
		respondError(c, err, "Submit complaint error")
		return
	}

	log.Printf("✅ New complaint submitted with ID: %s", complaint.ID)
	c.JSON(http.StatusCreated, gin.H{
		"message":   "Complaint submitted successfully",
		"id":        complaint.ID,
		"complaint": complaint,
	})
}

// GetComplaints returns complaints with submitter name and like details,
// most recently updated first. view_type=my limits the list to the caller's
// own complaints; staff may filter by user_id.
func (h *ComplaintHandler) GetComplaints(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	db := h.db.WithContext(c.Request.Context())
	query := db.Preload("User").Order("updated_at desc")

	if c.Query("view_type") == "my" {
		query = query.Where("user_id = ?", user.ID)
	} else if raw := c.Query("user_id"); raw != "" && user.Role != models.RoleResident {
		filterID, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid User ID format"})
			return
		}
		query = query.Where("user_id = ?", filterID)
	}

	var complaints []models.Complaint
	if err := query.Find(&complaints).Error; err != nil {
		respondError(c, err, "Get complaints error")
		return
	}

	likers := make(map[uuid.UUID][]uuid.UUID, len(complaints))
	if len(complaints) > 0 {
		ids := make([]uuid.UUID, len(complaints))
		for i, complaint := range complaints {
			ids[i] = complaint.ID
		}

		var likes []models.ComplaintLike
		if err := db.Where("complaint_id IN ?", ids).Order("created_at asc").Find(&likes).Error; err != nil {
			respondError(c, err, "Get complaints error")
			return
		}
		for _, like := range likes {
			likers[like.ComplaintID] = append(likers[like.ComplaintID], like.UserID)
		}
	}

	responses := make([]models.ComplaintView, 0, len(complaints))
	for _, complaint := range complaints {
		liking := likers[complaint.ID]
		if liking == nil {
			liking = []uuid.UUID{}
		}

		hasLiked := false
		for _, id := range liking {
			if id == user.ID {
				hasLiked = true
				break
			}
		}

		responses = append(responses, models.ComplaintView{
			Complaint:    complaint,
			UserName:     complaint.User.Name,
			LikeCount:    len(liking),
			LikingUsers:  liking,
			UserHasLiked: hasLiked,
		})
	}

	c.JSON(http.StatusOK, responses)
}

// UpdateComplaintStatus lets staff set any status. Residents may only reopen
// their own resolved complaints.
func (h *ComplaintHandler) UpdateComplaintStatus(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var input models.UpdateComplaintStatusRequest
	if !bindJSON(c, &input) {
		return
	}

	if !input.Status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}

	var complaint models.Complaint
	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&complaint, "id = ?", input.ComplaintID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("Complaint not found")
			}
			return err
		}

		if err := canTransition(user, &complaint, input.Status); err != nil {
			return err
		}

		// Guard on the status we checked so a concurrent change is not overwritten.
		result := tx.Model(&models.Complaint{}).
			Where("id = ? AND status = ?", complaint.ID, complaint.Status).
			Updates(map[string]any{"status": input.Status, "updated_at": time.Now().UTC()})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return conflict("Complaint was modified concurrently, please retry")
		}
		return tx.First(&complaint, "id = ?", complaint.ID).Error
	})
	if err != nil {
		respondError(c, err, "Update status error")
		return
	}

	log.Printf("✅ Complaint ID %s status updated to %s by %s", complaint.ID, input.Status, user.Role)
	c.JSON(http.StatusOK, gin.H{
		"message":   "Complaint status updated to " + string(input.Status),
		"complaint": complaint,
	})
}

func canTransition(user *models.User, complaint *models.Complaint, to models.ComplaintStatus) error {
	switch user.Role {
	case models.RoleAdmin, models.RoleWorker:
		return nil
	case models.RoleResident:
		if complaint.UserID != user.ID {
			return forbidden("You can only reopen your own complaints")
		}
		if complaint.Status != models.StatusResolved || to != models.StatusOpen {
			return forbidden("Residents can only reopen resolved complaints")
		}
		return nil
	}
	return forbidden("Unauthorized")
}

// DeleteComplaint removes a complaint and its likes, then its image file.
func (h *ComplaintHandler) DeleteComplaint(c *gin.Context) {
	var input models.ComplaintIDRequest
	if !bindJSON(c, &input) {
		return
	}

	var complaint models.Complaint
	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&complaint, "id = ?", input.ComplaintID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("Complaint not found")
			}
			return err
		}
		if err := tx.Where("complaint_id = ?", complaint.ID).Delete(&models.ComplaintLike{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Complaint{}, "id = ?", complaint.ID).Error
	})
	if err != nil {
		respondError(c, err, "Delete complaint error")
		return
	}

	if complaint.ImageURL != nil {
		h.removeImage(*complaint.ImageURL)
	}

	log.Printf("✅ Complaint ID %s and associated likes deleted", complaint.ID)
	c.JSON(http.StatusOK, gin.H{"message": "Complaint deleted successfully"})
}

// LikeComplaint toggles the caller's like on a complaint.
func (h *ComplaintHandler) LikeComplaint(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var input models.ComplaintIDRequest
	if !bindJSON(c, &input) {
		return
	}

	var action string
	var likeCount int64
	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var complaint models.Complaint
		if err := tx.Select("id").First(&complaint, "id = ?", input.ComplaintID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("Complaint not found")
			}
			return err
		}

		result := tx.Where("complaint_id = ? AND user_id = ?", complaint.ID, user.ID).Delete(&models.ComplaintLike{})
		if result.Error != nil {
			return result.Error
		}

		if result.RowsAffected > 0 {
			action = "unliked"
		} else {
			like := models.ComplaintLike{ComplaintID: complaint.ID, UserID: user.ID}
			if err := tx.Create(&like).Error; err != nil {
				return err
			}
			action = "liked"
		}

		return tx.Model(&models.ComplaintLike{}).Where("complaint_id = ?", complaint.ID).Count(&likeCount).Error
	})
	if err != nil {
		respondError(c, err, "Like/Unlike error")
		return
	}

	log.Printf("✅ User %s %s complaint %s", user.ID, action, input.ComplaintID)
	c.JSON(http.StatusOK, gin.H{
		"message":    strings.ToUpper(action[:1]) + action[1:],
		"action":     action,
		"like_count": likeCount,
	})
}

// ServeUpload serves a stored complaint image by filename.
func (h *ComplaintHandler) ServeUpload(c *gin.Context) {
	path, err := h.uploads.Path(c.Param("filename"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
		return
	}
	c.File(path)
}

func (h *ComplaintHandler) removeImage(name string) {
	if err := h.uploads.Remove(name); err != nil {
		log.WithError(err).WithField("file", name).Warn("⚠️ Failed to remove complaint image")
	}
}
