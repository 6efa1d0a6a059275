package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/societyvoice/backend/internal/database"
	"github.com/societyvoice/backend/internal/models"
)

// RegistrationHandler lets admins review pending self-registrations.
type RegistrationHandler struct {
	db *gorm.DB
}

func NewRegistrationHandler(db *gorm.DB) *RegistrationHandler {
	return &RegistrationHandler{db: db}
}

// GetRegistrationRequests lists pending registrations, newest first.
func (h *RegistrationHandler) GetRegistrationRequests(c *gin.Context) {
	requests := []models.RegistrationRequest{}
	if err := h.db.WithContext(c.Request.Context()).Order("created_at desc").Find(&requests).Error; err != nil {
		respondError(c, err, "Get requests error")
		return
	}
	c.JSON(http.StatusOK, requests)
}

// ProcessRegistrationRequest approves or rejects depending on the action field.
func (h *RegistrationHandler) ProcessRegistrationRequest(c *gin.Context) {
	var input models.ProcessRegistrationRequest
	if !bindJSON(c, &input) {
		return
	}

	if input.Action == "approve" {
		h.approve(c, input.RequestID)
		return
	}
	h.reject(c, input.RequestID)
}

func (h *RegistrationHandler) ApproveRequest(c *gin.Context) {
	var input models.RequestIDRequest
	if !bindJSON(c, &input) {
		return
	}
	h.approve(c, input.RequestID)
}

func (h *RegistrationHandler) RejectRequest(c *gin.Context) {
	var input models.RequestIDRequest
	if !bindJSON(c, &input) {
		return
	}
	h.reject(c, input.RequestID)
}

// approve moves the request into users. If the email was taken in the
// meantime the request is discarded and the caller gets a conflict.
func (h *RegistrationHandler) approve(c *gin.Context, requestID uuid.UUID) {
	db := h.db.WithContext(c.Request.Context())

	var request models.RegistrationRequest
	if err := db.First(&request, "id = ?", requestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Request not found"})
			return
		}
		respondError(c, err, "Approve request error")
		return
	}

	houseNumber := request.HouseNumber
	user := models.User{
		Name:        request.Name,
		Email:       request.Email,
		Password:    request.Password,
		Role:        request.Role,
		HouseNumber: &houseNumber,
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.RegistrationRequest{}, "id = ?", request.ID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// Another admin processed it first.
			return notFound("Request not found")
		}
		return nil
	})

	if database.IsUniqueViolation(err) {
		if delErr := db.Delete(&models.RegistrationRequest{}, "id = ?", request.ID).Error; delErr != nil {
			log.WithError(delErr).WithField("request_id", request.ID).Warn("⚠️ Failed to discard conflicting registration request")
		}
		c.JSON(http.StatusConflict, gin.H{"error": "A user with this email already exists; the request was discarded"})
		return
	}
	if err != nil {
		respondError(c, err, "Approve request error")
		return
	}

	log.Printf("✅ Registration request approved for %s", request.Email)
	c.JSON(http.StatusOK, gin.H{
		"message": "User approved and registered successfully",
		"user":    user,
	})
}

func (h *RegistrationHandler) reject(c *gin.Context, requestID uuid.UUID) {
	result := h.db.WithContext(c.Request.Context()).Delete(&models.RegistrationRequest{}, "id = ?", requestID)
	if result.Error != nil {
		respondError(c, result.Error, "Reject request error")
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Request not found"})
		return
	}

	log.Printf("✅ Registration request ID %s rejected", requestID)
	c.JSON(http.StatusOK, gin.H{"message": "Registration request rejected successfully"})
}
