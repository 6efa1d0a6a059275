package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/societyvoice/backend/internal/database"
	"github.com/societyvoice/backend/internal/models"
)

// HouseHandler handles residents asking to move to a different house number.
type HouseHandler struct {
	db *gorm.DB
}

func NewHouseHandler(db *gorm.DB) *HouseHandler {
	return &HouseHandler{db: db}
}

func (h *HouseHandler) RequestHouseChange(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var input models.HouseChangeRequestBody
	if !bindJSON(c, &input) {
		return
	}

	houseNumber := strings.TrimSpace(input.NewHouseNumber)
	if user.HouseNumber != nil && *user.HouseNumber == houseNumber {
		c.JSON(http.StatusBadRequest, gin.H{"error": "The new house number is the same as your current one."})
		return
	}

	db := h.db.WithContext(c.Request.Context())

	var pending int64
	err := db.Model(&models.HouseChangeRequest{}).
		Where("user_id = ? AND status = ?", user.ID, models.HouseRequestPending).
		Count(&pending).Error
	if err != nil {
		respondError(c, err, "House change request error")
		return
	}
	if pending > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "You already have a pending house change request."})
		return
	}

	request := models.HouseChangeRequest{
		UserID:               user.ID,
		RequestedHouseNumber: houseNumber,
		Status:               models.HouseRequestPending,
	}
	if err := db.Create(&request).Error; err != nil {
		// The partial unique index catches a concurrent duplicate.
		if database.IsUniqueViolation(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "You already have a pending house change request."})
			return
		}
		respondError(c, err, "House change request error")
		return
	}

	log.Printf("✅ House change request submitted by user %s for house %s", user.ID, houseNumber)
	c.JSON(http.StatusCreated, gin.H{
		"message": "House change request submitted successfully. Awaiting admin approval.",
		"id":      request.ID,
	})
}

// GetHouseRequests lists requests joined with the requester, newest first.
// Only pending requests are returned unless status=all.
func (h *HouseHandler) GetHouseRequests(c *gin.Context) {
	query := h.db.WithContext(c.Request.Context()).
		InnerJoins("User").
		Order("house_change_requests.created_at desc")

	switch status := c.DefaultQuery("status", string(models.HouseRequestPending)); status {
	case "all":
	case string(models.HouseRequestPending), string(models.HouseRequestApproved), string(models.HouseRequestRejected):
		query = query.Where("house_change_requests.status = ?", status)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status filter"})
		return
	}

	var requests []models.HouseChangeRequest
	if err := query.Find(&requests).Error; err != nil {
		respondError(c, err, "Get house requests error")
		return
	}

	responses := make([]models.HouseRequestView, 0, len(requests))
	for _, request := range requests {
		responses = append(responses, models.HouseRequestView{
			HouseChangeRequest: request,
			UserName:           request.User.Name,
			UserEmail:          request.User.Email,
			CurrentHouseNumber: request.User.HouseNumber,
		})
	}

	c.JSON(http.StatusOK, responses)
}

// ProcessHouseRequest approves or rejects a pending request. Approval copies
// the requested number onto the user in the same transaction.
func (h *HouseHandler) ProcessHouseRequest(c *gin.Context) {
	var input models.ProcessHouseRequestBody
	if !bindJSON(c, &input) {
		return
	}

	var request models.HouseChangeRequest
	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&request, "id = ?", input.RequestID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("Request not found")
			}
			return err
		}

		result := tx.Model(&models.HouseChangeRequest{}).
			Where("id = ? AND status = ?", request.ID, models.HouseRequestPending).
			Update("status", input.Status)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return conflict("Request has already been processed")
		}

		if input.Status != models.HouseRequestApproved {
			return nil
		}

		result = tx.Model(&models.User{}).
			Where("id = ?", request.UserID).
			Update("house_number", request.RequestedHouseNumber)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return notFound("User not found")
		}
		return nil
	})
	if err != nil {
		respondError(c, err, "Process house request error")
		return
	}

	message := "House change request rejected."
	if input.Status == models.HouseRequestApproved {
		message = "House change request approved and user house number updated."
	}

	log.Printf("✅ House change request %s %s for user %s", request.ID, input.Status, request.UserID)
	c.JSON(http.StatusOK, gin.H{"message": message})
}
