package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/societyvoice/backend/internal/models"
)

type AlertHandler struct {
	db *gorm.DB
}

func NewAlertHandler(db *gorm.DB) *AlertHandler {
	return &AlertHandler{db: db}
}

func (h *AlertHandler) CreateAlert(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var input models.CreateAlertRequest
	if !bindJSON(c, &input) {
		return
	}

	alert := models.Alert{Message: strings.TrimSpace(input.Message), CreatedBy: user.ID}
	if err := h.db.WithContext(c.Request.Context()).Create(&alert).Error; err != nil {
		respondError(c, err, "Create alert error")
		return
	}

	log.Printf("✅ New alert created with ID: %s", alert.ID)
	c.JSON(http.StatusCreated, gin.H{
		"message": "Alert created successfully",
		"id":      alert.ID,
		"alert":   alert,
	})
}

// GetAlerts lists alerts newest first with the creator's name. Alerts whose
// creator has been deleted are left out.
func (h *AlertHandler) GetAlerts(c *gin.Context) {
	var alerts []models.Alert
	err := h.db.WithContext(c.Request.Context()).
		InnerJoins("Creator").
		Order("alerts.created_at desc").
		Find(&alerts).Error
	if err != nil {
		respondError(c, err, "Get alerts error")
		return
	}

	responses := make([]models.AlertView, 0, len(alerts))
	for _, alert := range alerts {
		responses = append(responses, models.AlertView{
			Alert:         alert,
			CreatedByName: alert.Creator.Name,
		})
	}

	c.JSON(http.StatusOK, responses)
}

func (h *AlertHandler) DeleteAlert(c *gin.Context) {
	var input models.AlertIDRequest
	if !bindJSON(c, &input) {
		return
	}

	result := h.db.WithContext(c.Request.Context()).Delete(&models.Alert{}, "id = ?", input.AlertID)
	if result.Error != nil {
		respondError(c, result.Error, "Delete alert error")
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Alert not found"})
		return
	}

	log.Printf("✅ Alert ID %s deleted by admin", input.AlertID)
	c.JSON(http.StatusOK, gin.H{"message": "Alert deleted successfully"})
}
