package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/societyvoice/backend/internal/database"
	"github.com/societyvoice/backend/internal/middleware"
	"github.com/societyvoice/backend/internal/models"
)

// apiError is a client-facing failure with a fixed status code. It can be
// returned from inside a transaction closure and rendered afterwards.
type apiError struct {
	status  int
	message string
}

func (e *apiError) Error() string {
	return e.message
}

func badRequest(msg string) error { return &apiError{http.StatusBadRequest, msg} }
func forbidden(msg string) error  { return &apiError{http.StatusForbidden, msg} }
func notFound(msg string) error   { return &apiError{http.StatusNotFound, msg} }
func conflict(msg string) error   { return &apiError{http.StatusConflict, msg} }

// respondError writes err as a JSON error body. Anything that is not a known
// client error is logged with action and hidden behind a generic 500.
func respondError(c *gin.Context, err error, action string) {
	var apiErr *apiError
	switch {
	case errors.As(err, &apiErr):
		c.JSON(apiErr.status, gin.H{"error": apiErr.message})
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case database.IsUniqueViolation(err):
		c.JSON(http.StatusConflict, gin.H{"error": "Resource already exists"})
	default:
		log.WithError(err).WithFields(log.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		}).Errorf("❌ %s", action)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// bindJSON decodes the request body into dst and writes a 400 on failure.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

func currentUser(c *gin.Context) (*models.User, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return nil, false
	}
	return user, true
}

// emailTaken reports whether email belongs to a user or a pending registration.
func emailTaken(db *gorm.DB, email string) (bool, error) {
	var users, requests int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&users).Error; err != nil {
		return false, err
	}
	if err := db.Model(&models.RegistrationRequest{}).Where("email = ?", email).Count(&requests).Error; err != nil {
		return false, err
	}
	return users+requests > 0, nil
}
