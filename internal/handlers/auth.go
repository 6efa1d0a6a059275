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
)

type AuthHandler struct {
	db     *gorm.DB
	tokens *auth.TokenManager
}

func NewAuthHandler(db *gorm.DB, tokens *auth.TokenManager) *AuthHandler {
	return &AuthHandler{db: db, tokens: tokens}
}

// Register queues a self-registration for admin approval.
func (h *AuthHandler) Register(c *gin.Context) {
	var input models.RegisterRequest
	if !bindJSON(c, &input) {
		return
	}

	email := normalizeEmail(input.Email)
	db := h.db.WithContext(c.Request.Context())

	taken, err := emailTaken(db, email)
	if err != nil {
		respondError(c, err, "Registration error")
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

	request := models.RegistrationRequest{
		Name:        strings.TrimSpace(input.Name),
		Email:       email,
		Password:    hashedPassword,
		Role:        models.RoleResident,
		HouseNumber: strings.TrimSpace(input.HouseNumber),
	}

	if err := db.Create(&request).Error; err != nil {
		respondError(c, err, "Registration error")
		return
	}

	log.Printf("✅ Registration request submitted for %s", email)
	c.JSON(http.StatusCreated, gin.H{
		"message": "Registration request submitted successfully. Awaiting admin approval.",
		"id":      request.ID,
	})
}

// Login handles user login
func (h *AuthHandler) Login(c *gin.Context) {
	var input models.LoginRequest
	if !bindJSON(c, &input) {
		return
	}

	var user models.User
	err := h.db.WithContext(c.Request.Context()).Where("email = ?", normalizeEmail(input.Email)).First(&user).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(c, err, "Login error")
		return
	}

	if err != nil || auth.CheckPassword(input.Password, user.Password) != nil {
		log.Printf("❌ Invalid login attempt for %s", input.Email)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	token, err := h.tokens.Generate(user.ID, string(user.Role))
	if err != nil {
		respondError(c, err, "Failed to generate token")
		return
	}

	log.Printf("✅ Login successful for %s with role %s", user.Email, user.Role)
	c.JSON(http.StatusOK, models.AuthResponse{
		Message: "Login successful",
		Token:   token,
		User:    user,
	})
}

// GetMe returns the current authenticated user
func (h *AuthHandler) GetMe(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, user)
}

// ChangePassword replaces the caller's password after checking the current one.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var input models.ChangePasswordRequest
	if !bindJSON(c, &input) {
		return
	}

	if auth.CheckPassword(input.CurrentPassword, user.Password) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Incorrect current password"})
		return
	}

	hashedPassword, err := auth.HashPassword(input.NewPassword)
	if err != nil {
		respondError(c, err, "Failed to hash password")
		return
	}

	result := h.db.WithContext(c.Request.Context()).
		Model(&models.User{}).
		Where("id = ?", user.ID).
		Update("password", hashedPassword)
	if result.Error != nil {
		respondError(c, result.Error, "Change password error")
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	log.Printf("✅ Password changed for user ID %s", user.ID)
	c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully"})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
