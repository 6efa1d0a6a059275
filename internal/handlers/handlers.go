package handlers

import (
	"gorm.io/gorm"

	"github.com/societyvoice/backend/internal/auth"
	"github.com/societyvoice/backend/internal/storage"
)

// Handler combines all handler types
type Handler struct {
	Auth         *AuthHandler
	Registration *RegistrationHandler
	User         *UserHandler
	Complaint    *ComplaintHandler
	Poll         *PollHandler
	Alert        *AlertHandler
	House        *HouseHandler
}

// NewHandler creates a unified handler with all sub-handlers
func NewHandler(db *gorm.DB, uploads *storage.Store, tokens *auth.TokenManager) *Handler {
	return &Handler{
		Auth:         NewAuthHandler(db, tokens),
		Registration: NewRegistrationHandler(db),
		User:         NewUserHandler(db, uploads),
		Complaint:    NewComplaintHandler(db, uploads),
		Poll:         NewPollHandler(db),
		Alert:        NewAlertHandler(db),
		House:        NewHouseHandler(db),
	}
}
