package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type HouseRequestStatus string

const (
	HouseRequestPending  HouseRequestStatus = "pending"
	HouseRequestApproved HouseRequestStatus = "approved"
	HouseRequestRejected HouseRequestStatus = "rejected"
)

// HouseChangeRequest asks an admin to move a user to another house number.
// The partial unique index keeps at most one pending request per user.
type HouseChangeRequest struct {
	ID                   uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	UserID               uuid.UUID          `gorm:"type:uuid;not null;index;index:idx_house_request_pending,unique,where:status = 'pending'" json:"user_id"`
	User                 User               `gorm:"foreignKey:UserID" json:"-"`
	RequestedHouseNumber string             `gorm:"not null" json:"requested_house_number"`
	Status               HouseRequestStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	CreatedAt            time.Time          `json:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at"`
}

func (r *HouseChangeRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

type HouseChangeRequestBody struct {
	NewHouseNumber string `json:"new_house_number" binding:"required,notblank"`
}

type ProcessHouseRequestBody struct {
	RequestID uuid.UUID          `json:"request_id" binding:"required"`
	Status    HouseRequestStatus `json:"status" binding:"required,oneof=approved rejected"`
}

type HouseRequestView struct {
	HouseChangeRequest
	UserName           string  `json:"user_name"`
	UserEmail          string  `json:"user_email"`
	CurrentHouseNumber *string `json:"current_house_number"`
}
