package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Alert struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Message   string    `gorm:"not null" json:"message"`
	CreatedBy uuid.UUID `gorm:"type:uuid;not null;index" json:"created_by"`
	Creator   User      `gorm:"foreignKey:CreatedBy" json:"-"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (a *Alert) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

type CreateAlertRequest struct {
	Message string `json:"message" binding:"required,notblank"`
}

type AlertIDRequest struct {
	AlertID uuid.UUID `json:"alert_id" binding:"required"`
}

type AlertView struct {
	Alert
	CreatedByName string `json:"created_by_name"`
}
