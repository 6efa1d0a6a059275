package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ComplaintStatus string

const (
	StatusOpen       ComplaintStatus = "Open"
	StatusInProgress ComplaintStatus = "in-progress"
	StatusResolved   ComplaintStatus = "resolved"
)

func (s ComplaintStatus) Valid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusResolved:
		return true
	}
	return false
}

type Complaint struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	User        User            `gorm:"foreignKey:UserID" json:"-"`
	Title       string          `gorm:"not null" json:"title"`
	Description string          `gorm:"not null" json:"description"`
	Category    string          `gorm:"not null" json:"category"`
	Status      ComplaintStatus `gorm:"type:varchar(20);not null" json:"status"`
	ImageURL    *string         `json:"image_url"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `gorm:"index" json:"last_updated"`
}

func (c *Complaint) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// ComplaintLike records that a user liked a complaint. A like is presence of
// the row; there is no counter column.
type ComplaintLike struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ComplaintID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_complaint_like_pair" json:"complaint_id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_complaint_like_pair;index" json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
}

func (ComplaintLike) TableName() string {
	return "complaint_likes"
}

func (l *ComplaintLike) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// SubmitComplaintRequest is bound from a multipart form; the image part is
// read separately.
type SubmitComplaintRequest struct {
	Title       string `form:"title" binding:"required,notblank"`
	Description string `form:"description" binding:"required,notblank"`
	Category    string `form:"category" binding:"required,notblank"`
}

type UpdateComplaintStatusRequest struct {
	ComplaintID uuid.UUID       `json:"complaint_id" binding:"required"`
	Status      ComplaintStatus `json:"status" binding:"required"`
}

type ComplaintIDRequest struct {
	ComplaintID uuid.UUID `json:"complaint_id" binding:"required"`
}

// ComplaintView is a complaint as returned by the list endpoint.
type ComplaintView struct {
	Complaint
	UserName     string      `json:"user_name"`
	LikeCount    int         `json:"like_count"`
	LikingUsers  []uuid.UUID `json:"liking_users"`
	UserHasLiked bool        `json:"user_has_liked"`
}
