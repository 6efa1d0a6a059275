package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleResident Role = "resident"
	RoleWorker   Role = "worker"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleResident, RoleWorker:
		return true
	}
	return false
}

type User struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	Email       string    `gorm:"uniqueIndex;not null" json:"email"`
	Password    string    `gorm:"not null" json:"-"` // bcrypt hash
	Role        Role      `gorm:"type:varchar(20);not null;index" json:"role"`
	HouseNumber *string   `json:"house_number"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// RegistrationRequest is a pending self-registration awaiting an admin decision.
type RegistrationRequest struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	Email       string    `gorm:"uniqueIndex;not null" json:"email"`
	Password    string    `gorm:"not null" json:"-"`
	Role        Role      `gorm:"type:varchar(20);not null" json:"role"`
	HouseNumber string    `gorm:"not null" json:"house_number"`
	CreatedAt   time.Time `json:"created_at"`
}

func (r *RegistrationRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

type RegisterRequest struct {
	Name        string `json:"name" binding:"required,notblank"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=6"`
	HouseNumber string `json:"house_number" binding:"required,notblank"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=6"`
}

type AddUserRequest struct {
	Name        string `json:"name" binding:"required,notblank"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=6"`
	Role        Role   `json:"role" binding:"required"`
	HouseNumber string `json:"house_number"`
}

type ChangeRoleRequest struct {
	UserID  uuid.UUID `json:"user_id" binding:"required"`
	NewRole Role      `json:"new_role" binding:"required"`
}

type UserIDRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
}

type ProcessRegistrationRequest struct {
	RequestID uuid.UUID `json:"request_id" binding:"required"`
	Action    string    `json:"action" binding:"required,oneof=approve reject"`
}

type RequestIDRequest struct {
	RequestID uuid.UUID `json:"request_id" binding:"required"`
}

type AuthResponse struct {
	Token   string `json:"token"`
	User    User   `json:"user"`
	Message string `json:"message"`
}
