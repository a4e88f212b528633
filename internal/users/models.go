package users

import (
	"time"

	"github.com/google/uuid"
)

// Roles
const (
	RoleStaff  = "STAFF"
	RoleClient = "CLIENT"
)

// User is a portal account, staff or client
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Email        string    `gorm:"not null;uniqueIndex" json:"email"`
	Name         string    `gorm:"not null" json:"name"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Role         string    `gorm:"not null;default:'CLIENT'" json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Contact is the resolved email identity used by outbound channels
type Contact struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}
