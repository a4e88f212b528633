package projects

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Project types
const (
	TypeProspect = "PROSPECT"
	TypeClient   = "CLIENT"
)

// Project statuses
const (
	StatusLead       = "LEAD"
	StatusOnboarding = "ONBOARDING"
	StatusQuoted     = "QUOTED"
	StatusActive     = "ACTIVE"
	StatusArchived   = "ARCHIVED"
)

// Quote statuses
const (
	QuotePending  = "PENDING"
	QuoteSigned   = "SIGNED"
	QuoteDeclined = "DECLINED"
)

// Project is the funnel subject onboarding drafts and reminders attach to
type Project struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string         `gorm:"not null" json:"name"`
	Type      string         `gorm:"not null;default:'PROSPECT'" json:"type"`
	Status    string         `gorm:"not null;default:'LEAD'" json:"status"`
	OwnerID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"owner_id"`
	Progress  int            `gorm:"not null;default:0" json:"progress"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Quote is a priced proposal awaiting the client's signature
type Quote struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProjectID  uuid.UUID `gorm:"type:uuid;not null;index" json:"project_id"`
	OwnerID    uuid.UUID `gorm:"type:uuid;not null;index" json:"owner_id"`
	Reference  string    `gorm:"not null" json:"reference"`
	TotalCents int64     `gorm:"not null" json:"total_cents"`
	Currency   string    `gorm:"not null;default:'EUR'" json:"currency"`
	Status     string    `gorm:"not null;default:'PENDING'" json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
