package notifications

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Notification types
const (
	TypeReminder            = "REMINDER"
	TypeOnboardingCompleted = "ONBOARDING_COMPLETED"
	TypeInternalEscalation  = "INTERNAL_ESCALATION"
)

// Metadata keys. reminder_type is the dedup key for the sweep: the
// existence of a notification carrying it means that reminder kind
// already fired for that subject.
const (
	MetaReminderType = "reminder_type"
	MetaQuoteID      = "quote_id"
)

// Notification is an append-only ledger record. It doubles as the
// user-visible inbox entry and, for reminders, as the dedup marker.
// mark-read is the only permitted mutation; rows are never deleted.
type Notification struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	ProjectID *uuid.UUID     `gorm:"type:uuid;index" json:"project_id,omitempty"`
	Type      string         `gorm:"not null" json:"type"`
	Title     string         `gorm:"not null" json:"title"`
	Body      string         `json:"body"`
	Metadata  datatypes.JSON `gorm:"type:jsonb" json:"metadata"`
	ReadAt    *time.Time     `json:"read_at,omitempty"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

// NewOnboardingCompleted builds the owner-facing completion record.
func NewOnboardingCompleted(userID, projectID uuid.UUID) *Notification {
	pid := projectID
	return &Notification{
		UserID:    userID,
		ProjectID: &pid,
		Type:      TypeOnboardingCompleted,
		Title:     "Onboarding complete",
		Body:      "Thanks! Your answers are in — we'll prepare your quote and be in touch shortly.",
		Metadata:  mustMetadata(map[string]any{}),
	}
}

// NewReminder builds a reminder record tagged with the dedup metadata.
func NewReminder(userID, projectID uuid.UUID, kind, title, body string, quoteID *uuid.UUID) *Notification {
	pid := projectID
	meta := map[string]any{MetaReminderType: kind}
	if quoteID != nil {
		meta[MetaQuoteID] = quoteID.String()
	}
	return &Notification{
		UserID:    userID,
		ProjectID: &pid,
		Type:      TypeReminder,
		Title:     title,
		Body:      body,
		Metadata:  mustMetadata(meta),
	}
}

// NewEscalation builds the internal staff-facing record for a subject
// that sat through the longest reminder tier. Informational: it is not
// dedup-guarded per recipient.
func NewEscalation(staffID, projectID uuid.UUID, kind string, quoteID *uuid.UUID) *Notification {
	pid := projectID
	meta := map[string]any{MetaReminderType: kind}
	if quoteID != nil {
		meta[MetaQuoteID] = quoteID.String()
	}
	return &Notification{
		UserID:    staffID,
		ProjectID: &pid,
		Type:      TypeInternalEscalation,
		Title:     fmt.Sprintf("Stalled for a week (%s)", kind),
		Body:      "This one has been quiet for seven days. Worth a personal follow-up.",
		Metadata:  mustMetadata(meta),
	}
}

func mustMetadata(meta map[string]any) datatypes.JSON {
	data, err := json.Marshal(meta)
	if err != nil {
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(data)
}
