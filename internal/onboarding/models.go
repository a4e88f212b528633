package onboarding

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Draft types
const (
	TypeProspect = "PROSPECT"
	TypeClient   = "CLIENT"
)

// Payload is the sparse persisted shape of a draft. Optional fields are
// absent rather than empty, so the stored JSON only carries what the
// client actually filled in.
type Payload map[string]any

// Payload keys
const (
	FieldContactName         = "contact_name"
	FieldCompanyName         = "company_name"
	FieldEmail               = "email"
	FieldPhone               = "phone"
	FieldBusinessDescription = "business_description"
	FieldServices            = "services"
	FieldAudience            = "audience"
	FieldDomainOwned         = "domain_owned"
	FieldDomainName          = "domain_name"
	FieldHasBranding         = "has_branding"
	FieldReferenceURLs       = "reference_urls"
	FieldCustomPages         = "custom_pages"
	FieldBudgetRange         = "budget_range"
	FieldTimeline            = "timeline"
	FieldNotes               = "notes"
	FieldConfirm             = "confirm"
)

// OnboardingDraft is the persisted draft for one project. One active
// draft per project; rows are upserted, never deleted.
type OnboardingDraft struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProjectID uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"project_id"`
	Type      string         `gorm:"not null;default:'PROSPECT'" json:"type"`
	Payload   datatypes.JSON `gorm:"type:jsonb" json:"payload"`
	Completed bool           `gorm:"not null;default:false" json:"completed"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// CustomPage is one entry of the repeatable "pages you need" input.
type CustomPage struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// FormState is the complete in-memory questionnaire state as the client
// edits it, including transient placeholders for the dynamic lists.
// Booleans are pointers so "not answered" is distinguishable from false.
type FormState struct {
	ContactName string `json:"contact_name"`
	CompanyName string `json:"company_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`

	BusinessDescription string   `json:"business_description"`
	Services            []string `json:"services"`
	Audience            string   `json:"audience"`

	DomainOwned   *bool        `json:"domain_owned"`
	DomainName    string       `json:"domain_name"`
	HasBranding   *bool        `json:"has_branding"`
	ReferenceURLs []string     `json:"reference_urls"`
	CustomPages   []CustomPage `json:"custom_pages"`

	BudgetRange string `json:"budget_range"`
	Timeline    string `json:"timeline"`
	Notes       string `json:"notes"`

	Confirm *bool `json:"confirm"`
}

// FieldErrors maps a field name to the first error message recorded for it.
type FieldErrors map[string]string

// StepDefinition is one step of the fixed, linear questionnaire. Ordinals
// are contiguous 0..N-1 and the final step validates the full schema.
type StepDefinition struct {
	ID       string
	Ordinal  int
	Fields   []string
	Validate func(Payload) FieldErrors
}

// Progress is the snapshot reported to the portal UI.
type Progress struct {
	ProjectID       uuid.UUID   `json:"project_id"`
	CurrentStep     int         `json:"current_step"`
	CurrentStepID   string      `json:"current_step_id"`
	TotalSteps      int         `json:"total_steps"`
	PercentComplete int         `json:"percent_complete"`
	Completed       bool        `json:"completed"`
	Errors          FieldErrors `json:"errors,omitempty"`
	Saving          bool        `json:"saving"`
	LastSavedAt     *time.Time  `json:"last_saved_at,omitempty"`
	SaveError       string      `json:"save_error,omitempty"`
}
