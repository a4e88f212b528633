package onboarding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrDraftNotFound is returned when a project has no draft yet.
var ErrDraftNotFound = errors.New("onboarding draft not found")

// Repository persists onboarding drafts
type Repository interface {
	GetDraft(ctx context.Context, projectID uuid.UUID) (*OnboardingDraft, error)
	// SaveDraft upserts the draft for a project. Payload and the completed
	// flag land in the same write so a reader can never observe
	// completed=true next to a stale payload.
	SaveDraft(ctx context.Context, projectID uuid.UUID, payload Payload, completed bool) error
}

// RepositoryImpl handles all database operations for drafts
type RepositoryImpl struct {
	db *gorm.DB
}

// NewRepository creates a new draft repository and migrates its table
func NewRepository(db *gorm.DB) (*RepositoryImpl, error) {
	if err := db.AutoMigrate(&OnboardingDraft{}); err != nil {
		return nil, fmt.Errorf("failed to migrate onboarding drafts: %w", err)
	}
	return &RepositoryImpl{db: db}, nil
}

func (r *RepositoryImpl) GetDraft(ctx context.Context, projectID uuid.UUID) (*OnboardingDraft, error) {
	var draft OnboardingDraft
	err := r.db.WithContext(ctx).Where("project_id = ?", projectID).First(&draft).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDraftNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read draft: %w", err)
	}
	return &draft, nil
}

func (r *RepositoryImpl) SaveDraft(ctx context.Context, projectID uuid.UUID, payload Payload, completed bool) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode draft payload: %w", err)
	}

	draft := OnboardingDraft{
		ProjectID: projectID,
		Type:      TypeProspect,
		Payload:   datatypes.JSON(data),
		Completed: completed,
	}

	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "project_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "completed", "updated_at"}),
	}).Create(&draft).Error
	if err != nil {
		return fmt.Errorf("failed to write draft: %w", err)
	}
	return nil
}

// DecodePayload unpacks the stored jsonb column.
func (d *OnboardingDraft) DecodePayload() (Payload, error) {
	if len(d.Payload) == 0 {
		return Payload{}, nil
	}
	var payload Payload
	if err := json.Unmarshal(d.Payload, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode draft payload: %w", err)
	}
	return payload, nil
}
