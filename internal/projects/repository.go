package projects

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrNotFound is returned for missing projects or quotes.
var ErrNotFound = errors.New("not found")

// Repository provides project and quote data access
type Repository interface {
	Create(ctx context.Context, project *Project) error
	GetByID(ctx context.Context, id uuid.UUID) (*Project, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Project, error)
	SetProgress(ctx context.Context, projectID uuid.UUID, progress int) error

	CreateQuote(ctx context.Context, quote *Quote) error
	GetQuote(ctx context.Context, id uuid.UUID) (*Quote, error)
	SetQuoteStatus(ctx context.Context, id uuid.UUID, status string) error

	// StalledOnboarding returns projects created in [from, to) whose
	// onboarding progress is still below 100. A zero from leaves the
	// window open-ended on the old side.
	StalledOnboarding(ctx context.Context, from, to time.Time) ([]Project, error)
	// PendingQuotes returns quotes created in [from, to) still pending.
	PendingQuotes(ctx context.Context, from, to time.Time) ([]Quote, error)
}

// RepositoryImpl handles all database operations for projects
type RepositoryImpl struct {
	db *gorm.DB
}

// NewRepository creates a project repository and migrates its tables
func NewRepository(db *gorm.DB) (*RepositoryImpl, error) {
	if err := db.AutoMigrate(&Project{}, &Quote{}); err != nil {
		return nil, fmt.Errorf("failed to migrate projects: %w", err)
	}
	return &RepositoryImpl{db: db}, nil
}

func (r *RepositoryImpl) Create(ctx context.Context, project *Project) error {
	if err := r.db.WithContext(ctx).Create(project).Error; err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}

func (r *RepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*Project, error) {
	var project Project
	err := r.db.WithContext(ctx).First(&project, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return &project, nil
}

func (r *RepositoryImpl) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Project, error) {
	var list []Project
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return list, nil
}

func (r *RepositoryImpl) SetProgress(ctx context.Context, projectID uuid.UUID, progress int) error {
	err := r.db.WithContext(ctx).Model(&Project{}).
		Where("id = ?", projectID).
		Update("progress", progress).Error
	if err != nil {
		return fmt.Errorf("failed to set progress: %w", err)
	}
	return nil
}

func (r *RepositoryImpl) CreateQuote(ctx context.Context, quote *Quote) error {
	if err := r.db.WithContext(ctx).Create(quote).Error; err != nil {
		return fmt.Errorf("failed to create quote: %w", err)
	}
	return nil
}

func (r *RepositoryImpl) GetQuote(ctx context.Context, id uuid.UUID) (*Quote, error) {
	var quote Quote
	err := r.db.WithContext(ctx).First(&quote, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}
	return &quote, nil
}

func (r *RepositoryImpl) SetQuoteStatus(ctx context.Context, id uuid.UUID, status string) error {
	result := r.db.WithContext(ctx).Model(&Quote{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("failed to set quote status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *RepositoryImpl) StalledOnboarding(ctx context.Context, from, to time.Time) ([]Project, error) {
	query := r.db.WithContext(ctx).
		Where("progress < ?", 100).
		Where("created_at < ?", to)
	if !from.IsZero() {
		query = query.Where("created_at >= ?", from)
	}

	var list []Project
	if err := query.Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to query stalled onboarding: %w", err)
	}
	return list, nil
}

func (r *RepositoryImpl) PendingQuotes(ctx context.Context, from, to time.Time) ([]Quote, error) {
	query := r.db.WithContext(ctx).
		Where("status = ?", QuotePending).
		Where("created_at < ?", to)
	if !from.IsZero() {
		query = query.Where("created_at >= ?", from)
	}

	var list []Quote
	if err := query.Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to query pending quotes: %w", err)
	}
	return list, nil
}
