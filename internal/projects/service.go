package projects

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// CreateProjectRequest is the staff-facing project creation payload
type CreateProjectRequest struct {
	Name    string    `json:"name"`
	Type    string    `json:"type"`
	OwnerID uuid.UUID `json:"owner_id"`
}

// CreateQuoteRequest creates a quote against a project
type CreateQuoteRequest struct {
	ProjectID  uuid.UUID `json:"project_id"`
	Reference  string    `json:"reference"`
	TotalCents int64     `json:"total_cents"`
	Currency   string    `json:"currency"`
}

// Service provides project business logic
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreateProject(ctx context.Context, req CreateProjectRequest) (*Project, error) {
	if req.Name == "" {
		return nil, errors.New("name is required")
	}
	if req.OwnerID == uuid.Nil {
		return nil, errors.New("owner_id is required")
	}

	projectType := req.Type
	if projectType == "" {
		projectType = TypeProspect
	}
	if projectType != TypeProspect && projectType != TypeClient {
		return nil, fmt.Errorf("unknown project type %q", projectType)
	}

	project := &Project{
		Name:    req.Name,
		Type:    projectType,
		Status:  StatusLead,
		OwnerID: req.OwnerID,
	}
	if err := s.repo.Create(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

func (s *Service) CreateQuote(ctx context.Context, req CreateQuoteRequest) (*Quote, error) {
	if req.Reference == "" {
		return nil, errors.New("reference is required")
	}
	if req.TotalCents <= 0 {
		return nil, errors.New("total must be positive")
	}

	project, err := s.repo.GetByID(ctx, req.ProjectID)
	if err != nil {
		return nil, err
	}

	currency := req.Currency
	if currency == "" {
		currency = "EUR"
	}

	quote := &Quote{
		ProjectID:  project.ID,
		OwnerID:    project.OwnerID,
		Reference:  req.Reference,
		TotalCents: req.TotalCents,
		Currency:   currency,
		Status:     QuotePending,
	}
	if err := s.repo.CreateQuote(ctx, quote); err != nil {
		return nil, err
	}
	return quote, nil
}

func (s *Service) UpdateQuoteStatus(ctx context.Context, id uuid.UUID, status string) error {
	switch status {
	case QuotePending, QuoteSigned, QuoteDeclined:
	default:
		return fmt.Errorf("unknown quote status %q", status)
	}
	return s.repo.SetQuoteStatus(ctx, id, status)
}
