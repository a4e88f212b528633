package projects

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixelframe/client-portal/client-portal-backend/internal/auth"
	"pixelframe/client-portal/client-portal-backend/internal/users"
)

type fakeProjectRepo struct {
	projects map[uuid.UUID]*Project
	quotes   map[uuid.UUID]*Quote
}

func newFakeProjectRepo() *fakeProjectRepo {
	return &fakeProjectRepo{
		projects: make(map[uuid.UUID]*Project),
		quotes:   make(map[uuid.UUID]*Quote),
	}
}

func (r *fakeProjectRepo) Create(ctx context.Context, project *Project) error {
	if project.ID == uuid.Nil {
		project.ID = uuid.New()
	}
	r.projects[project.ID] = project
	return nil
}

func (r *fakeProjectRepo) GetByID(ctx context.Context, id uuid.UUID) (*Project, error) {
	project, ok := r.projects[id]
	if !ok {
		return nil, ErrNotFound
	}
	return project, nil
}

func (r *fakeProjectRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Project, error) {
	var list []Project
	for _, p := range r.projects {
		if p.OwnerID == ownerID {
			list = append(list, *p)
		}
	}
	return list, nil
}

func (r *fakeProjectRepo) SetProgress(ctx context.Context, projectID uuid.UUID, progress int) error {
	if p, ok := r.projects[projectID]; ok {
		p.Progress = progress
	}
	return nil
}

func (r *fakeProjectRepo) CreateQuote(ctx context.Context, quote *Quote) error {
	if quote.ID == uuid.Nil {
		quote.ID = uuid.New()
	}
	r.quotes[quote.ID] = quote
	return nil
}

func (r *fakeProjectRepo) GetQuote(ctx context.Context, id uuid.UUID) (*Quote, error) {
	quote, ok := r.quotes[id]
	if !ok {
		return nil, ErrNotFound
	}
	return quote, nil
}

func (r *fakeProjectRepo) SetQuoteStatus(ctx context.Context, id uuid.UUID, status string) error {
	quote, ok := r.quotes[id]
	if !ok {
		return ErrNotFound
	}
	quote.Status = status
	return nil
}

func (r *fakeProjectRepo) StalledOnboarding(ctx context.Context, from, to time.Time) ([]Project, error) {
	return nil, nil
}

func (r *fakeProjectRepo) PendingQuotes(ctx context.Context, from, to time.Time) ([]Quote, error) {
	return nil, nil
}

func quoteStatusRequest(t *testing.T, handler *Handler, quoteID uuid.UUID, callerID uuid.UUID, role, status string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPut, "/quotes/"+quoteID.String()+"/status",
		strings.NewReader(`{"status":"`+status+`"}`))
	c.Params = gin.Params{{Key: "quoteID", Value: quoteID.String()}}
	auth.Identify(c, callerID, role)

	handler.UpdateQuoteStatus(c)
	return w
}

func TestUpdateQuoteStatusForbiddenForStranger(t *testing.T) {
	repo := newFakeProjectRepo()
	handler := NewHandler(NewService(repo), repo)

	ownerID := uuid.New()
	quote := &Quote{OwnerID: ownerID, ProjectID: uuid.New(), Reference: "Q-1", Status: QuotePending}
	require.NoError(t, repo.CreateQuote(context.Background(), quote))

	w := quoteStatusRequest(t, handler, quote.ID, uuid.New(), users.RoleClient, QuoteSigned)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, QuotePending, repo.quotes[quote.ID].Status, "a stranger must not move a quote")
}

func TestUpdateQuoteStatusOwnerCanSign(t *testing.T) {
	repo := newFakeProjectRepo()
	handler := NewHandler(NewService(repo), repo)

	ownerID := uuid.New()
	quote := &Quote{OwnerID: ownerID, ProjectID: uuid.New(), Reference: "Q-1", Status: QuotePending}
	require.NoError(t, repo.CreateQuote(context.Background(), quote))

	w := quoteStatusRequest(t, handler, quote.ID, ownerID, users.RoleClient, QuoteSigned)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, QuoteSigned, repo.quotes[quote.ID].Status)
}

func TestUpdateQuoteStatusStaffOverride(t *testing.T) {
	repo := newFakeProjectRepo()
	handler := NewHandler(NewService(repo), repo)

	quote := &Quote{OwnerID: uuid.New(), ProjectID: uuid.New(), Reference: "Q-1", Status: QuotePending}
	require.NoError(t, repo.CreateQuote(context.Background(), quote))

	w := quoteStatusRequest(t, handler, quote.ID, uuid.New(), users.RoleStaff, QuoteDeclined)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, QuoteDeclined, repo.quotes[quote.ID].Status)
}

func TestUpdateQuoteStatusUnknownQuote(t *testing.T) {
	repo := newFakeProjectRepo()
	handler := NewHandler(NewService(repo), repo)

	w := quoteStatusRequest(t, handler, uuid.New(), uuid.New(), users.RoleStaff, QuoteSigned)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateQuoteStatusRejectsUnknownStatus(t *testing.T) {
	repo := newFakeProjectRepo()
	handler := NewHandler(NewService(repo), repo)

	ownerID := uuid.New()
	quote := &Quote{OwnerID: ownerID, ProjectID: uuid.New(), Reference: "Q-1", Status: QuotePending}
	require.NoError(t, repo.CreateQuote(context.Background(), quote))

	w := quoteStatusRequest(t, handler, quote.ID, ownerID, users.RoleClient, "PAID")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, QuotePending, repo.quotes[quote.ID].Status)
}
