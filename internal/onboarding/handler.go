package onboarding

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"pixelframe/client-portal/client-portal-backend/internal/auth"
	"pixelframe/client-portal/client-portal-backend/internal/projects"
)

// ProjectDirectory is the slice of the projects repository the handler
// needs to check ownership and render the empty state
type ProjectDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*projects.Project, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]projects.Project, error)
}

type Handler struct {
	sessions *SessionManager
	projects ProjectDirectory
	logger   *zap.Logger
}

func NewHandler(sessions *SessionManager, directory ProjectDirectory, logger *zap.Logger) *Handler {
	return &Handler{sessions: sessions, projects: directory, logger: logger}
}

// Overview lists the caller's projects. An account with zero projects is
// a neutral empty state, not an error.
func (h *Handler) Overview(c *gin.Context) {
	userID, ok := auth.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	list, err := h.projects.ListByOwner(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list projects"})
		return
	}
	if len(list) == 0 {
		c.JSON(http.StatusOK, gin.H{"projects": []projects.Project{}, "empty": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": list, "empty": false})
}

// Snapshot returns the session state for one project.
func (h *Handler) Snapshot(c *gin.Context) {
	machine, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"progress": machine.Snapshot(),
		"state":    machine.State(),
	})
}

// UpdateState accepts the full form state and feeds the autosave engine.
func (h *Handler) UpdateState(c *gin.Context) {
	machine, ok := h.session(c)
	if !ok {
		return
	}
	var state FormState
	if err := c.ShouldBindJSON(&state); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid form state"})
		return
	}
	machine.UpdateState(state)
	c.JSON(http.StatusOK, gin.H{"progress": machine.Snapshot()})
}

// ValidateStep runs one step's schema against a submitted form state
// without touching the session or persisted draft.
func (h *Handler) ValidateStep(c *gin.Context) {
	var state FormState
	if err := c.ShouldBindJSON(&state); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid form state"})
		return
	}
	errs, err := ValidateStep(c.Param("stepID"), Normalize(state))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if len(errs) > 0 {
		c.JSON(http.StatusOK, gin.H{"ok": false, "errors": errs})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Advance moves to the next step when the current one validates.
func (h *Handler) Advance(c *gin.Context) {
	machine, ok := h.session(c)
	if !ok {
		return
	}
	if errs := machine.Advance(c.Request.Context()); len(errs) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": errs, "progress": machine.Snapshot()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"progress": machine.Snapshot()})
}

// Retreat moves back one step; never validates.
func (h *Handler) Retreat(c *gin.Context) {
	machine, ok := h.session(c)
	if !ok {
		return
	}
	machine.Retreat()
	c.JSON(http.StatusOK, gin.H{"progress": machine.Snapshot()})
}

// Finalize completes the onboarding from the last step.
func (h *Handler) Finalize(c *gin.Context) {
	machine, ok := h.session(c)
	if !ok {
		return
	}
	errs, err := machine.Finalize(c.Request.Context())
	if errors.Is(err, ErrNotOnFinalStep) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.logger.Error("finalize failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to complete onboarding"})
		return
	}
	if len(errs) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": errs, "progress": machine.Snapshot()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"completed": true, "progress": machine.Snapshot()})
}

// Edit re-opens a completed draft at step 0.
func (h *Handler) Edit(c *gin.Context) {
	machine, ok := h.session(c)
	if !ok {
		return
	}
	machine.EditAfterCompletion()
	c.JSON(http.StatusOK, gin.H{"progress": machine.Snapshot()})
}

// CloseSession flushes and drops the editing session.
func (h *Handler) CloseSession(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("projectID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project id"})
		return
	}
	h.sessions.Release(c.Request.Context(), projectID)
	c.JSON(http.StatusOK, gin.H{"released": true})
}

// session resolves the project, checks access and returns the live
// machine. Writes the error response itself when it returns false.
func (h *Handler) session(c *gin.Context) (*Machine, bool) {
	userID, ok := auth.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return nil, false
	}

	projectID, err := uuid.Parse(c.Param("projectID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project id"})
		return nil, false
	}

	project, err := h.projects.GetByID(c.Request.Context(), projectID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
		return nil, false
	}

	staff := auth.IsStaff(c)
	if project.OwnerID != userID && !staff {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your project"})
		return nil, false
	}

	machine, err := h.sessions.Get(c.Request.Context(), projectID, project.OwnerID, staff)
	if err != nil {
		h.logger.Error("failed to open onboarding session",
			zap.String("project_id", projectID.String()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open onboarding session"})
		return nil, false
	}
	return machine, true
}
