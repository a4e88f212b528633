package onboarding

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrNotOnFinalStep is returned when finalize is requested early.
var ErrNotOnFinalStep = errors.New("finalize is only available from the last step")

// Machine owns one editing session: the current step ordinal, the raw
// form state, the per-field errors and the completion flag. It drives the
// normalizer, validator, autosave engine and finalizer.
type Machine struct {
	logger    *zap.Logger
	repo      Repository
	autosave  *AutosaveEngine
	finalizer *Finalizer
	progress  ProgressRecorder

	mu        sync.Mutex
	projectID uuid.UUID
	ownerID   uuid.UUID
	staff     bool
	state     FormState
	ordinal   int
	completed bool
	errors    FieldErrors
}

// NewMachine creates a machine. Call JumpToProject before anything else.
func NewMachine(repo Repository, autosave *AutosaveEngine, finalizer *Finalizer, progress ProgressRecorder, staff bool, logger *zap.Logger) *Machine {
	return &Machine{
		logger:    logger,
		repo:      repo,
		autosave:  autosave,
		finalizer: finalizer,
		progress:  progress,
		staff:     staff,
		errors:    FieldErrors{},
	}
}

// JumpToProject switches the active subject: ordinal back to 0, defaults
// reloaded from the persisted draft, autosave baseline re-primed so the
// initial load does not re-save identical data.
func (m *Machine) JumpToProject(ctx context.Context, projectID, ownerID uuid.UUID) error {
	payload := Payload{}
	completed := false

	draft, err := m.repo.GetDraft(ctx, projectID)
	switch {
	case errors.Is(err, ErrDraftNotFound):
		// First visit: the draft is created by the first autosave.
	case err != nil:
		return fmt.Errorf("failed to load draft: %w", err)
	default:
		payload, err = draft.DecodePayload()
		if err != nil {
			return err
		}
		completed = draft.Completed
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.projectID = projectID
	m.ownerID = ownerID
	m.state = StateFromPayload(payload)
	m.ordinal = 0
	m.completed = completed
	m.errors = FieldErrors{}

	m.autosave.Rebase(projectID, payload, completed)
	if completed && m.staff {
		// Privileged staff keep autosave live on completed drafts.
		m.autosave.SetReadOnly(false)
	}
	return nil
}

// UpdateState records a form change and lets the autosave engine observe it.
func (m *Machine) UpdateState(state FormState) {
	m.mu.Lock()
	m.state = state
	m.mu.Unlock()
	m.autosave.Observe(state)
}

// Advance validates the current step against the normalized payload. On
// failure the ordinal does not move and the step's field errors are
// recorded; on success only that step's field errors are cleared, so
// other steps' errors survive a revisit.
func (m *Machine) Advance(ctx context.Context) FieldErrors {
	m.mu.Lock()
	defer m.mu.Unlock()

	step := Steps[m.ordinal]
	errs := step.Validate(Normalize(m.state))
	if len(errs) > 0 {
		for field, msg := range errs {
			m.errors[field] = msg
		}
		return errs
	}

	for _, field := range step.Fields {
		delete(m.errors, field)
	}
	if m.ordinal < len(Steps)-1 {
		m.ordinal++
	}
	m.recordProgressLocked(ctx)
	return nil
}

// Retreat moves back one step, clamped at 0, without re-validating.
func (m *Machine) Retreat() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ordinal > 0 {
		m.ordinal--
	}
}

// Finalize runs the final schema over the built payload and, on success,
// persists completed=true and switches the session to read-only.
func (m *Machine) Finalize(ctx context.Context) (FieldErrors, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ordinal != len(Steps)-1 {
		return nil, ErrNotOnFinalStep
	}

	final, errs, err := m.finalizer.Finalize(ctx, m.projectID, m.ownerID, m.state)
	if err != nil {
		return nil, err
	}
	if len(errs) > 0 {
		for field, msg := range errs {
			m.errors[field] = msg
		}
		return errs, nil
	}

	m.completed = true
	m.errors = FieldErrors{}
	m.state = StateFromPayload(final)
	m.autosave.markCompleted(final)
	m.recordProgressLocked(ctx)

	m.logger.Info("onboarding completed",
		zap.String("project_id", m.projectID.String()))
	return nil, nil
}

// EditAfterCompletion re-enters step 0 on a completed draft. The
// completed flag stays true until the next successful finalize.
func (m *Machine) EditAfterCompletion() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ordinal = 0
	m.autosave.SetReadOnly(false)
}

// Snapshot reports the session state for the UI.
func (m *Machine) Snapshot() Progress {
	m.mu.Lock()
	defer m.mu.Unlock()

	save := m.autosave.Status()
	snapshot := Progress{
		ProjectID:       m.projectID,
		CurrentStep:     m.ordinal,
		CurrentStepID:   Steps[m.ordinal].ID,
		TotalSteps:      len(Steps),
		PercentComplete: m.percentLocked(),
		Completed:       m.completed,
		Saving:          save.Saving,
		LastSavedAt:     save.LastSavedAt,
	}
	if len(m.errors) > 0 {
		snapshot.Errors = m.errors
	}
	if save.Err != nil {
		snapshot.SaveError = save.Err.Error()
	}
	return snapshot
}

// State returns a copy of the current raw form state.
func (m *Machine) State() FormState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Completed reports the completion flag.
func (m *Machine) Completed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.completed
}

// Ordinal returns the current step index.
func (m *Machine) Ordinal() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ordinal
}

func (m *Machine) percentLocked() int {
	if m.completed {
		return 100
	}
	return m.ordinal * 100 / len(Steps)
}

func (m *Machine) recordProgressLocked(ctx context.Context) {
	if m.progress == nil {
		return
	}
	if err := m.progress.SetProgress(ctx, m.projectID, m.percentLocked()); err != nil {
		m.logger.Warn("failed to record onboarding progress",
			zap.String("project_id", m.projectID.String()),
			zap.Error(err))
	}
}
