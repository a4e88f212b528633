package onboarding

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultDebounce is how long the engine waits after the last change
// before persisting.
const DefaultDebounce = 600 * time.Millisecond

// SaveStatus is the engine state surfaced to the UI. A failed save is a
// transient status, never a hard error: the draft keeps its previous
// signature so the next change retries naturally.
type SaveStatus struct {
	Saving      bool
	LastSavedAt *time.Time
	Err         error
}

// AutosaveEngine observes raw form state and persists the normalized
// payload when it actually changed. At most one pending timer exists at a
// time; a new change cancels and reschedules instead of queuing.
type AutosaveEngine struct {
	repo     Repository
	logger   *zap.Logger
	debounce time.Duration

	mu          sync.Mutex
	timer       *time.Timer
	projectID   uuid.UUID
	state       FormState
	lastSig     string
	primed      bool
	readOnly    bool
	completed   bool
	saving      bool
	lastErr     error
	lastSavedAt time.Time
}

// NewAutosaveEngine creates an engine. A zero debounce falls back to
// DefaultDebounce.
func NewAutosaveEngine(repo Repository, logger *zap.Logger, debounce time.Duration) *AutosaveEngine {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &AutosaveEngine{
		repo:     repo,
		logger:   logger,
		debounce: debounce,
	}
}

// Rebase re-points the engine at a project after a subject switch. The
// baseline payload becomes the confirmed signature and the engine arms
// the primed flag so that the first unchanged observation after loading
// does not trigger a spurious save.
func (e *AutosaveEngine) Rebase(projectID uuid.UUID, baseline Payload, completed bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.cancelTimerLocked()
	e.projectID = projectID
	e.state = StateFromPayload(baseline)
	e.lastSig = Signature(Normalize(e.state))
	e.primed = true
	e.completed = completed
	e.readOnly = completed
	e.saving = false
	e.lastErr = nil
}

// SetReadOnly toggles suppression. Staff editing a completed draft call
// this with false after EditAfterCompletion.
func (e *AutosaveEngine) SetReadOnly(readOnly bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.readOnly = readOnly
}

// markCompleted records that the draft was finalized; subsequent saves
// must not clear the flag.
func (e *AutosaveEngine) markCompleted(payload Payload) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelTimerLocked()
	e.completed = true
	e.readOnly = true
	e.lastSig = Signature(payload)
	e.state = StateFromPayload(payload)
}

// Observe records the latest form state and schedules a debounced save.
// While the primed flag is armed an unchanged signature suppresses the
// save entirely; a changed signature proceeds anyway, because the user
// edited before the baseline settled.
func (e *AutosaveEngine) Observe(state FormState) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.readOnly {
		return
	}

	e.state = state
	sig := Signature(Normalize(state))

	if e.primed {
		e.primed = false
		if sig == e.lastSig {
			return
		}
	}

	e.cancelTimerLocked()
	e.timer = time.AfterFunc(e.debounce, func() {
		// Errors are recorded in the status; the next change retries.
		_ = e.save(context.Background())
	})
}

// Flush cancels any pending timer and saves synchronously. Used when a
// step unmounts and in tests.
func (e *AutosaveEngine) Flush(ctx context.Context) error {
	e.mu.Lock()
	e.cancelTimerLocked()
	e.mu.Unlock()
	return e.save(ctx)
}

// save recomputes the signature from the latest observed state, since the
// form may have changed during the debounce window. Only a signature that
// differs from the last confirmed one touches the network.
func (e *AutosaveEngine) save(ctx context.Context) error {
	e.mu.Lock()
	e.timer = nil
	if e.readOnly {
		e.mu.Unlock()
		return nil
	}
	projectID := e.projectID
	completed := e.completed
	payload := Normalize(e.state)
	sig := Signature(payload)
	if sig == e.lastSig {
		e.mu.Unlock()
		return nil
	}
	e.saving = true
	e.mu.Unlock()

	err := e.repo.SaveDraft(ctx, projectID, payload, completed)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.saving = false
	if err != nil {
		// Keep the previous signature so the next cycle retries.
		e.lastErr = err
		e.logger.Warn("autosave failed",
			zap.String("project_id", projectID.String()),
			zap.Error(err))
		return err
	}
	e.lastSig = sig
	e.lastErr = nil
	e.lastSavedAt = time.Now()
	e.logger.Debug("draft autosaved",
		zap.String("project_id", projectID.String()),
		zap.Int("fields", len(payload)))
	return nil
}

// Status reports the current save state for the UI.
func (e *AutosaveEngine) Status() SaveStatus {
	e.mu.Lock()
	defer e.mu.Unlock()

	status := SaveStatus{Saving: e.saving, Err: e.lastErr}
	if !e.lastSavedAt.IsZero() {
		at := e.lastSavedAt
		status.LastSavedAt = &at
	}
	return status
}

// Close stops any pending timer without saving.
func (e *AutosaveEngine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelTimerLocked()
}

func (e *AutosaveEngine) cancelTimerLocked() {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}
