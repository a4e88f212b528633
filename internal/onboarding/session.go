package onboarding

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// defaultIdleTTL is how long an untouched session survives before the
	// janitor flushes and drops it.
	defaultIdleTTL  = 30 * time.Minute
	janitorInterval = 5 * time.Minute
)

type session struct {
	machine  *Machine
	lastUsed time.Time
}

// SessionManager hands out one machine per project editing session. Each
// machine gets its own autosave engine so there is exactly one pending
// debounce timer per mounted session. Sessions the client never releases
// are evicted after an idle TTL so a long-lived process does not
// accumulate dead machines.
type SessionManager struct {
	repo      Repository
	finalizer *Finalizer
	progress  ProgressRecorder
	debounce  time.Duration
	idleTTL   time.Duration
	logger    *zap.Logger
	done      chan struct{}

	mu       sync.Mutex
	sessions map[uuid.UUID]*session
}

// NewSessionManager creates a session manager and starts its eviction
// janitor. Call Stop to halt the janitor.
func NewSessionManager(repo Repository, finalizer *Finalizer, progress ProgressRecorder, debounce time.Duration, logger *zap.Logger) *SessionManager {
	sm := &SessionManager{
		repo:      repo,
		finalizer: finalizer,
		progress:  progress,
		debounce:  debounce,
		idleTTL:   defaultIdleTTL,
		logger:    logger,
		done:      make(chan struct{}),
		sessions:  make(map[uuid.UUID]*session),
	}
	go sm.janitor()
	return sm
}

// Get returns the live session for a project, creating and loading one if
// needed. Concurrent editors share the session; last write wins on the
// persisted draft, which is the documented tolerance.
func (sm *SessionManager) Get(ctx context.Context, projectID, ownerID uuid.UUID, staff bool) (*Machine, error) {
	sm.mu.Lock()
	if s, ok := sm.sessions[projectID]; ok {
		s.lastUsed = time.Now()
		sm.mu.Unlock()
		return s.machine, nil
	}
	sm.mu.Unlock()

	engine := NewAutosaveEngine(sm.repo, sm.logger, sm.debounce)
	machine := NewMachine(sm.repo, engine, sm.finalizer, sm.progress, staff, sm.logger)
	if err := machine.JumpToProject(ctx, projectID, ownerID); err != nil {
		engine.Close()
		return nil, err
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()
	if existing, ok := sm.sessions[projectID]; ok {
		// Raced with another request; keep the first session.
		engine.Close()
		existing.lastUsed = time.Now()
		return existing.machine, nil
	}
	sm.sessions[projectID] = &session{machine: machine, lastUsed: time.Now()}
	return machine, nil
}

// Release flushes any pending save and drops the session.
func (sm *SessionManager) Release(ctx context.Context, projectID uuid.UUID) {
	sm.mu.Lock()
	s, ok := sm.sessions[projectID]
	if ok {
		delete(sm.sessions, projectID)
	}
	sm.mu.Unlock()

	if !ok {
		return
	}
	sm.shutdown(ctx, projectID, s.machine)
}

// Stop halts the eviction janitor. Live sessions stay usable.
func (sm *SessionManager) Stop() {
	close(sm.done)
}

func (sm *SessionManager) janitor() {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-sm.done:
			return
		case <-ticker.C:
			sm.evictIdle(time.Now().Add(-sm.idleTTL))
		}
	}
}

// evictIdle drops every session last touched before the cutoff, flushing
// pending saves the same way Release does.
func (sm *SessionManager) evictIdle(cutoff time.Time) {
	type expired struct {
		projectID uuid.UUID
		machine   *Machine
	}

	sm.mu.Lock()
	var victims []expired
	for projectID, s := range sm.sessions {
		if s.lastUsed.Before(cutoff) {
			delete(sm.sessions, projectID)
			victims = append(victims, expired{projectID: projectID, machine: s.machine})
		}
	}
	sm.mu.Unlock()

	for _, v := range victims {
		sm.logger.Info("evicting idle onboarding session",
			zap.String("project_id", v.projectID.String()))
		sm.shutdown(context.Background(), v.projectID, v.machine)
	}
}

func (sm *SessionManager) shutdown(ctx context.Context, projectID uuid.UUID, machine *Machine) {
	if err := machine.autosave.Flush(ctx); err != nil {
		sm.logger.Warn("failed to flush draft on session shutdown",
			zap.String("project_id", projectID.String()),
			zap.Error(err))
	}
	machine.autosave.Close()
}
