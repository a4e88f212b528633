package onboarding

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// fakeDraftRepo is an in-memory Repository shared by the autosave and
// machine tests.
type fakeDraftRepo struct {
	mu     sync.Mutex
	drafts map[uuid.UUID]*OnboardingDraft
	saves  int
	fail   bool
}

func newFakeDraftRepo() *fakeDraftRepo {
	return &fakeDraftRepo{drafts: make(map[uuid.UUID]*OnboardingDraft)}
}

func (r *fakeDraftRepo) GetDraft(ctx context.Context, projectID uuid.UUID) (*OnboardingDraft, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	draft, ok := r.drafts[projectID]
	if !ok {
		return nil, ErrDraftNotFound
	}
	copied := *draft
	return &copied, nil
}

func (r *fakeDraftRepo) SaveDraft(ctx context.Context, projectID uuid.UUID, payload Payload, completed bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errors.New("connection refused")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	r.drafts[projectID] = &OnboardingDraft{
		ProjectID: projectID,
		Type:      TypeProspect,
		Payload:   datatypes.JSON(data),
		Completed: completed,
	}
	r.saves++
	return nil
}

func (r *fakeDraftRepo) saveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saves
}

func (r *fakeDraftRepo) setFail(fail bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fail = fail
}

func (r *fakeDraftRepo) seed(t *testing.T, projectID uuid.UUID, payload Payload, completed bool) {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drafts[projectID] = &OnboardingDraft{
		ProjectID: projectID,
		Type:      TypeProspect,
		Payload:   datatypes.JSON(data),
		Completed: completed,
	}
}

func newTestEngine(repo Repository, debounce time.Duration) *AutosaveEngine {
	return NewAutosaveEngine(repo, zap.NewNop(), debounce)
}

func TestAutosaveCoalescesBurstsIntoOneSave(t *testing.T) {
	repo := newFakeDraftRepo()
	engine := newTestEngine(repo, 20*time.Millisecond)
	defer engine.Close()

	projectID := uuid.New()
	engine.Rebase(projectID, Payload{}, false)

	state := FormState{ContactName: "A"}
	engine.Observe(state)
	state.ContactName = "Ad"
	engine.Observe(state)
	state.ContactName = "Ada"
	engine.Observe(state)

	assert.Eventually(t, func() bool { return repo.saveCount() == 1 },
		time.Second, 5*time.Millisecond)

	draft, err := repo.GetDraft(context.Background(), projectID)
	require.NoError(t, err)
	payload, err := draft.DecodePayload()
	require.NoError(t, err)
	assert.Equal(t, "Ada", payload[FieldContactName], "only the latest state is persisted")

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, repo.saveCount(), "a burst must produce exactly one write")
}

func TestAutosavePrimedSuppressesUnchangedBaseline(t *testing.T) {
	repo := newFakeDraftRepo()
	engine := newTestEngine(repo, 10*time.Millisecond)
	defer engine.Close()

	baseline := Normalize(validState())
	engine.Rebase(uuid.New(), baseline, false)

	// Reloading the same data into the form must not re-save it.
	engine.Observe(StateFromPayload(baseline))

	require.NoError(t, engine.Flush(context.Background()))
	assert.Equal(t, 0, repo.saveCount())
}

func TestAutosavePrimedProceedsWhenChanged(t *testing.T) {
	repo := newFakeDraftRepo()
	engine := newTestEngine(repo, 10*time.Millisecond)
	defer engine.Close()

	baseline := Normalize(validState())
	engine.Rebase(uuid.New(), baseline, false)

	changed := validState()
	changed.Notes = "edited before the baseline settled"
	engine.Observe(changed)

	require.NoError(t, engine.Flush(context.Background()))
	assert.Equal(t, 1, repo.saveCount())
}

func TestAutosaveSkipsWriteWhenStateRevertsBeforeFiring(t *testing.T) {
	repo := newFakeDraftRepo()
	engine := newTestEngine(repo, 40*time.Millisecond)
	defer engine.Close()

	baseline := validState()
	engine.Rebase(uuid.New(), Normalize(baseline), false)

	changed := validState()
	changed.Notes = "transient edit"
	engine.Observe(changed)

	// The user undoes the edit before the debounce fires. The signature
	// is recomputed at fire time, so nothing is written.
	engine.Observe(baseline)

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 0, repo.saveCount())
}

func TestAutosaveFailureKeepsSignatureForRetry(t *testing.T) {
	repo := newFakeDraftRepo()
	repo.setFail(true)
	engine := newTestEngine(repo, 10*time.Millisecond)
	defer engine.Close()

	engine.Rebase(uuid.New(), Payload{}, false)
	engine.Observe(FormState{ContactName: "Ada"})

	err := engine.Flush(context.Background())
	assert.Error(t, err)
	assert.Error(t, engine.Status().Err)
	assert.Equal(t, 0, repo.saveCount())

	// Same state, repo healthy again: the unchanged signature still
	// differs from the last confirmed one, so the flush retries.
	repo.setFail(false)
	require.NoError(t, engine.Flush(context.Background()))
	assert.Equal(t, 1, repo.saveCount())
	assert.NoError(t, engine.Status().Err)
	assert.NotNil(t, engine.Status().LastSavedAt)

	// Confirmed now: another flush is a no-op.
	require.NoError(t, engine.Flush(context.Background()))
	assert.Equal(t, 1, repo.saveCount())
}

func TestAutosaveReadOnlyOnCompletedDraft(t *testing.T) {
	repo := newFakeDraftRepo()
	engine := newTestEngine(repo, 10*time.Millisecond)
	defer engine.Close()

	final := BuildFinalPayload(Normalize(validState()))
	engine.Rebase(uuid.New(), final, true)

	changed := validState()
	changed.Notes = "should not land"
	engine.Observe(changed)

	require.NoError(t, engine.Flush(context.Background()))
	assert.Equal(t, 0, repo.saveCount())
}

func TestAutosavePreservesCompletedFlagDuringStaffEdit(t *testing.T) {
	repo := newFakeDraftRepo()
	engine := newTestEngine(repo, 10*time.Millisecond)
	defer engine.Close()

	projectID := uuid.New()
	final := BuildFinalPayload(Normalize(validState()))
	engine.Rebase(projectID, final, true)
	engine.SetReadOnly(false)

	changed := validState()
	changed.Notes = "staff correction"
	engine.Observe(changed)

	require.NoError(t, engine.Flush(context.Background()))

	draft, err := repo.GetDraft(context.Background(), projectID)
	require.NoError(t, err)
	assert.True(t, draft.Completed, "a staff edit must not clear the completed flag")
}
