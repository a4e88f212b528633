package reminders

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

	"pixelframe/client-portal/client-portal-backend/internal/events"
	"pixelframe/client-portal/client-portal-backend/internal/notifications"
	"pixelframe/client-portal/client-portal-backend/internal/projects"
	"pixelframe/client-portal/client-portal-backend/internal/users"
)

type fakeProjectSource struct {
	projects []projects.Project
}

func (s *fakeProjectSource) StalledOnboarding(ctx context.Context, from, to time.Time) ([]projects.Project, error) {
	var out []projects.Project
	for _, p := range s.projects {
		if p.Progress >= 100 {
			continue
		}
		if !p.CreatedAt.Before(to) {
			continue
		}
		if !from.IsZero() && p.CreatedAt.Before(from) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

type fakeQuoteSource struct {
	quotes []projects.Quote
}

func (s *fakeQuoteSource) PendingQuotes(ctx context.Context, from, to time.Time) ([]projects.Quote, error) {
	var out []projects.Quote
	for _, q := range s.quotes {
		if q.Status != projects.QuotePending {
			continue
		}
		if !q.CreatedAt.Before(to) {
			continue
		}
		if !from.IsZero() && q.CreatedAt.Before(from) {
			continue
		}
		out = append(out, q)
	}
	return out, nil
}

// fakeLedger mimics the notification store's existence-check dedup.
type fakeLedger struct {
	mu      sync.Mutex
	records []*notifications.Notification
}

func (l *fakeLedger) Append(ctx context.Context, n *notifications.Notification) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, n)
	return nil
}

func (l *fakeLedger) ReminderExists(ctx context.Context, projectID uuid.UUID, kind string, quoteID *uuid.UUID) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, n := range l.records {
		if n.Type != notifications.TypeReminder {
			continue
		}
		if n.ProjectID == nil || *n.ProjectID != projectID {
			continue
		}
		var meta map[string]any
		if err := json.Unmarshal(n.Metadata, &meta); err != nil {
			continue
		}
		if meta[notifications.MetaReminderType] != kind {
			continue
		}
		if quoteID != nil && meta[notifications.MetaQuoteID] != quoteID.String() {
			continue
		}
		return true, nil
	}
	return false, nil
}

func (l *fakeLedger) ofType(notifType string) []*notifications.Notification {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []*notifications.Notification
	for _, n := range l.records {
		if n.Type == notifType {
			out = append(out, n)
		}
	}
	return out
}

type fakeResolver struct {
	contacts map[uuid.UUID]*users.Contact
}

func (r *fakeResolver) ResolveContact(ctx context.Context, userID uuid.UUID) (*users.Contact, error) {
	return r.contacts[userID], nil
}

type sentMail struct {
	to   string
	kind string
	ref  string
}

type fakeMailer struct {
	mu     sync.Mutex
	sent   []sentMail
	failTo map[string]bool
}

func (m *fakeMailer) SendReminder(ctx context.Context, to, name string, kind Kind, rc ReminderContext) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failTo[to] {
		return errors.New("mailbox unavailable")
	}
	m.sent = append(m.sent, sentMail{to: to, kind: kind.Name, ref: rc.Reference})
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *fakePublisher) Publish(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) named(name string) []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []events.Event
	for _, e := range p.events {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

type sweepFixture struct {
	now       time.Time
	projects  *fakeProjectSource
	quotes    *fakeQuoteSource
	ledger    *fakeLedger
	resolver  *fakeResolver
	mailer    *fakeMailer
	publisher *fakePublisher
	staffID   uuid.UUID
}

func newSweepFixture() *sweepFixture {
	return &sweepFixture{
		now:       time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
		projects:  &fakeProjectSource{},
		quotes:    &fakeQuoteSource{},
		ledger:    &fakeLedger{},
		resolver:  &fakeResolver{contacts: make(map[uuid.UUID]*users.Contact)},
		mailer:    &fakeMailer{failTo: make(map[string]bool)},
		publisher: &fakePublisher{},
		staffID:   uuid.New(),
	}
}

func (f *sweepFixture) sweeper() *Sweeper {
	s := NewSweeper(f.projects, f.quotes, f.ledger, f.resolver, f.mailer, f.publisher, f.staffID, zap.NewNop())
	s.now = func() time.Time { return f.now }
	return s
}

func (f *sweepFixture) addProject(age time.Duration, progress int) projects.Project {
	ownerID := uuid.New()
	p := projects.Project{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Progress:  progress,
		CreatedAt: f.now.Add(-age),
	}
	f.projects.projects = append(f.projects.projects, p)
	f.resolver.contacts[ownerID] = &users.Contact{Email: ownerID.String() + "@example.com", Name: "Client"}
	return p
}

func (f *sweepFixture) addQuote(age time.Duration, status string) projects.Quote {
	ownerID := uuid.New()
	q := projects.Quote{
		ID:        uuid.New(),
		ProjectID: uuid.New(),
		OwnerID:   ownerID,
		Reference: "Q-2026-042",
		Status:    status,
		CreatedAt: f.now.Add(-age),
	}
	f.quotes.quotes = append(f.quotes.quotes, q)
	f.resolver.contacts[ownerID] = &users.Contact{Email: ownerID.String() + "@example.com", Name: "Client"}
	return q
}

// seedMarker pretends an earlier sweep already sent a kind.
func (f *sweepFixture) seedMarker(t *testing.T, projectID, ownerID uuid.UUID, kind string, quoteID *uuid.UUID) {
	t.Helper()
	n := notifications.NewReminder(ownerID, projectID, kind, "t", "b", quoteID)
	require.NoError(t, f.ledger.Append(context.Background(), n))
}

func TestSweepSendsDayOldReminderExactlyOnce(t *testing.T) {
	fix := newSweepFixture()
	p := fix.addProject(25*time.Hour, 40)
	sweeper := fix.sweeper()

	stats := sweeper.Run(context.Background())
	assert.Equal(t, 1, stats.Sent)
	assert.Equal(t, 0, stats.Failed)

	require.Len(t, fix.mailer.sent, 1)
	assert.Equal(t, "onboarding_24h", fix.mailer.sent[0].kind)

	markers := fix.ledger.ofType(notifications.TypeReminder)
	require.Len(t, markers, 1)
	assert.Equal(t, p.OwnerID, markers[0].UserID)

	require.Len(t, fix.publisher.named(events.EventReminderSent), 1)

	// The next sweep finds the marker and stays quiet.
	stats = sweeper.Run(context.Background())
	assert.Equal(t, 0, stats.Sent)
	assert.Equal(t, 1, stats.Skipped)
	assert.Len(t, fix.mailer.sent, 1)
}

func TestSweepIgnoresCompletedOnboarding(t *testing.T) {
	fix := newSweepFixture()
	fix.addProject(25*time.Hour, 100)

	stats := fix.sweeper().Run(context.Background())
	assert.Equal(t, 0, stats.Candidates)
	assert.Empty(t, fix.mailer.sent)
}

func TestSweepSkipsSubjectsWithoutContact(t *testing.T) {
	fix := newSweepFixture()
	p := fix.addProject(25*time.Hour, 0)
	delete(fix.resolver.contacts, p.OwnerID)

	stats := fix.sweeper().Run(context.Background())
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 0, stats.Sent)
	assert.Empty(t, fix.ledger.ofType(notifications.TypeReminder), "a skip must not leave a marker")
}

func TestWeekOldProjectEscalatesOnce(t *testing.T) {
	fix := newSweepFixture()
	p := fix.addProject(7*24*time.Hour+2*time.Hour, 20)
	fix.seedMarker(t, p.ID, p.OwnerID, "onboarding_24h", nil)
	fix.seedMarker(t, p.ID, p.OwnerID, "onboarding_48h", nil)
	sweeper := fix.sweeper()

	stats := sweeper.Run(context.Background())
	assert.Equal(t, 1, stats.Sent)
	assert.Equal(t, 1, stats.Escalated)

	require.Len(t, fix.mailer.sent, 1)
	assert.Equal(t, "onboarding_7d", fix.mailer.sent[0].kind)

	escalations := fix.ledger.ofType(notifications.TypeInternalEscalation)
	require.Len(t, escalations, 1)
	assert.Equal(t, fix.staffID, escalations[0].UserID)

	assert.Len(t, fix.publisher.named(events.EventReminderEscalated), 1)

	stats = sweeper.Run(context.Background())
	assert.Equal(t, 0, stats.Sent)
	assert.Equal(t, 0, stats.Escalated)
	assert.Len(t, fix.ledger.ofType(notifications.TypeInternalEscalation), 1)
}

func TestEscalationEventWithoutStaffRecipient(t *testing.T) {
	fix := newSweepFixture()
	fix.staffID = uuid.Nil
	p := fix.addProject(7*24*time.Hour+2*time.Hour, 20)
	fix.seedMarker(t, p.ID, p.OwnerID, "onboarding_24h", nil)
	fix.seedMarker(t, p.ID, p.OwnerID, "onboarding_48h", nil)

	stats := fix.sweeper().Run(context.Background())
	assert.Equal(t, 1, stats.Sent)
	assert.Equal(t, 0, stats.Escalated)
	assert.Empty(t, fix.ledger.ofType(notifications.TypeInternalEscalation))
	assert.Len(t, fix.publisher.named(events.EventReminderEscalated), 1)
}

func TestSendFailureLeavesNoMarkerAndContinues(t *testing.T) {
	fix := newSweepFixture()
	broken := fix.addProject(25*time.Hour, 0)
	fix.addProject(25*time.Hour, 0)
	fix.mailer.failTo[fix.resolver.contacts[broken.OwnerID].Email] = true
	sweeper := fix.sweeper()

	stats := sweeper.Run(context.Background())
	assert.Equal(t, 1, stats.Sent)
	assert.Equal(t, 1, stats.Failed)
	assert.Len(t, fix.ledger.ofType(notifications.TypeReminder), 1)

	// Mailbox recovers: the failed candidate has no marker, so the next
	// sweep picks it up again.
	fix.mailer.failTo = map[string]bool{}
	stats = sweeper.Run(context.Background())
	assert.Equal(t, 1, stats.Sent)
	assert.Len(t, fix.ledger.ofType(notifications.TypeReminder), 2)
}

func TestQuoteReminderCarriesReference(t *testing.T) {
	fix := newSweepFixture()
	q := fix.addQuote(2*time.Hour, projects.QuotePending)

	stats := fix.sweeper().Run(context.Background())
	assert.Equal(t, 1, stats.Sent)

	require.Len(t, fix.mailer.sent, 1)
	assert.Equal(t, "quote_ready", fix.mailer.sent[0].kind)
	assert.Equal(t, "Q-2026-042", fix.mailer.sent[0].ref)

	markers := fix.ledger.ofType(notifications.TypeReminder)
	require.Len(t, markers, 1)
	var meta map[string]any
	require.NoError(t, json.Unmarshal(markers[0].Metadata, &meta))
	assert.Equal(t, q.ID.String(), meta[notifications.MetaQuoteID])
}

func TestSignedQuoteGetsNoReminder(t *testing.T) {
	fix := newSweepFixture()
	fix.addQuote(2*time.Hour, projects.QuoteSigned)

	stats := fix.sweeper().Run(context.Background())
	assert.Equal(t, 0, stats.Candidates)
	assert.Empty(t, fix.mailer.sent)
}

func TestQuoteTiersDedupPerQuote(t *testing.T) {
	fix := newSweepFixture()
	q := fix.addQuote(3*24*time.Hour+time.Hour, projects.QuotePending)
	quoteID := q.ID
	fix.seedMarker(t, q.ProjectID, q.OwnerID, "quote_3d", &quoteID)

	stats := fix.sweeper().Run(context.Background())
	assert.Equal(t, 0, stats.Sent)
	assert.Equal(t, 1, stats.Skipped)
}

func TestKindWindows(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	kind, ok := kindByName("onboarding_24h")
	require.True(t, ok)
	from, to := kind.Window(now)
	assert.True(t, from.IsZero(), "unbounded on the old side")
	assert.Equal(t, now.Add(-24*time.Hour), to)

	kind, ok = kindByName("quote_7d")
	require.True(t, ok)
	from, to = kind.Window(now)
	assert.Equal(t, now.Add(-8*24*time.Hour), from)
	assert.Equal(t, now.Add(-7*24*time.Hour), to)
}

func kindByName(name string) (Kind, bool) {
	for _, k := range Kinds {
		if k.Name == name {
			return k, true
		}
	}
	return Kind{}, false
}
