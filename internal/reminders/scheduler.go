package reminders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pixelframe/client-portal/client-portal-backend/internal/events"
	"pixelframe/client-portal/client-portal-backend/internal/notifications"
	"pixelframe/client-portal/client-portal-backend/internal/projects"
	"pixelframe/client-portal/client-portal-backend/internal/users"
)

// ProjectSource yields onboarding candidates for a creation-time window
type ProjectSource interface {
	StalledOnboarding(ctx context.Context, from, to time.Time) ([]projects.Project, error)
}

// QuoteSource yields pending-quote candidates for a creation-time window
type QuoteSource interface {
	PendingQuotes(ctx context.Context, from, to time.Time) ([]projects.Quote, error)
}

// Ledger is the notification store doubling as the dedup guard
type Ledger interface {
	ReminderExists(ctx context.Context, projectID uuid.UUID, kind string, quoteID *uuid.UUID) (bool, error)
	Append(ctx context.Context, n *notifications.Notification) error
}

// ContactResolver resolves a recipient; nil contact means no email channel
type ContactResolver interface {
	ResolveContact(ctx context.Context, userID uuid.UUID) (*users.Contact, error)
}

// Mailer sends the reminder email
type Mailer interface {
	SendReminder(ctx context.Context, to, name string, kind Kind, rc ReminderContext) error
}

// ReminderContext carries the subject details into the email template.
type ReminderContext struct {
	ProjectID uuid.UUID
	QuoteID   *uuid.UUID
	Reference string
}

// SweepStats summarizes one sweep invocation.
type SweepStats struct {
	Candidates int
	Sent       int
	Skipped    int
	Failed     int
	Escalated  int
}

// Sweeper runs the periodic reminder sweep. It is stateless between runs
// and safe to invoke repeatedly: correctness rests on the ledger's
// existence check, not on in-memory locks, so overlapping sweeps can at
// worst produce a rare duplicate send.
type Sweeper struct {
	projects  ProjectSource
	quotes    QuoteSource
	ledger    Ledger
	contacts  ContactResolver
	mailer    Mailer
	publisher events.Publisher
	staffID   uuid.UUID
	logger    *zap.Logger
	now       func() time.Time
}

// NewSweeper creates a sweeper. staffID receives escalation records; pass
// uuid.Nil to disable the internal notification (events still publish).
func NewSweeper(
	projectSource ProjectSource,
	quoteSource QuoteSource,
	ledger Ledger,
	contacts ContactResolver,
	mailer Mailer,
	publisher events.Publisher,
	staffID uuid.UUID,
	logger *zap.Logger,
) *Sweeper {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Sweeper{
		projects:  projectSource,
		quotes:    quoteSource,
		ledger:    ledger,
		contacts:  contacts,
		mailer:    mailer,
		publisher: publisher,
		staffID:   staffID,
		logger:    logger,
		now:       time.Now,
	}
}

// Run executes one sweep across all kinds. A single candidate's failure
// never aborts the sweep.
func (s *Sweeper) Run(ctx context.Context) SweepStats {
	stats := SweepStats{}
	now := s.now()

	for _, kind := range Kinds {
		from, to := kind.Window(now)

		switch kind.Subject {
		case SubjectProject:
			candidates, err := s.projects.StalledOnboarding(ctx, from, to)
			if err != nil {
				s.logger.Error("failed to query onboarding candidates",
					zap.String("kind", kind.Name),
					zap.Error(err))
				continue
			}
			for _, p := range candidates {
				stats.Candidates++
				s.remind(ctx, kind, ReminderContext{ProjectID: p.ID}, p.OwnerID, &stats)
			}

		case SubjectQuote:
			candidates, err := s.quotes.PendingQuotes(ctx, from, to)
			if err != nil {
				s.logger.Error("failed to query quote candidates",
					zap.String("kind", kind.Name),
					zap.Error(err))
				continue
			}
			for _, q := range candidates {
				stats.Candidates++
				quoteID := q.ID
				rc := ReminderContext{ProjectID: q.ProjectID, QuoteID: &quoteID, Reference: q.Reference}
				s.remind(ctx, kind, rc, q.OwnerID, &stats)
			}
		}
	}

	s.logger.Info("reminder sweep finished",
		zap.Int("candidates", stats.Candidates),
		zap.Int("sent", stats.Sent),
		zap.Int("skipped", stats.Skipped),
		zap.Int("failed", stats.Failed),
		zap.Int("escalated", stats.Escalated))
	return stats
}

// remind handles one candidate: dedup check, contact resolution, send,
// marker write, optional escalation.
func (s *Sweeper) remind(ctx context.Context, kind Kind, rc ReminderContext, ownerID uuid.UUID, stats *SweepStats) {
	exists, err := s.ledger.ReminderExists(ctx, rc.ProjectID, kind.Name, rc.QuoteID)
	if err != nil {
		stats.Failed++
		s.logger.Error("failed to check reminder marker",
			zap.String("kind", kind.Name),
			zap.String("project_id", rc.ProjectID.String()),
			zap.Error(err))
		return
	}
	if exists {
		stats.Skipped++
		return
	}

	contact, err := s.contacts.ResolveContact(ctx, ownerID)
	if err != nil {
		stats.Failed++
		s.logger.Error("failed to resolve reminder recipient",
			zap.String("kind", kind.Name),
			zap.String("owner_id", ownerID.String()),
			zap.Error(err))
		return
	}
	if contact == nil {
		stats.Skipped++
		s.logger.Info("candidate has no email channel, skipping",
			zap.String("kind", kind.Name),
			zap.String("owner_id", ownerID.String()))
		return
	}

	if err := s.mailer.SendReminder(ctx, contact.Email, contact.Name, kind, rc); err != nil {
		stats.Failed++
		s.logger.Error("failed to send reminder",
			zap.String("kind", kind.Name),
			zap.String("project_id", rc.ProjectID.String()),
			zap.Error(err))
		return
	}

	// The notification is both the inbox entry and the dedup marker; a
	// failed write means the next sweep re-sends, which the dedup model
	// accepts over losing the reminder record.
	marker := notifications.NewReminder(ownerID, rc.ProjectID, kind.Name, kind.Title, kind.Body, rc.QuoteID)
	if err := s.ledger.Append(ctx, marker); err != nil {
		stats.Failed++
		s.logger.Error("failed to write reminder marker",
			zap.String("kind", kind.Name),
			zap.String("project_id", rc.ProjectID.String()),
			zap.Error(err))
		return
	}
	stats.Sent++

	s.publish(ctx, events.EventReminderSent, kind, rc)

	if kind.Escalates {
		s.escalate(ctx, kind, rc, stats)
	}
}

func (s *Sweeper) escalate(ctx context.Context, kind Kind, rc ReminderContext, stats *SweepStats) {
	if s.staffID != uuid.Nil {
		n := notifications.NewEscalation(s.staffID, rc.ProjectID, kind.Name, rc.QuoteID)
		if err := s.ledger.Append(ctx, n); err != nil {
			s.logger.Error("failed to write escalation notification",
				zap.String("kind", kind.Name),
				zap.String("project_id", rc.ProjectID.String()),
				zap.Error(err))
		} else {
			stats.Escalated++
		}
	}
	s.publish(ctx, events.EventReminderEscalated, kind, rc)
}

func (s *Sweeper) publish(ctx context.Context, name string, kind Kind, rc ReminderContext) {
	event := events.Event{
		Name:         name,
		ProjectID:    rc.ProjectID,
		QuoteID:      rc.QuoteID,
		ReminderKind: kind.Name,
		OccurredAt:   s.now(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish reminder event",
			zap.String("event", name),
			zap.String("kind", kind.Name),
			zap.Error(err))
	}
}
