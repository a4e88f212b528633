package onboarding

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pixelframe/client-portal/client-portal-backend/internal/events"
	"pixelframe/client-portal/client-portal-backend/internal/notifications"
	"pixelframe/client-portal/client-portal-backend/internal/users"
)

// Notifier appends a record to the notification ledger
type Notifier interface {
	Append(ctx context.Context, n *notifications.Notification) error
}

// CompletionMailer sends the owner-facing completion email
type CompletionMailer interface {
	SendCompletion(ctx context.Context, to, name string, projectID uuid.UUID) error
}

// ContactResolver resolves a user id to an email contact; a nil contact
// means the user has no email channel
type ContactResolver interface {
	ResolveContact(ctx context.Context, userID uuid.UUID) (*users.Contact, error)
}

// ProgressRecorder mirrors onboarding progress onto the project row so
// the reminder sweep can query it
type ProgressRecorder interface {
	SetProgress(ctx context.Context, projectID uuid.UUID, progress int) error
}

// Finalizer builds the final payload, persists it atomically with the
// completed flag, and fires the downstream side effects. Persistence must
// succeed before any side effect is attempted; side-effect failures are
// logged and swallowed.
type Finalizer struct {
	repo      Repository
	notifier  Notifier
	mailer    CompletionMailer
	publisher events.Publisher
	contacts  ContactResolver
	progress  ProgressRecorder
	logger    *zap.Logger
}

// NewFinalizer creates a finalizer. Mailer, publisher and contacts may be
// nil in contexts that have no outbound channels (tests, offline tools).
func NewFinalizer(
	repo Repository,
	notifier Notifier,
	mailer CompletionMailer,
	publisher events.Publisher,
	contacts ContactResolver,
	progress ProgressRecorder,
	logger *zap.Logger,
) *Finalizer {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Finalizer{
		repo:      repo,
		notifier:  notifier,
		mailer:    mailer,
		publisher: publisher,
		contacts:  contacts,
		progress:  progress,
		logger:    logger,
	}
}

// BuildFinalPayload turns a normalized draft into the shape the final
// schema expects: required-but-omitted collections become empty (not
// absent) and the terminal acknowledgment is overlaid.
func BuildFinalPayload(normalized Payload) Payload {
	final := make(Payload, len(normalized)+4)
	for key, value := range normalized {
		final[key] = value
	}
	if _, ok := final[FieldServices]; !ok {
		final[FieldServices] = []string{}
	}
	if _, ok := final[FieldReferenceURLs]; !ok {
		final[FieldReferenceURLs] = []string{}
	}
	if _, ok := final[FieldCustomPages]; !ok {
		final[FieldCustomPages] = []map[string]string{}
	}
	final[FieldConfirm] = true
	return final
}

// Finalize validates the built payload against the final schema and, on
// success, writes payload+completed in one operation before firing side
// effects. Returns field errors when the schema rejects the payload.
func (f *Finalizer) Finalize(ctx context.Context, projectID, ownerID uuid.UUID, state FormState) (Payload, FieldErrors, error) {
	final := BuildFinalPayload(Normalize(state))

	if errs := ValidateFinal(final); len(errs) > 0 {
		return nil, errs, nil
	}

	if err := f.repo.SaveDraft(ctx, projectID, final, true); err != nil {
		return nil, nil, fmt.Errorf("failed to persist completed draft: %w", err)
	}

	if f.progress != nil {
		if err := f.progress.SetProgress(ctx, projectID, 100); err != nil {
			f.logger.Warn("failed to record onboarding progress",
				zap.String("project_id", projectID.String()),
				zap.Error(err))
		}
	}

	f.fireSideEffects(ctx, projectID, ownerID)
	return final, nil, nil
}

// fireSideEffects delivers the completion notification, email and events.
// None of them can undo the committed write.
func (f *Finalizer) fireSideEffects(ctx context.Context, projectID, ownerID uuid.UUID) {
	if f.notifier != nil {
		n := notifications.NewOnboardingCompleted(ownerID, projectID)
		if err := f.notifier.Append(ctx, n); err != nil {
			f.logger.Warn("failed to append completion notification",
				zap.String("project_id", projectID.String()),
				zap.Error(err))
		}
	}

	if f.mailer != nil && f.contacts != nil {
		contact, err := f.contacts.ResolveContact(ctx, ownerID)
		switch {
		case err != nil:
			f.logger.Warn("failed to resolve completion recipient",
				zap.String("owner_id", ownerID.String()),
				zap.Error(err))
		case contact == nil:
			f.logger.Info("owner has no email channel, skipping completion email",
				zap.String("owner_id", ownerID.String()))
		default:
			if err := f.mailer.SendCompletion(ctx, contact.Email, contact.Name, projectID); err != nil {
				f.logger.Warn("failed to send completion email",
					zap.String("project_id", projectID.String()),
					zap.Error(err))
			}
		}
	}

	event := events.Event{
		Name:       events.EventOnboardingCompleted,
		ProjectID:  projectID,
		OccurredAt: time.Now(),
	}
	if err := f.publisher.Publish(ctx, event); err != nil {
		f.logger.Warn("failed to publish completion event",
			zap.String("project_id", projectID.String()),
			zap.Error(err))
	}
}
