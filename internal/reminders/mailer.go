package reminders

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/google/uuid"

	"pixelframe/client-portal/client-portal-backend/internal/config"
)

// SESMailer sends portal emails through Amazon SES. It implements both
// the sweep's Mailer and the finalizer's CompletionMailer.
type SESMailer struct {
	client      *sesv2.Client
	fromAddress string
	fromName    string
	replyTo     string
}

// NewSESMailer creates a mailer from the email config. Static credentials
// from the environment take precedence over the default chain.
func NewSESMailer(ctx context.Context, cfg config.EmailConfig) (*SESMailer, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if key := os.Getenv("AWS_ACCESS_KEY_ID"); key != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(key, os.Getenv("AWS_SECRET_ACCESS_KEY"), ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &SESMailer{
		client:      sesv2.NewFromConfig(awsCfg),
		fromAddress: cfg.FromAddress,
		fromName:    cfg.FromName,
		replyTo:     cfg.ReplyTo,
	}, nil
}

// SendReminder sends one reminder email.
func (m *SESMailer) SendReminder(ctx context.Context, to, name string, kind Kind, rc ReminderContext) error {
	subject := kind.Title
	body := fmt.Sprintf("Hi %s,\n\n%s\n\n— %s", name, kind.Body, m.fromName)
	if rc.Reference != "" {
		subject = fmt.Sprintf("%s (%s)", kind.Title, rc.Reference)
	}
	return m.send(ctx, to, subject, body)
}

// SendCompletion sends the owner-facing onboarding completion email.
func (m *SESMailer) SendCompletion(ctx context.Context, to, name string, projectID uuid.UUID) error {
	subject := "We've got everything we need"
	body := fmt.Sprintf(
		"Hi %s,\n\nThanks for completing your onboarding — we have everything we need to prepare your proposal. We'll be in touch shortly.\n\n— %s",
		name, m.fromName)
	return m.send(ctx, to, subject, body)
}

func (m *SESMailer) send(ctx context.Context, to, subject, body string) error {
	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fmt.Sprintf("%s <%s>", m.fromName, m.fromAddress)),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject)},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(body)},
				},
			},
		},
	}
	if m.replyTo != "" {
		input.ReplyToAddresses = []string{m.replyTo}
	}

	if _, err := m.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}
