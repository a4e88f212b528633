package notifications

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"pixelframe/client-portal/client-portal-backend/internal/notifications/websocket"
)

// Service provides the notification ledger: append, dedup lookup, inbox
// listing and mark-read.
type Service struct {
	db     *gorm.DB
	hub    *websocket.Hub
	logger *zap.Logger
}

// NewService creates a notification service and migrates its table. The
// hub may be nil when no live push is wanted (workers, tests).
func NewService(db *gorm.DB, hub *websocket.Hub, logger *zap.Logger) (*Service, error) {
	if err := db.AutoMigrate(&Notification{}); err != nil {
		return nil, fmt.Errorf("failed to migrate notifications: %w", err)
	}
	return &Service{db: db, hub: hub, logger: logger}, nil
}

// Append writes a ledger record and pushes it to the user's open
// connections. The write is the source of truth; push failures are
// expected (user offline) and only logged at debug.
func (s *Service) Append(ctx context.Context, n *Notification) error {
	if err := s.db.WithContext(ctx).Create(n).Error; err != nil {
		return fmt.Errorf("failed to append notification: %w", err)
	}

	if s.hub != nil {
		if err := s.hub.SendToUser(n.UserID.String(), n); err != nil {
			s.logger.Debug("in-app push skipped",
				zap.String("user_id", n.UserID.String()),
				zap.Error(err))
		}
	}
	return nil
}

// ReminderExists reports whether a reminder of the given kind already
// fired for a subject. This existence check is the sweep's idempotency
// guard; two overlapping sweeps can both pass it before either writes,
// which is the accepted rare-duplicate tolerance.
func (s *Service) ReminderExists(ctx context.Context, projectID uuid.UUID, kind string, quoteID *uuid.UUID) (bool, error) {
	query := s.db.WithContext(ctx).Model(&Notification{}).
		Where("project_id = ?", projectID).
		Where("metadata->>? = ?", MetaReminderType, kind).
		Where("type = ?", TypeReminder)
	if quoteID != nil {
		query = query.Where("metadata->>? = ?", MetaQuoteID, quoteID.String())
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check reminder marker: %w", err)
	}
	return count > 0, nil
}

// ListForUser returns a user's inbox, newest first.
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var list []Notification
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return list, nil
}

// MarkRead stamps read_at. The one mutation the ledger permits.
func (s *Service) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	result := s.db.WithContext(ctx).Model(&Notification{}).
		Where("id = ? AND user_id = ? AND read_at IS NULL", id, userID).
		Update("read_at", gorm.Expr("NOW()"))
	if result.Error != nil {
		return fmt.Errorf("failed to mark notification read: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("notification not found")
	}
	return nil
}
