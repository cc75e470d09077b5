package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service persists notifications and activity entries. It satisfies the
// workflow service's Notifier and ActivityLogger collaborators.
type Service struct {
	db *gorm.DB
}

// NewService creates a notification service on the given database handle.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Notify persists a notification for a single user.
func (s *Service) Notify(ctx context.Context, userID uuid.UUID, kind string, payload map[string]any) error {
	notification := &Notification{
		UserID:  userID,
		Kind:    kind,
		Payload: Payload(payload),
	}
	return s.db.WithContext(ctx).Create(notification).Error
}

// Record persists one activity-log entry.
func (s *Service) Record(ctx context.Context, userID, companyID uuid.UUID, activityType, resourceType string, resourceID uuid.UUID, description string) error {
	activity := &Activity{
		UserID:       userID,
		CompanyID:    companyID,
		ActivityType: activityType,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Description:  description,
	}
	return s.db.WithContext(ctx).Create(activity).Error
}

// ListForUser returns a user's notifications, newest first.
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Notification, error) {
	var notifications []Notification
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&notifications).Error
	return notifications, err
}

// MarkRead stamps a notification as read. Marking an already-read
// notification again is a no-op.
func (s *Service) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	now := time.Now().UTC()
	return s.db.WithContext(ctx).
		Model(&Notification{}).
		Where("id = ? AND user_id = ? AND read_at IS NULL", notificationID, userID).
		Update("read_at", now).Error
}
