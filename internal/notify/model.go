package notify

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Notification is a persisted per-user notification.
type Notification struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;column:id" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;column:user_id;not null;index" json:"userId"`
	Kind      string    `gorm:"type:varchar(50);column:kind;not null" json:"kind"`
	Payload   Payload   `gorm:"type:jsonb;column:payload;serializer:json" json:"payload"`
	ReadAt    *time.Time `gorm:"type:timestamptz;column:read_at" json:"readAt,omitempty"`
	CreatedAt time.Time `gorm:"column:created_at" json:"createdAt"`
}

func (n *Notification) TableName() string {
	return "notifications"
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

// Payload is a free-form notification body.
type Payload map[string]any

// Activity is one audit-trail entry recording who did what to which
// resource.
type Activity struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;column:id" json:"id"`
	UserID       uuid.UUID `gorm:"type:uuid;column:user_id;not null;index" json:"userId"`
	CompanyID    uuid.UUID `gorm:"type:uuid;column:company_id;not null;index" json:"companyId"`
	ActivityType string    `gorm:"type:varchar(50);column:activity_type;not null" json:"activityType"`
	ResourceType string    `gorm:"type:varchar(50);column:resource_type;not null" json:"resourceType"`
	ResourceID   uuid.UUID `gorm:"type:uuid;column:resource_id;not null;index" json:"resourceId"`
	Description  string    `gorm:"type:text;column:description" json:"description"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"createdAt"`
}

func (a *Activity) TableName() string {
	return "activity_log"
}

func (a *Activity) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
