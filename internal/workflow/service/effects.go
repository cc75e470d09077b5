package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Notifier dispatches user notifications. Fire-and-forget.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, kind string, payload map[string]any) error
}

// ActivityLogger records audit activity. Fire-and-forget.
type ActivityLogger interface {
	Record(ctx context.Context, userID, companyID uuid.UUID, activityType, resourceType string, resourceID uuid.UUID, description string) error
}

// Broadcaster pushes mutations to interested live viewers. Fire-and-forget.
type Broadcaster interface {
	Broadcast(channel, event string, payload any) error
}

// nonCritical runs a side effect whose failure must never reach the caller:
// notification, activity logging and broadcast failures are logged and
// swallowed, and they never roll back the already-committed primary
// mutation.
func nonCritical(name string, fn func() error) {
	if err := fn(); err != nil {
		slog.Warn("non-critical side effect failed", "effect", name, "error", err)
	}
}
