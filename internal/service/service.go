// Package service holds the application's business rules. Handlers and the
// CLI call into it; it calls into repositories.
package service

import (
	"context"
	"log/slog"

	"storyboard/internal/models"
	"storyboard/internal/notifications"
)

// AdminCheck reports whether a user holds the admin role.
type AdminCheck func(ctx context.Context, userID uint) (bool, error)

// EventPublisher receives moderation events. Both notifications.Notifier
// and notifications.Hub satisfy it.
type EventPublisher interface {
	PublishModeration(ctx context.Context, ev notifications.ModerationEvent) error
}

// SystemActor is the actor id the operator CLI runs as.
const SystemActor uint = 0

func requireAdmin(ctx context.Context, isAdmin AdminCheck, actorID uint) error {
	if actorID == 0 {
		return models.NewUnauthorizedError("Authentication required")
	}
	ok, err := isAdmin(ctx, actorID)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return models.NewUnauthorizedError("Authentication required")
		}
		return err
	}
	if !ok {
		return models.NewForbiddenError("Admin access required")
	}
	return nil
}

// checkPhotoVisible answers NotFound rather than Forbidden so private photos
// of other users stay indistinguishable from missing ones. Admins see everything.
func checkPhotoVisible(ctx context.Context, isAdmin AdminCheck, viewerID uint, photo *models.Photo) error {
	if photo.VisibleTo(viewerID) {
		return nil
	}
	if viewerID != 0 {
		admin, err := isAdmin(ctx, viewerID)
		if err != nil && !models.IsCode(err, models.CodeNotFound) {
			return err
		}
		if admin {
			return nil
		}
	}
	return models.NewNotFoundError("Photo", photo.ID)
}

// publish never fails the caller; the event feed is best effort.
func publish(ctx context.Context, p EventPublisher, ev notifications.ModerationEvent) {
	if p == nil {
		return
	}
	if err := p.PublishModeration(ctx, ev); err != nil {
		slog.WarnContext(ctx, "failed to publish moderation event",
			"type", ev.Type, "error", err)
	}
}
