package service

import (
	"context"
	"log/slog"
	"time"

	"storyboard/internal/cache"
	"storyboard/internal/models"
	"storyboard/internal/notifications"
	"storyboard/internal/observability"
	"storyboard/internal/repository"
	"storyboard/internal/storage"

	"go.opentelemetry.io/otel/attribute"
)

// AccountService carries out administrative actions on user accounts.
// Actor SystemActor is the operator CLI and skips the role check.
type AccountService struct {
	users      repository.UserRepository
	accounts   repository.AccountRepository
	store      storage.Store
	isAdmin    AdminCheck
	invalidate func(userID uint)
	publisher  EventPublisher
	now        func() time.Time
}

// UserPage is one page of the admin user listing.
type UserPage struct {
	Data       []models.User `json:"data"`
	TotalCount int64         `json:"totalCount"`
	Limit      int           `json:"limit"`
	Offset     int           `json:"offset"`
}

// NewAccountService wires the service. invalidate is called whenever role
// or lock state changes so cached lookups are refreshed.
func NewAccountService(
	users repository.UserRepository,
	accounts repository.AccountRepository,
	store storage.Store,
	isAdmin AdminCheck,
	invalidate func(userID uint),
	publisher EventPublisher,
) *AccountService {
	if invalidate == nil {
		invalidate = func(uint) {}
	}
	return &AccountService{
		users:      users,
		accounts:   accounts,
		store:      store,
		isAdmin:    isAdmin,
		invalidate: invalidate,
		publisher:  publisher,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *AccountService) authorize(ctx context.Context, actorID, userID uint, action string) error {
	if actorID != SystemActor {
		if err := requireAdmin(ctx, s.isAdmin, actorID); err != nil {
			return err
		}
		if actorID == userID {
			return models.NewValidationError("You cannot " + action + " your own account")
		}
	}
	if userID == 0 {
		return models.NewValidationError("user id is required")
	}
	return nil
}

// LockUser suspends the account indefinitely. Nothing is deleted.
func (s *AccountService) LockUser(ctx context.Context, actorID, userID uint) error {
	if err := s.authorize(ctx, actorID, userID, "lock"); err != nil {
		return err
	}
	until := models.LockedForever
	if err := s.users.SetLockedUntil(ctx, userID, &until); err != nil {
		return err
	}
	s.invalidate(userID)

	slog.InfoContext(ctx, "user locked", "target_user_id", userID, "actor_id", actorID)
	publish(ctx, s.publisher, notifications.ModerationEvent{
		Type: notifications.EventUserLocked, UserID: userID, ActorID: actorID, At: s.now(),
	})
	return nil
}

// UnlockUser lifts a suspension.
func (s *AccountService) UnlockUser(ctx context.Context, actorID, userID uint) error {
	if err := s.authorize(ctx, actorID, userID, "unlock"); err != nil {
		return err
	}
	if err := s.users.SetLockedUntil(ctx, userID, nil); err != nil {
		return err
	}
	s.invalidate(userID)

	slog.InfoContext(ctx, "user unlocked", "target_user_id", userID, "actor_id", actorID)
	publish(ctx, s.publisher, notifications.ModerationEvent{
		Type: notifications.EventUserUnlocked, UserID: userID, ActorID: actorID, At: s.now(),
	})
	return nil
}

// DeleteUser removes the account and everything it owns. Rows go in one
// transaction; the cached feed is retired and the stored files are removed
// after it commits. A file failure only leaves orphans behind.
func (s *AccountService) DeleteUser(ctx context.Context, actorID, userID uint) (summary *repository.DeletionSummary, err error) {
	ctx, span := observability.StartSpan(ctx, "account.delete_user",
		attribute.Int64("user.id", int64(userID)))
	defer func() { observability.EndSpan(span, err) }()

	if err := s.authorize(ctx, actorID, userID, "delete"); err != nil {
		return nil, err
	}

	graph, summary, err := s.accounts.DeleteUserCascade(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.invalidate(userID)
	cache.InvalidateFeed(ctx)

	for _, key := range graph.FileKeys {
		if err := s.store.Delete(ctx, key); err != nil {
			slog.WarnContext(ctx, "failed to remove file of deleted user",
				"target_user_id", userID, "key", key, "error", err)
		}
	}

	observability.UsersDeleted.Inc()
	slog.InfoContext(ctx, "user deleted",
		"target_user_id", userID, "actor_id", actorID,
		"boards", summary.Boards, "board_items", summary.BoardItems, "photos", summary.Photos,
		"favorites", summary.Favorites, "reports", summary.Reports)
	publish(ctx, s.publisher, notifications.ModerationEvent{
		Type: notifications.EventUserDeleted, UserID: userID, ActorID: actorID, At: s.now(),
	})
	return summary, nil
}

// ListUsers searches usernames and emails.
func (s *AccountService) ListUsers(ctx context.Context, actorID uint, query string, limit, offset int) (*UserPage, error) {
	if actorID != SystemActor {
		if err := requireAdmin(ctx, s.isAdmin, actorID); err != nil {
			return nil, err
		}
	}
	if limit <= 0 || limit > MaxPageSize {
		limit = DefaultPageSize
	}
	if offset < 0 {
		offset = 0
	}

	users, total, err := s.users.List(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []models.User{}
	}
	return &UserPage{Data: users, TotalCount: total, Limit: limit, Offset: offset}, nil
}

// SetAdmin grants or revokes the admin role. Only the operator CLI calls it.
func (s *AccountService) SetAdmin(ctx context.Context, userID uint, admin bool) error {
	if err := s.users.SetAdmin(ctx, userID, admin); err != nil {
		return err
	}
	s.invalidate(userID)
	slog.InfoContext(ctx, "user role changed", "target_user_id", userID, "is_admin", admin)
	return nil
}

// GetUser loads one account. Only the operator CLI calls it.
func (s *AccountService) GetUser(ctx context.Context, userID uint) (*models.User, error) {
	return s.users.GetByID(ctx, userID)
}
