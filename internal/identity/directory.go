// Package identity answers who-is-this questions about authenticated users.
package identity

import (
	"context"
	"errors"
	"strconv"
	"time"

	"storyboard/internal/models"

	gocache "github.com/patrickmn/go-cache"
	"gorm.io/gorm"
)

// DefaultTTL bounds how long a role or lock change can go unnoticed on a
// node that did not make it.
const DefaultTTL = 30 * time.Second

// Status is the subset of a user record consulted on every request.
type Status struct {
	IsAdmin     bool
	LockedUntil *time.Time
}

// Directory looks up account status with a short in-process cache.
type Directory struct {
	db    *gorm.DB
	cache *gocache.Cache
	now   func() time.Time
}

// NewDirectory returns a Directory over db. A zero ttl uses DefaultTTL.
func NewDirectory(db *gorm.DB, ttl time.Duration) *Directory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Directory{
		db:    db,
		cache: gocache.New(ttl, ttl*2),
		now:   time.Now,
	}
}

// Lookup returns the user's status. A user that no longer exists yields a
// not-found AppError.
func (d *Directory) Lookup(ctx context.Context, userID uint) (Status, error) {
	key := strconv.FormatUint(uint64(userID), 10)
	if v, ok := d.cache.Get(key); ok {
		return v.(Status), nil
	}

	var user models.User
	err := d.db.WithContext(ctx).
		Select("id", "is_admin", "locked_until").
		First(&user, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Status{}, models.NewNotFoundError("User", userID)
		}
		return Status{}, models.NewInternalError(err)
	}

	st := Status{IsAdmin: user.IsAdmin, LockedUntil: user.LockedUntil}
	d.cache.Set(key, st, gocache.DefaultExpiration)
	return st, nil
}

// IsAdmin matches the capability signature the services expect.
func (d *Directory) IsAdmin(ctx context.Context, userID uint) (bool, error) {
	st, err := d.Lookup(ctx, userID)
	if err != nil {
		return false, err
	}
	return st.IsAdmin, nil
}

// IsLocked reports whether the account is suspended right now.
func (d *Directory) IsLocked(ctx context.Context, userID uint) (bool, error) {
	st, err := d.Lookup(ctx, userID)
	if err != nil {
		return false, err
	}
	return st.LockedUntil != nil && st.LockedUntil.After(d.now()), nil
}

// Invalidate drops the cached entry so the next lookup reads the database.
func (d *Directory) Invalidate(userID uint) {
	d.cache.Delete(strconv.FormatUint(uint64(userID), 10))
}
