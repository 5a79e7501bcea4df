package seed

import (
	"context"
	"fmt"
	"strings"

	"storyboard/internal/models"
	"storyboard/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Factory builds users with fake profile data and persists them.
type Factory struct {
	db    *gorm.DB
	users repository.UserRepository
	opts  Options
	hash  string
}

// NewFactory creates a Factory bound to db. The password is hashed once and
// shared by every user it creates.
func NewFactory(db *gorm.DB, opts Options) (*Factory, error) {
	f := &Factory{db: db, users: repository.NewUserRepository(db), opts: opts, hash: opts.Password}
	if !opts.SkipBcrypt {
		hashed, err := bcrypt.GenerateFromPassword([]byte(opts.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash seed password: %w", err)
		}
		f.hash = string(hashed)
	}
	return f, nil
}

// CreateUser persists a user with a fake name. Optional overrides may modify
// the user before it is saved.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	first, last := gofakeit.FirstName(), gofakeit.LastName()
	user := &models.User{
		Username:    strings.ToLower(first+last) + fmt.Sprintf("%d", gofakeit.Number(100, 9999)),
		DisplayName: first + " " + last,
		Password:    f.hash,
	}
	user.Email = user.Username + "@" + gofakeit.DomainName()

	for _, override := range overrides {
		override(user)
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// EnsureAdmin upserts an administrator by email. Running it again keeps the
// same row and restores the admin flag.
func (f *Factory) EnsureAdmin(ctx context.Context, a AdminAccount) (*models.User, error) {
	user := models.User{
		Username:    a.Username,
		Email:       strings.ToLower(a.Email),
		DisplayName: a.Username,
		Password:    f.hash,
		IsAdmin:     true,
	}
	if err := f.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"is_admin", "updated_at"}),
	}).Create(&user).Error; err != nil {
		return nil, err
	}
	// Some drivers leave the id unset after an upsert.
	stored, err := f.users.GetByEmail(ctx, user.Email)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, fmt.Errorf("admin %s missing after upsert", user.Email)
	}
	return stored, nil
}
