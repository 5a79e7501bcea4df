package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"storyboard/internal/models"
	"storyboard/internal/repository"
	"storyboard/internal/service"
	"storyboard/internal/storage"
	"storyboard/internal/testutil"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func newServices(db *gorm.DB) Services {
	photos := repository.NewPhotoRepository(db)
	store := storage.NewStore(afero.NewMemMapFs(), "/uploads")
	noAdmins := func(context.Context, uint) (bool, error) { return false, nil }
	return Services{
		Photos: service.NewPhotoService(photos, repository.NewFavoriteRepository(db), store, noAdmins,
			service.PhotoOptions{MaxUploadBytes: 5 << 20}),
		Boards:     service.NewBoardService(repository.NewBoardRepository(db), photos),
		Moderation: service.NewModerationService(repository.NewReportRepository(db), photos, noAdmins, nil),
	}
}

func smallOptions() Options {
	opts := DefaultOptions()
	opts.Users = 3
	opts.PhotosPerUser = 2
	opts.BoardsPerUser = 1
	opts.Reports = 3
	opts.SkipBcrypt = true
	return opts
}

func TestSeeder_Run(t *testing.T) {
	db := testutil.NewSQLiteDB(t)

	sum, err := NewSeeder(db, newServices(db), smallOptions()).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Admins)
	assert.Equal(t, 3, sum.Users)
	assert.Equal(t, 6, sum.Photos)
	assert.Equal(t, 3, sum.Boards)
	assert.LessOrEqual(t, sum.Reports, 3)

	count := func(model any) int64 {
		var n int64
		require.NoError(t, db.Model(model).Count(&n).Error)
		return n
	}
	assert.Equal(t, int64(4), count(&models.User{}))
	assert.Equal(t, int64(6), count(&models.Photo{}))
	assert.Equal(t, int64(3), count(&models.Board{}))
	// Two photos and one caption per board.
	assert.Equal(t, int64(9), count(&models.BoardItem{}))
	assert.Equal(t, int64(sum.Reports), count(&models.Report{}))

	var selfReports int64
	require.NoError(t, db.Model(&models.Report{}).
		Joins("JOIN photos ON photos.id = reports.photo_id").
		Where("photos.user_id = reports.reporter_id").
		Count(&selfReports).Error)
	assert.Zero(t, selfReports)
}

func TestSeeder_AdminsAreIdempotent(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	opts := smallOptions()
	opts.Users = 0

	for i := 0; i < 2; i++ {
		_, err := NewSeeder(db, newServices(db), opts).Run(context.Background())
		require.NoError(t, err)
	}

	var admins []models.User
	require.NoError(t, db.Where("is_admin = ?", true).Find(&admins).Error)
	require.Len(t, admins, 1)
	assert.Equal(t, "admin@storyboard.local", admins[0].Email)
}

func TestFactory_EnsureAdminRestoresRole(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	opts := smallOptions()
	f, err := NewFactory(db, opts)
	require.NoError(t, err)

	account := AdminAccount{Username: "ops", Email: "Ops@Storyboard.Local"}
	first, err := f.EnsureAdmin(ctx, account)
	require.NoError(t, err)
	require.NotZero(t, first.ID)
	assert.Equal(t, "ops@storyboard.local", first.Email)

	require.NoError(t, db.Model(&models.User{}).Where("id = ?", first.ID).Update("is_admin", false).Error)

	again, err := f.EnsureAdmin(ctx, account)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.True(t, again.IsAdmin)
}

func TestFactory_HashesPassword(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	opts := DefaultOptions()

	f, err := NewFactory(db, opts)
	require.NoError(t, err)
	u, err := f.CreateUser(func(u *models.User) { u.DisplayName = "Fixed Name" })
	require.NoError(t, err)

	assert.Equal(t, "Fixed Name", u.DisplayName)
	assert.NotEqual(t, opts.Password, u.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(opts.Password)))
}

func TestLoadPreset(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
		return path
	}

	t.Run("overrides defaults", func(t *testing.T) {
		opts, err := LoadPreset(write("busy.yml", `
users: 40
reports: 25
admins:
  - username: mod
    email: mod@example.com
`))
		require.NoError(t, err)
		assert.Equal(t, 40, opts.Users)
		assert.Equal(t, 25, opts.Reports)
		assert.Equal(t, DefaultOptions().PhotosPerUser, opts.PhotosPerUser)
		assert.Equal(t, []AdminAccount{{Username: "mod", Email: "mod@example.com"}}, opts.Admins)
	})

	t.Run("invalid", func(t *testing.T) {
		tests := map[string]string{
			"negative.yml": "users: -1\n",
			"admin.yml":    "admins:\n  - username: nobody\n",
			"broken.yml":   "users: [\n",
		}
		for name, body := range tests {
			_, err := LoadPreset(write(name, body))
			assert.Error(t, err, name)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadPreset(filepath.Join(dir, "nope.yml"))
		assert.Error(t, err)
	})
}
