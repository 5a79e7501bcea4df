package service

import (
	"context"
	"io"
	"strings"
	"testing"

	"storyboard/internal/models"
	"storyboard/internal/repository"
	"storyboard/internal/storage"
	"storyboard/internal/testutil"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type photoFixture struct {
	db    *gorm.DB
	svc   *PhotoService
	store storage.Store
	owner *models.User
	other *models.User
	admin *models.User
}

func newPhotoFixture(t *testing.T) *photoFixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	f := &photoFixture{
		db:    db,
		store: storage.NewStore(afero.NewMemMapFs(), "/uploads"),
		owner: testutil.CreateUser(t, db, false),
		other: testutil.CreateUser(t, db, false),
		admin: testutil.CreateUser(t, db, true),
	}
	adminID := f.admin.ID
	f.svc = NewPhotoService(
		repository.NewPhotoRepository(db),
		repository.NewFavoriteRepository(db),
		f.store,
		adminsOnly(adminID),
		PhotoOptions{MaxUploadBytes: 1 << 20},
	)
	return f
}

func TestPhotoService_Upload(t *testing.T) {
	f := newPhotoFixture(t)
	ctx := context.Background()

	photo, err := f.svc.Upload(ctx, UploadPhotoInput{
		UserID:      f.owner.ID,
		Filename:    "sunset.png",
		ContentType: "image/png",
		Data:        testutil.TinyPNG(t, 640, 480),
	})
	require.NoError(t, err)
	assert.NotZero(t, photo.ID)
	assert.Equal(t, "sunset", photo.Title)
	assert.Equal(t, "image/png", photo.ContentType)
	assert.Equal(t, 640, photo.Width)
	assert.Equal(t, 480, photo.Height)
	assert.False(t, photo.IsPrivate)
	assert.True(t, strings.HasPrefix(photo.StorageKey, "originals/"))
	assert.True(t, strings.HasSuffix(photo.ThumbnailKey, ".webp"))

	rc, contentType, err := f.svc.Open(ctx, f.other.ID, photo.ID, PhotoVariantThumbnail)
	require.NoError(t, err)
	defer rc.Close()
	assert.Equal(t, "image/webp", contentType)
	thumb, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.NotEmpty(t, thumb)
}

func TestPhotoService_UploadRejectsBadInput(t *testing.T) {
	f := newPhotoFixture(t)
	png := testutil.TinyPNG(t, 8, 8)

	tests := []struct {
		name string
		in   UploadPhotoInput
		code string
	}{
		{"anonymous", UploadPhotoInput{Data: png}, models.CodeUnauthorized},
		{"empty", UploadPhotoInput{UserID: f.owner.ID}, models.CodeValidation},
		{"not an image", UploadPhotoInput{UserID: f.owner.ID, Data: []byte("hello world")}, models.CodeValidation},
		{"declared type mismatch", UploadPhotoInput{UserID: f.owner.ID, ContentType: "image/jpeg", Data: png}, models.CodeValidation},
		{"too large", UploadPhotoInput{UserID: f.owner.ID, Data: make([]byte, 2<<20)}, models.CodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Upload(context.Background(), tt.in)
			assertAppCode(t, err, tt.code)
		})
	}

	var count int64
	require.NoError(t, f.db.Model(&models.Photo{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestPhotoService_PrivateVisibility(t *testing.T) {
	f := newPhotoFixture(t)
	ctx := context.Background()
	photo := testutil.CreatePhoto(t, f.db, f.owner.ID, true)

	_, err := f.svc.Get(ctx, f.owner.ID, photo.ID)
	require.NoError(t, err)
	_, err = f.svc.Get(ctx, f.admin.ID, photo.ID)
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, f.other.ID, photo.ID)
	assertAppCode(t, err, models.CodeNotFound)
	_, err = f.svc.Get(ctx, 0, photo.ID)
	assertAppCode(t, err, models.CodeNotFound)

	err = f.svc.Favorite(ctx, f.other.ID, photo.ID)
	assertAppCode(t, err, models.CodeNotFound)
	err = f.svc.Delete(ctx, f.other.ID, photo.ID)
	assertAppCode(t, err, models.CodeNotFound)
}

func TestPhotoService_FeedSkipsPrivate(t *testing.T) {
	f := newPhotoFixture(t)
	ctx := context.Background()
	public := testutil.CreatePhoto(t, f.db, f.owner.ID, false)
	testutil.CreatePhoto(t, f.db, f.owner.ID, true)

	feed, err := f.svc.Feed(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, public.ID, feed[0].ID)

	mine, err := f.svc.ListMine(ctx, f.owner.ID, 10, 0)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}

func TestPhotoService_Update(t *testing.T) {
	f := newPhotoFixture(t)
	ctx := context.Background()
	photo := testutil.CreatePhoto(t, f.db, f.owner.ID, false)
	private := true
	title := "  harbour at dusk "

	updated, err := f.svc.Update(ctx, UpdatePhotoInput{ActorID: f.owner.ID, PhotoID: photo.ID, Title: &title, IsPrivate: &private})
	require.NoError(t, err)
	assert.Equal(t, "harbour at dusk", updated.Title)
	assert.True(t, updated.IsPrivate)

	_, err = f.svc.Update(ctx, UpdatePhotoInput{ActorID: f.other.ID, PhotoID: photo.ID, Title: &title})
	assertAppCode(t, err, models.CodeNotFound)

	public := testutil.CreatePhoto(t, f.db, f.owner.ID, false)
	_, err = f.svc.Update(ctx, UpdatePhotoInput{ActorID: f.other.ID, PhotoID: public.ID, Title: &title})
	assertAppCode(t, err, models.CodeForbidden)
}

func TestPhotoService_DeleteByAdmin(t *testing.T) {
	f := newPhotoFixture(t)
	ctx := context.Background()
	photo, err := f.svc.Upload(ctx, UploadPhotoInput{UserID: f.owner.ID, Title: "x", Data: testutil.TinyPNG(t, 4, 4)})
	require.NoError(t, err)
	require.NoError(t, f.svc.Favorite(ctx, f.other.ID, photo.ID))

	require.NoError(t, f.svc.Delete(ctx, f.admin.ID, photo.ID))

	_, err = f.svc.Get(ctx, f.owner.ID, photo.ID)
	assertAppCode(t, err, models.CodeNotFound)
	_, err = f.store.Open(ctx, photo.StorageKey)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	favs, err := f.svc.ListFavorites(ctx, f.other.ID, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, favs)
}

func TestPhotoService_Favorites(t *testing.T) {
	f := newPhotoFixture(t)
	ctx := context.Background()
	photo := testutil.CreatePhoto(t, f.db, f.owner.ID, false)

	require.NoError(t, f.svc.Favorite(ctx, f.other.ID, photo.ID))
	err := f.svc.Favorite(ctx, f.other.ID, photo.ID)
	assertAppCode(t, err, models.CodeAlreadyFavorite)

	favs, err := f.svc.ListFavorites(ctx, f.other.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, favs, 1)
	assert.Equal(t, photo.ID, favs[0].ID)

	// Hidden after it was saved.
	require.NoError(t, f.db.Model(&models.Photo{}).Where("id = ?", photo.ID).Update("is_private", true).Error)
	favs, err = f.svc.ListFavorites(ctx, f.other.ID, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, favs)

	require.NoError(t, f.svc.Unfavorite(ctx, f.other.ID, photo.ID))
	err = f.svc.Unfavorite(ctx, f.other.ID, photo.ID)
	assertAppCode(t, err, models.CodeNotFound)
}
