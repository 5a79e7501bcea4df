package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"storyboard/internal/cache"
	"storyboard/internal/models"
	"storyboard/internal/observability"
	"storyboard/internal/repository"
	"storyboard/internal/storage"
	"storyboard/internal/validation"
)

const (
	DefaultMaxUploadBytes = 10 << 20
	DefaultFeedCacheTTL   = 30 * time.Second

	PhotoVariantOriginal  = "original"
	PhotoVariantThumbnail = "thumbnail"
)

// PhotoService manages uploads, the public feed and favorites.
type PhotoService struct {
	photos         repository.PhotoRepository
	favorites      repository.FavoriteRepository
	store          storage.Store
	isAdmin        AdminCheck
	maxUploadBytes int64
	feedTTL        time.Duration
}

type PhotoOptions struct {
	MaxUploadBytes int64
	FeedCacheTTL   time.Duration
}

type UploadPhotoInput struct {
	UserID      uint
	Title       string
	Filename    string
	ContentType string
	Data        []byte
}

type UpdatePhotoInput struct {
	ActorID   uint
	PhotoID   uint
	Title     *string
	IsPrivate *bool
}

func NewPhotoService(
	photos repository.PhotoRepository,
	favorites repository.FavoriteRepository,
	store storage.Store,
	isAdmin AdminCheck,
	opts PhotoOptions,
) *PhotoService {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if opts.FeedCacheTTL <= 0 {
		opts.FeedCacheTTL = DefaultFeedCacheTTL
	}
	return &PhotoService{
		photos:         photos,
		favorites:      favorites,
		store:          store,
		isAdmin:        isAdmin,
		maxUploadBytes: opts.MaxUploadBytes,
		feedTTL:        opts.FeedCacheTTL,
	}
}

// Upload stores the original, renders a WebP thumbnail and records the
// photo. Files already written are removed if a later step fails.
func (s *PhotoService) Upload(ctx context.Context, in UploadPhotoInput) (*models.Photo, error) {
	if in.UserID == 0 {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	if len(in.Data) == 0 {
		return nil, models.NewValidationError("No file uploaded")
	}
	if int64(len(in.Data)) > s.maxUploadBytes {
		return nil, models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxUploadBytes>>20))
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = strings.TrimSuffix(in.Filename, fileExt(in.Filename))
	}
	title = validation.CleanText(title)
	if title != "" {
		if err := validation.ValidateTitle("title", title, validation.MaxPhotoTitleLen); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
	}

	decoded, reason := decodeUpload(in.Data, in.ContentType)
	if decoded == nil {
		return nil, models.NewValidationError(reason)
	}

	thumb, err := encodeWebP(resizeToFit(decoded.img, ThumbnailMaxSize, ThumbnailMaxSize), WebPQuality)
	if err != nil {
		return nil, models.NewInternalError(fmt.Errorf("encode thumbnail: %w", err))
	}

	photo := &models.Photo{
		UserID:       in.UserID,
		Title:        title,
		StorageKey:   storage.NewKey("originals", decoded.ext),
		ThumbnailKey: storage.NewKey("thumbnails", "webp"),
		ContentType:  decoded.contentType,
		Width:        decoded.img.Bounds().Dx(),
		Height:       decoded.img.Bounds().Dy(),
		SizeBytes:    int64(len(in.Data)),
	}

	if err := s.store.Put(ctx, photo.StorageKey, in.Data); err != nil {
		return nil, models.NewInternalError(fmt.Errorf("store original: %w", err))
	}
	if err := s.store.Put(ctx, photo.ThumbnailKey, thumb); err != nil {
		s.removeFiles(ctx, photo.StorageKey)
		return nil, models.NewInternalError(fmt.Errorf("store thumbnail: %w", err))
	}
	if err := s.photos.Create(ctx, photo); err != nil {
		s.removeFiles(ctx, photo.StorageKeys()...)
		return nil, err
	}

	observability.UploadBytes.Observe(float64(photo.SizeBytes))
	cache.InvalidateFeed(ctx)
	slog.InfoContext(ctx, "photo uploaded", "photo_id", photo.ID, "bytes", photo.SizeBytes)
	return photo, nil
}

// Get hides private photos from everyone but the owner and admins.
func (s *PhotoService) Get(ctx context.Context, viewerID, photoID uint) (*models.Photo, error) {
	photo, err := s.photos.GetByID(ctx, photoID)
	if err != nil {
		return nil, err
	}
	if err := checkPhotoVisible(ctx, s.isAdmin, viewerID, photo); err != nil {
		return nil, err
	}
	return photo, nil
}

// Open streams a stored variant of the photo. The caller closes the reader.
func (s *PhotoService) Open(ctx context.Context, viewerID, photoID uint, variant string) (io.ReadCloser, string, error) {
	photo, err := s.Get(ctx, viewerID, photoID)
	if err != nil {
		return nil, "", err
	}

	key, contentType := photo.StorageKey, photo.ContentType
	if variant == PhotoVariantThumbnail {
		key, contentType = photo.ThumbnailKey, "image/webp"
	}
	rc, err := s.store.Open(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, "", models.NewNotFoundError("Photo file", photoID)
		}
		return nil, "", models.NewInternalError(err)
	}
	return rc, contentType, nil
}

// Update lets the owner retitle the photo or change its privacy.
func (s *PhotoService) Update(ctx context.Context, in UpdatePhotoInput) (*models.Photo, error) {
	photo, err := s.photos.GetByID(ctx, in.PhotoID)
	if err != nil {
		return nil, err
	}
	if photo.UserID != in.ActorID {
		if err := checkPhotoVisible(ctx, s.isAdmin, in.ActorID, photo); err != nil {
			return nil, err
		}
		return nil, models.NewForbiddenError("Only the owner can edit this photo")
	}

	fields := map[string]interface{}{}
	if in.Title != nil {
		title := validation.CleanText(*in.Title)
		if err := validation.ValidateTitle("title", title, validation.MaxPhotoTitleLen); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		fields["title"] = title
		photo.Title = title
	}
	if in.IsPrivate != nil {
		fields["is_private"] = *in.IsPrivate
		photo.IsPrivate = *in.IsPrivate
	}
	if len(fields) == 0 {
		return photo, nil
	}

	if err := s.photos.Update(ctx, photo.ID, fields); err != nil {
		return nil, err
	}
	cache.InvalidateFeed(ctx)
	return photo, nil
}

// Delete removes the photo, the rows that point at it and then its files.
func (s *PhotoService) Delete(ctx context.Context, actorID, photoID uint) error {
	photo, err := s.photos.GetByID(ctx, photoID)
	if err != nil {
		return err
	}
	if photo.UserID != actorID {
		if err := requireAdmin(ctx, s.isAdmin, actorID); err != nil {
			if models.IsCode(err, models.CodeForbidden) && photo.IsPrivate {
				return models.NewNotFoundError("Photo", photoID)
			}
			return err
		}
	}

	if err := s.photos.DeleteCascade(ctx, photoID); err != nil {
		return err
	}
	s.removeFiles(ctx, photo.StorageKeys()...)
	cache.InvalidateFeed(ctx)
	slog.InfoContext(ctx, "photo deleted", "photo_id", photoID, "actor_id", actorID)
	return nil
}

// Feed lists public photos newest first, through the shared cache.
func (s *PhotoService) Feed(ctx context.Context, limit, offset int) ([]models.Photo, error) {
	limit, offset = normalizePage(limit, offset)

	var photos []models.Photo
	key := cache.FeedKey(ctx, limit, offset)
	err := cache.Aside(ctx, cache.FeedCacheName, key, &photos, s.feedTTL, func() error {
		var err error
		photos, err = s.photos.ListPublic(ctx, limit, offset)
		return err
	})
	if err != nil {
		return nil, err
	}
	if photos == nil {
		photos = []models.Photo{}
	}
	return photos, nil
}

// ListMine lists the user's own photos, private ones included.
func (s *PhotoService) ListMine(ctx context.Context, userID uint, limit, offset int) ([]models.Photo, error) {
	limit, offset = normalizePage(limit, offset)
	photos, err := s.photos.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	if photos == nil {
		photos = []models.Photo{}
	}
	return photos, nil
}

func (s *PhotoService) Favorite(ctx context.Context, userID, photoID uint) error {
	photo, err := s.photos.GetByID(ctx, photoID)
	if err != nil {
		return err
	}
	if !photo.VisibleTo(userID) {
		return models.NewNotFoundError("Photo", photoID)
	}
	return s.favorites.Add(ctx, userID, photoID)
}

func (s *PhotoService) Unfavorite(ctx context.Context, userID, photoID uint) error {
	removed, err := s.favorites.Remove(ctx, userID, photoID)
	if err != nil {
		return err
	}
	if !removed {
		return models.NewNotFoundError("Favorite", photoID)
	}
	return nil
}

// ListFavorites leaves out photos that were hidden since they were saved.
func (s *PhotoService) ListFavorites(ctx context.Context, userID uint, limit, offset int) ([]models.Photo, error) {
	limit, offset = normalizePage(limit, offset)
	photos, err := s.favorites.ListPhotos(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	if photos == nil {
		photos = []models.Photo{}
	}
	return photos, nil
}

func (s *PhotoService) removeFiles(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if err := s.store.Delete(ctx, key); err != nil {
			slog.WarnContext(ctx, "failed to remove photo file", "key", key, "error", err)
		}
	}
}

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 || limit > MaxPageSize {
		limit = DefaultPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func fileExt(name string) string {
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		return name[i:]
	}
	return ""
}
