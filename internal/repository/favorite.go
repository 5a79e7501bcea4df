package repository

import (
	"context"

	"storyboard/internal/database"
	"storyboard/internal/models"

	"gorm.io/gorm"
)

// FavoriteRepository defines persistence operations for favorites.
type FavoriteRepository interface {
	Add(ctx context.Context, userID, photoID uint) error
	Remove(ctx context.Context, userID, photoID uint) (bool, error)
	// ListPhotos returns the user's favorites that the user may still see.
	ListPhotos(ctx context.Context, userID uint, limit, offset int) ([]models.Photo, error)
}

type favoriteRepository struct {
	db *gorm.DB
}

// NewFavoriteRepository returns a new FavoriteRepository implementation.
func NewFavoriteRepository(db *gorm.DB) FavoriteRepository {
	return &favoriteRepository{db: db}
}

func (r *favoriteRepository) Add(ctx context.Context, userID, photoID uint) error {
	fav := &models.Favorite{UserID: userID, PhotoID: photoID}
	if err := r.db.WithContext(ctx).Create(fav).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return models.NewConflictError(models.CodeAlreadyFavorite, "Photo is already in favorites")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *favoriteRepository) Remove(ctx context.Context, userID, photoID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND photo_id = ?", userID, photoID).
		Delete(&models.Favorite{})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *favoriteRepository) ListPhotos(ctx context.Context, userID uint, limit, offset int) ([]models.Photo, error) {
	var photos []models.Photo
	if err := r.db.WithContext(ctx).
		Model(&models.Photo{}).
		Joins("JOIN favorites ON favorites.photo_id = photos.id").
		Where("favorites.user_id = ?", userID).
		Where("(photos.is_private = ? OR photos.user_id = ?)", false, userID).
		Order("favorites.created_at DESC").
		Limit(clampLimit(limit)).
		Offset(offset).
		Find(&photos).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return photos, nil
}
