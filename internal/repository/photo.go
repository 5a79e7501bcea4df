package repository

import (
	"context"
	"errors"

	"storyboard/internal/models"

	"gorm.io/gorm"
)

// PhotoRepository defines persistence operations for photos.
type PhotoRepository interface {
	Create(ctx context.Context, photo *models.Photo) error
	GetByID(ctx context.Context, id uint) (*models.Photo, error)
	Update(ctx context.Context, id uint, fields map[string]interface{}) error
	ListPublic(ctx context.Context, limit, offset int) ([]models.Photo, error)
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.Photo, error)
	// DeleteCascade removes the photo and every row that references it.
	DeleteCascade(ctx context.Context, id uint) error
}

type photoRepository struct {
	db *gorm.DB
}

// NewPhotoRepository returns a new PhotoRepository implementation.
func NewPhotoRepository(db *gorm.DB) PhotoRepository {
	return &photoRepository{db: db}
}

func (r *photoRepository) Create(ctx context.Context, photo *models.Photo) error {
	if err := r.db.WithContext(ctx).Create(photo).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *photoRepository) GetByID(ctx context.Context, id uint) (*models.Photo, error) {
	var photo models.Photo
	if err := r.db.WithContext(ctx).First(&photo, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Photo", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &photo, nil
}

func (r *photoRepository) Update(ctx context.Context, id uint, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&models.Photo{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Photo", id)
	}
	return nil
}

func (r *photoRepository) ListPublic(ctx context.Context, limit, offset int) ([]models.Photo, error) {
	var photos []models.Photo
	if err := r.db.WithContext(ctx).
		Preload("User").
		Where("is_private = ?", false).
		Order("created_at DESC, id DESC").
		Limit(clampLimit(limit)).
		Offset(offset).
		Find(&photos).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return photos, nil
}

func (r *photoRepository) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.Photo, error) {
	var photos []models.Photo
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(clampLimit(limit)).
		Offset(offset).
		Find(&photos).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return photos, nil
}

func (r *photoRepository) DeleteCascade(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("photo_id = ?", id).Delete(&models.BoardItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("photo_id = ?", id).Delete(&models.Favorite{}).Error; err != nil {
			return err
		}
		if err := tx.Where("photo_id = ?", id).Delete(&models.Report{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Photo{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Photo", id)
		}
		return nil
	})
	return asAppError(err)
}
