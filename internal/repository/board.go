package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"storyboard/internal/models"

	"gorm.io/gorm"
)

// BoardRepository defines persistence operations for boards and their items.
type BoardRepository interface {
	Create(ctx context.Context, board *models.Board) error
	GetByID(ctx context.Context, id uint) (*models.Board, error)
	GetWithItems(ctx context.Context, id uint) (*models.Board, error)
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.Board, error)
	ListPublic(ctx context.Context, limit, offset int) ([]models.Board, error)
	Update(ctx context.Context, id uint, fields map[string]interface{}) error
	Delete(ctx context.Context, id uint) error

	CreateItem(ctx context.Context, item *models.BoardItem) error
	GetItem(ctx context.Context, boardID, itemID uint) (*models.BoardItem, error)
	UpdateItem(ctx context.Context, boardID, itemID uint, fields map[string]interface{}) error
	SaveLayouts(ctx context.Context, boardID uint, layouts map[uint]models.Layout) error
	DeleteItem(ctx context.Context, boardID, itemID uint) error
	MaxZIndex(ctx context.Context, boardID uint) (int, error)
}

type boardRepository struct {
	db *gorm.DB
}

// NewBoardRepository returns a new BoardRepository implementation.
func NewBoardRepository(db *gorm.DB) BoardRepository {
	return &boardRepository{db: db}
}

func (r *boardRepository) Create(ctx context.Context, board *models.Board) error {
	if err := r.db.WithContext(ctx).Create(board).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *boardRepository) GetByID(ctx context.Context, id uint) (*models.Board, error) {
	var board models.Board
	if err := r.db.WithContext(ctx).First(&board, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Board", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &board, nil
}

func (r *boardRepository) GetWithItems(ctx context.Context, id uint) (*models.Board, error) {
	var board models.Board
	if err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("z_index ASC, id ASC")
		}).
		Preload("Items.Photo").
		First(&board, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Board", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &board, nil
}

func (r *boardRepository) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.Board, error) {
	var boards []models.Board
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC, id DESC").
		Limit(clampLimit(limit)).
		Offset(offset).
		Find(&boards).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return boards, nil
}

func (r *boardRepository) ListPublic(ctx context.Context, limit, offset int) ([]models.Board, error) {
	var boards []models.Board
	if err := r.db.WithContext(ctx).
		Preload("User").
		Where("is_public = ?", true).
		Order("updated_at DESC, id DESC").
		Limit(clampLimit(limit)).
		Offset(offset).
		Find(&boards).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return boards, nil
}

func (r *boardRepository) Update(ctx context.Context, id uint, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&models.Board{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Board", id)
	}
	return nil
}

// Delete removes the items before the board itself.
func (r *boardRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("board_id = ?", id).Delete(&models.BoardItem{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Board{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Board", id)
		}
		return nil
	})
	return asAppError(err)
}

func (r *boardRepository) CreateItem(ctx context.Context, item *models.BoardItem) error {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return models.NewInternalError(err)
	}
	r.touch(ctx, item.BoardID)
	return nil
}

func (r *boardRepository) GetItem(ctx context.Context, boardID, itemID uint) (*models.BoardItem, error) {
	var item models.BoardItem
	if err := r.db.WithContext(ctx).
		Where("id = ? AND board_id = ?", itemID, boardID).
		First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Board item", itemID)
		}
		return nil, models.NewInternalError(err)
	}
	return &item, nil
}

func (r *boardRepository) UpdateItem(ctx context.Context, boardID, itemID uint, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).
		Model(&models.BoardItem{}).
		Where("id = ? AND board_id = ?", itemID, boardID).
		Updates(fields)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Board item", itemID)
	}
	r.touch(ctx, boardID)
	return nil
}

// SaveLayouts applies every layout or none of them.
func (r *boardRepository) SaveLayouts(ctx context.Context, boardID uint, layouts map[uint]models.Layout) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for itemID, l := range layouts {
			res := tx.Model(&models.BoardItem{}).
				Where("id = ? AND board_id = ?", itemID, boardID).
				Updates(layoutFields(l))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return models.NewNotFoundError("Board item", itemID)
			}
		}
		return tx.Model(&models.Board{}).Where("id = ?", boardID).Update("updated_at", time.Now().UTC()).Error
	})
	return asAppError(err)
}

func (r *boardRepository) DeleteItem(ctx context.Context, boardID, itemID uint) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND board_id = ?", itemID, boardID).
		Delete(&models.BoardItem{})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Board item", itemID)
	}
	r.touch(ctx, boardID)
	return nil
}

func (r *boardRepository) MaxZIndex(ctx context.Context, boardID uint) (int, error) {
	var max sql.NullInt64
	if err := r.db.WithContext(ctx).
		Model(&models.BoardItem{}).
		Where("board_id = ?", boardID).
		Select("MAX(z_index)").
		Row().
		Scan(&max); err != nil {
		return 0, models.NewInternalError(err)
	}
	if !max.Valid {
		return -1, nil
	}
	return int(max.Int64), nil
}

// touch bumps the board's updated_at so recently edited boards list first.
func (r *boardRepository) touch(ctx context.Context, boardID uint) {
	_ = r.db.WithContext(ctx).
		Model(&models.Board{}).
		Where("id = ?", boardID).
		Update("updated_at", time.Now().UTC()).Error
}

func layoutFields(l models.Layout) map[string]interface{} {
	return map[string]interface{}{
		"x":        l.X,
		"y":        l.Y,
		"width":    l.Width,
		"height":   l.Height,
		"rotation": l.Rotation,
		"z_index":  l.ZIndex,
	}
}
