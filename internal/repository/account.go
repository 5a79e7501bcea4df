package repository

import (
	"context"
	"errors"

	"storyboard/internal/models"

	"gorm.io/gorm"
)

// UserGraph is everything that hangs off one account.
type UserGraph struct {
	UserID   uint
	BoardIDs []uint
	PhotoIDs []uint
	// FileKeys are the file store keys of the user's photos.
	FileKeys []string
}

// DeletionSummary counts the rows removed by an account deletion.
type DeletionSummary struct {
	BoardItems int64 `json:"boardItems"`
	Boards     int64 `json:"boards"`
	Photos     int64 `json:"photos"`
	Favorites  int64 `json:"favorites"`
	Reports    int64 `json:"reports"`
}

// AccountRepository removes accounts together with their content.
type AccountRepository interface {
	// DeleteUserCascade collects the user's graph and deletes it, leaves
	// first, in one transaction. The returned graph carries the file keys
	// the caller still has to remove.
	DeleteUserCascade(ctx context.Context, userID uint) (*UserGraph, *DeletionSummary, error)
}

type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository returns a new AccountRepository implementation.
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) DeleteUserCascade(ctx context.Context, userID uint) (*UserGraph, *DeletionSummary, error) {
	var (
		graph   *UserGraph
		summary *DeletionSummary
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		g, err := collectGraph(tx, userID)
		if err != nil {
			return err
		}
		s, err := deleteGraph(tx, g)
		if err != nil {
			return err
		}
		graph, summary = g, s
		return nil
	})
	if err != nil {
		return nil, nil, asAppError(err)
	}
	return graph, summary, nil
}

func collectGraph(tx *gorm.DB, userID uint) (*UserGraph, error) {
	var user models.User
	if err := tx.Select("id").First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", userID)
		}
		return nil, err
	}

	g := &UserGraph{UserID: userID}
	if err := tx.Model(&models.Board{}).Where("user_id = ?", userID).Pluck("id", &g.BoardIDs).Error; err != nil {
		return nil, err
	}

	var photos []models.Photo
	if err := tx.Select("id", "storage_key", "thumbnail_key").Where("user_id = ?", userID).Find(&photos).Error; err != nil {
		return nil, err
	}
	for i := range photos {
		g.PhotoIDs = append(g.PhotoIDs, photos[i].ID)
		g.FileKeys = append(g.FileKeys, photos[i].StorageKeys()...)
	}
	return g, nil
}

func deleteGraph(tx *gorm.DB, g *UserGraph) (*DeletionSummary, error) {
	s := &DeletionSummary{}

	if len(g.BoardIDs) > 0 {
		res := tx.Where("board_id IN ?", g.BoardIDs).Delete(&models.BoardItem{})
		if res.Error != nil {
			return nil, res.Error
		}
		s.BoardItems += res.RowsAffected
	}
	// Items on other users' boards that place this user's photos.
	if len(g.PhotoIDs) > 0 {
		res := tx.Where("photo_id IN ?", g.PhotoIDs).Delete(&models.BoardItem{})
		if res.Error != nil {
			return nil, res.Error
		}
		s.BoardItems += res.RowsAffected
	}

	favs := tx.Where("user_id = ?", g.UserID)
	if len(g.PhotoIDs) > 0 {
		favs = favs.Or("photo_id IN ?", g.PhotoIDs)
	}
	res := favs.Delete(&models.Favorite{})
	if res.Error != nil {
		return nil, res.Error
	}
	s.Favorites = res.RowsAffected

	reports := tx.Where("reporter_id = ?", g.UserID)
	if len(g.PhotoIDs) > 0 {
		reports = reports.Or("photo_id IN ?", g.PhotoIDs)
	}
	res = reports.Delete(&models.Report{})
	if res.Error != nil {
		return nil, res.Error
	}
	s.Reports = res.RowsAffected

	// Reviews the user made stay on record without a reviewer.
	if err := tx.Model(&models.Report{}).
		Where("reviewed_by_id = ?", g.UserID).
		Update("reviewed_by_id", nil).Error; err != nil {
		return nil, err
	}

	if len(g.BoardIDs) > 0 {
		res = tx.Where("id IN ?", g.BoardIDs).Delete(&models.Board{})
		if res.Error != nil {
			return nil, res.Error
		}
		s.Boards = res.RowsAffected
	}
	if len(g.PhotoIDs) > 0 {
		res = tx.Where("id IN ?", g.PhotoIDs).Delete(&models.Photo{})
		if res.Error != nil {
			return nil, res.Error
		}
		s.Photos = res.RowsAffected
	}

	res = tx.Delete(&models.User{}, g.UserID)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, models.NewNotFoundError("User", g.UserID)
	}
	return s, nil
}
