package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storyboard/internal/models"

	"gorm.io/gorm"
)

// ReportFilter selects a page of reports.
type ReportFilter struct {
	Status    *models.ReportStatus
	Ascending bool
	Limit     int
	Offset    int
}

// ReviewUpdate resolves a pending report.
type ReviewUpdate struct {
	ReportID   uint
	Status     models.ReportStatus
	ReviewerID uint
	Notes      *string
	ReviewedAt time.Time
	// HidePhoto marks the reported photo private in the same transaction.
	HidePhoto bool
}

// ReportRepository defines persistence operations for reports.
type ReportRepository interface {
	Create(ctx context.Context, report *models.Report) error
	GetByID(ctx context.Context, id uint) (*models.Report, error)
	ExistsForReporter(ctx context.Context, reporterID, photoID uint) (bool, error)
	List(ctx context.Context, filter ReportFilter) ([]models.Report, int64, error)
	Review(ctx context.Context, update ReviewUpdate) (*models.Report, error)
}

type reportRepository struct {
	db *gorm.DB
}

// NewReportRepository returns a new ReportRepository implementation.
func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) Create(ctx context.Context, report *models.Report) error {
	if err := r.db.WithContext(ctx).Create(report).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *reportRepository) GetByID(ctx context.Context, id uint) (*models.Report, error) {
	var report models.Report
	if err := r.db.WithContext(ctx).Preload("Photo").First(&report, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Report", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &report, nil
}

// ExistsForReporter matches reports in any status.
func (r *reportRepository) ExistsForReporter(ctx context.Context, reporterID, photoID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Report{}).
		Where("reporter_id = ? AND photo_id = ?", reporterID, photoID).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *reportRepository) List(ctx context.Context, filter ReportFilter) ([]models.Report, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.Report{})
	if filter.Status != nil {
		base = base.Where("status = ?", *filter.Status)
	}
	base = base.Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	order := "created_at DESC, id DESC"
	if filter.Ascending {
		order = "created_at ASC, id ASC"
	}

	var reports []models.Report
	if err := base.
		Order(order).
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&reports).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return reports, total, nil
}

// Review only touches reports that are still pending. A report that was
// resolved in the meantime yields a conflict.
func (r *reportRepository) Review(ctx context.Context, u ReviewUpdate) (*models.Report, error) {
	var report models.Report
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Report{}).
			Where("id = ? AND status = ?", u.ReportID, models.ReportStatusPending).
			Updates(map[string]interface{}{
				"status":         u.Status,
				"reviewed_by_id": u.ReviewerID,
				"reviewed_at":    u.ReviewedAt,
				"admin_notes":    u.Notes,
			})
		if res.Error != nil {
			return res.Error
		}

		if err := tx.First(&report, u.ReportID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Report", u.ReportID)
			}
			return err
		}
		if res.RowsAffected == 0 {
			if report.IsResolved() {
				return models.NewConflictError(models.CodeAlreadyReviewed,
					fmt.Sprintf("Report %d is already %s", u.ReportID, report.Status))
			}
			return fmt.Errorf("report %d still pending after review update", u.ReportID)
		}

		if u.HidePhoto {
			// Zero rows when the photo is gone.
			if err := tx.Model(&models.Photo{}).
				Where("id = ?", report.PhotoID).
				Update("is_private", true).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, asAppError(err)
	}
	return &report, nil
}
