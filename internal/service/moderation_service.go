package service

import (
	"context"
	"log/slog"
	"time"

	"storyboard/internal/cache"
	"storyboard/internal/models"
	"storyboard/internal/notifications"
	"storyboard/internal/observability"
	"storyboard/internal/repository"
	"storyboard/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// ModerationService runs the report lifecycle: users file reports against
// photos and administrators approve or reject them once.
type ModerationService struct {
	reports   repository.ReportRepository
	photos    repository.PhotoRepository
	isAdmin   AdminCheck
	publisher EventPublisher
	now       func() time.Time
}

type CreateReportInput struct {
	ReporterID  uint
	PhotoID     uint
	Reason      string
	Description *string
}

type ListReportsInput struct {
	ActorID uint
	Status  *models.ReportStatus
	// PendingOnly lists the review queue regardless of Status.
	PendingOnly bool
	Page        int
	PageSize    int
}

type ReviewReportInput struct {
	ActorID  uint
	ReportID uint
	Notes    *string
}

// ReportPage is one page of an admin listing.
type ReportPage struct {
	Data        []models.Report `json:"data"`
	TotalCount  int64           `json:"totalCount"`
	PageSize    int             `json:"pageSize"`
	CurrentPage int             `json:"currentPage"`
	TotalPages  int             `json:"totalPages"`
}

func NewModerationService(
	reports repository.ReportRepository,
	photos repository.PhotoRepository,
	isAdmin AdminCheck,
	publisher EventPublisher,
) *ModerationService {
	return &ModerationService{
		reports:   reports,
		photos:    photos,
		isAdmin:   isAdmin,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateReport files a pending report. A reporter gets one report per photo,
// whatever became of the earlier one.
func (s *ModerationService) CreateReport(ctx context.Context, in CreateReportInput) (report *models.Report, err error) {
	ctx, span := observability.StartSpan(ctx, "moderation.create_report",
		attribute.Int64("photo.id", int64(in.PhotoID)))
	defer func() { observability.EndSpan(span, err) }()

	if in.ReporterID == 0 {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	if err := validation.ValidateReportReason(in.Reason); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateReportDescription(in.Description); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if in.PhotoID == 0 {
		return nil, models.NewValidationError("contentId is required")
	}

	photo, err := s.photos.GetByID(ctx, in.PhotoID)
	if err != nil {
		return nil, err
	}
	if err := checkPhotoVisible(ctx, s.isAdmin, in.ReporterID, photo); err != nil {
		return nil, err
	}

	reported, err := s.HasReported(ctx, in.ReporterID, in.PhotoID)
	if err != nil {
		return nil, err
	}
	if reported {
		return nil, models.NewConflictError(models.CodeDuplicateReport,
			"You have already reported this photo")
	}

	report = &models.Report{
		PhotoID:     in.PhotoID,
		ReporterID:  in.ReporterID,
		Reason:      validation.CleanText(in.Reason),
		Description: validation.CleanOptional(in.Description),
		Status:      models.ReportStatusPending,
		CreatedAt:   s.now(),
	}
	if err := s.reports.Create(ctx, report); err != nil {
		return nil, err
	}

	observability.ReportsCreated.Inc()
	slog.InfoContext(ctx, "report created",
		"report_id", report.ID, "photo_id", report.PhotoID, "reporter_id", report.ReporterID)
	publish(ctx, s.publisher, notifications.ModerationEvent{
		Type:     notifications.EventReportCreated,
		ReportID: report.ID,
		PhotoID:  report.PhotoID,
		ActorID:  report.ReporterID,
		Status:   string(report.Status),
		At:       report.CreatedAt,
	})
	return report, nil
}

// HasReported reports whether reporterID ever filed a report against photoID.
func (s *ModerationService) HasReported(ctx context.Context, reporterID, photoID uint) (bool, error) {
	return s.reports.ExistsForReporter(ctx, reporterID, photoID)
}

// ListReports pages through reports. The pending queue is served oldest
// first; every other listing newest first.
func (s *ModerationService) ListReports(ctx context.Context, in ListReportsInput) (*ReportPage, error) {
	if err := requireAdmin(ctx, s.isAdmin, in.ActorID); err != nil {
		return nil, err
	}
	if in.Page < 1 {
		return nil, models.NewValidationError("page must be at least 1")
	}
	if in.PageSize < 1 || in.PageSize > MaxPageSize {
		return nil, models.NewValidationError("pageSize must be between 1 and 100")
	}

	filter := repository.ReportFilter{
		Status: in.Status,
		Limit:  in.PageSize,
		Offset: (in.Page - 1) * in.PageSize,
	}
	if in.PendingOnly {
		pending := models.ReportStatusPending
		filter.Status = &pending
	}
	filter.Ascending = filter.Status != nil && *filter.Status == models.ReportStatusPending

	reports, total, err := s.reports.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if reports == nil {
		reports = []models.Report{}
	}

	return &ReportPage{
		Data:        reports,
		TotalCount:  total,
		PageSize:    in.PageSize,
		CurrentPage: in.Page,
		TotalPages:  int((total + int64(in.PageSize) - 1) / int64(in.PageSize)),
	}, nil
}

// GetReport returns one report with its photo.
func (s *ModerationService) GetReport(ctx context.Context, actorID, reportID uint) (*models.Report, error) {
	if err := requireAdmin(ctx, s.isAdmin, actorID); err != nil {
		return nil, err
	}
	return s.reports.GetByID(ctx, reportID)
}

// ApproveReport upholds a pending report and hides the photo in the same
// transaction. A photo that no longer exists is skipped.
func (s *ModerationService) ApproveReport(ctx context.Context, in ReviewReportInput) (*models.Report, error) {
	report, err := s.review(ctx, in, models.ReportStatusApproved)
	if err != nil {
		return nil, err
	}
	cache.InvalidateFeed(ctx)
	return report, nil
}

// RejectReport dismisses a pending report. The photo is left as it is.
func (s *ModerationService) RejectReport(ctx context.Context, in ReviewReportInput) (*models.Report, error) {
	return s.review(ctx, in, models.ReportStatusRejected)
}

func (s *ModerationService) review(ctx context.Context, in ReviewReportInput, status models.ReportStatus) (report *models.Report, err error) {
	ctx, span := observability.StartSpan(ctx, "moderation.review",
		attribute.Int64("report.id", int64(in.ReportID)),
		attribute.String("report.status", string(status)))
	defer func() { observability.EndSpan(span, err) }()

	if err := requireAdmin(ctx, s.isAdmin, in.ActorID); err != nil {
		return nil, err
	}
	if err := validation.ValidateAdminNotes(in.Notes); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	report, err = s.reports.Review(ctx, repository.ReviewUpdate{
		ReportID:   in.ReportID,
		Status:     status,
		ReviewerID: in.ActorID,
		Notes:      validation.CleanOptional(in.Notes),
		ReviewedAt: s.now(),
		HidePhoto:  status == models.ReportStatusApproved,
	})
	if err != nil {
		if models.IsCode(err, models.CodeAlreadyReviewed) {
			observability.ReportReviews.WithLabelValues("conflict").Inc()
		}
		return nil, err
	}

	observability.ReportReviews.WithLabelValues(string(status)).Inc()
	slog.InfoContext(ctx, "report reviewed",
		"report_id", report.ID, "photo_id", report.PhotoID, "status", report.Status, "reviewer_id", in.ActorID)

	evType := notifications.EventReportRejected
	if status == models.ReportStatusApproved {
		evType = notifications.EventReportApproved
	}
	publish(ctx, s.publisher, notifications.ModerationEvent{
		Type:     evType,
		ReportID: report.ID,
		PhotoID:  report.PhotoID,
		ActorID:  in.ActorID,
		Status:   string(report.Status),
		At:       s.now(),
	})
	return report, nil
}
