package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"storyboard/internal/models"
	"storyboard/internal/notifications"
	"storyboard/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// reportRepoStub is a stub for repository.ReportRepository.
type reportRepoStub struct {
	createFn            func(context.Context, *models.Report) error
	getByIDFn           func(context.Context, uint) (*models.Report, error)
	existsForReporterFn func(context.Context, uint, uint) (bool, error)
	listFn              func(context.Context, repository.ReportFilter) ([]models.Report, int64, error)
	reviewFn            func(context.Context, repository.ReviewUpdate) (*models.Report, error)
}

func (s *reportRepoStub) Create(ctx context.Context, r *models.Report) error {
	return s.createFn(ctx, r)
}
func (s *reportRepoStub) GetByID(ctx context.Context, id uint) (*models.Report, error) {
	return s.getByIDFn(ctx, id)
}
func (s *reportRepoStub) ExistsForReporter(ctx context.Context, reporterID, photoID uint) (bool, error) {
	return s.existsForReporterFn(ctx, reporterID, photoID)
}
func (s *reportRepoStub) List(ctx context.Context, f repository.ReportFilter) ([]models.Report, int64, error) {
	return s.listFn(ctx, f)
}
func (s *reportRepoStub) Review(ctx context.Context, u repository.ReviewUpdate) (*models.Report, error) {
	return s.reviewFn(ctx, u)
}

func noopReportRepo() *reportRepoStub {
	return &reportRepoStub{
		createFn:            func(_ context.Context, r *models.Report) error { r.ID = 1; return nil },
		getByIDFn:           func(_ context.Context, id uint) (*models.Report, error) { return &models.Report{ID: id}, nil },
		existsForReporterFn: func(_ context.Context, _, _ uint) (bool, error) { return false, nil },
		listFn: func(_ context.Context, _ repository.ReportFilter) ([]models.Report, int64, error) {
			return nil, 0, nil
		},
		reviewFn: func(_ context.Context, u repository.ReviewUpdate) (*models.Report, error) {
			at := u.ReviewedAt
			return &models.Report{ID: u.ReportID, Status: u.Status, ReviewedByID: &u.ReviewerID, ReviewedAt: &at, AdminNotes: u.Notes}, nil
		},
	}
}

// photoRepoStub is a stub for repository.PhotoRepository.
type photoRepoStub struct {
	createFn        func(context.Context, *models.Photo) error
	getByIDFn       func(context.Context, uint) (*models.Photo, error)
	updateFn        func(context.Context, uint, map[string]interface{}) error
	listPublicFn    func(context.Context, int, int) ([]models.Photo, error)
	listByUserFn    func(context.Context, uint, int, int) ([]models.Photo, error)
	deleteCascadeFn func(context.Context, uint) error
}

func (s *photoRepoStub) Create(ctx context.Context, p *models.Photo) error {
	return s.createFn(ctx, p)
}
func (s *photoRepoStub) GetByID(ctx context.Context, id uint) (*models.Photo, error) {
	return s.getByIDFn(ctx, id)
}
func (s *photoRepoStub) Update(ctx context.Context, id uint, fields map[string]interface{}) error {
	return s.updateFn(ctx, id, fields)
}
func (s *photoRepoStub) ListPublic(ctx context.Context, limit, offset int) ([]models.Photo, error) {
	return s.listPublicFn(ctx, limit, offset)
}
func (s *photoRepoStub) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.Photo, error) {
	return s.listByUserFn(ctx, userID, limit, offset)
}
func (s *photoRepoStub) DeleteCascade(ctx context.Context, id uint) error {
	return s.deleteCascadeFn(ctx, id)
}

func noopPhotoRepo() *photoRepoStub {
	return &photoRepoStub{
		createFn:        func(_ context.Context, p *models.Photo) error { p.ID = 1; return nil },
		getByIDFn:       func(_ context.Context, id uint) (*models.Photo, error) { return &models.Photo{ID: id, UserID: 99}, nil },
		updateFn:        func(_ context.Context, _ uint, _ map[string]interface{}) error { return nil },
		listPublicFn:    func(_ context.Context, _, _ int) ([]models.Photo, error) { return nil, nil },
		listByUserFn:    func(_ context.Context, _ uint, _, _ int) ([]models.Photo, error) { return nil, nil },
		deleteCascadeFn: func(_ context.Context, _ uint) error { return nil },
	}
}

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn        func(context.Context, uint) (*models.User, error)
	getByEmailFn     func(context.Context, string) (*models.User, error)
	createFn         func(context.Context, *models.User) error
	listFn           func(context.Context, string, int, int) ([]models.User, int64, error)
	setLockedUntilFn func(context.Context, uint, *time.Time) error
	setAdminFn       func(context.Context, uint, bool) error
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) Create(ctx context.Context, u *models.User) error {
	return s.createFn(ctx, u)
}
func (s *userRepoStub) List(ctx context.Context, q string, limit, offset int) ([]models.User, int64, error) {
	return s.listFn(ctx, q, limit, offset)
}
func (s *userRepoStub) SetLockedUntil(ctx context.Context, id uint, until *time.Time) error {
	return s.setLockedUntilFn(ctx, id, until)
}
func (s *userRepoStub) SetAdmin(ctx context.Context, id uint, admin bool) error {
	return s.setAdminFn(ctx, id, admin)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn:        func(_ context.Context, id uint) (*models.User, error) { return &models.User{ID: id}, nil },
		getByEmailFn:     func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		createFn:         func(_ context.Context, _ *models.User) error { return nil },
		listFn:           func(_ context.Context, _ string, _, _ int) ([]models.User, int64, error) { return nil, 0, nil },
		setLockedUntilFn: func(_ context.Context, _ uint, _ *time.Time) error { return nil },
		setAdminFn:       func(_ context.Context, _ uint, _ bool) error { return nil },
	}
}

// accountRepoStub is a stub for repository.AccountRepository.
type accountRepoStub struct {
	deleteUserCascadeFn func(context.Context, uint) (*repository.UserGraph, *repository.DeletionSummary, error)
}

func (s *accountRepoStub) DeleteUserCascade(ctx context.Context, id uint) (*repository.UserGraph, *repository.DeletionSummary, error) {
	return s.deleteUserCascadeFn(ctx, id)
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []notifications.ModerationEvent
	err    error
}

func (p *recordingPublisher) PublishModeration(_ context.Context, ev notifications.ModerationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) types() []notifications.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]notifications.EventType, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

// adminsOnly returns an AdminCheck granting the role to ids.
func adminsOnly(ids ...uint) AdminCheck {
	set := map[uint]bool{}
	for _, id := range ids {
		set[id] = true
	}
	return func(_ context.Context, id uint) (bool, error) { return set[id], nil }
}

func assertAppCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}
