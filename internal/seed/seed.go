// Package seed fills a database with demo users, photos, boards and
// reports for development.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"storyboard/internal/models"
	"storyboard/internal/service"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

var reportReasons = []string{
	"Spam",
	"Inappropriate Content",
	"Harassment",
	"Copyright Violation",
	"Misleading",
}

// Services are the entry points the seeder writes through, so seeded data
// passes the same validation and image processing as real uploads.
type Services struct {
	Photos     *service.PhotoService
	Boards     *service.BoardService
	Moderation *service.ModerationService
}

// Summary counts what a run created.
type Summary struct {
	Admins  int
	Users   int
	Photos  int
	Boards  int
	Reports int
}

// Seeder creates demo data.
type Seeder struct {
	db   *gorm.DB
	svc  Services
	opts Options
}

// NewSeeder returns a Seeder writing to db through svc.
func NewSeeder(db *gorm.DB, svc Services, opts Options) *Seeder {
	return &Seeder{db: db, svc: svc, opts: opts}
}

// Run seeds everything Options asks for. Admin accounts are upserted; all
// other rows are added on top of what is already there.
func (s *Seeder) Run(ctx context.Context) (*Summary, error) {
	if err := s.opts.validate(); err != nil {
		return nil, err
	}
	factory, err := NewFactory(s.db, s.opts)
	if err != nil {
		return nil, err
	}

	sum := &Summary{}
	for _, a := range s.opts.Admins {
		if _, err := factory.EnsureAdmin(ctx, a); err != nil {
			return sum, fmt.Errorf("seed admin %s: %w", a.Email, err)
		}
		sum.Admins++
	}

	users := make([]*models.User, 0, s.opts.Users)
	for i := 0; i < s.opts.Users; i++ {
		u, err := factory.CreateUser()
		if err != nil {
			return sum, fmt.Errorf("seed user: %w", err)
		}
		users = append(users, u)
		sum.Users++
	}

	var photos []*models.Photo
	for _, u := range users {
		var mine []*models.Photo
		for i := 0; i < s.opts.PhotosPerUser; i++ {
			p, err := s.svc.Photos.Upload(ctx, service.UploadPhotoInput{
				UserID:      u.ID,
				Title:       strings.TrimSuffix(gofakeit.Sentence(3), "."),
				Filename:    fmt.Sprintf("demo-%d-%d.png", u.ID, i),
				ContentType: "image/png",
				Data:        gofakeit.ImagePng(320, 240),
			})
			if err != nil {
				return sum, fmt.Errorf("seed photo for user %d: %w", u.ID, err)
			}
			mine = append(mine, p)
			sum.Photos++
		}
		photos = append(photos, mine...)

		for i := 0; i < s.opts.BoardsPerUser; i++ {
			if err := s.seedBoard(ctx, u, mine); err != nil {
				return sum, err
			}
			sum.Boards++
		}
	}

	n, err := s.seedReports(ctx, users, photos)
	sum.Reports = n
	if err != nil {
		return sum, err
	}

	slog.InfoContext(ctx, "seed complete",
		"admins", sum.Admins, "users", sum.Users, "photos", sum.Photos,
		"boards", sum.Boards, "reports", sum.Reports)
	return sum, nil
}

func (s *Seeder) seedBoard(ctx context.Context, u *models.User, photos []*models.Photo) error {
	board, err := s.svc.Boards.Create(ctx, service.CreateBoardInput{
		UserID:      u.ID,
		Title:       strings.TrimSuffix(gofakeit.Sentence(2), "."),
		Description: gofakeit.Sentence(8),
		IsPublic:    gofakeit.Bool(),
	})
	if err != nil {
		return fmt.Errorf("seed board for user %d: %w", u.ID, err)
	}

	for i, p := range photos {
		id := p.ID
		if _, err := s.svc.Boards.AddItem(ctx, service.AddItemInput{
			ActorID: u.ID,
			BoardID: board.ID,
			Kind:    models.BoardItemPhoto,
			PhotoID: &id,
			Layout: models.Layout{
				X:        float64(40 + i*260),
				Y:        float64(gofakeit.Number(20, 200)),
				Width:    240,
				Height:   180,
				Rotation: float64(gofakeit.Number(-8, 8)),
			},
		}); err != nil {
			return fmt.Errorf("seed board item: %w", err)
		}
	}
	_, err = s.svc.Boards.AddItem(ctx, service.AddItemInput{
		ActorID: u.ID,
		BoardID: board.ID,
		Kind:    models.BoardItemText,
		Text:    gofakeit.Sentence(6),
		Layout:  models.Layout{X: 40, Y: 420, Width: 400, Height: 60},
	})
	if err != nil {
		return fmt.Errorf("seed board caption: %w", err)
	}
	return nil
}

// seedReports files up to Options.Reports reports, each by a user who does
// not own the photo. Users never report the same photo twice.
func (s *Seeder) seedReports(ctx context.Context, users []*models.User, photos []*models.Photo) (int, error) {
	if len(users) < 2 || len(photos) == 0 {
		return 0, nil
	}
	created := 0
	for attempt := 0; created < s.opts.Reports && attempt < s.opts.Reports*4; attempt++ {
		photo := photos[gofakeit.Number(0, len(photos)-1)]
		reporter := users[gofakeit.Number(0, len(users)-1)]
		if reporter.ID == photo.UserID {
			continue
		}
		_, err := s.svc.Moderation.CreateReport(ctx, service.CreateReportInput{
			ReporterID: reporter.ID,
			PhotoID:    photo.ID,
			Reason:     reportReasons[gofakeit.Number(0, len(reportReasons)-1)],
		})
		switch {
		case models.IsCode(err, models.CodeDuplicateReport):
			continue
		case err != nil:
			return created, fmt.Errorf("seed report: %w", err)
		}
		created++
	}
	return created, nil
}
