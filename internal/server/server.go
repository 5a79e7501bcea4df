// Package server contains the HTTP and WebSocket handlers of the API.
package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storyboard/internal/auth"
	"storyboard/internal/cache"
	"storyboard/internal/config"
	"storyboard/internal/database"
	"storyboard/internal/identity"
	"storyboard/internal/middleware"
	"storyboard/internal/models"
	"storyboard/internal/notifications"
	"storyboard/internal/repository"
	"storyboard/internal/service"
	"storyboard/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	directory *identity.Directory
	tokens    *auth.TokenIssuer
	auth      *middleware.Authenticator
	store     storage.Store

	notifier *notifications.Notifier
	hub      *notifications.Hub

	moderationService *service.ModerationService
	accountService    *service.AccountService
	photoService      *service.PhotoService
	boardService      *service.BoardService
}

// NewServer connects to the database and redis named in cfg and builds a
// Server on top of them.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	redisClient := cache.InitRedis(cfg.RedisURL)

	store, err := storage.NewLocalStore(cfg.UploadDir)
	if err != nil {
		return nil, err
	}
	return NewServerWithDeps(cfg, db, redisClient, store)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil; events are then delivered to this node only.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, store storage.Store) (*Server, error) {
	if db == nil {
		return nil, errors.New("server: database is required")
	}
	if store == nil {
		return nil, errors.New("server: file store is required")
	}

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics(cfg.ServiceName),
		directory:      identity.NewDirectory(db, identity.DefaultTTL),
		tokens:         auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTTTL()),
		store:          store,
		hub:            notifications.NewHub(),
	}
	s.auth = middleware.NewAuthenticator(s.tokens, s.directory)

	// Without redis the hub is the publisher and events stay on this node.
	var publisher service.EventPublisher = s.hub
	if redisClient != nil {
		s.notifier = notifications.NewNotifier(redisClient)
		publisher = s.notifier
	}

	reports := repository.NewReportRepository(db)
	photos := repository.NewPhotoRepository(db)
	favorites := repository.NewFavoriteRepository(db)
	boards := repository.NewBoardRepository(db)
	users := repository.NewUserRepository(db)
	accounts := repository.NewAccountRepository(db)

	s.moderationService = service.NewModerationService(reports, photos, s.directory.IsAdmin, publisher)
	s.accountService = service.NewAccountService(users, accounts, store, s.directory.IsAdmin, s.directory.Invalidate, publisher)
	s.photoService = service.NewPhotoService(photos, favorites, store, s.directory.IsAdmin, service.PhotoOptions{
		MaxUploadBytes: cfg.MaxUploadBytes(),
		FeedCacheTTL:   cfg.FeedCacheTTL(),
	})
	s.boardService = service.NewBoardService(boards, photos)

	return s, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	if s.config.SentryDSN != "" {
		app.Use(sentryfiber.New(sentryfiber.Options{Repanic: true}))
	}
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.ContextMiddleware())
	app.Use(middleware.TracingMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || s.config.Env == "test"
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return models.RespondWithError(c, fiber.StatusTooManyRequests, models.NewRateLimitedError())
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")
	// Group handlers are mounted as prefix middleware, so routes that mix
	// anonymous and signed-in access take their auth handler per route.
	authed := s.auth.AuthRequired()
	viewer := s.auth.OptionalAuth()

	// Reports. Admin access is enforced by the moderation service.
	reports := api.Group("/reports", authed)
	reports.Post("/", middleware.RateLimiter(s.redis, middleware.RateLimit{
		Env:      s.config.Env,
		Resource: "create_report",
		Limit:    s.config.ReportRateLimit,
		Window:   time.Duration(s.config.ReportRateWindowSeconds) * time.Second,
		Policy:   middleware.FailOpen,
	}), s.CreateReport)
	reports.Get("/", s.ListPendingReports)
	reports.Get("/all", s.ListReports)
	reports.Put("/approve/:id", s.ApproveReport)
	reports.Post("/approve/:id", s.ApproveReport)
	reports.Put("/reject/:id", s.RejectReport)
	reports.Post("/reject/:id", s.RejectReport)
	// Generic /:id route must be last
	reports.Get("/:id", s.GetReport)

	admin := api.Group("/admin", authed, s.auth.AdminRequired())
	admin.Get("/users", s.ListUsers)
	admin.Post("/users/:id/lock", s.LockUser)
	admin.Post("/users/:id/unlock", s.UnlockUser)
	admin.Delete("/users/:id", s.DeleteUser)

	// Photos
	api.Post("/photos", authed, s.UploadPhoto)
	api.Get("/photos/feed", viewer, s.GetFeed)
	api.Get("/photos/mine", authed, s.GetMyPhotos)
	api.Get("/photos/:id/file", viewer, s.ServePhoto(service.PhotoVariantOriginal))
	api.Get("/photos/:id/thumbnail", viewer, s.ServePhoto(service.PhotoVariantThumbnail))
	api.Post("/photos/:id/favorite", authed, s.FavoritePhoto)
	api.Delete("/photos/:id/favorite", authed, s.UnfavoritePhoto)
	api.Get("/photos/:id", viewer, s.GetPhoto)
	api.Patch("/photos/:id", authed, s.UpdatePhoto)
	api.Delete("/photos/:id", authed, s.DeletePhoto)
	api.Get("/favorites", authed, s.GetFavorites)

	// Boards
	api.Post("/boards", authed, s.CreateBoard)
	api.Get("/boards", authed, s.GetMyBoards)
	api.Get("/boards/public", viewer, s.GetPublicBoards)
	api.Post("/boards/:id/items", authed, s.AddBoardItem)
	api.Patch("/boards/:id/items/:itemId", authed, s.UpdateBoardItem)
	api.Delete("/boards/:id/items/:itemId", authed, s.DeleteBoardItem)
	api.Post("/boards/:id/items/:itemId/front", authed, s.BringBoardItemToFront)
	api.Put("/boards/:id/layout", authed, s.SaveBoardLayout)
	api.Get("/boards/:id", viewer, s.GetBoard)
	api.Patch("/boards/:id", authed, s.UpdateBoard)
	api.Delete("/boards/:id", authed, s.DeleteBoard)

	ws := api.Group("/ws", s.auth.WebSocketAuthRequired(), s.auth.AdminRequired())
	ws.Get("/moderation", s.ModerationSocket())
}

// NewApp builds the Fiber app with every middleware and route installed.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Storyboard API",
		BodyLimit:    int(s.config.MaxUploadBytes()) + 1<<20,
		ErrorHandler: s.errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// errorHandler serves errors that escape a handler, including Fiber's own
// routing errors.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code := models.CodeInternal
		switch fe.Code {
		case fiber.StatusNotFound:
			code = models.CodeNotFound
		case fiber.StatusBadRequest, fiber.StatusRequestEntityTooLarge, fiber.StatusMethodNotAllowed:
			code = models.CodeValidation
		}
		return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message, Code: code})
	}
	return respondServiceError(c, err)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "up",
		"time":   time.Now().UTC(),
	})
}

// ReadinessCheck reports 503 when the database is unreachable or a
// configured redis does not answer.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if sqlDB, err := s.db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overall := "healthy"
	if dbStatus != "healthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now().UTC(),
	})
}

// Tokens exposes the issuer so the CLI can mint tokens the server accepts.
func (s *Server) Tokens() *auth.TokenIssuer {
	return s.tokens
}

// Accounts is the account service, for the operator CLI.
func (s *Server) Accounts() *service.AccountService { return s.accountService }

// Photos is the photo service.
func (s *Server) Photos() *service.PhotoService { return s.photoService }

// Boards is the board service.
func (s *Server) Boards() *service.BoardService { return s.boardService }

// Moderation is the moderation service.
func (s *Server) Moderation() *service.ModerationService { return s.moderationService }

// DB is the database handle the server was built with.
func (s *Server) DB() *gorm.DB { return s.db }

// StartHub runs the moderation hub without serving HTTP, for callers such as
// the operator CLI that publish events but never call Start. stop cancels the
// hub and waits for it to exit.
func (s *Server) StartHub(ctx context.Context) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	go s.hub.Run(ctx)
	return func() {
		cancel()
		<-s.hub.Done()
	}
}

// Start runs the moderation hub and serves HTTP until Shutdown.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	s.app = s.NewApp()

	go s.hub.Run(ctx)
	if s.notifier != nil {
		go func() {
			if err := s.hub.StartWiring(ctx, s.notifier); err != nil {
				middleware.Logger.Error("failed to start moderation feed wiring", "error", err)
			}
		}()
	}

	middleware.Logger.Info("server starting", "port", s.config.Port, "env", s.config.Env)
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", "error", err)
		}
	}

	if s.shutdownCtx != nil {
		select {
		case <-s.hub.Done():
		case <-ctx.Done():
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", "error", cerr)
		}
	}
	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", "error", rerr)
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
