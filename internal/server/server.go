// Package server contains the HTTP and WebSocket handlers of the application.
package server

import (
	"context"
	"log/slog"
	"time"

	_ "postboard/docs" // swagger docs
	"postboard/internal/cache"
	"postboard/internal/config"
	"postboard/internal/featureflags"
	"postboard/internal/media"
	"postboard/internal/middleware"
	"postboard/internal/notifications"
	"postboard/internal/repository"
	"postboard/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
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
	pageCache      cache.PageCache
	authn          *middleware.Authenticator
	limits         *middleware.RateLimiter
	media          *media.Store
	notifier       *notifications.Notifier
	hub            *notifications.Hub
	featureFlags   *featureflags.Manager
	userService    *service.UserService
	groupService   *service.GroupService
	followService  *service.FollowService
	feedService    *service.FeedService
	postService    *service.PostService
}

// NewServer creates a Server from already-initialized dependencies. rdb may
// be nil: realtime events are then dropped and tokens cannot be revoked.
func NewServer(cfg *config.Config, db *gorm.DB, rdb *redis.Client, pageCache cache.PageCache) (*Server, error) {
	userRepo := repository.NewUserRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	followRepo := repository.NewFollowRepository(db)

	if pageCache == nil {
		pageCache = cache.NewMemoryPageCache(cfg.PageCacheTTL)
	}

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          rdb,
		promMiddleware: middleware.InitMetrics("postboard-api"),
		pageCache:      pageCache,
		authn:          middleware.NewAuthenticator(cfg.JWTSecret, rdb),
		limits:         middleware.NewRateLimiter(rdb, cfg.Env),
		media:          media.NewStore(cfg.MediaRoot, cfg.MediaMaxUploadMB),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
	}

	var events *service.Events
	if rdb != nil {
		s.notifier = notifications.NewNotifier(rdb)
		s.hub = notifications.NewHub()
		events = service.NewEvents(s.notifier, s.featureFlags)
	}

	s.userService = service.NewUserService(userRepo)
	s.groupService = service.NewGroupService(groupRepo)
	s.followService = service.NewFollowService(followRepo, userRepo, events)
	s.feedService = service.NewFeedService(postRepo, userRepo, groupRepo, s.followService)
	s.postService = service.NewPostService(postRepo, commentRepo, groupRepo, followRepo, s.followService, s.media, events)

	return s, nil
}

// App builds the Fiber application with middleware and routes installed.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "postboard",
		ErrorHandler: errorHandler,
		BodyLimit:    (s.config.MediaMaxUploadMB + 1) * 1024 * 1024,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New(helmet.Config{CrossOriginResourcePolicy: "cross-origin"}))
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	rateLimited := middleware.RateLimitEnabled(s.config.Env)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return !rateLimited || c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))

	app.Use(middleware.TracingMiddleware())
	app.Use(s.authn.Identify())
}

// SetupRoutes configures all routes. Fixed paths are registered before the
// /:username catch-alls.
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	app.Get("/metrics/dashboard", monitor.New(monitor.Config{Title: "postboard metrics"}))
	app.Get("/swagger/*", swagger.HandlerDefault)
	app.Static("/media", s.media.Root(), fiber.Static{MaxAge: 3600})

	app.Get("/ws", s.authn.APIRequired(), s.WebsocketUpgrade, s.WebsocketHandler())

	auth := app.Group("/auth")
	auth.Get("/login", s.LoginPage)
	auth.Post("/signup", s.limits.Limit("signup", 5, 10*time.Minute), s.Signup)
	auth.Post("/login", s.limits.Limit("login", 10, 5*time.Minute), s.Login)
	auth.Post("/logout", s.authn.APIRequired(), s.Logout)

	admin := app.Group("/admin", s.authn.APIRequired(), s.AdminRequired())
	admin.Get("/groups", s.ListGroups)
	admin.Post("/groups", s.CreateGroup)
	admin.Post("/cache/clear", s.ClearPageCache)
	admin.Post("/users/:username/promote", s.PromoteUser)
	admin.Post("/users/:username/demote", s.DemoteUser)
	admin.Get("/feature-flags", s.GetFeatureFlags)

	loginRequired := s.authn.LoginRequired()

	app.Get("/", middleware.PageCache(s.pageCache, "/"), s.GlobalFeed)
	app.Get("/group/:slug", s.GroupFeed)

	app.Get("/new", loginRequired, s.NewPostForm)
	app.Post("/new", loginRequired, s.limits.Limit("create_post", 10, time.Minute), s.CreatePost)

	app.Get("/follow", loginRequired, s.FollowingFeed)
	app.Get("/follow/:username", loginRequired, s.Follow)
	app.Post("/follow/:username", loginRequired, s.Follow)
	app.Get("/unfollow/:username", loginRequired, s.Unfollow)
	app.Post("/unfollow/:username", loginRequired, s.Unfollow)

	app.Get("/:username", s.ProfileFeed)
	app.Get("/:username/:post_id", s.PostView)
	app.Get("/:username/:post_id/edit", loginRequired, s.EditPostForm)
	app.Post("/:username/:post_id/edit", loginRequired, s.EditPost)
	app.Post("/:username/:post_id/comment", loginRequired, s.limits.Limit("create_comment", 20, time.Minute), s.AddComment)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports database and Redis health. Redis is optional, so
// only the database decides the status code.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if sqlDB, err := s.db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overall := "healthy"
	if dbStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start wires the notification hub and listens on the configured port.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	s.app = s.App()

	if s.notifier != nil {
		if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
			slog.Error("failed to start notification wiring", "err", err)
		}
	}

	slog.Info("server starting", "port", s.config.Port)
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown stops the HTTP server and closes websocket connections. The
// database and Redis clients belong to the caller.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			slog.Error("error shutting down HTTP server", "err", err)
		}
	}

	if s.hub != nil {
		if err := s.hub.Shutdown(ctx); err != nil {
			slog.Error("error shutting down notification hub", "err", err)
		}
	}

	slog.Info("server shutdown complete")
	return nil
}
