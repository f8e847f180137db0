// Package server contains HTTP and WebSocket handlers for the
// application's API endpoints.
package server

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/ccellsty/oryxchatfrfr/internal/blob"
	"github.com/ccellsty/oryxchatfrfr/internal/config"
	"github.com/ccellsty/oryxchatfrfr/internal/middleware"
	"github.com/ccellsty/oryxchatfrfr/internal/observability"
	"github.com/ccellsty/oryxchatfrfr/internal/realtime"
	"github.com/ccellsty/oryxchatfrfr/internal/repository"
	"github.com/ccellsty/oryxchatfrfr/internal/service"
)

// Server holds all dependencies and provides handlers.
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus

	channel   *realtime.RedisChannel
	publisher *realtime.Publisher
	hub       *realtime.Hub
	blobStore blob.Store

	authService    *service.AuthService
	profileService *service.ProfileService
	friendService  *service.FriendService
	groupService   *service.GroupService
	messageService *service.MessageService
	uploadService  *service.UploadService
}

// NewServerWithDeps creates a Server using already-initialized
// dependencies. The bootstrap layer establishes DB and Redis and
// optionally performs explicit seeding.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, store blob.Store) (*Server, error) {
	prom := fiberprometheus.New("oryxchat-api")

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: prom,
		blobStore:      store,
	}

	if redisClient != nil {
		server.channel = realtime.NewRedisChannel(redisClient)
		server.publisher = realtime.NewPublisher(server.channel)
		server.hub = realtime.NewHub(server.channel)
	}

	profiles := repository.NewProfileRepository(db)
	accounts := repository.NewAccountRepository(db)
	friends := repository.NewFriendRepository(db)
	groups := repository.NewGroupRepository(db)
	messages := repository.NewMessageRepository(db)

	server.authService = service.NewAuthService(accounts, cfg.JWTSecret)
	server.profileService = service.NewProfileService(profiles)
	server.friendService = service.NewFriendService(friends, profiles, server.publisher)
	server.groupService = service.NewGroupService(groups, server.publisher)
	server.messageService = service.NewMessageService(messages, server.groupService, server.publisher)
	server.uploadService = service.NewUploadService(store, cfg)

	if server.hub != nil {
		server.hub.SetAuthorizer(server.authorizeTopic)
	}

	return server, nil
}

// authorizeTopic restricts websocket watches to the caller's own
// per-user topics and to message topics of groups they belong to.
func (s *Server) authorizeTopic(ctx context.Context, userID uint, topic string) bool {
	switch {
	case topic == realtime.FriendTopic(userID), topic == realtime.GroupsTopic(userID):
		return true
	case strings.HasPrefix(topic, "messages:group:"):
		var groupID uint
		if _, err := fmt.Sscanf(topic, "messages:group:%d", &groupID); err != nil {
			return false
		}
		ok, err := s.groupService.IsMember(ctx, userID, groupID)
		return err == nil && ok
	default:
		return false
	}
}

// SetupMiddleware configures middleware for the Fiber app.
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(s.promMiddleware.Middleware)
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}
	// CORS runs before middlewares that can short-circuit so browser
	// clients still receive CORS headers on error responses.
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
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
}

// SetupRoutes configures all routes for the application.
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	// Locally stored uploads are served straight from disk; S3 objects
	// have public URLs and skip this route.
	if local, ok := s.blobStore.(*blob.LocalStore); ok {
		app.Static("/uploads", local.Dir())
	}

	auth := api.Group("/auth")
	auth.Post("/register", middleware.RateLimit(s.redis, 3, 10*time.Minute, "register"), s.Register)
	auth.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)

	protected := api.Group("", middleware.AuthRequired(s.authService))

	users := protected.Group("/users")
	users.Get("/me", s.GetMyProfile)
	users.Put("/me", s.UpdateMyProfile)
	users.Put("/me/theme", s.UpdateMyTheme)
	users.Post("/me/avatar", s.UploadAvatar)
	users.Get("/:username", s.GetProfileByUsername)

	friends := protected.Group("/friends")
	friends.Get("/", s.GetFriends)
	friends.Get("/requests", s.GetPendingRequests)
	friends.Post("/requests", middleware.RateLimit(s.redis, 5, 5*time.Minute, "friend_request"), s.SendFriendRequest)
	friends.Post("/requests/:requestId/accept", s.AcceptFriendRequest)
	friends.Post("/requests/:requestId/reject", s.RejectFriendRequest)
	friends.Get("/edges", s.GetFriendEdges)

	groups := protected.Group("/groups")
	groups.Get("/", s.GetMyGroups)
	groups.Post("/", s.CreateGroup)
	groups.Get("/:groupId/members", s.GetGroupMembers)
	groups.Post("/:groupId/members", s.AddGroupMember)
	groups.Get("/:groupId/messages", s.GetGroupMessages)
	groups.Post("/:groupId/messages", s.SendGroupMessage)

	protected.Post("/uploads", s.UploadAttachment)

	s.setupWebSocketRoutes(app)
}

// Start builds the Fiber app and listens until the context is
// cancelled.
func (s *Server) Start(ctx context.Context) error {
	app := fiber.New(fiber.Config{
		AppName:      "oryxchat",
		ErrorHandler: fiberErrorHandler,
		BodyLimit:    (s.config.UploadMaxSizeMB + 1) * 1024 * 1024,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(fmt.Sprintf(":%s", s.config.Port))
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return s.Shutdown()
	}
}

// Shutdown closes the websocket hub, the realtime transport, and the
// HTTP listener.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if s.hub != nil {
		if err := s.hub.Shutdown(ctx); err != nil {
			observability.Logger.Error("hub shutdown failed", "error", err)
		}
	}
	if s.channel != nil {
		s.channel.Close()
	}
	if s.app != nil {
		return s.app.ShutdownWithContext(ctx)
	}
	return nil
}

// App exposes the Fiber app for tests.
func (s *Server) App() *fiber.App {
	if s.app == nil {
		app := fiber.New(fiber.Config{ErrorHandler: fiberErrorHandler})
		s.SetupMiddleware(app)
		s.SetupRoutes(app)
		s.app = app
	}
	return s.app
}

func fiberErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

// LivenessCheck reports that the process is up.
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// ReadinessCheck reports whether the database and Redis are reachable.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	checks := fiber.Map{"database": "ok", "redis": "ok"}
	healthy := true

	sqlDB, err := s.db.DB()
	if err != nil || sqlDB.PingContext(c.UserContext()) != nil {
		checks["database"] = "unreachable"
		healthy = false
	}

	if s.redis != nil {
		if err := s.redis.Ping(c.UserContext()).Err(); err != nil {
			checks["redis"] = "unreachable"
			healthy = false
		}
	} else {
		checks["redis"] = "not configured"
	}

	status := fiber.StatusOK
	if !healthy {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(fiber.Map{"status": checks})
}
