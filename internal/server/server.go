package server

import (
	"backend-pulsefeed/internal/account"
	"backend-pulsefeed/internal/auth"
	"backend-pulsefeed/internal/config"
	"backend-pulsefeed/internal/notification"
	"backend-pulsefeed/internal/post"
	"backend-pulsefeed/internal/social"
	"backend-pulsefeed/internal/storage"
	"backend-pulsefeed/internal/stream"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App    *fiber.App
	Cfg    config.Config
	DB     *pgxpool.Pool
	Redis  *redis.Client
	Stream *stream.Hub
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	s := &Server{
		App:    app,
		Cfg:    cfg,
		DB:     db,
		Redis:  redisClient,
		Stream: stream.NewHub(redisClient),
	}

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)

	notifSvc := notification.NewService(s.DB, s.Redis, s.Stream)
	accountSvc := account.NewService(s.DB)

	auth.RegisterRoutes(s.App.Group("/auth"), auth.NewService(s.Cfg.JWTSecret, s.DB, notifSvc.EnsureSettings), jwtMiddleware)
	account.RegisterRoutes(s.App.Group("/users"), accountSvc, jwtMiddleware)
	social.RegisterRoutes(s.App.Group("/social"), social.NewService(s.DB, notifSvc, s.Cfg.FeedPageSize), jwtMiddleware)
	post.RegisterRoutes(s.App, post.NewService(s.DB, notifSvc, accountSvc), jwtMiddleware, auth.OptionalJWTMiddleware(s.Cfg.JWTSecret))
	notification.RegisterRoutes(s.App.Group("/notifications"), notifSvc, jwtMiddleware)
	storage.RegisterRoutes(s.App.Group("/storage"), storage.NewService(s.DB), jwtMiddleware)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream)
}
