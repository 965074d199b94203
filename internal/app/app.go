// Package app assembles the HTTP application from its dependencies.
package app

import (
	"time"

	"contacts/internal/config"
	"contacts/internal/handlers"
	"contacts/internal/metrics"
	"contacts/internal/middleware"
	"contacts/internal/repositories"
	"contacts/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps carries the infrastructure the app is built on.
type Deps struct {
	DB       *gorm.DB
	Log      *zap.Logger
	Notifier services.VerificationNotifier
	Avatars  services.AvatarStore
	// LimiterStorage is optional; nil keeps limiter counters in memory.
	LimiterStorage fiber.Storage
}

// New wires repositories, services and handlers into a Fiber app.
func New(cfg *config.Config, deps Deps) *fiber.App {
	log := deps.Log
	m := metrics.New()

	// --- Repositories ---
	userRepo := repositories.NewGORMUserRepository(deps.DB)
	contactRepo := repositories.NewGORMContactRepository(deps.DB)

	// --- Services ---
	authService := services.NewAuthService(
		userRepo,
		services.NewPasswordHasher(cfg.BcryptCost),
		services.NewTokenService(cfg.JWT.Secret, cfg.JWT.TTL),
		deps.Notifier,
		log.Named("auth"),
	)
	contactService := services.NewContactService(contactRepo)
	userService := services.NewUserService(userRepo, deps.Avatars, log.Named("users"))

	// --- Handlers ---
	authHandler := handlers.NewAuthHandler(authService, m, log.Named("auth"))
	contactHandler := handlers.NewContactHandler(contactService, m, log.Named("contacts"))
	userHandler := handlers.NewUserHandler(userService, m, log.Named("users"))

	app := fiber.New(fiber.Config{
		AppName:      "contacts",
		ErrorHandler: handlers.ErrorHandler(log),
	})

	// --- Middleware ---
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.RequestLogger(log.Named("http")))
	app.Use(middleware.Metrics(m))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,HEAD,OPTIONS",
		AllowHeaders: "*",
	}))

	// --- Routes ---
	auth := middleware.AuthRequired(authService, log.Named("auth"))
	authHandler.RegisterRoutes(app)
	contactHandler.RegisterRoutes(app,
		middleware.RateLimit(cfg.RateLimit.Max, cfg.RateLimit.Window, deps.LimiterStorage),
		auth,
	)
	userHandler.RegisterRoutes(app, auth)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))

	return app
}
