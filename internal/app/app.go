// Package app wires configuration, storage, messaging and HTTP routing into
// a single process context.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"portfolio/internal/auth"
	"portfolio/internal/config"
	"portfolio/internal/database"
	"portfolio/internal/handlers"
	"portfolio/internal/httperr"
	"portfolio/internal/middleware"
	"portfolio/internal/repositories"
	"portfolio/internal/services"
	"portfolio/internal/validation"
	"portfolio/pkg/rabbitmq"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"
)

// Publisher is an event sink that must be released on shutdown.
type Publisher interface {
	services.EventPublisher
	Close() error
}

// App is the running process: configuration, logger, storage, event
// publisher and the Fiber application serving the API.
type App struct {
	Config *config.Config
	Logger *slog.Logger
	DB     *gorm.DB
	Fiber  *fiber.App

	publisher Publisher
	startedAt time.Time
}

// New connects to the database and, when AMQP_URL is set, to RabbitMQ, then
// builds the HTTP application.
func New(cfg *config.Config, log *slog.Logger) (*App, error) {
	db, err := database.Open(cfg.DatabaseURL, database.Options{Quiet: cfg.IsTest()})
	if err != nil {
		return nil, err
	}

	var publisher Publisher
	if cfg.AMQPURL != "" {
		client, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.AMQPURL, Exchange: cfg.AMQPExchange})
		if err != nil {
			_ = database.Close(db)
			return nil, err
		}
		log.Info("publishing item events", "exchange", client.Exchange())
		publisher = client
	}

	return NewWithDB(cfg, log, db, publisher), nil
}

// NewWithDB builds the HTTP application over an open database. publisher
// may be nil.
func NewWithDB(cfg *config.Config, log *slog.Logger, db *gorm.DB, publisher Publisher) *App {
	a := &App{
		Config:    cfg,
		Logger:    log,
		DB:        db,
		publisher: publisher,
		startedAt: time.Now(),
	}

	a.Fiber = fiber.New(fiber.Config{
		AppName:               "portfolio",
		ErrorHandler:          httperr.Handler(log),
		DisableStartupMessage: cfg.IsTest(),
	})
	a.setupRoutes()
	return a
}

func (a *App) setupRoutes() {
	metrics := middleware.NewMetrics()

	a.Fiber.Use(metrics.Middleware())
	a.Fiber.Use(recover.New())
	a.Fiber.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(a.Config.CORSOrigins, ","),
		AllowCredentials: true,
	}))
	if !a.Config.IsTest() {
		a.Fiber.Use(logger.New())
	}

	validate := validation.New()
	tokens := auth.NewTokenManager(a.Config.JWTSecret)

	userRepo := repositories.NewGORMUserRepository(a.DB)
	itemRepo := repositories.NewGORMItemRepository(a.DB)

	authService := services.NewAuthService(userRepo, tokens)
	itemService := services.NewItemService(itemRepo, a.publisher, a.Logger)

	api := a.Fiber.Group("/api")
	api.Get("/metrics", metrics.Handler())
	handlers.NewHealthHandler(a.startedAt).RegisterRoutes(api)
	handlers.NewAuthHandler(authService, validate).RegisterRoutes(api)
	handlers.NewItemHandler(itemService, validate).RegisterRoutes(api, middleware.AuthRequired(tokens))
}

// Listen serves HTTP on the configured port until Shutdown is called.
func (a *App) Listen() error {
	a.Logger.Info("starting server", "addr", a.Config.Addr(), "env", a.Config.Env)
	return a.Fiber.Listen(a.Config.Addr())
}

// Shutdown stops accepting requests, waits for in-flight ones until ctx
// expires, and then releases the publisher and the database pool.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	if err := a.Fiber.ShutdownWithContext(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to stop http server: %w", err))
	}
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := database.Close(a.DB); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
