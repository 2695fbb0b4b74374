package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"golang.org/x/sync/errgroup"

	"github.com/solrise/questforge/questforge"
	"github.com/solrise/questforge/questforge/database"
	"github.com/solrise/questforge/questforge/database/repositories"
	"github.com/solrise/questforge/questforge/handlers"
	"github.com/solrise/questforge/questforge/logger"
	"github.com/solrise/questforge/questforge/middleware"
	"github.com/solrise/questforge/questforge/progression"
	"github.com/solrise/questforge/questforge/scheduler"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	path := flag.String("config", "config.toml", "path to config")
	flag.Parse()

	cfg, err := questforge.LoadConfig(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	customHandler := logger.NewHandler("QuestForge", cfg.Log.Level)
	slog.SetDefault(slog.New(customHandler))

	slog.Info("Starting QuestForge API",
		slog.String("version", version),
		slog.String("commit", commit))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Initializing database connection...")
	dbStartTime := time.Now()

	dbCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	db, err := database.New(dbCtx, database.DBConfig{
		Host:         cfg.DB.Host,
		Port:         cfg.DB.Port,
		User:         cfg.DB.User,
		Password:     cfg.DB.Password,
		Database:     cfg.DB.Database,
		PoolSize:     cfg.DB.PoolSize,
		MaxIdleConns: cfg.DB.MaxIdleConns,
		MaxLifetime:  cfg.DB.MaxLifetime,
	})
	if err != nil {
		slog.Error("Database connection failed",
			slog.String("error", err.Error()),
			slog.Duration("attempted_for", time.Since(dbStartTime)))
		os.Exit(1)
	}
	defer db.Close()

	slog.Info("Database connected successfully",
		slog.String("database", cfg.DB.Database),
		slog.Duration("took", time.Since(dbStartTime)))

	if err := db.InitializeSchema(dbCtx); err != nil {
		slog.Error("Failed to initialize database schema",
			slog.String("error", err.Error()))
		os.Exit(1)
	}
	slog.Info("Database schema initialized successfully")

	userRepo := repositories.NewUserRepository(db.BunDB())
	questRepo := repositories.NewQuestRepository(db.BunDB())
	assignmentRepo := repositories.NewAssignmentRepository(db.BunDB())
	historyRepo := repositories.NewHistoryRepository(db.BunDB())

	engine := progression.NewService(
		userRepo,
		questRepo,
		assignmentRepo,
		historyRepo,
		progression.NewSampler(rand.NewSource(time.Now().UnixNano())),
		progression.Config{
			MinRandomQuests: cfg.Engine.MinRandomQuests,
			MaxRandomQuests: cfg.Engine.MaxRandomQuests,
		},
	)

	if err := bootstrap(dbCtx, engine, cfg.Engine.DefaultUserID); err != nil {
		slog.Error("Startup bootstrap failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	app := fiber.New(fiber.Config{
		AppName:      "QuestForge API",
		ServerHeader: "QuestForge",
		ErrorHandler: middleware.CustomErrorHandler,
	})

	app.Use(recover.New())
	app.Use(middleware.SecurityHeaders())
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
	// Allow-all CORS for development; the API carries no credentials.
	app.Use(cors.New())
	app.Use(middleware.LoggingMiddleware())

	webApp := &handlers.WebApp{
		Engine:        engine,
		DefaultUserID: cfg.Engine.DefaultUserID,
		Version:       version,
		Commit:        commit,
	}
	setupRoutes(app, webApp)

	address := fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port)
	slog.Info("Starting server", slog.String("address", address))

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return app.Listen(address)
	})

	daily := scheduler.New(engine, cfg.Engine.DefaultUserID)
	g.Go(func() error {
		err := daily.Run(gCtx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-gCtx.Done()
		slog.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return app.ShutdownWithContext(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("Server exited with error", slog.String("error", err.Error()))
	}

	slog.Info("Server shutdown complete")
}

// bootstrap makes sure the default user exists and today's daily assignment
// has run, matching what a fresh client expects to find.
func bootstrap(ctx context.Context, engine *progression.Service, defaultUserID int64) error {
	_, err := engine.UserStatus(ctx, defaultUserID)
	if err != nil {
		if !repositories.IsNotFound(err) {
			return fmt.Errorf("failed to look up default user: %w", err)
		}
		user, err := engine.CreateUser(ctx)
		if err != nil {
			return fmt.Errorf("failed to create default user: %w", err)
		}
		if user.ID != defaultUserID {
			slog.Warn("Default user created with unexpected id",
				slog.Int64("expected", defaultUserID),
				slog.Int64("got", user.ID))
		}
		slog.Info("Default user created", slog.Int64("user_id", user.ID))
	}

	res, err := engine.AssignDailyQuests(ctx, defaultUserID)
	if err != nil {
		return fmt.Errorf("failed to assign daily quests: %w", err)
	}
	if !res.AlreadyAssigned {
		slog.Info("Daily quests assigned at startup",
			slog.Int64("user_id", defaultUserID),
			slog.Int("count", res.AssignedCount))
	}
	return nil
}

// setupRoutes configures all application routes
func setupRoutes(app *fiber.App, webApp *handlers.WebApp) {
	app.Get("/health", handlers.HealthCheck(webApp))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "QuestForge API",
			"version": webApp.Version,
			"status":  "running",
		})
	})

	user := app.Group("/user")
	user.Get("/status", handlers.UserStatus(webApp))
	user.Post("/", handlers.UserCreate(webApp))
	user.Get("/history", handlers.UserHistory(webApp))

	quests := app.Group("/quests")
	quests.Get("/", handlers.QuestsToday(webApp))
	quests.Get("/all", handlers.QuestsAll(webApp))
	quests.Post("/", handlers.QuestCreate(webApp))
	quests.Post("/assign_today", handlers.QuestsAssignToday(webApp))
	quests.Post("/:id/assign_manually", handlers.QuestAssignManually(webApp))
	quests.Post("/:id/complete", handlers.QuestComplete(webApp))
	quests.Delete("/:id", handlers.QuestDelete(webApp))

	app.Use(func(c *fiber.Ctx) error {
		slog.Warn("No route matched for request",
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.String("ip", c.IP()),
		)
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "Not Found",
			"message": "The requested endpoint does not exist",
		})
	})
}
