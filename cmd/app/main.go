package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	_ "github.com/eduAbreu/train-book/docs"
	"github.com/eduAbreu/train-book/internal/config"
	"github.com/eduAbreu/train-book/internal/db"
	"github.com/eduAbreu/train-book/internal/gym"
	"github.com/eduAbreu/train-book/internal/logger"
	"github.com/eduAbreu/train-book/internal/notify"
	"github.com/eduAbreu/train-book/internal/schedule"
	"github.com/eduAbreu/train-book/internal/server"
)

// @title TrainBook API
// @version 1.0
// @description Multi-tenant gym booking and waitlist engine.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger.Init()
	logger.Info("Starting TrainBook application")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	logger.Info("Connecting to database...")
	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()
	logger.Info("Database connected")

	if err := db.RunMigrations(database, cfg.MigrationsPath); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("Migrations completed")

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()

	notifier := notify.New(redisClient, notify.NewRepository(database))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go notifier.Start(ctx)
	logger.Info("Notification worker initialized")

	gymRepo := gym.NewRepository(database)
	scheduleRepo := schedule.NewRepository(database)
	scheduleService := schedule.NewService(scheduleRepo, gymRepo)
	reminderJob := schedule.NewReminderJob(scheduleRepo, notifier)

	scheduler := cron.New()
	// Materialize the coming weeks from each gym's weekly template.
	_, err = scheduler.AddFunc("0 3 * * *", func() {
		jobCtx, jobCancel := context.WithTimeout(ctx, 10*time.Minute)
		defer jobCancel()

		gyms, err := gymRepo.List(jobCtx, true)
		if err != nil {
			logger.Errorf("Nightly generation: failed to list gyms: %v", err)
			return
		}

		from := time.Now().UTC().Truncate(24 * time.Hour)
		to := from.AddDate(0, 0, cfg.GenerateHorizonDays)
		for _, g := range gyms {
			summary, err := scheduleService.Generate(jobCtx, g.ID, from, to)
			if err != nil {
				logger.Error("Nightly generation failed", "gym_id", g.ID, "error", err)
				continue
			}
			logger.Info("Nightly generation done",
				"gym_id", g.ID,
				"created", summary.Created,
				"skipped", summary.Skipped,
			)
		}
	})
	if err != nil {
		logger.Fatalf("Failed to schedule generation job: %v", err)
	}

	_, err = scheduler.AddFunc("@hourly", func() {
		jobCtx, jobCancel := context.WithTimeout(ctx, 5*time.Minute)
		defer jobCancel()
		reminderJob.Run(jobCtx)
	})
	if err != nil {
		logger.Fatalf("Failed to schedule reminder job: %v", err)
	}

	scheduler.Start()
	defer scheduler.Stop()
	logger.Info("Cron jobs scheduled")

	srv := server.New(database, cfg, notifier)

	serverErrChan := make(chan error, 1)
	go func() {
		logger.Infof("Server starting on port %s", cfg.Port)
		if err := srv.Start(cfg.Port); err != nil && err != http.ErrServerClosed {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Infof("Received signal: %v", sig)
	case err := <-serverErrChan:
		logger.Errorf("Server error: %v", err)
	}

	logger.Info("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Error during server shutdown: %v", err)
	}

	logger.Info("Server stopped")
}
