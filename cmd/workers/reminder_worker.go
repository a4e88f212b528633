package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"pixelframe/client-portal/client-portal-backend/internal/config"
	"pixelframe/client-portal/client-portal-backend/internal/events"
	"pixelframe/client-portal/client-portal-backend/internal/notifications"
	"pixelframe/client-portal/client-portal-backend/internal/projects"
	"pixelframe/client-portal/client-portal-backend/internal/reminders"
	"pixelframe/client-portal/client-portal-backend/internal/users"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Failed to create logger:", err)
	}
	defer logger.Sync()

	db, err := gorm.Open(postgres.Open(cfg.Database.GetDatabaseURL()), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to DB:", err)
	}

	projectRepo, err := projects.NewRepository(db)
	if err != nil {
		log.Fatal("Failed to init project repository:", err)
	}
	userRepo, err := users.NewRepository(db)
	if err != nil {
		log.Fatal("Failed to init user repository:", err)
	}
	// No websocket hub in the worker: pushes happen via the API process.
	notifService, err := notifications.NewService(db, nil, logger)
	if err != nil {
		log.Fatal("Failed to init notification service:", err)
	}

	ctx := context.Background()

	mailer, err := reminders.NewSESMailer(ctx, cfg.Email)
	if err != nil {
		log.Fatal("Failed to init mailer:", err)
	}

	var publisher events.Publisher = events.NopPublisher{}
	var publishers events.MultiPublisher
	if cfg.Events.TopicARN != "" {
		snsPublisher, err := events.NewSNSPublisher(ctx, cfg.Events.Region, cfg.Events.TopicARN, logger)
		if err != nil {
			log.Fatal("Failed to init SNS publisher:", err)
		}
		publishers = append(publishers, snsPublisher)
	}
	if len(cfg.Events.WebhookURLs) > 0 {
		publishers = append(publishers, events.NewWebhookPublisher(cfg.Events.WebhookURLs, logger))
	}
	if len(publishers) > 0 {
		publisher = publishers
	}

	staffID := uuid.Nil
	if cfg.Reminders.StaffUserID != "" {
		staffID, err = uuid.Parse(cfg.Reminders.StaffUserID)
		if err != nil {
			log.Fatal("Invalid REMINDER_STAFF_USER_ID:", err)
		}
	}

	sweeper := reminders.NewSweeper(
		projectRepo,
		projectRepo,
		notifService,
		userRepo,
		mailer,
		publisher,
		staffID,
		logger,
	)

	c := cron.New()
	if _, err := c.AddFunc(cfg.Reminders.SweepSchedule, func() {
		sweeper.Run(ctx)
	}); err != nil {
		log.Fatal("Invalid sweep schedule:", err)
	}

	logger.Info("Starting reminder worker",
		zap.String("schedule", cfg.Reminders.SweepSchedule))
	c.Start()

	// Run one sweep immediately so a restarted worker catches up.
	sweeper.Run(ctx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Stopping reminder worker")
	<-c.Stop().Done()
}
