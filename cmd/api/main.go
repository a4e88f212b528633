package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"pixelframe/client-portal/client-portal-backend/internal/auth"
	"pixelframe/client-portal/client-portal-backend/internal/config"
	"pixelframe/client-portal/client-portal-backend/internal/events"
	"pixelframe/client-portal/client-portal-backend/internal/notifications"
	"pixelframe/client-portal/client-portal-backend/internal/notifications/websocket"
	"pixelframe/client-portal/client-portal-backend/internal/onboarding"
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

	ctx := context.Background()

	// ---------------- USERS + AUTH ----------------
	userRepo, err := users.NewRepository(db)
	if err != nil {
		log.Fatal("Failed to init user repository:", err)
	}
	authService := auth.NewService(userRepo, cfg.Security.JWTSecret, cfg.Security.TokenTTL)
	authHandler := auth.NewHandler(authService, userRepo)

	// ---------------- PROJECTS ----------------
	projectRepo, err := projects.NewRepository(db)
	if err != nil {
		log.Fatal("Failed to init project repository:", err)
	}
	projectService := projects.NewService(projectRepo)
	projectHandler := projects.NewHandler(projectService, projectRepo)

	// ---------------- NOTIFICATIONS ----------------
	hub := websocket.NewHub(logger)
	notifService, err := notifications.NewService(db, hub, logger)
	if err != nil {
		log.Fatal("Failed to init notification service:", err)
	}
	notifHandler := notifications.NewHandler(notifService, hub)

	// ---------------- OUTBOUND CHANNELS ----------------
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

	// ---------------- ONBOARDING ----------------
	draftRepo, err := onboarding.NewRepository(db)
	if err != nil {
		log.Fatal("Failed to init draft repository:", err)
	}
	finalizer := onboarding.NewFinalizer(
		draftRepo,
		notifService,
		mailer,
		publisher,
		userRepo,
		projectRepo,
		logger,
	)
	sessions := onboarding.NewSessionManager(
		draftRepo,
		finalizer,
		projectRepo,
		cfg.Reminders.AutosaveDebounce,
		logger,
	)
	onboardingHandler := onboarding.NewHandler(sessions, projectRepo, logger)

	// ---------------- ROUTES ----------------
	r := gin.Default()

	auth.RegisterRoutes(r, authHandler, authService)

	authed := r.Group("/", auth.RequireAuth(authService))
	projects.RegisterRoutes(authed.Group("projects"), projectHandler)
	projects.RegisterQuoteRoutes(authed.Group("quotes"), projectHandler)
	onboarding.RegisterRoutes(authed.Group("onboarding"), onboardingHandler)
	notifications.RegisterRoutes(authed.Group("notifications"), notifHandler)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "API alive!"})
	})

	log.Println("Server running on", cfg.Server.GetServerAddr())
	if err := r.Run(cfg.Server.GetServerAddr()); err != nil {
		log.Fatal(err)
	}
}
