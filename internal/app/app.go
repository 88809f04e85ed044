package app

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/taihuy1/task-managemet-thesis/internal/config"
	"github.com/taihuy1/task-managemet-thesis/internal/handlers"
	"github.com/taihuy1/task-managemet-thesis/internal/middleware"
	"github.com/taihuy1/task-managemet-thesis/internal/pdf"
	"github.com/taihuy1/task-managemet-thesis/internal/repositories"
	"github.com/taihuy1/task-managemet-thesis/internal/routes"
	"github.com/taihuy1/task-managemet-thesis/internal/services"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/taihuy1/task-managemet-thesis/docs"
)

func Run() {
	cfg := config.LoadConfig()

	middleware.SetJWTKey(cfg.Auth.JWTSecret)

	// === DB ===
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatal("failed to open database: ", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("failed to close database: %v", err)
		}
	}()

	// === Repos ===
	userRepo := repositories.NewUserRepository(db)
	taskRepo := repositories.NewTaskRepository(db)
	notificationRepo := repositories.NewNotificationRepository(db)
	txManager := repositories.NewTxManager(db)

	// === Services ===
	authService := services.NewAuthService()

	var emailService services.EmailService
	if cfg.Email.Enabled {
		emailService = services.NewEmailService(
			cfg.Email.SMTPHost,
			cfg.Email.SMTPPort,
			cfg.Email.SMTPUser,
			cfg.Email.SMTPPassword,
			cfg.Email.FromEmail,
		)
	}

	var tgSender services.TelegramSender
	if cfg.Telegram.Enabled && cfg.Telegram.BotToken != "" {
		tg, err := services.NewTelegramService(cfg.Telegram.BotToken)
		if err != nil {
			log.Printf("telegram disabled: %v", err)
		} else {
			tgSender = tg
		}
	}

	notifier := services.NewNotifier(userRepo, emailService, tgSender)

	userService := services.NewUserService(userRepo, emailService, authService)
	taskService := services.NewTaskService(taskRepo, notificationRepo, userRepo, txManager, notifier)
	notificationService := services.NewNotificationService(notificationRepo)

	reportGen := pdf.NewReportGenerator()

	// === Handlers ===
	accessTTL := time.Duration(cfg.Auth.AccessTTLMinutes) * time.Minute
	refreshTTL := time.Duration(cfg.Auth.RefreshTTLDays) * 24 * time.Hour

	authHandler := handlers.NewAuthHandler(userService, authService, accessTTL, refreshTTL)
	userHandler := handlers.NewUserHandler(userService)
	taskHandler := handlers.NewTaskHandler(taskService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	reportHandler := handlers.NewReportHandler(taskService, userService, reportGen)

	// === Gin ===
	router := gin.Default()
	router.Use(corsMiddleware())

	router.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	routes.SetupRoutes(router, authHandler, userHandler, taskHandler, notificationHandler, reportHandler)

	// === Run ===
	listenAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("server listening on %s", listenAddr)
	if err := router.Run(listenAddr); err != nil {
		log.Fatal("server failed: ", err)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
