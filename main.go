package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"quliao-chat-system/game"
	"quliao-chat-system/handlers"
	"quliao-chat-system/models"
	"quliao-chat-system/services"
	"quliao-chat-system/utils"
	"quliao-chat-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 10 * 1024 * 1024, // avatars only, 10MB is plenty
	})

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		log.Println("⚠️  ALLOWED_ORIGINS not set, using default: http://localhost:3000")
		allowedOrigins = "http://localhost:3000"
	}
	originsList := strings.Split(allowedOrigins, ",")
	for i, origin := range originsList {
		originsList[i] = strings.TrimSpace(origin)
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(originsList, ","),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	if err := utils.InitR2(); err != nil {
		log.Fatal("failed to initialize R2 client:", err)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Session{},
		&models.Room{},
		&models.RoomMember{},
		&models.Message{},
		&models.Match{},
		&models.Score{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	userService := services.NewUserService(db)
	matchService := services.NewMatchService(db)

	hub := game.NewHub()
	directory := game.NewDirectory(hub, matchService)
	matchService.AttachDirectory(directory)
	chatService := services.NewChatService(db, hub)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reconciler, err := workers.StartMatchReconciler(db, directory)
	if err != nil {
		log.Fatal("failed to start match reconciler:", err)
	}

	handlers.SetupRoutes(app, userService, chatService, matchService, hub, directory)
	app.Static("/static", "./static")

	port := os.Getenv("PORT")
	if port == "" {
		port = "5000"
	}

	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", port)
	log.Println("✅ Realtime hub accepting connections on /ws/chat")
	log.Println("✅ Match reconciler running (every 10m)")
	log.Printf("✅ CORS configured for origins: %s", strings.Join(originsList, ","))

	<-ctx.Done()
	log.Println("Shutting down server...")
	if err := reconciler.Shutdown(); err != nil {
		log.Printf("reconciler shutdown error: %v", err)
	}
	if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
		log.Printf("server shutdown error: %v", err)
	}
}
