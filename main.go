package main

import (
	"context"
	"log"
	"os"

	"kumpul/server/internal/cache"
	"kumpul/server/internal/database"
	"kumpul/server/internal/docstore"
	"kumpul/server/internal/handlers"
	"kumpul/server/internal/routes"
	"kumpul/server/internal/store"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	// Connect to database
	if err := database.Connect(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Redis count cache is optional; without REDIS_URL counts are
	// computed from the documents on every list request
	countCache, err := cache.New(os.Getenv("REDIS_URL"))
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	if countCache != nil {
		log.Println("✅ Redis count cache connected")
	}
	handlers.CountCache = countCache

	// Meetup store over the Postgres document store
	meetupStore := store.New(docstore.NewPostgresStore(database.Pool))
	meetupStore.OnChange = func(meetupID string) {
		countCache.Invalidate(context.Background(), meetupID)
	}

	// Initialize WebSocket hub
	handlers.InitWebSocket(meetupStore)

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		AppName: "Kumpul API v1.0",
	})

	// Middleware
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000",
		AllowCredentials: true,
	}))

	// Setup routes
	routes.SetupRoutes(app)

	// Get port from environment or use default
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("🚀 Server starting on port %s", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatal(err)
	}
}
