package routes

import (
	"kumpul/server/internal/handlers"
	"kumpul/server/internal/middleware"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// SetupRoutes configures all application routes
func SetupRoutes(app *fiber.App) {
	// API v1 group
	api := app.Group("/api/v1")

	// Health check (public)
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"message": "Kumpul API is running",
		})
	})

	// Auth routes (public)
	auth := api.Group("/auth")
	auth.Post("/register", middleware.StrictRateLimiter(), handlers.Register)
	auth.Post("/login", middleware.StrictRateLimiter(), handlers.Login)
	auth.Post("/refresh", middleware.StrictRateLimiter(), handlers.RefreshToken)
	auth.Post("/logout", middleware.AuthMiddleware, handlers.Logout)
	auth.Get("/me", middleware.AuthMiddleware, handlers.GetMe)

	// Meetup routes (protected)
	meetups := api.Group("/meetups", middleware.AuthMiddleware)
	meetups.Post("/", handlers.CreateMeetup)
	meetups.Get("/", handlers.GetMeetups)
	meetups.Get("/:meetupId", handlers.GetMeetupDetails)
	meetups.Patch("/:meetupId", handlers.UpdateMeetup)
	meetups.Delete("/:meetupId", handlers.ArchiveMeetup)
	meetups.Post("/:meetupId/join", handlers.JoinMeetup)
	meetups.Post("/:meetupId/leave", handlers.LeaveMeetup)
	meetups.Post("/:meetupId/react", handlers.ReactToMeetup)
	meetups.Post("/:meetupId/report", middleware.ReportRateLimiter(), handlers.ReportMeetup)

	// Meetup chat routes (protected, participants only)
	meetups.Get("/:meetupId/messages", handlers.GetMeetupMessages)
	meetups.Post("/:meetupId/messages", handlers.SendMeetupMessage)
	meetups.Post("/:meetupId/messages/:messageId/react", handlers.ReactToMessage)

	// User routes (protected)
	users := api.Group("/users", middleware.AuthMiddleware)
	users.Patch("/me", handlers.UpdateProfile)
	users.Get("/me/export", handlers.ExportAccount)
	users.Delete("/me", handlers.DeleteAccount)
	users.Get("/:userId", handlers.GetUser)

	// Feedback routes (submission is public, listing is admin)
	api.Post("/feedback", middleware.ReportRateLimiter(), handlers.SubmitFeedback)

	// Upload routes (protected)
	uploads := api.Group("/upload", middleware.AuthMiddleware)
	uploads.Post("/meetup-image", middleware.UploadRateLimiter(), handlers.UploadMeetupImage)
	uploads.Post("/avatar", middleware.UploadRateLimiter(), handlers.UploadAvatar)

	// Serve uploaded files (public)
	app.Get("/uploads/:type/:filename", handlers.GetFile)

	// Admin routes (protected, admin role required)
	admin := api.Group("/admin", middleware.AuthMiddleware, middleware.AdminOnly)
	admin.Get("/users", handlers.GetUsers)
	admin.Patch("/users/:userId/role", handlers.UpdateUserRole)
	admin.Get("/reports", handlers.GetReports)
	admin.Patch("/reports/:reportId", handlers.UpdateReportStatus)
	admin.Get("/feedback", handlers.GetFeedback)

	// WebSocket route (protected)
	api.Get("/ws", middleware.AuthMiddleware, handlers.WebSocketUpgrade, websocket.New(handlers.WebSocketHandler))

	// WebSocket stats (protected, for debugging)
	api.Get("/ws/stats", middleware.AuthMiddleware, handlers.GetWebSocketStats)
}
