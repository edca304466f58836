package handlers

import (
	"quliao-chat-system/game"
	"quliao-chat-system/middleware"
	"quliao-chat-system/services"

	"github.com/gofiber/fiber/v2"
)

// SetupRoutes wires the REST surface and the realtime websocket endpoint.
func SetupRoutes(app *fiber.App, users *services.UserService, chat *services.ChatService, matches *services.MatchService, hub *game.Hub, dir *game.Directory) {
	api := app.Group("/api")

	// Public
	api.Post("/auth/register", users.Register)
	api.Post("/auth/login", users.Login)
	api.Get("/snake/leaderboard", matches.Leaderboard)

	// Secured: valid session required
	secured := api.Group("/", middleware.SessionAuth(users))
	secured.Post("/auth/logout", users.Logout)
	secured.Get("/users/me", users.Me)
	secured.Post("/users/me/avatar", users.UploadAvatar)
	secured.Post("/rooms", chat.CreateRoom)
	secured.Get("/rooms", chat.ListRooms)
	secured.Post("/rooms/:id/join", chat.JoinRoom)
	secured.Get("/rooms/:id/messages", chat.History)
	secured.Post("/snake/create", matches.CreateMatch)

	// Realtime: a connection is only admitted with a logged-in session.
	app.Use("/ws/chat", UpgradeGuard(), middleware.SessionAuth(users))
	app.Get("/ws/chat", RealtimeSocket(hub, dir, users, chat))
}
