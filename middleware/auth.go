package middleware

import (
	"log"
	"strings"

	"quliao-chat-system/services"

	"github.com/gofiber/fiber/v2"
)

// SessionAuth validates the login token on every protected route and the
// websocket upgrade. The token comes from "Authorization: Bearer <token>"
// or, for browser websocket clients that cannot set headers, "?token=".
func SessionAuth(users *services.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := tokenFromRequest(c)
		user, err := users.ValidateSession(token)
		if err != nil {
			log.Printf("[AUTH] rejected %s %s: %v", c.Method(), c.Path(), err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false, "message": "unauthorized",
			})
		}

		c.Locals("user_id", user.ID)
		c.Locals("nickname", user.DisplayName())
		return c.Next()
	}
}

func tokenFromRequest(c *fiber.Ctx) string {
	auth := c.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	if auth != "" {
		return auth
	}
	return c.Query("token")
}
