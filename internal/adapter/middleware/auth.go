package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/matheusperin161/abexIVcorreto/internal/core/domain"
	"github.com/matheusperin161/abexIVcorreto/internal/core/security"
)

// UserIDKey is where Protected stores the authenticated user's id in the
// request locals. Identity is request-scoped, never ambient.
const UserIDKey = "user_id"

// Protected resolves the bearer session token to a user id.
func Protected(users domain.UserStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "Usuário não autenticado"})
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "Usuário não autenticado"})
		}

		// Only the hash ever touches storage.
		userID, err := users.GetUserIDByToken(c.Context(), security.HashToken(parts[1]))
		if err != nil {
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "Usuário não autenticado"})
		}

		c.Locals(UserIDKey, userID)
		return c.Next()
	}
}

// AdminRequired allows only users with the admin role. Must run after
// Protected.
func AdminRequired(users domain.UserStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals(UserIDKey).(uuid.UUID)
		if !ok {
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "Usuário não autenticado"})
		}

		user, err := users.GetByID(c.Context(), userID)
		if err != nil || user.Role != "admin" {
			return c.Status(http.StatusForbidden).JSON(fiber.Map{"error": "Acesso negado: Requer privilégios de administrador"})
		}
		return c.Next()
	}
}

// CurrentUserID returns the authenticated user's id from the request.
func CurrentUserID(c *fiber.Ctx) (uuid.UUID, bool) {
	userID, ok := c.Locals(UserIDKey).(uuid.UUID)
	return userID, ok
}
