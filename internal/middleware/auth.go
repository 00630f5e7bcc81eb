package middleware

import (
	"errors"

	"task-manager/internal/auth"
	"task-manager/internal/models"
	"task-manager/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const userLocalKey = "user"

// RequireUser resolve header Authorization menjadi user dan menyimpannya di
// c.Locals. Semua kegagalan autentikasi dijawab 401 dengan pesan yang sama.
func RequireUser(resolver *auth.Resolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := resolver.Resolve(c.UserContext(), c.Get(fiber.HeaderAuthorization))
		if err != nil {
			if errors.Is(err, auth.ErrUnauthenticated) {
				logger.SecurityLogger.Warn("Rejected credentials",
					zap.String("ip", c.IP()),
					zap.String("url", c.OriginalURL()),
					zap.Error(err),
				)
				return Unauthorized(c, "Could not validate credentials")
			}
			logger.ErrorLogger.Error("Error resolving current user", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Internal server error",
				"success": false,
				"status":  fiber.StatusInternalServerError,
			})
		}
		logger.ContextLogger.Debug("Resolved current user",
			zap.Any("request_id", c.Locals("requestID")),
			zap.Int("user_id", user.ID),
			zap.String("url", c.OriginalURL()),
		)
		c.Locals(userLocalKey, user)
		return c.Next()
	}
}

// CurrentUser hanya valid di route yang dilindungi RequireUser.
func CurrentUser(c *fiber.Ctx) models.User {
	user, _ := c.Locals(userLocalKey).(models.User)
	return user
}

// Unauthorized menulis 401 dengan challenge Bearer.
func Unauthorized(c *fiber.Ctx, message string) error {
	c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"message": message,
		"success": false,
		"status":  fiber.StatusUnauthorized,
	})
}
