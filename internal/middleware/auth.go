package middleware

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/lavanda/internal/config"
	"github.com/example/lavanda/internal/utils"
)

const (
	userContextKey = "currentUserID"
	roleContextKey = "currentUserRole"

	// SessionCookie carries the customer's JWT. HTTP-only: the phone
	// behind it passed call verification at some prior point.
	SessionCookie = "lavanda_session"
)

// AuthMiddleware validates the session and loads the authenticated user ID
// into context. Customers carry the token in an HTTP-only cookie; the
// Authorization header is honored as a fallback for API clients.
func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(SessionCookie)
		if token == "" {
			token = bearerToken(c)
		}
		if token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing session")
		}

		userID, role, err := utils.ParseToken(cfg.JWTSecret, token)
		if err != nil {
			ClearSessionCookie(c)
			return fiber.NewError(fiber.StatusUnauthorized, "invalid session")
		}

		c.Locals(userContextKey, userID)
		c.Locals(roleContextKey, role)
		return c.Next()
	}
}

// AdminMiddleware validates a staff token from the Authorization header.
func AdminMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing authorization header")
		}

		userID, role, err := utils.ParseToken(cfg.JWTSecret, token)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		if role != utils.RoleAdmin {
			return fiber.NewError(fiber.StatusForbidden, "admin access required")
		}

		c.Locals(userContextKey, userID)
		c.Locals(roleContextKey, role)
		return c.Next()
	}
}

// SetSessionCookie writes the customer session cookie.
func SetSessionCookie(c *fiber.Ctx, token string, ttl time.Duration) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Expires:  time.Now().Add(ttl),
		HTTPOnly: true,
		SameSite: "Lax",
		Path:     "/",
	})
}

// ClearSessionCookie expires the customer session cookie.
func ClearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		SameSite: "Lax",
		Path:     "/",
	})
}

// GetCurrentUserID extracts the authenticated user ID from context.
func GetCurrentUserID(c *fiber.Ctx) (uuid.UUID, bool) {
	value := c.Locals(userContextKey)
	if value == nil {
		return uuid.Nil, false
	}

	if id, ok := value.(uuid.UUID); ok {
		return id, true
	}

	return uuid.Nil, false
}

func bearerToken(c *fiber.Ctx) string {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
