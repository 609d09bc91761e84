package jwt

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/artem13815/library/pkg/auth"
)

const userLocalsKey = "user"

// Authorizer resolves a bearer token into a user holding one of the required roles.
type Authorizer interface {
	Authorize(ctx context.Context, token string, required ...string) (auth.User, error)
}

// RequireRoles returns a Fiber middleware that validates the bearer token
// and the caller's roles. On success the user is stored in c.Locals.
func RequireRoles(gate Authorizer, roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return unauthorized(c, "missing Authorization header")
		}
		tokenStr := bearerToken(authHeader)
		if tokenStr == "" {
			return unauthorized(c, "empty token")
		}
		user, err := gate.Authorize(c.Context(), tokenStr, roles...)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrForbidden):
				return c.Status(http.StatusForbidden).JSON(fiber.Map{"message": "Don't have permissions to access the resources"})
			case errors.Is(err, auth.ErrTokenExpired):
				return unauthorized(c, "token expired")
			case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrUserNotFound):
				return unauthorized(c, "Could not validate credentials")
			default:
				return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"message": "failed to authorize request"})
			}
		}
		c.Locals(userLocalsKey, user)
		return c.Next()
	}
}

// CurrentUser returns the user stored by RequireRoles.
func CurrentUser(c *fiber.Ctx) (auth.User, bool) {
	user, ok := c.Locals(userLocalsKey).(auth.User)
	return user, ok
}

// Support both "Bearer <token>" and "<token>" (no prefix).
func bearerToken(header string) string {
	if strings.Contains(header, " ") {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	return strings.TrimSpace(header)
}

func unauthorized(c *fiber.Ctx, message string) error {
	c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
	return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"message": message})
}
